package mdlive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	defaultPassInterval = 80 * time.Millisecond
	defaultSubInterval  = 300 * time.Millisecond
)

// ErrClosed reports use of a Renderer after Close.
var ErrClosed = errors.New("mdlive: renderer closed")

// Renderer incrementally renders Markdown arriving in bursts into a live
// HTML tree. Already materialized expensive nodes (diagrams) survive
// re-parses by content fingerprint, and syntactically incomplete fragments
// render as streaming previews instead of flickering through error states.
//
// All tree access is serialized on an internal mutex; timer callbacks take
// the same lock, which is the Go rendition of the single-threaded timer
// queue this design assumes. Hooks run under that lock and must not call
// back into the Renderer.
type Renderer struct {
	mu sync.Mutex

	clock        Clock
	log          *slog.Logger
	ctx          context.Context
	parser       Parser
	sanitizer    Sanitizer
	math         MathTypesetter
	diagram      DiagramEngine
	highlight    Highlighter
	diagramLangs map[string]bool
	passInterval time.Duration
	subInterval  time.Duration

	beforeParse   func(string) string
	afterSanitize func(string) string
	afterUpdate   func(*html.Node)
	onError       func(error)

	source  string
	eof     bool
	table   *placeholderTable
	root    *html.Node
	lastErr error
	closed  bool

	passSched *passScheduler
	subSched  *subScheduler
}

// New creates a Renderer with default collaborators: the built-in block
// parser, the allow-list sanitizer, a degrade-only math typesetter, no
// highlighter and no diagram engine.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		clock:        realClock{},
		log:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		ctx:          context.Background(),
		parser:       blockParser{},
		sanitizer:    newAllowlistSanitizer(nil, nil),
		math:         fallbackTypesetter{},
		diagramLangs: map[string]bool{"mermaid": true},
		passInterval: defaultPassInterval,
		subInterval:  defaultSubInterval,
		root: &html.Node{
			Type:     html.ElementNode,
			Data:     "div",
			DataAtom: atom.Div,
			Attr:     []html.Attribute{{Key: "class", Val: "mdl-root"}},
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.passSched = &passScheduler{clock: r.clock, interval: r.passInterval, run: r.doPass}
	r.subSched = &subScheduler{clock: r.clock, interval: r.subInterval, run: r.doSubRender}
	return r
}

// Configure reapplies collaborator configuration. Safe between streams;
// pending timers keep running and pick up the new intervals on their next
// arm.
func (r *Renderer) Configure(cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applyConfig(cfg)
	r.passSched.mu.Lock()
	r.passSched.interval = r.passInterval
	r.passSched.mu.Unlock()
	r.subSched.mu.Lock()
	r.subSched.interval = r.subInterval
	r.subSched.mu.Unlock()
}

// Append adds streamed text to the source document and requests a pass.
func (r *Renderer) Append(text string) error {
	return r.input(text, false)
}

// Replace swaps the whole source document and requests a pass.
func (r *Renderer) Replace(text string) error {
	return r.input(text, true)
}

func (r *Renderer) input(text string, replace bool) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.mu.Unlock()
	if err := ValidateInput([]byte(text)); err != nil {
		r.reportError(fmt.Errorf("input: %w", err))
		return err
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if replace {
		r.source = text
	} else {
		r.source += text
	}
	r.eof = false
	r.mu.Unlock()
	r.passSched.request()
	return nil
}

// Flush cancels any pending pass timer, runs the pass synchronously, and
// then materializes pending sub-content immediately. Call it at end of
// stream so no timer leaves stale output displayed.
func (r *Renderer) Flush() {
	r.mu.Lock()
	r.eof = true
	r.mu.Unlock()
	r.passSched.flush()
	r.subSched.flush()
}

// Close cancels both schedulers. Subsequent input returns ErrClosed and
// orphaned timer callbacks become no-ops instead of mutating a detached
// tree.
func (r *Renderer) Close() {
	r.passSched.stop()
	r.subSched.stop()
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// HTML returns the current rendered output. After a fatal pass failure the
// last good render is kept and a visible error banner is appended until a
// later pass succeeds.
func (r *Renderer) HTML() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := renderChildren(r.root)
	if r.lastErr != nil {
		out += `<div class="mdl-error">` + escapeHTML(r.lastErr.Error()) + `</div>`
	}
	return out
}

// Tree returns the live tree's container node. The caller must treat it as
// read-only; it is continuously patched by subsequent passes.
func (r *Renderer) Tree() *html.Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.root
}

// Err returns the last fatal pass error, or nil after a successful pass.
func (r *Renderer) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// doPass runs one full protect → parse → sanitize → restore → reconcile
// cycle against the latest source. Parse and sanitize failures are fatal to
// this pass only: the live tree is left untouched.
func (r *Renderer) doPass() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	src := stripFrontMatter(r.source, r.eof)
	if r.beforeParse != nil {
		src = r.beforeParse(src)
	}
	table := newPlaceholderTable()
	protected := table.encode(src)
	fence := func(content, lang string) string {
		return r.fenceMarkup(content, lang, src)
	}
	markup, err := r.parser.Parse(protected, fence)
	if err != nil {
		r.passFailed(fmt.Errorf("parse: %w", err))
		return
	}
	sanitized, err := r.sanitizer.Sanitize(markup)
	if err != nil {
		r.passFailed(fmt.Errorf("sanitize: %w", err))
		return
	}
	if r.afterSanitize != nil {
		sanitized = r.afterSanitize(sanitized)
	}
	restored := table.restoreMath(sanitized, r.math)
	candidate, err := parseFragment(restored)
	if err != nil {
		r.passFailed(fmt.Errorf("candidate parse: %w", err))
		return
	}
	reconcile(r.root, candidate)
	r.table = table
	r.lastErr = nil
	if r.afterUpdate != nil {
		r.afterUpdate(r.root)
	}
	r.subSched.restart()
}

// fenceMarkup is the per-fence strategy handed to the parser. Diagram
// fences are gated on completeness against the full source document; code
// fences go through the highlighter when one is configured and the language
// is accepted, and escape to plain text otherwise.
func (r *Renderer) fenceMarkup(content, lang, src string) string {
	l := normalizeLang(lang)
	if r.diagramLangs[l] {
		if !fenceClosed(content, src) {
			return previewMarkup(content, lang)
		}
		raw := strings.TrimSpace(content)
		return fmt.Sprintf(`<div class="mdl-diagram" %s="%s" %s="%s" %s="%s"><pre class="mdl-preview">%s</pre></div>`,
			attrFingerprint, Fingerprint(raw),
			attrState, statePending,
			attrSource, escapeHTML(raw),
			escapeHTML(raw))
	}
	if r.highlight != nil && content != "" {
		if hl, err := r.highlight.Highlight(content, l); err == nil {
			return `<pre class="mdl-code">` + hl + `</pre>`
		}
	}
	cls := ""
	if l != "" {
		cls = ` class="language-` + escapeHTML(l) + `"`
	}
	return "<pre><code" + cls + ">" + escapeHTML(content) + "</code></pre>"
}

// previewMarkup renders an unclosed block as an unobtrusive in-progress
// preview: escaped literal source, no error styling.
func previewMarkup(content, lang string) string {
	return `<pre class="mdl-preview">` + escapeHTML("```"+lang+"\n"+content) + `</pre>`
}

func normalizeLang(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}

// doSubRender is the debounced sub-render firing: one sequential scan of the
// current sub-content nodes. Already materialized nodes are skipped by their
// structural marker, so concurrent restarts of the debounce cannot cause
// duplicate work. The renderer lock is released around each engine call, so
// Append/HTML/Flush stay usable while a render is in flight.
func (r *Renderer) doSubRender() {
	r.mu.Lock()
	if r.closed || r.diagram == nil {
		r.mu.Unlock()
		return
	}
	root, engine, table, log := r.root, r.diagram, r.table, r.log
	ctx := r.ctx
	r.mu.Unlock()
	materializePending(ctx, &r.mu, root, engine, table, log)
	r.mu.Lock()
	if !r.closed && r.afterUpdate != nil {
		r.afterUpdate(r.root)
	}
	r.mu.Unlock()
}

func (r *Renderer) passFailed(err error) {
	r.lastErr = err
	r.log.Warn("render pass failed", "error", err)
	if r.onError != nil {
		r.onError(err)
	}
}

func (r *Renderer) reportError(err error) {
	r.log.Warn("input rejected", "error", err)
	r.mu.Lock()
	cb := r.onError
	r.mu.Unlock()
	if cb != nil {
		cb(err)
	}
}
