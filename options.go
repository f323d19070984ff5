package mdlive

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/net/html"
)

// Option configures a Renderer at construction time.
type Option func(*Renderer)

// WithClock replaces the timer source, letting tests drive both schedulers
// with a virtual clock.
func WithClock(c Clock) Option {
	return func(r *Renderer) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithLogger sets the diagnostic logger. The default discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(r *Renderer) {
		if log != nil {
			r.log = log
		}
	}
}

// WithContext sets the context passed to diagram engine calls.
func WithContext(ctx context.Context) Option {
	return func(r *Renderer) {
		if ctx != nil {
			r.ctx = ctx
		}
	}
}

// WithParser replaces the structural parser collaborator.
func WithParser(p Parser) Option {
	return func(r *Renderer) {
		if p != nil {
			r.parser = p
		}
	}
}

// WithSanitizer replaces the output sanitizer collaborator.
func WithSanitizer(s Sanitizer) Option {
	return func(r *Renderer) {
		if s != nil {
			r.sanitizer = s
		}
	}
}

// WithMathTypesetter replaces the math typesetting collaborator.
func WithMathTypesetter(ts MathTypesetter) Option {
	return func(r *Renderer) {
		if ts != nil {
			r.math = ts
		}
	}
}

// WithDiagramEngine sets the diagram rendering collaborator. Without one,
// diagram fences stay as streaming previews and are never materialized.
func WithDiagramEngine(d DiagramEngine) Option {
	return func(r *Renderer) {
		r.diagram = d
	}
}

// WithHighlighter sets the syntax highlighting collaborator.
func WithHighlighter(h Highlighter) Option {
	return func(r *Renderer) {
		r.highlight = h
	}
}

// WithBeforeParse registers a hook invoked synchronously on the raw source
// before placeholder protection and parsing. Its return value becomes the
// pass input.
func WithBeforeParse(f func(string) string) Option {
	return func(r *Renderer) {
		r.beforeParse = f
	}
}

// WithAfterSanitize registers a hook invoked synchronously on sanitized
// markup before math restoration. Its return value feeds the reconciler.
func WithAfterSanitize(f func(string) string) Option {
	return func(r *Renderer) {
		r.afterSanitize = f
	}
}

// WithAfterUpdate registers a hook invoked synchronously after the live tree
// has been patched, both by passes and by sub-render firings. The hook must
// not call back into the Renderer.
func WithAfterUpdate(f func(*html.Node)) Option {
	return func(r *Renderer) {
		r.afterUpdate = f
	}
}

// WithOnError registers a callback for pass-fatal failures.
func WithOnError(f func(error)) Option {
	return func(r *Renderer) {
		r.onError = f
	}
}

// WithConfig applies a Config at construction time.
func WithConfig(cfg Config) Option {
	return func(r *Renderer) {
		r.applyConfig(cfg)
	}
}

// Config carries the reinitializable collaborator configuration that every
// pass depends on. Zero values keep current settings, so a partial Config
// can adjust a single knob. Configure may be called between streams for a
// deterministic reset.
type Config struct {
	// PassInterval is the coalescing throttle interval for full passes.
	PassInterval time.Duration
	// SubRenderInterval is the debounce interval for sub-render firings.
	SubRenderInterval time.Duration
	// DiagramLanguages lists fence info strings routed to the diagram
	// engine. Default: mermaid.
	DiagramLanguages []string
	// ExtraTags and ExtraAttrs widen the default sanitizer's allow-list.
	// Ignored when a custom Sanitizer is installed.
	ExtraTags  []string
	ExtraAttrs []string
}

func (r *Renderer) applyConfig(cfg Config) {
	if cfg.PassInterval > 0 {
		r.passInterval = cfg.PassInterval
	}
	if cfg.SubRenderInterval > 0 {
		r.subInterval = cfg.SubRenderInterval
	}
	if cfg.DiagramLanguages != nil {
		langs := make(map[string]bool, len(cfg.DiagramLanguages))
		for _, l := range cfg.DiagramLanguages {
			langs[normalizeLang(l)] = true
		}
		r.diagramLangs = langs
	}
	if cfg.ExtraTags != nil || cfg.ExtraAttrs != nil {
		if _, ok := r.sanitizer.(*allowlistSanitizer); ok {
			r.sanitizer = newAllowlistSanitizer(cfg.ExtraTags, cfg.ExtraAttrs)
		}
	}
}
