package mdlive

import (
	"context"
	"fmt"
)

// FenceFunc renders one fenced code block to markup. The Renderer supplies
// its own strategy that routes diagram fences, highlighted code and plain
// code differently; a Parser implementation must call it for every fence and
// emit the returned markup verbatim.
type FenceFunc func(content, lang string) string

// Parser converts protected Markdown text to HTML markup.
type Parser interface {
	Parse(text string, fence FenceFunc) (string, error)
}

// Sanitizer cleans untrusted markup. Implementations must pass the
// data-mdl-* structural marker attributes through unmodified.
type Sanitizer interface {
	Sanitize(markup string) (string, error)
}

// MathTypesetter converts a math expression to markup. display selects block
// form. Implementations should degrade gracefully on recoverable syntax
// issues; a returned error makes the Renderer fall back to the raw
// expression text.
type MathTypesetter interface {
	Typeset(expr string, display bool) (string, error)
}

// DiagramEngine materializes diagram source into graphic markup. id is
// unique per attempt; an engine that writes stray elements keyed by id into
// the shared tree on failure will have them removed by the pipeline.
type DiagramEngine interface {
	Render(ctx context.Context, id, source string) (string, error)
}

// Highlighter converts code text to highlighted markup. Returning an error
// or rejecting the language makes the Renderer fall back to escaped plain
// text.
type Highlighter interface {
	Highlight(code, lang string) (string, error)
}

// fallbackTypesetter wraps expressions in styled containers without real
// typesetting, so the module renders something sensible out of the box.
type fallbackTypesetter struct{}

func (fallbackTypesetter) Typeset(expr string, display bool) (string, error) {
	if display {
		return fmt.Sprintf(`<div class="mdl-math-block">%s</div>`, escapeHTML(expr)), nil
	}
	return fmt.Sprintf(`<span class="mdl-math">%s</span>`, escapeHTML(expr)), nil
}
