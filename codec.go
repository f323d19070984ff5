package mdlive

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/oklog/ulid/v2"
)

// placeholderKind identifies what a placeholder token stands in for.
type placeholderKind uint8

const (
	phCode placeholderKind = iota
	phInlineCode
	phEscapedMarker
	phMathBlock
	phMathInline
)

type placeholder struct {
	kind    placeholderKind
	raw     string
	display bool
}

// placeholderTable protects literal spans from the structural parser for the
// duration of one pass. Tokens are plain alphanumeric text so neither the
// Markdown parser nor the sanitizer reinterprets them, and each table carries
// a fresh ULID so tokens from different passes can never collide with each
// other or with literal document text.
type placeholderTable struct {
	prefix  string
	entries []placeholder
}

func newPlaceholderTable() *placeholderTable {
	return &placeholderTable{prefix: "MDLIVE" + ulid.Make().String() + "X"}
}

func (t *placeholderTable) add(kind placeholderKind, raw string, display bool) string {
	t.entries = append(t.entries, placeholder{kind: kind, raw: raw, display: display})
	return t.prefix + strconv.Itoa(len(t.entries)-1) + "E"
}

func (t *placeholderTable) token(i int) string {
	return t.prefix + strconv.Itoa(i) + "E"
}

var inlineCodeRe = regexp.MustCompile("``[^`]*``|`[^`\n]*`")
var escapedDollarRe = regexp.MustCompile(`\\\$`)
var mathBlockRe = regexp.MustCompile(`(?s)\$\$(.+?)\$\$`)
var mathInlineRe = regexp.MustCompile(`\$([^$\n]+?)\$`)

// encode applies the protection stages in fixed order: fenced code blocks,
// inline code spans, escaped math delimiters, block math, inline math. Code
// placeholders are substituted back immediately so the structural parser and
// the highlighter see real syntax; math placeholders survive until
// restoreMath after sanitization.
func (t *placeholderTable) encode(text string) string {
	out := t.protectFencedCode(text)
	out = inlineCodeRe.ReplaceAllStringFunc(out, func(m string) string {
		return t.add(phInlineCode, m, false)
	})
	out = escapedDollarRe.ReplaceAllStringFunc(out, func(m string) string {
		return t.add(phEscapedMarker, m, false)
	})
	out = mathBlockRe.ReplaceAllStringFunc(out, func(m string) string {
		inner := m[2 : len(m)-2]
		return t.add(phMathBlock, inner, true)
	})
	out = mathInlineRe.ReplaceAllStringFunc(out, func(m string) string {
		inner := m[1 : len(m)-1]
		if !mathProtectable(inner) {
			return m
		}
		return t.add(phMathInline, inner, false)
	})
	return t.restoreCode(out)
}

// mathProtectable reports whether an inline math candidate should be
// protected. Candidates containing non-Latin prose runes without an explicit
// \text marker are treated as literal prose (currency mentions and the like).
func mathProtectable(expr string) bool {
	if strings.TrimSpace(expr) == "" {
		return false
	}
	if strings.Contains(expr, "\\text") {
		return true
	}
	for _, r := range expr {
		if unicode.IsLetter(r) && !unicode.In(r, unicode.Latin) {
			return false
		}
	}
	return true
}

// protectFencedCode replaces every fenced code block, including an unclosed
// fence still streaming in at the tail, with a single placeholder so the math
// stages never scan inside code.
func (t *placeholderTable) protectFencedCode(text string) string {
	var b strings.Builder
	var fence strings.Builder
	inFence := false
	var marker byte
	markerLen := 0
	rest := text
	for len(rest) > 0 {
		line := rest
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			line = rest[:i+1]
			rest = rest[i+1:]
		} else {
			rest = ""
		}
		if !inFence {
			if m, n := fenceOpenMarker(line); m != 0 {
				inFence = true
				marker = m
				markerLen = n
				fence.WriteString(line)
				continue
			}
			b.WriteString(line)
			continue
		}
		fence.WriteString(line)
		if fenceCloseMarker(line, marker, markerLen) {
			b.WriteString(t.add(phCode, fence.String(), false))
			fence.Reset()
			inFence = false
		}
	}
	if inFence {
		b.WriteString(t.add(phCode, fence.String(), false))
	}
	return b.String()
}

// fenceOpenMarker reports the fence rune and run length when a line opens a
// fenced code block (three or more backticks or tildes, up to three spaces of
// indent).
func fenceOpenMarker(line string) (byte, int) {
	s := strings.TrimRight(line, "\n")
	indent := 0
	for indent < len(s) && s[indent] == ' ' && indent < 3 {
		indent++
	}
	s = s[indent:]
	if len(s) < 3 {
		return 0, 0
	}
	m := s[0]
	if m != '`' && m != '~' {
		return 0, 0
	}
	n := 0
	for n < len(s) && s[n] == m {
		n++
	}
	if n < 3 {
		return 0, 0
	}
	if m == '`' && strings.IndexByte(s[n:], '`') >= 0 {
		// backtick in the info string: not a fence open
		return 0, 0
	}
	return m, n
}

func fenceCloseMarker(line string, marker byte, markerLen int) bool {
	s := strings.TrimSpace(line)
	if len(s) < markerLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != marker {
			return false
		}
	}
	return len(s) >= markerLen
}

// restoreCode substitutes code and inline-code placeholders back into the
// text so structural parsing operates on real syntax.
func (t *placeholderTable) restoreCode(text string) string {
	for i := len(t.entries) - 1; i >= 0; i-- {
		e := t.entries[i]
		if e.kind != phCode && e.kind != phInlineCode {
			continue
		}
		text = strings.ReplaceAll(text, t.token(i), e.raw)
	}
	return text
}

// restoreMath resolves the remaining math and escaped-marker placeholders in
// sanitized markup. Typesetting failures degrade to the escaped raw
// expression text; escaped markers resolve to a literal dollar sign. A math
// entry's raw text can itself carry tokens from the earlier stages (a code
// span or escaped marker captured inside the expression), so it is decoded
// before typesetting.
func (t *placeholderTable) restoreMath(markup string, ts MathTypesetter) string {
	for i, e := range t.entries {
		tok := t.token(i)
		if !strings.Contains(markup, tok) {
			continue
		}
		var repl string
		switch e.kind {
		case phEscapedMarker:
			repl = "$"
		case phMathBlock, phMathInline:
			raw := t.decode(e.raw)
			rendered, err := ts.Typeset(raw, e.display)
			if err != nil {
				repl = escapeHTML(raw)
			} else {
				repl = rendered
			}
		default:
			continue
		}
		markup = strings.ReplaceAll(markup, tok, repl)
	}
	return markup
}

// decode substitutes every remaining placeholder of this table with its raw
// content. The sub-render pipeline uses it to recover diagram source that
// still carries residual protection.
func (t *placeholderTable) decode(s string) string {
	if len(t.entries) == 0 || !strings.Contains(s, t.prefix) {
		return s
	}
	for i, e := range t.entries {
		s = strings.ReplaceAll(s, t.token(i), e.raw)
	}
	return s
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}
