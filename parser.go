package mdlive

import (
	"fmt"
	"regexp"
	"strings"
)

// blockParser is the default structural parser: a line-oriented Markdown
// subset (headings, paragraphs, fenced code, blockquotes, lists, thematic
// breaks, basic inline spans) emitting HTML. It re-parses the whole protected
// text every pass; passes are cheap and synchronous, incrementality lives in
// the reconciler, not here.
type blockParser struct{}

func (blockParser) Parse(text string, fence FenceFunc) (string, error) {
	var out strings.Builder
	var para []string
	var quote []string
	var list []string
	listOrdered := false

	flushPara := func() {
		if len(para) == 0 {
			return
		}
		out.WriteString("<p>")
		out.WriteString(renderInline(strings.Join(para, " ")))
		out.WriteString("</p>")
		para = para[:0]
	}
	flushQuote := func() {
		if len(quote) == 0 {
			return
		}
		out.WriteString("<blockquote><p>")
		out.WriteString(renderInline(strings.Join(quote, " ")))
		out.WriteString("</p></blockquote>")
		quote = quote[:0]
	}
	flushList := func() {
		if len(list) == 0 {
			return
		}
		tag := "ul"
		if listOrdered {
			tag = "ol"
		}
		out.WriteString("<" + tag + ">")
		for _, item := range list {
			out.WriteString("<li>")
			out.WriteString(renderInline(item))
			out.WriteString("</li>")
		}
		out.WriteString("</" + tag + ">")
		list = list[:0]
	}
	flushAll := func() {
		flushPara()
		flushQuote()
		flushList()
	}

	lines := strings.Split(text, "\n")
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if marker, markerLen := fenceOpenMarker(line); marker != 0 {
			flushAll()
			info := strings.TrimSpace(strings.TrimLeft(strings.TrimLeft(line, " "), string(marker)))
			lang := info
			if j := strings.IndexAny(info, " \t"); j >= 0 {
				lang = info[:j]
			}
			var content strings.Builder
			i++
			for ; i < len(lines); i++ {
				if fenceCloseMarker(lines[i], marker, markerLen) {
					break
				}
				content.WriteString(lines[i])
				content.WriteString("\n")
			}
			out.WriteString(fence(content.String(), lang))
			continue
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flushAll()
		case isThematicBreak(trimmed):
			flushAll()
			out.WriteString("<hr/>")
		case strings.HasPrefix(trimmed, "#"):
			level := 0
			for level < len(trimmed) && trimmed[level] == '#' {
				level++
			}
			if level > 6 || level == len(trimmed) || trimmed[level] != ' ' {
				para = append(para, trimmed)
				continue
			}
			flushAll()
			body := strings.TrimSpace(trimmed[level:])
			fmt.Fprintf(&out, "<h%d>%s</h%d>", level, renderInline(body), level)
		case strings.HasPrefix(trimmed, ">"):
			flushPara()
			flushList()
			quote = append(quote, strings.TrimSpace(strings.TrimPrefix(trimmed[1:], " ")))
		case listItemBody(trimmed, false) != "":
			flushPara()
			flushQuote()
			if len(list) > 0 && listOrdered {
				flushList()
			}
			listOrdered = false
			list = append(list, listItemBody(trimmed, false))
		case listItemBody(trimmed, true) != "":
			flushPara()
			flushQuote()
			if len(list) > 0 && !listOrdered {
				flushList()
			}
			listOrdered = true
			list = append(list, listItemBody(trimmed, true))
		default:
			flushQuote()
			flushList()
			para = append(para, trimmed)
		}
	}
	flushAll()
	return out.String(), nil
}

func isThematicBreak(s string) bool {
	if len(s) < 3 {
		return false
	}
	m := s[0]
	if m != '-' && m != '*' && m != '_' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] != m {
			return false
		}
	}
	return true
}

// listItemBody returns the item text when the line is a list item of the
// requested kind, or "".
func listItemBody(s string, ordered bool) string {
	if !ordered {
		if len(s) > 2 && (s[0] == '-' || s[0] == '*' || s[0] == '+') && s[1] == ' ' {
			return strings.TrimSpace(s[2:])
		}
		return ""
	}
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i+1 >= len(s) {
		return ""
	}
	if (s[i] != '.' && s[i] != ')') || s[i+1] != ' ' {
		return ""
	}
	return strings.TrimSpace(s[i+2:])
}

var inlineCodeSpanRe = regexp.MustCompile("`([^`\n]+)`")
var inlineImageRe = regexp.MustCompile(`!\[([^\]]*)\]\(([^)\s]+)\)`)
var inlineLinkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
var inlineStrongRe = regexp.MustCompile(`\*\*([^*]+)\*\*`)
var inlineEmRe = regexp.MustCompile(`\*([^*]+)\*`)

// renderInline converts inline spans on already-escaped text. Code spans are
// pulled out first so emphasis markers inside code are never reinterpreted.
func renderInline(s string) string {
	out := escapeHTML(s)
	var codes []string
	out = inlineCodeSpanRe.ReplaceAllStringFunc(out, func(m string) string {
		codes = append(codes, m[1:len(m)-1])
		return fmt.Sprintf("\x00%d\x00", len(codes)-1)
	})
	out = inlineImageRe.ReplaceAllString(out, `<img src="$2" alt="$1"/>`)
	out = inlineLinkRe.ReplaceAllString(out, `<a href="$2">$1</a>`)
	out = inlineStrongRe.ReplaceAllString(out, "<strong>$1</strong>")
	out = inlineEmRe.ReplaceAllString(out, "<em>$1</em>")
	for i, code := range codes {
		out = strings.Replace(out, fmt.Sprintf("\x00%d\x00", i), "<code>"+code+"</code>", 1)
	}
	return out
}
