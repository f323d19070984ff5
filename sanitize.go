package mdlive

import (
	"strings"

	"golang.org/x/net/html"
)

var baseAllowedTags = map[string]bool{
	"a": true, "blockquote": true, "br": true, "code": true, "del": true,
	"div": true, "em": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "hr": true, "img": true, "li": true, "ol": true,
	"p": true, "pre": true, "span": true, "strong": true, "table": true,
	"tbody": true, "td": true, "th": true, "thead": true, "tr": true,
	"ul": true,
}

var baseAllowedAttrs = map[string]bool{
	"alt": true, "class": true, "href": true, "src": true, "title": true,
}

var droppedTags = map[string]bool{
	"script": true, "style": true, "iframe": true, "object": true,
	"embed": true, "form": true,
}

// allowlistSanitizer is the default Sanitizer: a strict tag and attribute
// allow-list that always passes the data-mdl-* structural markers through.
// Additional tags and attributes can be granted for custom collaborators.
type allowlistSanitizer struct {
	extraTags  map[string]bool
	extraAttrs map[string]bool
}

func newAllowlistSanitizer(tags, attrs []string) *allowlistSanitizer {
	s := &allowlistSanitizer{
		extraTags:  make(map[string]bool, len(tags)),
		extraAttrs: make(map[string]bool, len(attrs)),
	}
	for _, t := range tags {
		s.extraTags[strings.ToLower(t)] = true
	}
	for _, a := range attrs {
		s.extraAttrs[strings.ToLower(a)] = true
	}
	return s
}

func (s *allowlistSanitizer) Sanitize(markup string) (string, error) {
	nodes, err := parseFragment(markup)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, n := range nodes {
		kept := s.clean(n)
		for _, k := range kept {
			_ = html.Render(&b, k)
		}
	}
	return b.String(), nil
}

// clean returns the sanitized replacement nodes for n: the node itself,
// its children hoisted in its place, or nothing.
func (s *allowlistSanitizer) clean(n *html.Node) []*html.Node {
	switch n.Type {
	case html.TextNode:
		return []*html.Node{n}
	case html.ElementNode:
	default:
		return nil
	}
	tag := strings.ToLower(n.Data)
	if droppedTags[tag] {
		return nil
	}
	var cleanChildren []*html.Node
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		cleanChildren = append(cleanChildren, s.clean(c)...)
		c = next
	}
	if !baseAllowedTags[tag] && !s.extraTags[tag] {
		// unknown element: hoist its content
		return cleanChildren
	}
	n.Attr = s.cleanAttrs(n.Attr)
	for _, c := range cleanChildren {
		n.AppendChild(c)
	}
	return []*html.Node{n}
}

func (s *allowlistSanitizer) cleanAttrs(attrs []html.Attribute) []html.Attribute {
	out := attrs[:0]
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		switch {
		case strings.HasPrefix(key, "data-mdl-"):
		case baseAllowedAttrs[key] || s.extraAttrs[key]:
			if (key == "href" || key == "src") && !safeURL(a.Val) {
				continue
			}
		default:
			continue
		}
		out = append(out, a)
	}
	return out
}

func safeURL(raw string) bool {
	v := strings.TrimSpace(strings.ToLower(raw))
	if strings.HasPrefix(v, "javascript:") || strings.HasPrefix(v, "vbscript:") || strings.HasPrefix(v, "data:") {
		return false
	}
	return true
}
