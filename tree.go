package mdlive

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Structural marker attributes carried by sub-content nodes. The sanitizer
// must pass these through unmodified or fingerprint preservation silently
// breaks.
const (
	attrFingerprint = "data-mdl-fp"
	attrState       = "data-mdl-state"
	attrSource      = "data-mdl-src"
	attrRenderID    = "data-mdl-id"
)

const (
	statePending  = "pending"
	stateRendered = "rendered"
	stateError    = "error"
)

// parseFragment parses markup as body content and returns the detached
// top-level nodes.
func parseFragment(markup string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		n.Parent = nil
		n.PrevSibling = nil
		n.NextSibling = nil
	}
	return nodes, nil
}

// renderNode serializes a single node to HTML.
func renderNode(n *html.Node) string {
	var b strings.Builder
	_ = html.Render(&b, n)
	return b.String()
}

// renderChildren serializes the children of root in order.
func renderChildren(root *html.Node) string {
	var b strings.Builder
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&b, c)
	}
	return b.String()
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// cloneNode deep-copies a node so candidate-tree nodes can be adopted into
// the persistent tree without sharing structure with the transient parse.
func cloneNode(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	if len(n.Attr) > 0 {
		c.Attr = make([]html.Attribute, len(n.Attr))
		copy(c.Attr, n.Attr)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.AppendChild(cloneNode(child))
	}
	return c
}

// removeChildren empties a node in place.
func removeChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

// replaceChildrenWithFragment swaps a node's content for parsed markup.
func replaceChildrenWithFragment(n *html.Node, markup string) error {
	nodes, err := parseFragment(markup)
	if err != nil {
		return err
	}
	removeChildren(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// textContent concatenates the text nodes under n.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(m *html.Node) {
		if m.Type == html.TextNode {
			b.WriteString(m.Data)
		}
		for c := m.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// isSubContent reports whether a node is a deferred-expensive sub-content
// node, identified by its fingerprint marker.
func isSubContent(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	_, ok := getAttr(n, attrFingerprint)
	return ok
}
