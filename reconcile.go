package mdlive

import "golang.org/x/net/html"

// reconcile patches the persistent tree's child list toward the candidate
// nodes by position index. It is deliberately shallow and non-keyed: a
// mid-sequence insertion shifts later positions and causes cascading
// replacements. The dominant workload is monotonic append at the tail, where
// positional matching is exact, and a keyed algorithm would change the
// preservation semantics for materialized nodes.
func reconcile(root *html.Node, candidate []*html.Node) {
	var old []*html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		old = append(old, c)
	}
	n := len(old)
	if len(candidate) > n {
		n = len(candidate)
	}
	for i := 0; i < n; i++ {
		switch {
		case i >= len(old):
			root.AppendChild(cloneNode(candidate[i]))
		case i >= len(candidate):
			root.RemoveChild(old[i])
		default:
			patchNode(root, old[i], candidate[i])
		}
	}
}

func patchNode(root *html.Node, old, cand *html.Node) {
	if old.Type != cand.Type {
		replaceNode(root, old, cand)
		return
	}
	if old.Type == html.TextNode {
		if old.Data != cand.Data {
			old.Data = cand.Data
		}
		return
	}
	if old.Type != html.ElementNode {
		replaceNode(root, old, cand)
		return
	}
	if old.Data != cand.Data {
		replaceNode(root, old, cand)
		return
	}
	// Preservation rule: a pending sub-content candidate whose fingerprint
	// matches an already attempted node at the same position is left
	// untouched, protecting the expensive rendered form (or its error
	// banner) from being torn down by a re-parse of unchanged source.
	if isSubContent(cand) && isSubContent(old) {
		oldFP, _ := getAttr(old, attrFingerprint)
		candFP, _ := getAttr(cand, attrFingerprint)
		oldState, _ := getAttr(old, attrState)
		if oldFP == candFP && oldState != statePending {
			return
		}
	}
	if renderNode(old) != renderNode(cand) {
		replaceNode(root, old, cand)
	}
}

func replaceNode(root *html.Node, old, cand *html.Node) {
	root.InsertBefore(cloneNode(cand), old)
	root.RemoveChild(old)
}
