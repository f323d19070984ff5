package mdlive

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
	"golang.org/x/net/html"
)

// materializePending walks the live tree and materializes every sub-content
// node still in pending state, one at a time. The diagram engine call is the
// only operation expected to suspend, so mu is released while it runs and the
// host surface stays usable; nodes are handled sequentially to bound resource
// use. A failing node gets an error banner with its escaped source and never
// prevents sibling nodes from being attempted.
func materializePending(ctx context.Context, mu sync.Locker, root *html.Node, engine DiagramEngine, table *placeholderTable, log *slog.Logger) {
	if engine == nil {
		return
	}
	mu.Lock()
	pending := collectPending(root)
	mu.Unlock()
	for _, node := range pending {
		materializeNode(ctx, mu, root, node, engine, table, log)
	}
}

func collectPending(root *html.Node) []*html.Node {
	var pending []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if isSubContent(n) {
			if state, _ := getAttr(n, attrState); state == statePending {
				pending = append(pending, n)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return pending
}

func materializeNode(ctx context.Context, mu sync.Locker, root, node *html.Node, engine DiagramEngine, table *placeholderTable, log *slog.Logger) {
	mu.Lock()
	if state, _ := getAttr(node, attrState); state != statePending {
		mu.Unlock()
		return
	}
	source, _ := getAttr(node, attrSource)
	if table != nil {
		source = table.decode(source)
	}
	if source == "" {
		mu.Unlock()
		return
	}
	id := "mdl" + ulid.Make().String()
	setAttr(node, attrRenderID, id)
	mu.Unlock()

	markup, err := engine.Render(ctx, id, source)

	mu.Lock()
	defer mu.Unlock()
	if state, _ := getAttr(node, attrState); state != statePending || !attachedTo(root, node) {
		// a pass replaced the node while the render was in flight; the fresh
		// pending node will be picked up by the next firing
		return
	}
	if err != nil {
		log.Warn("diagram render failed", "id", id, "error", err)
		banner := fmt.Sprintf(`<div class="mdl-diagram-error">diagram failed: %s</div><pre>%s</pre>`,
			escapeHTML(err.Error()), escapeHTML(source))
		if rerr := replaceChildrenWithFragment(node, banner); rerr != nil {
			removeChildren(node)
		}
		setAttr(node, attrState, stateError)
		removeStrayArtifacts(root, node, id)
		return
	}
	if err := replaceChildrenWithFragment(node, markup); err != nil {
		log.Warn("diagram markup unparsable", "id", id, "error", err)
		removeChildren(node)
		setAttr(node, attrState, stateError)
		return
	}
	setAttr(node, attrState, stateRendered)
	log.Debug("diagram materialized", "id", id)
}

func attachedTo(root, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

// removeStrayArtifacts deletes any element the diagram engine may have
// attached outside the failed node's subtree under the render identifier.
// Engines are known to leave orphaned error elements behind in the shared
// tree when they raise.
func removeStrayArtifacts(root, keep *html.Node, id string) {
	var strays []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n == keep {
			return
		}
		if n.Type == html.ElementNode {
			if v, ok := getAttr(n, "id"); ok && v == id {
				strays = append(strays, n)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	for _, s := range strays {
		if s.Parent != nil {
			s.Parent.RemoveChild(s)
		}
	}
}
