package view

import (
	"context"
	"html/template"
	"sync"
)

// NodeState is the lifecycle of one mounted body-tree node.
type NodeState int

const (
	StateUnfetched NodeState = iota
	StateLoading
	StateRendered
	StateError
)

// NodeView owns the fetch-and-render lifecycle of a single body-tree node:
// unfetched -> loading -> rendered | error. Mounting starts the fetch;
// unmounting cancels it, and a result that arrives after the node was
// unmounted (or remounted) is discarded rather than applied to a
// since-replaced view. There is no automatic retry: remounting re-attempts.
type NodeView struct {
	renderer *Renderer
	id       string
	path     Path

	mu     sync.Mutex
	state  NodeState
	html   template.HTML
	err    error
	gen    int
	cancel context.CancelFunc
}

// NewNodeView creates an unmounted node view for the given message and path.
func NewNodeView(r *Renderer, id string, path Path) *NodeView {
	return &NodeView{renderer: r, id: id, path: path, state: StateUnfetched}
}

// Mount starts fetching and rendering the node. The returned channel closes
// when this mount's work finishes, whether the result was applied or
// discarded. Mounting an already-mounted node replaces the previous mount.
func (n *NodeView) Mount(ctx context.Context) <-chan struct{} {
	n.mu.Lock()
	if n.cancel != nil {
		n.cancel()
	}
	n.gen++
	gen := n.gen
	ctx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	n.state = StateLoading
	n.html = ""
	n.err = nil
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()

		html, err := n.renderer.Render(ctx, n.id, n.path)

		n.mu.Lock()
		defer n.mu.Unlock()
		if n.gen != gen {
			// Superseded by an unmount or a newer mount; drop the result
			return
		}
		if err != nil {
			n.state = StateError
			n.err = err
			return
		}
		n.state = StateRendered
		n.html = html
	}()
	return done
}

// Unmount cancels any in-flight fetch and resets the node to unfetched.
func (n *NodeView) Unmount() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
	n.gen++
	n.state = StateUnfetched
	n.html = ""
	n.err = nil
}

// State reports the current lifecycle state.
func (n *NodeView) State() NodeState {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Result returns the rendered markup, or the error that ended the last
// mount. Meaningful once the mount's done channel has closed.
func (n *NodeView) Result() (template.HTML, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.html, n.err
}
