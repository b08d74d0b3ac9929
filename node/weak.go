// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package node

// Weak is a non-owning reference to a node.
// It never keeps the node alive: once the node is removed
// from its graph, Get reports false forever, even if the
// node's slot is reused.
// The zero value refers to no node.
type Weak struct {
	g *Graph
	n Node
}

// Weak creates a weak reference to n.
// n may be Nil, in which case the reference is empty.
func (g *Graph) Weak(n Node) Weak {
	if n == Nil {
		return Weak{}
	}
	return Weak{g, n}
}

// Get returns the referenced node and whether it is
// still alive.
func (w Weak) Get() (Node, bool) {
	if w.g == nil || !w.g.Alive(w.n) {
		return Nil, false
	}
	return w.n, true
}

// Alive reports whether the referenced node is alive.
func (w Weak) Alive() bool {
	_, ok := w.Get()
	return ok
}

// Graph returns the graph that w refers into, or nil if
// w is empty.
func (w Weak) Graph() *Graph { return w.g }
