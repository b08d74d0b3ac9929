// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package node implements the transform hierarchy of a scene.
//
// Nodes are stored in slots of a Graph and identified by
// generation-checked handles, so a handle to a removed node
// can be detected instead of referring to whatever node
// later reuses the slot.
package node

import (
	"errors"

	"github.com/wellplay/engine/internal/bitvec"
	"github.com/wellplay/engine/linear"
)

const prefix = "node: "

// Node identifies a node in a Graph.
// The zero value is Nil.
type Node struct {
	slot int32
	gen  uint32
}

// Nil represents an invalid Node.
var Nil Node

// none marks a missing link.
const none = -1

type node struct {
	// Links are slot indices, or none.
	parent int32
	next   int32
	prev   int32
	sub    int32
	// Incremented every time the slot is freed.
	// Live nodes never have gen == 0.
	gen     uint32
	changed bool
	name    string
	local   linear.M4
	world   linear.M4
}

// Graph is a node graph.
// The zero value is an empty graph ready for use.
type Graph struct {
	nodes []node
	live  bitvec.V[uint32]
	// First root, or none.
	// The zero value is fixed up on first insertion.
	root    int32
	rootSet bool
	len     int
	changed bool
}

func (g *Graph) firstRoot() int32 {
	if !g.rootSet {
		g.root = none
		g.rootSet = true
	}
	return g.root
}

// Len returns the number of live nodes in g.
func (g *Graph) Len() int { return g.len }

// Alive reports whether n refers to a live node of g.
func (g *Graph) Alive(n Node) bool {
	if n.gen == 0 || !g.live.IsSet(int(n.slot)) {
		return false
	}
	return g.nodes[n.slot].gen == n.gen
}

// at returns the node that n refers to.
// It panics if n is not alive.
func (g *Graph) at(n Node) *node {
	if !g.Alive(n) {
		panic(prefix + "invalid Node")
	}
	return &g.nodes[n.slot]
}

// handle returns the Node for slot i.
func (g *Graph) handle(i int32) Node {
	if i == none {
		return Nil
	}
	return Node{i, g.nodes[i].gen}
}

// alloc returns a free slot, growing the graph if needed.
func (g *Graph) alloc() int32 {
	i, ok := g.live.Search()
	if !ok {
		i = g.live.Grow(max(1, len(g.nodes)/32))
	}
	for len(g.nodes) <= i {
		g.nodes = append(g.nodes, node{})
	}
	g.live.Set(i)
	return int32(i)
}

// Insert inserts a new node as the last immediate descendant
// of parent, or as the last root if parent is Nil.
// local is the node's transform relative to parent; a nil
// local means identity.
// parent must be either Nil or alive.
func (g *Graph) Insert(name string, local *linear.M4, parent Node) Node {
	if parent != Nil && !g.Alive(parent) {
		panic(prefix + "invalid parent Node")
	}
	g.firstRoot()
	i := g.alloc()
	nd := &g.nodes[i]
	nd.gen++
	if nd.gen == 0 {
		nd.gen = 1
	}
	nd.parent, nd.next, nd.prev, nd.sub = none, none, none, none
	nd.name = name
	if local != nil {
		nd.local = *local
	} else {
		nd.local.I()
	}
	nd.changed = true
	g.changed = true
	g.link(i, parent.slot, parent != Nil, none)
	g.len++
	return Node{i, nd.gen}
}

// link inserts slot i among the children of slot p (or
// among the roots if hasParent is false), before the
// sibling slot before, or last if before is none, and
// computes its world transform.
func (g *Graph) link(i, p int32, hasParent bool, before int32) {
	nd := &g.nodes[i]
	head := &g.root
	if hasParent {
		head = &g.nodes[p].sub
		nd.parent = p
	} else {
		nd.parent = none
	}
	switch {
	case *head == none:
		*head = i
	case before == none:
		last := *head
		for g.nodes[last].next != none {
			last = g.nodes[last].next
		}
		g.nodes[last].next = i
		nd.prev = last
	default:
		nd.next = before
		nd.prev = g.nodes[before].prev
		if nd.prev != none {
			g.nodes[nd.prev].next = i
		} else {
			*head = i
		}
		g.nodes[before].prev = i
	}
	if hasParent {
		nd.world.Mul(&g.nodes[p].world, &nd.local)
	} else {
		nd.world = nd.local
	}
}

// unlink detaches slot i from its parent (or from the roots).
func (g *Graph) unlink(i int32) {
	nd := &g.nodes[i]
	if nd.prev != none {
		g.nodes[nd.prev].next = nd.next
	} else if nd.parent != none {
		g.nodes[nd.parent].sub = nd.next
	} else {
		g.root = nd.next
	}
	if nd.next != none {
		g.nodes[nd.next].prev = nd.prev
	}
	nd.parent, nd.next, nd.prev = none, none, none
}

// Remove removes n and all of its descendants from g.
// Handles to removed nodes stop being alive.
// It returns the number of nodes removed, which is 0
// if n is not alive.
func (g *Graph) Remove(n Node) int {
	if !g.Alive(n) {
		return 0
	}
	g.unlink(n.slot)
	cnt := 0
	que := []int32{n.slot}
	for len(que) > 0 {
		i := que[0]
		que = que[1:]
		for s := g.nodes[i].sub; s != none; s = g.nodes[s].next {
			que = append(que, s)
		}
		nd := &g.nodes[i]
		nd.gen++
		nd.name = ""
		nd.sub, nd.next, nd.prev, nd.parent = none, none, none, none
		g.live.Unset(int(i))
		cnt++
	}
	g.len -= cnt
	return cnt
}

// SetParent moves n to the end of parent's immediate
// descendants, or makes it the last root if parent is Nil.
// It fails if parent is n itself or one of its descendants.
func (g *Graph) SetParent(n, parent Node) error {
	return g.setParent(n, parent, -1)
}

// SetParentAt is like SetParent, but places n at position
// index among parent's immediate descendants (or among the
// roots). index is clamped to the valid range.
func (g *Graph) SetParentAt(n, parent Node, index int) error {
	return g.setParent(n, parent, max(index, 0))
}

// setParent places n at position index, or last if index
// is negative.
func (g *Graph) setParent(n, parent Node, index int) error {
	g.at(n)
	if parent != Nil {
		g.at(parent)
		for p := parent.slot; p != none; p = g.nodes[p].parent {
			if p == n.slot {
				return errors.New(prefix + "parent is a descendant of Node")
			}
		}
	}
	g.firstRoot()
	g.unlink(n.slot)
	before := int32(none)
	if index >= 0 {
		before = g.root
		if parent != Nil {
			before = g.nodes[parent.slot].sub
		}
		for ; index > 0 && before != none; index-- {
			before = g.nodes[before].next
		}
	}
	g.link(n.slot, parent.slot, parent != Nil, before)
	g.nodes[n.slot].changed = true
	g.changed = true
	return nil
}

// Name returns the name of n.
func (g *Graph) Name(n Node) string { return g.at(n).name }

// SetName sets the name of n.
func (g *Graph) SetName(n Node, name string) { g.at(n).name = name }

// Local returns the local transform of n.
func (g *Graph) Local(n Node) linear.M4 { return g.at(n).local }

// SetLocal sets the local transform of n.
// The world transforms of n and its descendants are
// refreshed by the next call to Update.
func (g *Graph) SetLocal(n Node, local *linear.M4) {
	nd := g.at(n)
	nd.local = *local
	nd.changed = true
	g.changed = true
}

// World returns the world transform of n as of the last
// call to Update (or its insertion, if more recent).
// The returned matrix must not be modified.
func (g *Graph) World(n Node) *linear.M4 { return &g.at(n).world }

// Parent returns the immediate ancestor of n, or Nil if n
// is a root.
func (g *Graph) Parent(n Node) Node { return g.handle(g.at(n).parent) }

// Root returns the topmost ancestor of n (n itself if it
// is a root).
func (g *Graph) Root(n Node) Node {
	i := n.slot
	for p := g.at(n).parent; p != none; p = g.nodes[p].parent {
		i = p
	}
	return g.handle(i)
}

// Roots returns the root nodes of g in order.
func (g *Graph) Roots() (roots []Node) {
	for i := g.firstRoot(); i != none; i = g.nodes[i].next {
		roots = append(roots, g.handle(i))
	}
	return
}

// Children returns the immediate descendants of n in order.
func (g *Graph) Children(n Node) (sub []Node) {
	for i := g.at(n).sub; i != none; i = g.nodes[i].next {
		sub = append(sub, g.handle(i))
	}
	return
}

// ForEach calls f for n and each of its descendants.
// Ancestors are processed first.
// The graph must not be changed until this method returns.
func (g *Graph) ForEach(n Node, f func(Node)) {
	g.Until(n, func(n Node) bool {
		f(n)
		return true
	})
}

// Until calls f for n and each of its descendants.
// Ancestors are processed first. If f returns false,
// Until returns immediately.
// The graph must not be changed until this method returns.
func (g *Graph) Until(n Node, f func(Node) bool) {
	g.at(n)
	que := []int32{n.slot}
	for len(que) > 0 {
		for i := que[0]; i != none; i = g.nodes[i].next {
			if !f(g.handle(i)) {
				return
			}
			if sub := g.nodes[i].sub; sub != none {
				que = append(que, sub)
			}
			if i == n.slot {
				// Siblings of the starting node are
				// not part of its subtree.
				break
			}
		}
		que = que[1:]
	}
}

// Find returns the first node named name in the subtree
// rooted at n, in breadth-first order.
// It returns Nil if no such node exists.
func (g *Graph) Find(n Node, name string) (found Node) {
	g.Until(n, func(n Node) bool {
		if g.nodes[n.slot].name == name {
			found = n
			return false
		}
		return true
	})
	return
}

// Update recomputes the world transform of every node
// whose local transform (or whose ancestor's) changed
// since the last call.
func (g *Graph) Update() {
	if !g.changed {
		return
	}
	type item struct {
		i     int32
		dirty bool
	}
	var que []item
	for i := g.firstRoot(); i != none; i = g.nodes[i].next {
		que = append(que, item{i, false})
	}
	for len(que) > 0 {
		it := que[0]
		que = que[1:]
		nd := &g.nodes[it.i]
		dirty := it.dirty || nd.changed
		if dirty {
			if nd.parent == none {
				nd.world = nd.local
			} else {
				nd.world.Mul(&g.nodes[nd.parent].world, &nd.local)
			}
			nd.changed = false
		}
		for s := nd.sub; s != none; s = g.nodes[s].next {
			que = append(que, item{s, dirty})
		}
	}
	g.changed = false
}

// Reset removes every node from g.
func (g *Graph) Reset() {
	for _, r := range g.Roots() {
		g.Remove(r)
	}
}
