// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package node

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/wellplay/engine/linear"
)

// String is for testing only.
func (n Node) String() string { return fmt.Sprintf("Node{%d, %d}", n.slot, n.gen) }

// logGraph outputs the subtree of g whose root is n.
func (g *Graph) logGraph(n Node, t *testing.T) {
	var s string
	g.ForEach(n, func(n Node) {
		p := "<nil>"
		if x := g.Parent(n); x != Nil {
			p = g.Name(x)
		}
		s += fmt.Sprintf("\n(%5s) -> (%5s)", p, g.Name(n))
	})
	t.Log(s)
}

// names returns the names of ns.
func (g *Graph) names(ns []Node) (s []string) {
	for _, n := range ns {
		s = append(s, g.Name(n))
	}
	return
}

func TestZero(t *testing.T) {
	var g Graph
	if n := g.Len(); n != 0 {
		t.Fatalf("Graph.Len:\nhave %d\nwant 0", n)
	}
	if g.Alive(Nil) {
		t.Fatal("Graph.Alive(Nil):\nhave true\nwant false")
	}
	if r := g.Roots(); len(r) != 0 {
		t.Fatalf("Graph.Roots:\nhave %v\nwant []", r)
	}
	if n := g.Remove(Nil); n != 0 {
		t.Fatalf("Graph.Remove(Nil):\nhave %d\nwant 0", n)
	}
	g.Update()
}

func TestInsert(t *testing.T) {
	var g Graph
	n1 := g.Insert("n1", nil, Nil)
	n2 := g.Insert("n2", nil, n1)
	n3 := g.Insert("n3", nil, n1)
	n4 := g.Insert("n4", nil, n3)
	n5 := g.Insert("n5", nil, Nil)
	g.logGraph(n1, t)

	if n := g.Len(); n != 5 {
		t.Fatalf("Graph.Len:\nhave %d\nwant 5", n)
	}
	for _, n := range [...]Node{n1, n2, n3, n4, n5} {
		if !g.Alive(n) {
			t.Fatalf("Graph.Alive(%v):\nhave false\nwant true", n)
		}
	}
	if x := g.names(g.Roots()); fmt.Sprint(x) != "[n1 n5]" {
		t.Fatalf("Graph.Roots:\nhave %v\nwant [n1 n5]", x)
	}
	if x := g.names(g.Children(n1)); fmt.Sprint(x) != "[n2 n3]" {
		t.Fatalf("Graph.Children:\nhave %v\nwant [n2 n3]", x)
	}
	if x := g.Parent(n4); x != n3 {
		t.Fatalf("Graph.Parent:\nhave %v\nwant %v", x, n3)
	}
	if x := g.Parent(n1); x != Nil {
		t.Fatalf("Graph.Parent:\nhave %v\nwant Nil", x)
	}
	if x := g.Root(n4); x != n1 {
		t.Fatalf("Graph.Root:\nhave %v\nwant %v", x, n1)
	}
	var order []string
	g.ForEach(n1, func(n Node) { order = append(order, g.Name(n)) })
	if fmt.Sprint(order) != "[n1 n2 n3 n4]" {
		t.Fatalf("Graph.ForEach:\nhave %v\nwant [n1 n2 n3 n4]", order)
	}
}

func TestRemove(t *testing.T) {
	var g Graph
	n1 := g.Insert("n1", nil, Nil)
	n2 := g.Insert("n2", nil, n1)
	n3 := g.Insert("n3", nil, n2)
	n4 := g.Insert("n4", nil, n1)

	if n := g.Remove(n2); n != 2 {
		t.Fatalf("Graph.Remove:\nhave %d\nwant 2", n)
	}
	if g.Alive(n2) || g.Alive(n3) {
		t.Fatal("Graph.Remove: removed nodes still alive")
	}
	if !g.Alive(n1) || !g.Alive(n4) {
		t.Fatal("Graph.Remove: unrelated nodes not alive")
	}
	if n := g.Remove(n2); n != 0 {
		t.Fatalf("Graph.Remove (twice):\nhave %d\nwant 0", n)
	}
	if x := g.names(g.Children(n1)); fmt.Sprint(x) != "[n4]" {
		t.Fatalf("Graph.Children:\nhave %v\nwant [n4]", x)
	}

	// Reused slots must not revive stale handles.
	n5 := g.Insert("n5", nil, n4)
	if n5.slot != n2.slot {
		t.Fatalf("Graph.Insert: slot reuse\nhave %d\nwant %d", n5.slot, n2.slot)
	}
	if g.Alive(n2) {
		t.Fatal("Graph.Alive: stale handle alive after slot reuse")
	}
	if !g.Alive(n5) {
		t.Fatal("Graph.Alive(n5):\nhave false\nwant true")
	}
	g.logGraph(n1, t)

	g.Reset()
	if n := g.Len(); n != 0 {
		t.Fatalf("Graph.Reset: Len\nhave %d\nwant 0", n)
	}
}

func TestSetParent(t *testing.T) {
	var g Graph
	n1 := g.Insert("n1", nil, Nil)
	n2 := g.Insert("n2", nil, n1)
	n3 := g.Insert("n3", nil, n2)
	n4 := g.Insert("n4", nil, Nil)

	if err := g.SetParent(n1, n3); err == nil {
		t.Fatal("Graph.SetParent: cycle\nhave nil\nwant non-nil")
	}
	if err := g.SetParent(n1, n1); err == nil {
		t.Fatal("Graph.SetParent: self\nhave nil\nwant non-nil")
	}
	if err := g.SetParent(n2, n4); err != nil {
		t.Fatalf("Graph.SetParent:\nhave %v\nwant nil", err)
	}
	if x := g.Root(n3); x != n4 {
		t.Fatalf("Graph.Root:\nhave %v\nwant %v", x, n4)
	}
	if x := g.Children(n1); len(x) != 0 {
		t.Fatalf("Graph.Children:\nhave %v\nwant []", x)
	}
	if err := g.SetParent(n2, Nil); err != nil {
		t.Fatalf("Graph.SetParent(Nil):\nhave %v\nwant nil", err)
	}
	if x := g.names(g.Roots()); fmt.Sprint(x) != "[n1 n4 n2]" {
		t.Fatalf("Graph.Roots:\nhave %v\nwant [n1 n4 n2]", x)
	}
}

func TestSetParentAt(t *testing.T) {
	var g Graph
	p := g.Insert("p", nil, Nil)
	a := g.Insert("a", nil, p)
	b := g.Insert("b", nil, p)
	c := g.Insert("c", nil, Nil)

	for _, x := range [...]struct {
		n, parent Node
		index     int
		children  string
		roots     string
	}{
		{c, p, 0, "[c a b]", "[p]"},
		{c, p, 2, "[a b c]", "[p]"},
		{a, p, 1, "[b a c]", "[p]"},
		{b, p, 100, "[a c b]", "[p]"},
		{a, p, -1, "[a c b]", "[p]"},
		{b, Nil, 0, "[a c]", "[b p]"},
		{a, Nil, 1, "[c]", "[b a p]"},
		{a, p, 1, "[c a]", "[b p]"},
	} {
		if err := g.SetParentAt(x.n, x.parent, x.index); err != nil {
			t.Fatalf("Graph.SetParentAt(%s, %d):\nhave %v\nwant nil", g.Name(x.n), x.index, err)
		}
		if s := fmt.Sprint(g.names(g.Children(p))); s != x.children {
			t.Fatalf("Graph.SetParentAt(%s, %d): Children\nhave %s\nwant %s", g.Name(x.n), x.index, s, x.children)
		}
		if s := fmt.Sprint(g.names(g.Roots())); s != x.roots {
			t.Fatalf("Graph.SetParentAt(%s, %d): Roots\nhave %s\nwant %s", g.Name(x.n), x.index, s, x.roots)
		}
	}
	if err := g.SetParentAt(p, a, 0); err == nil {
		t.Fatal("Graph.SetParentAt: cycle\nhave nil\nwant non-nil")
	}
	if x := g.Find(p, "a"); x != a {
		t.Fatalf("Graph.Find:\nhave %v\nwant %v", x, a)
	}
}

func TestFind(t *testing.T) {
	var g Graph
	root := g.Insert("Root", nil, Nil)
	hip := g.Insert("Hip", nil, root)
	g.Insert("Spine", nil, hip)
	deep := g.Insert("Hand", nil, hip)
	shallow := g.Insert("Hand", nil, root)
	other := g.Insert("Other", nil, Nil)

	if x := g.Find(root, "Hand"); x != shallow {
		t.Fatalf("Graph.Find: breadth-first\nhave %v\nwant %v", x, shallow)
	}
	if x := g.Find(hip, "Hand"); x != deep {
		t.Fatalf("Graph.Find:\nhave %v\nwant %v", x, deep)
	}
	if x := g.Find(root, "Root"); x != root {
		t.Fatalf("Graph.Find: self\nhave %v\nwant %v", x, root)
	}
	if x := g.Find(root, "Other"); x != Nil {
		t.Fatalf("Graph.Find: sibling root\nhave %v\nwant Nil", x)
	}
	if x := g.Find(hip, "Missing"); x != Nil {
		t.Fatalf("Graph.Find: missing\nhave %v\nwant Nil", x)
	}
	_ = other
}

func TestWorld(t *testing.T) {
	var g Graph
	var m linear.M4
	m.Translate(1, 0, 0)
	n1 := g.Insert("n1", &m, Nil)
	m.Translate(0, 2, 0)
	n2 := g.Insert("n2", &m, n1)
	n3 := g.Insert("n3", nil, n2)

	if x := g.World(n3); *x != (linear.M4{{1}, {1: 1}, {2: 1}, {1, 2, 0, 1}}) {
		t.Fatalf("Graph.World (insert):\nhave %v\nwant translation [1 2 0]", *x)
	}

	m.Translate(0, 0, 5)
	g.SetLocal(n1, &m)
	if x := g.World(n3); x[3] != (linear.V4{1, 2, 0, 1}) {
		t.Fatalf("Graph.World (before Update):\nhave %v\nwant %v", x[3], linear.V4{1, 2, 0, 1})
	}
	g.Update()
	if x := g.World(n3); x[3] != (linear.V4{0, 2, 5, 1}) {
		t.Fatalf("Graph.World (after Update):\nhave %v\nwant %v", x[3], linear.V4{0, 2, 5, 1})
	}
	if x := g.Local(n1); x != m {
		t.Fatalf("Graph.Local:\nhave %v\nwant %v", x, m)
	}
}

func TestWeak(t *testing.T) {
	var g Graph
	n := g.Insert("bone", nil, Nil)
	w := g.Weak(n)
	if x, ok := w.Get(); !ok || x != n {
		t.Fatalf("Weak.Get:\nhave %v, %t\nwant %v, true", x, ok, n)
	}
	g.Remove(n)
	if w.Alive() {
		t.Fatal("Weak.Alive: removed node\nhave true\nwant false")
	}
	g.Insert("bone", nil, Nil)
	if x, ok := w.Get(); ok || x != Nil {
		t.Fatalf("Weak.Get: reused slot\nhave %v, %t\nwant Nil, false", x, ok)
	}
	var z Weak
	if z.Alive() || g.Weak(Nil).Alive() {
		t.Fatal("Weak.Alive: empty reference\nhave true\nwant false")
	}
}

func TestGrowth(t *testing.T) {
	var g Graph
	var ns []Node
	p := Nil
	for i := range 1000 {
		p = g.Insert(strconv.Itoa(i), nil, p)
		ns = append(ns, p)
	}
	if n := g.Len(); n != 1000 {
		t.Fatalf("Graph.Len:\nhave %d\nwant 1000", n)
	}
	if x := g.Find(ns[0], "999"); x != ns[999] {
		t.Fatalf("Graph.Find:\nhave %v\nwant %v", x, ns[999])
	}
	if n := g.Remove(ns[500]); n != 500 {
		t.Fatalf("Graph.Remove:\nhave %d\nwant 500", n)
	}
}
