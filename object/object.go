// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package object implements scene entities (game objects)
// and the component interface they carry.
package object

import (
	"errors"
	"slices"

	"github.com/wellplay/engine/linear"
	"github.com/wellplay/engine/node"
)

const prefix = "object: "

// GameObject is an entity of a scene.
// Its transform lives in a node.Graph, and its child
// objects mirror the transform hierarchy.
type GameObject struct {
	g      *node.Graph
	xform  node.Node
	parent *GameObject
	sub    []*GameObject
	comps  []Component
}

// New creates a root GameObject whose transform is
// inserted in g.
func New(g *node.Graph, name string) *GameObject {
	return &GameObject{g: g, xform: g.Insert(name, nil, node.Nil)}
}

// Graph returns the graph holding obj's transform.
func (obj *GameObject) Graph() *node.Graph { return obj.g }

// Transform returns the handle of obj's transform node.
func (obj *GameObject) Transform() node.Node { return obj.xform }

// Alive reports whether obj has not been destroyed.
func (obj *GameObject) Alive() bool { return obj.g.Alive(obj.xform) }

// Name returns the name of obj.
func (obj *GameObject) Name() string { return obj.g.Name(obj.xform) }

// SetName sets the name of obj.
func (obj *GameObject) SetName(name string) { obj.g.SetName(obj.xform, name) }

// Local returns obj's transform relative to its parent.
func (obj *GameObject) Local() linear.M4 { return obj.g.Local(obj.xform) }

// SetLocal sets obj's transform relative to its parent.
func (obj *GameObject) SetLocal(m *linear.M4) { obj.g.SetLocal(obj.xform, m) }

// World returns obj's world transform.
func (obj *GameObject) World() linear.M4 { return *obj.g.World(obj.xform) }

// Parent returns the parent of obj, or nil.
func (obj *GameObject) Parent() *GameObject { return obj.parent }

// Root returns the topmost ancestor of obj.
func (obj *GameObject) Root() *GameObject {
	r := obj
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Children returns a copy of obj's children, in order.
func (obj *GameObject) Children() []*GameObject { return slices.Clone(obj.sub) }

// AddChild appends c to obj's children.
// See InsertChild.
func (obj *GameObject) AddChild(c *GameObject) error {
	return obj.InsertChild(c, len(obj.sub))
}

// InsertChild makes c a child of obj at position index,
// detaching it from its previous parent.
// index is clamped to [0, len(children)].
// It fails if c is obj or one of its ancestors, or if c
// belongs to a different graph.
func (obj *GameObject) InsertChild(c *GameObject, index int) error {
	if c.g != obj.g {
		return errors.New(prefix + "GameObject from another graph")
	}
	// Sibling order in the graph follows obj.sub, so
	// breadth-first searches see children in this order.
	if err := obj.g.SetParentAt(c.xform, obj.xform, index); err != nil {
		return err
	}
	if c.parent != nil {
		c.parent.drop(c)
	}
	c.parent = obj
	index = min(max(index, 0), len(obj.sub))
	obj.sub = slices.Insert(obj.sub, index, c)
	return nil
}

// RemoveChild detaches c from obj, making it a root.
// It does nothing if c is not a child of obj.
func (obj *GameObject) RemoveChild(c *GameObject) {
	if c.parent != obj {
		return
	}
	obj.drop(c)
	c.parent = nil
	// Cannot fail: a root has no ancestors.
	_ = obj.g.SetParent(c.xform, node.Nil)
}

func (obj *GameObject) drop(c *GameObject) {
	if i := slices.Index(obj.sub, c); i >= 0 {
		obj.sub = slices.Delete(obj.sub, i, i+1)
	}
}

// AddComponent attaches c to obj.
// c must not be attached to another GameObject.
func (obj *GameObject) AddComponent(c Component) {
	if o := c.Owner(); o != nil && o != obj {
		panic(prefix + "Component already attached")
	}
	if slices.Contains(obj.comps, c) {
		return
	}
	c.Attach(obj)
	obj.comps = append(obj.comps, c)
}

// RemoveComponent detaches c from obj and calls its
// OnDestroy hook.
// It does nothing if c is not attached to obj.
func (obj *GameObject) RemoveComponent(c Component) {
	i := slices.Index(obj.comps, c)
	if i < 0 {
		return
	}
	obj.comps = slices.Delete(obj.comps, i, i+1)
	c.OnDestroy()
	c.Attach(nil)
}

// Components returns a copy of obj's components, in order.
func (obj *GameObject) Components() []Component { return slices.Clone(obj.comps) }

// Walk calls f for obj and each of its descendants.
// Ancestors are processed first. If f returns false,
// Walk returns immediately.
// Walk does nothing if obj was destroyed.
func (obj *GameObject) Walk(f func(*GameObject) bool) {
	if !obj.Alive() {
		return
	}
	que := []*GameObject{obj}
	for len(que) > 0 {
		o := que[0]
		que = que[1:]
		if !f(o) {
			return
		}
		que = append(que, o.sub...)
	}
}

// Find returns the first object named name in obj's
// subtree, in breadth-first order, or nil.
func (obj *GameObject) Find(name string) (found *GameObject) {
	obj.Walk(func(o *GameObject) bool {
		if o.Name() == name {
			found = o
			return false
		}
		return true
	})
	return
}

// Destroy destroys obj, its descendants and all of
// their components.
// Weak references to the destroyed transforms expire.
// Destroying a destroyed object does nothing.
func (obj *GameObject) Destroy() {
	if !obj.Alive() {
		return
	}
	if obj.parent != nil {
		obj.parent.drop(obj)
		obj.parent = nil
	}
	obj.Walk(func(o *GameObject) bool {
		for _, c := range o.comps {
			c.OnDestroy()
			c.Attach(nil)
		}
		o.comps = nil
		return true
	})
	obj.g.Remove(obj.xform)
	obj.sub = nil
}

// Clone creates a deep copy of obj as a new root object in
// the same graph: transforms, children and cloned
// components.
// Cloned components are attached but not initialized.
func (obj *GameObject) Clone() *GameObject {
	c := New(obj.g, obj.Name())
	obj.cloneInto(c)
	return c
}

func (obj *GameObject) cloneInto(c *GameObject) {
	m := obj.Local()
	c.SetLocal(&m)
	for _, x := range obj.comps {
		c.AddComponent(x.Clone())
	}
	for _, s := range obj.sub {
		cs := &GameObject{g: c.g, xform: c.g.Insert(s.Name(), nil, c.xform), parent: c}
		c.sub = append(c.sub, cs)
		s.cloneInto(cs)
	}
}
