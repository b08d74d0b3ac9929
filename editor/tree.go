// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package editor implements headless editor controllers.
//
// Controllers issue structural commands against a scene
// and notify the views that mirror it through callbacks.
// They hold no rendering state.
package editor

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/wellplay/engine/node"
	"github.com/wellplay/engine/object"
	"github.com/wellplay/engine/scene"
)

const prefix = "editor: "

// Path locates a game object by child indices.
// The first index selects a root of the scene; each
// following index selects a child of the previous object.
// The empty Path denotes the scene itself.
type Path []int

// SceneTree is the controller of a scene hierarchy view.
type SceneTree struct {
	s *scene.Scene

	// Selection is held weakly: destroying the selected
	// object clears it.
	sel    *object.GameObject
	selRef node.Weak

	// OnSelect, if not nil, is called when an object is
	// selected.
	OnSelect func(*object.GameObject)
	// OnRemoveComponentView, if not nil, is called when the
	// selected object is about to be removed, so views
	// showing its components can be torn down.
	OnRemoveComponentView func(*object.GameObject)
}

// New creates a SceneTree controlling s.
func New(s *scene.Scene) *SceneTree { return &SceneTree{s: s} }

// Scene returns the scene controlled by t.
func (t *SceneTree) Scene() *scene.Scene { return t.s }

// Resolve returns the game object at path.
// It returns nil and no error for the empty Path.
func (t *SceneTree) Resolve(path Path) (*object.GameObject, error) {
	if len(path) == 0 {
		return nil, nil
	}
	objs := t.s.RootGameObjects()
	var obj *object.GameObject
	for depth, i := range path {
		if i < 0 || i >= len(objs) {
			return nil, fmt.Errorf(prefix+"path %v: index %d out of range at depth %d", path, i, depth)
		}
		obj = objs[i]
		objs = obj.Children()
	}
	return obj, nil
}

// PathOf returns the path of obj.
// It returns false if obj is not in the scene hierarchy.
func (t *SceneTree) PathOf(obj *object.GameObject) (Path, bool) {
	var path Path
	for obj.Parent() != nil {
		path = append(path, slices.Index(obj.Parent().Children(), obj))
		obj = obj.Parent()
	}
	i := slices.Index(t.s.RootGameObjects(), obj)
	if i < 0 {
		return nil, false
	}
	path = append(path, i)
	slices.Reverse(path)
	return path, true
}

// AddGameObject creates a game object named name as the
// last child of the object at parent, or as the last root
// if parent is empty.
func (t *SceneTree) AddGameObject(parent Path, name string) (*object.GameObject, error) {
	p, err := t.Resolve(parent)
	if err != nil {
		return nil, err
	}
	obj := t.s.NewGameObject(name)
	if p == nil {
		t.s.AddRootGameObject(obj)
	} else if err := p.AddChild(obj); err != nil {
		obj.Destroy()
		return nil, err
	}
	slog.Debug("editor: added", "name", name, "parent", parent)
	return obj, nil
}

// RemoveGameObject destroys the object at path and its
// descendants.
// If the selection is among them, OnRemoveComponentView
// is called first and the selection is cleared.
func (t *SceneTree) RemoveGameObject(path Path) error {
	obj, err := t.Resolve(path)
	if err != nil {
		return err
	}
	if obj == nil {
		return errors.New(prefix + "cannot remove the scene")
	}
	if sel := t.Selection(); sel != nil && isDescendant(sel, obj) {
		if t.OnRemoveComponentView != nil {
			t.OnRemoveComponentView(sel)
		}
		t.sel, t.selRef = nil, node.Weak{}
	}
	t.s.RemoveRootGameObject(obj)
	obj.Destroy()
	slog.Debug("editor: removed", "path", path)
	return nil
}

func isDescendant(obj, of *object.GameObject) bool {
	for ; obj != nil; obj = obj.Parent() {
		if obj == of {
			return true
		}
	}
	return false
}

// MoveGameObject moves the object at from so it becomes
// the child of the object at toParent (or a root, if
// toParent is empty) at position index.
// index is clamped to the valid range. An object cannot be
// moved under itself or one of its descendants.
func (t *SceneTree) MoveGameObject(from, toParent Path, index int) error {
	obj, err := t.Resolve(from)
	if err != nil {
		return err
	}
	if obj == nil {
		return errors.New(prefix + "cannot move the scene")
	}
	p, err := t.Resolve(toParent)
	if err != nil {
		return err
	}
	if p == nil {
		if old := obj.Parent(); old != nil {
			old.RemoveChild(obj)
		}
		t.s.InsertRootGameObject(obj, index)
	} else {
		if err := p.InsertChild(obj, index); err != nil {
			return fmt.Errorf(prefix+"move %v to %v: %w", from, toParent, err)
		}
		t.s.RemoveRootGameObject(obj)
	}
	slog.Debug("editor: moved", "from", from, "to", toParent, "index", index)
	return nil
}

// Select selects the object at path and calls OnSelect.
// Selecting the empty Path clears the selection.
func (t *SceneTree) Select(path Path) error {
	obj, err := t.Resolve(path)
	if err != nil {
		return err
	}
	if obj == nil {
		t.sel, t.selRef = nil, node.Weak{}
		return nil
	}
	t.sel, t.selRef = obj, obj.Graph().Weak(obj.Transform())
	if t.OnSelect != nil {
		t.OnSelect(obj)
	}
	return nil
}

// Selection returns the selected object, or nil if there
// is none or it was destroyed.
func (t *SceneTree) Selection() *object.GameObject {
	if !t.selRef.Alive() {
		return nil
	}
	return t.sel
}

// Walk calls f with the path and depth-first position of
// every object in the scene hierarchy, parents first.
func (t *SceneTree) Walk(f func(Path, *object.GameObject)) {
	var walk func(Path, []*object.GameObject)
	walk = func(path Path, objs []*object.GameObject) {
		for i, o := range objs {
			p := append(slices.Clip(path), i)
			f(p, o)
			walk(p, o.Children())
		}
	}
	walk(nil, t.s.RootGameObjects())
}
