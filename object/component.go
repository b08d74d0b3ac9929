// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package object

import (
	"time"
)

// Component is a unit of behavior or data attached to a
// GameObject.
//
// The engine drives components through two paths: the
// runtime path (OnInit, then Update every frame) and the
// editor path (EditorOnInit, then EditorUpdate), which must
// not depend on a running simulation clock.
type Component interface {
	// Attach sets the owner of the component.
	// It is called by GameObject.AddComponent and must not
	// be called directly.
	Attach(owner *GameObject)

	// Owner returns the GameObject that the component is
	// attached to, or nil.
	Owner() *GameObject

	OnInit() error
	EditorOnInit() error
	Update(dt time.Duration)
	EditorUpdate()

	// OnDestroy is called once, when the component is
	// removed or its owner is destroyed.
	OnDestroy()

	// Clone returns a detached copy of the component.
	// State that is relative to the owner's hierarchy must
	// not be copied.
	Clone() Component
}

// Base provides the owner bookkeeping and no-op hooks of
// Component. Embed it and override what is needed.
type Base struct {
	owner *GameObject
}

// Attach implements Component.
func (b *Base) Attach(owner *GameObject) { b.owner = owner }

// Owner implements Component.
func (b *Base) Owner() *GameObject { return b.owner }

// OnInit implements Component.
func (*Base) OnInit() error { return nil }

// EditorOnInit implements Component.
func (*Base) EditorOnInit() error { return nil }

// Update implements Component.
func (*Base) Update(time.Duration) {}

// EditorUpdate implements Component.
func (*Base) EditorUpdate() {}

// OnDestroy implements Component.
func (*Base) OnDestroy() {}
