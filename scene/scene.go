// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package scene provides functionality for creating and
// updating scenes.
//
// A Scene holds the ordered set of root game objects and
// the transform graph they live in. At most one Scene is
// current at a time; which one is decided by a Manager.
package scene

import (
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/wellplay/engine/node"
	"github.com/wellplay/engine/object"
)

// current is the process-wide current scene.
// Scenes are only accessed from the simulation thread.
var current *Scene

// Current returns the current scene.
// It returns false if no scene is active.
func Current() (*Scene, bool) { return current, current != nil }

// Scene defines a scene.
type Scene struct {
	name  string
	graph node.Graph
	roots []*object.GameObject
}

func newScene(name string) *Scene { return &Scene{name: name} }

// Name returns the name of s.
func (s *Scene) Name() string { return s.name }

// Graph returns the transform graph of s.
func (s *Scene) Graph() *node.Graph { return &s.graph }

// NewGameObject creates a game object whose transform
// lives in the graph of s.
// The object is not added to the root sequence.
func (s *Scene) NewGameObject(name string) *object.GameObject {
	return object.New(&s.graph, name)
}

// AddRootGameObject appends obj to the root sequence.
// It does nothing if obj is already there.
func (s *Scene) AddRootGameObject(obj *object.GameObject) {
	if obj == nil || slices.Contains(s.roots, obj) {
		return
	}
	s.roots = append(s.roots, obj)
}

// InsertRootGameObject inserts obj in the root sequence at
// position index, which is clamped to the sequence bounds.
// If obj is already there, it is moved.
func (s *Scene) InsertRootGameObject(obj *object.GameObject, index int) {
	if obj == nil {
		return
	}
	s.RemoveRootGameObject(obj)
	index = min(max(index, 0), len(s.roots))
	s.roots = slices.Insert(s.roots, index, obj)
}

// RemoveRootGameObject removes obj from the root sequence,
// preserving the order of the remaining objects.
// It does nothing if obj is not there.
// obj itself is not destroyed.
func (s *Scene) RemoveRootGameObject(obj *object.GameObject) {
	if i := slices.Index(s.roots, obj); i >= 0 {
		s.roots = slices.Delete(s.roots, i, i+1)
	}
}

// RootGameObjects returns a copy of the root sequence.
func (s *Scene) RootGameObjects() []*object.GameObject { return slices.Clone(s.roots) }

// Find returns the first game object named name,
// searching each root subtree breadth-first, in root
// order. It returns nil if there is none.
// Destroyed roots are skipped.
func (s *Scene) Find(name string) *object.GameObject {
	for _, r := range s.roots {
		if !r.Alive() {
			continue
		}
		if o := r.Find(name); o != nil {
			return o
		}
	}
	return nil
}

// walk calls f for every object of the live root subtrees.
// Roots destroyed without being removed stay in the
// sequence until removed, but are not visited.
func (s *Scene) walk(f func(*object.GameObject)) {
	for _, r := range s.roots {
		if !r.Alive() {
			continue
		}
		r.Walk(func(o *object.GameObject) bool {
			f(o)
			return true
		})
	}
}

// Init calls OnInit (or EditorOnInit, if editor is set) on
// every component of every root subtree.
// World transforms are refreshed first, so components may
// read them during initialization.
// Every component is initialized even if some fail; the
// returned error joins all failures.
func (s *Scene) Init(editor bool) error {
	s.graph.Update()
	var errs []error
	s.walk(func(o *object.GameObject) {
		for _, c := range o.Components() {
			var err error
			if editor {
				err = c.EditorOnInit()
			} else {
				err = c.OnInit()
			}
			if err != nil {
				errs = append(errs, err)
			}
		}
	})
	if len(errs) > 0 {
		slog.Warn("scene: init failed", "scene", s.name, "errors", len(errs))
	}
	return errors.Join(errs...)
}

// Update refreshes the world transforms and then calls
// Update on every component of every root subtree.
func (s *Scene) Update(dt time.Duration) {
	s.graph.Update()
	s.walk(func(o *object.GameObject) {
		for _, c := range o.Components() {
			c.Update(dt)
		}
	})
}

// EditorUpdate is like Update, but calls EditorUpdate on
// components.
func (s *Scene) EditorUpdate() {
	s.graph.Update()
	s.walk(func(o *object.GameObject) {
		for _, c := range o.Components() {
			c.EditorUpdate()
		}
	})
}

// Manager creates and releases scenes and decides which
// of them is current.
type Manager struct {
	scenes []*Scene
}

// NewManager creates a manager with no scenes.
func NewManager() *Manager { return &Manager{} }

// Create creates a new scene.
// The scene does not become current.
func (m *Manager) Create(name string) *Scene {
	s := newScene(name)
	m.scenes = append(m.scenes, s)
	return s
}

// Scenes returns the scenes of m that were not released,
// in creation order.
func (m *Manager) Scenes() []*Scene { return slices.Clone(m.scenes) }

// Activate makes s the current scene.
// s may be nil, in which case no scene is current.
func (m *Manager) Activate(s *Scene) {
	if s != nil && !slices.Contains(m.scenes, s) {
		panic("scene: Activate of a Scene not created by this Manager")
	}
	current = s
	if s != nil {
		slog.Debug("scene: activated", "scene", s.name)
	}
}

// Release destroys the root game objects of s and
// removes every node from its graph.
// If s is the current scene, no scene is current after
// Release returns.
func (m *Manager) Release(s *Scene) {
	i := slices.Index(m.scenes, s)
	if i < 0 {
		return
	}
	m.scenes = slices.Delete(m.scenes, i, i+1)
	if current == s {
		current = nil
	}
	for _, r := range s.roots {
		r.Destroy()
	}
	s.roots = nil
	s.graph.Reset()
	slog.Debug("scene: released", "scene", s.name)
}
