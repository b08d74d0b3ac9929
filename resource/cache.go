// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package resource implements a reference-counted cache of
// shared meshes and avatars.
//
// Resources are identified by name. They are added to a
// Cache explicitly or imported from glTF files found in
// the cache's directory, which is scanned lazily the first
// time a lookup misses.
package resource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/wellplay/engine/avatar"
	"github.com/wellplay/engine/mesh"
)

// ErrNotFound means that no resource has the requested
// name.
var ErrNotFound = errors.New("resource: not found")

const prefix = "resource: "

type entry[T any] struct {
	v    T
	refs int
	// File the resource was imported from, or "".
	file string
}

// table is a name-indexed set of entries.
type table[T any] map[string]*entry[T]

func (t table[T]) add(name string, v T, file string) bool {
	if e, ok := t[name]; ok && (e.refs > 0 || e.file != file) {
		return false
	}
	t[name] = &entry[T]{v: v, file: file}
	return true
}

func (t table[T]) get(name string) (T, bool) {
	e, ok := t[name]
	if !ok {
		var zero T
		return zero, false
	}
	e.refs++
	return e.v, true
}

func (t table[T]) release(name string) {
	if e, ok := t[name]; ok && e.refs > 0 {
		e.refs--
	}
}

func (t table[T]) refs(name string) int {
	if e, ok := t[name]; ok {
		return e.refs
	}
	return 0
}

// purge removes the unreferenced entries for which keep
// returns false.
func (t table[T]) purge(keep func(*entry[T]) bool) (n int) {
	for k, e := range t {
		if e.refs == 0 && !keep(e) {
			delete(t, k)
			n++
		}
	}
	return
}

// Cache is a reference-counted resource cache.
// It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	dir     string
	meshes  table[*mesh.Mesh]
	avatars table[*avatar.Avatar]
	// Files already imported, by absolute path.
	files map[string]bool
}

// New creates an empty cache that imports files from dir.
// dir may be empty, in which case nothing is imported
// lazily.
func New(dir string) *Cache {
	return &Cache{
		dir:     dir,
		meshes:  make(table[*mesh.Mesh]),
		avatars: make(table[*avatar.Avatar]),
		files:   make(map[string]bool),
	}
}

// Dir returns the directory of c.
func (c *Cache) Dir() string { return c.dir }

// AddMesh adds m to c.
// It fails if c already has a mesh with the same name.
func (c *Cache) AddMesh(m *mesh.Mesh) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.meshes[m.Name()]; ok || !c.meshes.add(m.Name(), m, "") {
		return fmt.Errorf(prefix+"mesh %q already exists", m.Name())
	}
	return nil
}

// AddAvatar adds a to c.
// It fails if c already has an avatar with the same name.
func (c *Cache) AddAvatar(a *avatar.Avatar) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.avatars[a.Name()]; ok || !c.avatars.add(a.Name(), a, "") {
		return fmt.Errorf(prefix+"avatar %q already exists", a.Name())
	}
	return nil
}

// LoadFile imports every mesh and skin of the glTF file at
// path. Resources already in use under the same name are
// kept; unreferenced ones are replaced.
// It returns the number of resources imported.
func (c *Cache) LoadFile(path string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadFile(path)
}

func (c *Cache) loadFile(path string) (int, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, err
	}
	as, err := importFile(abs)
	if err != nil {
		return 0, fmt.Errorf(prefix+"import %s: %w", path, err)
	}
	c.files[abs] = true
	n := 0
	for _, m := range as.meshes {
		if c.meshes.add(m.Name(), m, abs) {
			n++
		} else {
			slog.Warn("resource: mesh name in use", "mesh", m.Name(), "file", abs)
		}
	}
	for _, a := range as.avatars {
		if c.avatars.add(a.Name(), a, abs) {
			n++
		} else {
			slog.Warn("resource: avatar name in use", "avatar", a.Name(), "file", abs)
		}
	}
	slog.Debug("resource: imported", "file", abs, "count", n)
	return n, nil
}

// scan imports the files of c.dir that were not imported
// yet. Files that fail to import are logged and skipped.
func (c *Cache) scan() {
	if c.dir == "" {
		return
	}
	ents, err := os.ReadDir(c.dir)
	if err != nil {
		slog.Warn("resource: scan", "dir", c.dir, "err", err)
		return
	}
	for _, e := range ents {
		if e.IsDir() || !isAsset(e.Name()) {
			continue
		}
		path, err := filepath.Abs(filepath.Join(c.dir, e.Name()))
		if err != nil || c.files[path] {
			continue
		}
		if _, err := c.loadFile(path); err != nil {
			slog.Warn("resource: scan", "err", err)
			// Do not retry until the file changes.
			c.files[path] = true
		}
	}
}

func lookup[T any](c *Cache, t table[T], kind, name string) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := t.get(name); ok {
		return v, nil
	}
	c.scan()
	if v, ok := t.get(name); ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("%w: %s %q", ErrNotFound, kind, name)
}

// GetMesh returns the mesh named name and increments its
// reference count.
// The error wraps ErrNotFound if there is no such mesh.
func (c *Cache) GetMesh(name string) (*mesh.Mesh, error) {
	return lookup(c, c.meshes, "mesh", name)
}

// GetAvatar returns the avatar named name and increments
// its reference count.
// The error wraps ErrNotFound if there is no such avatar.
func (c *Cache) GetAvatar(name string) (*avatar.Avatar, error) {
	return lookup(c, c.avatars, "avatar", name)
}

// ReleaseMesh decrements the reference count of the mesh
// named name.
func (c *Cache) ReleaseMesh(name string) {
	c.mu.Lock()
	c.meshes.release(name)
	c.mu.Unlock()
}

// ReleaseAvatar decrements the reference count of the
// avatar named name.
func (c *Cache) ReleaseAvatar(name string) {
	c.mu.Lock()
	c.avatars.release(name)
	c.mu.Unlock()
}

// Refs returns the reference counts of the mesh and of
// the avatar named name.
func (c *Cache) Refs(name string) (meshRefs, avatarRefs int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.meshes.refs(name), c.avatars.refs(name)
}

// Purge removes every unreferenced resource from c and
// returns how many were removed.
// Purged files are imported again on demand.
func (c *Cache) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.meshes.purge(func(*entry[*mesh.Mesh]) bool { return false })
	n += c.avatars.purge(func(*entry[*avatar.Avatar]) bool { return false })
	clear(c.files)
	return n
}

// invalidate evicts the unreferenced resources imported
// from path, so the next lookup imports it again.
func (c *Cache) invalidate(path string) int {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.meshes.purge(func(e *entry[*mesh.Mesh]) bool { return e.file != abs })
	n += c.avatars.purge(func(e *entry[*avatar.Avatar]) bool { return e.file != abs })
	delete(c.files, abs)
	return n
}

// Watch watches the directory of c and evicts the
// unreferenced resources of files that change, so that
// they are imported again on the next lookup.
// It blocks until ctx is done or the watcher fails.
func (c *Cache) Watch(ctx context.Context) error {
	return c.watch(ctx, nil)
}

// watch is Watch with a hook called after each handled
// event.
func (c *Cache) watch(ctx context.Context, handled func(string)) error {
	if c.dir == "" {
		return errors.New(prefix + "no directory to watch")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf(prefix+"watch: %w", err)
	}
	defer w.Close()
	if err := w.Add(c.dir); err != nil {
		return fmt.Errorf(prefix+"watch %s: %w", c.dir, err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			switch {
			case !isAsset(event.Name):
			case event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create ||
				event.Op&fsnotify.Remove == fsnotify.Remove ||
				event.Op&fsnotify.Rename == fsnotify.Rename:
				n := c.invalidate(event.Name)
				slog.Info("resource: file changed", "file", event.Name, "op", event.Op.String(), "evicted", n)
				if handled != nil {
					handled(event.Name)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("resource: watch", "err", err)
		}
	}
}
