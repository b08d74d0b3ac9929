// Copyright 2023 Gustavo C. Viegas. All rights reserved.

// Package archive implements scene persistence.
//
// A scene is captured into a Document, a plain tree of
// object descriptions that can be encoded as JSON, TOML or
// YAML. Components are persisted by state only: a SkinMesh
// stores the names of its mesh and avatar, and its bones
// are resolved again when the document is restored.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/wellplay/engine/linear"
	"github.com/wellplay/engine/object"
	"github.com/wellplay/engine/render"
	"github.com/wellplay/engine/scene"
)

const prefix = "archive: "

// Version is the document version written by Capture.
const Version = 1

// Component type names.
const (
	TypeSkinMesh = "SkinMesh"
)

// Document is the persisted form of a scene.
type Document struct {
	Version int         `json:"version" toml:"version" yaml:"version"`
	Scene   string      `json:"scene" toml:"scene" yaml:"scene"`
	Objects []ObjectDoc `json:"objects,omitempty" toml:"objects,omitempty" yaml:"objects,omitempty"`
}

// ObjectDoc is the persisted form of a game object.
// Local is the column-major local transform.
type ObjectDoc struct {
	Name       string         `json:"name" toml:"name" yaml:"name"`
	Local      [16]float32    `json:"local" toml:"local" yaml:"local,flow"`
	Children   []ObjectDoc    `json:"children,omitempty" toml:"children,omitempty" yaml:"children,omitempty"`
	Components []ComponentDoc `json:"components,omitempty" toml:"components,omitempty" yaml:"components,omitempty"`
}

// ComponentDoc is the persisted form of a component.
// Type selects which of the state fields is set.
type ComponentDoc struct {
	Type     string                `json:"type" toml:"type" yaml:"type"`
	SkinMesh *render.SkinMeshState `json:"skinMesh,omitempty" toml:"skin_mesh,omitempty" yaml:"skinMesh,omitempty"`
}

// Format is an encoding of Documents.
type Format int

// Formats.
const (
	JSON Format = iota
	TOML
	YAML
)

// String implements fmt.Stringer.
func (f Format) String() string {
	switch f {
	case JSON:
		return "JSON"
	case TOML:
		return "TOML"
	case YAML:
		return "YAML"
	default:
		return "[!] invalid Format value"
	}
}

// FormatOf returns the Format implied by the extension of
// path.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return 0, fmt.Errorf(prefix+"unknown format for %q", path)
	}
}

// Capture creates a Document from the root game objects
// of s.
func Capture(s *scene.Scene) *Document {
	doc := &Document{Version: Version, Scene: s.Name()}
	for _, r := range s.RootGameObjects() {
		if r.Alive() {
			doc.Objects = append(doc.Objects, captureObject(r))
		}
	}
	return doc
}

func captureObject(obj *object.GameObject) ObjectDoc {
	d := ObjectDoc{Name: obj.Name()}
	m := obj.Local()
	for i := range m {
		copy(d.Local[i*4:], m[i][:])
	}
	for _, c := range obj.Components() {
		switch c := c.(type) {
		case *render.SkinMesh:
			st := c.Save()
			d.Components = append(d.Components, ComponentDoc{Type: TypeSkinMesh, SkinMesh: &st})
		default:
			slog.Debug("archive: component not persisted", "object", obj.Name(), "type", fmt.Sprintf("%T", c))
		}
	}
	for _, ch := range obj.Children() {
		d.Children = append(d.Children, captureObject(ch))
	}
	return d
}

// Encode encodes doc into w using format f.
func Encode(w io.Writer, f Format, doc *Document) error {
	var err error
	switch f {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "\t")
		err = enc.Encode(doc)
	case TOML:
		err = toml.NewEncoder(w).Encode(doc)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err = enc.Encode(doc); err == nil {
			err = enc.Close()
		}
	default:
		return errors.New(prefix + "invalid Format")
	}
	if err != nil {
		return fmt.Errorf(prefix+"encode %s: %w", f, err)
	}
	return nil
}

// Decode decodes a Document from r using format f.
func Decode(r io.Reader, f Format) (*Document, error) {
	var doc Document
	var err error
	switch f {
	case JSON:
		err = json.NewDecoder(r).Decode(&doc)
	case TOML:
		err = toml.NewDecoder(r).Decode(&doc)
	case YAML:
		err = yaml.NewDecoder(r).Decode(&doc)
	default:
		return nil, errors.New(prefix + "invalid Format")
	}
	if err != nil {
		return nil, fmt.Errorf(prefix+"decode %s: %w", f, err)
	}
	if doc.Version != Version {
		return nil, fmt.Errorf(prefix+"unsupported version %d", doc.Version)
	}
	return &doc, nil
}

// pending is a component waiting for the object tree to
// be complete.
type pending struct {
	obj *object.GameObject
	doc *ComponentDoc
}

// Restore creates the objects described by doc in s and
// adds them to its root sequence.
// Every object is created before any component is
// restored, so bone names resolve against the complete
// tree. Components that fail to restore are still attached;
// the returned error joins every failure.
func Restore(doc *Document, s *scene.Scene, res render.Resources) error {
	var comps []pending
	for i := range doc.Objects {
		s.AddRootGameObject(restoreObject(s, &doc.Objects[i], &comps))
	}
	var errs []error
	for _, p := range comps {
		switch p.doc.Type {
		case TypeSkinMesh:
			sm := render.NewSkinMesh()
			p.obj.AddComponent(sm)
			if p.doc.SkinMesh == nil {
				errs = append(errs, fmt.Errorf(prefix+"%s: SkinMesh component has no state", p.obj.Name()))
				continue
			}
			if err := sm.Restore(*p.doc.SkinMesh, res); err != nil {
				errs = append(errs, fmt.Errorf(prefix+"%s: %w", p.obj.Name(), err))
			}
		default:
			errs = append(errs, fmt.Errorf(prefix+"%s: unknown component type %q", p.obj.Name(), p.doc.Type))
		}
	}
	return errors.Join(errs...)
}

func restoreObject(s *scene.Scene, d *ObjectDoc, comps *[]pending) *object.GameObject {
	obj := s.NewGameObject(d.Name)
	var m linear.M4
	for i := range m {
		m[i] = linear.V4(d.Local[i*4:])
	}
	obj.SetLocal(&m)
	for i := range d.Components {
		*comps = append(*comps, pending{obj, &d.Components[i]})
	}
	for i := range d.Children {
		// Cannot fail: same graph and a new object.
		_ = obj.AddChild(restoreObject(s, &d.Children[i], comps))
	}
	return obj
}

// Save captures s and encodes it into w.
func Save(w io.Writer, f Format, s *scene.Scene) error {
	return Encode(w, f, Capture(s))
}

// Load decodes a Document from r and restores it into s.
func Load(r io.Reader, f Format, s *scene.Scene, res render.Resources) error {
	doc, err := Decode(r, f)
	if err != nil {
		return err
	}
	return Restore(doc, s, res)
}

// WriteFile saves s to the file at path, whose extension
// selects the format.
func WriteFile(path string, s *scene.Scene) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Save(file, f, s); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// ReadFile loads the file at path into s.
func ReadFile(path string, s *scene.Scene, res render.Resources) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return Load(file, f, s, res)
}
