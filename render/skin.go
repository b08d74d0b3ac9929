// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package render

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/wellplay/engine/avatar"
	"github.com/wellplay/engine/internal/align"
	"github.com/wellplay/engine/linear"
	"github.com/wellplay/engine/mesh"
	"github.com/wellplay/engine/node"
	"github.com/wellplay/engine/object"
)

// ErrMismatch means that a mesh refers to more bone groups
// than its avatar provides bones.
var ErrMismatch = errors.New("render: mesh skin groups exceed bone count")

// PaletteAlign is the alignment of the byte form of a
// skinning palette.
const PaletteAlign = 256

// Stage is the lifecycle stage of a SkinMesh.
type Stage int

// Stages.
const (
	Uninitialized Stage = iota
	Initialized
	// Ready means that the palette was computed at least
	// once and can be uploaded.
	Ready
)

// String implements fmt.Stringer.
func (s Stage) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Initialized:
		return "Initialized"
	case Ready:
		return "Ready"
	default:
		return "[!] invalid Stage value"
	}
}

// SkinMeshState is the persisted form of a SkinMesh.
// Only names are stored: bone bindings are relative to
// the owner's hierarchy and are rebuilt on restore.
type SkinMeshState struct {
	Mesh   string    `json:"mesh" toml:"mesh" yaml:"mesh"`
	Avatar string    `json:"avatar" toml:"avatar" yaml:"avatar"`
	Render BaseState `json:"render" toml:"render" yaml:"render"`
}

// SkinMesh is a renderable component that deforms a shared
// mesh by the joints of a shared avatar.
// Each avatar joint is bound, by name, to a transform node
// of the owner's hierarchy; every frame the component
// computes one skinning matrix per joint:
//
//	palette[i] = world(bone[i]) ⋅ IBM[i]
//
// Bones are weak references, and a bone whose node was
// removed contributes the identity matrix.
type SkinMesh struct {
	Render
	mesh   *mesh.Mesh
	avatar *avatar.Avatar
	bones  []node.Weak
	mats   []linear.M4
	stage  Stage
	// Set by Restore.
	res Resources
}

// NewSkinMesh creates a SkinMesh with no mesh or avatar.
func NewSkinMesh() *SkinMesh {
	return &SkinMesh{Render: Render{BaseState: DefaultState()}}
}

// Mesh returns the mesh, or nil.
func (s *SkinMesh) Mesh() *mesh.Mesh { return s.mesh }

// Avatar returns the avatar, or nil.
func (s *SkinMesh) Avatar() *avatar.Avatar { return s.avatar }

// Stage returns the lifecycle stage of s.
func (s *SkinMesh) Stage() Stage { return s.stage }

// Bones returns a copy of the bone references.
func (s *SkinMesh) Bones() []node.Weak { return append([]node.Weak(nil), s.bones...) }

// Palette returns the skinning matrices, one per bone.
// The slice is reused across frames and must not be
// modified.
func (s *SkinMesh) Palette() []linear.M4 { return s.mats }

// SetMesh replaces the mesh.
// Bone bindings are driven by the avatar and are kept.
// If an avatar is bound and m refers to more bone groups
// than there are bones, SetMesh fails with ErrMismatch and
// the previous mesh is kept.
// m may be nil.
func (s *SkinMesh) SetMesh(m *mesh.Mesh) error {
	if m != nil && s.avatar != nil && m.SkinGroups() > len(s.bones) {
		return s.mismatch(m)
	}
	s.mesh = m
	return nil
}

// SetAvatar replaces the avatar and rebinds the bones by
// calling InitBoneMatrix, whose error it returns.
// a may be nil, in which case there are no bones.
func (s *SkinMesh) SetAvatar(a *avatar.Avatar) error {
	s.avatar = a
	return s.InitBoneMatrix()
}

func (s *SkinMesh) mismatch(m *mesh.Mesh) error {
	name := "<nil>"
	if s.avatar != nil {
		name = s.avatar.Name()
	}
	return fmt.Errorf("%w: mesh %q has %d groups, avatar %q binds %d bones",
		ErrMismatch, m.Name(), m.SkinGroups(), name, len(s.bones))
}

func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}

// InitBoneMatrix sizes the bone and palette slices to the
// avatar's joint count, sets every matrix to identity and
// resolves the bones with FindBoneTransform.
// It fails with ErrMismatch if the mesh refers to more
// bone groups than there are bones; the bindings are
// built regardless.
func (s *SkinMesh) InitBoneMatrix() error {
	n := 0
	if s.avatar != nil {
		n = s.avatar.Len()
	}
	s.bones = resize(s.bones, n)
	s.mats = resize(s.mats, n)
	for i := range s.mats {
		s.mats[i].I()
	}
	s.FindBoneTransform()
	if s.mesh != nil && s.mesh.SkinGroups() > len(s.bones) {
		return s.mismatch(s.mesh)
	}
	return nil
}

// FindBoneTransform binds each avatar joint to the first
// node with the same name in the owner's hierarchy, in
// breadth-first order from the hierarchy root.
// Joints with no match get an empty reference, which
// contributes the identity matrix.
func (s *SkinMesh) FindBoneTransform() {
	clear(s.bones)
	owner := s.Owner()
	if s.avatar == nil || owner == nil || !owner.Alive() {
		return
	}
	g := owner.Graph()
	root := g.Root(owner.Transform())

	idx := make(map[string]node.Node, len(s.bones))
	for i := range s.bones {
		idx[s.avatar.JointName(i)] = node.Nil
	}
	rem := len(idx)
	g.Until(root, func(n node.Node) bool {
		if x, ok := idx[g.Name(n)]; ok && x == node.Nil {
			idx[g.Name(n)] = n
			rem--
		}
		return rem > 0
	})

	miss := 0
	for i := range s.bones {
		if n := idx[s.avatar.JointName(i)]; n != node.Nil {
			s.bones[i] = g.Weak(n)
		} else {
			miss++
		}
	}
	if miss > 0 {
		slog.Debug("render: unresolved bones", "avatar", s.avatar.Name(), "object", owner.Name(), "missing", miss, "total", len(s.bones))
	}
}

// OnInit implements object.Component.
func (s *SkinMesh) OnInit() error {
	err := s.InitBoneMatrix()
	s.stage = Initialized
	return err
}

// EditorOnInit implements object.Component.
// Bone resolution does not depend on the simulation clock,
// so it behaves as OnInit.
func (s *SkinMesh) EditorOnInit() error { return s.OnInit() }

// Update implements object.Component.
func (s *SkinMesh) Update(time.Duration) { s.computePalette() }

// EditorUpdate implements object.Component.
func (s *SkinMesh) EditorUpdate() { s.computePalette() }

// computePalette is the per-frame path.
// It must not allocate.
func (s *SkinMesh) computePalette() {
	if s.stage == Uninitialized {
		return
	}
	for i, w := range s.bones {
		n, ok := w.Get()
		if !ok {
			s.mats[i].I()
			continue
		}
		s.mats[i].Mul(w.Graph().World(n), s.avatar.IBM(i))
	}
	s.stage = Ready
}

// Clone implements object.Component.
// The clone shares the mesh and avatar and copies the
// render state, but has no bones until initialized on
// its own owner.
// The clone does not own resource references, so it
// releases nothing when destroyed.
func (s *SkinMesh) Clone() object.Component {
	c := &SkinMesh{mesh: s.mesh, avatar: s.avatar}
	c.BaseState = s.BaseState
	return c
}

// OnDestroy implements object.Component.
func (s *SkinMesh) OnDestroy() {
	if r, ok := s.res.(Releaser); ok {
		if s.mesh != nil {
			r.ReleaseMesh(s.mesh.Name())
		}
		if s.avatar != nil {
			r.ReleaseAvatar(s.avatar.Name())
		}
	}
	s.res = nil
	clear(s.bones)
	s.bones = s.bones[:0]
	s.mats = s.mats[:0]
	s.stage = Uninitialized
}

// Save returns the persisted form of s.
func (s *SkinMesh) Save() SkinMeshState {
	st := SkinMeshState{Render: s.BaseState}
	if s.mesh != nil {
		st.Mesh = s.mesh.Name()
	}
	if s.avatar != nil {
		st.Avatar = s.avatar.Name()
	}
	return st
}

// Restore sets s from its persisted form.
// The mesh and avatar are looked up by name through res,
// then set with SetMesh and SetAvatar, in this order, so
// the bones are rebuilt against the current owner.
// s should be attached before calling Restore.
func (s *SkinMesh) Restore(st SkinMeshState, res Resources) error {
	var m *mesh.Mesh
	var a *avatar.Avatar
	var err error
	if st.Mesh != "" {
		if m, err = res.GetMesh(st.Mesh); err != nil {
			return fmt.Errorf("render: restore SkinMesh: %w", err)
		}
	}
	if st.Avatar != "" {
		if a, err = res.GetAvatar(st.Avatar); err != nil {
			if r, ok := res.(Releaser); ok && m != nil {
				r.ReleaseMesh(st.Mesh)
			}
			return fmt.Errorf("render: restore SkinMesh: %w", err)
		}
	}

	stage := s.stage
	s.OnDestroy()
	s.BaseState = st.Render
	s.res = res
	s.avatar = nil
	if err = s.SetMesh(m); err == nil {
		err = s.SetAvatar(a)
	}
	if stage != Uninitialized {
		s.stage = Initialized
	}
	return err
}

// AppendPalette appends the palette to dst as column-major
// little-endian float32 values, zero-padded to a multiple
// of PaletteAlign bytes.
func (s *SkinMesh) AppendPalette(dst []byte) []byte {
	start := len(dst)
	for i := range s.mats {
		for _, col := range s.mats[i] {
			for _, x := range col {
				dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(x))
			}
		}
	}
	n := len(dst) - start
	for range align.Up(n, PaletteAlign) - n {
		dst = append(dst, 0)
	}
	return dst
}
