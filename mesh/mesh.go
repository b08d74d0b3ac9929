// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package mesh implements the skinned mesh data that
// render components share.
package mesh

import (
	"errors"
)

const prefix = "mesh: "

// Semantic specifies the intended use of a vertex attribute.
type Semantic int

// Semantics.
const (
	Position Semantic = 1 << iota
	Normal
	Tangent
	TexCoord0
	TexCoord1
	Color0
	Joints0
	Weights0

	MaxSemantic = iota
)

// I computes log₂(s).
func (s Semantic) I() (i int) {
	for s > 1 {
		s >>= 1
		i++
	}
	return
}

// String implements fmt.Stringer.
func (s Semantic) String() string {
	switch s {
	case Position:
		return "Position"
	case Normal:
		return "Normal"
	case Tangent:
		return "Tangent"
	case TexCoord0:
		return "TexCoord0"
	case TexCoord1:
		return "TexCoord1"
	case Color0:
		return "Color0"
	case Joints0:
		return "Joints0"
	case Weights0:
		return "Weights0"
	default:
		return "[!] invalid Semantic value"
	}
}

// Data describes the contents of a mesh.
// Positions determine the vertex count; Joints and
// Weights, when present, must have one element per
// vertex.
type Data struct {
	Name      string
	Positions [][3]float32
	Normals   [][3]float32
	Joints    [][4]uint16
	Weights   [][4]float32
}

// Mesh is an immutable skinned mesh.
type Mesh struct {
	name    string
	sems    Semantic
	vertCnt int
	joints  [][4]uint16
	weights [][4]float32
	groups  int
}

// New creates a new mesh from d.
// The slices of d are copied.
func New(d *Data) (*Mesh, error) {
	switch {
	case d.Name == "":
		return nil, errors.New(prefix + "Data.Name is empty")
	case len(d.Positions) == 0:
		return nil, errors.New(prefix + "Data.Positions length is 0")
	case d.Normals != nil && len(d.Normals) != len(d.Positions):
		return nil, errors.New(prefix + "Data.Normals length mismatch")
	case d.Joints != nil && len(d.Joints) != len(d.Positions):
		return nil, errors.New(prefix + "Data.Joints length mismatch")
	case d.Weights != nil && d.Joints == nil:
		return nil, errors.New(prefix + "Data.Weights without Data.Joints")
	case d.Weights != nil && len(d.Weights) != len(d.Positions):
		return nil, errors.New(prefix + "Data.Weights length mismatch")
	}

	m := &Mesh{
		name:    d.Name,
		sems:    Position,
		vertCnt: len(d.Positions),
	}
	if d.Normals != nil {
		m.sems |= Normal
	}
	if d.Joints != nil {
		m.sems |= Joints0
		m.joints = append([][4]uint16(nil), d.Joints...)
	}
	if d.Weights != nil {
		m.sems |= Weights0
		m.weights = append([][4]float32(nil), d.Weights...)
	}

	// A joint index only counts if its weight is
	// non-zero (or if there are no weights).
	for i, js := range m.joints {
		for j, x := range js {
			if m.weights != nil && m.weights[i][j] == 0 {
				continue
			}
			m.groups = max(m.groups, int(x)+1)
		}
	}
	return m, nil
}

// Name returns the name of the mesh.
func (m *Mesh) Name() string { return m.name }

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return m.vertCnt }

// Has reports whether the mesh provides every semantic in s.
func (m *Mesh) Has(s Semantic) bool { return m.sems&s == s }

// Joints returns the per-vertex joint indices.
// The returned slice must not be modified.
func (m *Mesh) Joints() [][4]uint16 { return m.joints }

// Weights returns the per-vertex joint weights.
// The returned slice must not be modified.
func (m *Mesh) Weights() [][4]float32 { return m.weights }

// SkinGroups returns the number of bone groups that the
// mesh's vertices refer to, i.e., the highest joint index
// with a non-zero weight, plus one.
// A mesh that is not skinned has zero skin groups.
func (m *Mesh) SkinGroups() int { return m.groups }
