// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package gltf

import (
	"errors"
	"strings"
)

func newErr(reason string) error {
	return errors.New("gltf: " + reason)
}

func inRange(i int64, n int) bool { return i >= 0 && i < int64(n) }

// Check checks that f is valid glTF.
// Only the properties modeled by this package are checked.
func (f *GLTF) Check() error {
	if !strings.HasPrefix(f.Asset.Version, "2.") {
		return newErr("unsupported GLTF.Asset.Version")
	}
	if s := f.Scene; s != nil && !inRange(*s, len(f.Scenes)) {
		return newErr("invalid GLTF.Scene index")
	}
	for i := range f.Buffers {
		if f.Buffers[i].ByteLength < 1 {
			return newErr("invalid Buffer.ByteLength value")
		}
	}
	for i := range f.BufferViews {
		if err := f.BufferViews[i].Check(f); err != nil {
			return err
		}
	}
	for i := range f.Accessors {
		if err := f.Accessors[i].Check(f); err != nil {
			return err
		}
	}
	for i := range f.Meshes {
		if err := f.Meshes[i].Check(f); err != nil {
			return err
		}
	}
	for i := range f.Nodes {
		if err := f.Nodes[i].Check(f, i); err != nil {
			return err
		}
	}
	if err := f.checkHierarchy(); err != nil {
		return err
	}
	for _, s := range f.Scenes {
		for _, n := range s.Nodes {
			if !inRange(n, len(f.Nodes)) {
				return newErr("invalid Scene.Nodes index")
			}
		}
	}
	for i := range f.Skins {
		if err := f.Skins[i].Check(f); err != nil {
			return err
		}
	}
	return nil
}

// checkHierarchy checks that the nodes form disjoint
// strict trees: no node has more than one parent and no
// node is its own ancestor.
// Node indices must have been checked already.
func (f *GLTF) checkHierarchy() error {
	parent := make([]int64, len(f.Nodes))
	for i := range parent {
		parent[i] = -1
	}
	for i := range f.Nodes {
		for _, c := range f.Nodes[i].Children {
			if parent[c] >= 0 {
				return newErr("Node has more than one parent")
			}
			parent[c] = int64(i)
		}
	}

	// Every parent chain must end at a root.
	const (
		unvisited = iota
		visiting
		visited
	)
	state := make([]byte, len(f.Nodes))
	for i := range f.Nodes {
		j := int64(i)
		for j >= 0 && state[j] == unvisited {
			state[j] = visiting
			j = parent[j]
		}
		if j >= 0 && state[j] == visiting {
			return newErr("Node hierarchy has a cycle")
		}
		for j = int64(i); j >= 0 && state[j] == visiting; j = parent[j] {
			state[j] = visited
		}
	}
	return nil
}

// Check checks that v is valid glTF.bufferViews' element.
func (v *BufferView) Check(gltf *GLTF) error {
	if !inRange(v.Buffer, len(gltf.Buffers)) {
		return newErr("invalid BufferView.Buffer index")
	}
	switch {
	case v.ByteOffset < 0:
		return newErr("invalid BufferView.ByteOffset value")
	case v.ByteLength < 1:
		return newErr("invalid BufferView.ByteLength value")
	case v.ByteOffset+v.ByteLength > gltf.Buffers[v.Buffer].ByteLength:
		return newErr("BufferView out of Buffer bounds")
	}
	if s := v.ByteStride; s != 0 && (s < 4 || s > 252 || s%4 != 0) {
		return newErr("invalid BufferView.ByteStride value")
	}
	return nil
}

// Check checks that a is valid glTF.accessors' element.
func (a *Accessor) Check(gltf *GLTF) error {
	if a.BufferView != nil && !inRange(*a.BufferView, len(gltf.BufferViews)) {
		return newErr("invalid Accessor.BufferView index")
	}
	if a.ByteOffset < 0 {
		return newErr("invalid Accessor.ByteOffset value")
	}
	csz := ComponentSize(a.ComponentType)
	if csz == 0 {
		return newErr("invalid Accessor.ComponentType value")
	}
	if a.Count < 1 {
		return newErr("invalid Accessor.Count value")
	}
	ncomp := ComponentCount(a.Type)
	if ncomp == 0 {
		return newErr("invalid Accessor.Type value")
	}
	if a.BufferView != nil {
		v := &gltf.BufferViews[*a.BufferView]
		stride := v.ByteStride
		if stride == 0 {
			stride = int64(csz * ncomp)
		}
		end := a.ByteOffset + stride*(a.Count-1) + int64(csz*ncomp)
		if end > v.ByteLength {
			return newErr("Accessor out of BufferView bounds")
		}
	}

	if s := a.Sparse; s != nil {
		if s.Count < 1 || s.Count > a.Count {
			return newErr("invalid Accessor.Sparse.Count value")
		}
		if !inRange(s.Indices.BufferView, len(gltf.BufferViews)) {
			return newErr("invalid Accessor.Sparse.Indices.BufferView index")
		}
		if s.Indices.ByteOffset < 0 {
			return newErr("invalid Accessor.Sparse.Indices.ByteOffset value")
		}
		switch s.Indices.ComponentType {
		case UNSIGNED_BYTE, UNSIGNED_SHORT, UNSIGNED_INT:
		default:
			return newErr("invalid Accessor.Sparse.Indices.ComponentType value")
		}
		if !inRange(s.Values.BufferView, len(gltf.BufferViews)) {
			return newErr("invalid Accessor.Sparse.Values.BufferView index")
		}
		if s.Values.ByteOffset < 0 {
			return newErr("invalid Accessor.Sparse.Values.ByteOffset value")
		}
	}
	return nil
}

// vertexAttrs are the attributes read by File users,
// with the accessor type each must have.
var vertexAttrs = [...]struct{ name, typ string }{
	{POSITION, VEC3},
	{NORMAL, VEC3},
	{JOINTS_0, VEC4},
	{WEIGHTS_0, VEC4},
}

// Check checks that m is valid glTF.meshes' element.
func (m *Mesh) Check(gltf *GLTF) error {
	if len(m.Primitives) == 0 {
		return newErr("Mesh.Primitives length is 0")
	}
	for _, p := range m.Primitives {
		if _, ok := p.Attributes[POSITION]; !ok {
			return newErr("Primitive.Attributes has no POSITION")
		}
		for _, i := range p.Attributes {
			if !inRange(i, len(gltf.Accessors)) {
				return newErr("invalid Primitive.Attributes index")
			}
		}
		// Vertex attributes must have one element per vertex.
		n := gltf.Accessors[p.Attributes[POSITION]].Count
		for _, x := range vertexAttrs {
			i, ok := p.Attributes[x.name]
			if !ok {
				continue
			}
			a := &gltf.Accessors[i]
			switch {
			case a.Type != x.typ:
				return newErr("invalid Primitive.Attributes[" + x.name + "] accessor type")
			case a.Count != n:
				return newErr("Primitive.Attributes[" + x.name + "] count differs from POSITION")
			case x.name == JOINTS_0 && a.ComponentType != UNSIGNED_BYTE && a.ComponentType != UNSIGNED_SHORT:
				return newErr("invalid Primitive.Attributes[JOINTS_0] component type")
			}
		}
		if p.Indices != nil && !inRange(*p.Indices, len(gltf.Accessors)) {
			return newErr("invalid Primitive.Indices index")
		}
		if p.Mode != nil && (*p.Mode < POINTS || *p.Mode > TRIANGLE_FAN) {
			return newErr("invalid Primitive.Mode value")
		}
	}
	return nil
}

// Check checks that n is valid glTF.nodes' element.
// index is the position of n in gltf.Nodes.
func (n *Node) Check(gltf *GLTF, index int) error {
	for _, c := range n.Children {
		switch {
		case !inRange(c, len(gltf.Nodes)):
			return newErr("invalid Node.Children index")
		case c == int64(index):
			return newErr("Node.Children refers to itself")
		}
	}
	if n.Mesh != nil && !inRange(*n.Mesh, len(gltf.Meshes)) {
		return newErr("invalid Node.Mesh index")
	}
	if n.Skin != nil {
		if !inRange(*n.Skin, len(gltf.Skins)) {
			return newErr("invalid Node.Skin index")
		}
		if n.Mesh == nil {
			return newErr("Node.Skin requires Node.Mesh")
		}
	}
	if n.Matrix != nil && (n.Rotation != nil || n.Scale != nil || n.Translation != nil) {
		return newErr("Node.Matrix and TRS are mutually exclusive")
	}
	return nil
}

// Check checks that s is valid glTF.skins' element.
func (s *Skin) Check(gltf *GLTF) error {
	if len(s.Joints) == 0 {
		return newErr("Skin.Joints length is 0")
	}
	for _, j := range s.Joints {
		if !inRange(j, len(gltf.Nodes)) {
			return newErr("invalid Skin.Joints index")
		}
	}
	if s.Skeleton != nil && !inRange(*s.Skeleton, len(gltf.Nodes)) {
		return newErr("invalid Skin.Skeleton index")
	}
	if i := s.InverseBindMatrices; i != nil {
		if !inRange(*i, len(gltf.Accessors)) {
			return newErr("invalid Skin.InverseBindMatrices index")
		}
		a := &gltf.Accessors[*i]
		if a.Type != MAT4 || a.ComponentType != FLOAT || a.Count < int64(len(s.Joints)) {
			return newErr("invalid Skin.InverseBindMatrices accessor")
		}
	}
	return nil
}
