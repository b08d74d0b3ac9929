// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package resource

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wellplay/engine/avatar"
	"github.com/wellplay/engine/gltf"
	"github.com/wellplay/engine/linear"
	"github.com/wellplay/engine/mesh"
)

// assets is what a single file provides.
type assets struct {
	meshes  []*mesh.Mesh
	avatars []*avatar.Avatar
}

// isAsset reports whether path names a file that the
// cache can import.
func isAsset(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		return true
	}
	return false
}

// importFile loads every mesh and skin of a glTF file.
// Unnamed meshes and skins are named after the file.
func importFile(path string) (*assets, error) {
	f, err := gltf.Load(path)
	if err != nil {
		return nil, err
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var as assets
	for i := range f.GLTF.Meshes {
		m, err := importMesh(f, i, base)
		if err != nil {
			return nil, err
		}
		as.meshes = append(as.meshes, m)
	}
	parents := parentsOf(f.GLTF)
	for i := range f.GLTF.Skins {
		a, err := importSkin(f, i, base, parents)
		if err != nil {
			return nil, err
		}
		as.avatars = append(as.avatars, a)
	}
	return &as, nil
}

func nameOf(name, base, kind string, i int) string {
	if name != "" {
		return name
	}
	if i == 0 {
		return base + kind
	}
	return fmt.Sprintf("%s%s.%d", base, kind, i)
}

// importMesh concatenates the vertices of every primitive
// of mesh i.
func importMesh(f *gltf.File, i int, base string) (*mesh.Mesh, error) {
	gm := &f.GLTF.Meshes[i]
	d := mesh.Data{Name: nameOf(gm.Name, base, "", i)}
	for _, p := range gm.Primitives {
		pos, err := f.ReadFloats(p.Attributes[gltf.POSITION])
		if err != nil {
			return nil, err
		}
		n := len(pos) / 3
		for j := range n {
			d.Positions = append(d.Positions, [3]float32(pos[j*3:]))
		}
		if acc, ok := p.Attributes[gltf.NORMAL]; ok {
			nrm, err := f.ReadFloats(acc)
			if err != nil {
				return nil, err
			}
			for j := range n {
				d.Normals = append(d.Normals, [3]float32(nrm[j*3:]))
			}
		}
		if acc, ok := p.Attributes[gltf.JOINTS_0]; ok {
			js, err := f.ReadUints(acc)
			if err != nil {
				return nil, err
			}
			for j := range n {
				v := js[j*4:]
				d.Joints = append(d.Joints, [4]uint16{uint16(v[0]), uint16(v[1]), uint16(v[2]), uint16(v[3])})
			}
		}
		if acc, ok := p.Attributes[gltf.WEIGHTS_0]; ok {
			ws, err := f.ReadFloats(acc)
			if err != nil {
				return nil, err
			}
			for j := range n {
				d.Weights = append(d.Weights, [4]float32(ws[j*4:]))
			}
		}
	}
	return mesh.New(&d)
}

// parentsOf returns the parent index of every node, or -1.
func parentsOf(g *gltf.GLTF) []int {
	p := make([]int, len(g.Nodes))
	for i := range p {
		p[i] = -1
	}
	for i := range g.Nodes {
		for _, c := range g.Nodes[i].Children {
			p[c] = i
		}
	}
	return p
}

// localOf returns the local transform of a glTF node.
func localOf(n *gltf.Node) (m linear.M4) {
	if n.Matrix != nil {
		for i := range m {
			m[i] = linear.V4(n.Matrix[i*4:])
		}
		return
	}
	var t linear.V3
	var r linear.Q
	r.I()
	s := linear.V3{1, 1, 1}
	if n.Translation != nil {
		t = *n.Translation
	}
	if n.Rotation != nil {
		// Exporters round unit quaternions.
		r.Norm(&linear.Q{V: linear.V3(n.Rotation[:3]), R: n.Rotation[3]})
	}
	if n.Scale != nil {
		s = *n.Scale
	}
	m.TRS(&t, &r, &s)
	return
}

// importSkin creates an avatar from skin i.
// A joint's parent is the nearest ancestor node that is
// also a joint of the skin.
func importSkin(f *gltf.File, i int, base string, parents []int) (*avatar.Avatar, error) {
	sk := &f.GLTF.Skins[i]
	index := make(map[int]int, len(sk.Joints))
	for j, n := range sk.Joints {
		index[int(n)] = j
	}
	var ibm []float32
	if sk.InverseBindMatrices != nil {
		var err error
		if ibm, err = f.ReadFloats(*sk.InverseBindMatrices); err != nil {
			return nil, err
		}
	}
	js := make([]avatar.Joint, len(sk.Joints))
	for j, n := range sk.Joints {
		node := &f.GLTF.Nodes[n]
		js[j].Name = node.Name
		js[j].JM = localOf(node)
		js[j].Parent = -1
		for p := parents[n]; p >= 0; p = parents[p] {
			if k, ok := index[p]; ok {
				js[j].Parent = k
				break
			}
		}
		if ibm != nil {
			for c := range js[j].IBM {
				js[j].IBM[c] = linear.V4(ibm[j*16+c*4:])
			}
		} else {
			js[j].IBM.I()
		}
	}
	return avatar.New(nameOf(sk.Name, base, "Skeleton", i), js)
}
