// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package render

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/wellplay/engine/avatar"
	"github.com/wellplay/engine/node"
	"github.com/wellplay/engine/object"
)

// chain creates a SkinMesh whose owner's root has a chain
// of n bone objects mirroring an n-joint avatar.
func chain(b *testing.B, g *node.Graph, n int) *SkinMesh {
	js := make([]avatar.Joint, n)
	root := object.New(g, "Root")
	parent := root
	for i := range js {
		js[i].Name = "Bone" + strconv.Itoa(i)
		js[i].Parent = i - 1
		js[i].JM.Translate(0, 1, 0)
		js[i].IBM.Translate(0, -float32(i), 0)
		o := object.New(g, js[i].Name)
		o.SetLocal(&js[i].JM)
		if err := parent.AddChild(o); err != nil {
			b.Fatalf("AddChild failed:\n%#v", err)
		}
		parent = o
	}
	a, err := avatar.New("Chain", js)
	if err != nil {
		b.Fatalf("avatar.New failed:\n%#v", err)
	}
	body := object.New(g, "Body")
	if err := root.AddChild(body); err != nil {
		b.Fatalf("AddChild failed:\n%#v", err)
	}
	s := NewSkinMesh()
	body.AddComponent(s)
	if err := s.SetAvatar(a); err != nil {
		b.Fatalf("SkinMesh.SetAvatar failed:\n%#v", err)
	}
	g.Update()
	return s
}

func BenchmarkInitBoneMatrix(b *testing.B) {
	for _, n := range [...]int{1, 16, 64, 255} {
		var g node.Graph
		s := chain(b, &g, n)
		b.Run(fmt.Sprintf("{bones=%d}", n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if err := s.InitBoneMatrix(); err != nil {
					b.Fatalf("SkinMesh.InitBoneMatrix failed:\n%#v", err)
				}
			}
		})
	}
}

func BenchmarkUpdate(b *testing.B) {
	for _, n := range [...]int{1, 16, 64, 255} {
		var g node.Graph
		s := chain(b, &g, n)
		b.Run(fmt.Sprintf("{bones=%d}", n), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				s.Update(0)
			}
		})
	}
}
