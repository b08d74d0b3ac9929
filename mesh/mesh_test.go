// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package mesh

import (
	"strings"
	"testing"
)

func TestSemantic(t *testing.T) {
	for i, s := range [...]Semantic{Position, Normal, Tangent, TexCoord0, TexCoord1, Color0, Joints0, Weights0} {
		if x := s.I(); x != i {
			t.Fatalf("Semantic.I:\nhave %d\nwant %d", x, i)
		}
		if x := s.String(); strings.HasPrefix(x, "[!]") {
			t.Fatalf("Semantic.String:\nhave %s\nwant valid name", x)
		}
	}
	if x := Semantic(0).String(); !strings.HasPrefix(x, "[!]") {
		t.Fatalf("Semantic(0).String:\nhave %s\nwant invalid", x)
	}
}

func TestNew(t *testing.T) {
	d := Data{
		Name:      "Hero",
		Positions: make([][3]float32, 3),
		Joints:    [][4]uint16{{0, 1, 0, 0}, {2, 0, 0, 0}, {7, 3, 0, 0}},
		Weights:   [][4]float32{{0.5, 0.5}, {1}, {0, 1}},
	}
	m, err := New(&d)
	if err != nil {
		t.Fatalf("New:\nhave %v\nwant nil", err)
	}
	if x := m.Name(); x != "Hero" {
		t.Fatalf("Mesh.Name:\nhave %s\nwant Hero", x)
	}
	if x := m.VertexCount(); x != 3 {
		t.Fatalf("Mesh.VertexCount:\nhave %d\nwant 3", x)
	}
	if !m.Has(Position | Joints0 | Weights0) {
		t.Fatal("Mesh.Has(Position|Joints0|Weights0):\nhave false\nwant true")
	}
	if m.Has(Normal) {
		t.Fatal("Mesh.Has(Normal):\nhave true\nwant false")
	}
	// Joint 7 has zero weight.
	if x := m.SkinGroups(); x != 4 {
		t.Fatalf("Mesh.SkinGroups:\nhave %d\nwant 4", x)
	}

	d.Joints[0][0] = 100
	if x := m.Joints()[0][0]; x != 0 {
		t.Fatalf("Mesh.Joints: not copied\nhave %d\nwant 0", x)
	}

	d.Weights = nil
	if m, _ = New(&d); m.SkinGroups() != 101 {
		t.Fatalf("Mesh.SkinGroups (no weights):\nhave %d\nwant 101", m.SkinGroups())
	}

	m, err = New(&Data{Name: "Static", Positions: make([][3]float32, 1)})
	if err != nil || m.SkinGroups() != 0 {
		t.Fatalf("New: static mesh\nhave %v, %v\nwant 0, nil", m, err)
	}
}

func TestNewFail(t *testing.T) {
	pos := make([][3]float32, 2)
	for _, x := range [...]struct {
		d      Data
		reason string
	}{
		{Data{Positions: pos}, "Data.Name is empty"},
		{Data{Name: "x"}, "Data.Positions length is 0"},
		{Data{Name: "x", Positions: pos, Normals: make([][3]float32, 1)}, "Data.Normals length mismatch"},
		{Data{Name: "x", Positions: pos, Joints: make([][4]uint16, 3)}, "Data.Joints length mismatch"},
		{Data{Name: "x", Positions: pos, Weights: make([][4]float32, 2)}, "Data.Weights without Data.Joints"},
		{Data{Name: "x", Positions: pos, Joints: make([][4]uint16, 2), Weights: make([][4]float32, 1)}, "Data.Weights length mismatch"},
	} {
		m, err := New(&x.d)
		if m != nil || err == nil {
			t.Fatalf("New:\nhave %v, %v\nwant nil, non-nil", m, err)
		}
		if s := err.Error(); s != prefix+x.reason {
			t.Fatalf("New: error.Error()\nhave \"%s\"\nwant \"%s%s\"", s, prefix, x.reason)
		}
	}
}
