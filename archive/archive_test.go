// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package archive

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellplay/engine/avatar"
	"github.com/wellplay/engine/linear"
	"github.com/wellplay/engine/mesh"
	"github.com/wellplay/engine/render"
	"github.com/wellplay/engine/resource"
	"github.com/wellplay/engine/scene"
)

func newCache(t *testing.T) *resource.Cache {
	c := resource.New("")
	m, err := mesh.New(&mesh.Data{
		Name:      "Hero",
		Positions: make([][3]float32, 2),
		Joints:    [][4]uint16{{0}, {1}},
		Weights:   [][4]float32{{1}, {1}},
	})
	require.NoError(t, err)
	require.NoError(t, c.AddMesh(m))
	js := []avatar.Joint{{Name: "Hip", Parent: -1}, {Name: "Spine", Parent: 0}}
	js[1].IBM.Translate(0, -1, 0)
	a, err := avatar.New("HeroSkeleton", js)
	require.NoError(t, err)
	require.NoError(t, c.AddAvatar(a))
	return c
}

// newHero creates:
//
//	Hero
//	├── Hip
//	│   └── Spine
//	└── Body (SkinMesh)
//	Prop
func newHero(t *testing.T, res *resource.Cache) *scene.Scene {
	s := scene.NewManager().Create("Level")
	hero := s.NewGameObject("Hero")
	hip := s.NewGameObject("Hip")
	spine := s.NewGameObject("Spine")
	body := s.NewGameObject("Body")
	require.NoError(t, hero.AddChild(hip))
	require.NoError(t, hip.AddChild(spine))
	require.NoError(t, hero.AddChild(body))
	var m linear.M4
	m.Translate(0, 1, 0)
	spine.SetLocal(&m)
	m.Translate(2.5, 0, -1)
	hero.SetLocal(&m)

	sm := render.NewSkinMesh()
	body.AddComponent(sm)
	require.NoError(t, sm.Restore(render.SkinMeshState{
		Mesh:   "Hero",
		Avatar: "HeroSkeleton",
		Render: render.BaseState{Visible: true, Layer: 4},
	}, res))
	s.AddRootGameObject(hero)
	s.AddRootGameObject(s.NewGameObject("Prop"))
	return s
}

func TestCapture(t *testing.T) {
	res := newCache(t)
	doc := Capture(newHero(t, res))
	assert.Equal(t, Version, doc.Version)
	assert.Equal(t, "Level", doc.Scene)
	require.Len(t, doc.Objects, 2)
	hero := doc.Objects[0]
	assert.Equal(t, "Hero", hero.Name)
	assert.Equal(t, [4]float32{2.5, 0, -1, 1}, [4]float32(hero.Local[12:]))
	require.Len(t, hero.Children, 2)
	body := hero.Children[1]
	require.Len(t, body.Components, 1)
	assert.Equal(t, TypeSkinMesh, body.Components[0].Type)
	assert.Equal(t, &render.SkinMeshState{
		Mesh:   "Hero",
		Avatar: "HeroSkeleton",
		Render: render.BaseState{Visible: true, Layer: 4},
	}, body.Components[0].SkinMesh)
	assert.Empty(t, doc.Objects[1].Children)
}

func TestRoundTrip(t *testing.T) {
	for _, f := range []Format{JSON, TOML, YAML} {
		t.Run(f.String(), func(t *testing.T) {
			res := newCache(t)
			src := newHero(t, res)
			var buf bytes.Buffer
			require.NoError(t, Save(&buf, f, src))

			dst := scene.NewManager().Create("Level")
			require.NoError(t, Load(bytes.NewReader(buf.Bytes()), f, dst, res))
			assert.Equal(t, Capture(src), Capture(dst))

			// Bones are bound to the restored hierarchy.
			body := dst.Find("Body")
			require.NotNil(t, body)
			sm := body.Components()[0].(*render.SkinMesh)
			require.Len(t, sm.Bones(), 2)
			for i, b := range sm.Bones() {
				n, ok := b.Get()
				require.True(t, ok)
				assert.Equal(t, dst.Graph(), b.Graph())
				assert.Equal(t, sm.Avatar().JointName(i), dst.Graph().Name(n))
			}
			mr, ar := res.Refs("Hero")
			assert.Equal(t, 2, mr)
			assert.Zero(t, ar)

			require.NoError(t, dst.Init(false))
			dst.Update(0)
			// world(Spine) = T(2.5, 1, -1), IBM = T(0, -1, 0).
			assert.Equal(t, linear.V4{2.5, 0, -1, 1}, sm.Palette()[1][3])
		})
	}
}

func TestRestoreErrors(t *testing.T) {
	res := newCache(t)
	doc := Capture(newHero(t, res))
	doc.Objects[1].Components = []ComponentDoc{{Type: "Light"}, {Type: TypeSkinMesh}}
	doc.Objects[0].Children[1].Components[0].SkinMesh.Avatar = "Nobody"

	s := scene.NewManager().Create("")
	err := Restore(doc, s, res)
	assert.ErrorIs(t, err, resource.ErrNotFound)
	assert.ErrorContains(t, err, "Light")
	assert.ErrorContains(t, err, "no state")
	// The tree is restored regardless.
	assert.Len(t, s.RootGameObjects(), 2)
	assert.NotNil(t, s.Find("Spine"))
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"version": 99}`), JSON)
	assert.ErrorContains(t, err, "version")
	_, err = Decode(strings.NewReader(`version = [`), TOML)
	assert.Error(t, err)
	_, err = Decode(strings.NewReader(`{}`), Format(-1))
	assert.Error(t, err)
	assert.Error(t, Encode(&bytes.Buffer{}, Format(9), &Document{}))
}

func TestFormatOf(t *testing.T) {
	for path, want := range map[string]Format{
		"a.json":        JSON,
		"dir/b.TOML":    TOML,
		"c.yaml":        YAML,
		"/abs/path.yml": YAML,
	} {
		f, err := FormatOf(path)
		require.NoError(t, err)
		assert.Equal(t, want, f, path)
	}
	_, err := FormatOf("scene.xml")
	assert.Error(t, err)
}

func TestFile(t *testing.T) {
	res := newCache(t)
	src := newHero(t, res)
	dir := t.TempDir()
	for _, name := range []string{"level.json", "level.toml", "level.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(path, src))
		dst := scene.NewManager().Create("Level")
		require.NoError(t, ReadFile(path, dst, res))
		assert.Equal(t, Capture(src), Capture(dst), name)
	}
	assert.Error(t, WriteFile(filepath.Join(dir, "level.xml"), src))
	assert.Error(t, ReadFile(filepath.Join(dir, "missing.json"), src, res))
}
