// Copyright 2023 Gustavo C. Viegas. All rights reserved.

package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellplay/engine/object"
	"github.com/wellplay/engine/scene"
)

// names returns the object names of t in Walk order.
func names(t *SceneTree) (s []string) {
	t.Walk(func(_ Path, o *object.GameObject) {
		s = append(s, o.Name())
	})
	return
}

func newTree(t *testing.T) *SceneTree {
	tr := New(scene.NewManager().Create("Level"))
	for _, x := range []struct {
		parent Path
		name   string
	}{
		{nil, "A"},
		{Path{0}, "A0"},
		{Path{0}, "A1"},
		{Path{0, 0}, "A00"},
		{nil, "B"},
	} {
		_, err := tr.AddGameObject(x.parent, x.name)
		require.NoError(t, err)
	}
	return tr
}

func TestAddResolve(t *testing.T) {
	tr := newTree(t)
	assert.Equal(t, []string{"A", "A0", "A00", "A1", "B"}, names(tr))
	assert.Len(t, tr.Scene().RootGameObjects(), 2)

	obj, err := tr.Resolve(Path{0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, "A00", obj.Name())
	p, ok := tr.PathOf(obj)
	require.True(t, ok)
	assert.Equal(t, Path{0, 0, 0}, p)

	obj, err = tr.Resolve(nil)
	assert.NoError(t, err)
	assert.Nil(t, obj)
	for _, p := range []Path{{2}, {0, 5}, {-1}, {1, 0}} {
		_, err = tr.Resolve(p)
		assert.Error(t, err, p)
	}
	_, err = tr.AddGameObject(Path{3}, "C")
	assert.Error(t, err)

	_, ok = tr.PathOf(tr.Scene().NewGameObject("Loose"))
	assert.False(t, ok)
}

func TestWalkPaths(t *testing.T) {
	tr := newTree(t)
	var paths []Path
	tr.Walk(func(p Path, _ *object.GameObject) { paths = append(paths, p) })
	assert.Equal(t, []Path{{0}, {0, 0}, {0, 0, 0}, {0, 1}, {1}}, paths)
}

func TestRemove(t *testing.T) {
	tr := newTree(t)
	var removed *object.GameObject
	tr.OnRemoveComponentView = func(o *object.GameObject) { removed = o }

	require.NoError(t, tr.Select(Path{0, 0, 0}))
	sel := tr.Selection()
	require.NotNil(t, sel)

	// Unrelated removal keeps the selection.
	require.NoError(t, tr.RemoveGameObject(Path{0, 1}))
	assert.Nil(t, removed)
	assert.Equal(t, sel, tr.Selection())

	require.NoError(t, tr.RemoveGameObject(Path{0}))
	assert.Equal(t, sel, removed)
	assert.Nil(t, tr.Selection())
	assert.False(t, sel.Alive())
	assert.Equal(t, []string{"B"}, names(tr))

	assert.Error(t, tr.RemoveGameObject(nil))
	assert.Error(t, tr.RemoveGameObject(Path{4}))
}

func TestMove(t *testing.T) {
	tr := newTree(t)

	// Root under another root.
	require.NoError(t, tr.MoveGameObject(Path{1}, Path{0}, 1))
	assert.Equal(t, []string{"A", "A0", "A00", "B", "A1"}, names(tr))
	assert.Len(t, tr.Scene().RootGameObjects(), 1)

	// Child to the root level.
	require.NoError(t, tr.MoveGameObject(Path{0, 0, 0}, nil, 0))
	assert.Equal(t, []string{"A00", "A", "A0", "B", "A1"}, names(tr))
	a00 := tr.Scene().RootGameObjects()[0]
	assert.Nil(t, a00.Parent())

	// Reorder among siblings.
	require.NoError(t, tr.MoveGameObject(Path{1, 2}, Path{1}, 0))
	assert.Equal(t, []string{"A00", "A", "A1", "A0", "B"}, names(tr))

	// Under itself.
	err := tr.MoveGameObject(Path{1}, Path{1, 0}, 0)
	assert.Error(t, err)
	assert.Equal(t, []string{"A00", "A", "A1", "A0", "B"}, names(tr))

	assert.Error(t, tr.MoveGameObject(nil, Path{0}, 0))
	assert.Error(t, tr.MoveGameObject(Path{0}, Path{9}, 0))
}

func TestMoveWorld(t *testing.T) {
	tr := newTree(t)
	a, err := tr.Resolve(Path{0})
	require.NoError(t, err)
	m := a.Local()
	m.Translate(1, 2, 3)
	a.SetLocal(&m)
	require.NoError(t, tr.MoveGameObject(Path{1}, Path{0}, 0))
	tr.Scene().Graph().Update()
	b, err := tr.Resolve(Path{0, 0})
	require.NoError(t, err)
	assert.Equal(t, "B", b.Name())
	w := b.World()
	assert.Equal(t, float32(1), w[3][0])
	assert.Equal(t, float32(3), w[3][2])
}

func TestSelect(t *testing.T) {
	tr := newTree(t)
	var got []string
	tr.OnSelect = func(o *object.GameObject) { got = append(got, o.Name()) }

	require.NoError(t, tr.Select(Path{1}))
	require.NoError(t, tr.Select(Path{0, 1}))
	assert.Equal(t, []string{"B", "A1"}, got)
	assert.Equal(t, "A1", tr.Selection().Name())

	assert.Error(t, tr.Select(Path{0, 7}))
	assert.Equal(t, "A1", tr.Selection().Name())

	require.NoError(t, tr.Select(nil))
	assert.Nil(t, tr.Selection())
	assert.Len(t, got, 2)

	// Destroyed outside the controller.
	require.NoError(t, tr.Select(Path{1}))
	tr.Selection().Destroy()
	assert.Nil(t, tr.Selection())
}
