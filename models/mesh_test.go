package models

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"
)

func TestFromSource(t *testing.T) {
	v := FromSource(1, 2, 3)
	require.Equal(t, Vertex{X: 1, Y: -3, Z: 2}, v)
}

func TestNewMesh(t *testing.T) {
	m := NewMesh(
		[][3]float64{{0, 50, 0}, {1000, 50, 0}, {0, 50, 1000}},
		[][3]uint32{{0, 1, 2}},
	)

	require.Len(t, m.Vertices, 3)
	require.Len(t, m.Faces, 1)
	require.Equal(t, Face{V0: 0, V1: 1, V2: 2}, m.Faces[0])

	a, b, c := m.Triangle(m.Faces[0])
	require.Equal(t, r3.Vector{X: 0, Y: 50, Z: 0}, a)
	require.Equal(t, r3.Vector{X: 1000, Y: 50, Z: 0}, b)
	require.Equal(t, r3.Vector{X: 0, Y: 50, Z: 1000}, c)
}

func TestMeshInvalidCorner(t *testing.T) {
	t.Run("valid mesh", func(t *testing.T) {
		m := NewMesh(
			[][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}},
			[][3]uint32{{0, 1, 2}, {2, 1, 0}},
		)

		_, _, _, ok := m.InvalidCorner()
		require.False(t, ok)
	})

	t.Run("out of bounds index", func(t *testing.T) {
		m := NewMesh(
			[][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 0, 1}},
			[][3]uint32{{0, 1, 2}, {0, 3, 1}},
		)

		face, corner, index, ok := m.InvalidCorner()
		require.True(t, ok)
		require.Equal(t, 1, face)
		require.Equal(t, 1, corner)
		require.Equal(t, VertexIndex(3), index)
	})

	t.Run("faces without vertices", func(t *testing.T) {
		m := NewMesh(nil, [][3]uint32{{0, 0, 0}})

		_, _, _, ok := m.InvalidCorner()
		require.True(t, ok)
	})
}

func TestRayAt(t *testing.T) {
	r := Ray{
		Origin:    r3.Vector{X: 1, Y: 10, Z: 1},
		Direction: r3.Vector{X: 0, Y: -2, Z: 0},
	}
	require.Equal(t, r3.Vector{X: 1, Y: 4, Z: 1}, r.At(3))
}
