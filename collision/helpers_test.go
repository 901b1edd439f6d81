package collision

import (
	"math/rand"
	"testing"

	"github.com/levelkit/groundd/models"
	"github.com/stretchr/testify/require"
)

// scenarioMesh returns one triangle (0,h,0) (1000,h,0) (0,h,1000) per height.
func scenarioMesh(heights ...float64) models.Mesh {
	var m models.Mesh
	for _, h := range heights {
		i := models.VertexIndex(len(m.Vertices))
		m.Vertices = append(m.Vertices,
			models.Vertex{X: 0, Y: h, Z: 0},
			models.Vertex{X: 1000, Y: h, Z: 0},
			models.Vertex{X: 0, Y: h, Z: 1000},
		)
		m.Faces = append(m.Faces, models.Face{V0: i, V1: i + 1, V2: i + 2})
	}
	return m
}

// heightfieldMesh returns a terrain of n x n quads of the given size centered
// on the origin, each quad split in two triangles, with random heights.
func heightfieldMesh(n int, step float64, seed int64) models.Mesh {
	rnd := rand.New(rand.NewSource(seed))
	origin := -float64(n) * step / 2

	var m models.Mesh
	for row := 0; row <= n; row++ {
		for col := 0; col <= n; col++ {
			m.Vertices = append(m.Vertices, models.Vertex{
				X: origin + float64(col)*step,
				Y: rnd.Float64() * 500,
				Z: origin + float64(row)*step,
			})
		}
	}

	vertex := func(row, col int) models.VertexIndex {
		return models.VertexIndex(row*(n+1) + col)
	}

	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			v00 := vertex(row, col)
			v01 := vertex(row, col+1)
			v10 := vertex(row+1, col)
			v11 := vertex(row+1, col+1)

			m.Faces = append(m.Faces,
				models.Face{V0: v00, V1: v01, V2: v11},
				models.Face{V0: v00, V1: v11, V2: v10},
			)
		}
	}
	return m
}

func newTestCollision(t *testing.T, m models.Mesh) *Collision {
	c, err := New(m, DefaultConfig())
	require.NoError(t, err)
	return c
}
