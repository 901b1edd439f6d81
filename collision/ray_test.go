package collision

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/levelkit/groundd/models"
	"github.com/stretchr/testify/require"
)

func downRay(x, y, z float64) models.Ray {
	return models.Ray{
		Origin:    r3.Vector{X: x, Y: y, Z: z},
		Direction: r3.Vector{X: 0, Y: -1, Z: 0},
	}
}

func TestIntersectTriangle(t *testing.T) {
	a := r3.Vector{X: 0, Y: 50, Z: 0}
	b := r3.Vector{X: 1024, Y: 50, Z: 0}
	c := r3.Vector{X: 0, Y: 50, Z: 1024}

	t.Run("hit", func(t *testing.T) {
		param, ok := IntersectTriangle(downRay(100, 1000, 100), a, b, c)
		require.True(t, ok)
		require.InDelta(t, 950, param, 1e-9)
	})

	t.Run("hit from below", func(t *testing.T) {
		r := models.Ray{
			Origin:    r3.Vector{X: 100, Y: 0, Z: 100},
			Direction: r3.Vector{X: 0, Y: 2, Z: 0},
		}
		param, ok := IntersectTriangle(r, a, b, c)
		require.True(t, ok)
		require.InDelta(t, 25, param, 1e-9)
	})

	t.Run("hit on an edge", func(t *testing.T) {
		_, ok := IntersectTriangle(downRay(512, 1000, 512), a, b, c)
		require.True(t, ok)

		_, ok = IntersectTriangle(downRay(0, 1000, 300), a, b, c)
		require.True(t, ok)
	})

	t.Run("triangle behind the ray", func(t *testing.T) {
		_, ok := IntersectTriangle(downRay(100, 10, 100), a, b, c)
		require.False(t, ok)
	})

	t.Run("ray outside of the triangle", func(t *testing.T) {
		_, ok := IntersectTriangle(downRay(600, 1000, 600), a, b, c)
		require.False(t, ok)
	})

	t.Run("ray parallel to the triangle", func(t *testing.T) {
		r := models.Ray{
			Origin:    r3.Vector{X: -100, Y: 50, Z: 100},
			Direction: r3.Vector{X: 1, Y: 0, Z: 0},
		}
		_, ok := IntersectTriangle(r, a, b, c)
		require.False(t, ok)
	})

	t.Run("zero direction", func(t *testing.T) {
		r := models.Ray{Origin: r3.Vector{X: 100, Y: 1000, Z: 100}}
		_, ok := IntersectTriangle(r, a, b, c)
		require.False(t, ok)
	})

	t.Run("degenerate triangle", func(t *testing.T) {
		_, ok := IntersectTriangle(downRay(100, 1000, 100), a, a, c)
		require.False(t, ok)

		mid := r3.Vector{X: 512, Y: 50, Z: 0}
		_, ok = IntersectTriangle(downRay(512, 1000, 0), a, mid, b)
		require.False(t, ok)
	})
}

func TestRaycast(t *testing.T) {
	t.Run("nearest surface wins", func(t *testing.T) {
		c := newTestCollision(t, scenarioMesh(50, 80))

		hit, ok := c.Raycast(downRay(100, 1000, 100))
		require.True(t, ok)
		require.InDelta(t, 80, hit.Point.Y, 1e-9)
		require.InDelta(t, 100, hit.Point.X, 1e-9)
		require.InDelta(t, 100, hit.Point.Z, 1e-9)
		require.InDelta(t, 920, hit.Distance, 1e-9)

		// From below, the lower surface is the nearest.
		hit, ok = c.Raycast(models.Ray{
			Origin:    r3.Vector{X: 100, Y: 0, Z: 100},
			Direction: r3.Vector{X: 0, Y: 1, Z: 0},
		})
		require.True(t, ok)
		require.InDelta(t, 50, hit.Point.Y, 1e-9)
	})

	t.Run("oblique ray", func(t *testing.T) {
		c := newTestCollision(t, scenarioMesh(50, 80))

		hit, ok := c.Raycast(models.Ray{
			Origin:    r3.Vector{X: 100, Y: 200, Z: 100},
			Direction: r3.Vector{X: 1, Y: -1, Z: 0},
		})
		require.True(t, ok)
		require.InDelta(t, 220, hit.Point.X, 1e-9)
		require.InDelta(t, 80, hit.Point.Y, 1e-9)
		require.InDelta(t, 100, hit.Point.Z, 1e-9)
		require.InDelta(t, 120*math.Sqrt2, hit.Distance, 1e-9)
	})

	t.Run("miss", func(t *testing.T) {
		c := newTestCollision(t, scenarioMesh(50, 80))

		_, ok := c.Raycast(downRay(-500, 1000, -500))
		require.False(t, ok)

		_, ok = c.Raycast(models.Ray{
			Origin:    r3.Vector{X: 100, Y: 1000, Z: 100},
			Direction: r3.Vector{X: 0, Y: 1, Z: 0},
		})
		require.False(t, ok)
	})

	t.Run("geometry outside of the indexed plane", func(t *testing.T) {
		m := models.Mesh{
			Vertices: []models.Vertex{
				{X: 30000, Y: 0, Z: 0},
				{X: 31000, Y: 0, Z: 0},
				{X: 30000, Y: 0, Z: 1000},
			},
			Faces: []models.Face{{V0: 0, V1: 1, V2: 2}},
		}
		c := newTestCollision(t, m)
		r := downRay(30100, 100, 100)

		hit, ok := c.Raycast(r)
		require.True(t, ok)
		require.InDelta(t, 0, hit.Point.Y, 1e-9)

		_, ok = c.RaycastIndexed(r)
		require.False(t, ok)
	})
}

func TestRaycastIndexed(t *testing.T) {
	t.Run("nearest surface wins", func(t *testing.T) {
		c := newTestCollision(t, scenarioMesh(50, 80))

		hit, ok := c.RaycastIndexed(downRay(100, 1000, 100))
		require.True(t, ok)
		require.InDelta(t, 80, hit.Point.Y, 1e-9)
		require.InDelta(t, 920, hit.Distance, 1e-9)
	})

	t.Run("ray entering the plane from outside", func(t *testing.T) {
		c := newTestCollision(t, scenarioMesh(50))

		hit, ok := c.RaycastIndexed(models.Ray{
			Origin:    r3.Vector{X: -30000, Y: 50 + 30100, Z: 100},
			Direction: r3.Vector{X: 1, Y: -1, Z: 0},
		})
		require.True(t, ok)
		require.InDelta(t, 100, hit.Point.X, 1e-6)
		require.InDelta(t, 50, hit.Point.Y, 1e-6)
	})

	t.Run("ray missing the plane", func(t *testing.T) {
		c := newTestCollision(t, scenarioMesh(50))

		_, ok := c.RaycastIndexed(models.Ray{
			Origin:    r3.Vector{X: -30000, Y: 100, Z: 100},
			Direction: r3.Vector{X: -1, Y: -1, Z: 0},
		})
		require.False(t, ok)

		_, ok = c.RaycastIndexed(downRay(-30000, 100, 100))
		require.False(t, ok)
	})

	t.Run("agrees with a full scan", func(t *testing.T) {
		c := newTestCollision(t, heightfieldMesh(30, 250, 3))
		rnd := rand.New(rand.NewSource(11))

		var hits int
		for i := 0; i < 500; i++ {
			r := models.Ray{
				Origin: r3.Vector{
					X: (rnd.Float64() - 0.5) * 6000,
					Y: 1000,
					Z: (rnd.Float64() - 0.5) * 6000,
				},
				Direction: r3.Vector{
					X: (rnd.Float64() - 0.5) * 2,
					Y: -rnd.Float64() - 0.1,
					Z: (rnd.Float64() - 0.5) * 2,
				},
			}
			if i%10 == 0 {
				r.Direction.X, r.Direction.Z = 0, 0
			}
			if i%25 == 0 {
				r.Direction.Y = -r.Direction.Y
			}

			expected, expectedOK := c.Raycast(r)
			hit, ok := c.RaycastIndexed(r)
			require.Equal(t, expectedOK, ok, "ray %d", i)
			if ok {
				hits++
				require.InDelta(t, expected.Distance, hit.Distance, 1e-6, "ray %d", i)
			}
		}
		require.NotZero(t, hits)
	})
}

func TestIntersectGroundPlane(t *testing.T) {
	hit, ok := IntersectGroundPlane(models.Ray{
		Origin:    r3.Vector{X: 0, Y: 10, Z: 0},
		Direction: r3.Vector{X: 1, Y: -1, Z: 0},
	}, 0)
	require.True(t, ok)
	require.Equal(t, r3.Vector{X: 10, Y: 0, Z: 0}, hit.Point)
	require.InDelta(t, 10*math.Sqrt2, hit.Distance, 1e-9)

	_, ok = IntersectGroundPlane(models.Ray{
		Origin:    r3.Vector{X: 0, Y: 10, Z: 0},
		Direction: r3.Vector{X: 1, Y: 0, Z: 0},
	}, 0)
	require.False(t, ok)

	_, ok = IntersectGroundPlane(models.Ray{
		Origin:    r3.Vector{X: 0, Y: 10, Z: 0},
		Direction: r3.Vector{X: 0, Y: 1, Z: 0},
	}, 0)
	require.False(t, ok)
}

func TestRaycastOrPlane(t *testing.T) {
	c := newTestCollision(t, scenarioMesh(50))

	hit, ok := c.RaycastOrPlane(downRay(100, 1000, 100), -10)
	require.True(t, ok)
	require.InDelta(t, 50, hit.Point.Y, 1e-9)

	hit, ok = c.RaycastOrPlane(downRay(-500, 1000, -500), -10)
	require.True(t, ok)
	require.Equal(t, r3.Vector{X: -500, Y: -10, Z: -500}, hit.Point)
	require.InDelta(t, 1010, hit.Distance, 1e-9)
}
