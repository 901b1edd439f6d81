package collision

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/levelkit/groundd/models"
)

// Axis aligned bounds of a triangle projected on the XZ plane.
type xzBounds struct {
	minX float64
	maxX float64
	minZ float64
	maxZ float64
}

func triangleXZBounds(a, b, c r3.Vector) xzBounds {
	return xzBounds{
		minX: math.Min(a.X, math.Min(b.X, c.X)),
		maxX: math.Max(a.X, math.Max(b.X, c.X)),
		minZ: math.Min(a.Z, math.Min(b.Z, c.Z)),
		maxZ: math.Max(a.Z, math.Max(b.Z, c.Z)),
	}
}

// Broad phase test: touching boxes overlap.
func (b xzBounds) overlaps(minX, maxX, minZ, maxZ float64) bool {
	if b.maxX < minX || b.minX > maxX {
		return false
	}
	if b.maxZ < minZ || b.minZ > maxZ {
		return false
	}
	return true
}

// faceNormal returns the non normalized normal of the triangle abc. It is the
// zero vector when the triangle is degenerate.
func faceNormal(a, b, c r3.Vector) r3.Vector {
	return b.Sub(a).Cross(c.Sub(a))
}

func isZero(v r3.Vector) bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// edgeSide returns twice the signed area of the XZ projection of the triangle
// formed by the edge ab and the point (x, z). Endpoints are put in a fixed
// order first, so two triangles sharing an edge compute exactly opposite
// values and a point on the edge is inside at least one of them.
func edgeSide(a, b r3.Vector, x, z float64) float64 {
	if b.X < a.X || (b.X == a.X && b.Z < a.Z) {
		return -orient(b, a, x, z)
	}
	return orient(a, b, x, z)
}

func orient(a, b r3.Vector, x, z float64) float64 {
	return (b.X-a.X)*(z-a.Z) - (b.Z-a.Z)*(x-a.X)
}

// verticalHit intersects the vertical line at (x, z) with the triangle abc and
// returns the height of the intersection. Points on an edge are inside.
func verticalHit(a, b, c r3.Vector, x, z float64) (float64, bool) {
	normal := faceNormal(a, b, c)
	if isZero(normal) {
		return 0, false
	}

	// The triangle is parallel to the ray.
	if normal.Y == 0 {
		return 0, false
	}

	// The projected winding is the opposite of the sign of normal.Y.
	inside := func(side float64) bool {
		if normal.Y < 0 {
			return side >= 0
		}
		return side <= 0
	}
	if !inside(edgeSide(a, b, x, z)) ||
		!inside(edgeSide(b, c, x, z)) ||
		!inside(edgeSide(c, a, x, z)) {
		return 0, false
	}

	return a.Y - (normal.X*(x-a.X)+normal.Z*(z-a.Z))/normal.Y, true
}

// IntersectTriangle intersects a ray with the triangle abc. It returns the ray
// parameter of the hit, which is always strictly positive. Edges are part of
// the triangle. Degenerate triangles and triangles parallel to the ray are
// never hit.
func IntersectTriangle(r models.Ray, a, b, c r3.Vector) (float64, bool) {
	edge1 := b.Sub(a)
	edge2 := c.Sub(a)
	if isZero(edge1.Cross(edge2)) {
		return 0, false
	}

	pvec := r.Direction.Cross(edge2)
	det := edge1.Dot(pvec)
	if det == 0 {
		return 0, false
	}
	invDet := 1 / det

	tvec := r.Origin.Sub(a)
	u := tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return 0, false
	}

	qvec := tvec.Cross(edge1)
	v := r.Direction.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := edge2.Dot(qvec) * invDet
	if !(t > 0) {
		return 0, false
	}
	return t, true
}

// IntersectGroundPlane intersects a ray with the horizontal plane at the given
// height.
func IntersectGroundPlane(r models.Ray, height float64) (models.Hit, bool) {
	if r.Direction.Y == 0 {
		return models.Hit{}, false
	}

	t := (height - r.Origin.Y) / r.Direction.Y
	if !(t > 0) {
		return models.Hit{}, false
	}

	point := r.At(t)
	point.Y = height
	return models.Hit{
		Point:    point,
		Distance: t * r.Direction.Norm(),
	}, true
}
