package models

import (
	"github.com/golang/geo/r3"
)

// Ray is a half line starting at Origin and following Direction. Direction
// does not need to be normalized.
type Ray struct {
	Origin    r3.Vector
	Direction r3.Vector
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float64) r3.Vector {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Hit is the nearest intersection of a ray with some geometry.
type Hit struct {
	Point r3.Vector

	// The distance between the ray origin and Point.
	Distance float64
}
