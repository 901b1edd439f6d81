package collision

import (
	"time"

	"github.com/google/uuid"
	"github.com/levelkit/groundd/models"
)

// Collision is the collision geometry of a level: a mesh and the spatial index
// built from it. It is immutable and can be queried concurrently.
type Collision struct {
	// A unique identifier generated for each built collision.
	ID string

	Mesh  models.Mesh
	Index *SpatialIndex

	// The time spent building the index.
	BuildDuration time.Duration
}

// New indexes the given mesh. Nothing is returned if the mesh is malformed.
func New(m models.Mesh, conf Config) (*Collision, error) {
	start := time.Now()

	idx, err := BuildIndex(m, conf)
	if err != nil {
		return nil, err
	}
	duration := time.Since(start)
	instrumentIndexBuild(duration)

	return &Collision{
		ID:            uuid.NewString(),
		Mesh:          m,
		Index:         idx,
		BuildDuration: duration,
	}, nil
}

// HeightBelow returns the height of the topmost surface under (x, z).
func (c *Collision) HeightBelow(x, z float64) (float64, bool) {
	return c.HeightBelowFrom(x, z, DefaultStartHeight)
}

// HeightBelowFrom casts a downward ray from startHeight at (x, z). The
// topmost surface under the point is returned even when it lies above
// startHeight: the start height only places the ray origin.
func (c *Collision) HeightBelowFrom(x, z, startHeight float64) (float64, bool) {
	height, ok := c.Index.HeightBelow(x, z)
	instrumentQuery(heightQuery, ok)
	return height, ok
}

// HeightBelowCeiling returns the height of the topmost surface under (x, z)
// that is not above ceiling.
func (c *Collision) HeightBelowCeiling(x, z, ceiling float64) (float64, bool) {
	height, ok := c.Index.HeightBelowCeiling(x, z, ceiling)
	instrumentQuery(heightQuery, ok)
	return height, ok
}

// GroundPoint is a position on the ground plane.
type GroundPoint struct {
	X float64 `json:"x" msgpack:"x"`
	Z float64 `json:"z" msgpack:"z"`
}

// HeightResult is the outcome of a downward query.
type HeightResult struct {
	Hit    bool    `json:"hit"`
	Height float64 `json:"height"`
}

// HeightsBelow runs a downward query from startHeight for each point. Results
// are in the same order as points.
func (c *Collision) HeightsBelow(points []GroundPoint, startHeight float64) []HeightResult {
	return heightsBelow(points, func(x, z float64) (float64, bool) {
		return c.HeightBelowFrom(x, z, startHeight)
	})
}

// HeightsBelowCeiling runs HeightBelowCeiling for each point. Results are in
// the same order as points.
func (c *Collision) HeightsBelowCeiling(points []GroundPoint, ceiling float64) []HeightResult {
	return heightsBelow(points, func(x, z float64) (float64, bool) {
		return c.HeightBelowCeiling(x, z, ceiling)
	})
}

func heightsBelow(points []GroundPoint, query func(x, z float64) (float64, bool)) []HeightResult {
	results := make([]HeightResult, len(points))
	for i, p := range points {
		results[i].Height, results[i].Hit = query(p.X, p.Z)
	}
	return results
}

// Raycast returns the nearest intersection of the ray with the mesh. Every
// triangle is tested: picking is far less frequent than downward queries and
// must also see geometry outside of the indexed plane.
func (c *Collision) Raycast(r models.Ray) (models.Hit, bool) {
	hit, ok := RaycastMesh(c.Mesh, r)
	instrumentQuery(rayQuery, ok)
	return hit, ok
}

// RaycastIndexed returns the nearest intersection of the ray with the
// triangles of the indexed plane, walking the grid instead of scanning the
// whole mesh.
func (c *Collision) RaycastIndexed(r models.Ray) (models.Hit, bool) {
	hit, ok := c.Index.Raycast(r)
	instrumentQuery(indexedRayQuery, ok)
	return hit, ok
}

// RaycastOrPlane returns the nearest intersection of the ray with the mesh or,
// when the mesh is missed, with the horizontal plane at planeHeight.
func (c *Collision) RaycastOrPlane(r models.Ray, planeHeight float64) (models.Hit, bool) {
	if hit, ok := c.Raycast(r); ok {
		return hit, true
	}
	return IntersectGroundPlane(r, planeHeight)
}
