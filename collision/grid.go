package collision

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/golang/geo/r3"
	"github.com/levelkit/groundd/models"
)

// Spatial Index
//
// A uniform grid laid over a bounded plane centered on the origin. Every cell
// holds the triangles whose XZ bounding box overlaps it:
//  - a triangle straddling several cells is listed in each of them,
//  - cell contents are a broad phase superset, queries still run exact tests,
//  - geometry outside of the plane is never indexed.
//
// The grid is filled once by recursively splitting the cell range in four
// quadrants and pushing each triangle down the quadrants it overlaps.

// CellKey is the integer coordinate of a grid cell.
type CellKey struct {
	X int
	Z int
}

// Candidate is a triangle registered in a grid cell.
type Candidate struct {
	Index uint32
	Face  models.Face
}

// SpatialIndex maps grid cells to the triangles that may intersect them. It is
// read only once built and safe for concurrent queries.
type SpatialIndex struct {
	config   Config
	minX     float64
	minZ     float64
	colCount int
	rowCount int
	vertices []models.Vertex
	cells    map[CellKey][]Candidate

	triangleCount int
}

// BuildIndex bins the faces of the given mesh into a grid. It fails without
// building anything when a face references a vertex out of bounds. Degenerate
// triangles are indexed like any other.
func BuildIndex(m models.Mesh, conf Config) (*SpatialIndex, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	if face, corner, index, ok := m.InvalidCorner(); ok {
		return nil, errors.New("face references a vertex out of bounds").
			WithType(ErrTypeMalformedMesh).
			WithTag("face_index", face).
			WithTag("corner", corner).
			WithTag("vertex_index", index).
			WithTag("vertex_count", len(m.Vertices))
	}

	minX, colCount := conf.gridBounds(conf.HalfExtentX)
	minZ, rowCount := conf.gridBounds(conf.HalfExtentZ)

	idx := &SpatialIndex{
		config:        conf,
		minX:          minX,
		minZ:          minZ,
		colCount:      colCount,
		rowCount:      rowCount,
		vertices:      m.Vertices,
		cells:         make(map[CellKey][]Candidate),
		triangleCount: len(m.Faces),
	}

	triangles := make([]binnedTriangle, len(m.Faces))
	for i, f := range m.Faces {
		a, b, c := m.Triangle(f)
		triangles[i] = binnedTriangle{
			Candidate: Candidate{Index: uint32(i), Face: f},
			bounds:    triangleXZBounds(a, b, c),
		}
	}

	idx.subdivide(0, colCount, 0, rowCount, triangles)
	return idx, nil
}

type binnedTriangle struct {
	Candidate
	bounds xzBounds
}

type quadrant struct {
	startX int
	endX   int
	startZ int
	endZ   int
}

func (idx *SpatialIndex) subdivide(startX, endX, startZ, endZ int, triangles []binnedTriangle) {
	// Empty cells are never stored.
	if len(triangles) == 0 {
		return
	}

	if startX == endX-1 && startZ == endZ-1 {
		cell := make([]Candidate, len(triangles))
		for i, t := range triangles {
			cell[i] = t.Candidate
		}
		idx.cells[CellKey{X: startX, Z: startZ}] = cell
		return
	}

	halfX := (startX + endX) / 2
	halfZ := (startZ + endZ) / 2

	// x->
	// 2 3 ^
	// 0 1 z
	quadrants := [4]quadrant{
		{startX: startX, endX: halfX, startZ: startZ, endZ: halfZ},
		{startX: halfX, endX: endX, startZ: startZ, endZ: halfZ},
		{startX: startX, endX: halfX, startZ: halfZ, endZ: endZ},
		{startX: halfX, endX: endX, startZ: halfZ, endZ: endZ},
	}

	var skip [4]bool
	if startX == halfX {
		skip[0], skip[2] = true, true
	}
	if halfX == endX {
		skip[1], skip[3] = true, true
	}
	if startZ == halfZ {
		skip[0], skip[1] = true, true
	}
	if halfZ == endZ {
		skip[2], skip[3] = true, true
	}

	for i, q := range quadrants {
		if skip[i] {
			continue
		}

		minX := idx.minX + float64(q.startX)*idx.config.CellSize
		maxX := idx.minX + float64(q.endX)*idx.config.CellSize
		minZ := idx.minZ + float64(q.startZ)*idx.config.CellSize
		maxZ := idx.minZ + float64(q.endZ)*idx.config.CellSize

		var overlapping []binnedTriangle
		for _, t := range triangles {
			if t.bounds.overlaps(minX, maxX, minZ, maxZ) {
				overlapping = append(overlapping, t)
			}
		}

		idx.subdivide(q.startX, q.endX, q.startZ, q.endZ, overlapping)
	}
}

// Config returns the configuration the index was built with.
func (idx *SpatialIndex) Config() Config {
	return idx.config
}

// CellOf returns the coordinate of the cell containing (x, z). ok is false when
// the point is outside of the indexed plane.
func (idx *SpatialIndex) CellOf(x, z float64) (key CellKey, ok bool) {
	cellX := math.Floor((x - idx.minX) / idx.config.CellSize)
	cellZ := math.Floor((z - idx.minZ) / idx.config.CellSize)

	// Written this way so that NaN coordinates are rejected.
	if !(cellX >= 0 && cellX < float64(idx.colCount)) ||
		!(cellZ >= 0 && cellZ < float64(idx.rowCount)) {
		return CellKey{}, false
	}
	return CellKey{X: int(cellX), Z: int(cellZ)}, true
}

// Cell returns the triangles registered in the given cell. The returned slice
// must not be modified.
func (idx *SpatialIndex) Cell(key CellKey) ([]Candidate, bool) {
	cell, ok := idx.cells[key]
	return cell, ok
}

func (idx *SpatialIndex) triangle(f models.Face) (r3.Vector, r3.Vector, r3.Vector) {
	return idx.vertices[f.V0].Vec(), idx.vertices[f.V1].Vec(), idx.vertices[f.V2].Vec()
}

// DebugInfo summarizes how triangles are spread across the grid.
type DebugInfo struct {
	CellSize       float64 `json:"cell_size"`
	ColCount       int     `json:"col_count"`
	RowCount       int     `json:"row_count"`
	MinX           float64 `json:"min_x"`
	MinZ           float64 `json:"min_z"`
	TriangleCount  int     `json:"triangle_count"`
	OccupiedCells  int     `json:"occupied_cells"`
	CandidateCount int     `json:"candidate_count"`
	MaxCandidates  int     `json:"max_candidates"`
}

func (idx *SpatialIndex) DebugInfo() DebugInfo {
	info := DebugInfo{
		CellSize:      idx.config.CellSize,
		ColCount:      idx.colCount,
		RowCount:      idx.rowCount,
		MinX:          idx.minX,
		MinZ:          idx.minZ,
		TriangleCount: idx.triangleCount,
		OccupiedCells: len(idx.cells),
	}

	for _, cell := range idx.cells {
		info.CandidateCount += len(cell)
		if len(cell) > info.MaxCandidates {
			info.MaxCandidates = len(cell)
		}
	}
	return info
}
