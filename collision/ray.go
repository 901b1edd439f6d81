package collision

import (
	"math"

	"github.com/levelkit/groundd/models"
)

// RaycastMesh returns the nearest intersection of the ray with the mesh by
// testing every triangle. The mesh must have valid face indices, as checked by
// BuildIndex. On equal distances the first face in mesh order wins.
func RaycastMesh(m models.Mesh, r models.Ray) (models.Hit, bool) {
	bestT := math.Inf(1)
	found := false

	for _, f := range m.Faces {
		a, b, c := m.Triangle(f)

		t, hit := IntersectTriangle(r, a, b, c)
		if hit && t < bestT {
			bestT = t
			found = true
		}
	}

	if !found {
		return models.Hit{}, false
	}
	return hitAt(r, bestT), true
}

func hitAt(r models.Ray, t float64) models.Hit {
	return models.Hit{
		Point:    r.At(t),
		Distance: t * r.Direction.Norm(),
	}
}

// Raycast returns the nearest intersection of the ray with the indexed
// triangles by walking the grid cells crossed by the ray projection on the XZ
// plane, nearest first. Geometry outside of the indexed plane is never hit.
func (idx *SpatialIndex) Raycast(r models.Ray) (models.Hit, bool) {
	bestT := math.Inf(1)
	found := false

	testCell := func(x, z int) {
		for _, candidate := range idx.cells[CellKey{X: x, Z: z}] {
			a, b, c := idx.triangle(candidate.Face)
			if t, hit := IntersectTriangle(r, a, b, c); hit && t < bestT {
				bestT = t
				found = true
			}
		}
	}

	dirX := r.Direction.X
	dirZ := r.Direction.Z

	// Vertical rays stay in a single cell.
	if dirX == 0 && dirZ == 0 {
		key, ok := idx.CellOf(r.Origin.X, r.Origin.Z)
		if !ok {
			return models.Hit{}, false
		}

		testCell(key.X, key.Z)
		if !found {
			return models.Hit{}, false
		}
		return hitAt(r, bestT), true
	}

	cellSize := idx.config.CellSize
	maxX := idx.minX + float64(idx.colCount)*cellSize
	maxZ := idx.minZ + float64(idx.rowCount)*cellSize

	tEnter, tExit := 0.0, math.Inf(1)
	if !clipSlab(r.Origin.X, dirX, idx.minX, maxX, &tEnter, &tExit) ||
		!clipSlab(r.Origin.Z, dirZ, idx.minZ, maxZ, &tEnter, &tExit) {
		return models.Hit{}, false
	}

	entry := r.At(tEnter)
	cellX := clampCell(math.Floor((entry.X-idx.minX)/cellSize), idx.colCount)
	cellZ := clampCell(math.Floor((entry.Z-idx.minZ)/cellSize), idx.rowCount)

	stepX, nextX, deltaX := walkAxis(r.Origin.X, dirX, idx.minX, cellSize, cellX)
	stepZ, nextZ, deltaZ := walkAxis(r.Origin.Z, dirZ, idx.minZ, cellSize, cellZ)

	for cellX >= 0 && cellX < idx.colCount && cellZ >= 0 && cellZ < idx.rowCount {
		testCell(cellX, cellZ)

		cellExit := math.Min(nextX, nextZ)
		if found && bestT <= cellExit {
			break
		}
		if cellExit > tExit {
			break
		}

		if nextX < nextZ {
			cellX += stepX
			nextX += deltaX
		} else {
			cellZ += stepZ
			nextZ += deltaZ
		}
	}

	if !found {
		return models.Hit{}, false
	}
	return hitAt(r, bestT), true
}

// clipSlab narrows [tEnter, tExit] to the ray parameters where the ray
// coordinate is within [min, max]. It returns false when the range is empty.
func clipSlab(origin, dir, min, max float64, tEnter, tExit *float64) bool {
	if dir == 0 {
		return origin >= min && origin <= max
	}

	t0 := (min - origin) / dir
	t1 := (max - origin) / dir
	if t0 > t1 {
		t0, t1 = t1, t0
	}

	*tEnter = math.Max(*tEnter, t0)
	*tExit = math.Min(*tExit, t1)
	return *tEnter <= *tExit
}

func clampCell(v float64, count int) int {
	if v < 0 {
		return 0
	}
	if v > float64(count-1) {
		return count - 1
	}
	return int(v)
}

// walkAxis returns the cell step along an axis, the ray parameter where the
// ray crosses the next cell boundary and the parameter span of a cell.
func walkAxis(origin, dir, min, cellSize float64, cell int) (step int, next float64, delta float64) {
	switch {
	case dir > 0:
		boundary := min + float64(cell+1)*cellSize
		return 1, (boundary - origin) / dir, cellSize / dir

	case dir < 0:
		boundary := min + float64(cell)*cellSize
		return -1, (boundary - origin) / dir, -cellSize / dir

	default:
		return 0, math.Inf(1), math.Inf(1)
	}
}
