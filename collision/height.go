package collision

import "math"

// HeightBelow returns the height of the topmost surface found under the point
// (x, z). ok is false when nothing is below the point or when the point is
// outside of the indexed plane.
//
// Only the triangles registered in the cell containing the point are tested.
// Degenerate triangles and triangles parallel to the vertical are skipped and
// points lying on a triangle edge count as inside the triangle.
func (idx *SpatialIndex) HeightBelow(x, z float64) (height float64, ok bool) {
	return idx.HeightBelowCeiling(x, z, math.Inf(1))
}

// HeightBelowCeiling is like HeightBelow but ignores surfaces above ceiling,
// which finds the floor under a bridge or inside a building.
func (idx *SpatialIndex) HeightBelowCeiling(x, z, ceiling float64) (height float64, ok bool) {
	key, inPlane := idx.CellOf(x, z)
	if !inPlane {
		return 0, false
	}

	candidates, found := idx.cells[key]
	if !found {
		return 0, false
	}

	for _, candidate := range candidates {
		a, b, c := idx.triangle(candidate.Face)

		h, hit := verticalHit(a, b, c, x, z)
		if !hit || h > ceiling {
			continue
		}

		if !ok || h > height {
			height = h
			ok = true
		}
	}
	return height, ok
}
