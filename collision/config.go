package collision

import (
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

const (
	// DefaultHalfExtent is the half size of the indexed plane on both axes.
	DefaultHalfExtent = 20000

	// DefaultCellSize is the width of a grid cell in world units.
	DefaultCellSize = 100

	// DefaultStartHeight is the height downward rays are cast from when the
	// caller does not give one. It sits above any level geometry.
	DefaultStartHeight = 99999
)

// Config describes the bounded plane covered by a spatial index.
type Config struct {
	// Half size of the indexed plane along X. The plane spans
	// [-HalfExtentX, HalfExtentX].
	HalfExtentX float64

	// Half size of the indexed plane along Z.
	HalfExtentZ float64

	// Width of a square grid cell.
	CellSize float64
}

// DefaultConfig returns the configuration for a 40000x40000 plane centered on
// the origin and cut in 100x100 cells.
func DefaultConfig() Config {
	return Config{
		HalfExtentX: DefaultHalfExtent,
		HalfExtentZ: DefaultHalfExtent,
		CellSize:    DefaultCellSize,
	}
}

// Validate returns an error when the configuration can't describe a grid.
func (c Config) Validate() error {
	if !(c.CellSize > 0) || math.IsInf(c.CellSize, 0) {
		return errors.New("cell size must be a positive number").
			WithType(ErrTypeInvalidConfig).
			WithTag("cell_size", c.CellSize)
	}

	if !(c.HalfExtentX > 0) || math.IsInf(c.HalfExtentX, 0) ||
		!(c.HalfExtentZ > 0) || math.IsInf(c.HalfExtentZ, 0) {
		return errors.New("half extents must be positive numbers").
			WithType(ErrTypeInvalidConfig).
			WithTag("half_extent_x", c.HalfExtentX).
			WithTag("half_extent_z", c.HalfExtentZ)
	}

	return nil
}

// gridBounds returns the cell aligned start of an axis and the number of
// cells needed to cover [-halfExtent, halfExtent].
func (c Config) gridBounds(halfExtent float64) (start float64, count int) {
	start = math.Floor(-halfExtent/c.CellSize) * c.CellSize
	end := math.Ceil(halfExtent/c.CellSize) * c.CellSize
	return start, int(math.Round((end - start) / c.CellSize))
}
