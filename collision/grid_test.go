package collision

import (
	"math"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/levelkit/groundd/models"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name string
		conf Config
	}{
		{
			name: "zero cell size",
			conf: Config{HalfExtentX: 10, HalfExtentZ: 10},
		},
		{
			name: "negative half extent",
			conf: Config{HalfExtentX: -10, HalfExtentZ: 10, CellSize: 1},
		},
		{
			name: "nan cell size",
			conf: Config{HalfExtentX: 10, HalfExtentZ: 10, CellSize: math.NaN()},
		},
		{
			name: "infinite half extent",
			conf: Config{HalfExtentX: 10, HalfExtentZ: math.Inf(1), CellSize: 1},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.conf.Validate()
			require.Error(t, err)
			require.True(t, errors.IsType(err, ErrTypeInvalidConfig))
		})
	}
}

func TestBuildIndex(t *testing.T) {
	t.Run("default grid covers a 400x400 cells plane", func(t *testing.T) {
		idx, err := BuildIndex(models.Mesh{}, DefaultConfig())
		require.NoError(t, err)

		info := idx.DebugInfo()
		require.Equal(t, 400, info.ColCount)
		require.Equal(t, 400, info.RowCount)
		require.Equal(t, float64(-20000), info.MinX)
		require.Equal(t, float64(-20000), info.MinZ)
		require.Zero(t, info.OccupiedCells)
	})

	t.Run("triangle is listed in every overlapped cell", func(t *testing.T) {
		idx, err := BuildIndex(scenarioMesh(50), DefaultConfig())
		require.NoError(t, err)

		// The triangle bounds [0, 1000] touch cells 199 to 210 on both axes.
		info := idx.DebugInfo()
		require.Equal(t, 144, info.OccupiedCells)
		require.Equal(t, 144, info.CandidateCount)
		require.Equal(t, 1, info.MaxCandidates)
		require.Equal(t, 1, info.TriangleCount)

		for x := 199; x <= 210; x++ {
			for z := 199; z <= 210; z++ {
				cell, ok := idx.Cell(CellKey{X: x, Z: z})
				require.True(t, ok)
				require.Equal(t, []Candidate{{Index: 0, Face: models.Face{V0: 0, V1: 1, V2: 2}}}, cell)
			}
		}

		_, ok := idx.Cell(CellKey{X: 198, Z: 200})
		require.False(t, ok)
		_, ok = idx.Cell(CellKey{X: 211, Z: 200})
		require.False(t, ok)
	})

	t.Run("overlapping triangles are kept in mesh order", func(t *testing.T) {
		idx, err := BuildIndex(scenarioMesh(50, 80), DefaultConfig())
		require.NoError(t, err)

		cell, ok := idx.Cell(CellKey{X: 201, Z: 201})
		require.True(t, ok)
		require.Len(t, cell, 2)
		require.Equal(t, uint32(0), cell[0].Index)
		require.Equal(t, uint32(1), cell[1].Index)
	})

	t.Run("geometry outside of the plane is not indexed", func(t *testing.T) {
		m := models.Mesh{
			Vertices: []models.Vertex{
				{X: 30000, Y: 0, Z: 0},
				{X: 31000, Y: 0, Z: 0},
				{X: 30000, Y: 0, Z: 1000},
			},
			Faces: []models.Face{{V0: 0, V1: 1, V2: 2}},
		}

		idx, err := BuildIndex(m, DefaultConfig())
		require.NoError(t, err)
		require.Zero(t, idx.DebugInfo().OccupiedCells)
	})

	t.Run("uneven splits reach every cell", func(t *testing.T) {
		conf := Config{HalfExtentX: 1.5, HalfExtentZ: 2.5, CellSize: 1}
		m := models.Mesh{
			Vertices: []models.Vertex{
				{X: -10, Y: 0, Z: -10},
				{X: 30, Y: 0, Z: -10},
				{X: -10, Y: 0, Z: 30},
			},
			Faces: []models.Face{{V0: 0, V1: 1, V2: 2}},
		}

		idx, err := BuildIndex(m, conf)
		require.NoError(t, err)

		info := idx.DebugInfo()
		require.Equal(t, 4, info.ColCount)
		require.Equal(t, 6, info.RowCount)
		require.Equal(t, 24, info.OccupiedCells)
	})

	t.Run("degenerate triangles are indexed", func(t *testing.T) {
		m := models.Mesh{
			Vertices: []models.Vertex{
				{X: 0, Y: 0, Z: 0},
				{X: 50, Y: 0, Z: 50},
				{X: 100, Y: 0, Z: 100},
			},
			Faces: []models.Face{{V0: 0, V1: 1, V2: 2}},
		}

		idx, err := BuildIndex(m, DefaultConfig())
		require.NoError(t, err)
		require.NotZero(t, idx.DebugInfo().OccupiedCells)
	})

	t.Run("malformed mesh", func(t *testing.T) {
		m := scenarioMesh(50)
		m.Faces = append(m.Faces, models.Face{V0: 0, V1: 1, V2: 5})

		idx, err := BuildIndex(m, DefaultConfig())
		require.Error(t, err)
		require.Nil(t, idx)
		require.True(t, IsMalformedMesh(err))
		require.Equal(t, ErrTypeMalformedMesh, errors.Type(err))
	})

	t.Run("invalid config", func(t *testing.T) {
		idx, err := BuildIndex(scenarioMesh(50), Config{})
		require.Error(t, err)
		require.Nil(t, idx)
		require.True(t, errors.IsType(err, ErrTypeInvalidConfig))
	})
}

func TestSpatialIndexCellOf(t *testing.T) {
	idx, err := BuildIndex(models.Mesh{}, DefaultConfig())
	require.NoError(t, err)

	tests := []struct {
		name string
		x    float64
		z    float64
		key  CellKey
		ok   bool
	}{
		{name: "origin", x: 0, z: 0, key: CellKey{X: 200, Z: 200}, ok: true},
		{name: "inside a cell", x: 100, z: 150, key: CellKey{X: 201, Z: 201}, ok: true},
		{name: "negative coordinates", x: -0.5, z: -150, key: CellKey{X: 199, Z: 198}, ok: true},
		{name: "lower plane corner", x: -20000, z: -20000, key: CellKey{X: 0, Z: 0}, ok: true},
		{name: "upper plane border", x: 20000, z: 0},
		{name: "just below the plane", x: -20000.5, z: 0},
		{name: "far away", x: 1e9, z: -1e9},
		{name: "nan", x: math.NaN(), z: 0},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			key, ok := idx.CellOf(test.x, test.z)
			require.Equal(t, test.ok, ok)
			if ok {
				require.Equal(t, test.key, key)
			}
		})
	}
}
