package collision

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	queryLabel  = "query"
	resultLabel = "result"

	heightQuery     = "height"
	rayQuery        = "ray"
	indexedRayQuery = "indexed_ray"
)

var (
	indexBuildLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "collision_index_build_seconds",
		Help:    "The time to build a spatial index from a collision mesh.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	indexTriangles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "collision_index_triangles",
		Help: "The number of triangles of the active collision mesh.",
	})

	indexCells = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "collision_index_cells",
		Help: "The number of occupied grid cells of the active spatial index.",
	})

	queries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collision_queries_total",
		Help: "The number of collision queries.",
	}, []string{
		queryLabel,
		resultLabel,
	})

	// Resolved once, queries run on every cursor move.
	queryCounters = map[string][2]prometheus.Counter{
		heightQuery:     queryCounterPair(heightQuery),
		rayQuery:        queryCounterPair(rayQuery),
		indexedRayQuery: queryCounterPair(indexedRayQuery),
	}
)

func queryCounterPair(query string) [2]prometheus.Counter {
	return [2]prometheus.Counter{
		queries.With(prometheus.Labels{queryLabel: query, resultLabel: "miss"}),
		queries.With(prometheus.Labels{queryLabel: query, resultLabel: "hit"}),
	}
}

func instrumentIndexBuild(d time.Duration) {
	indexBuildLatency.Observe(d.Seconds())
}

func instrumentActiveIndex(info DebugInfo) {
	indexTriangles.Set(float64(info.TriangleCount))
	indexCells.Set(float64(info.OccupiedCells))
}

func instrumentQuery(query string, hit bool) {
	counters := queryCounters[query]
	if hit {
		counters[1].Inc()
		return
	}
	counters[0].Inc()
}
