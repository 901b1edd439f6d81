// Package smoketest checks on demand that collision queries behave as
// expected, using a small known level that never touches the active mesh.
package smoketest

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/golang/geo/r3"
	"github.com/levelkit/groundd/collision"
	"github.com/levelkit/groundd/models"
	"github.com/segmentio/encoding/json"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"

	tolerance = 1e-6
)

type Options struct {
	// The grid configuration used to index the smoke test level.
	// collision.DefaultConfig is used when zero.
	Config collision.Config

	// Called with the results of each run. Optional.
	SendResult func(context.Context, Results) error
}

// Results is the outcome of a smoke test run.
type Results struct {
	Status          string  `json:"status"`
	LatencyMilliSec float64 `json:"latency_ms"`
	Checks          []Check `json:"checks"`
}

// Check is a single query of the smoke test.
type Check struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Expected string `json:"expected"`
	Got      string `json:"got"`
}

// HandleSmokeTest runs the smoke test and responds with its results. The
// response status is 500 when a check fails.
func HandleSmokeTest(ctx context.Context, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := Run(opts.Config)
		if err != nil {
			logs.Warn(err)
		}

		if opts.SendResult != nil {
			if err := opts.SendResult(ctx, res); err != nil {
				logs.Warn(errors.New("sending smoke test result failed").Wrap(err))
			}
		}

		status := http.StatusOK
		if res.Status != StatusSuccess {
			status = http.StatusInternalServerError
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(res)
	}
}

// Run indexes a flat triangle at height 50 with a second one at height 80
// directly above it, then checks the downward and picking queries against
// them.
func Run(conf collision.Config) (Results, error) {
	start := time.Now()
	res := Results{Status: StatusFailed}

	if conf == (collision.Config{}) {
		conf = collision.DefaultConfig()
	}

	lower, err := collision.New(flatTriangles(50), conf)
	if err != nil {
		return res, errors.New("indexing smoke test level failed").Wrap(err)
	}

	upper, err := collision.New(flatTriangles(50, 80), conf)
	if err != nil {
		return res, errors.New("indexing smoke test level failed").Wrap(err)
	}

	height, ok := lower.HeightBelow(100, 100)
	res.Checks = append(res.Checks, checkHeight("height below flat triangle", 50, true, height, ok))

	height, ok = lower.HeightBelow(-500, -500)
	res.Checks = append(res.Checks, checkHeight("height outside of triangle", 0, false, height, ok))

	height, ok = upper.HeightBelow(100, 100)
	res.Checks = append(res.Checks, checkHeight("height below stacked triangles", 80, true, height, ok))

	hit, ok := upper.Raycast(models.Ray{
		Origin:    r3.Vector{X: 100, Y: 1000, Z: 100},
		Direction: r3.Vector{X: 0, Y: -1, Z: 0},
	})
	res.Checks = append(res.Checks, checkHeight("ray onto stacked triangles", 80, true, hit.Point.Y, ok))

	res.LatencyMilliSec = float64(time.Since(start).Microseconds()) / 1000

	failed := 0
	for _, c := range res.Checks {
		if !c.Passed {
			failed++
		}
	}
	if failed != 0 {
		return res, errors.New("smoke test failed").WithTag("failed_checks", failed)
	}

	res.Status = StatusSuccess
	return res, nil
}

func flatTriangles(heights ...float64) models.Mesh {
	var m models.Mesh
	for _, h := range heights {
		i := models.VertexIndex(len(m.Vertices))
		m.Vertices = append(m.Vertices,
			models.Vertex{X: 0, Y: h, Z: 0},
			models.Vertex{X: 1000, Y: h, Z: 0},
			models.Vertex{X: 0, Y: h, Z: 1000},
		)
		m.Faces = append(m.Faces, models.Face{V0: i, V1: i + 1, V2: i + 2})
	}
	return m
}

func checkHeight(name string, expected float64, expectHit bool, got float64, hit bool) Check {
	return Check{
		Name:     name,
		Passed:   hit == expectHit && (!hit || math.Abs(got-expected) <= tolerance),
		Expected: formatHeight(expected, expectHit),
		Got:      formatHeight(got, hit),
	}
}

func formatHeight(h float64, hit bool) string {
	if !hit {
		return "none"
	}
	return fmt.Sprintf("%g", h)
}
