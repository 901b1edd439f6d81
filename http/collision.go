package http

import (
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/golang/geo/r3"
	"github.com/levelkit/groundd/collision"
	"github.com/levelkit/groundd/featureflag"
	"github.com/levelkit/groundd/meshfile"
	"github.com/levelkit/groundd/models"
	"github.com/segmentio/encoding/json"
)

// CollisionHandler exposes the collision queries of a store over HTTP.
type CollisionHandler struct {
	Store        *collision.Store
	FeatureFlags featureflag.FeatureFlag

	// The height downward queries start from when the request does not give
	// one. collision.DefaultStartHeight is used when zero.
	StartHeight float64

	// The maximum size of an uploaded mesh. No limit is applied when zero.
	MaxMeshBytes int64
}

// Register adds the collision routes to the given mux.
func (h *CollisionHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("PUT /mesh", h.HandleMesh)
	mux.HandleFunc("GET /height", h.HandleHeight)
	mux.HandleFunc("POST /heights", h.HandleHeights)
	mux.HandleFunc("POST /raycast", h.HandleRaycast)
	mux.HandleFunc("GET /grid", h.HandleGrid)
}

type meshResponse struct {
	ID       string `json:"id"`
	Vertices int    `json:"vertices"`
	Faces    int    `json:"faces"`
	Cells    int    `json:"cells"`
}

// HandleMesh replaces the active collision with the mesh in the request body.
func (h *CollisionHandler) HandleMesh(w http.ResponseWriter, r *http.Request) {
	if h.FeatureFlags.IsSet(featureflag.FlagDisableMeshUpload) {
		writeError(w, errors.New("mesh upload is disabled").WithType(ErrTypeDisabled))
		return
	}

	format, err := meshfile.FormatFromContentType(r.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, err)
		return
	}

	var body io.Reader = r.Body
	if h.MaxMeshBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.MaxMeshBytes)
	}

	container, err := meshfile.Decode(body, format)
	if err != nil {
		writeError(w, err)
		return
	}

	c, err := h.Store.Load(container.Mesh())
	if err != nil {
		logs.Warn(errors.New("loading uploaded mesh failed").Wrap(err))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meshResponse{
		ID:       c.ID,
		Vertices: len(c.Mesh.Vertices),
		Faces:    len(c.Mesh.Faces),
		Cells:    c.Index.DebugInfo().OccupiedCells,
	})
}

type heightResponse struct {
	ID     string  `json:"id"`
	Hit    bool    `json:"hit"`
	Height float64 `json:"height"`
}

// HandleHeight answers a single downward query given by the x, z and optional
// y query parameters. y is the height the ray starts from. When the ceiling
// parameter is given, surfaces above it are ignored.
func (h *CollisionHandler) HandleHeight(w http.ResponseWriter, r *http.Request) {
	c, ok := h.Store.Current()
	if !ok {
		writeError(w, collision.ErrNoMesh())
		return
	}

	query := r.URL.Query()

	x, err := parseCoordinate(query, "x", true)
	if err != nil {
		writeError(w, err)
		return
	}

	z, err := parseCoordinate(query, "z", true)
	if err != nil {
		writeError(w, err)
		return
	}

	y, err := parseCoordinate(query, "y", false)
	if err != nil {
		writeError(w, err)
		return
	}
	if !query.Has("y") {
		y = h.startHeight()
	}

	ceiling, err := parseCoordinate(query, "ceiling", false)
	if err != nil {
		writeError(w, err)
		return
	}

	var height float64
	var hit bool
	if query.Has("ceiling") {
		height, hit = c.HeightBelowCeiling(x, z, ceiling)
	} else {
		height, hit = c.HeightBelowFrom(x, z, y)
	}

	writeJSON(w, http.StatusOK, heightResponse{
		ID:     c.ID,
		Hit:    hit,
		Height: height,
	})
}

type heightsRequest struct {
	Points  []collision.GroundPoint `json:"points"`
	Y       *float64                `json:"y"`
	Ceiling *float64                `json:"ceiling"`
}

type heightsResponse struct {
	ID      string                   `json:"id"`
	Heights []collision.HeightResult `json:"heights"`
}

// HandleHeights answers a batch of downward queries, typically used to drop a
// selection of objects to the ground.
func (h *CollisionHandler) HandleHeights(w http.ResponseWriter, r *http.Request) {
	c, ok := h.Store.Current()
	if !ok {
		writeError(w, collision.ErrNoMesh())
		return
	}

	var req heightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, badRequest("decoding heights request failed", err))
		return
	}

	startHeight := h.startHeight()
	if req.Y != nil {
		startHeight = *req.Y
	}

	var heights []collision.HeightResult
	if req.Ceiling != nil {
		heights = c.HeightsBelowCeiling(req.Points, *req.Ceiling)
	} else {
		heights = c.HeightsBelow(req.Points, startHeight)
	}

	writeJSON(w, http.StatusOK, heightsResponse{
		ID:      c.ID,
		Heights: heights,
	})
}

type raycastRequest struct {
	Origin        [3]float64 `json:"origin"`
	Direction     [3]float64 `json:"direction"`
	PlaneFallback bool       `json:"plane_fallback"`
	PlaneHeight   float64    `json:"plane_height"`
}

type raycastResponse struct {
	ID       string      `json:"id"`
	Hit      bool        `json:"hit"`
	Point    *[3]float64 `json:"point,omitempty"`
	Distance float64     `json:"distance"`
}

// HandleRaycast returns the nearest intersection of a picking ray with the
// active collision. When plane_fallback is set, a ray missing the mesh is
// intersected with the horizontal plane at plane_height.
func (h *CollisionHandler) HandleRaycast(w http.ResponseWriter, r *http.Request) {
	c, ok := h.Store.Current()
	if !ok {
		writeError(w, collision.ErrNoMesh())
		return
	}

	var req raycastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, badRequest("decoding raycast request failed", err))
		return
	}

	ray := models.Ray{
		Origin:    vector(req.Origin),
		Direction: vector(req.Direction),
	}
	if ray.Direction == (r3.Vector{}) {
		writeError(w, badRequest("ray direction is zero", nil))
		return
	}

	raycast := c.Raycast
	if h.FeatureFlags.IsSet(featureflag.FlagIndexedRaycast) {
		raycast = c.RaycastIndexed
	}

	hit, ok := raycast(ray)
	if !ok && req.PlaneFallback {
		hit, ok = collision.IntersectGroundPlane(ray, req.PlaneHeight)
	}

	res := raycastResponse{
		ID:  c.ID,
		Hit: ok,
	}
	if ok {
		point := [3]float64{hit.Point.X, hit.Point.Y, hit.Point.Z}
		res.Point = &point
		res.Distance = hit.Distance
	}
	writeJSON(w, http.StatusOK, res)
}

type gridResponse struct {
	ID string `json:"id"`
	collision.DebugInfo
}

// HandleGrid reports how the active mesh is spread over the grid.
func (h *CollisionHandler) HandleGrid(w http.ResponseWriter, r *http.Request) {
	c, ok := h.Store.Current()
	if !ok {
		writeError(w, collision.ErrNoMesh())
		return
	}

	writeJSON(w, http.StatusOK, gridResponse{
		ID:        c.ID,
		DebugInfo: c.Index.DebugInfo(),
	})
}

func (h *CollisionHandler) startHeight() float64 {
	if h.StartHeight == 0 {
		return collision.DefaultStartHeight
	}
	return h.StartHeight
}

func parseCoordinate(query url.Values, name string, required bool) (float64, error) {
	values := query[name]
	if len(values) == 0 {
		if required {
			return 0, errors.New("missing query parameter").
				WithType(ErrTypeBadRequest).
				WithTag("param", name)
		}
		return 0, nil
	}

	v, err := strconv.ParseFloat(values[0], 64)
	if err != nil {
		return 0, badRequest("parsing query parameter failed", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("query parameter is not finite").
			WithType(ErrTypeBadRequest).
			WithTag("param", name)
	}
	return v, nil
}

func vector(v [3]float64) r3.Vector {
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}
}
