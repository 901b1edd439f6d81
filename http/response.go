package http

import (
	"net/http"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/levelkit/groundd/collision"
	"github.com/levelkit/groundd/meshfile"
	"github.com/segmentio/encoding/json"
)

const (
	ErrTypeBadRequest = "bad_request"
	ErrTypeDisabled   = "feature_disabled"
)

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		logs.Warn(errors.New("writing response failed").Wrap(err))
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errorStatus(err), errorResponse{
		Error: errorBody{
			Type:    errors.Type(err),
			Message: err.Error(),
		},
	})
}

func errorStatus(err error) int {
	switch errors.Type(err) {
	case ErrTypeBadRequest,
		collision.ErrTypeMalformedMesh,
		meshfile.ErrTypeDecode:
		return http.StatusBadRequest

	case meshfile.ErrTypeUnsupportedFormat:
		return http.StatusUnsupportedMediaType

	case ErrTypeDisabled:
		return http.StatusForbidden

	case collision.ErrTypeNoMesh:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

func badRequest(msg string, err error) error {
	e := errors.New(msg).WithType(ErrTypeBadRequest)
	if err != nil {
		return e.Wrap(err)
	}
	return e
}
