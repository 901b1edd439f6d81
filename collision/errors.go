package collision

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
)

const (
	// ErrTypeMalformedMesh is the type of errors returned when a mesh face
	// references a vertex that does not exist. No index is built.
	ErrTypeMalformedMesh = "malformed_mesh"

	// ErrTypeInvalidConfig is the type of errors returned when a grid
	// configuration is unusable.
	ErrTypeInvalidConfig = "invalid_collision_config"

	// ErrTypeNoMesh is the type of errors returned when collision geometry is
	// required but none was loaded.
	ErrTypeNoMesh = "no_collision_mesh"
)

// IsMalformedMesh reports whether err was caused by a malformed mesh.
func IsMalformedMesh(err error) bool {
	return errors.IsType(err, ErrTypeMalformedMesh)
}

// ErrNoMesh returns the error reported when no collision mesh is loaded.
func ErrNoMesh() error {
	return errors.New("no collision mesh loaded").WithType(ErrTypeNoMesh)
}
