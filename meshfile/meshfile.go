// Package meshfile decodes the container mesh loaders use to hand collision
// geometry over: a vertex array and a face array, encoded as JSON or
// MessagePack.
package meshfile

import (
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/levelkit/groundd/models"
	"github.com/segmentio/encoding/json"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	ErrTypeUnsupportedFormat = "unsupported_mesh_format"
	ErrTypeDecode            = "mesh_decode_failed"
)

// Format is a container encoding.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
)

// Container is the serialized form of a collision mesh.
type Container struct {
	Vertices [][3]float64 `json:"vertices" msgpack:"vertices"`
	Faces    [][3]uint32  `json:"faces"    msgpack:"faces"`

	// When true, vertices are in the loader source axes and are converted
	// with models.FromSource.
	SourceAxes bool `json:"source_axes,omitempty" msgpack:"source_axes,omitempty"`
}

// Mesh returns the mesh described by the container.
func (c Container) Mesh() models.Mesh {
	m := models.NewMesh(c.Vertices, c.Faces)
	if c.SourceAxes {
		for i, v := range c.Vertices {
			m.Vertices[i] = models.FromSource(v[0], v[1], v[2])
		}
	}
	return m
}

// FormatFromContentType returns the format matching an HTTP content type.
func FormatFromContentType(contentType string) (Format, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", errors.New("invalid content type").
			WithType(ErrTypeUnsupportedFormat).
			WithTag("content_type", contentType).
			Wrap(err)
	}

	switch mediaType {
	case "application/json":
		return FormatJSON, nil

	case "application/msgpack", "application/x-msgpack", "application/vnd.msgpack":
		return FormatMsgpack, nil

	default:
		return "", errors.New("unsupported content type").
			WithType(ErrTypeUnsupportedFormat).
			WithTag("content_type", contentType)
	}
}

// FormatFromPath returns the format matching a file extension.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return FormatJSON, nil

	case ".msgpack", ".mpk":
		return FormatMsgpack, nil

	default:
		return "", errors.New("unsupported mesh file extension").
			WithType(ErrTypeUnsupportedFormat).
			WithTag("path", path).
			WithTag("extension", ext)
	}
}

// Decode reads a container from r.
func Decode(r io.Reader, f Format) (Container, error) {
	var c Container
	var err error

	switch f {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&c)

	case FormatMsgpack:
		err = msgpack.NewDecoder(r).Decode(&c)

	default:
		return Container{}, errors.New("unsupported mesh format").
			WithType(ErrTypeUnsupportedFormat).
			WithTag("format", f)
	}

	if err != nil {
		return Container{}, errors.New("decoding mesh failed").
			WithType(ErrTypeDecode).
			WithTag("format", f).
			Wrap(err)
	}
	return c, nil
}

// Encode writes a container to w.
func Encode(w io.Writer, c Container, f Format) error {
	switch f {
	case FormatJSON:
		return json.NewEncoder(w).Encode(c)

	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(c)

	default:
		return errors.New("unsupported mesh format").
			WithType(ErrTypeUnsupportedFormat).
			WithTag("format", f)
	}
}

// Load reads the mesh stored in the given file.
func Load(path string) (models.Mesh, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return models.Mesh{}, err
	}

	file, err := os.Open(path)
	if err != nil {
		return models.Mesh{}, errors.New("opening mesh file failed").
			WithTag("path", path).
			Wrap(err)
	}
	defer file.Close()

	c, err := Decode(file, f)
	if err != nil {
		return models.Mesh{}, err
	}
	return c.Mesh(), nil
}
