package websocket

import (
	"net/http"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/net/websocket"
)

const (
	ErrTypeInvalidFrame = "invalid_cursor_frame"

	// The query parameter selecting how frames are encoded.
	FormatParam = "format"

	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// CursorRequest is a frame sent by the editor each time the cursor moves over
// the ground plane.
type CursorRequest struct {
	RequestID uint32   `json:"request_id,omitempty" msgpack:"request_id,omitempty"`
	X         float64  `json:"x"                    msgpack:"x"`
	Z         float64  `json:"z"                    msgpack:"z"`
	Y         *float64 `json:"y,omitempty"          msgpack:"y,omitempty"`

	// Surfaces above the ceiling are ignored when set.
	Ceiling *float64 `json:"ceiling,omitempty" msgpack:"ceiling,omitempty"`
}

// CursorResponse is the height found under a cursor position.
type CursorResponse struct {
	RequestID uint32  `json:"request_id,omitempty" msgpack:"request_id,omitempty"`
	ID        string  `json:"id"                   msgpack:"id"`
	Hit       bool    `json:"hit"                  msgpack:"hit"`
	Height    float64 `json:"height"               msgpack:"height"`
	Error     string  `json:"error,omitempty"      msgpack:"error,omitempty"`
}

// Receiver receives a cursor frame. It returns the number of bytes read.
type Receiver func() (CursorRequest, int, error)

// Sender sends a cursor frame. It returns the number of bytes written.
type Sender func(CursorResponse) (int, error)

// ResponseSender queues responses to the connected client.
type ResponseSender interface {
	Send(CursorResponse)
}

// codec encodes frames in JSON text frames or in msgpack binary frames.
type codec struct {
	format    string
	marshal   func(any) ([]byte, error)
	unmarshal func([]byte, any) error
}

func codecFromFormat(format string) (codec, error) {
	switch format {
	case "", FormatJSON:
		return codec{
			format:    FormatJSON,
			marshal:   json.Marshal,
			unmarshal: json.Unmarshal,
		}, nil

	case FormatMsgpack:
		return codec{
			format:    FormatMsgpack,
			marshal:   msgpack.Marshal,
			unmarshal: msgpack.Unmarshal,
		}, nil

	default:
		return codec{}, errors.New("unsupported cursor frame format").
			WithType(ErrTypeInvalidFrame).
			WithTag("format", format)
	}
}

func (c codec) receive(conn *websocket.Conn) (CursorRequest, int, error) {
	var data []byte
	if err := websocket.Message.Receive(conn, &data); err != nil {
		return CursorRequest{}, 0, err
	}

	var req CursorRequest
	if err := c.unmarshal(data, &req); err != nil {
		return CursorRequest{}, len(data), errors.New("decoding cursor frame failed").
			WithType(ErrTypeInvalidFrame).
			WithTag("format", c.format).
			Wrap(err)
	}
	return req, len(data), nil
}

func (c codec) send(conn *websocket.Conn, res CursorResponse) (int, error) {
	data, err := c.marshal(res)
	if err != nil {
		return 0, errors.New("encoding cursor frame failed").Wrap(err)
	}

	if c.format == FormatJSON {
		err = websocket.Message.Send(conn, string(data))
	} else {
		err = websocket.Message.Send(conn, data)
	}
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// Handshake rejects connections asking for an unsupported frame format.
func Handshake(_ *websocket.Config, r *http.Request) error {
	_, err := codecFromFormat(r.URL.Query().Get(FormatParam))
	return err
}

func requestFormat(r *http.Request) string {
	c, err := codecFromFormat(r.URL.Query().Get(FormatParam))
	if err != nil {
		return FormatJSON
	}
	return c.format
}
