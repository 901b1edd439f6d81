package websocket

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/levelkit/groundd/collision"
	"golang.org/x/net/websocket"
)

// HeaderClientID is the header an editor can set to identify itself in logs.
const HeaderClientID = "X-Groundd-Client-Id"

const defaultIdleTimeout = time.Minute

// CursorHandler answers the downward queries of an editor cursor hovering over
// a level. Each connection gets its own handler.
type CursorHandler struct {
	// The store holding the active collision.
	Store *collision.Store

	// The height queries start from when a frame does not give one.
	// collision.DefaultStartHeight is used when zero.
	StartHeight float64

	// The time a client is idle before being disconnected.
	ClientIdleTimeout time.Duration

	conn     *websocket.Conn
	codec    codec
	clientID string
}

func (h *CursorHandler) HandleConnect(conn *websocket.Conn) {
	req := conn.Request()

	h.clientID = req.Header.Get(HeaderClientID)
	if h.clientID == "" {
		h.clientID = uuid.NewString()
	}

	codec, err := codecFromFormat(req.URL.Query().Get(FormatParam))
	if err != nil {
		codec, _ = codecFromFormat(FormatJSON)
	}
	h.codec = codec

	h.conn = conn
}

func (h *CursorHandler) HandleCursor(ctx context.Context, respond ResponseSender, req CursorRequest) error {
	res := CursorResponse{RequestID: req.RequestID}

	c, ok := h.Store.Current()
	if !ok {
		res.Error = collision.ErrTypeNoMesh
		respond.Send(res)
		return nil
	}

	startHeight := h.StartHeight
	if startHeight == 0 {
		startHeight = collision.DefaultStartHeight
	}
	if req.Y != nil {
		startHeight = *req.Y
	}

	res.ID = c.ID
	if req.Ceiling != nil {
		res.Height, res.Hit = c.HeightBelowCeiling(req.X, req.Z, *req.Ceiling)
	} else {
		res.Height, res.Hit = c.HeightBelowFrom(req.X, req.Z, startHeight)
	}
	respond.Send(res)
	return nil
}

func (h *CursorHandler) HandleDisconnect(_ error) {
}

func (h *CursorHandler) Receiver() Receiver {
	return func() (CursorRequest, int, error) {
		return h.codec.receive(h.conn)
	}
}

func (h *CursorHandler) Sender() Sender {
	return func(res CursorResponse) (int, error) {
		return h.codec.send(h.conn, res)
	}
}

func (h *CursorHandler) Close() {
}

func (h *CursorHandler) IdleTimeout() time.Duration {
	if h.ClientIdleTimeout <= 0 {
		return defaultIdleTimeout
	}
	return h.ClientIdleTimeout
}

func (h *CursorHandler) GetClientID() string {
	return h.clientID
}
