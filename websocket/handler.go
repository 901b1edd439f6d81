package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"golang.org/x/net/websocket"
)

const (
	sendChanSize    = 512
	receiveChanSize = 64
)

// Handler represents a cursor stream handler.
type Handler interface {
	// Handles a client connection.
	HandleConnect(conn *websocket.Conn)

	// Handles a cursor position.
	HandleCursor(ctx context.Context, respond ResponseSender, req CursorRequest) error

	// Handles a client's disconnection.
	HandleDisconnect(error)

	// Creates a frame receiver used to receive cursor positions.
	Receiver() Receiver

	// Creates a frame sender used to send heights.
	Sender() Sender

	// Closes the handler and releases its allocated resources.
	Close()

	// The time a client is idle before being disconnected.
	IdleTimeout() time.Duration

	GetClientID() string
}

// Handle serves the given connection until it is closed, idle or the context
// is canceled.
func Handle(ctx context.Context, conn *websocket.Conn, h Handler) {
	handler := handler{
		Conn:    conn,
		Handler: h,
	}

	handler.Handle(ctx)
}

type handler struct {
	// The WebSocket connection.
	Conn *websocket.Conn

	// The cursor handler.
	Handler Handler

	sendChan       chan CursorResponse
	receiveChan    chan CursorRequest
	sender         Sender
	receiver       Receiver
	disconnectChan chan error
}

func (h *handler) Handle(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h.Handler.HandleConnect(h.Conn)

	h.disconnectChan = make(chan error, 2)

	var wg sync.WaitGroup

	h.sendChan = make(chan CursorResponse, sendChanSize)
	h.sender = h.Handler.Sender()

	wg.Add(1)
	go func() {
		defer wg.Done()
		h.startSending(ctx)
	}()

	h.receiveChan = make(chan CursorRequest, receiveChanSize)
	h.receiver = h.Handler.Receiver()

	wg.Add(1)
	go func() {
		defer wg.Done()
		h.startReceiving(ctx)
	}()

	idleTimeout := h.Handler.IdleTimeout()
	idleTimer := time.NewTimer(idleTimeout)
	defer idleTimer.Stop()

	responder := responseSender{
		ctx:      ctx,
		sendChan: h.sendChan,
	}

	var err error
	for err == nil {
		select {
		case <-ctx.Done():
			err = ctx.Err()

		case <-idleTimer.C:
			err = errors.New("idle connection").WithTag("duration", idleTimeout)

		case req := <-h.receiveChan:
			idleTimer.Stop()
			idleTimer.Reset(idleTimeout)

			if herr := h.Handler.HandleCursor(ctx, responder, req); herr != nil {
				err = errors.New("handling cursor failed").Wrap(herr)
			}

		case err = <-h.disconnectChan:
		}
	}

	h.handleDisconnect(err)

	// Cancel context so go routines can cleanly exit.
	cancel()
	wg.Wait()
}

func (h *handler) startSending(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case res := <-h.sendChan:
			if _, err := h.sender(res); err != nil {
				h.disconnect(errors.New("sending frame failed").Wrap(err))
				return
			}
		}
	}
}

func (h *handler) startReceiving(ctx context.Context) {
	for {
		req, _, err := h.receiver()
		if err != nil {
			h.disconnect(errors.New("receiving frame failed").Wrap(err))
			return
		}

		select {
		case <-ctx.Done():
			return

		case h.receiveChan <- req:
		}
	}
}

func (h *handler) disconnect(err error) {
	select {
	case h.disconnectChan <- err:
	default:
	}
}

func (h *handler) handleDisconnect(err error) {
	h.Conn.Close()
	h.Handler.HandleDisconnect(err)
}

type responseSender struct {
	ctx      context.Context
	sendChan chan CursorResponse
}

func (r responseSender) Send(res CursorResponse) {
	select {
	case <-r.ctx.Done():
	case r.sendChan <- res:
	}
}
