package websocket

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"golang.org/x/net/websocket"
)

const clientIDTag = "client_id"

// HandlerWithLogs decorates the given handler with connection logs and a
// periodic summary of the cursor frames handled.
func HandlerWithLogs(h Handler, summaryInterval time.Duration) Handler {
	ctx, cancel := context.WithCancel(context.Background())

	handler := &handlerWithLogs{
		Handler:            h,
		summaryInterval:    summaryInterval,
		closeSummaryWorker: cancel,
	}

	if summaryInterval > 0 {
		go handler.startSummaryWorker(ctx)
	}
	return handler
}

type handlerWithLogs struct {
	Handler

	format string

	summaryInterval    time.Duration
	closeSummaryWorker func()
	counterMutex       sync.Mutex
	counter            frameCounter
}

type frameCounter struct {
	received int
	hits     int
	misses   int
	noMesh   int
}

func (h *handlerWithLogs) HandleConnect(conn *websocket.Conn) {
	h.Handler.HandleConnect(conn)

	req := conn.Request()
	h.format = requestFormat(req)

	logs.WithTag(clientIDTag, h.GetClientID()).
		WithTag("format", h.format).
		WithTag("http_headers", struct {
			UserAgent     string `json:"user_agent,omitempty"`
			XForwardedFor string `json:"x_forwarded_for,omitempty"`
		}{
			UserAgent:     req.UserAgent(),
			XForwardedFor: req.Header.Get("X-Forwarded-For"),
		}).
		Info("new cursor client is connected")
}

func (h *handlerWithLogs) HandleDisconnect(err error) {
	h.Handler.HandleDisconnect(err)

	if isClosedError(err) {
		logs.WithTag(clientIDTag, h.GetClientID()).
			Info("cursor client disconnected")
		return
	}

	logs.WithTag(clientIDTag, h.GetClientID()).
		WithTag("reason", err.Error()).
		Info("cursor client disconnected")
}

func (h *handlerWithLogs) Receiver() Receiver {
	receive := h.Handler.Receiver()

	return func() (CursorRequest, int, error) {
		req, n, err := receive()
		if err != nil && !isClosedError(err) {
			logs.WithTag(clientIDTag, h.GetClientID()).
				WithTag("format", h.format).
				Error(errors.New("receiving cursor frame failed").Wrap(err))
		} else if err == nil {
			logs.WithTag(clientIDTag, h.GetClientID()).
				WithTag("request_id", req.RequestID).
				Debug("cursor frame received")
			h.incCounter(func(c *frameCounter) { c.received++ })
		}
		return req, n, err
	}
}

func (h *handlerWithLogs) Sender() Sender {
	sender := h.Handler.Sender()

	return func(res CursorResponse) (int, error) {
		n, err := sender(res)
		if err != nil && !errors.Is(err, net.ErrClosed) {
			logs.WithTag(clientIDTag, h.GetClientID()).
				WithTag("request_id", res.RequestID).
				Error(errors.New("sending cursor frame failed").Wrap(err))
			return n, err
		}

		if err == nil {
			h.incCounter(func(c *frameCounter) {
				switch {
				case res.Error != "":
					c.noMesh++
				case res.Hit:
					c.hits++
				default:
					c.misses++
				}
			})
		}
		return n, err
	}
}

func (h *handlerWithLogs) Close() {
	h.Handler.Close()
	h.closeSummaryWorker()
	h.logSummary()
}

func (h *handlerWithLogs) startSummaryWorker(ctx context.Context) {
	ticker := time.NewTicker(h.summaryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			h.logSummary()
		}
	}
}

func (h *handlerWithLogs) incCounter(inc func(*frameCounter)) {
	h.counterMutex.Lock()
	defer h.counterMutex.Unlock()

	inc(&h.counter)
}

func (h *handlerWithLogs) logSummary() {
	h.counterMutex.Lock()
	defer h.counterMutex.Unlock()

	if h.counter == (frameCounter{}) {
		return
	}

	logs.WithTag(clientIDTag, h.GetClientID()).
		WithTag("time_interval", h.summaryInterval).
		WithTag("received", h.counter.received).
		WithTag("hits", h.counter.hits).
		WithTag("misses", h.counter.misses).
		WithTag("no_mesh", h.counter.noMesh).
		Info("cursor frame summary")

	h.counter = frameCounter{}
}

func isClosedError(err error) bool {
	return err == nil ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, context.Canceled)
}
