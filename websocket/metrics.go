package websocket

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/net/websocket"
)

const (
	errTypeLabel = "error_type"
	formatLabel  = "format"
	resultLabel  = "result"
)

var (
	wsConnectedClients = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ws_connected_clients",
		Help: "The number of connected cursor clients.",
	}, []string{
		formatLabel,
	})

	wsReceivedFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_received_frames",
		Help: "The number of cursor frames received from WebSocket connections.",
	}, []string{
		formatLabel,
	})

	wsReceivedBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_received_bytes",
		Help: "The number of bytes received from WebSocket connections.",
	}, []string{
		formatLabel,
	})

	wsReceiveError = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_receive_errors",
		Help: "The errors that occured while receiving a cursor frame.",
	}, []string{
		formatLabel,
		errTypeLabel,
	})

	wsSentFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_sent_frames",
		Help: "The number of cursor frames sent to WebSocket connections.",
	}, []string{
		formatLabel,
		resultLabel,
	})

	wsSentBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_sent_bytes",
		Help: "The number of bytes sent to WebSocket connections.",
	}, []string{
		formatLabel,
	})

	wsSendError = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_send_errors",
		Help: "The errors that occured while sending a cursor frame.",
	}, []string{
		formatLabel,
		errTypeLabel,
	})

	wsCursorLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "ws_cursor_latency",
		Help: "The time to answer a cursor frame.",
	}, []string{
		formatLabel,
	})
)

// HandlerWithMetrics decorates the given handler with Prometheus metrics.
func HandlerWithMetrics(h Handler) Handler {
	return &handlerWithMetrics{
		Handler: h,
		format:  FormatJSON,
	}
}

type handlerWithMetrics struct {
	Handler

	format string
}

func (h *handlerWithMetrics) HandleConnect(conn *websocket.Conn) {
	h.format = requestFormat(conn.Request())

	wsConnectedClients.
		With(prometheus.Labels{formatLabel: h.format}).
		Inc()

	h.Handler.HandleConnect(conn)
}

func (h *handlerWithMetrics) HandleCursor(ctx context.Context, respond ResponseSender, req CursorRequest) error {
	start := time.Now()
	err := h.Handler.HandleCursor(ctx, respond, req)

	wsCursorLatency.
		With(prometheus.Labels{formatLabel: h.format}).
		Observe(time.Since(start).Seconds())
	return err
}

func (h *handlerWithMetrics) HandleDisconnect(err error) {
	wsConnectedClients.
		With(prometheus.Labels{formatLabel: h.format}).
		Dec()

	h.Handler.HandleDisconnect(err)
}

func (h *handlerWithMetrics) Receiver() Receiver {
	receive := h.Handler.Receiver()

	return func() (CursorRequest, int, error) {
		req, n, err := receive()
		if err != nil {
			wsReceiveError.
				With(prometheus.Labels{
					formatLabel:  h.format,
					errTypeLabel: errors.Type(err),
				}).
				Inc()
		} else {
			wsReceivedFrames.
				With(prometheus.Labels{formatLabel: h.format}).
				Inc()
		}

		if n != 0 {
			wsReceivedBytes.
				With(prometheus.Labels{formatLabel: h.format}).
				Add(float64(n))
		}

		return req, n, err
	}
}

func (h *handlerWithMetrics) Sender() Sender {
	sender := h.Handler.Sender()

	return func(res CursorResponse) (int, error) {
		n, err := sender(res)
		if err != nil {
			wsSendError.
				With(prometheus.Labels{
					formatLabel:  h.format,
					errTypeLabel: errors.Type(err),
				}).
				Inc()
		}

		if n != 0 {
			wsSentFrames.
				With(prometheus.Labels{
					formatLabel: h.format,
					resultLabel: frameResult(res),
				}).
				Inc()
			wsSentBytes.
				With(prometheus.Labels{formatLabel: h.format}).
				Add(float64(n))
		}

		return n, err
	}
}

func frameResult(res CursorResponse) string {
	switch {
	case res.Error != "":
		return "error"
	case res.Hit:
		return "hit"
	default:
		return "miss"
	}
}
