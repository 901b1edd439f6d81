package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

// NewTestingEnv starts a server serving the handlers returned by newHandler
// and returns a function that dials it with the given frame format.
func NewTestingEnv(t *testing.T, newHandler func() Handler) (dial func(format string) *websocket.Conn, close func()) {
	var mutex sync.Mutex
	logger := t.Log

	logs.Encoder = func(v any) ([]byte, error) {
		return json.MarshalIndent(v, "", "  ")
	}

	logs.SetLogger(func(e logs.Entry) {
		mutex.Lock()
		defer mutex.Unlock()

		if logger != nil {
			logger(e)
		}
	})

	errors.Encoder = json.Marshal

	server := httptest.NewServer(websocket.Server{
		Handshake: Handshake,
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			handler := newHandler()
			defer handler.Close()

			Handle(context.Background(), conn, handler)
		},
	})

	var conns []*websocket.Conn

	dial = func(format string) *websocket.Conn {
		url := strings.ReplaceAll(server.URL, "http://", "ws://")
		if format != "" {
			url += "?" + FormatParam + "=" + format
		}

		config, err := websocket.NewConfig(url, "http://localhost")
		if err != nil {
			t.Fatalf("error initializing web socket: %s", err)
		}

		config.Header.Set("User-Agent", "ted")
		config.Header.Set("X-Forwarded-for", "192.0.0.0")
		config.Header.Set(HeaderClientID, uuid.NewString())

		conn, err := websocket.DialConfig(config)
		if err != nil {
			t.Fatalf("error dialing web socket: %s", err)
		}

		mutex.Lock()
		conns = append(conns, conn)
		mutex.Unlock()
		return conn
	}

	return dial, func() {
		mutex.Lock()
		logger = nil
		for _, conn := range conns {
			conn.Close()
		}
		mutex.Unlock()

		server.Close()
	}
}
