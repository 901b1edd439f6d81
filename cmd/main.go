package main

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/pprof"
	"os"
	"reflect"
	"syscall"
	"time"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/events"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/go-tooling/pkg/metrics"
	"github.com/levelkit/groundd/collision"
	"github.com/levelkit/groundd/featureflag"
	groundhttp "github.com/levelkit/groundd/http"
	"github.com/levelkit/groundd/meshfile"
	"github.com/levelkit/groundd/smoketest"
	gwebsocket "github.com/levelkit/groundd/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

var (
	// The groundd version number. Set at build.
	version = "v0.1.0"

	infoGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name:        "groundd_info",
		Help:        "Groundd information.",
		ConstLabels: prometheus.Labels{"version": version},
	})
)

// This will effectively disable obfuscation of the config struct. Without it, the keys would get obfuscated causing the cli package to generate garbled command-line options.
// https://github.com/burrowers/garble/issues/403
var _ = reflect.TypeOf(config{})

type config struct {
	Addr               string        `cli:""        env:"GROUNDD_ADDR"                 help:"Listening address for editor connections."`
	AdminAddr          string        `cli:""        env:"GROUNDD_ADMIN_ADDR"           help:"Admin listening address."`
	LogLevel           string        `cli:""        env:"GROUNDD_LOG_LEVEL"            help:"Log level (debug|info|warning|error)."`
	LogIndent          bool          `cli:""        env:"GROUNDD_LOG_INDENT"           help:"Indent logs."`
	MeshFile           string        `cli:""        env:"GROUNDD_MESH_FILE"            help:"Collision mesh loaded at start (.json, .msgpack or .mpk)."`
	HalfExtentX        float64       `cli:""        env:"GROUNDD_HALF_EXTENT_X"        help:"Half width of the indexed plane along X."`
	HalfExtentZ        float64       `cli:""        env:"GROUNDD_HALF_EXTENT_Z"        help:"Half width of the indexed plane along Z."`
	CellSize           float64       `cli:""        env:"GROUNDD_CELL_SIZE"            help:"Side of a grid cell."`
	StartHeight        float64       `cli:""        env:"GROUNDD_START_HEIGHT"         help:"Height downward queries start from when none is given."`
	MaxMeshBytes       int64         `cli:",hidden" env:"GROUNDD_MAX_MESH_BYTES"       help:"Maximum size of an uploaded mesh."`
	CursorIdleTimeout  time.Duration `cli:",hidden" env:"GROUNDD_CURSOR_IDLE_TIMEOUT"  help:"Time until an idle cursor client will be disconnected."`
	LogSummaryInterval time.Duration `cli:",hidden" env:"GROUNDD_LOG_SUMMARY_INTERVAL" help:"The duration between each log summary by connection."`
	Events             eventsConfig  `cli:",hidden" env:"-"                            help:"Event pusher configuration."`
	FeatureFlags       []string      `cli:",hidden" env:"GROUNDD_FEATURE_FLAGS"        help:"Comma separated feature flags"`
	Version            bool          `cli:""        env:"-"                            help:"Show version."`
	Help               bool          `cli:""        env:"-"                            help:"Show help."`
}

type eventsConfig struct {
	Endpoint      string        `cli:",hidden" env:"GROUNDD_EVENTS_ENDPOINT"       help:"Endpoint to where events are pushed. Disabled when empty."`
	FlushInterval time.Duration `cli:",hidden" env:"GROUNDD_EVENTS_FLUSH_INTERVAL" help:"The duration between each event flush."`
	BatchSize     int           `cli:",hidden" env:"GROUNDD_EVENTS_BATCH_SIZE"     help:"The maximum number of events sent at once."`
	QueueSize     int           `cli:",hidden" env:"GROUNDD_EVENTS_QUEUE_SIZE"     help:"The size of the queue where events are stored."`
}

func main() {
	conf := config{
		Addr:               ":4100",
		AdminAddr:          ":18290",
		LogLevel:           logs.InfoLevel.String(),
		HalfExtentX:        collision.DefaultHalfExtent,
		HalfExtentZ:        collision.DefaultHalfExtent,
		CellSize:           collision.DefaultCellSize,
		StartHeight:        collision.DefaultStartHeight,
		MaxMeshBytes:       256 << 20,
		CursorIdleTimeout:  time.Minute * 5,
		LogSummaryInterval: time.Minute,
		Events: eventsConfig{
			FlushInterval: events.DefaultFlushInterval,
			BatchSize:     events.DefaultBatchSize,
			QueueSize:     events.DefaultQueueSize,
		},
	}

	// set the information gauge to 1, useful for SUM query
	infoGauge.Set(1)

	ctx, cancel := cli.ContextWithSignals(context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer cancel()

	cli.Register().
		Help("Starts groundd, the level editor collision server.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := validateConfig(conf); err != nil {
		logs.Fatal(err)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}

	errors.Encoder = json.Marshal

	if conf.Events.Endpoint != "" {
		eventsPusher := events.Pusher{
			Endpoint:      conf.Events.Endpoint,
			FlushInterval: conf.Events.FlushInterval,
			BatchSize:     conf.Events.BatchSize,
			QueueSize:     conf.Events.QueueSize,
			Transport:     metrics.HTTPTransport(http.DefaultTransport),
		}
		go eventsPusher.Start()
		defer eventsPusher.Close()

		eventsLogger := events.Logger{
			Pusher:           &eventsPusher,
			SDKType:          "groundd",
			SDKVersionFamily: version,
		}
		logs.SetLogger(eventsLogger.Log)
	}

	featureFlags := featureflag.New(conf.FeatureFlags)
	collisionConfig := gridConfig(conf)

	store := collision.Store{Config: collisionConfig}
	if conf.MeshFile != "" {
		if err := loadMeshFile(&store, conf.MeshFile); err != nil {
			logs.Fatal(err)
		}
	}

	readinessCheck := func() bool {
		_, ok := store.Current()
		return ok
	}

	var service http.ServeMux

	collisionHandler := groundhttp.CollisionHandler{
		Store:        &store,
		FeatureFlags: featureFlags,
		StartHeight:  conf.StartHeight,
		MaxMeshBytes: conf.MaxMeshBytes,
	}

	var queries http.ServeMux
	collisionHandler.Register(&queries)

	service.Handle("/", groundhttp.HandleWithCORS(&queries))
	service.Handle("/health", groundhttp.HandleWithCORS(http.HandlerFunc(groundhttp.HandleHealthCheck)))
	service.Handle("/version", groundhttp.HandleWithCORS(http.HandlerFunc(groundhttp.HandleVersion(version))))
	service.Handle("/ready", groundhttp.HandleWithCORS(http.HandlerFunc(groundhttp.HandleReadyCheck(readinessCheck))))

	featureFlags.IfNotSet(featureflag.FlagDisableCursorStream, func() {
		service.Handle("/cursor", websocket.Server{
			Handshake: gwebsocket.Handshake,
			Handler: func(conn *websocket.Conn) {
				defer conn.Close()

				var ch gwebsocket.Handler = &gwebsocket.CursorHandler{
					Store:             &store,
					StartHeight:       conf.StartHeight,
					ClientIdleTimeout: conf.CursorIdleTimeout,
				}
				h := gwebsocket.HandlerWithLogs(ch, conf.LogSummaryInterval)
				h = gwebsocket.HandlerWithMetrics(h)
				defer h.Close()

				gwebsocket.Handle(ctx, conn, h)
			},
		})
	})

	var admin http.ServeMux
	admin.Handle("/metrics", promhttp.Handler())
	admin.HandleFunc("/health", groundhttp.HandleHealthCheck)
	admin.HandleFunc("/ready", groundhttp.HandleReadyCheck(readinessCheck))
	admin.HandleFunc("/smoke-test", smoketest.HandleSmokeTest(ctx, smoketest.Options{
		Config: collisionConfig,
	}))
	admin.HandleFunc("/debug/pprof/", pprof.Index)
	admin.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	admin.HandleFunc("/debug/pprof/profile", pprof.Profile)
	admin.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	admin.HandleFunc("/debug/pprof/trace", pprof.Trace)
	admin.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	admin.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	admin.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	admin.Handle("/debug/pprof/block", pprof.Handler("block"))

	logs.WithTag("version", version).
		WithTag("log_level", conf.LogLevel).
		WithTag("half_extent_x", conf.HalfExtentX).
		WithTag("half_extent_z", conf.HalfExtentZ).
		WithTag("cell_size", conf.CellSize).
		WithTag("feature_flags", conf.FeatureFlags).
		Info("starting groundd server")

	groundhttp.ListenAndServe(ctx,
		&http.Server{Addr: conf.Addr, Handler: metrics.HTTPHandler(&service,
			groundhttp.MetricsPathFormatter)},
		&http.Server{Addr: conf.AdminAddr, Handler: &admin},
	)
}

func gridConfig(conf config) collision.Config {
	return collision.Config{
		HalfExtentX: conf.HalfExtentX,
		HalfExtentZ: conf.HalfExtentZ,
		CellSize:    conf.CellSize,
	}
}

func loadMeshFile(store *collision.Store, path string) error {
	m, err := meshfile.Load(path)
	if err != nil {
		return err
	}

	if _, err := store.Load(m); err != nil {
		return errors.New("loading mesh file failed").
			WithTag("path", path).
			Wrap(err)
	}
	return nil
}

func validateConfig(conf config) error {
	if err := gridConfig(conf).Validate(); err != nil {
		return errors.New("invalid grid configuration").Wrap(err)
	}

	if math.IsNaN(conf.StartHeight) {
		return errors.New("start height is not a number")
	}

	if conf.MaxMeshBytes < 0 {
		return errors.New("max mesh bytes is negative").
			WithTag("max_mesh_bytes", conf.MaxMeshBytes)
	}

	if conf.LogSummaryInterval <= 0 {
		return errors.New("log summary interval must be positive").
			WithTag("log_summary_interval", conf.LogSummaryInterval)
	}

	return nil
}
