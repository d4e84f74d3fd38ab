package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cherubic/NLog/internal/audit"
	"github.com/cherubic/NLog/internal/infrastructure/config"
	"github.com/cherubic/NLog/internal/infrastructure/logging"
	"github.com/cherubic/NLog/internal/lifecycle"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// auditSource identifies entries written by this package.
const auditSource = "api"

// ConnectionStatus reports whether an optional backend is connected.
// Both the MQTT and InfluxDB clients satisfy it.
type ConnectionStatus interface {
	IsConnected() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.AdminConfig
	Logger    *logging.Logger
	Instance  *lifecycle.Instance
	AuditRepo audit.Repository    // optional
	Gatherer  prometheus.Gatherer // optional: mounts /metrics when set
	MQTT      ConnectionStatus    // optional
	InfluxDB  ConnectionStatus    // optional
	Version   string
}

// Server is the HTTP admin server for one pipeline instance.
//
// It is created with New() and started with Start().
type Server struct {
	cfg       config.AdminConfig
	logger    *logging.Logger
	inst      *lifecycle.Instance
	auditRepo audit.Repository
	gatherer  prometheus.Gatherer
	mqtt      ConnectionStatus
	influx    ConnectionStatus
	version   string
	startTime time.Time
	server    *http.Server
	listener  net.Listener
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Instance == nil {
		return nil, fmt.Errorf("pipeline instance is required")
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		inst:      deps.Instance,
		auditRepo: deps.AuditRepo,
		gatherer:  deps.Gatherer,
		mqtt:      deps.MQTT,
		influx:    deps.InfluxDB,
		version:   deps.Version,
		startTime: time.Now(),
	}, nil
}

// Start binds the listener and serves in a background goroutine.
// The bind happens synchronously so a port conflict is reported here.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	s.logger.Info("admin server starting", "address", s.server.Addr)

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("admin server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("admin server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down admin server: %w", err)
	}
	return nil
}

// HealthCheck verifies the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("admin server not started")
	}

	return nil
}
