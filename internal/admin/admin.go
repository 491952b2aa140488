// Package admin serves the metrics and health endpoints.
package admin

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-faster/errors"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/omochice/bobba-client/internal/client"
	"github.com/omochice/bobba-client/internal/users"
)

// StateProvider reports the connection state.
type StateProvider interface {
	State() client.State
}

// Health is the /healthz response body.
type Health struct {
	State string `json:"state"`
	User  string `json:"user,omitempty"`
}

// Server is the admin HTTP server.
type Server struct {
	addr     string
	state    StateProvider
	users    *users.Manager
	gatherer prometheus.Gatherer
	logger   *zap.Logger

	listener net.Listener
	server   *http.Server
}

// New creates an admin server listening on addr. users may be nil.
func New(addr string, state StateProvider, u *users.Manager, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		addr:     addr,
		state:    state,
		users:    u,
		gatherer: gatherer,
		logger:   logger.Named("admin"),
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", s.handleHealth)
	return r
}

// Start begins serving in the background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrap(err, "failed to start admin server")
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info("Admin server started", zap.String("addr", listener.Addr().String()))
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Admin server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := s.state.State()
	body := Health{State: state.String()}
	if s.users != nil {
		if u, ok := s.users.Current(); ok {
			body.User = u.Name
		}
	}

	data, err := json.Marshal(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if state != client.StateConnected {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_, _ = w.Write(data)
}
