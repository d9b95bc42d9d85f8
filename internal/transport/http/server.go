package http

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fleshka4/dex-bridge/internal/config"
	"github.com/fleshka4/dex-bridge/internal/infra/chain"
	"github.com/fleshka4/dex-bridge/internal/service"
)

// ChainStatuser reports on one configured chain.
type ChainStatuser interface {
	Status(ctx context.Context) (chain.Status, error)
}

// Deps are the components the server exposes. Relay and Background are
// optional; without them the websocket endpoints are not registered.
type Deps struct {
	Service    service.Service
	Relay      Relay
	Background *BackgroundLink
	Chains     map[uint64]ChainStatuser
	PendingLen func() int
	Gatherer   prometheus.Gatherer
	Logger     *zap.Logger
}

// Server represents the HTTP transport layer.
type Server struct {
	svc        service.Service
	relay      Relay
	background *BackgroundLink
	chains     map[uint64]ChainStatuser
	pendingLen func() int
	logger     *zap.Logger
	mux        *http.ServeMux

	graceTimeout      time.Duration
	readHeaderTimeout time.Duration
	requestTimeout    time.Duration
}

// NewServer creates a new HTTP server with registered routes.
func NewServer(deps Deps, cfg *config.Config) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if deps.Service == nil {
		return nil, errors.New("service is nil")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.PendingLen == nil {
		deps.PendingLen = func() int { return 0 }
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		svc:        deps.Service,
		relay:      deps.Relay,
		background: deps.Background,
		chains:     deps.Chains,
		pendingLen: deps.PendingLen,
		logger:     deps.Logger,
		mux:        http.NewServeMux(),

		graceTimeout:      cfg.GraceTimeout,
		readHeaderTimeout: cfg.ReadHeaderTimeout,
		requestTimeout:    cfg.RequestTimeout,
	}

	s.mux.HandleFunc("/routes", s.handleRoutes)
	s.mux.HandleFunc("/status", s.handleStatus)
	s.mux.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	s.mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("pong")); err != nil {
			s.logger.Warn("ping write error", zap.Error(err))
		}
	})
	if s.relay != nil && s.background != nil {
		s.mux.HandleFunc("/dapp", s.handleDapp)
		s.mux.HandleFunc("/background", s.handleBackground)
	}

	return s, nil
}

// ListenAndServe starts the HTTP server and shuts it down gracefully on
// SIGINT or SIGTERM.
func (s *Server) ListenAndServe(addr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(err, "net.Listen")
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.logMiddleware(s.mux),
		ReadHeaderTimeout: s.readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return errors.Wrap(err, "srv.Serve")
		}
		return nil
	case <-ctx.Done():
	}
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.graceTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "srv.Shutdown")
	}
	s.logger.Info("server stopped gracefully")
	return nil
}

// logMiddleware logs each HTTP request and the time taken to process it.
func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("url", r.URL.String()),
			zap.Duration("took", time.Since(start)),
		)
	})
}
