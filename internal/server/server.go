package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/alumnisphere/api/internal/bootstrap"
	"github.com/alumnisphere/api/internal/config"
	"github.com/alumnisphere/api/internal/pkg/helpers"
)

// Server owns the HTTP listener and everything that must be released with it.
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	pool   *pgxpool.Pool
	deps   *bootstrap.Dependencies
	logger zerolog.Logger
	http   *http.Server
}

// NewServer loads configuration, prepares the database and wires the API.
func NewServer(configPath string) (*Server, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	pool, err := bootstrap.SetupDatabase(cfg, lgr)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	deps, err := bootstrap.BuildDependencies(cfg, pool, lgr)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("build dependencies: %w", err)
	}

	s := &Server{
		cfg:    cfg,
		router: bootstrap.SetupRouter(cfg, deps, lgr),
		pool:   pool,
		deps:   deps,
		logger: lgr,
	}
	s.http = s.newHTTPServer()
	return s, nil
}

func (s *Server) newHTTPServer() *http.Server {
	return &http.Server{
		Addr:         ":" + s.cfg.Server.Port,
		Handler:      s.router,
		ReadTimeout:  helpers.ParseDuration(s.cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: helpers.ParseDuration(s.cfg.Server.WriteTimeout, 15*time.Second),
		IdleTimeout:  2 * time.Minute,
	}
}

// Run serves until SIGINT/SIGTERM or a listener failure, then shuts down.
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listenErr := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
		listenErr <- s.http.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		if !errors.Is(err, http.ErrServerClosed) {
			s.release()
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		s.logger.Info().Msg("Shutdown signal received")
	}

	return s.Shutdown(context.Background())
}

// Shutdown drains in-flight requests within the configured shutdown timeout
// and releases the hub, limiter and pool.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, helpers.ParseDuration(s.cfg.Server.ShutdownTimeout, 5*time.Second))
	defer cancel()

	var err error
	if s.http != nil {
		if err = s.http.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server did not stop cleanly")
			err = fmt.Errorf("shutdown: %w", err)
		}
	}

	s.release()
	s.logger.Info().Msg("Server stopped")
	return err
}

// release stops the socket hub and limiter before the pool closes.
func (s *Server) release() {
	if s.deps != nil {
		s.deps.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}
