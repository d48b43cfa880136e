package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jdon/coffeechat/internal/bootstrap"
	"github.com/jdon/coffeechat/internal/config"
	"github.com/jdon/coffeechat/internal/db"
)

// Server holds the state for the HTTP server.
type Server struct {
	config *config.Config
	router *gin.Engine
	store  *db.Store
	deps   *bootstrap.Dependencies
	logger zerolog.Logger
	http   *http.Server

	// stops the hub and anything else tied to the server's lifetime
	cancel context.CancelFunc
}

// NewServer creates and initializes a new server instance by calling bootstrap functions.
func NewServer(configPath string) (*Server, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config or setup logger: %w", err)
	}

	ctx := context.Background()
	store, err := bootstrap.SetupStorage(ctx, cfg, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to setup storage: %w", err)
	}

	deps, err := bootstrap.BuildDependencies(cfg, store.Repos, lgr)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to setup dependencies: %w", err)
	}
	bootstrap.SeedDemoMembers(ctx, cfg, deps, lgr)

	return &Server{
		config: cfg,
		router: bootstrap.SetupRouter(cfg, deps, lgr),
		store:  store,
		deps:   deps,
		logger: lgr,
	}, nil
}

// Run starts the background workers and the HTTP server, then blocks until shutdown.
func (s *Server) Run() error {
	s.logger.Info().Str("port", s.config.Server.Port).Msg("Starting server...")

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go s.deps.Hub.Run(ctx)
	if s.deps.Scheduler != nil {
		s.deps.Scheduler.Start()
	}

	s.http = &http.Server{
		Addr:        ":" + s.config.Server.Port,
		Handler:     s.router,
		ReadTimeout: 10 * time.Second,
		// Websocket connections are hijacked, so this only bounds plain responses
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
		serverErrors <- s.http.ListenAndServe()
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			s.Shutdown(context.Background())
			return fmt.Errorf("error starting server: %w", err)
		}
	case sig := <-osSignals:
		s.logger.Info().Str("signal", sig.String()).Msg("Received OS signal, initiating shutdown...")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully stops the server and closes resources.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	shutdownError := false

	if s.http != nil {
		s.logger.Info().Msg("Shutting down HTTP server...")
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server shutdown error")
			shutdownError = true
		} else {
			s.logger.Info().Msg("HTTP server gracefully stopped.")
		}
	}

	if s.deps.Scheduler != nil {
		s.logger.Info().Msg("Stopping batch scheduler...")
		if err := s.deps.Scheduler.Stop(ctx); err != nil {
			s.logger.Error().Err(err).Msg("Batch scheduler did not stop in time")
			shutdownError = true
		}
	}

	// Closes open event feeds
	if s.cancel != nil {
		s.cancel()
	}

	if s.store != nil {
		s.logger.Info().Str("driver", s.store.Driver).Msg("Closing storage backend...")
		s.store.Close()
	}

	s.logger.Info().Msg("Server shutdown process complete.")
	if shutdownError {
		return errors.New("server shutdown completed with errors")
	}
	return nil
}
