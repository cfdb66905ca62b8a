package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashureev/careersim/internal/api"
	"github.com/ashureev/careersim/internal/career"
	"github.com/ashureev/careersim/internal/config"
	"github.com/ashureev/careersim/internal/document"
	"github.com/ashureev/careersim/internal/feedback"
	"github.com/ashureev/careersim/internal/generator"
	"github.com/ashureev/careersim/internal/grpchealth"
	"github.com/ashureev/careersim/internal/identity"
	"github.com/ashureev/careersim/internal/interview"
	"github.com/ashureev/careersim/internal/logging"
	"github.com/ashureev/careersim/internal/metrics"
	"github.com/ashureev/careersim/internal/middleware"
	"github.com/ashureev/careersim/internal/realtime"
	"github.com/ashureev/careersim/internal/scoring"
	"github.com/ashureev/careersim/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, interview channel and optional gRPC health endpoint",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("port", "", "HTTP port (default PORT or 3000)")
	_ = v.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return err
	}

	zl, err := logging.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = zl.Sync() }()
	logging.InstallDefault(zl)

	slog.Info("Starting server",
		"version", version,
		"port", cfg.Port,
		"dev", cfg.IsDevelopment(),
		"container", config.IsContainer(),
		"store", cfg.Store.Driver,
		"generator_enabled", cfg.GeneratorEnabled(),
		"generator", cfg.Generator.Provider)

	repo, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()
	if err := repo.Ping(ctx); err != nil {
		return fmt.Errorf("store health check: %w", err)
	}
	slog.Info("Store connected")

	m := metrics.New()
	gen, err := generator.FromConfig(ctx, cfg, m, zl)
	if err != nil {
		return fmt.Errorf("create generator: %w", err)
	}
	if gen == nil {
		slog.Info("External generator disabled, using heuristic feedback only")
	}

	synth := feedback.NewSynthesizer(gen, feedback.Options{
		Timeout:     cfg.Generator.Timeout,
		MaxTokens:   cfg.Generator.FeedbackMaxTokens,
		Temperature: cfg.Generator.Temperature,
	}, m, zl)
	agg := scoring.NewAggregator(gen, scoring.Options{
		Timeout:     cfg.Generator.Timeout,
		MaxTokens:   cfg.Generator.AnalysisMaxTokens,
		Temperature: cfg.Generator.Temperature,
	}, m, zl)
	advisor := career.NewAdvisor(gen, career.Options{Timeout: cfg.Generator.Timeout}, zl)

	ids := identity.NewService(repo, cfg.Session.TTL)
	interviews := interview.NewService(repo, synth, agg, interview.WithRecorder(m))

	origins := cfg.AllowedOrigins()
	if len(origins) == 0 && cfg.IsDevelopment() {
		origins = []string{"*"}
	}

	handler := api.NewHandler(ids, interviews, advisor, document.NewExtractor(), repo, cfg.Upload.MaxBytes)
	channels := realtime.NewRegistry()
	wsHandler := realtime.NewHandler(ids, interviews, channels, origins)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(origins))
	r.Use(m.Middleware)

	handler.RegisterRoutes(r, identity.RequireIdentity(ids))
	r.Get("/ws/interview", wsHandler.ServeHTTP)
	r.Handle("/metrics", m.Handler())

	identity.StartSweeper(ctx, repo, cfg.Session.TTL, cfg.Session.SweepInterval)

	if cfg.GRPC.HealthAddr != "" {
		hs, err := startHealth(ctx, cfg.GRPC.HealthAddr, repo)
		if err != nil {
			return err
		}
		defer hs.Stop()
	}

	// The interview channel is long-lived, so there is no WriteTimeout.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	stop()

	slog.Info("Shutting down gracefully...")
	channels.CloseAll("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server stopped successfully")
	return nil
}

func openStore(cfg *config.Config) (store.Repository, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		slog.Warn("Using in-memory store, data is lost on restart")
		return store.NewMemory(), nil
	default:
		repo, err := store.NewSQLite(cfg.DB.Path)
		if err != nil {
			return nil, fmt.Errorf("initialize database: %w", err)
		}
		return repo, nil
	}
}

func startHealth(ctx context.Context, addr string, repo store.Repository) (*grpchealth.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen gRPC health on %s: %w", addr, err)
	}
	hs := grpchealth.NewServer(repo, 0)
	go hs.Run(ctx)
	go func() {
		if err := hs.Serve(lis); err != nil {
			slog.Error("gRPC health server failed", "error", err)
		}
	}()
	return hs, nil
}
