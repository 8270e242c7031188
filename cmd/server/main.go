package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"

	"Repocache/internal/api/middleware"
	"Repocache/internal/api/routes"
	"Repocache/internal/config"
	"Repocache/internal/core/repositories"
	"Repocache/internal/db/memory"
	postgresRepo "Repocache/internal/db/postgres"
	"Repocache/internal/github"
)

func main() {
	envFile := flag.String("env-file", ".env", "optional dotenv file read before the environment")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	setupLogging(cfg.Logging)

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
	log.Println("Server stopped")
}

// run serves until SIGINT/SIGTERM or a listener failure.
// The store is closed on every return path.
func run(cfg *config.Config) error {
	store, closeStore, err := openStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer closeStore()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           newRouter(cfg, store),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Repository cache starting on port %d (store: %s, upstream: %s)",
			cfg.Server.Port, cfg.Database.Driver, cfg.Upstream.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-stop:
		log.Printf("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	return nil
}

// newRouter wires the upstream client, coordinator and HTTP routes over store
func newRouter(cfg *config.Config, store repositories.Store) http.Handler {
	client := github.NewClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout,
		github.WithToken(cfg.Upstream.Token),
		github.WithUserAgent(cfg.Upstream.UserAgent),
		github.WithDefaultTTL(cfg.Cache.TTLSeconds),
	)
	repoService := repositories.NewService(store, client)

	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)

	// Health checks sit outside the rate limiter so probes are never throttled
	routes.RegisterHealthRoutes(r, store)

	rateLimiter := middleware.NewRateLimiter(cfg.Server.RateLimitRequests, cfg.Server.RateLimitWindow)
	routes.RegisterRepositoryRoutes(r, repoService, cfg.Server.CORSAllowedOrigins, rateLimiter)

	return r
}

// setupLogging installs the default slog handler
func setupLogging(cfg config.LoggingConfig) {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// openStore connects the configured record store.
// The returned close function releases the database pool, if any.
func openStore(cfg config.DatabaseConfig) (repositories.Store, func(), error) {
	if cfg.Driver == config.DriverMemory {
		store, err := memory.NewRepositoryStore(cfg.MemorySize)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("Using in-memory store (%d records)", cfg.MemorySize)
		return store, func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("Connected to database")

	if err := postgresRepo.MigrateRepositoryTable(ctx, db, cfg.Table); err != nil {
		closeDB()
		return nil, nil, err
	}
	log.Println("Migrations completed successfully")

	store, err := postgresRepo.NewRepositoryStore(db, cfg.Table)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return store, closeDB, nil
}
