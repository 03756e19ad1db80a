package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/redis/go-redis/v9"

	"github.com/denial-knowledge/csrbot/internal/blacklist"
	"github.com/denial-knowledge/csrbot/internal/config"
	"github.com/denial-knowledge/csrbot/internal/handlers"
	"github.com/denial-knowledge/csrbot/internal/logging"
	"github.com/denial-knowledge/csrbot/internal/repository"
	"github.com/denial-knowledge/csrbot/internal/server"
	"github.com/denial-knowledge/csrbot/internal/service"
	"github.com/denial-knowledge/csrbot/pkg/tokens"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	migrationsDir := flag.String("migrations", "migrations", "path to migration files")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(log)

	log.Info("starting csrbot backend", slog.Int("port", cfg.Server.Port))
	if *configPath != "" {
		log.Info("loaded config file", slog.String("path", *configPath))
	}
	if cfg.Auth.JWTSecret == config.InsecureDefaultSecret {
		log.Warn("auth.jwt_secret is the insecure default; set CSRBOT_AUTH_JWT_SECRET before exposing this service")
	}

	repo, cleanup, err := buildRepository(cfg, *migrationsDir, log)
	if err != nil {
		log.Error("failed to initialize storage", slog.Any("error", err))
		os.Exit(1)
	}
	defer cleanup()

	revoked, err := buildBlacklist(cfg, log)
	if err != nil {
		log.Error("failed to initialize revocation registry", slog.Any("error", err))
		os.Exit(1)
	}

	codec := tokens.NewCodec(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := service.NewAuthService(repo, codec, revoked, log)
	queryService := service.NewQueryService(cfg.ML.BaseURL, cfg.ML.Timeout, repo, log)

	authHandler := handlers.NewAuthHandler(authService, log)
	chatHandler := handlers.NewChatHandler(authService, repo, log)
	queryHandler := handlers.NewQueryHandler(authService, queryService, repo, log)

	router := server.NewRouter(cfg, authHandler, chatHandler, queryHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("server stopped")
}

func buildRepository(cfg *config.Config, migrationsDir string, log *logging.Logger) (repository.Repository, func(), error) {
	switch cfg.Database.Type {
	case "", "memory":
		log.Info("using in-memory storage")
		return repository.NewInMemoryRepository(), func() {}, nil

	case "postgres":
		if cfg.Database.Migrate {
			if err := runMigrations(migrationsDir, cfg.Database.URL, log); err != nil {
				return nil, nil, err
			}
		}
		repo, err := repository.NewPostgresRepository(context.Background(), cfg.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		log.Info("connected to postgres")
		return repo, repo.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown database.type %q", cfg.Database.Type)
	}
}

func runMigrations(dir, url string, log *logging.Logger) error {
	m, err := migrate.New("file://"+dir, url)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("database schema up to date")
	return nil
}

func buildBlacklist(cfg *config.Config, log *logging.Logger) (blacklist.Registry, error) {
	switch cfg.Blacklist.Type {
	case "", "memory":
		log.Info("using in-memory revocation registry")
		return blacklist.NewMemory(), nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Blacklist.Redis.Addr,
			Password: cfg.Blacklist.Redis.Password,
			DB:       cfg.Blacklist.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		log.Info("using redis revocation registry", slog.String("addr", cfg.Blacklist.Redis.Addr))
		return blacklist.NewRedis(client), nil

	default:
		return nil, fmt.Errorf("unknown blacklist.type %q", cfg.Blacklist.Type)
	}
}
