package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Priya8975/guildlog/internal/api"
	"github.com/Priya8975/guildlog/internal/colors"
	"github.com/Priya8975/guildlog/internal/config"
	"github.com/Priya8975/guildlog/internal/discord"
	"github.com/Priya8975/guildlog/internal/domain"
	"github.com/Priya8975/guildlog/internal/engine"
	"github.com/Priya8975/guildlog/internal/logging"
	"github.com/Priya8975/guildlog/internal/resolver"
	"github.com/Priya8975/guildlog/internal/store"
	"github.com/Priya8975/guildlog/internal/stream"
	"github.com/Priya8975/guildlog/internal/worker"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

type eventBackend interface {
	api.EventStore
	api.EmailStore
	api.Pinger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load config", logging.Err(err))
		os.Exit(1)
	}

	log := logging.New(cfg.Env, logging.ParseLevel(cfg.LogLevel))
	log.Info("starting guildlog",
		slog.String("env", cfg.Env),
		slog.String("version", version),
		slog.String("store", cfg.StoreDriver),
	)

	token, err := config.LoadToken(cfg.TokenFile)
	if err != nil {
		log.Error("failed to load shared token", logging.Err(err))
		os.Exit(1)
	}

	ctx := context.Background()

	var backend eventBackend
	switch cfg.StoreDriver {
	case config.DriverMemory:
		backend = store.NewMemory()
		log.Warn("using in-memory store, events are lost on restart")
	default:
		pgStore, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("failed to connect to postgres", logging.Err(err))
			os.Exit(1)
		}
		defer pgStore.Close()
		log.Info("connected to PostgreSQL")

		if err := pgStore.RunMigrations(ctx); err != nil {
			log.Error("failed to run migrations", logging.Err(err))
			os.Exit(1)
		}
		log.Info("database migrations applied")
		backend = pgStore
	}

	redisStore, err := store.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", logging.Err(err))
		os.Exit(1)
	}
	defer redisStore.Close()
	log.Info("connected to Redis")

	if cfg.Discord.BotToken == "" {
		log.Warn("DISCORD_BOT_TOKEN is not set, guild names will show as ids")
	}
	guilds := discord.New(cfg.Discord.BaseURL, cfg.Discord.BotToken,
		discord.WithAuthScheme(cfg.Discord.AuthScheme),
		discord.WithUserAgent(cfg.Discord.UserAgent),
		discord.WithTimeout(cfg.Discord.Timeout),
	)
	breaker := engine.NewCircuitBreaker(redisStore.Client(), log)
	limiter := engine.NewRateLimiter(redisStore.Client(), log, cfg.Discord.RateLimit, time.Second)
	names := resolver.New(guilds, redisStore.Client(), log,
		resolver.WithTTL(cfg.NameCache.TTL, cfg.NameCache.FallbackTTL),
		resolver.WithGuard(limiter, breaker),
	)

	deps := api.Deps{
		Log:        log,
		Events:     backend,
		Emails:     backend,
		Names:      names,
		Palette:    colors.NewPalette(domain.KnownEventTypes),
		NameBudget: cfg.NameCache.Budget,
		Token:      token,
		Version:    version,
		Checks: map[string]api.Pinger{
			"store": backend,
			"redis": redisStore,
		},
		Circuit: breaker,
	}

	mirrorCtx, stopMirror := context.WithCancel(context.Background())
	defer stopMirror()

	if len(cfg.Kafka.Brokers) > 0 {
		producer := stream.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()

		pool := worker.NewPool(worker.DefaultWorkers, worker.DefaultBuffer,
			worker.NewPublisher(producer, log, 5*time.Second), log)
		pool.Start(mirrorCtx)
		defer pool.Stop()

		deps.Mirror = pool
		log.Info("mirroring events to kafka",
			slog.Any("brokers", cfg.Kafka.Brokers),
			slog.String("topic", cfg.Kafka.Topic),
		)
	}

	server := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("server starting", slog.String("address", cfg.HTTPServer.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", logging.Err(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", logging.Err(err))
	}

	log.Info("server stopped")
}
