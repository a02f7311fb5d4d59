// Command server starts the lead agent HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/lead-agent/internal/adapter/ai/provider"
	"github.com/fairyhunter13/lead-agent/internal/adapter/ai/tokencount"
	httpserver "github.com/fairyhunter13/lead-agent/internal/adapter/httpserver"
	"github.com/fairyhunter13/lead-agent/internal/adapter/observability"
	"github.com/fairyhunter13/lead-agent/internal/adapter/queue/redpanda"
	"github.com/fairyhunter13/lead-agent/internal/adapter/repo/memory"
	"github.com/fairyhunter13/lead-agent/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/lead-agent/internal/app"
	"github.com/fairyhunter13/lead-agent/internal/config"
	"github.com/fairyhunter13/lead-agent/internal/domain"
	"github.com/fairyhunter13/lead-agent/internal/service/ratelimiter"
	"github.com/fairyhunter13/lead-agent/internal/usecase"
	"github.com/fairyhunter13/lead-agent/internal/usecase/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	profile, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		slog.Error("profile load failed", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	var (
		regOpts   []tools.Option
		dbCheck   app.Pinger
		redisPing app.RedisPinger
	)

	// Optional durable quote mirror
	if cfg.DBURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DBURL)
		if err != nil {
			slog.Error("db connect failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()

		repo := postgres.NewQuoteRepo(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			slog.Error("quote schema setup failed", slog.Any("error", err))
			os.Exit(1)
		}
		regOpts = append(regOpts, tools.WithMirror(repo))
		dbCheck = pool

		if cfg.QuoteRetentionDays > 0 {
			cleanupSvc := postgres.NewCleanupService(pool, cfg.QuoteRetentionDays)
			go cleanupSvc.RunPeriodic(ctx, cfg.QuoteCleanupInterval)
			slog.Info("quote cleanup started", slog.Int("retention_days", cfg.QuoteRetentionDays), slog.Duration("interval", cfg.QuoteCleanupInterval))
		}
	}

	// Rate limiter: shared Redis window when configured, in-process otherwise
	window := ratelimiter.WindowConfigFrom(cfg)
	var limiter domain.Limiter = ratelimiter.NewFixedWindow(window)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid redis url", slog.Any("error", err))
			os.Exit(1)
		}
		rdb := redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
		limiter = ratelimiter.NewRedisLuaLimiter(rdb, window)
		redisPing = rdb
	}

	// Optional lead events
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := redpanda.NewProducer(ctx, cfg.KafkaBrokers, cfg.LeadTopic)
		if err != nil {
			slog.Error("redpanda producer connect failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := producer.Close(); err != nil {
				slog.Error("failed to close lead producer", slog.Any("error", err))
			}
		}()
		regOpts = append(regOpts, tools.WithPublisher(producer))
	}

	registry := tools.NewRegistry(profile, memory.NewQuoteLog(), regOpts...)

	openaiOpts := provider.OpenAIOptions(cfg, profile.SystemPrompt)
	openaiOpts.Counter = tokencount.DefaultCounter
	groqOpts := provider.GroqOptions(cfg, profile.SystemPrompt)
	groqOpts.Counter = tokencount.DefaultCounter
	openai := provider.NewOpenAI(openaiOpts)
	groq := provider.NewGroq(groqOpts)
	slog.Info("providers initialized",
		slog.String("mode", string(cfg.ProviderMode())),
		slog.Bool("openai_configured", openai.Configured()),
		slog.Bool("groq_configured", groq.Configured()))

	orch := usecase.NewOrchestrator(usecase.OrchestratorConfig{
		Mode:               cfg.ProviderMode(),
		MaxToolRounds:      cfg.MaxToolRounds,
		PermissiveFallback: cfg.PermissiveFallback(),
	}, openai, groq, registry, usecase.NewInlineResolver(registry))
	chat := usecase.NewChatService(usecase.NewStaticResponder(profile.Contact), orch)

	checks := app.BuildReadinessChecks(dbCheck, redisPing, openai, groq)
	srv := httpserver.NewServer(cfg, chat, limiter, checks...)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	cancelBackground()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
