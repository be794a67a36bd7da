package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/khauni/homepage/api"
	"github.com/khauni/homepage/api/routes"
	"github.com/khauni/homepage/internal/activity"
	"github.com/khauni/homepage/internal/art"
	"github.com/khauni/homepage/internal/chat"
	"github.com/khauni/homepage/internal/nowplaying"
	"github.com/khauni/homepage/internal/printer"
	"github.com/khauni/homepage/internal/steam"
	"github.com/khauni/homepage/internal/upstream"
	"github.com/khauni/homepage/internal/wishlist"
	"github.com/khauni/homepage/pkg/config"
	"github.com/khauni/homepage/pkg/instance"
	"github.com/khauni/homepage/pkg/logger"
	"github.com/khauni/homepage/pkg/metrics"
	"github.com/khauni/homepage/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "homepage-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "homepage-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped with error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var redisClient *redis.Client
	var cache upstream.Cache
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		cache = redisClient
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
	} else {
		logg.Info(ctx, "redis not configured, using in-process rate limiting and no upstream cache")
	}

	store, err := wishlist.NewStore(wishlist.ServiceParams{
		Repo:         wishlist.NewRepository(cfg.Wishlist.DataPath),
		Logger:       logg,
		Metrics:      metrics.NewOperationMetrics(reg, "wishlist_store"),
		FailSoftList: cfg.Wishlist.FailSoftList(),
	})
	if err != nil {
		return err
	}
	if err := store.Bootstrap(ctx); err != nil {
		return err
	}

	artSvc, err := art.NewService(cfg.Art.Path, logg, nil)
	if err != nil {
		return err
	}

	upstreamMetrics := metrics.NewOperationMetrics(reg, "upstream")
	deps := routes.Deps{
		Config:   cfg,
		Logger:   logg,
		Gatherer: reg,
		Metrics:  metrics.NewHTTPMetrics(reg),
		Wishlist: store,
		Activity: activity.NewHolder(cfg.Activity.Default, nil),
		Art:      artSvc,
		NowPlaying: nowplaying.NewService(ctx, nowplaying.Params{
			Config: cfg.Spotify, Upstream: cfg.Upstream, Cache: cache, Metrics: upstreamMetrics, Logger: logg,
		}),
		Steam: steam.NewService(steam.Params{
			Config: cfg.Steam, Upstream: cfg.Upstream, Cache: cache, Metrics: upstreamMetrics, Logger: logg,
		}),
		Printer: printer.NewService(printer.Params{
			Config: cfg.Printer, Upstream: cfg.Upstream, Cache: cache, Metrics: upstreamMetrics, Logger: logg,
		}),
		Redis: redisClient,
	}

	chatAccounts, err := chat.LoadAccounts(cfg.Chat.AccountsPath)
	if err != nil {
		return err
	}

	hubCtx, stopHub := context.WithCancel(context.WithoutCancel(ctx))
	hubDone := make(chan struct{})
	if cfg.Chat.Enabled {
		deps.Chat = chat.NewHub(chat.Config{
			MaxMessageLength: cfg.Chat.MaxMessageLength,
			HistorySize:      cfg.Chat.HistorySize,
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			PingInterval:     cfg.Chat.PingInterval,
			Accounts:         chatAccounts,
		}, logg)
		go func() {
			defer close(hubDone)
			_ = deps.Chat.Run(hubCtx)
		}()
	} else {
		close(hubDone)
	}

	server := api.NewServer(cfg, routes.NewRouter(deps))
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":            cfg.App.Env,
		"addr":           server.Addr,
		"instance":       instance.GetID(),
		"wishlist_path":  cfg.Wishlist.DataPath,
		"admin_enabled":  cfg.Admin.Enabled(),
		"chat_enabled":   cfg.Chat.Enabled,
		"redis_enabled":  redisClient != nil,
		"spotify_active": deps.NowPlaying != nil,
	})
	logg.Info(logCtx, "starting api server")

	select {
	case err := <-serveErr:
		stopHub()
		<-hubDone
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout(cfg))
	defer cancel()

	stopHub()
	shutdownErr := server.Shutdown(shutdownCtx)
	<-hubDone
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		shutdownErr = multierr.Append(shutdownErr, err)
	}
	return shutdownErr
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.App.ShutdownTimeout > 0 {
		return cfg.App.ShutdownTimeout
	}
	return 10 * time.Second
}
