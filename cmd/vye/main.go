package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"vye/internal/amqp"
	"vye/internal/cache"
	"vye/internal/categorize"
	"vye/internal/cli"
	apphttp "vye/internal/http"
	"vye/internal/log"
	"vye/internal/queries"
)

// cacheRetries is the number of extra attempts after a failed store load.
const cacheRetries = 1

func main() {
	cfg, logger := cli.Bootstrap()
	cli.MustValidate(logger, cfg)

	ctx := context.Background()
	res := cli.OpenBackend(ctx, logger, cfg, false)

	cacheLogger := logger.WithComponent(log.ComponentCache).Slog()
	qcache := cache.NewClient(cache.ClientConfig{
		TTL:        cfg.CacheTTL,
		MaxEntries: cfg.CacheMaxEntries,
		Retries:    cacheRetries,
		Logger:     cacheLogger,
	})
	manager := cache.NewManager(cacheLogger)
	manager.Register(qcache)
	manager.StartCleanup(cfg.CacheCleanupInterval)

	var opts []categorize.Option
	var events *amqp.Client
	if cfg.EventsEnabled() {
		var err error
		events, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
			opts = append(opts, categorize.WithPublisher(events))
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Queries:     queries.New(res.Store, qcache),
		Categorizer: categorize.New(res.Store, qcache, queries.CategoryLabelQueries, opts...),
		Store:       res.Store,
		Logger:      logger,
	})

	_, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		manager.Stop()
		if events != nil {
			if err := events.Close(); err != nil {
				logger.Warn("Failed to close AMQP client", log.FieldError, err)
			}
		}
		if err := res.Cleanup(); err != nil {
			logger.Warn("Failed to close store", log.FieldError, err)
		}
	})

	logger.Info("Starting vye server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
