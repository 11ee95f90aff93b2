package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lunarforge/comicsync/internal/api"
	"github.com/lunarforge/comicsync/internal/clock/system"
	"github.com/lunarforge/comicsync/internal/config"
	restyfetcher "github.com/lunarforge/comicsync/internal/fetcher/resty"
	"github.com/lunarforge/comicsync/internal/logging"
	"github.com/lunarforge/comicsync/internal/metrics"
	memorypublisher "github.com/lunarforge/comicsync/internal/publisher/memory"
	pubsubpublisher "github.com/lunarforge/comicsync/internal/publisher/pubsub"
	"github.com/lunarforge/comicsync/internal/storage/postgres"
	"github.com/lunarforge/comicsync/internal/updater"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the synchronization daemon.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Logging.Development)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			if err := serve(cmd.Context(), cfg, logger); err != nil {
				logger.Error("comicsync exited with error", zap.Error(err))
				return err
			}
			return nil
		},
	}
}

func serve(parent context.Context, cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	location, err := time.LoadLocation(cfg.Site.Timezone)
	if err != nil {
		return fmt.Errorf("load site timezone %q: %w", cfg.Site.Timezone, err)
	}

	store, err := postgres.New(ctx, postgres.Config{
		DSN:             cfg.DB.DSN,
		MaxConns:        cfg.DB.MaxConns,
		MinConns:        cfg.DB.MinConns,
		MaxConnLifetime: time.Duration(cfg.DB.ConnLifetimeMinute) * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	var publisher updater.Publisher
	if cfg.PubSub.ProjectID != "" {
		ps, err := pubsubpublisher.New(ctx, cfg.PubSub.ProjectID, cfg.PubSub.TopicName)
		if err != nil {
			return fmt.Errorf("init pubsub publisher: %w", err)
		}
		defer func() {
			if closeErr := ps.Close(); closeErr != nil {
				logger.Warn("close pubsub publisher failed", zap.Error(closeErr))
			}
		}()
		publisher = ps
		logger.Info("publishing events to pubsub",
			zap.String("project", cfg.PubSub.ProjectID),
			zap.String("topic", cfg.PubSub.TopicName))
	} else {
		publisher = memorypublisher.New()
		logger.Info("pubsub not configured, events stay in memory")
	}

	fetcher := restyfetcher.New(restyfetcher.Config{
		Timeout:   cfg.HTTPTimeout(),
		UserAgent: cfg.HTTP.UserAgent,
	})
	scraper := updater.NewScraper(fetcher, updater.SiteConfig{
		FrontPageURL: cfg.Site.FrontPageURL,
		ArchiveURL:   cfg.Site.ArchiveURL,
		ComicURLBase: cfg.Site.ComicURLBase,
	})

	clk := system.New()
	pending := updater.NewPendingSet()

	var wg sync.WaitGroup
	if cfg.Jobs.Enabled {
		comicJob := updater.NewComicUpdateJob(
			store, scraper, pending, clk, publisher, cfg.PubSub.TopicName, location, logger)
		newsJob := updater.NewNewsUpdateJob(
			store, scraper, pending, clk, publisher, cfg.PubSub.TopicName, cfg.NewsInterval(), logger)

		opts := updater.SuperviseOptions{
			StartupDelay: cfg.StartupDelay(),
			RetryBackoff: cfg.RetryBackoff(),
		}
		wg.Add(2)
		go func() {
			defer wg.Done()
			updater.Supervise(ctx, logger, comicJob, opts)
		}()
		go func() {
			defer wg.Done()
			updater.Supervise(ctx, logger, newsJob, opts)
		}()
	} else {
		logger.Info("background jobs disabled by configuration")
	}

	server := api.NewServer(pending, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		stop()
		wg.Wait()
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown failed", zap.Error(err))
	}
	wg.Wait()
	logger.Info("comicsync stopped")
	return nil
}
