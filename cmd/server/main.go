// Package main implements the entry point for the scroll-api server,
// which schedules and serves a user's reading feed.
package main

import (
	"context"
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

	"github.com/prometheus/client_golang/prometheus"

	"github.com/phrazzld/scroll-api/internal/catalog"
	"github.com/phrazzld/scroll-api/internal/config"
	"github.com/phrazzld/scroll-api/internal/domain"
	"github.com/phrazzld/scroll-api/internal/feed"
	"github.com/phrazzld/scroll-api/internal/platform/excerpt"
	"github.com/phrazzld/scroll-api/internal/platform/logger"
	"github.com/phrazzld/scroll-api/internal/platform/metrics"
)

func main() {
	seedDemo := flag.Bool("seed-demo", false, "seed the catalog with demo cards and exit")
	flag.Parse()

	if err := run(*seedDemo); err != nil {
		log.Fatalf("scroll-api: %v", err)
	}
}

func run(seedDemo bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logg := logger.Setup(cfg.Server)

	store, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logg.Error("closing catalog", "error", err)
		}
	}()

	if seedDemo {
		if err := store.Seed(context.Background(), demoCards()); err != nil {
			return err
		}
		logg.Info("demo catalog seeded", slog.String("path", cfg.Catalog.Path))
		return nil
	}

	pools, err := store.LoadPools(context.Background())
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	feedMetrics := metrics.NewFeed(registry)

	source := excerpt.NewClient(cfg.Hydration.BaseURL, cfg.Hydration.Timeout, logg)
	engine := feed.NewEngine(source, feed.Config{
		TargetSize: cfg.Feed.TargetSize,
		Metrics:    feedMetrics,
	}, logg)
	defer engine.Close()

	memes := pools[domain.KindMeme]
	comments := pools[domain.KindComment]
	delete(pools, domain.KindMeme)
	delete(pools, domain.KindComment)
	engine.Initialize(pools, memes, comments, domain.DefaultPreferences())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           setupRouter(engine, registry, logg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logg.Info("server listening", slog.Int("port", cfg.Server.Port))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		logg.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

// demoCards is a tiny catalog for local development.
func demoCards() []domain.Card {
	return []domain.Card{
		{Kind: domain.KindText, ID: "the-trial", Title: "The Trial"},
		{Kind: domain.KindText, ID: "dubliners", Title: "Dubliners"},
		{Kind: domain.KindCommentary, ID: "on-kafka", Title: "Reading Kafka Backwards"},
		{Kind: domain.KindGenre, ID: "gothic", Title: "Gothic", Books: []string{"Dracula", "Carmilla"}},
		{Kind: domain.KindTopic, ID: "absurdism", Title: "Absurdism", Slug: "absurdism"},
		{Kind: domain.KindAuthor, ID: "clarice-lispector", Title: "Clarice Lispector",
			Body: "Wrote sentences that feel like weather."},
		{Kind: domain.KindMeme, ID: "chapter-feels", Title: "That Chapter",
			Body: "still not over this chapter"},
		{Kind: domain.KindComment, ID: "hot-take-1", Title: "From the thread",
			Body: "the footnotes are the best part and I will not be argued with"},
	}
}
