package app

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"FilmScanner/internal/acquire"
	"FilmScanner/internal/config"
	"FilmScanner/internal/domain"
	"FilmScanner/internal/infrastructure/feed"
	"FilmScanner/internal/infrastructure/fetch"
	"FilmScanner/internal/infrastructure/rating"
	"FilmScanner/internal/infrastructure/rss"
	cronsched "FilmScanner/internal/infrastructure/scheduler"
	"FilmScanner/internal/infrastructure/storage"
	"FilmScanner/internal/infrastructure/telegram"
	"FilmScanner/internal/infrastructure/torrent"
	"FilmScanner/internal/logging"
	"FilmScanner/internal/policy"
	"FilmScanner/internal/ports"
	"FilmScanner/internal/release"
	"FilmScanner/internal/scanner"
	"FilmScanner/internal/usecase"
)

// Application wires configuration into the pipeline and scheduler.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	store     *storage.SQLiteRepository
}

// New builds the full dependency graph.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	feeds, err := buildFeeds(cfg.Feeds)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	client := fetch.NewClient(cfg.HTTP.TimeoutDuration(), cfg.HTTP.RequestInterval(), cfg.HTTP.Burst)

	registry := scanner.NewRegistry()
	registry.Register(feed.NewRSSScanner(client.HTTPClient()))
	source := feed.NewStrategySource(registry, baseLogger.With("component", "source"))

	ratings := rating.NewScraper(cfg.Rating.QueryURL, client, baseLogger.With("component", "rating"))
	evaluator := policy.NewEvaluator(policy.Criteria{
		Qualities:    cfg.Filters.Qualities,
		MinYear:      cfg.Filters.MinYear,
		BannedGenres: cfg.Filters.BannedGenres,
		MinCritics:   cfg.Filters.MinCritics,
		MinUsers:     cfg.Filters.MinUsers,
	}, ratings, baseLogger.With("component", "policy"))

	index := torrent.NewIndex(cfg.Torrent.QueryURL, client)
	resolver := acquire.NewResolver(index, baseLogger.With("component", "acquire"))

	sink := rss.NewSink(cfg.Output.Path, rss.ChannelInfo{
		Title:       cfg.Output.Title,
		Link:        cfg.Output.Link,
		Description: cfg.Output.Description,
	})

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" && cfg.Notifications.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Feeds:      feeds,
		Source:     source,
		Repository: store,
		Policy:     evaluator,
		Resolver:   resolver,
		Sink:       sink,
		Notifier:   notifier,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	application := &Application{cfg: cfg, logger: baseLogger, pipeline: pipeline, store: store}
	if cfg.Scheduler.CronExpression != "" {
		driver := cronsched.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
		application.scheduler = usecase.NewScheduler(driver, pipeline, baseLogger.With("component", "scheduler"))
	}
	return application, nil
}

// Run executes one pipeline pass, or blocks on the cron schedule when one is
// configured.
func (a *Application) Run(ctx context.Context) error {
	defer a.store.Close()

	if a.scheduler == nil {
		return a.pipeline.Run(ctx)
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("scheduler started", "cron", a.cfg.Scheduler.CronExpression)
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return a.scheduler.Stop(stopCtx)
}

// buildFeeds compiles the per-feed patterns, failing fast on invalid config.
func buildFeeds(cfgs []config.FeedConfig) ([]usecase.Feed, error) {
	feeds := make([]usecase.Feed, 0, len(cfgs))
	for _, fc := range cfgs {
		parser, err := release.NewParser(fc.TitlePattern)
		if err != nil {
			return nil, fmt.Errorf("feed %s: %w", fc.URL, err)
		}

		source := domain.Feed{URL: fc.URL, Scanner: fc.Scanner}
		if fc.GenrePattern != "" {
			source.GenrePattern, err = regexp.Compile(fc.GenrePattern)
			if err != nil {
				return nil, fmt.Errorf("feed %s: compile genre pattern: %w", fc.URL, err)
			}
		}
		if fc.LanguagePattern != "" {
			source.LanguagePattern, err = regexp.Compile(fc.LanguagePattern)
			if err != nil {
				return nil, fmt.Errorf("feed %s: compile language pattern: %w", fc.URL, err)
			}
		}

		feeds = append(feeds, usecase.Feed{Source: source, Parser: parser})
	}
	return feeds, nil
}
