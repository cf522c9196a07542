package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"FilmScanner/internal/domain"
	"FilmScanner/internal/ports"
	"FilmScanner/internal/release"
)

// Feed pairs a configured feed with its compiled title parser.
type Feed struct {
	Source domain.Feed
	Parser *release.Parser
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Feeds      []Feed
	Source     ports.ReleaseSource
	Repository ports.ReleaseRepository
	Policy     ports.ReleasePolicy
	Resolver   ports.LinkResolver
	Sink       ports.FeedSink
	Notifier   ports.Notifier
	Logger     *slog.Logger
}

// Pipeline implements the filtering and acquisition workflow: parse the entry
// title, skip already-processed releases, evaluate the criteria chain,
// resolve a download link, publish, and record the terminal decision.
type Pipeline struct {
	feeds      []Feed
	source     ports.ReleaseSource
	repository ports.ReleaseRepository
	policy     ports.ReleasePolicy
	resolver   ports.LinkResolver
	sink       ports.FeedSink
	notifier   ports.Notifier
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{
		feeds:      deps.Feeds,
		source:     deps.Source,
		repository: deps.Repository,
		policy:     deps.Policy,
		resolver:   deps.Resolver,
		sink:       deps.Sink,
		notifier:   deps.Notifier,
		logger:     logger,
	}
}

// Run processes every configured feed once, one entry at a time. Per-entry
// failures are logged and never abort the run.
func (p *Pipeline) Run(ctx context.Context) error {
	var accepted []domain.AcceptedRelease

	for _, feed := range p.feeds {
		entries, err := p.source.Fetch(ctx, feed.Source)
		if err != nil {
			p.logger.Error("fetch feed failed", "url", feed.Source.URL, "error", err)
			continue
		}
		p.logger.Debug("feed fetched", "url", feed.Source.URL, "entries", len(entries))

		for _, entry := range entries {
			if rel := p.processEntry(ctx, feed, entry); rel != nil {
				accepted = append(accepted, *rel)
			}
		}
	}

	p.notify(ctx, accepted)
	p.logger.Info("run finished", "accepted", len(accepted))
	return nil
}

// processEntry drives one entry to a terminal outcome and returns the
// accepted release, if any. Unparseable titles and unresolved acquisitions
// are left unrecorded so the next run sees them again; every other outcome
// is recorded before the next entry starts.
func (p *Pipeline) processEntry(ctx context.Context, feed Feed, entry domain.FeedEntry) *domain.AcceptedRelease {
	rel, err := feed.Parser.Parse(entry.Title)
	if err != nil {
		p.logger.Warn("unparseable title, skipping", "title", entry.Title, "error", err)
		return nil
	}

	log := p.logger.With("title", rel.Title, "year", rel.Year, "quality", rel.Quality)

	seen, err := p.repository.IsProcessed(ctx, rel.Title, rel.Year)
	if err != nil {
		log.Error("processed lookup failed", "error", err)
		return nil
	}
	if seen {
		log.Debug("already processed, skipping")
		return nil
	}

	verdict := p.policy.Evaluate(ctx, feed.Source, entry, rel)
	if verdict.Rejected {
		log.Info("release rejected", "rule", verdict.Rule, "reason", verdict.Reason)
		p.record(ctx, feed, rel, log)
		return nil
	}

	link, ok := p.resolver.Resolve(ctx, rel, entry)
	if !ok {
		// Availability may change; leaving the entry unrecorded retries it
		// on the next run.
		log.Info("no download link resolved, will retry next run")
		return nil
	}

	item := domain.OutputItem{
		Title: fmt.Sprintf("%s (%d)", rel.Title, rel.Year),
		Link:  link,
	}
	if err := p.sink.Append(ctx, item); err != nil {
		log.Error("append to output feed failed", "error", err)
		return nil
	}

	p.record(ctx, feed, rel, log)
	log.Info("release accepted", "link", link)
	return &domain.AcceptedRelease{Release: rel, Link: link}
}

func (p *Pipeline) record(ctx context.Context, feed Feed, rel domain.Release, log *slog.Logger) {
	err := p.repository.Record(ctx, domain.ProcessedRelease{
		FeedURL: feed.Source.URL,
		Title:   rel.Title,
		Year:    rel.Year,
		Quality: rel.Quality,
	})
	if err != nil {
		log.Error("record processed failed", "error", err)
	}
}

func (p *Pipeline) notify(ctx context.Context, accepted []domain.AcceptedRelease) {
	if p.notifier == nil || len(accepted) == 0 {
		return
	}
	if err := p.notifier.PublishDigest(ctx, buildDigest(accepted)); err != nil {
		p.logger.Warn("publish digest failed", "error", err)
	}
}

func buildDigest(accepted []domain.AcceptedRelease) string {
	var b strings.Builder
	for _, item := range accepted {
		fmt.Fprintf(&b, "- %s (%d) %s\n%s\n\n", item.Release.Title, item.Release.Year, item.Release.Quality, item.Link)
	}
	return strings.TrimSpace(b.String())
}
