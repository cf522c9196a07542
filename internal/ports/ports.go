package ports

import (
	"context"
	"time"

	"FilmScanner/internal/domain"
)

// ReleaseSource pulls the raw entries of one configured feed.
type ReleaseSource interface {
	Fetch(ctx context.Context, feed domain.Feed) ([]domain.FeedEntry, error)
}

// ReleaseRepository persists terminal decisions for deduplication across runs.
// Record must be durable before it returns.
type ReleaseRepository interface {
	IsProcessed(ctx context.Context, title string, year int) (bool, error)
	Record(ctx context.Context, rec domain.ProcessedRelease) error
}

// RatingSource resolves a film name to its critic and audience scores.
type RatingSource interface {
	Lookup(ctx context.Context, name string) (domain.RatingScores, error)
}

// TorrentIndex searches the external torrent source for a query and returns
// the first entry of the result feed, if any.
type TorrentIndex interface {
	Search(ctx context.Context, query string) (domain.TorrentResult, bool, error)
}

// ReleasePolicy evaluates a parsed release against the operator criteria.
type ReleasePolicy interface {
	Evaluate(ctx context.Context, feed domain.Feed, entry domain.FeedEntry, release domain.Release) domain.Verdict
}

// LinkResolver turns an accepted release into a downloadable link.
type LinkResolver interface {
	Resolve(ctx context.Context, release domain.Release, entry domain.FeedEntry) (string, bool)
}

// FeedSink appends accepted releases to the output feed document.
type FeedSink interface {
	Append(ctx context.Context, item domain.OutputItem) error
}

// Notifier publishes the run digest to an operator channel.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
