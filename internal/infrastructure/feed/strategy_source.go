package feed

import (
	"context"
	"fmt"
	"log/slog"

	"FilmScanner/internal/domain"
	"FilmScanner/internal/ports"
	"FilmScanner/internal/scanner"
)

const defaultScanner = "rss"

// StrategySource implements ReleaseSource via registered scanner strategies.
type StrategySource struct {
	registry *scanner.Registry
	logger   *slog.Logger
}

var _ ports.ReleaseSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry.
func NewStrategySource(reg *scanner.Registry, logger *slog.Logger) *StrategySource {
	return &StrategySource{registry: reg, logger: logger}
}

// Fetch resolves the feed's scanner strategy and pulls its entries.
func (s *StrategySource) Fetch(ctx context.Context, feed domain.Feed) ([]domain.FeedEntry, error) {
	name := feed.Scanner
	if name == "" {
		name = defaultScanner
	}

	strategy, err := s.registry.Resolve(name)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", feed.URL, err)
	}

	entries, err := strategy.Fetch(ctx, feed.URL)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("feed scanned", "url", feed.URL, "scanner", name, "entries", len(entries))
	return entries, nil
}
