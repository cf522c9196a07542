package feed

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mmcdole/gofeed"

	"FilmScanner/internal/domain"
)

// RSSScanner reads a syndication feed and normalizes its entries.
type RSSScanner struct {
	parser *gofeed.Parser
}

// NewRSSScanner wires an HTTP client into the feed parser.
func NewRSSScanner(client *http.Client) *RSSScanner {
	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = "FilmScanner/1.0"
	return &RSSScanner{parser: parser}
}

// Name identifies the strategy inside the registry.
func (s *RSSScanner) Name() string {
	return "rss"
}

// Fetch downloads and parses the feed. The item link and enclosures are
// flattened into the entry link list; enclosures carry the MIME type the
// resolver uses for video detection.
func (s *RSSScanner) Fetch(ctx context.Context, feedURL string) ([]domain.FeedEntry, error) {
	parsed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	entries := make([]domain.FeedEntry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		entries = append(entries, domain.FeedEntry{
			Title:   item.Title,
			Content: entryContent(item),
			Links:   entryLinks(item),
		})
	}
	return entries, nil
}

func entryContent(item *gofeed.Item) string {
	if item.Content != "" {
		return item.Content
	}
	return item.Description
}

func entryLinks(item *gofeed.Item) []domain.Link {
	links := make([]domain.Link, 0, len(item.Enclosures)+1)
	if item.Link != "" {
		links = append(links, domain.Link{Href: item.Link})
	}
	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		links = append(links, domain.Link{Href: enc.URL, Type: enc.Type})
	}
	return links
}
