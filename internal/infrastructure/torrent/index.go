package torrent

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mmcdole/gofeed"

	"FilmScanner/internal/domain"
	"FilmScanner/internal/infrastructure/fetch"
	"FilmScanner/internal/ports"
)

const queryPlaceholder = "{query}"

// Index searches a torrent RSS endpoint and exposes the first result entry.
type Index struct {
	queryURL string
	client   *fetch.Client
	parser   *gofeed.Parser
}

var _ ports.TorrentIndex = (*Index)(nil)

// NewIndex takes the search URL template containing the {query} placeholder.
func NewIndex(queryURL string, client *fetch.Client) *Index {
	return &Index{queryURL: queryURL, client: client, parser: gofeed.NewParser()}
}

// Search runs one query against the index and parses the response as a
// syndication feed. found is false when the feed has no entries.
func (i *Index) Search(ctx context.Context, query string) (domain.TorrentResult, bool, error) {
	searchURL := strings.Replace(i.queryURL, queryPlaceholder, url.QueryEscape(query), 1)

	body, err := i.client.Get(ctx, searchURL)
	if err != nil {
		return domain.TorrentResult{}, false, fmt.Errorf("torrent query: %w", err)
	}
	defer body.Close()

	parsed, err := i.parser.Parse(body)
	if err != nil {
		return domain.TorrentResult{}, false, fmt.Errorf("parse torrent feed: %w", err)
	}
	if len(parsed.Items) == 0 {
		return domain.TorrentResult{}, false, nil
	}

	item := parsed.Items[0]
	return domain.TorrentResult{
		Magnet: magnetURI(item),
		Links:  itemLinks(item),
	}, true, nil
}

// magnetURI reads the torrent namespace extension some indexes attach, and
// falls back to a magnet scheme in the plain item link.
func magnetURI(item *gofeed.Item) string {
	for _, ns := range []string{"torrent", "torznab"} {
		for _, name := range []string{"magnetURI", "magneturi", "magnet"} {
			if exts, ok := item.Extensions[ns][name]; ok && len(exts) > 0 && exts[0].Value != "" {
				return exts[0].Value
			}
		}
	}
	if strings.HasPrefix(item.Link, "magnet:") {
		return item.Link
	}
	return ""
}

func itemLinks(item *gofeed.Item) []domain.Link {
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
