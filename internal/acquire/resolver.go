package acquire

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"FilmScanner/internal/domain"
	"FilmScanner/internal/ports"
)

// Resolver turns an accepted release into a downloadable link using an
// ordered sequence of query strategies against the torrent index.
type Resolver struct {
	index  ports.TorrentIndex
	logger *slog.Logger
}

var _ ports.LinkResolver = (*Resolver)(nil)

// NewResolver wires the torrent index.
func NewResolver(index ports.TorrentIndex, logger *slog.Logger) *Resolver {
	return &Resolver{index: index, logger: logger}
}

// Resolve tries the exact release name, the year-anchored rewrite, and
// finally a synthetic title/year/quality query, stopping at the first hit.
func (r *Resolver) Resolve(ctx context.Context, release domain.Release, entry domain.FeedEntry) (string, bool) {
	for _, query := range queries(release, releaseName(entry)) {
		if link, ok := r.search(ctx, query); ok {
			return link, true
		}
	}
	return "", false
}

func queries(release domain.Release, name string) []string {
	var out []string
	if name != "" {
		out = append(out, name)
		if rewritten := rewriteWithTitle(name, release); rewritten != "" {
			out = append(out, rewritten)
		}
	}
	return append(out, fmt.Sprintf("%s %d %s", release.Title, release.Year, release.Quality))
}

// releaseName extracts the token between the last path separator and the
// final extension of the first video-typed entry link.
func releaseName(entry domain.FeedEntry) string {
	for _, link := range entry.Links {
		if !strings.Contains(strings.ToLower(link.Type), "video") {
			continue
		}
		name := link.Href
		if i := strings.LastIndex(name, "/"); i >= 0 {
			name = name[i+1:]
		}
		if i := strings.LastIndex(name, "."); i > 0 {
			name = name[:i]
		}
		if name != "" {
			return name
		}
	}
	return ""
}

// rewriteWithTitle replaces everything up to and including the first
// occurrence of the year with the film title.
func rewriteWithTitle(name string, release domain.Release) string {
	year := strconv.Itoa(release.Year)
	i := strings.Index(name, year)
	if i < 0 {
		return ""
	}
	return release.Title + name[i+len(year):]
}

// search runs one query and picks a link from the first result entry: the
// magnet field when present, otherwise the first bittorrent-typed link.
// Transport failures count as a miss so the next strategy still runs.
func (r *Resolver) search(ctx context.Context, query string) (string, bool) {
	result, found, err := r.index.Search(ctx, query)
	if err != nil {
		r.logger.Warn("torrent search failed", "query", query, "error", err)
		return "", false
	}
	if !found {
		return "", false
	}

	if result.Magnet != "" {
		return result.Magnet, true
	}
	for _, link := range result.Links {
		if strings.Contains(strings.ToLower(link.Type), "bittorrent") {
			return link.Href, true
		}
	}
	return "", false
}
