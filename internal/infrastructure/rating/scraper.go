package rating

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"FilmScanner/internal/domain"
	"FilmScanner/internal/infrastructure/fetch"
	"FilmScanner/internal/ports"
)

const queryPlaceholder = "{query}"

// Both patterns must match from the document start, tolerating arbitrary
// leading content up to the first occurrence of the labelled score.
var (
	criticsExpr = regexp.MustCompile(`(?is)\A.*?critics?\D{0,40}?(\d{1,3})\s*%`)
	usersExpr   = regexp.MustCompile(`(?is)\A.*?audience\D{0,40}?(\d{1,3})\s*%`)
)

// Scraper queries the rating source and extracts the two percentage scores
// from the page text.
type Scraper struct {
	queryURL string
	client   *fetch.Client
	logger   *slog.Logger
}

var _ ports.RatingSource = (*Scraper)(nil)

// NewScraper takes the query URL template containing the {query} placeholder.
func NewScraper(queryURL string, client *fetch.Client, logger *slog.Logger) *Scraper {
	return &Scraper{queryURL: queryURL, client: client, logger: logger}
}

// Lookup fetches the rating page for the name and extracts both scores
// independently; either may come back unknown without affecting the other.
func (s *Scraper) Lookup(ctx context.Context, name string) (domain.RatingScores, error) {
	pageURL := strings.Replace(s.queryURL, queryPlaceholder, url.QueryEscape(name), 1)

	body, err := s.client.Get(ctx, pageURL)
	if err != nil {
		return domain.RatingScores{}, fmt.Errorf("rating query: %w", err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return domain.RatingScores{}, fmt.Errorf("parse rating page: %w", err)
	}

	text := doc.Text()
	scores := domain.RatingScores{
		Critics: extractScore(criticsExpr, text),
		Users:   extractScore(usersExpr, text),
	}
	s.logger.Debug("rating extracted", "name", name, "critics", scores.Critics, "users", scores.Users)
	return scores, nil
}

func extractScore(expr *regexp.Regexp, text string) int {
	match := expr.FindStringSubmatch(text)
	if match == nil {
		return domain.RatingUnknown
	}
	score, err := strconv.Atoi(match[1])
	if err != nil || score < 0 || score > 100 {
		return domain.RatingUnknown
	}
	return score
}
