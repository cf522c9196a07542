package policy

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"FilmScanner/internal/domain"
	"FilmScanner/internal/ports"
)

// Criteria holds the operator thresholds shared by every feed.
type Criteria struct {
	Qualities    []string
	MinYear      int
	BannedGenres []string
	MinCritics   int
	MinUsers     int
}

// Genre lists arrive either pipe-delimited with optional padding or split on
// bare whitespace.
var genreSeparator = regexp.MustCompile(`\s*\|\s*|\s+`)

// Evaluator runs the ordered rejection chain. The rating stage talks to the
// external source and therefore runs last.
type Evaluator struct {
	criteria Criteria
	ratings  ports.RatingSource
	logger   *slog.Logger
}

var _ ports.ReleasePolicy = (*Evaluator)(nil)

// NewEvaluator wires the criteria and the rating source.
func NewEvaluator(criteria Criteria, ratings ports.RatingSource, logger *slog.Logger) *Evaluator {
	return &Evaluator{criteria: criteria, ratings: ratings, logger: logger}
}

// Evaluate applies each rule in order and stops at the first rejection.
func (e *Evaluator) Evaluate(ctx context.Context, feed domain.Feed, entry domain.FeedEntry, release domain.Release) domain.Verdict {
	if !qualityAllowed(release.Quality, e.criteria.Qualities) {
		return reject("quality", fmt.Sprintf("quality %s not in allowed set", release.Quality))
	}

	if release.Year < e.criteria.MinYear {
		return reject("year", fmt.Sprintf("year %d below minimum %d", release.Year, e.criteria.MinYear))
	}

	if genre, banned := e.bannedGenre(feed, entry); banned {
		return reject("genre", fmt.Sprintf("genre %s is banned", genre))
	}

	if feed.LanguagePattern != nil && !feed.LanguagePattern.MatchString(entry.Content) {
		return reject("language", "required language not present in entry content")
	}

	scores := e.lookupScores(ctx, release)
	if scores.Critics == domain.RatingUnknown || scores.Critics < e.criteria.MinCritics {
		return reject("rating", fmt.Sprintf("critics score %s below minimum %d", formatScore(scores.Critics), e.criteria.MinCritics))
	}
	if scores.Users == domain.RatingUnknown || scores.Users < e.criteria.MinUsers {
		return reject("rating", fmt.Sprintf("users score %s below minimum %d", formatScore(scores.Users), e.criteria.MinUsers))
	}

	return domain.Verdict{}
}

// qualityAllowed tolerates tag variants by matching substrings in both
// directions: parsed "720P-RLSBB" matches allowed "720P", and parsed "720P"
// matches allowed "HD720P".
func qualityAllowed(quality string, allowed []string) bool {
	q := strings.ToUpper(quality)
	for _, entry := range allowed {
		a := strings.ToUpper(entry)
		if strings.Contains(q, a) || strings.Contains(a, q) {
			return true
		}
	}
	return false
}

// bannedGenre extracts the genre list from the entry content. A content body
// the genre pattern cannot explain is treated as genre unknown, not as a
// rejection.
func (e *Evaluator) bannedGenre(feed domain.Feed, entry domain.FeedEntry) (string, bool) {
	if feed.GenrePattern == nil {
		return "", false
	}

	match := feed.GenrePattern.FindStringSubmatch(entry.Content)
	if len(match) < 2 {
		e.logger.Warn("genre pattern did not match entry content, proceeding", "feed", feed.URL)
		return "", false
	}

	for _, genre := range genreSeparator.Split(strings.TrimSpace(match[1]), -1) {
		if genre == "" {
			continue
		}
		for _, banned := range e.criteria.BannedGenres {
			if strings.EqualFold(genre, banned) {
				return genre, true
			}
		}
	}
	return "", false
}

// lookupScores queries the rating source for "{title} {year}". A transport
// failure degrades to both scores unknown so the run can continue; the rating
// rule then rejects the release.
func (e *Evaluator) lookupScores(ctx context.Context, release domain.Release) domain.RatingScores {
	name := fmt.Sprintf("%s %d", release.Title, release.Year)
	scores, err := e.ratings.Lookup(ctx, name)
	if err != nil {
		e.logger.Warn("rating lookup failed, treating scores as unknown", "name", name, "error", err)
		return domain.RatingScores{Critics: domain.RatingUnknown, Users: domain.RatingUnknown}
	}
	return scores
}

func reject(rule, reason string) domain.Verdict {
	return domain.Verdict{Rejected: true, Rule: rule, Reason: reason}
}

func formatScore(score int) string {
	if score == domain.RatingUnknown {
		return "unknown"
	}
	return strconv.Itoa(score)
}
