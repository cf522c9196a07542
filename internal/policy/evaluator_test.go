package policy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"

	"FilmScanner/internal/domain"
)

type stubRatings struct {
	scores domain.RatingScores
	err    error
	calls  int
}

func (s *stubRatings) Lookup(ctx context.Context, name string) (domain.RatingScores, error) {
	s.calls++
	return s.scores, s.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func passingCriteria() Criteria {
	return Criteria{
		Qualities:    []string{"720P", "1080P"},
		MinYear:      2010,
		BannedGenres: []string{"WAR"},
		MinCritics:   70,
		MinUsers:     75,
	}
}

func sampleFeed(t *testing.T) domain.Feed {
	t.Helper()
	return domain.Feed{
		URL:             "https://feeds.example.org/films.xml",
		GenrePattern:    regexp.MustCompile(`Genres?:\s*([^<\n]+)`),
		LanguagePattern: regexp.MustCompile(`(?i)English`),
	}
}

func sampleEntry() domain.FeedEntry {
	return domain.FeedEntry{
		Title:   "Inception 2010 720p WEB-DL-GRP",
		Content: "Genre: Action | Sci-Fi\nLanguage: English",
	}
}

func sampleRelease() domain.Release {
	return domain.Release{Title: "Inception", Year: 2010, Quality: "720P WEB-DL"}
}

func TestEvaluatePassesAllStages(t *testing.T) {
	t.Parallel()

	ratings := &stubRatings{scores: domain.RatingScores{Critics: 85, Users: 80}}
	ev := NewEvaluator(passingCriteria(), ratings, discard())

	verdict := ev.Evaluate(context.Background(), sampleFeed(t), sampleEntry(), sampleRelease())
	if verdict.Rejected {
		t.Fatalf("expected pass, rejected by %s: %s", verdict.Rule, verdict.Reason)
	}
	if ratings.calls != 1 {
		t.Fatalf("expected one rating lookup, got %d", ratings.calls)
	}
}

func TestEvaluateQualityMatchesSubstringsBothWays(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		quality string
		allowed []string
		want    bool
	}{
		{"allowed inside parsed", "720P-RLSBB", []string{"720P"}, true},
		{"parsed inside allowed", "720P", []string{"HD720P"}, true},
		{"case insensitive", "bdrip1080", []string{"BDRip"}, true},
		{"no overlap", "CAM", []string{"720P", "1080P"}, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := qualityAllowed(tc.quality, tc.allowed); got != tc.want {
				t.Fatalf("qualityAllowed(%q, %v) = %v, want %v", tc.quality, tc.allowed, got, tc.want)
			}
		})
	}
}

func TestEvaluateRejectsOldYear(t *testing.T) {
	t.Parallel()

	criteria := passingCriteria()
	criteria.MinYear = 2015
	ratings := &stubRatings{scores: domain.RatingScores{Critics: 99, Users: 99}}
	ev := NewEvaluator(criteria, ratings, discard())

	verdict := ev.Evaluate(context.Background(), sampleFeed(t), sampleEntry(), sampleRelease())
	if !verdict.Rejected || verdict.Rule != "year" {
		t.Fatalf("expected year rejection, got %+v", verdict)
	}
	if ratings.calls != 0 {
		t.Fatalf("rating stage must not run after an earlier rejection")
	}
}

func TestEvaluateRejectsBannedGenre(t *testing.T) {
	t.Parallel()

	ev := NewEvaluator(passingCriteria(), &stubRatings{scores: domain.RatingScores{Critics: 99, Users: 99}}, discard())

	entry := sampleEntry()
	entry.Content = "Genre: Action|War\nLanguage: English"

	verdict := ev.Evaluate(context.Background(), sampleFeed(t), entry, sampleRelease())
	if !verdict.Rejected || verdict.Rule != "genre" {
		t.Fatalf("expected genre rejection, got %+v", verdict)
	}
}

func TestEvaluateUnmatchedGenrePatternProceeds(t *testing.T) {
	t.Parallel()

	ev := NewEvaluator(passingCriteria(), &stubRatings{scores: domain.RatingScores{Critics: 99, Users: 99}}, discard())

	entry := sampleEntry()
	entry.Content = "no structured fields here but English is mentioned"

	verdict := ev.Evaluate(context.Background(), sampleFeed(t), entry, sampleRelease())
	if verdict.Rejected {
		t.Fatalf("genre-unknown content must not reject, got %+v", verdict)
	}
}

func TestEvaluateRejectsMissingLanguage(t *testing.T) {
	t.Parallel()

	ev := NewEvaluator(passingCriteria(), &stubRatings{scores: domain.RatingScores{Critics: 99, Users: 99}}, discard())

	entry := sampleEntry()
	entry.Content = "Genre: Action\nLanguage: French"

	verdict := ev.Evaluate(context.Background(), sampleFeed(t), entry, sampleRelease())
	if !verdict.Rejected || verdict.Rule != "language" {
		t.Fatalf("expected language rejection, got %+v", verdict)
	}
}

func TestEvaluateRejectsUnknownCriticsEvenWithGoodUsers(t *testing.T) {
	t.Parallel()

	ratings := &stubRatings{scores: domain.RatingScores{Critics: domain.RatingUnknown, Users: 80}}
	ev := NewEvaluator(passingCriteria(), ratings, discard())

	verdict := ev.Evaluate(context.Background(), sampleFeed(t), sampleEntry(), sampleRelease())
	if !verdict.Rejected || verdict.Rule != "rating" {
		t.Fatalf("expected rating rejection, got %+v", verdict)
	}
}

func TestEvaluateRejectsUsersBelowThreshold(t *testing.T) {
	t.Parallel()

	ratings := &stubRatings{scores: domain.RatingScores{Critics: 85, Users: 60}}
	ev := NewEvaluator(passingCriteria(), ratings, discard())

	verdict := ev.Evaluate(context.Background(), sampleFeed(t), sampleEntry(), sampleRelease())
	if !verdict.Rejected || verdict.Rule != "rating" {
		t.Fatalf("expected rating rejection, got %+v", verdict)
	}
}

func TestEvaluateDegradesLookupFailureToUnknown(t *testing.T) {
	t.Parallel()

	ratings := &stubRatings{err: errors.New("connection refused")}
	ev := NewEvaluator(passingCriteria(), ratings, discard())

	verdict := ev.Evaluate(context.Background(), sampleFeed(t), sampleEntry(), sampleRelease())
	if !verdict.Rejected || verdict.Rule != "rating" {
		t.Fatalf("lookup failure must reject at the rating stage, got %+v", verdict)
	}
}
