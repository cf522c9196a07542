package storage

import (
	"context"
	"path/filepath"
	"testing"

	"FilmScanner/internal/domain"
)

func openTestStore(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.db")
	repo, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestRecordAndIsProcessed(t *testing.T) {
	t.Parallel()

	repo, _ := openTestStore(t)
	ctx := context.Background()

	seen, err := repo.IsProcessed(ctx, "Inception", 2010)
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if seen {
		t.Fatalf("empty store reported a processed release")
	}

	err = repo.Record(ctx, domain.ProcessedRelease{
		FeedURL: "https://feeds.example.org/films.xml",
		Title:   "Inception",
		Year:    2010,
		Quality: "720P WEB",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	seen, err = repo.IsProcessed(ctx, "Inception", 2010)
	if err != nil {
		t.Fatalf("IsProcessed after record: %v", err)
	}
	if !seen {
		t.Fatalf("recorded release not found")
	}
}

func TestIsProcessedMatchesTitleCaseInsensitively(t *testing.T) {
	t.Parallel()

	repo, _ := openTestStore(t)
	ctx := context.Background()

	if err := repo.Record(ctx, domain.ProcessedRelease{Title: "Inception", Year: 2010, Quality: "1080P"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	seen, err := repo.IsProcessed(ctx, "INCEPTION", 2010)
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if !seen {
		t.Fatalf("case variant of recorded title not matched")
	}
}

func TestIsProcessedRequiresExactYear(t *testing.T) {
	t.Parallel()

	repo, _ := openTestStore(t)
	ctx := context.Background()

	if err := repo.Record(ctx, domain.ProcessedRelease{Title: "Dune", Year: 2021, Quality: "1080P"}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	seen, err := repo.IsProcessed(ctx, "Dune", 2024)
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if seen {
		t.Fatalf("a different year matched the recorded release")
	}
}

func TestRecordsSurviveReopen(t *testing.T) {
	t.Parallel()

	repo, path := openTestStore(t)
	ctx := context.Background()

	if err := repo.Record(ctx, domain.ProcessedRelease{Title: "Arrival", Year: 2016, Quality: "720P"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	seen, err := reopened.IsProcessed(ctx, "Arrival", 2016)
	if err != nil {
		t.Fatalf("IsProcessed after reopen: %v", err)
	}
	if !seen {
		t.Fatalf("record lost across reopen")
	}
}
