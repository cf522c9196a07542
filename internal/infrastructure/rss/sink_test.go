package rss

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"FilmScanner/internal/domain"
)

func newTestSink(t *testing.T) *Sink {
	t.Helper()
	sink := NewSink(filepath.Join(t.TempDir(), "releases.xml"), ChannelInfo{
		Title:       "FilmScanner releases",
		Link:        "https://localhost/releases.xml",
		Description: "Accepted film releases",
	})
	sink.now = func() time.Time {
		return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	}
	return sink
}

func TestAppendCreatesSkeletonWithMarker(t *testing.T) {
	t.Parallel()

	sink := newTestSink(t)
	err := sink.Append(context.Background(), domain.OutputItem{
		Title: "Inception (2010)",
		Link:  "magnet:?xt=urn:btih:abc",
	})
	if err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	raw, err := os.ReadFile(sink.path)
	if err != nil {
		t.Fatalf("read output feed: %v", err)
	}
	content := string(raw)

	if !strings.Contains(content, insertMarker) {
		t.Fatalf("skeleton is missing the insertion marker:\n%s", content)
	}
	if !strings.Contains(content, "<title>FilmScanner releases</title>") {
		t.Fatalf("skeleton is missing the channel title:\n%s", content)
	}
	if !strings.Contains(content, "<![CDATA[Inception (2010)]]>") {
		t.Fatalf("item title is not wrapped in CDATA:\n%s", content)
	}
	if !strings.Contains(content, "Wed, 01 May 2024 12:00:00 +0000") {
		t.Fatalf("pubDate not rendered in RFC 1123 form:\n%s", content)
	}
}

func TestAppendKeepsNewestItemFirst(t *testing.T) {
	t.Parallel()

	sink := newTestSink(t)
	ctx := context.Background()

	first := domain.OutputItem{Title: "Older Film (2019)", Link: "magnet:?xt=urn:btih:old"}
	second := domain.OutputItem{Title: "Newer Film (2024)", Link: "magnet:?xt=urn:btih:new"}
	if err := sink.Append(ctx, first); err != nil {
		t.Fatalf("first Append: %v", err)
	}
	if err := sink.Append(ctx, second); err != nil {
		t.Fatalf("second Append: %v", err)
	}

	items, err := sink.loadItems()
	if err != nil {
		t.Fatalf("loadItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Title.Value != second.Title {
		t.Fatalf("newest item is not first: %q", items[0].Title.Value)
	}
	if items[1].Link.Value != first.Link {
		t.Fatalf("older item link lost: %q", items[1].Link.Value)
	}

	raw, err := os.ReadFile(sink.path)
	if err != nil {
		t.Fatalf("read output feed: %v", err)
	}
	content := string(raw)
	marker := strings.Index(content, insertMarker)
	newest := strings.Index(content, "Newer Film")
	older := strings.Index(content, "Older Film")
	if marker < 0 || newest < marker || older < newest {
		t.Fatalf("items are not ordered newest-first below the marker:\n%s", content)
	}
}

func TestAppendPreservesExistingItemsAcrossSinkInstances(t *testing.T) {
	t.Parallel()

	sink := newTestSink(t)
	ctx := context.Background()
	if err := sink.Append(ctx, domain.OutputItem{Title: "Kept Film (2020)", Link: "magnet:?xt=urn:btih:kept"}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	reopened := NewSink(sink.path, sink.channel)
	if err := reopened.Append(ctx, domain.OutputItem{Title: "Fresh Film (2021)", Link: "magnet:?xt=urn:btih:fresh"}); err != nil {
		t.Fatalf("Append on reopened sink: %v", err)
	}

	items, err := reopened.loadItems()
	if err != nil {
		t.Fatalf("loadItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected both items to survive, got %d", len(items))
	}
	if items[1].Title.Value != "Kept Film (2020)" {
		t.Fatalf("existing item lost after reopen: %+v", items)
	}
}

func TestAppendFailsOnCorruptDocument(t *testing.T) {
	t.Parallel()

	sink := newTestSink(t)
	if err := os.WriteFile(sink.path, []byte("not xml at all <"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	err := sink.Append(context.Background(), domain.OutputItem{Title: "X", Link: "magnet:x"})
	if err == nil {
		t.Fatalf("expected parse error for corrupt document")
	}
}
