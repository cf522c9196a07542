package rss

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"FilmScanner/internal/domain"
	"FilmScanner/internal/ports"
)

// insertMarker is the fixed insertion point. New items are spliced directly
// below it, so the newest release always sits on top of the channel.
const insertMarker = "<!-- filmscanner:items -->"

const pubDateLayout = "Mon, 02 Jan 2006 15:04:05 -0700"

// ChannelInfo describes the output feed metadata used for the skeleton.
type ChannelInfo struct {
	Title       string
	Link        string
	Description string
}

// Sink appends accepted releases to an RSS document on disk, creating the
// document with a fixed skeleton when it does not exist yet.
type Sink struct {
	path    string
	channel ChannelInfo
	now     func() time.Time
}

var _ ports.FeedSink = (*Sink)(nil)

// NewSink builds a sink writing to path.
func NewSink(path string, channel ChannelInfo) *Sink {
	return &Sink{path: path, channel: channel, now: time.Now}
}

type cdata struct {
	Value string `xml:",cdata"`
}

type xmlItem struct {
	XMLName xml.Name `xml:"item"`
	Title   cdata    `xml:"title"`
	Link    cdata    `xml:"link"`
	PubDate string   `xml:"pubDate"`
}

type xmlDocument struct {
	XMLName xml.Name  `xml:"rss"`
	Items   []xmlItem `xml:"channel>item"`
}

// Append loads the current document, splices the new item directly below the
// insertion marker, and atomically replaces the file, so a crash mid-write
// never truncates the feed.
func (s *Sink) Append(ctx context.Context, item domain.OutputItem) error {
	_ = ctx

	items, err := s.loadItems()
	if err != nil {
		return err
	}

	entry := xmlItem{
		Title:   cdata{Value: item.Title},
		Link:    cdata{Value: item.Link},
		PubDate: s.now().Format(pubDateLayout),
	}
	items = append([]xmlItem{entry}, items...)

	return s.write(items)
}

// loadItems tolerates a missing document; the skeleton is created on the
// first write.
func (s *Sink) loadItems() ([]xmlItem, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read output feed: %w", err)
	}

	var doc xmlDocument
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse output feed: %w", err)
	}
	return doc.Items, nil
}

func (s *Sink) write(items []xmlItem) error {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString("<rss version=\"2.0\">\n<channel>\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", escape(s.channel.Title))
	fmt.Fprintf(&b, "<link>%s</link>\n", escape(s.channel.Link))
	fmt.Fprintf(&b, "<description>%s</description>\n", escape(s.channel.Description))
	b.WriteString(insertMarker + "\n")
	for _, item := range items {
		payload, err := xml.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal item: %w", err)
		}
		b.Write(payload)
		b.WriteString("\n")
	}
	b.WriteString("</channel>\n</rss>\n")

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".feed-*.xml")
	if err != nil {
		return fmt.Errorf("create temp feed: %w", err)
	}
	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp feed: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("sync temp feed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp feed: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace output feed: %w", err)
	}
	return nil
}

func escape(value string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(value))
	return b.String()
}
