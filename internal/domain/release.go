package domain

import "regexp"

// Feed describes one monitored release feed together with the extraction
// patterns the operator supplies for it. Immutable for the duration of a run.
type Feed struct {
	URL             string
	Scanner         string
	GenrePattern    *regexp.Regexp
	LanguagePattern *regexp.Regexp
}

// Link is one alternative location attached to a feed entry.
type Link struct {
	Href string
	Type string
}

// FeedEntry is a raw announcement pulled from a source feed.
type FeedEntry struct {
	Title   string
	Content string
	Links   []Link
}

// Release holds the structured fields extracted from an entry title.
type Release struct {
	Title   string
	Year    int
	Quality string
	Tag     string
}

// ProcessedRelease is the durable dedup record for a terminal decision.
// The dedup key is the case-insensitive title plus the exact year; quality
// and feed URL are kept for audit only.
type ProcessedRelease struct {
	FeedURL string
	Title   string
	Year    int
	Quality string
}

// RatingUnknown marks a score that could not be extracted.
const RatingUnknown = -1

// RatingScores carries the two percentage scores returned by the rating
// source. Either score may be RatingUnknown independently of the other.
type RatingScores struct {
	Critics int
	Users   int
}

// Verdict is the outcome of the criteria chain for one release.
type Verdict struct {
	Rejected bool
	Rule     string
	Reason   string
}

// TorrentResult is the first usable entry of a torrent search response.
type TorrentResult struct {
	Magnet string
	Links  []Link
}

// OutputItem is one accepted release published into the output feed.
type OutputItem struct {
	Title string
	Link  string
}

// AcceptedRelease pairs a release with its resolved link for the run digest.
type AcceptedRelease struct {
	Release Release
	Link    string
}
