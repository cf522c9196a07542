package release

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"FilmScanner/internal/domain"
)

// ErrNoMatch reports a title the feed pattern cannot explain. Entries with
// unparseable titles are skipped without being recorded, so they are seen
// again on the next run.
var ErrNoMatch = errors.New("title does not match feed pattern")

const groupCount = 4

// Parser extracts structured release fields from free-text entry titles
// using the feed-specific pattern.
type Parser struct {
	pattern *regexp.Regexp
}

// NewParser anchors the feed pattern at both ends and validates its shape.
// The pattern must capture exactly four groups: title, four-digit year,
// quality, and trailing tag.
func NewParser(pattern string) (*Parser, error) {
	anchored, err := regexp.Compile(`\A(?:` + pattern + `)\z`)
	if err != nil {
		return nil, fmt.Errorf("compile title pattern: %w", err)
	}
	if anchored.NumSubexp() != groupCount {
		return nil, fmt.Errorf("title pattern must capture exactly %d groups, has %d", groupCount, anchored.NumSubexp())
	}
	return &Parser{pattern: anchored}, nil
}

// Parse matches the whole title and returns the extracted release with the
// quality uppercased. The year must be exactly four digits and must not run
// into another digit; RE2 has no lookahead, so the adjacency guard is checked
// against the match indexes instead of inside the pattern.
func (p *Parser) Parse(rawTitle string) (domain.Release, error) {
	idx := p.pattern.FindStringSubmatchIndex(rawTitle)
	if idx == nil {
		return domain.Release{}, fmt.Errorf("%w: %q", ErrNoMatch, rawTitle)
	}

	yearText := group(rawTitle, idx, 2)
	if len(yearText) != 4 {
		return domain.Release{}, fmt.Errorf("%w: year %q is not four digits", ErrNoMatch, yearText)
	}
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return domain.Release{}, fmt.Errorf("%w: year %q is not numeric", ErrNoMatch, yearText)
	}
	if end := idx[5]; end < len(rawTitle) && rawTitle[end] >= '0' && rawTitle[end] <= '9' {
		return domain.Release{}, fmt.Errorf("%w: year %q runs into another number", ErrNoMatch, yearText)
	}

	return domain.Release{
		Title:   strings.TrimSpace(group(rawTitle, idx, 1)),
		Year:    year,
		Quality: strings.ToUpper(group(rawTitle, idx, 3)),
		Tag:     group(rawTitle, idx, 4),
	}, nil
}

func group(s string, idx []int, n int) string {
	start, end := idx[2*n], idx[2*n+1]
	if start < 0 {
		return ""
	}
	return s[start:end]
}
