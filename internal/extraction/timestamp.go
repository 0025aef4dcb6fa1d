package extraction

import (
	"regexp"
	"strings"
)

// ReviewMeta holds the structured fields parsed out of a review's free-text
// metadata line. Unparseable input degrades to empty fields with Raw
// preserved; parsing never fails.
type ReviewMeta struct {
	Timestamp string
	Variation string
	Location  string
	Raw       string
}

var timestampPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}\s\d{2}:\d{2}`)

const variationMarker = "Variation:"

// ParseReviewMeta parses a raw metadata string from a review cluster.
// Observed shapes:
//
//	"2024-01-05 10:30"
//	"2024-01-05 10:30 | Variation: Red, Size L"
//	"Jakarta | 2024-01-05 10:30"
//
// Segments without the Variation: marker that accompany a timestamp are
// treated as a location label. Anything without a timestamp match yields an
// empty Timestamp and the input preserved in Raw.
func ParseReviewMeta(raw string) ReviewMeta {
	meta := ReviewMeta{Raw: raw}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return meta
	}

	if ts := timestampPattern.FindString(trimmed); ts != "" {
		meta.Timestamp = ts
		meta.Variation, meta.Location = parseSegments(trimmed)
		return meta
	}

	// No whole-string match. Retry per segment in case stray characters sit
	// inside the delimited parts.
	for _, segment := range strings.Split(trimmed, "|") {
		if ts := timestampPattern.FindString(segment); ts != "" {
			meta.Timestamp = ts
			meta.Variation, meta.Location = parseSegments(trimmed)
			return meta
		}
	}

	return meta
}

// parseSegments walks the pipe-delimited segments around the timestamp and
// pulls out a variation or location label.
func parseSegments(s string) (variation, location string) {
	for _, segment := range strings.Split(s, "|") {
		segment = strings.TrimSpace(segment)
		if segment == "" || timestampPattern.MatchString(segment) {
			continue
		}
		if strings.HasPrefix(segment, variationMarker) {
			variation = strings.TrimSpace(strings.TrimPrefix(segment, variationMarker))
			continue
		}
		if location == "" {
			location = segment
		}
	}
	return variation, location
}
