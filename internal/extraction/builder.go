package extraction

import (
	"strings"

	"github.com/reviewguard/reviewguard/internal/models"
	"github.com/reviewguard/reviewguard/internal/page"
	"github.com/sirupsen/logrus"
)

// containerSearchDepth bounds the ancestor walk when locating the cluster
// that holds a comment's metadata markers.
const containerSearchDepth = 5

// minCommentWords is the signal-quality floor: comments with fewer
// whitespace-delimited tokens are treated as noise, not content.
const minCommentWords = 3

// idPrefixLen is how much of the comment text participates in the dedup
// identity.
const idPrefixLen = 20

// RecordBuilder turns comment nodes from a document snapshot into normalized
// CommentRecords. Extraction is best-effort: malformed clusters are skipped
// per comment and a failing document capability yields an empty result, never
// an error.
type RecordBuilder struct {
	selectors page.Selectors
}

func NewRecordBuilder(selectors page.Selectors) *RecordBuilder {
	return &RecordBuilder{selectors: selectors}
}

// Build extracts zero or more records from the document.
func (b *RecordBuilder) Build(doc page.Document) (records []models.CommentRecord) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("Comment extraction aborted by document capability: %v", r)
			records = nil
		}
	}()

	if doc == nil {
		return nil
	}

	for _, comment := range doc.Select(b.selectors.Comment) {
		container := b.findContainer(comment)
		if container == nil {
			continue
		}

		text := strings.TrimSpace(comment.Text())
		if len(strings.Fields(text)) < minCommentWords {
			continue
		}

		username, censored := b.extractUsername(container)
		rawTimestamp := b.extractRawTimestamp(container)
		meta := ParseReviewMeta(rawTimestamp)

		records = append(records, models.CommentRecord{
			ID:               recordID(username, rawTimestamp, text),
			Text:             text,
			Username:         username,
			IsCensored:       censored,
			RawTimestampText: rawTimestamp,
			Timestamp:        meta.Timestamp,
			Variation:        meta.Variation,
			Location:         meta.Location,
			StarRating:       b.extractStarRating(container),
		})
	}

	return records
}

// findContainer walks upward from a comment node to the nearest ancestor
// exposing both a username marker and a timestamp marker. Returns nil when no
// such ancestor exists within the depth bound; the caller skips the comment.
func (b *RecordBuilder) findContainer(comment page.Node) page.Node {
	container, ok := comment.Parent()
	for i := 0; i < containerSearchDepth; i++ {
		if !ok {
			return nil
		}

		_, hasCensored := container.SelectFirst(b.selectors.CensoredUsername)
		_, hasUncensored := container.SelectFirst(b.selectors.UncensoredUsername)
		_, hasTimestamp := container.SelectFirst(b.selectors.Timestamp)

		if (hasCensored || hasUncensored) && hasTimestamp {
			return container
		}
		container, ok = container.Parent()
	}
	return nil
}

// extractUsername prefers the uncensored marker when both are present. The
// censored flag reflects presence of the censored marker; it affects display
// only, never identity.
func (b *RecordBuilder) extractUsername(container page.Node) (string, bool) {
	censoredNode, hasCensored := container.SelectFirst(b.selectors.CensoredUsername)

	if uncensored, ok := container.SelectFirst(b.selectors.UncensoredUsername); ok {
		if name := strings.TrimSpace(uncensored.Text()); name != "" {
			return name, hasCensored
		}
	}
	if hasCensored {
		if name := strings.TrimSpace(censoredNode.Text()); name != "" {
			return name, true
		}
	}
	return models.UnknownUser, hasCensored
}

func (b *RecordBuilder) extractRawTimestamp(container page.Node) string {
	node, ok := container.SelectFirst(b.selectors.Timestamp)
	if !ok {
		return ""
	}
	return strings.TrimSpace(node.Text())
}

// extractStarRating counts solid-star elements inside the rating marker.
// A missing marker means "not found" and reports 0.
func (b *RecordBuilder) extractStarRating(container page.Node) int {
	rating, ok := container.SelectFirst(b.selectors.StarRating)
	if !ok {
		return 0
	}
	return len(rating.Select(b.selectors.SolidStar))
}

// recordID derives the stable dedup identity for a comment. Stable across
// repeated extraction of the same underlying comment; comments sharing a
// 20-char prefix still differ through username and timestamp.
func recordID(username, rawTimestamp, text string) string {
	prefix := text
	if len(prefix) > idPrefixLen {
		prefix = prefix[:idPrefixLen]
	}
	return username + "-" + rawTimestamp + "-" + prefix
}
