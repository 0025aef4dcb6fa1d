package page

import (
	"fmt"
	"html"
)

// AnalysisClass marks annotation nodes written by this tool, so re-extraction
// and mutation detection can tell our writes apart from site content.
const AnalysisClass = "comment-analysis"

// Annotator writes classification verdicts back onto a document.
type Annotator interface {
	// Annotate attaches a verdict annotation to the index-th comment node.
	// Out-of-range indexes are a no-op, not an error.
	Annotate(doc Document, index int, verdict, explanation string) error
}

// VerdictAnnotator appends a styled annotation div under each comment node,
// matching the overlay markup the extension rendered in-page.
type VerdictAnnotator struct {
	selectors Selectors
}

var _ Annotator = (*VerdictAnnotator)(nil)

func NewVerdictAnnotator(selectors Selectors) *VerdictAnnotator {
	return &VerdictAnnotator{selectors: selectors}
}

func (a *VerdictAnnotator) Annotate(doc Document, index int, verdict, explanation string) error {
	comments := doc.Select(a.selectors.Comment)
	if index < 0 || index >= len(comments) {
		return nil
	}

	color, background := verdictColors(verdict)
	markup := fmt.Sprintf(
		`<div class=%q style="margin-top:4px;padding:4px;border-radius:4px;font-size:12px;background-color:%s;border:1px solid %s"><span style="font-weight:bold;color:%s">%s</span>: %s</div>`,
		AnalysisClass, background, color, color,
		html.EscapeString(verdict), html.EscapeString(explanation),
	)
	// Write next to the comment node rather than inside it, so the comment's
	// own text stays clean for re-extraction and fingerprinting.
	if parent, ok := comments[index].Parent(); ok {
		parent.AppendHTML(markup)
	} else {
		comments[index].AppendHTML(markup)
	}
	return nil
}

func verdictColors(verdict string) (color, background string) {
	switch verdict {
	case "FAKE":
		return "#f55", "rgba(255,85,85,0.1)"
	case "SUSPICIOUS":
		return "#ffa500", "rgba(255,165,0,0.1)"
	case "NOT RELEVANT":
		return "#888", "rgba(128,128,128,0.1)"
	case "REAL", "GENUINE":
		return "#5f5", "rgba(85,255,85,0.1)"
	default:
		return "#666", "rgba(128,128,128,0.1)"
	}
}
