package analysis

import (
	"regexp"
	"strings"

	"github.com/reviewguard/reviewguard/internal/models"
)

// Recognized verdict tokens. Unrecognized backend strings pass through
// uppercased.
const (
	VerdictFake        = "FAKE"
	VerdictSuspicious  = "SUSPICIOUS"
	VerdictNotRelevant = "NOT RELEVANT"
	VerdictGenuine     = "GENUINE"
	VerdictReal        = "REAL"
)

// leadingLabelPattern pulls a verdict label off the front of an explanation
// when the backend put the verdict there instead of in its own field.
var leadingLabelPattern = regexp.MustCompile(`(?i)^(Genuine|Suspicious|Not Relevant|Fake|REAL|FAKE)\b\s*[:-]?\s*`)

const placeholderExplanation = "No explanation provided"

// NormalizeVerdict resolves the multi-level fallback chain that keeps this
// client compatible with heterogeneous backend versions: an explicit verdict
// field wins; absent that, a leading label inside the explanation; then the
// is_fake boolean; defaulting to REAL. It also fills in a readable
// explanation when the backend supplied none.
func NormalizeVerdict(result models.ClassificationResult) (verdict, explanation string) {
	explanation = strings.TrimSpace(result.Explanation)

	if v := strings.TrimSpace(result.Verdict); v != "" {
		return normalizeExplicit(v, explanation)
	}

	if explanation != "" {
		return normalizeFromExplanation(explanation, result.IsFake)
	}

	if result.IsFake != nil && *result.IsFake {
		return VerdictFake, "This review appears suspicious based on analysis."
	}
	return VerdictReal, "This review appears authentic."
}

func normalizeExplicit(backendVerdict, explanation string) (string, string) {
	lower := strings.ToLower(backendVerdict)

	switch {
	case lower == "fake" || strings.Contains(lower, "fake"):
		if emptyExplanation(explanation) {
			explanation = "This review appears suspicious based on analysis."
		}
		return VerdictFake, explanation
	case lower == "suspicious":
		if emptyExplanation(explanation) {
			explanation = "This review requires further investigation."
		}
		return VerdictSuspicious, explanation
	case lower == "not relevant":
		if emptyExplanation(explanation) {
			explanation = "This review is not related to the product."
		}
		return VerdictNotRelevant, explanation
	case lower == "genuine":
		if emptyExplanation(explanation) || strings.HasSuffix(strings.TrimSpace(explanation), "because") {
			explanation = "This review appears authentic and helpful."
		}
		return VerdictGenuine, explanation
	case lower == "real":
		return VerdictReal, explanation
	default:
		return strings.ToUpper(backendVerdict), explanation
	}
}

func normalizeFromExplanation(explanation string, isFake *bool) (string, string) {
	if m := leadingLabelPattern.FindStringSubmatch(explanation); m != nil {
		verdict := strings.ToUpper(m[1])
		rest := strings.TrimSpace(explanation[len(m[0]):])

		switch verdict {
		case VerdictFake, VerdictSuspicious, VerdictNotRelevant:
			return verdict, rest
		default:
			// Explanation-derived GENUINE collapses to REAL for display.
			if rest == "" {
				rest = "This review appears authentic and helpful."
			}
			return VerdictReal, rest
		}
	}

	lower := strings.ToLower(explanation)
	if strings.Contains(lower, "fake") || strings.Contains(lower, "suspicious") {
		return VerdictFake, explanation
	}

	if isFake != nil && *isFake {
		return VerdictFake, explanation
	}

	if emptyExplanation(explanation) || strings.HasSuffix(strings.TrimSpace(explanation), "because") {
		explanation = "This review appears authentic."
	}
	return VerdictReal, explanation
}

func emptyExplanation(explanation string) bool {
	return explanation == "" || explanation == placeholderExplanation
}
