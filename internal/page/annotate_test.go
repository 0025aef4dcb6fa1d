package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const annotateFixture = `<html><body>
<div class="shopee-product-comment-list">
	<div class="cluster"><div class="YNedDV">First comment text here</div></div>
	<div class="cluster"><div class="YNedDV">Second comment text here</div></div>
</div>
</body></html>`

func TestVerdictAnnotator_Annotate(t *testing.T) {
	doc, err := ParseHTML(annotateFixture, "https://shopee.sg/product/1/2")
	require.NoError(t, err)

	annotator := NewVerdictAnnotator(DefaultSelectors())
	require.NoError(t, annotator.Annotate(doc, 0, "FAKE", "Repetitive wording & generic praise"))

	html, err := doc.HTML()
	require.NoError(t, err)
	assert.Contains(t, html, AnalysisClass)
	assert.Contains(t, html, "FAKE")
	// Markup-significant characters in the explanation are escaped.
	assert.Contains(t, html, "Repetitive wording &amp; generic praise")
}

func TestVerdictAnnotator_DoesNotPolluteCommentText(t *testing.T) {
	doc, err := ParseHTML(annotateFixture, "https://shopee.sg/product/1/2")
	require.NoError(t, err)

	annotator := NewVerdictAnnotator(DefaultSelectors())
	require.NoError(t, annotator.Annotate(doc, 0, "REAL", "Looks authentic"))

	comments := doc.Select(DefaultSelectors().Comment)
	require.Len(t, comments, 2)
	assert.Equal(t, "First comment text here", comments[0].Text())
}

func TestVerdictAnnotator_OutOfRangeIsNoOp(t *testing.T) {
	doc, err := ParseHTML(annotateFixture, "https://shopee.sg/product/1/2")
	require.NoError(t, err)

	annotator := NewVerdictAnnotator(DefaultSelectors())
	assert.NoError(t, annotator.Annotate(doc, 5, "REAL", "ignored"))
	assert.NoError(t, annotator.Annotate(doc, -1, "REAL", "ignored"))
}
