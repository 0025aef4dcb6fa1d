package watch

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/reviewguard/reviewguard/internal/analysis"
	"github.com/reviewguard/reviewguard/internal/config"
	"github.com/reviewguard/reviewguard/internal/page"
	"github.com/reviewguard/reviewguard/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseWatchPage(t *testing.T, comment, activePage string) page.Document {
	t.Helper()
	html := `<html><head><title>Test Product - Shopee</title></head><body>
<div class="shopee-product-comment-list">
	<div class="YNedDV">` + comment + `</div>
</div>
<div class="shopee-page-controller">
	<button class="shopee-button-solid--primary">` + activePage + `</button>
</div>
</body></html>`
	doc, err := page.ParseHTML(html, "https://shopee.sg/product/123/456")
	require.NoError(t, err)
	return doc
}

func newWatchService(cfg *config.Config) *Service {
	return NewService(cfg, page.NewFetcher(5*time.Second, 0), page.DefaultSelectors())
}

func TestCommentRegionHash(t *testing.T) {
	svc := newWatchService(&config.Config{})

	a := svc.commentRegionHash(parseWatchPage(t, "Great product overall", "1"))
	b := svc.commentRegionHash(parseWatchPage(t, "Great product overall", "2"))
	c := svc.commentRegionHash(parseWatchPage(t, "Different comment text", "1"))

	assert.Equal(t, a, b, "pagination controls do not affect the comment hash")
	assert.NotEqual(t, a, c, "comment text changes the hash")

	empty, err := page.ParseHTML("<html><body></body></html>", "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, analysis.Fingerprint(nil), svc.commentRegionHash(empty))
}

func TestActivePaginationLabel(t *testing.T) {
	svc := newWatchService(&config.Config{})

	assert.Equal(t, "3", svc.activePaginationLabel(parseWatchPage(t, "x", "3")))

	noControls, err := page.ParseHTML("<html><body></body></html>", "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "", svc.activePaginationLabel(noControls))
}

func TestStart_RequiresOrchestrator(t *testing.T) {
	svc := newWatchService(&config.Config{WatchInterval: 30 * time.Second})
	err := svc.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "orchestrator")
}

func TestSnapshot_FetchesAndCaches(t *testing.T) {
	var mu sync.Mutex
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		w.Write([]byte(`<html><head><title>Cached - Shopee</title></head><body>
<div class="YNedDV">Great product overall</div></body></html>`))
	}))
	defer server.Close()

	cfg := &config.Config{WatchURL: server.URL}
	svc := newWatchService(cfg)

	doc, err := svc.Snapshot()
	require.NoError(t, err)
	assert.Contains(t, doc.Title(), "Cached")

	// Second read serves the cached document.
	_, err = svc.Snapshot()
	require.NoError(t, err)
	mu.Lock()
	assert.Equal(t, 1, requests)
	mu.Unlock()
}

func TestCheck_FirstFetchTriggersPipeline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Test - Shopee</title></head><body>
<div class="YNedDV">Great product overall</div></body></html>`))
	}))
	defer server.Close()

	cfg := &config.Config{
		WatchURL: server.URL,
		// Long debounce keeps the pipeline parked in Debouncing so the test
		// can observe the trigger without a pass running.
		DebounceInterval:  time.Hour,
		ClassifierTimeout: time.Second,
	}
	svc := newWatchService(cfg)
	orch := pipeline.NewOrchestrator(
		cfg, svc, nil,
		analysis.NewCache(analysis.DefaultTTL, analysis.DefaultCapacity),
		page.NewVerdictAnnotator(page.DefaultSelectors()),
		nil, nil, page.DefaultSelectors(),
	)
	svc.Bind(orch)

	require.Equal(t, pipeline.StateIdle, orch.State())
	svc.check()
	assert.Equal(t, pipeline.StateDebouncing, orch.State())
}

func TestCheck_FetchFailureIsSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	server.Close()

	cfg := &config.Config{
		WatchURL:          server.URL,
		DebounceInterval:  time.Hour,
		ClassifierTimeout: time.Second,
	}
	svc := newWatchService(cfg)
	orch := pipeline.NewOrchestrator(
		cfg, svc, nil,
		analysis.NewCache(analysis.DefaultTTL, analysis.DefaultCapacity),
		page.NewVerdictAnnotator(page.DefaultSelectors()),
		nil, nil, page.DefaultSelectors(),
	)
	svc.Bind(orch)

	svc.check()
	assert.Equal(t, pipeline.StateIdle, orch.State(), "fetch failure must not trigger a pass")
}
