package pipeline

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/reviewguard/reviewguard/internal/analysis"
	"github.com/reviewguard/reviewguard/internal/classifier"
	"github.com/reviewguard/reviewguard/internal/config"
	"github.com/reviewguard/reviewguard/internal/extraction"
	"github.com/reviewguard/reviewguard/internal/models"
	"github.com/reviewguard/reviewguard/internal/page"
	"github.com/sirupsen/logrus"
)

// State is the orchestrator's pipeline position. At most one pass is in
// flight at a time: entry into Extracting is refused unless the machine is
// debouncing toward it.
type State int

const (
	StateIdle State = iota
	StateDebouncing
	StateExtracting
	StateAwaitingClassification
	StateReconciling
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDebouncing:
		return "debouncing"
	case StateExtracting:
		return "extracting"
	case StateAwaitingClassification:
		return "awaiting_classification"
	case StateReconciling:
		return "reconciling"
	default:
		return "unknown"
	}
}

// DocumentSource supplies the current page snapshot on demand.
type DocumentSource interface {
	Snapshot() (page.Document, error)
}

// Metrics holds pipeline counters, served as JSON by the /metrics endpoint.
type Metrics struct {
	Passes                int       `json:"passes"`
	CacheHits             int       `json:"cache_hits"`
	ClassifierCalls       int       `json:"classifier_calls"`
	ClassifierErrors      int       `json:"classifier_errors"`
	StaleResultsDiscarded int       `json:"stale_results_discarded"`
	RecordsAccumulated    int       `json:"records_accumulated"`
	LastPass              time.Time `json:"last_pass"`
	LastPassDuration      string    `json:"last_pass_duration"`
}

// Orchestrator coordinates extraction triggers, debouncing, cache consults,
// classification, and annotation write-back. Triggers collapse into one pass
// per debounce window; a trigger landing while a pass is active queues at
// most one follow-up pass.
type Orchestrator struct {
	cfg        *config.Config
	source     DocumentSource
	classifier classifier.Service
	cache      *analysis.Cache
	store      *extraction.AccumulationStore
	builder    *extraction.RecordBuilder
	annotator  page.Annotator
	status     StatusReporter
	clock      Clock
	selectors  page.Selectors

	mu                   sync.Mutex
	state                State
	paginationInProgress bool
	suppressMutations    bool
	pendingTrigger       bool
	currentPageID        string
	activeToken          string
	debounceTimer        Timer
	lastResults          []models.AnalysisResult
	lastReport           *models.AnalysisReport
	metrics              Metrics

	// newToken mints the call-identity token per pass; overridable in tests.
	newToken func() string

	// onReport, when set, receives the report of each completed pass.
	onReport func(*models.AnalysisReport)
}

// NewOrchestrator creates the pipeline orchestrator.
func NewOrchestrator(
	cfg *config.Config,
	source DocumentSource,
	classifierService classifier.Service,
	cache *analysis.Cache,
	annotator page.Annotator,
	status StatusReporter,
	clock Clock,
	selectors page.Selectors,
) *Orchestrator {
	if clock == nil {
		clock = NewClock()
	}
	if status == nil {
		status = NewTransientStatus(0)
	}
	return &Orchestrator{
		cfg:        cfg,
		source:     source,
		classifier: classifierService,
		cache:      cache,
		store:      extraction.NewAccumulationStore(),
		builder:    extraction.NewRecordBuilder(selectors),
		annotator:  annotator,
		status:     status,
		clock:      clock,
		selectors:  selectors,
		newToken:   uuid.NewString,
	}
}

// SetReportHandler registers a callback invoked with the report of every
// completed pass (export, notifications).
func (o *Orchestrator) SetReportHandler(handler func(*models.AnalysisReport)) {
	o.onReport = handler
}

// OnMutation handles a DOM mutation trigger. Mutations caused by our own
// annotation writes are ignored while the write is in progress.
func (o *Orchestrator) OnMutation() {
	o.mu.Lock()
	if o.suppressMutations {
		o.mu.Unlock()
		logrus.Debug("Ignoring self-inflicted mutation")
		return
	}
	o.mu.Unlock()
	o.trigger("mutation")
}

// OnPagination handles a pagination-control trigger. While pagination is in
// progress the cache read is bypassed: the visible comment set is in flux.
func (o *Orchestrator) OnPagination() {
	o.mu.Lock()
	o.paginationInProgress = true
	o.mu.Unlock()
	o.trigger("pagination")
}

// OnURLChange handles a location change. A change within the same page
// identity is in-page pagination; a different identity is a navigation,
// which resets accumulation and invalidates any in-flight classification.
func (o *Orchestrator) OnURLChange(newURL string) {
	pageID := page.Identity(newURL)

	o.mu.Lock()
	if o.currentPageID != "" && pageID == o.currentPageID {
		o.paginationInProgress = true
		o.mu.Unlock()
		o.trigger("url_pagination")
		return
	}

	logrus.Infof("Navigation to new page identity %s", pageID)
	o.currentPageID = pageID
	o.paginationInProgress = false
	o.store.Reset()
	// Invalidate any outstanding classification; its result arrives stale.
	o.activeToken = o.newToken()
	o.mu.Unlock()
	o.trigger("navigation")
}

// OnPoll handles the low-frequency fallback poll.
func (o *Orchestrator) OnPoll() {
	o.trigger("poll")
}

// TriggerManual handles an explicit user-requested pass.
func (o *Orchestrator) TriggerManual() {
	o.trigger("manual")
}

// trigger moves the machine toward a pass. Idle starts the debounce window;
// further triggers inside the window reset the timer (last-write-wins); a
// trigger during an active pass queues one follow-up.
func (o *Orchestrator) trigger(kind string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	logrus.Debugf("Trigger received: %s (state=%s)", kind, o.state)

	switch o.state {
	case StateIdle:
		o.state = StateDebouncing
		o.debounceTimer = o.clock.AfterFunc(o.cfg.DebounceInterval, o.runPass)
	case StateDebouncing:
		o.debounceTimer.Reset(o.cfg.DebounceInterval)
	default:
		// A pass is in flight. Coalesce into at most one follow-up.
		o.pendingTrigger = true
	}
}

// runPass executes one full pipeline pass. It fires on the debounce timer's
// goroutine; the state checks under the mutex enforce the single-pass
// invariant.
func (o *Orchestrator) runPass() {
	o.mu.Lock()
	if o.state != StateDebouncing {
		o.mu.Unlock()
		return
	}
	o.state = StateExtracting
	token := o.newToken()
	o.activeToken = token
	pagination := o.paginationInProgress
	o.mu.Unlock()

	start := o.clock.Now()

	doc, err := o.source.Snapshot()
	if err != nil {
		o.status.TransientError("failed to read page: " + err.Error())
		o.completePass(token, start, false)
		return
	}

	pageID := page.Identity(doc.URL())

	o.mu.Lock()
	if pageID != o.currentPageID {
		// The page moved under us between trigger and snapshot.
		o.currentPageID = pageID
		o.paginationInProgress = false
		pagination = false
		o.store.Reset()
	}
	o.mu.Unlock()

	records := o.builder.Build(doc)
	if len(records) == 0 {
		logrus.Debug("No comments extracted, nothing to do")
		o.completePass(token, start, false)
		return
	}

	o.mu.Lock()
	inserted := o.store.Add(records)
	accumulated := o.store.Len()
	o.mu.Unlock()
	logrus.Infof("Extracted %d comments (%d new, %d accumulated)", len(records), len(inserted), accumulated)

	texts := make([]string, len(records))
	for i, record := range records {
		texts[i] = record.Text
	}
	fingerprint := analysis.Fingerprint(texts)

	if !pagination {
		if cached, ok := o.cache.Get(pageID, fingerprint); ok {
			logrus.Infof("Analysis cache hit for %s, skipping classification", pageID)
			o.mu.Lock()
			o.metrics.CacheHits++
			o.mu.Unlock()
			o.reconcile(doc, pageID, cached, token, start)
			return
		}
	} else {
		logrus.Debug("Pagination in progress, bypassing analysis cache")
	}

	o.mu.Lock()
	if o.activeToken != token {
		o.mu.Unlock()
		o.discardStale(token)
		return
	}
	o.state = StateAwaitingClassification
	o.metrics.ClassifierCalls++
	o.mu.Unlock()

	product := productNameFromTitle(doc.Title())
	response, err := o.classify(records, texts, doc.URL(), product)

	o.mu.Lock()
	stale := o.activeToken != token
	o.mu.Unlock()
	if stale {
		o.discardStale(token)
		return
	}

	if err != nil {
		o.mu.Lock()
		o.metrics.ClassifierErrors++
		o.mu.Unlock()
		o.status.TransientError("classification failed: " + err.Error())
		o.completePass(token, start, false)
		return
	}

	results := o.normalizeResults(records, response.Results)
	o.cache.Put(pageID, fingerprint, results)
	o.reconcile(doc, pageID, results, token, start)
}

// classify invokes the external service with the batch trimmed to the
// currently visible comments and an optional product-name hint. This is the
// pipeline's sole asynchronous suspension point.
func (o *Orchestrator) classify(records []models.CommentRecord, texts []string, sourceURL, product string) (*models.ClassificationResponse, error) {
	req := &models.ClassificationRequest{
		Comments: texts,
		Product:  product,
	}
	if product != "" {
		req.Prompt = "Product name: " + product
	}

	source := hostOf(sourceURL)
	for _, record := range records {
		timestamp := record.Timestamp
		if timestamp == "" {
			timestamp = record.RawTimestampText
		}
		req.Metadata = append(req.Metadata, models.CommentMetadata{
			Comment:   record.Text,
			Username:  record.Username,
			Rating:    record.StarRating,
			Source:    source,
			Product:   product,
			Timestamp: timestamp,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.ClassifierTimeout)
	defer cancel()
	return o.classifier.Classify(ctx, req)
}

func (o *Orchestrator) normalizeResults(records []models.CommentRecord, raw []models.ClassificationResult) []models.AnalysisResult {
	n := len(records)
	if len(raw) < n {
		n = len(raw)
	}
	results := make([]models.AnalysisResult, 0, n)
	for i := 0; i < n; i++ {
		verdict, explanation := analysis.NormalizeVerdict(raw[i])
		results = append(results, models.AnalysisResult{
			Record:      records[i],
			Verdict:     verdict,
			Explanation: explanation,
		})
	}
	return results
}

// reconcile maps results back onto the visible comment nodes by index.
// Mismatched counts process min(domCount, resultCount) and log the
// discrepancy. Annotation writes hold the self-inflicted-mutation flag so
// the mutation trigger does not re-fire on our own output.
func (o *Orchestrator) reconcile(doc page.Document, pageID string, results []models.AnalysisResult, token string, start time.Time) {
	o.mu.Lock()
	if o.activeToken != token {
		o.mu.Unlock()
		o.discardStale(token)
		return
	}
	o.state = StateReconciling
	o.suppressMutations = true
	o.mu.Unlock()

	domCount := len(doc.Select(o.selectors.Comment))
	n := domCount
	if len(results) < n {
		n = len(results)
	}
	if domCount != len(results) {
		logrus.Warnf("Reconciling count mismatch: %d DOM comments vs %d results, processing %d", domCount, len(results), n)
	}

	for i := 0; i < n; i++ {
		if err := o.annotator.Annotate(doc, i, results[i].Verdict, results[i].Explanation); err != nil {
			logrus.Errorf("Failed to annotate comment %d: %v", i, err)
		}
	}

	report := o.buildReport(doc, pageID, results)

	o.mu.Lock()
	o.suppressMutations = false
	o.lastResults = results
	o.lastReport = report
	o.mu.Unlock()

	if o.onReport != nil {
		o.onReport(report)
	}

	o.completePass(token, start, true)
}

// completePass returns the machine to idle and schedules the coalesced
// follow-up pass if a trigger arrived while this one was active.
func (o *Orchestrator) completePass(token string, start time.Time, succeeded bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.activeToken != token {
		return
	}

	o.state = StateIdle
	if succeeded {
		o.paginationInProgress = false
	}
	o.metrics.Passes++
	o.metrics.LastPass = o.clock.Now()
	o.metrics.LastPassDuration = o.clock.Now().Sub(start).String()
	o.metrics.RecordsAccumulated = o.store.Len()

	if o.pendingTrigger {
		o.pendingTrigger = false
		o.state = StateDebouncing
		o.debounceTimer = o.clock.AfterFunc(o.cfg.DebounceInterval, o.runPass)
	}
}

// discardStale drops a completed pass whose token was superseded by
// navigation or a newer pass. Expected under the cancellation model, not an
// error.
func (o *Orchestrator) discardStale(token string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	logrus.Infof("Discarding stale pipeline result (token %s superseded)", token)
	o.metrics.StaleResultsDiscarded++

	// The superseding event owns the state machine now; only fall back to
	// idle if nothing else has restarted it.
	if o.state == StateExtracting || o.state == StateAwaitingClassification || o.state == StateReconciling {
		o.state = StateIdle
		if o.pendingTrigger {
			o.pendingTrigger = false
			o.state = StateDebouncing
			o.debounceTimer = o.clock.AfterFunc(o.cfg.DebounceInterval, o.runPass)
		}
	}
}

func (o *Orchestrator) buildReport(doc page.Document, pageID string, results []models.AnalysisResult) *models.AnalysisReport {
	breakdown := make(map[string]int)
	for _, result := range results {
		breakdown[result.Verdict]++
	}
	return &models.AnalysisReport{
		GeneratedAt:      o.clock.Now(),
		PageIdentity:     pageID,
		ProductName:      productNameFromTitle(doc.Title()),
		SourceURL:        doc.URL(),
		TotalComments:    len(results),
		VerdictBreakdown: breakdown,
		Results:          results,
	}
}

// State reports the current pipeline state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// SetPaginationInProgress toggles the cache-bypass flag directly, for
// callers that detect pagination out of band.
func (o *Orchestrator) SetPaginationInProgress(v bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paginationInProgress = v
}

// Records returns the accumulated records, oldest first.
func (o *Orchestrator) Records() []models.CommentRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.store.All()
}

// Results returns the results of the most recent completed pass.
func (o *Orchestrator) Results() []models.AnalysisResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.AnalysisResult, len(o.lastResults))
	copy(out, o.lastResults)
	return out
}

// Report returns the most recent analysis report, or nil before the first
// completed pass.
func (o *Orchestrator) Report() *models.AnalysisReport {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastReport
}

// ResetAccumulation clears accumulated records; used when a page's content
// visibly changed and the caller wants a fresh extraction baseline.
func (o *Orchestrator) ResetAccumulation() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.store.Reset()
}

// GetMetrics returns current metrics as JSON
func (o *Orchestrator) GetMetrics() string {
	o.mu.Lock()
	defer o.mu.Unlock()

	data, _ := json.MarshalIndent(o.metrics, "", "  ")
	return string(data)
}

var storefrontTitleSuffix = regexp.MustCompile(`\s*[|-]\s*Shopee.*$`)

// productNameFromTitle strips the storefront suffix off a page title.
func productNameFromTitle(title string) string {
	return strings.TrimSpace(storefrontTitleSuffix.ReplaceAllString(title, ""))
}

func hostOf(rawURL string) string {
	trimmed := rawURL
	if i := strings.Index(trimmed, "//"); i >= 0 {
		trimmed = trimmed[i+2:]
	}
	if i := strings.IndexAny(trimmed, "/?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
