package watch

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/reviewguard/reviewguard/internal/analysis"
	"github.com/reviewguard/reviewguard/internal/config"
	"github.com/reviewguard/reviewguard/internal/page"
	"github.com/reviewguard/reviewguard/internal/pipeline"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Service watches the configured product page and translates observed
// changes into pipeline triggers: URL changes (navigation or in-page
// pagination), comment-region content changes (mutation), pagination control
// movement, and a low-frequency fallback poll as the safety net for missed
// triggers.
type Service struct {
	cfg          *config.Config
	fetcher      *page.Fetcher
	orchestrator *pipeline.Orchestrator
	selectors    page.Selectors
	cron         *cron.Cron

	mu             sync.Mutex
	latest         page.Document
	currentURL     string
	lastListHash   string
	lastActivePage string
}

// Ensure the watcher can serve as the orchestrator's document source.
var _ pipeline.DocumentSource = (*Service)(nil)

// NewService creates a new watch service
func NewService(cfg *config.Config, fetcher *page.Fetcher, selectors page.Selectors) *Service {
	return &Service{
		cfg:       cfg,
		fetcher:   fetcher,
		selectors: selectors,
		cron:      cron.New(cron.WithSeconds()),
	}
}

// Bind attaches the orchestrator the watcher feeds. Set before Start.
func (s *Service) Bind(orchestrator *pipeline.Orchestrator) {
	s.orchestrator = orchestrator
}

// Snapshot returns the most recently fetched page document, fetching on
// first use.
func (s *Service) Snapshot() (page.Document, error) {
	s.mu.Lock()
	latest := s.latest
	s.mu.Unlock()

	if latest != nil {
		return latest, nil
	}
	return s.refresh(context.Background())
}

// Start begins the watch loop and the fallback poll.
func (s *Service) Start() error {
	if s.orchestrator == nil {
		return fmt.Errorf("watch service started without an orchestrator bound")
	}

	watchSpec := fmt.Sprintf("@every %s", s.cfg.WatchInterval)
	if _, err := s.cron.AddFunc(watchSpec, s.check); err != nil {
		return fmt.Errorf("failed to schedule watch loop: %w", err)
	}

	if _, err := s.cron.AddFunc(s.cfg.FallbackPollSchedule, func() {
		logrus.Debug("Fallback poll trigger")
		s.orchestrator.OnPoll()
	}); err != nil {
		return fmt.Errorf("failed to schedule fallback poll: %w", err)
	}

	s.cron.Start()
	logrus.Infof("Watching %s every %s (fallback poll: %s)", s.cfg.WatchURL, s.cfg.WatchInterval, s.cfg.FallbackPollSchedule)

	// Prime the first snapshot so the initial pass has content.
	go s.check()
	return nil
}

// Stop stops the watch loop.
func (s *Service) Stop() {
	if s.cron != nil {
		s.cron.Stop()
		logrus.Info("Watch service stopped")
	}
}

// check fetches the page and fires triggers for whatever changed since the
// previous fetch. Fetch failures are logged and skipped; the next cycle
// retries.
func (s *Service) check() {
	doc, err := s.refresh(context.Background())
	if err != nil {
		logrus.Errorf("Watch fetch failed: %v", err)
		return
	}

	s.mu.Lock()
	previousURL := s.currentURL
	previousHash := s.lastListHash
	previousPage := s.lastActivePage

	currentURL := doc.URL()
	listHash := s.commentRegionHash(doc)
	activePage := s.activePaginationLabel(doc)

	s.currentURL = currentURL
	s.lastListHash = listHash
	s.lastActivePage = activePage
	s.mu.Unlock()

	if previousURL != "" && currentURL != previousURL {
		logrus.Debugf("URL change observed: %s -> %s", previousURL, currentURL)
		s.orchestrator.OnURLChange(currentURL)
		return
	}
	if previousURL == "" {
		s.orchestrator.OnURLChange(currentURL)
		return
	}

	if activePage != previousPage {
		logrus.Debugf("Pagination control moved: %q -> %q", previousPage, activePage)
		s.orchestrator.OnPagination()
		return
	}

	if listHash != previousHash {
		logrus.Debug("Comment region content changed")
		s.orchestrator.OnMutation()
	}
}

func (s *Service) refresh(ctx context.Context) (page.Document, error) {
	doc, err := s.fetcher.Fetch(ctx, s.cfg.WatchURL)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.latest = doc
	s.mu.Unlock()
	return doc, nil
}

// commentRegionHash fingerprints the visible comment texts so content
// changes inside the comment list are detectable without diffing markup.
func (s *Service) commentRegionHash(doc page.Document) string {
	nodes := doc.Select(s.selectors.Comment)
	texts := make([]string, 0, len(nodes))
	for _, node := range nodes {
		if text := strings.TrimSpace(node.Text()); text != "" {
			texts = append(texts, text)
		}
	}
	return analysis.Fingerprint(texts)
}

func (s *Service) activePaginationLabel(doc page.Document) string {
	node, ok := doc.SelectFirst(s.selectors.PaginationActive)
	if !ok {
		return ""
	}
	return strings.TrimSpace(node.Text())
}
