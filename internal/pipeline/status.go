package pipeline

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// StatusReporter surfaces transient, user-visible pipeline conditions.
// Classification failures go here rather than up the call stack; the
// pipeline returns to idle and waits for the next trigger.
type StatusReporter interface {
	TransientError(message string)
}

// TransientStatus holds the most recent transient error and auto-dismisses
// it after a fixed display window. The HTTP surface reads Current.
type TransientStatus struct {
	mu      sync.Mutex
	message string
	until   time.Time
	ttl     time.Duration
}

var _ StatusReporter = (*TransientStatus)(nil)

func NewTransientStatus(ttl time.Duration) *TransientStatus {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &TransientStatus{ttl: ttl}
}

func (t *TransientStatus) TransientError(message string) {
	logrus.Warnf("Pipeline error: %s", message)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.message = message
	t.until = time.Now().Add(t.ttl)
}

// Current returns the active transient message, or empty once it has
// dismissed itself.
func (t *TransientStatus) Current() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.message != "" && time.Now().After(t.until) {
		t.message = ""
	}
	return t.message
}
