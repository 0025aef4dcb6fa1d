package extraction

import "github.com/reviewguard/reviewguard/internal/models"

// AccumulationStore holds the records seen across paginated views of one
// logical page, deduplicated by record ID, insertion order preserved.
// It is cleared on navigation to a different page identity or an explicit
// caller reset; pagination within the same page accumulates.
type AccumulationStore struct {
	records []models.CommentRecord
	index   map[string]struct{}
}

func NewAccumulationStore() *AccumulationStore {
	return &AccumulationStore{index: make(map[string]struct{})}
}

// Add inserts the records whose IDs are not already present and returns the
// subset actually inserted. A record with a known ID is the same comment seen
// again; the later copy is discarded, not merged.
func (s *AccumulationStore) Add(records []models.CommentRecord) []models.CommentRecord {
	var inserted []models.CommentRecord
	for _, record := range records {
		if _, seen := s.index[record.ID]; seen {
			continue
		}
		s.index[record.ID] = struct{}{}
		s.records = append(s.records, record)
		inserted = append(inserted, record)
	}
	return inserted
}

// All returns the accumulated records, oldest first.
func (s *AccumulationStore) All() []models.CommentRecord {
	out := make([]models.CommentRecord, len(s.records))
	copy(out, s.records)
	return out
}

func (s *AccumulationStore) Len() int {
	return len(s.records)
}

// Reset discards all records; used at navigation boundaries.
func (s *AccumulationStore) Reset() {
	s.records = nil
	s.index = make(map[string]struct{})
}
