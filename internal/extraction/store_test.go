package extraction

import (
	"fmt"
	"testing"

	"github.com/reviewguard/reviewguard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRecords(ids ...string) []models.CommentRecord {
	records := make([]models.CommentRecord, len(ids))
	for i, id := range ids {
		records[i] = models.CommentRecord{ID: id, Text: "text for " + id}
	}
	return records
}

func TestAccumulationStore_DedupIdempotence(t *testing.T) {
	store := NewAccumulationStore()
	batch := makeRecords("a", "b", "c")

	inserted := store.Add(batch)
	assert.Len(t, inserted, 3)

	// Repeated passes over an unchanged comment set accumulate nothing new.
	for i := 0; i < 5; i++ {
		assert.Empty(t, store.Add(batch))
	}
	assert.Equal(t, 3, store.Len())
}

func TestAccumulationStore_InsertionOrderPreserved(t *testing.T) {
	store := NewAccumulationStore()
	store.Add(makeRecords("page1-a", "page1-b"))
	store.Add(makeRecords("page1-b", "page2-a"))

	all := store.All()
	require.Len(t, all, 3)
	assert.Equal(t, "page1-a", all[0].ID)
	assert.Equal(t, "page1-b", all[1].ID)
	assert.Equal(t, "page2-a", all[2].ID)
}

func TestAccumulationStore_FirstRecordWins(t *testing.T) {
	store := NewAccumulationStore()
	store.Add([]models.CommentRecord{{ID: "x", Text: "original"}})
	store.Add([]models.CommentRecord{{ID: "x", Text: "later copy"}})

	all := store.All()
	require.Len(t, all, 1)
	assert.Equal(t, "original", all[0].Text)
}

func TestAccumulationStore_Reset(t *testing.T) {
	store := NewAccumulationStore()
	store.Add(makeRecords("a", "b"))
	store.Reset()

	assert.Zero(t, store.Len())
	assert.Empty(t, store.All())

	// Records are insertable again after reset.
	assert.Len(t, store.Add(makeRecords("a")), 1)
}

func TestAccumulationStore_LargeBatch(t *testing.T) {
	store := NewAccumulationStore()

	var ids []string
	for i := 0; i < 200; i++ {
		ids = append(ids, fmt.Sprintf("id-%d", i))
	}
	store.Add(makeRecords(ids...))
	store.Add(makeRecords(ids...))

	assert.Equal(t, 200, store.Len())
}
