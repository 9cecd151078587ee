package alert

import (
	"context"
	"sync"
	"time"

	"github.com/adwatch/sentinel/models"
)

// MemoryHistory is the default in-process AlertHistoryStore. State is
// volatile: a restart forgets rate-limit and dedup decisions. Deployments
// that need durability swap in the Postgres-backed store.
type MemoryHistory struct {
	mu      sync.Mutex
	records map[string][]models.AlertRecord // keyed by campaign ID
}

// NewMemoryHistory creates an empty history.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{records: make(map[string][]models.AlertRecord)}
}

// Recent returns the campaign's records newer than since.
func (h *MemoryHistory) Recent(_ context.Context, campaignID string, since time.Time) ([]models.AlertRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []models.AlertRecord
	for _, rec := range h.records[campaignID] {
		if rec.Timestamp.After(since) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Record appends one dispatched alert.
func (h *MemoryHistory) Record(_ context.Context, rec models.AlertRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records[rec.CampaignID] = append(h.records[rec.CampaignID], rec)
	return nil
}

// Prune drops records at or before the cutoff across all campaigns.
func (h *MemoryHistory) Prune(_ context.Context, before time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, recs := range h.records {
		kept := recs[:0]
		for _, rec := range recs {
			if rec.Timestamp.After(before) {
				kept = append(kept, rec)
			}
		}
		if len(kept) == 0 {
			delete(h.records, id)
		} else {
			h.records[id] = kept
		}
	}
	return nil
}
