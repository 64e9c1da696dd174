package store

import (
	"context"
	"strconv"
	"sync"
	"time"

	"jobboard/scrape-service/internal/model"
)

type key struct{ externalID, source string }

// Memory is an in-process Store for tests and dry runs.
type Memory struct {
	mu    sync.Mutex
	rows  map[key]model.JobRecord
	order []key
	now   func() time.Time
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{rows: make(map[key]model.JobRecord), now: time.Now}
}

func (m *Memory) Exists(_ context.Context, externalID, source string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[key{externalID, source}]
	return ok, nil
}

func (m *Memory) Upsert(_ context.Context, rec model.JobRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{rec.ExternalID, rec.Source}
	if _, ok := m.rows[k]; ok {
		return false, nil
	}
	rec.ID = strconv.Itoa(len(m.order) + 1)
	rec.CreatedAt = m.now()
	if rec.PostedAt.IsZero() {
		rec.PostedAt = rec.CreatedAt
	}
	m.rows[k] = rec
	m.order = append(m.order, k)
	return true, nil
}

func (m *Memory) ListRecent(_ context.Context, sources []string, limit int) ([]model.JobRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := make(map[string]bool, len(sources))
	for _, s := range sources {
		allowed[s] = true
	}

	var out []model.JobRecord
	for i := len(m.order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		rec := m.rows[m.order[i]]
		if len(allowed) > 0 && !allowed[rec.Source] {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Len reports the number of stored records.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *Memory) Close() {}
