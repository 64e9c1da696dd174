package store

import (
	"context"

	"jobboard/scrape-service/internal/model"
)

// Deduplicator is consulted once per candidate before insertion. The
// store's conflict-ignoring upsert remains the authority when two runs
// race on the same key.
type Deduplicator struct {
	store Store
}

// NewDeduplicator checks identities against s.
func NewDeduplicator(s Store) *Deduplicator {
	return &Deduplicator{store: s}
}

// Exists reports whether (externalID, source) is already persisted.
func (d *Deduplicator) Exists(ctx context.Context, externalID, source string) (bool, error) {
	return d.store.Exists(ctx, externalID, source)
}

// Seen is Exists for a record.
func (d *Deduplicator) Seen(ctx context.Context, rec model.JobRecord) (bool, error) {
	return d.Exists(ctx, rec.ExternalID, rec.Source)
}
