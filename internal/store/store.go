// Package store persists canonical job records and answers the
// "have we seen this posting" question. Every backend enforces uniqueness
// of (external_id, source) and treats a conflicting insert as a no-op.
package store

import (
	"context"

	"github.com/cockroachdb/errors"

	"jobboard/scrape-service/internal/config"
	"jobboard/scrape-service/internal/db"
	"jobboard/scrape-service/internal/model"
)

// ErrNotConfigured is returned by New when neither a database URL nor
// Supabase REST credentials are set.
var ErrNotConfigured = errors.Wrap(config.ErrMissing, "DATABASE_URL or SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY")

// Store is the jobs table.
type Store interface {
	// Exists reports whether a record with this identity is already stored.
	Exists(ctx context.Context, externalID, source string) (bool, error)
	// Upsert inserts rec unless (ExternalID, Source) already exists.
	// inserted is false for a conflict.
	Upsert(ctx context.Context, rec model.JobRecord) (inserted bool, err error)
	// ListRecent returns the newest records, optionally limited to sources.
	ListRecent(ctx context.Context, sources []string, limit int) ([]model.JobRecord, error)
	Close()
}

// New picks Postgres when DATABASE_URL is set, else the Supabase REST API.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch {
	case cfg.DatabaseURL != "":
		pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return NewPostgres(pool), nil
	case cfg.SupabaseURL != "" && cfg.SupabaseServiceRoleKey != "":
		return NewREST(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey), nil
	}
	return nil, ErrNotConfigured
}
