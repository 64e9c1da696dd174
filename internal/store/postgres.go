package store

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"jobboard/scrape-service/internal/model"
)

// Postgres stores jobs through a direct pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an open pool. The store owns it from here on.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Exists(ctx context.Context, externalID, source string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM jobs WHERE external_id = $1 AND source = $2)`,
		externalID, source,
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "check job exists")
	}
	return exists, nil
}

func (p *Postgres) Upsert(ctx context.Context, rec model.JobRecord) (bool, error) {
	var postedAt any
	if !rec.PostedAt.IsZero() {
		postedAt = rec.PostedAt
	}

	var id string
	err := p.pool.QueryRow(ctx, `
		INSERT INTO jobs (title, company, location, location_type, employment_type,
		                  salary, description, apply_url, source, external_id, category, posted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, COALESCE($12::timestamptz, now()))
		ON CONFLICT (external_id, source) DO NOTHING
		RETURNING id::text`,
		rec.Title, rec.Company, rec.Location, string(rec.LocationType), string(rec.EmploymentType),
		rec.Salary, rec.Description, rec.ApplyURL, rec.Source, rec.ExternalID, rec.Category, postedAt,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "insert job %s/%s", rec.Source, rec.ExternalID)
	}
	return true, nil
}

func (p *Postgres) ListRecent(ctx context.Context, sources []string, limit int) ([]model.JobRecord, error) {
	args := []any{limit}
	if len(sources) > 0 {
		args = append(args, sources)
	}

	rows, err := p.pool.Query(ctx, listRecentQuery(len(sources) > 0), args...)
	if err != nil {
		return nil, errors.Wrap(err, "list jobs")
	}
	defer rows.Close()

	var out []model.JobRecord
	for rows.Next() {
		var (
			r                   model.JobRecord
			locType, employment string
		)
		if err := rows.Scan(
			&r.ID, &r.Title, &r.Company, &r.Location, &locType, &employment,
			&r.Salary, &r.Description, &r.ApplyURL, &r.Source, &r.ExternalID, &r.Category,
			&r.PostedAt, &r.CreatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "scan job")
		}
		r.LocationType = model.LocationType(locType)
		r.EmploymentType = model.EmploymentType(employment)
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "iterate jobs")
}

// listRecentQuery selects the newest jobs, $1 being the limit and $2 the
// optional source list. external_id is NULL on user submissions.
func listRecentQuery(bySource bool) string {
	query := `
		SELECT id::text, title, company, location, location_type::text, employment_type::text,
		       salary, description, apply_url, source, COALESCE(external_id, ''), category,
		       COALESCE(posted_at, created_at), created_at
		FROM jobs`
	if bySource {
		query += ` WHERE source = ANY($2)`
	}
	return query + ` ORDER BY created_at DESC LIMIT $1`
}

func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}
