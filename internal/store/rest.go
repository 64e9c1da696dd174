package store

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"jobboard/scrape-service/internal/model"
)

const restErrBodyLimit = 300

// REST stores jobs through the Supabase PostgREST API using the service
// role key.
type REST struct {
	baseURL string
	key     string
	client  *http.Client
}

// NewREST targets <supabaseURL>/rest/v1.
func NewREST(supabaseURL, serviceRoleKey string) *REST {
	return &REST{
		baseURL: strings.TrimRight(supabaseURL, "/") + "/rest/v1",
		key:     serviceRoleKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// jobRow is the insert shape: server-assigned columns are omitted.
type jobRow struct {
	Title          string     `json:"title"`
	Company        string     `json:"company"`
	Location       string     `json:"location"`
	LocationType   string     `json:"location_type"`
	EmploymentType string     `json:"employment_type"`
	Salary         *string    `json:"salary"`
	Description    *string    `json:"description"`
	ApplyURL       *string    `json:"apply_url"`
	Source         string     `json:"source"`
	ExternalID     string     `json:"external_id"`
	Category       string     `json:"category"`
	PostedAt       *time.Time `json:"posted_at,omitempty"`
}

func (r *REST) Exists(ctx context.Context, externalID, source string) (bool, error) {
	q := url.Values{}
	q.Set("select", "id")
	q.Set("external_id", "eq."+externalID)
	q.Set("source", "eq."+source)
	q.Set("limit", "1")

	var rows []struct {
		ID string `json:"id"`
	}
	if err := r.do(ctx, http.MethodGet, "/jobs?"+q.Encode(), nil, nil, &rows); err != nil {
		return false, errors.Wrap(err, "check job exists")
	}
	return len(rows) > 0, nil
}

func (r *REST) Upsert(ctx context.Context, rec model.JobRecord) (bool, error) {
	row := jobRow{
		Title:          rec.Title,
		Company:        rec.Company,
		Location:       rec.Location,
		LocationType:   string(rec.LocationType),
		EmploymentType: string(rec.EmploymentType),
		Salary:         rec.Salary,
		Description:    rec.Description,
		ApplyURL:       rec.ApplyURL,
		Source:         rec.Source,
		ExternalID:     rec.ExternalID,
		Category:       rec.Category,
	}
	if !rec.PostedAt.IsZero() {
		t := rec.PostedAt.UTC()
		row.PostedAt = &t
	}

	headers := map[string]string{"Prefer": "resolution=ignore-duplicates,return=representation"}
	var created []struct {
		ID string `json:"id"`
	}
	if err := r.do(ctx, http.MethodPost, "/jobs?on_conflict=external_id,source", []jobRow{row}, headers, &created); err != nil {
		return false, errors.Wrapf(err, "insert job %s/%s", rec.Source, rec.ExternalID)
	}
	return len(created) > 0, nil
}

func (r *REST) ListRecent(ctx context.Context, sources []string, limit int) ([]model.JobRecord, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc")
	q.Set("limit", strconv.Itoa(limit))
	if len(sources) > 0 {
		quoted := make([]string, len(sources))
		for i, s := range sources {
			quoted[i] = strconv.Quote(s)
		}
		q.Set("source", "in.("+strings.Join(quoted, ",")+")")
	}

	var out []model.JobRecord
	if err := r.do(ctx, http.MethodGet, "/jobs?"+q.Encode(), nil, nil, &out); err != nil {
		return nil, errors.Wrap(err, "list jobs")
	}
	for i := range out {
		if out[i].PostedAt.IsZero() {
			out[i].PostedAt = out[i].CreatedAt
		}
	}
	return out, nil
}

func (r *REST) Close() {}

func (r *REST) do(ctx context.Context, method, path string, body any, headers map[string]string, into any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal body")
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("apikey", r.key)
	req.Header.Set("Authorization", "Bearer "+r.key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "postgrest request")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read postgrest response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(raw)
		if len(snippet) > restErrBodyLimit {
			snippet = snippet[:restErrBodyLimit]
		}
		return errors.Newf("postgrest returned %d: %s", resp.StatusCode, snippet)
	}
	if into == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(raw, into), "decode postgrest response")
}
