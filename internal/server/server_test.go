package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/scrape-service/internal/config"
	"jobboard/scrape-service/internal/extract"
	"jobboard/scrape-service/internal/model"
	"jobboard/scrape-service/internal/parse"
	"jobboard/scrape-service/internal/scraper"
	"jobboard/scrape-service/internal/store"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeBatcher struct {
	got  *scraper.Request
	resp scraper.Response
	err  error
}

func (f *fakeBatcher) RunBatch(_ context.Context, req scraper.Request) (scraper.Response, error) {
	f.got = &req
	return f.resp, f.err
}

func do(t *testing.T, h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// ── CORS ───────────────────────────────────────────────────────────────────

func TestPreflight(t *testing.T) {
	r := NewHandler(&fakeBatcher{}, nil, nil, "test").Router()

	w := do(t, r, http.MethodOptions, "/scrape-jobs", "", map[string]string{
		"Origin":                         "https://board.test",
		"Access-Control-Request-Method":  "POST",
		"Access-Control-Request-Headers": "authorization, content-type",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	allowed := strings.ToLower(w.Header().Get("Access-Control-Allow-Headers"))
	for _, h := range []string{"authorization", "x-client-info", "apikey", "content-type"} {
		assert.Contains(t, allowed, h)
	}
}

func TestCORSOnResponse(t *testing.T) {
	r := NewHandler(&fakeBatcher{resp: scraper.Response{Success: true}}, nil, nil, "test").Router()
	w := do(t, r, http.MethodPost, "/", `{}`, map[string]string{"Origin": "https://board.test"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(t, r, http.MethodPost, "/", `{}`, nil)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "authorization, x-client-info, apikey, content-type", w.Header().Get("Access-Control-Allow-Headers"))
}

// ── POST /scrape-jobs ──────────────────────────────────────────────────────

func TestScrapeJobs_MalformedBodyIsEmptyRequest(t *testing.T) {
	for name, body := range map[string]string{
		"empty":    "",
		"not json": "{searchTerms:",
	} {
		t.Run(name, func(t *testing.T) {
			b := &fakeBatcher{resp: scraper.Response{Success: true}}
			w := do(t, NewHandler(b, nil, nil, "test").Router(), http.MethodPost, "/scrape-jobs", body, nil)

			assert.Equal(t, http.StatusOK, w.Code)
			require.NotNil(t, b.got)
			assert.Equal(t, scraper.Request{}, *b.got)
		})
	}
}

func TestScrapeJobs_WrongFieldTypeIs400(t *testing.T) {
	for name, body := range map[string]string{
		"string batchIndex":  `{"batchIndex":"5"}`,
		"scalar searchTerms": `{"searchTerms":"Trainer"}`,
		"numeric locations":  `{"locations":[1,2]}`,
	} {
		t.Run(name, func(t *testing.T) {
			b := &fakeBatcher{resp: scraper.Response{Success: true}}
			w := do(t, NewHandler(b, nil, nil, "test").Router(), http.MethodPost, "/scrape-jobs", body, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Nil(t, b.got, "batch must not run on a mistyped request")
			out := decode(t, w)
			assert.Equal(t, false, out["success"])
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestScrapeJobs_PassesRequestAndShapesResponse(t *testing.T) {
	next := 3
	b := &fakeBatcher{resp: scraper.Response{
		Success: true, Inserted: 2, Skipped: 1, TotalFound: 3,
		HasMore: true, NextBatchIndex: &next,
		Progress: "Processed 12 of 54 combinations (batch 3 of 14)",
	}}
	w := do(t, NewHandler(b, nil, nil, "test").Router(), http.MethodPost, "/",
		`{"searchTerms":["Corporate Trainer"],"locations":["Miami, FL"],"batchIndex":2}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, b.got)
	assert.Equal(t, []string{"Corporate Trainer"}, b.got.SearchTerms)
	assert.Equal(t, []string{"Miami, FL"}, b.got.Locations)
	require.NotNil(t, b.got.BatchIndex)
	assert.Equal(t, 2, *b.got.BatchIndex)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(3), body["total_found"])
	assert.Equal(t, true, body["hasMore"])
	assert.Equal(t, float64(3), body["nextBatchIndex"])
	assert.Equal(t, "Processed 12 of 54 combinations (batch 3 of 14)", body["progress"])
}

func TestScrapeJobs_LastBatchHasNullCursor(t *testing.T) {
	b := &fakeBatcher{resp: scraper.Response{Success: true}}
	w := do(t, NewHandler(b, nil, nil, "test").Router(), http.MethodPost, "/scrape-jobs", `{}`, nil)

	body := decode(t, w)
	v, ok := body["nextBatchIndex"]
	assert.True(t, ok, "nextBatchIndex is always present")
	assert.Nil(t, v)
}

func TestScrapeJobs_MissingConfigIs500(t *testing.T) {
	err := errors.Mark(errors.Wrap(config.ErrMissing, "JSEARCH_API_KEY is required"), scraper.ErrMissingConfig)
	w := do(t, NewHandler(&fakeBatcher{err: err}, nil, nil, "test").Router(), http.MethodPost, "/scrape-jobs", `{}`, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "JSEARCH_API_KEY")
}

func TestScrapeJobs_InvalidRequestIs400(t *testing.T) {
	err := errors.Wrap(scraper.ErrInvalidRequest, "batchIndex must be >= 0")
	w := do(t, NewHandler(&fakeBatcher{err: err}, nil, nil, "test").Router(), http.MethodPost, "/scrape-jobs", `{"batchIndex":-1}`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestScrapeJobs_EndToEnd(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OK","data":[{"job_id":"abc123","job_title":"Instructional Designer","employer_name":"Acme","job_apply_link":"https://x.test/1"}]}`))
	}))
	defer upstream.Close()

	js := extract.NewJSearch("k", "jsearch.test")
	js.BaseURL = upstream.URL
	mem := store.NewMemory()
	coord := scraper.NewCoordinator(scraper.Options{
		Extractor: js,
		Parser:    parse.NewDispatcher(nil, 0, nil),
		Store:     mem,
	})
	r := NewHandler(coord, mem, nil, "test").Router()
	body := `{"searchTerms":["Instructional Designer"],"locations":["Remote"],"batchIndex":0}`

	first := decode(t, do(t, r, http.MethodPost, "/scrape-jobs", body, nil))
	assert.Equal(t, float64(1), first["inserted"])
	assert.Equal(t, float64(0), first["skipped"])
	assert.Equal(t, float64(1), first["total_found"])
	assert.Equal(t, false, first["hasMore"])

	second := decode(t, do(t, r, http.MethodPost, "/scrape-jobs", body, nil))
	assert.Equal(t, float64(0), second["inserted"])
	assert.Equal(t, float64(1), second["skipped"])

	rows, err := mem.ListRecent(context.Background(), nil, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "abc123", rows[0].ExternalID)
}

// ── GET /jobs ──────────────────────────────────────────────────────────────

func TestListJobs_FiltersSourcesNewestFirst(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	for _, r := range []model.JobRecord{
		{Title: "Trainer", Company: "A", Source: "Indeed", ExternalID: "1", ApplyURL: model.StringPtr("https://x.test/1")},
		{Title: "Designer", Company: "B", Source: "SomeAggregator", ExternalID: "2"},
		{Title: "Manager", Company: "C", Source: "LinkedIn", ExternalID: "3", Salary: model.StringPtr("$90,000/yr")},
	} {
		_, err := mem.Upsert(ctx, r)
		require.NoError(t, err)
	}

	h := NewHandler(&fakeBatcher{}, mem, nil, "test")
	h.now = func() time.Time { return time.Now().Add(72 * time.Hour) }
	w := do(t, h.Router(), http.MethodGet, "/jobs", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var jobs []JobView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &jobs))
	require.Len(t, jobs, 2)
	assert.Equal(t, "Manager", jobs[0].Title)
	assert.Equal(t, "$90,000/yr", jobs[0].Salary)
	assert.Equal(t, "Trainer", jobs[1].Title)
	assert.Equal(t, "https://x.test/1", jobs[1].ApplyURL)
	assert.Equal(t, "3 days ago", jobs[1].PostedAt)

	w = do(t, h.Router(), http.MethodGet, "/jobs?source=SomeAggregator&limit=5", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, "Designer", jobs[0].Title)

	w = do(t, h.Router(), http.MethodGet, "/jobs?limit=zero", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		ago  time.Duration
		want string
	}{
		{0, "Today"},
		{23 * time.Hour, "Today"},
		{25 * time.Hour, "1 day ago"},
		{5 * 24 * time.Hour, "5 days ago"},
		{8 * 24 * time.Hour, "1 week ago"},
		{20 * 24 * time.Hour, "2 weeks ago"},
		{65 * 24 * time.Hour, "2 months ago"},
		{-time.Hour, "Today"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TimeAgo(now.Add(-tc.ago), now), tc.ago.String())
	}
}

func TestHealth(t *testing.T) {
	w := do(t, NewHandler(&fakeBatcher{}, nil, nil, "1.2.3").Router(), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1.2.3", decode(t, w)["version"])
}
