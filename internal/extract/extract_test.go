package extract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/scrape-service/internal/config"
	"jobboard/scrape-service/internal/extract"
	"jobboard/scrape-service/internal/model"
)

var unit = model.SearchUnit{Term: "Instructional Designer", Location: "Tampa, FL"}

// ── JSearch ────────────────────────────────────────────────────────────────

func TestJSearch_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Instructional Designer in Tampa, FL", r.URL.Query().Get("query"))
		assert.Equal(t, "month", r.URL.Query().Get("date_posted"))
		assert.Equal(t, "secret", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "jsearch.test", r.Header.Get("X-RapidAPI-Host"))
		_, _ = io.WriteString(w, `{"status":"OK","data":[{
			"job_id":"abc123","job_title":"Instructional Designer","employer_name":"Acme",
			"job_publisher":"LinkedIn","job_apply_link":"https://x.test/1","job_is_remote":false,
			"job_city":"Tampa","job_state":"FL","job_min_salary":55000,"job_max_salary":null,
			"job_salary_period":"YEAR","job_posted_at":"2 days ago"}]}`)
	}))
	defer srv.Close()

	js := extract.NewJSearch("secret", "jsearch.test")
	js.BaseURL = srv.URL

	p, err := js.Extract(context.Background(), unit)
	require.NoError(t, err)

	got, ok := p.(extract.JSONExtraction)
	require.True(t, ok, "want JSONExtraction, got %T", p)
	assert.Equal(t, "JSearch", got.ProviderName())
	require.Len(t, got.Jobs, 1)
	job := got.Jobs[0]
	assert.Equal(t, "abc123", job.ID)
	assert.Equal(t, "Acme", job.Company)
	assert.Equal(t, "LinkedIn", job.Publisher)
	assert.Equal(t, 55000.0, job.SalaryMin)
	assert.Zero(t, job.SalaryMax)
	assert.Equal(t, "2 days ago", job.PostedAt)
}

func TestJSearch_RemoteLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Trainer", r.URL.Query().Get("query"))
		assert.Equal(t, "true", r.URL.Query().Get("remote_jobs_only"))
		_, _ = io.WriteString(w, `{"status":"OK","data":[]}`)
	}))
	defer srv.Close()

	js := extract.NewJSearch("k", "h")
	js.BaseURL = srv.URL
	p, err := js.Extract(context.Background(), model.SearchUnit{Term: "Trainer", Location: "Remote"})
	require.NoError(t, err)
	assert.Empty(t, p.(extract.JSONExtraction).Jobs)
}

func TestJSearch_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	js := extract.NewJSearch("k", "h")
	js.BaseURL = srv.URL
	_, err := js.Extract(context.Background(), unit)
	require.Error(t, err)
	assert.True(t, errors.Is(err, extract.ErrUpstream))
}

func TestValidate_MissingCredentials(t *testing.T) {
	for _, e := range []extract.Extractor{
		extract.NewJSearch("", "h"),
		extract.NewAdzuna("id", "", "us"),
		extract.NewFirecrawl("", "", extract.FormatExtract),
	} {
		err := e.Validate()
		require.Error(t, err, e.Name())
		assert.True(t, errors.Is(err, config.ErrMissing), e.Name())
	}
	assert.NoError(t, extract.NewDirect().Validate())
}

// ── Adzuna ─────────────────────────────────────────────────────────────────

func TestAdzuna_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/us/search/1", r.URL.Path)
		assert.Equal(t, "Tampa, FL", r.URL.Query().Get("where"))
		_, _ = io.WriteString(w, `{"count":1,"results":[{"id":"42","title":"L&D Specialist",
			"company":{"display_name":"Beta"},"location":{"display_name":"Tampa, Hillsborough County"},
			"salary_min":60000,"salary_max":70000,"redirect_url":"https://adzuna.test/42",
			"created":"2026-10-10T00:00:00Z","contract_time":"full_time"}]}`)
	}))
	defer srv.Close()

	a := extract.NewAdzuna("id", "key", "us")
	a.BaseURL = srv.URL
	p, err := a.Extract(context.Background(), unit)
	require.NoError(t, err)

	got := p.(extract.JSONExtraction)
	require.Len(t, got.Jobs, 1)
	assert.Equal(t, "42", got.Jobs[0].ID)
	assert.Equal(t, "Beta", got.Jobs[0].Company)
	assert.Equal(t, "full_time", got.Jobs[0].EmploymentType)
	assert.NotContains(t, got.Origin(), "app_key")
}

// ── Firecrawl ──────────────────────────────────────────────────────────────

func firecrawlServer(t *testing.T, respond func(req map[string]any) string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/scrape", r.URL.Path)
		assert.Equal(t, "Bearer fc-key", r.Header.Get("Authorization"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, respond(body))
	}))
}

func TestFirecrawl_Extract(t *testing.T) {
	srv := firecrawlServer(t, func(req map[string]any) string {
		assert.Equal(t, []any{"extract"}, req["formats"])
		assert.Contains(t, req["url"], "indeed.com/jobs?")
		assert.NotNil(t, req["extract"])
		return `{"success":true,"data":{"extract":{"jobs":[
			{"title":"Trainer","company":"Gamma","apply_url":"https://www.indeed.com/viewjob?jk=0123456789abcdef"}]}}}`
	})
	defer srv.Close()

	p, err := extract.NewFirecrawl("fc-key", srv.URL, extract.FormatExtract).Extract(context.Background(), unit)
	require.NoError(t, err)
	got := p.(extract.JSONExtraction)
	assert.Equal(t, "Indeed", got.Provider)
	require.Len(t, got.Jobs, 1)
	assert.Equal(t, "Gamma", got.Jobs[0].Company)
}

func TestFirecrawl_Markdown(t *testing.T) {
	srv := firecrawlServer(t, func(map[string]any) string {
		return `{"success":true,"data":{"markdown":"# Results","metadata":{"title":"Jobs"}}}`
	})
	defer srv.Close()

	p, err := extract.NewFirecrawl("fc-key", srv.URL, extract.FormatMarkdown).Extract(context.Background(), unit)
	require.NoError(t, err)
	got := p.(extract.MarkdownExtraction)
	assert.Equal(t, "# Results", got.Markdown)
	assert.Equal(t, "Jobs", got.Title)
}

func TestFirecrawl_LinksFallBackToRawHTML(t *testing.T) {
	srv := firecrawlServer(t, func(req map[string]any) string {
		assert.Equal(t, []any{"links", "rawHtml"}, req["formats"])
		return `{"success":true,"data":{"links":[],"rawHtml":"<a href=\"/viewjob?jk=0123456789abcdef\">x</a>"}}`
	})
	defer srv.Close()

	p, err := extract.NewFirecrawl("fc-key", srv.URL, extract.FormatLinks).Extract(context.Background(), unit)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.indeed.com/viewjob?jk=0123456789abcdef"}, p.(extract.LinkList).Links)
}

func TestFirecrawl_UnsuccessfulIsUpstreamError(t *testing.T) {
	srv := firecrawlServer(t, func(map[string]any) string {
		return `{"success":false,"error":"blocked"}`
	})
	defer srv.Close()

	_, err := extract.NewFirecrawl("fc-key", srv.URL, extract.FormatMarkdown).FetchPage(context.Background(), "https://x.test/job")
	require.Error(t, err)
	assert.True(t, errors.Is(err, extract.ErrUpstream))
	assert.Contains(t, err.Error(), "blocked")
}

// ── Direct ─────────────────────────────────────────────────────────────────

func TestDirect_ExtractAndFetchPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `<html><body>
			<a href="/jobs/view/123">one</a>
			<a href="/jobs/view/123">dup</a>
			<a href="mailto:x@y.z">mail</a>
			<a href="#top">top</a>
		</body></html>`)
	})
	mux.HandleFunc("/jobs/view/123", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `<html><head><title>Trainer - Acme</title><script>var x=1;</script></head>
			<body><h1>Corporate Trainer</h1><p>Great <b>role</b>.</p></body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	d := extract.NewDirect()
	d.SearchURL = func(model.SearchUnit) string { return srv.URL + "/search" }

	p, err := d.Extract(context.Background(), unit)
	require.NoError(t, err)
	links := p.(extract.LinkList).Links
	assert.Equal(t, []string{srv.URL + "/jobs/view/123"}, links)

	page, err := d.FetchPage(context.Background(), links[0])
	require.NoError(t, err)
	got := page.(extract.MarkdownExtraction)
	assert.Equal(t, "Trainer - Acme", got.Title)
	assert.Contains(t, got.Markdown, "# Corporate Trainer")
	assert.Contains(t, got.Markdown, "**role**")
	assert.NotContains(t, got.Markdown, "var x")
}

// ── Pacing ─────────────────────────────────────────────────────────────────

type countingExtractor struct{ calls int }

func (c *countingExtractor) Name() string    { return "count" }
func (c *countingExtractor) Validate() error { return nil }
func (c *countingExtractor) Extract(context.Context, model.SearchUnit) (extract.Payload, error) {
	c.calls++
	return extract.JSONExtraction{}, nil
}

func TestPaced_SpacesCalls(t *testing.T) {
	inner := &countingExtractor{}
	p := extract.NewPaced(inner, 50*time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := p.Extract(context.Background(), unit)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, inner.calls)
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestPaced_FetchPageUnsupported(t *testing.T) {
	p := extract.NewPaced(&countingExtractor{}, 0)
	_, err := p.FetchPage(context.Background(), "https://x.test")
	assert.Error(t, err)
}

func TestPaced_CancelledContext(t *testing.T) {
	p := extract.NewPaced(&countingExtractor{}, time.Hour)
	_, _ = p.Extract(context.Background(), unit)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Extract(ctx, unit)
	assert.Error(t, err)
}

func TestHarvestLinks(t *testing.T) {
	html := `<a href="https://a.test/x">a</a><a href="rel/y">b</a><a href="javascript:void(0)">c</a>`
	assert.Equal(t,
		[]string{"https://a.test/x", "https://base.test/dir/rel/y"},
		extract.HarvestLinks(html, "https://base.test/dir/page"))
	assert.Equal(t, []string{"https://a.test/x"}, extract.HarvestLinks(html, ""))
}

func TestIndeedSearchURL(t *testing.T) {
	assert.Equal(t,
		"https://www.indeed.com/jobs?l=Tampa%2C+FL&q=Instructional+Designer",
		extract.IndeedSearchURL(unit))
}

func TestProviderForURL(t *testing.T) {
	cases := map[string]string{
		"https://www.indeed.com/viewjob?jk=0123456789abcdef": "Indeed",
		"https://uk.linkedin.com/jobs/view/123456":           "LinkedIn",
		"https://www.ziprecruiter.com/c/Acme/job/Trainer":    "ZipRecruiter",
		"https://www.glassdoor.co.uk/job-listing/x":          "Glassdoor",
		"https://careers.acme.test/?ref=indeed.com":          extract.GenericProvider,
		"indeed.com/viewjob":                                 extract.GenericProvider,
		"":                                                   extract.GenericProvider,
	}
	for in, want := range cases {
		assert.Equal(t, want, extract.ProviderForURL(in), in)
	}
}
