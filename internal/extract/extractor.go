// Package extract issues the outbound calls to job-search and content
// extraction APIs and returns their raw payloads.
package extract

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"

	"jobboard/scrape-service/internal/config"
	"jobboard/scrape-service/internal/model"
)

const (
	httpTimeout  = 30 * time.Second
	maxBodyBytes = 8 << 20
	errBodyLimit = 300
)

// ErrUpstream marks a network failure or non-2xx answer from an upstream API.
var ErrUpstream = errors.New("upstream call failed")

// Extractor fetches the raw payload for one SearchUnit.
type Extractor interface {
	// Name is the upstream API name, used in logs.
	Name() string
	// Validate reports a missing credential as config.ErrMissing.
	Validate() error
	Extract(ctx context.Context, unit model.SearchUnit) (Payload, error)
}

// PageFetcher fetches a single discovered URL, typically as markdown.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (Payload, error)
}

// New builds the extractor for cfg.Mode, paced by cfg.RequestDelay.
func New(cfg *config.Config) (*Paced, error) {
	var e Extractor
	switch cfg.Mode {
	case config.ModeJSearch:
		e = NewJSearch(cfg.JSearchAPIKey, cfg.JSearchHost)
	case config.ModeAdzuna:
		e = NewAdzuna(cfg.AdzunaAppID, cfg.AdzunaAppKey, cfg.AdzunaCountry)
	case config.ModeExtract:
		e = NewFirecrawl(cfg.FirecrawlAPIKey, cfg.FirecrawlBaseURL, FormatExtract)
	case config.ModeMarkdown:
		e = NewFirecrawl(cfg.FirecrawlAPIKey, cfg.FirecrawlBaseURL, FormatMarkdown)
	case config.ModeLinks:
		e = NewFirecrawl(cfg.FirecrawlAPIKey, cfg.FirecrawlBaseURL, FormatLinks)
	case config.ModeHTML:
		e = NewDirect()
	default:
		return nil, errors.Newf("unknown extraction mode %q", cfg.Mode)
	}
	return NewPaced(e, cfg.RequestDelay), nil
}

// IndeedSearchURL is the Indeed results page for a unit.
func IndeedSearchURL(unit model.SearchUnit) string {
	q := url.Values{}
	q.Set("q", unit.Term)
	q.Set("l", unit.Location)
	return "https://www.indeed.com/jobs?" + q.Encode()
}

// Paced spaces successive upstream calls at least delay apart.
type Paced struct {
	Extractor
	limiter *rate.Limiter
}

// NewPaced wraps e. A zero delay disables pacing.
func NewPaced(e Extractor, delay time.Duration) *Paced {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Paced{Extractor: e, limiter: rate.NewLimiter(limit, 1)}
}

// Extract waits for the pacing slot, then delegates.
func (p *Paced) Extract(ctx context.Context, unit model.SearchUnit) (Payload, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "pacing wait")
	}
	return p.Extractor.Extract(ctx, unit)
}

// FetchPage waits for the pacing slot, then delegates to the wrapped
// extractor's page fetcher.
func (p *Paced) FetchPage(ctx context.Context, pageURL string) (Payload, error) {
	pf, ok := p.Extractor.(PageFetcher)
	if !ok {
		return nil, errors.Newf("%s cannot fetch individual pages", p.Name())
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "pacing wait")
	}
	return pf.FetchPage(ctx, pageURL)
}

// do executes req and returns the body of a 2xx response. Anything else is
// marked ErrUpstream.
func do(client *http.Client, req *http.Request, provider string) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "%s request", provider), ErrUpstream)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "%s read body", provider), ErrUpstream)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(body)
		if len(snippet) > errBodyLimit {
			snippet = snippet[:errBodyLimit]
		}
		return nil, errors.Mark(errors.Newf("%s returned %d: %s", provider, resp.StatusCode, snippet), ErrUpstream)
	}
	return body, nil
}
