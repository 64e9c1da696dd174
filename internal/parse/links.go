package parse

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"jobboard/scrape-service/internal/extract"
	"jobboard/scrape-service/internal/model"
)

// FilterJobLinks keeps links shaped like individual postings, resolved
// against sourceURL and de-duplicated by normalized URL (or native job key
// when the board has one), in input order.
// max <= 0 means no cap.
func FilterJobLinks(links []string, sourceURL, provider string, max int) []string {
	fallback := ProfileFor(provider, sourceURL)

	var out []string
	seen := make(map[string]bool)
	for _, link := range links {
		abs := ResolveURL(link, sourceURL)
		p := ProfileForURL(abs)
		if p == Generic && !strings.HasPrefix(strings.ToLower(abs), "http") {
			p = fallback
		}
		norm := NormalizeURL(abs, p)
		if !p.IsJobURL(norm) {
			continue
		}
		id := ExternalID(norm, p)
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, norm)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

// LinkStrategy follows each posting link of a LinkList and parses the
// fetched page.
type LinkStrategy struct {
	Fetcher  extract.PageFetcher
	MaxPages int
	Logger   *zap.Logger
}

// Parse implements Strategy. Pages that fail to fetch are logged and
// skipped.
func (s LinkStrategy) Parse(ctx context.Context, p extract.Payload) []model.JobRecord {
	list, ok := p.(extract.LinkList)
	if !ok || s.Fetcher == nil {
		return nil
	}
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}

	urls := FilterJobLinks(list.Links, list.SourceURL, list.Provider, s.MaxPages)
	log.Debug("job links harvested",
		zap.String("source_url", list.SourceURL),
		zap.Int("links", len(list.Links)),
		zap.Int("postings", len(urls)),
	)

	var out []model.JobRecord
	for _, u := range urls {
		if ctx.Err() != nil {
			break
		}
		page, err := s.Fetcher.FetchPage(ctx, u)
		if err != nil {
			log.Warn("job page fetch failed", zap.String("url", u), zap.Error(err))
			continue
		}
		md, ok := page.(extract.MarkdownExtraction)
		if !ok {
			continue
		}
		if md.SourceURL == "" {
			md.SourceURL = u
		}
		if rec, ok := ParsePage(md); ok {
			out = append(out, rec)
		}
	}
	return out
}
