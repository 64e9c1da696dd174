package extract

import (
	"context"
	"net/http"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"

	"jobboard/scrape-service/internal/model"
)

const userAgent = "Mozilla/5.0 (compatible; LDJobBoardBot/1.0)"

// Direct fetches search and job pages over plain HTTP without an
// extraction API. Search pages yield a LinkList; job pages are converted
// to markdown.
type Direct struct {
	// SearchURL builds the results page for a unit. Defaults to Indeed.
	SearchURL func(model.SearchUnit) string
	client    *http.Client
}

// NewDirect constructs a Direct fetcher targeting Indeed search pages.
func NewDirect() *Direct {
	return &Direct{
		SearchURL: IndeedSearchURL,
		client:    &http.Client{Timeout: httpTimeout},
	}
}

func (d *Direct) Name() string { return "Direct" }

// Validate always succeeds; no credential is needed.
func (d *Direct) Validate() error { return nil }

// Extract downloads the search page for unit and harvests its links.
func (d *Direct) Extract(ctx context.Context, unit model.SearchUnit) (Payload, error) {
	pageURL := d.SearchURL(unit)
	html, err := d.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return LinkList{
		SourceURL: pageURL,
		Provider:  ProviderForURL(pageURL),
		Links:     HarvestLinks(html, pageURL),
	}, nil
}

// FetchPage downloads a job page and renders its body as markdown.
func (d *Direct) FetchPage(ctx context.Context, pageURL string) (Payload, error) {
	html, err := d.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	var title string
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		title = strings.TrimSpace(doc.Find("title").First().Text())
		doc.Find("script, style, noscript, nav, footer").Remove()
		if h, err := doc.Html(); err == nil {
			html = h
		}
	}

	converter := md.NewConverter(pageURL, true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return nil, errors.Wrapf(err, "convert %s to markdown", pageURL)
	}

	return MarkdownExtraction{
		SourceURL: pageURL,
		Provider:  ProviderForURL(pageURL),
		Title:     title,
		Markdown:  markdown,
	}, nil
}

func (d *Direct) get(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", errors.Wrap(err, "build page request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	body, err := do(d.client, req, d.Name())
	if err != nil {
		return "", err
	}
	return string(body), nil
}
