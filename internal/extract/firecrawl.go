package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"

	"jobboard/scrape-service/internal/config"
	"jobboard/scrape-service/internal/model"
)

// Format selects what Firecrawl returns for a scraped page.
type Format string

const (
	FormatExtract  Format = "extract"
	FormatMarkdown Format = "markdown"
	FormatLinks    Format = "links"
)

const firecrawlProvider = "Indeed"

const extractPrompt = `Extract all job listings from this Indeed search results page.
For each job, extract:
- title: The job title
- company: Company name
- location: Job location
- apply_url: THE DIRECT LINK TO THE JOB POSTING. Look for links containing 'viewjob?jk=' or 'rc/clk?jk=' with a job key. Do NOT return the search page URL.
- salary: Salary if shown
- description: Brief job description
- posted: How long ago the job was posted, as shown on the page

The apply_url MUST be the link to view that specific job, not the search results page.`

// extractSchema is the JSON schema Firecrawl fills from the results page.
var extractSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"jobs": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":       map[string]any{"type": "string", "description": "Job title"},
					"company":     map[string]any{"type": "string", "description": "Company name"},
					"location":    map[string]any{"type": "string", "description": "Job location"},
					"apply_url":   map[string]any{"type": "string", "description": "Direct URL to the job posting"},
					"salary":      map[string]any{"type": "string", "description": "Salary if listed"},
					"description": map[string]any{"type": "string", "description": "Job description snippet"},
					"posted":      map[string]any{"type": "string", "description": "Posting age, e.g. '3 days ago'"},
				},
				"required": []string{"title", "company", "apply_url"},
			},
		},
	},
	"required": []string{"jobs"},
}

// Firecrawl scrapes the Indeed results page for a unit through the
// Firecrawl /v1/scrape endpoint.
type Firecrawl struct {
	APIKey  string
	BaseURL string
	Format  Format
	client  *http.Client
}

// NewFirecrawl constructs a Firecrawl client returning the given format.
func NewFirecrawl(apiKey, baseURL string, format Format) *Firecrawl {
	if baseURL == "" {
		baseURL = "https://api.firecrawl.dev"
	}
	return &Firecrawl{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Format:  format,
		client:  &http.Client{Timeout: 2 * httpTimeout},
	}
}

func (f *Firecrawl) Name() string { return "Firecrawl" }

func (f *Firecrawl) Validate() error {
	if f.APIKey == "" {
		return errors.Wrap(config.ErrMissing, "FIRECRAWL_API_KEY is required")
	}
	return nil
}

type scrapeRequest struct {
	URL     string         `json:"url"`
	Formats []string       `json:"formats"`
	Extract *scrapeExtract `json:"extract,omitempty"`
}

type scrapeExtract struct {
	Schema map[string]any `json:"schema"`
	Prompt string         `json:"prompt"`
}

type scrapeResponse struct {
	Success bool       `json:"success"`
	Error   string     `json:"error"`
	Data    scrapeData `json:"data"`
}

type scrapeData struct {
	Markdown string         `json:"markdown"`
	RawHTML  string         `json:"rawHtml"`
	Links    []string       `json:"links"`
	Extract  *extractedJobs `json:"extract"`
	Metadata struct {
		Title     string `json:"title"`
		SourceURL string `json:"sourceURL"`
	} `json:"metadata"`
}

type extractedJobs struct {
	Jobs []extractedJob `json:"jobs"`
}

type extractedJob struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	ApplyURL    string `json:"apply_url"`
	Salary      string `json:"salary"`
	Description string `json:"description"`
	Posted      string `json:"posted"`
}

// Extract scrapes the Indeed search page for unit in f.Format.
func (f *Firecrawl) Extract(ctx context.Context, unit model.SearchUnit) (Payload, error) {
	pageURL := IndeedSearchURL(unit)

	req := scrapeRequest{URL: pageURL, Formats: []string{string(f.Format)}}
	switch f.Format {
	case FormatExtract:
		req.Extract = &scrapeExtract{Schema: extractSchema, Prompt: extractPrompt}
	case FormatLinks:
		// rawHtml lets the harvester fall back when Firecrawl's link list is empty.
		req.Formats = append(req.Formats, "rawHtml")
	}

	data, err := f.scrape(ctx, req)
	if err != nil {
		return nil, err
	}

	switch f.Format {
	case FormatExtract:
		var jobs []StructuredJob
		if data.Extract != nil {
			jobs = make([]StructuredJob, 0, len(data.Extract.Jobs))
			for _, j := range data.Extract.Jobs {
				jobs = append(jobs, StructuredJob{
					Title:       j.Title,
					Company:     j.Company,
					Location:    j.Location,
					SalaryText:  j.Salary,
					Description: j.Description,
					ApplyURL:    j.ApplyURL,
					PostedAt:    j.Posted,
					Publisher:   firecrawlProvider,
				})
			}
		}
		return JSONExtraction{SourceURL: pageURL, Provider: firecrawlProvider, Jobs: jobs}, nil
	case FormatLinks:
		links := data.Links
		if len(links) == 0 && data.RawHTML != "" {
			links = HarvestLinks(data.RawHTML, pageURL)
		}
		return LinkList{SourceURL: pageURL, Provider: firecrawlProvider, Links: links}, nil
	default:
		return MarkdownExtraction{
			SourceURL: pageURL,
			Provider:  firecrawlProvider,
			Title:     data.Metadata.Title,
			Markdown:  data.Markdown,
		}, nil
	}
}

// FetchPage scrapes a single job page as markdown.
func (f *Firecrawl) FetchPage(ctx context.Context, pageURL string) (Payload, error) {
	data, err := f.scrape(ctx, scrapeRequest{URL: pageURL, Formats: []string{string(FormatMarkdown)}})
	if err != nil {
		return nil, err
	}
	return MarkdownExtraction{
		SourceURL: pageURL,
		Provider:  ProviderForURL(pageURL),
		Title:     data.Metadata.Title,
		Markdown:  data.Markdown,
	}, nil
}

func (f *Firecrawl) scrape(ctx context.Context, body scrapeRequest) (scrapeData, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return scrapeData{}, errors.Wrap(err, "marshal firecrawl request")
	}

	endpoint := strings.TrimRight(f.BaseURL, "/") + "/v1/scrape"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
	if err != nil {
		return scrapeData{}, errors.Wrap(err, "build firecrawl request")
	}
	req.Header.Set("Authorization", "Bearer "+f.APIKey)
	req.Header.Set("Content-Type", "application/json")

	raw, err := do(f.client, req, f.Name())
	if err != nil {
		return scrapeData{}, err
	}

	var resp scrapeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return scrapeData{}, errors.Mark(errors.Wrap(err, "firecrawl json unmarshal"), ErrUpstream)
	}
	if !resp.Success {
		return scrapeData{}, errors.Mark(errors.Newf("firecrawl scrape of %s failed: %s", body.URL, resp.Error), ErrUpstream)
	}
	return resp.Data, nil
}
