package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"jobboard/scrape-service/internal/config"
	"jobboard/scrape-service/internal/model"
)

const (
	adzunaBaseURL  = "https://api.adzuna.com/v1/api/jobs"
	adzunaPageSize = 50
)

// Adzuna fetches job offers from the Adzuna public API, one results page
// per SearchUnit.
type Adzuna struct {
	AppID   string
	AppKey  string
	Country string // "us", "gb", "fr", …
	BaseURL string
	client  *http.Client
}

// NewAdzuna constructs a fetcher with a shared HTTP client.
func NewAdzuna(appID, appKey, country string) *Adzuna {
	return &Adzuna{
		AppID:   appID,
		AppKey:  appKey,
		Country: country,
		BaseURL: adzunaBaseURL,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

func (a *Adzuna) Name() string { return "Adzuna" }

func (a *Adzuna) Validate() error {
	if a.AppID == "" || a.AppKey == "" {
		return errors.Wrap(config.ErrMissing, "ADZUNA_APP_ID and ADZUNA_APP_KEY are required")
	}
	return nil
}

// adzunaResponse mirrors the top-level Adzuna JSON response.
type adzunaResponse struct {
	Results []adzunaResult `json:"results"`
	Count   int            `json:"count"`
}

// adzunaResult mirrors a single Adzuna job listing.
type adzunaResult struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Company      adzunaCompany  `json:"company"`
	Location     adzunaLocation `json:"location"`
	SalaryMin    float64        `json:"salary_min"`
	SalaryMax    float64        `json:"salary_max"`
	RedirectURL  string         `json:"redirect_url"`
	Created      string         `json:"created"`
	ContractTime string         `json:"contract_time"`
	ContractType string         `json:"contract_type"`
}

type adzunaCompany struct {
	DisplayName string `json:"display_name"`
}

type adzunaLocation struct {
	DisplayName string `json:"display_name"`
}

// Extract retrieves the newest page of offers for a unit.
func (a *Adzuna) Extract(ctx context.Context, unit model.SearchUnit) (Payload, error) {
	endpoint := strings.TrimRight(a.BaseURL, "/") + "/" + a.Country + "/search/1"

	params := url.Values{}
	params.Set("app_id", a.AppID)
	params.Set("app_key", a.AppKey)
	params.Set("results_per_page", strconv.Itoa(adzunaPageSize))
	params.Set("what", unit.Term)
	params.Set("max_days_old", "30")
	params.Set("sort_by", "date")
	if strings.EqualFold(unit.Location, "remote") {
		params.Set("what_and", "remote")
	} else {
		params.Set("where", unit.Location)
	}

	reqURL := endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build adzuna request")
	}
	req.Header.Set("Accept", "application/json")

	body, err := do(a.client, req, a.Name())
	if err != nil {
		return nil, err
	}

	var apiResp adzunaResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "adzuna json unmarshal"), ErrUpstream)
	}

	jobs := make([]StructuredJob, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		employment := r.ContractTime
		if r.ContractType == "contract" {
			employment = r.ContractType
		}
		text := strings.ToLower(r.Title + " " + r.Location.DisplayName)
		jobs = append(jobs, StructuredJob{
			ID:             r.ID,
			Title:          r.Title,
			Company:        r.Company.DisplayName,
			Location:       r.Location.DisplayName,
			Remote:         strings.Contains(text, "remote"),
			EmploymentType: employment,
			SalaryMin:      r.SalaryMin,
			SalaryMax:      r.SalaryMax,
			SalaryPeriod:   "year",
			Description:    r.Description,
			ApplyURL:       r.RedirectURL,
			PostedAt:       r.Created,
			Publisher:      a.Name(),
		})
	}

	// The API endpoint carries credentials; strip them from the origin.
	return JSONExtraction{SourceURL: endpoint, Provider: a.Name(), Jobs: jobs}, nil
}
