package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"

	"jobboard/scrape-service/internal/config"
	"jobboard/scrape-service/internal/model"
)

// JSearch queries the JSearch job-search API (RapidAPI), which aggregates
// LinkedIn, Indeed, ZipRecruiter and others into structured records.
type JSearch struct {
	APIKey  string
	Host    string
	BaseURL string // defaults to https://<Host>
	client  *http.Client
}

// NewJSearch constructs a JSearch client with a shared HTTP client.
func NewJSearch(apiKey, host string) *JSearch {
	return &JSearch{
		APIKey:  apiKey,
		Host:    host,
		BaseURL: "https://" + host,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

func (j *JSearch) Name() string { return "JSearch" }

func (j *JSearch) Validate() error {
	if j.APIKey == "" {
		return errors.Wrap(config.ErrMissing, "JSEARCH_API_KEY is required")
	}
	return nil
}

// jsearchResponse mirrors the top-level JSearch JSON response.
type jsearchResponse struct {
	Status string       `json:"status"`
	Data   []jsearchJob `json:"data"`
}

// jsearchJob mirrors a single JSearch listing. Nullable numbers decode to 0.
type jsearchJob struct {
	JobID          string  `json:"job_id"`
	Title          string  `json:"job_title"`
	EmployerName   string  `json:"employer_name"`
	Publisher      string  `json:"job_publisher"`
	EmploymentType string  `json:"job_employment_type"`
	ApplyLink      string  `json:"job_apply_link"`
	Description    string  `json:"job_description"`
	IsRemote       bool    `json:"job_is_remote"`
	PostedAt       string  `json:"job_posted_at"`
	PostedAtUTC    string  `json:"job_posted_at_datetime_utc"`
	City           string  `json:"job_city"`
	State          string  `json:"job_state"`
	Country        string  `json:"job_country"`
	MinSalary      float64 `json:"job_min_salary"`
	MaxSalary      float64 `json:"job_max_salary"`
	SalaryPeriod   string  `json:"job_salary_period"`
	Salary         string  `json:"job_salary"`
}

// Extract runs one search for "<term> in <location>" over the past month.
func (j *JSearch) Extract(ctx context.Context, unit model.SearchUnit) (Payload, error) {
	params := url.Values{}
	params.Set("query", strings.TrimSpace(unit.Term+" in "+unit.Location))
	params.Set("page", "1")
	params.Set("num_pages", "1")
	params.Set("date_posted", "month")
	if strings.EqualFold(strings.TrimSpace(unit.Location), "remote") {
		params.Set("query", unit.Term)
		params.Set("remote_jobs_only", "true")
	}

	reqURL := strings.TrimRight(j.BaseURL, "/") + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build jsearch request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-RapidAPI-Key", j.APIKey)
	req.Header.Set("X-RapidAPI-Host", j.Host)

	body, err := do(j.client, req, j.Name())
	if err != nil {
		return nil, err
	}

	var apiResp jsearchResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "jsearch json unmarshal"), ErrUpstream)
	}

	jobs := make([]StructuredJob, 0, len(apiResp.Data))
	for _, r := range apiResp.Data {
		posted := r.PostedAt
		if posted == "" {
			posted = r.PostedAtUTC
		}
		jobs = append(jobs, StructuredJob{
			ID:             r.JobID,
			Title:          r.Title,
			Company:        r.EmployerName,
			City:           r.City,
			State:          r.State,
			Country:        r.Country,
			Remote:         r.IsRemote,
			EmploymentType: r.EmploymentType,
			SalaryText:     r.Salary,
			SalaryMin:      r.MinSalary,
			SalaryMax:      r.MaxSalary,
			SalaryPeriod:   r.SalaryPeriod,
			Description:    r.Description,
			ApplyURL:       r.ApplyLink,
			PostedAt:       posted,
			Publisher:      r.Publisher,
		})
	}

	return JSONExtraction{SourceURL: reqURL, Provider: j.Name(), Jobs: jobs}, nil
}
