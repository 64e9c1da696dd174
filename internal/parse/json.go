package parse

import (
	"context"
	"strings"

	"jobboard/scrape-service/internal/extract"
	"jobboard/scrape-service/internal/filter"
	"jobboard/scrape-service/internal/model"
	"jobboard/scrape-service/internal/normalize"
)

// JSONStrategy maps structured records from job-search APIs and schema
// extraction.
type JSONStrategy struct{}

// Parse implements Strategy. Non-JSON payloads yield nothing.
func (JSONStrategy) Parse(_ context.Context, p extract.Payload) []model.JobRecord {
	j, ok := p.(extract.JSONExtraction)
	if !ok {
		return nil
	}
	out := make([]model.JobRecord, 0, len(j.Jobs))
	for _, job := range j.Jobs {
		if rec, ok := fromStructured(job, j.Provider); ok {
			out = append(out, rec)
		}
	}
	return out
}

func fromStructured(job extract.StructuredJob, provider string) (model.JobRecord, bool) {
	title := normalize.CleanText(job.Title)
	if title == "" {
		return model.JobRecord{}, false
	}

	source := strings.TrimSpace(job.Publisher)
	if source == "" {
		source = provider
	}
	profile := ProfileFor(source, job.ApplyURL)

	applyURL := NormalizeURL(job.ApplyURL, profile)
	externalID := strings.TrimSpace(job.ID)
	if externalID == "" && applyURL != "" {
		externalID = ExternalID(applyURL, profile)
	}
	if externalID == "" {
		return model.JobRecord{}, false
	}

	company := normalize.CleanText(job.Company)
	if company == "" {
		company = model.UnknownCompany
	}

	location := normalize.CleanText(job.Location)
	if location == "" && (job.City != "" || job.State != "" || job.Country != "" || job.Remote) {
		location = normalize.Location(job.City, job.State, job.Country, job.Remote)
	}

	salary := normalize.Salary(job.SalaryText, job.SalaryMin, job.SalaryMax, job.SalaryPeriod)
	if salary == "" {
		salary = salaryFrom(job.Description)
	}

	employment := normalize.EmploymentType(job.EmploymentType)
	if job.EmploymentType == "" {
		employment = employmentFrom(job.Description)
	}

	rec := model.JobRecord{
		Title:          title,
		Company:        company,
		Location:       location,
		LocationType:   normalize.LocationType(job.Remote, title+" "+location),
		EmploymentType: employment,
		Salary:         model.StringPtr(salary),
		Description:    normalize.Description(job.Description),
		ApplyURL:       model.StringPtr(applyURL),
		Source:         source,
		ExternalID:     externalID,
		Category:       model.DefaultCategory,
		PostedAge:      strings.TrimSpace(job.PostedAt),
	}
	if t, ok := filter.ParseDate(job.PostedAt); ok {
		rec.PostedAt = t
	}
	return rec, true
}
