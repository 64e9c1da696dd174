// Package model defines shared data structures for the scrape service.
package model

import "time"

// LocationType mirrors the jobs.location_type column values.
type LocationType string

const (
	LocationRemote LocationType = "Remote"
	LocationOnSite LocationType = "On-site"
	LocationHybrid LocationType = "Hybrid"
)

// EmploymentType mirrors the jobs.employment_type column values.
type EmploymentType string

const (
	EmploymentFullTime  EmploymentType = "Full-time"
	EmploymentPartTime  EmploymentType = "Part-time"
	EmploymentContract  EmploymentType = "Contract"
	EmploymentFreelance EmploymentType = "Freelance"
)

const (
	// UnknownCompany is stored when no employer name can be recovered.
	UnknownCompany = "Unknown Company"
	// DefaultCategory is the board category every scraped job lands in.
	DefaultCategory = "Learning & Development"
	// DefaultBatchSize is the number of SearchUnits processed per invocation.
	DefaultBatchSize = 4
	// MaxDescriptionRunes bounds the stored description.
	MaxDescriptionRunes = 2000
)

// DefaultSearchTerms are the L&D job titles searched when the caller
// supplies none.
var DefaultSearchTerms = []string{
	"Instructional Designer",
	"Learning and Development",
	"Training Specialist",
	"Corporate Trainer",
	"eLearning Developer",
	"Learning Experience Designer",
	"Training Manager",
	"Curriculum Developer",
	"Talent Development",
}

// DefaultLocations are the Florida-region and remote locations searched
// when the caller supplies none.
var DefaultLocations = []string{
	"Remote",
	"Florida",
	"Tampa, FL",
	"Orlando, FL",
	"Miami, FL",
	"Jacksonville, FL",
}

// SearchTerms returns a fresh copy of DefaultSearchTerms.
func SearchTerms() []string { return append([]string(nil), DefaultSearchTerms...) }

// Locations returns a fresh copy of DefaultLocations.
func Locations() []string { return append([]string(nil), DefaultLocations...) }

// SearchUnit is one (term, location) pair of the search space.
type SearchUnit struct {
	Term     string `json:"term"`
	Location string `json:"location"`
}

// JobRecord is the canonical, storage-ready representation of one listing.
// (ExternalID, Source) is unique in the jobs table.
type JobRecord struct {
	ID             string         `json:"id,omitempty"`
	Title          string         `json:"title"`
	Company        string         `json:"company"`
	Location       string         `json:"location"`
	LocationType   LocationType   `json:"location_type"`
	EmploymentType EmploymentType `json:"employment_type"`
	Salary         *string        `json:"salary"`
	Description    *string        `json:"description"`
	ApplyURL       *string        `json:"apply_url"`
	Source         string         `json:"source"`
	ExternalID     string         `json:"external_id"`
	Category       string         `json:"category"`
	PostedAge      string         `json:"-"` // free-text age as scraped, e.g. "3 days ago"
	PostedAt       time.Time      `json:"posted_at"`
	CreatedAt      time.Time      `json:"created_at,omitempty"`
}

// HasIdentity reports whether the record can be deduplicated at all.
func (r JobRecord) HasIdentity() bool {
	return r.ExternalID != "" || (r.ApplyURL != nil && *r.ApplyURL != "")
}

// StringPtr returns nil for blank strings, a pointer otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
