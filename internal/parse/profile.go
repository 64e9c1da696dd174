package parse

import (
	"regexp"
	"strings"
	"sync"

	"jobboard/scrape-service/internal/extract"
)

// Profile holds everything provider-specific the parser knows about a job
// board: URL shapes, the native job key and title/company boilerplate.
// A board changing its page format should only ever require editing its
// Profile. Which hosts belong to a board is decided by
// extract.ProviderForURL; Name must match the name it returns.
type Profile struct {
	Name string
	// Host is the scheme+host used to absolutize relative links.
	Host string
	// JobPath matches URLs of individual postings.
	JobPath *regexp.Regexp
	// ListingPath matches search and listing pages, which are never postings.
	ListingPath *regexp.Regexp
	// KeyPattern captures the board's native job key in group 1.
	KeyPattern *regexp.Regexp
	// BareKey matches a job key given without any URL around it.
	BareKey *regexp.Regexp
	// StripQuery drops tracking query strings during URL normalization.
	StripQuery bool
	// Boilerplate tokens are removed from company candidates.
	Boilerplate []string
	// TitleSuffixes are trimmed from page titles before splitting.
	TitleSuffixes []string
	// TitlePattern, when set, reads a page title with named groups "title"
	// and "company" instead of separator splitting.
	TitlePattern *regexp.Regexp

	compileOnce sync.Once
	boilerplate []*regexp.Regexp
}

var (
	Indeed = &Profile{
		Name:        "Indeed",
		Host:        "https://www.indeed.com",
		JobPath:     regexp.MustCompile(`(?i)/(viewjob|rc/clk|pagead/clk)\b|[?&]jk=[a-f0-9]{16}`),
		ListingPath: regexp.MustCompile(`(?i)^https?://[^/]+/(jobs|q-[^/?]*|cmp/[^?]*)(\?|$)|/(companies|career-advice)/`),
		KeyPattern:  regexp.MustCompile(`(?i)(?:^|[?&])jk=([a-f0-9]{16})`),
		BareKey:     regexp.MustCompile(`(?i)^[a-f0-9]{16}$`),
		Boilerplate: []string{"indeed.com", "indeed", "job post", "apply now"},
		TitleSuffixes: []string{
			" - Indeed.com", " | Indeed.com", " - Indeed", " | Indeed",
		},
	}

	LinkedIn = &Profile{
		Name:          "LinkedIn",
		Host:          "https://www.linkedin.com",
		JobPath:       regexp.MustCompile(`(?i)/jobs/view/`),
		ListingPath:   regexp.MustCompile(`(?i)/jobs/(search|collections)\b`),
		KeyPattern:    regexp.MustCompile(`(?i)/jobs/view/(?:[^/?#]*-)?(\d{6,})`),
		StripQuery:    true,
		Boilerplate:   []string{"linkedin", "sign in", "join now"},
		TitleSuffixes: []string{" | LinkedIn", " - LinkedIn"},
		TitlePattern:  regexp.MustCompile(`^(?P<company>.+?) hiring (?P<title>.+?)(?: in (?P<location>.+))?$`),
	}

	ZipRecruiter = &Profile{
		Name:          "ZipRecruiter",
		Host:          "https://www.ziprecruiter.com",
		JobPath:       regexp.MustCompile(`(?i)/c/[^/]+/job/|/k/l/|/jobs/[^/?#]+-[a-f0-9]{8}\b`),
		ListingPath:   regexp.MustCompile(`(?i)/candidate/search|/jobs-search`),
		KeyPattern:    regexp.MustCompile(`(?i)(?:[?&]jid=|/k/l/)([A-Za-z0-9_-]{8,})`),
		Boilerplate:   []string{"ziprecruiter"},
		TitleSuffixes: []string{" | ZipRecruiter", " - ZipRecruiter"},
	}

	Glassdoor = &Profile{
		Name:          "Glassdoor",
		Host:          "https://www.glassdoor.com",
		JobPath:       regexp.MustCompile(`(?i)/job-listing/|/partner/joblisting\.htm`),
		ListingPath:   regexp.MustCompile(`(?i)/job/[^?]*SRCH_|/search/`),
		KeyPattern:    regexp.MustCompile(`(?i)[?&](?:jl|jobListingId)=(\d+)`),
		Boilerplate:   []string{"glassdoor", "easy apply"},
		TitleSuffixes: []string{" | Glassdoor", " - Glassdoor"},
	}

	// Generic covers company career sites and unknown boards.
	Generic = &Profile{
		Name:        "Web",
		JobPath:     regexp.MustCompile(`(?i)/(jobs?|careers?|positions?|openings?|vacanc(?:y|ies)|postings?)/[^/?#]+`),
		ListingPath: regexp.MustCompile(`(?i)/search\b|[?&](q|query|keywords?|search)=`),
		Boilerplate: []string{"careers", "jobs"},
	}
)

var profiles = []*Profile{Indeed, LinkedIn, ZipRecruiter, Glassdoor}

// ProfileFor picks the profile for a provider name, falling back to the
// host of rawURL, then Generic.
func ProfileFor(provider, rawURL string) *Profile {
	for _, p := range profiles {
		if strings.EqualFold(p.Name, strings.TrimSpace(provider)) {
			return p
		}
	}
	return ProfileForURL(rawURL)
}

// ProfileForURL picks the profile of the board hosting rawURL.
func ProfileForURL(rawURL string) *Profile {
	name := extract.ProviderForURL(rawURL)
	for _, p := range profiles {
		if p.Name == name {
			return p
		}
	}
	return Generic
}

// IsJobURL reports whether an absolute URL looks like a single posting on
// this board rather than a search or listing page.
func (p *Profile) IsJobURL(absURL string) bool {
	if absURL == "" || p.JobPath == nil || !p.JobPath.MatchString(absURL) {
		return false
	}
	return p.ListingPath == nil || !p.ListingPath.MatchString(absURL)
}

// Key extracts the native job key from s, or "".
func (p *Profile) Key(s string) string {
	if p.KeyPattern == nil {
		return ""
	}
	m := p.KeyPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

func (p *Profile) stripBoilerplate(s string) string {
	p.compileOnce.Do(func() {
		for _, b := range p.Boilerplate {
			if b != "" {
				p.boilerplate = append(p.boilerplate, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(b)+`\b`))
			}
		}
	})
	out := s
	for _, re := range p.boilerplate {
		out = re.ReplaceAllString(out, "")
	}
	out = strings.Trim(strings.TrimSpace(out), "-|·•,:")
	return strings.TrimSpace(out)
}
