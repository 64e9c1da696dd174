package parse

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"jobboard/scrape-service/internal/extract"
	"jobboard/scrape-service/internal/model"
	"jobboard/scrape-service/internal/normalize"
)

var mdLinkRe = regexp.MustCompile(`\[([^\]]*)\]\((\S+?)(?:\s+"[^"]*")?\)`)

// MarkdownStrategy parses markdown payloads. A search-results page holding
// several job links yields one record per listing; anything else is parsed
// as a single posting page.
type MarkdownStrategy struct{}

// Parse implements Strategy.
func (MarkdownStrategy) Parse(_ context.Context, p extract.Payload) []model.JobRecord {
	m, ok := p.(extract.MarkdownExtraction)
	if !ok {
		return nil
	}
	if recs := parseListings(m); len(recs) > 0 {
		return recs
	}
	if rec, ok := ParsePage(m); ok {
		return []model.JobRecord{rec}
	}
	return nil
}

// ParsePage reconstructs one posting from a job page rendered as markdown.
// It reports false when no title or identity key can be recovered.
func ParsePage(m extract.MarkdownExtraction) (model.JobRecord, bool) {
	profile := ProfileFor(m.Provider, m.SourceURL)
	pageURL := NormalizeURL(m.SourceURL, profile)
	if pageURL == "" || (profile.ListingPath != nil && profile.ListingPath.MatchString(pageURL)) {
		return model.JobRecord{}, false
	}

	cleaned := normalize.CleanText(m.Markdown)
	if cleaned == "" && strings.TrimSpace(m.Title) == "" {
		return model.JobRecord{}, false
	}

	title, company := splitTitle(m.Title, profile)
	if title == "" {
		title = normalize.CleanText(firstHeading(m.Markdown))
	}
	if title == "" {
		title = firstLine(cleaned)
	}
	if title == "" {
		return model.JobRecord{}, false
	}

	externalID := ExternalID(pageURL, profile)
	if externalID == "" {
		return model.JobRecord{}, false
	}

	if company == "" {
		company = companyFrom(cleaned, profile)
	}
	if company == "" {
		company = model.UnknownCompany
	}

	return buildRecord(title, company, cleaned, pageURL, externalID, sourceName(m.Provider, profile)), true
}

// listing is one job link on a search-results page and the text up to the
// next job link.
type listing struct {
	title string
	url   string
	block string
}

func parseListings(m extract.MarkdownExtraction) []model.JobRecord {
	profile := ProfileFor(m.Provider, m.SourceURL)

	var found []listing
	seen := make(map[string]bool)
	matches := mdLinkRe.FindAllStringSubmatchIndex(m.Markdown, -1)
	for i, loc := range matches {
		href := m.Markdown[loc[4]:loc[5]]
		abs := NormalizeURL(ResolveURL(href, m.SourceURL), profile)
		if !profile.IsJobURL(abs) {
			continue
		}
		if seen[abs] {
			continue
		}
		seen[abs] = true

		end := len(m.Markdown)
		for _, next := range matches[i+1:] {
			nextAbs := NormalizeURL(ResolveURL(m.Markdown[next[4]:next[5]], m.SourceURL), profile)
			if nextAbs != abs && profile.IsJobURL(nextAbs) {
				end = next[0]
				break
			}
		}
		found = append(found, listing{
			title: m.Markdown[loc[2]:loc[3]],
			url:   abs,
			block: m.Markdown[loc[1]:end],
		})
	}

	// A posting page linking to itself is not a listing.
	if len(found) == 0 || (len(found) == 1 && found[0].url == NormalizeURL(m.SourceURL, profile)) {
		return nil
	}

	out := make([]model.JobRecord, 0, len(found))
	for _, l := range found {
		if rec, ok := fromListing(l, profile, m.Provider); ok {
			out = append(out, rec)
		}
	}
	return out
}

func fromListing(l listing, p *Profile, provider string) (model.JobRecord, bool) {
	block := normalize.CleanText(l.block)
	title := normalize.CleanText(l.title)
	if utf8.RuneCountInString(title) < minTitleLen {
		title = firstLine(block)
	}
	if title == "" {
		return model.JobRecord{}, false
	}

	externalID := ExternalID(l.url, p)
	if externalID == "" {
		return model.JobRecord{}, false
	}

	company := companyFrom(block, p)
	if company == "" {
		company = listingCompany(block, p)
	}
	if company == "" {
		company = model.UnknownCompany
	}

	return buildRecord(title, company, block, l.url, externalID, sourceName(provider, p)), true
}

// listingCompany takes the first short line of a listing block that is not
// a location, salary, age or rating.
func listingCompany(block string, p *Profile) string {
	for _, line := range nonEmptyLines(block) {
		switch {
		case utf8.RuneCountInString(line) > 80,
			looksLikeLocation(line),
			salaryFrom(line) != "",
			ageFrom(line) != "",
			ratingRe.MatchString(line),
			isBoilerplate(line):
			continue
		}
		if c := p.stripBoilerplate(line); c != "" {
			return c
		}
	}
	return ""
}

func buildRecord(title, company, text, applyURL, externalID, source string) model.JobRecord {
	location := locationFrom(text)
	return model.JobRecord{
		Title:          title,
		Company:        company,
		Location:       location,
		LocationType:   normalize.LocationType(false, title+" "+location),
		EmploymentType: employmentFrom(text),
		Salary:         model.StringPtr(salaryFrom(text)),
		Description:    normalize.Description(text),
		ApplyURL:       model.StringPtr(applyURL),
		Source:         source,
		ExternalID:     externalID,
		Category:       model.DefaultCategory,
		PostedAge:      ageFrom(text),
	}
}

func sourceName(provider string, p *Profile) string {
	if p != Generic {
		return p.Name
	}
	if provider = strings.TrimSpace(provider); provider != "" {
		return provider
	}
	return p.Name
}
