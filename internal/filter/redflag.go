package filter

import "strings"

// ContainsRedFlag returns true if any exclusion term appears
// (case-insensitive) anywhere in the combined title + company + description.
//
// Checked before every insert; a match discards the job.
func ContainsRedFlag(title, company, description string, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	combined := strings.ToLower(title + " " + company + " " + description)
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		if strings.Contains(combined, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
