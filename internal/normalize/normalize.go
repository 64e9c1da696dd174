// Package normalize maps heterogeneous upstream job fields onto the
// canonical job record. Every function is pure and total: missing or
// malformed input degrades to a default, never to an error.
package normalize

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/unicode/norm"

	"jobboard/scrape-service/internal/model"
)

var usd = message.NewPrinter(language.AmericanEnglish)

// Salary renders a numeric (min, max, period) triple as "$min - $max" or
// "$v per period"; without usable numbers the free text passes through.
func Salary(text string, min, max float64, period string) string {
	period = strings.ToLower(strings.TrimSpace(period))
	if period == "" {
		period = "year"
	}

	switch {
	case min > 0 && max > 0 && min != max:
		if max < min {
			min, max = max, min
		}
		return "$" + amount(min) + " - $" + amount(max)
	case min > 0:
		return "$" + amount(min) + " per " + period
	case max > 0:
		return "$" + amount(max) + " per " + period
	}
	return strings.TrimSpace(text)
}

func amount(v float64) string {
	if v == math.Trunc(v) {
		return usd.Sprintf("%d", int64(v))
	}
	return usd.Sprintf("%.2f", v)
}

// Location composes a display location from structured fields.
func Location(city, state, country string, remote bool) string {
	city, state, country = strings.TrimSpace(city), strings.TrimSpace(state), strings.TrimSpace(country)

	var place string
	switch {
	case city != "" && state != "":
		place = city + ", " + state
	case city != "" && country != "":
		place = city + ", " + country
	case city != "":
		place = city
	case state != "":
		place = state
	case country != "":
		place = country
	}

	switch {
	case remote && place != "" && !strings.EqualFold(place, "remote"):
		return "Remote in " + place
	case remote:
		return "Remote"
	case place != "":
		return place
	}
	return "Unknown"
}

// LocationType derives Remote/Hybrid/On-site from the upstream remote flag
// and the location text. Any mention of "remote" wins over "hybrid".
func LocationType(remote bool, text string) model.LocationType {
	lower := strings.ToLower(text)
	switch {
	case remote || strings.Contains(lower, "remote"):
		return model.LocationRemote
	case strings.Contains(lower, "hybrid"):
		return model.LocationHybrid
	}
	return model.LocationOnSite
}

// EmploymentType maps provider employment labels onto the board's enum.
func EmploymentType(raw string) model.EmploymentType {
	key := strings.ToLower(raw)
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	switch {
	case key == "":
		return model.EmploymentFullTime
	case strings.Contains(key, "freelance"):
		return model.EmploymentFreelance
	case strings.Contains(key, "parttime"):
		return model.EmploymentPartTime
	case strings.Contains(key, "contract"), strings.Contains(key, "temporary"), strings.Contains(key, "temp"):
		return model.EmploymentContract
	}
	return model.EmploymentFullTime
}

var (
	mdLinkRe     = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	mdEmphasisRe = regexp.MustCompile(`[*_]{1,3}([^*_]+)[*_]{1,3}`)
	mdHeadingRe  = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s*`)
	spaceRe      = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// CleanText NFKC-normalizes s, drops markdown link/emphasis/heading syntax
// and collapses runs of whitespace. Single newlines are kept.
func CleanText(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = mdLinkRe.ReplaceAllString(s, "$1")
	s = mdEmphasisRe.ReplaceAllString(s, "$1")
	s = mdHeadingRe.ReplaceAllString(s, "")
	s = spaceRe.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Truncate cuts s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n <= 3 {
		return string(r[:n])
	}
	return strings.TrimSpace(string(r[:n-3])) + "..."
}

// Description cleans and bounds a description; blank input yields nil.
func Description(s string) *string {
	s = Truncate(CleanText(s), model.MaxDescriptionRunes)
	return model.StringPtr(s)
}
