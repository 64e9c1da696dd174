// Package filter decides which parsed jobs are worth persisting.
package filter

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Window is the rolling eligibility window for absolute posting dates.
const Window = 30 * 24 * time.Hour

// futureSlack tolerates timezone skew on dates slightly in the future.
const futureSlack = 48 * time.Hour

var (
	freshRe  = regexp.MustCompile(`(?i)just posted|today|just now`)
	daysRe   = regexp.MustCompile(`(?i)(\d+)\s*\+?\s*days?\s+ago`)
	weeksRe  = regexp.MustCompile(`(?i)(\d+)\s*\+?\s*weeks?\s+ago`)
	monthsRe = regexp.MustCompile(`(?i)(\d+)\s*\+?\s*months?\s+ago`)
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"01/02/2006",
	"1/2/2006",
}

// IsEligible reports whether a free-text posting age falls inside the
// rolling window. Empty input counts as undefined and is eligible.
func IsEligible(age string) bool {
	return IsEligibleAt(age, time.Now())
}

// IsEligibleAt is IsEligible with an explicit clock.
func IsEligibleAt(age string, now time.Time) bool {
	s := strings.TrimSpace(age)
	if s == "" {
		return true
	}

	if freshRe.MatchString(s) {
		return true
	}
	if n, ok := count(daysRe, s); ok {
		return n <= 30
	}
	if n, ok := count(weeksRe, s); ok {
		return n <= 4
	}
	if n, ok := count(monthsRe, s); ok {
		// Any "N months ago" with N >= 1 is ineligible.
		return n < 1
	}
	if t, ok := ParseDate(s); ok {
		age := now.Sub(t)
		return age <= Window && age >= -futureSlack
	}
	return true
}

func count(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if errors.Is(err, strconv.ErrRange) {
		// More digits than an int holds is still a count, just a very old one.
		return math.MaxInt, true
	}
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseDate reads an absolute posting date in any of the layouts job boards
// commonly emit.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "Posted ")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
