package normalize_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"jobboard/scrape-service/internal/model"
	"jobboard/scrape-service/internal/normalize"
)

func TestSalary(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		min, max float64
		period   string
		want     string
	}{
		{"range", "", 55000, 72000, "YEAR", "$55,000 - $72,000"},
		{"swapped range", "", 72000, 55000, "", "$55,000 - $72,000"},
		{"min only", "", 28, 0, "HOUR", "$28 per hour"},
		{"max only defaults to year", "", 0, 90000, "", "$90,000 per year"},
		{"equal bounds", "", 40, 40, "hour", "$40 per hour"},
		{"cents", "", 27.5, 0, "hour", "$27.50 per hour"},
		{"free text", "  Competitive  ", 0, 0, "", "Competitive"},
		{"nothing", "", 0, 0, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize.Salary(tt.text, tt.min, tt.max, tt.period))
		})
	}
}

func TestLocation(t *testing.T) {
	assert.Equal(t, "Tampa, FL", normalize.Location("Tampa", "FL", "US", false))
	assert.Equal(t, "Remote in Tampa, FL", normalize.Location("Tampa", "FL", "US", true))
	assert.Equal(t, "Toronto, CA", normalize.Location("Toronto", "", "CA", false))
	assert.Equal(t, "Remote in US", normalize.Location("", "", "US", true))
	assert.Equal(t, "Remote", normalize.Location("", "", "", true))
	assert.Equal(t, "Unknown", normalize.Location("", "", "", false))
	assert.Equal(t, "Remote", normalize.Location("Remote", "", "", true))
}

func TestLocationType(t *testing.T) {
	assert.Equal(t, model.LocationRemote, normalize.LocationType(true, "Tampa, FL"))
	assert.Equal(t, model.LocationRemote, normalize.LocationType(false, "Remote in Florida"))
	assert.Equal(t, model.LocationHybrid, normalize.LocationType(false, "Hybrid in Miami, FL"))
	assert.Equal(t, model.LocationRemote, normalize.LocationType(false, "Remote (hybrid optional)"))
	assert.Equal(t, model.LocationRemote, normalize.LocationType(false, "Hybrid remote in Miami, FL"))
	assert.Equal(t, model.LocationOnSite, normalize.LocationType(false, "Orlando, FL"))
	assert.Equal(t, model.LocationOnSite, normalize.LocationType(false, ""))
}

func TestEmploymentType(t *testing.T) {
	cases := map[string]model.EmploymentType{
		"FULLTIME":   model.EmploymentFullTime,
		"":           model.EmploymentFullTime,
		"PARTTIME":   model.EmploymentPartTime,
		"part-time":  model.EmploymentPartTime,
		"CONTRACTOR": model.EmploymentContract,
		"contract":   model.EmploymentContract,
		"Temporary":  model.EmploymentContract,
		"Freelance":  model.EmploymentFreelance,
		"INTERN":     model.EmploymentFullTime,
		"permanent":  model.EmploymentFullTime,
	}
	for in, want := range cases {
		assert.Equal(t, want, normalize.EmploymentType(in), in)
	}
}

func TestCleanText(t *testing.T) {
	in := "## **Senior**  Instructional Designer\r\n\n\n\n[Apply now](https://x.test/apply) _today_"
	assert.Equal(t, "Senior Instructional Designer\n\nApply now today", normalize.CleanText(in))
	assert.Equal(t, "", normalize.CleanText("   \n  "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", normalize.Truncate("short", 10))
	got := normalize.Truncate(strings.Repeat("é", 50), 10)
	assert.Equal(t, 10, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, "ab", normalize.Truncate("abcdef", 2))
}

func TestDescription(t *testing.T) {
	assert.Nil(t, normalize.Description("  "))
	d := normalize.Description(strings.Repeat("word ", 1000))
	if assert.NotNil(t, d) {
		assert.LessOrEqual(t, utf8.RuneCountInString(*d), model.MaxDescriptionRunes)
	}
}
