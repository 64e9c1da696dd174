package extract

import (
	"net/url"
	"strings"
)

// GenericProvider names pages that are not on a known job board.
const GenericProvider = "Web"

// boards maps a host fragment to the job board serving it. This is the
// only place a board's domain is listed.
var boards = []struct{ domain, name string }{
	{"indeed.", "Indeed"},
	{"linkedin.", "LinkedIn"},
	{"ziprecruiter.", "ZipRecruiter"},
	{"glassdoor.", "Glassdoor"},
}

// ProviderForURL names the job board hosting u, or GenericProvider when the
// host is unknown or u has none.
func ProviderForURL(u string) string {
	parsed, err := url.Parse(strings.TrimSpace(u))
	if err != nil || parsed.Host == "" {
		return GenericProvider
	}
	host := strings.ToLower(parsed.Host)
	for _, b := range boards {
		if strings.Contains(host, b.domain) {
			return b.name
		}
	}
	return GenericProvider
}
