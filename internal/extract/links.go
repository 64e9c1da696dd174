package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HarvestLinks returns the absolute, de-duplicated anchor targets of html in
// document order. Relative hrefs resolve against sourceURL. Unparseable
// markup yields nil.
func HarvestLinks(html, sourceURL string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	base, err := url.Parse(sourceURL)
	if err != nil || !base.IsAbs() {
		base = nil
	}

	var links []string
	seen := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if skipHref(href) {
			return
		}
		resolved := resolveHref(href, base)
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true
		links = append(links, resolved)
	})
	return links
}

func skipHref(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	if href == "" || strings.HasPrefix(href, "#") {
		return true
	}
	for _, scheme := range []string{"javascript:", "mailto:", "tel:", "sms:", "data:"} {
		if strings.HasPrefix(href, scheme) {
			return true
		}
	}
	return false
}

func resolveHref(href string, base *url.URL) string {
	href = strings.TrimSpace(href)
	if base == nil {
		if u, err := url.Parse(href); err == nil && u.IsAbs() {
			return u.String()
		}
		return ""
	}
	u, err := base.Parse(href)
	if err != nil {
		return ""
	}
	return u.String()
}
