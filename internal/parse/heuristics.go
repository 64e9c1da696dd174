package parse

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"jobboard/scrape-service/internal/model"
	"jobboard/scrape-service/internal/normalize"
)

// minTitleLen rejects fragments like "Job" or "New" as titles.
const minTitleLen = 4

const maxLineLen = 120

var titleSeparators = []string{" - ", " | ", " – ", " — "}

var (
	salaryPatterns = []*regexp.Regexp{
		// range with unit
		regexp.MustCompile(`(?i)\$\s?\d[\d,]*(?:\.\d+)?\s*[kK]?\s*(?:-|–|—|to)\s*\$?\s?\d[\d,]*(?:\.\d+)?\s*[kK]?\s*(?:(?:per|an|a|/)\s*(?:hour|hr|year|yr|annum|month|week|day)\b|hourly\b|annually\b|yearly\b)`),
		// range
		regexp.MustCompile(`\$\s?\d[\d,]*(?:\.\d+)?\s*[kK]?\s*(?:-|–|—|to)\s*\$?\s?\d[\d,]*(?:\.\d+)?\s*[kK]?`),
		// amount with unit
		regexp.MustCompile(`(?i)\$\s?\d[\d,]*(?:\.\d+)?\s*[kK]?\s*(?:(?:per|an|a|/)\s*(?:hour|hr|year|yr|annum|month|week|day)\b|hourly\b|annually\b|yearly\b)`),
		// bare amount
		regexp.MustCompile(`\$\s?\d[\d,]*(?:\.\d+)?[kK]?`),
	}

	ageRe        = regexp.MustCompile(`(?i)\b(just posted|posted today|just now|today|\d+\+?\s*(?:days?|weeks?|months?)\s+ago)`)
	cityStateRe  = regexp.MustCompile(`\b([A-Z][A-Za-z.'-]+(?: [A-Z][A-Za-z.'-]+){0,3}), ?([A-Z]{2})\b`)
	labeledLocRe = regexp.MustCompile(`(?im)^\s*(?:location|job location)\s*[:\-]\s*(.+)$`)
	remoteRe     = regexp.MustCompile(`(?i)\b(remote|hybrid)\b`)
	employmentRe = regexp.MustCompile(`(?i)\b(full[- ]?time|part[- ]?time|contract(?:or)?|temporary|freelance)\b`)
	companyRe    = regexp.MustCompile(`(?im)^\s*(?:company|employer|organization|hiring company)\s*[:\-]\s*(.+)$`)
	ratingRe     = regexp.MustCompile(`(?i)^\s*\d(?:\.\d)?\s*(?:out of 5(?: stars)?|★+|stars?)?\s*$`)
)

var pageBoilerplate = []string{
	"skip to", "sign in", "log in", "sign up", "find jobs", "menu", "cookie",
	"home", "search", "apply now", "save job", "share", "report job", "upload your resume",
}

// splitTitle separates a page title such as "Trainer - Acme - Tampa, FL |
// Indeed.com" into a job title and a company candidate.
func splitTitle(raw string, p *Profile) (title, company string) {
	s := strings.TrimSpace(normalize.CleanText(raw))
	for _, suffix := range p.TitleSuffixes {
		if len(s) >= len(suffix) && strings.EqualFold(s[len(s)-len(suffix):], suffix) {
			s = strings.TrimSpace(s[:len(s)-len(suffix)])
		}
	}
	if s == "" {
		return "", ""
	}

	if p.TitlePattern != nil {
		if m := p.TitlePattern.FindStringSubmatch(s); m != nil {
			title = strings.TrimSpace(m[p.TitlePattern.SubexpIndex("title")])
			company = p.stripBoilerplate(m[p.TitlePattern.SubexpIndex("company")])
			if utf8.RuneCountInString(title) < minTitleLen {
				title = ""
			}
			return title, company
		}
	}

	parts := []string{s}
	for _, sep := range titleSeparators {
		if strings.Contains(s, sep) {
			parts = strings.Split(s, sep)
			break
		}
	}

	title = strings.TrimSpace(parts[0])
	if utf8.RuneCountInString(title) < minTitleLen {
		title = ""
	}
	if len(parts) > 1 {
		company = p.stripBoilerplate(parts[1])
		if looksLikeLocation(company) {
			company = ""
		}
	}
	return title, company
}

// firstHeading returns the text of the first markdown heading that is long
// enough to be a title.
func firstHeading(markdown string) string {
	src := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var heading string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if t := inlineText(h, src); utf8.RuneCountInString(t) >= minTitleLen && !isBoilerplate(t) {
			heading = t
			return ast.WalkStop, nil
		}
		return ast.WalkSkipChildren, nil
	})
	return heading
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// firstLine returns the first line of cleaned text that reads like a title.
func firstLine(cleaned string) string {
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		n := utf8.RuneCountInString(line)
		if n < minTitleLen || n > maxLineLen || isBoilerplate(line) || strings.IndexFunc(line, unicode.IsLetter) < 0 {
			continue
		}
		return line
	}
	return ""
}

func isBoilerplate(line string) bool {
	lower := strings.ToLower(line)
	for _, b := range pageBoilerplate {
		if strings.HasPrefix(lower, b) {
			return true
		}
	}
	return false
}

// companyFrom mines a company name from a "Company:" label or the line
// preceding a star rating.
func companyFrom(cleaned string, p *Profile) string {
	if m := companyRe.FindStringSubmatch(cleaned); m != nil {
		if c := p.stripBoilerplate(m[1]); c != "" {
			return c
		}
	}

	lines := nonEmptyLines(cleaned)
	for i := 1; i < len(lines); i++ {
		if ratingRe.MatchString(lines[i]) {
			if c := p.stripBoilerplate(lines[i-1]); c != "" && utf8.RuneCountInString(c) <= maxLineLen {
				return c
			}
		}
	}
	return ""
}

// salaryFrom returns the most specific salary expression found in s.
func salaryFrom(s string) string {
	for _, re := range salaryPatterns {
		if m := re.FindString(s); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

func ageFrom(s string) string {
	return strings.TrimSpace(ageRe.FindString(s))
}

// locationFrom prefers a labeled location, then a "City, ST" pair, then a
// bare remote/hybrid marker.
func locationFrom(s string) string {
	if m := labeledLocRe.FindStringSubmatch(s); m != nil {
		if loc := strings.TrimSpace(m[1]); loc != "" && utf8.RuneCountInString(loc) <= maxLineLen {
			return loc
		}
	}
	if m := cityStateRe.FindString(s); m != "" {
		loc := strings.TrimSpace(m)
		if strings.Contains(strings.ToLower(s), "remote in "+strings.ToLower(loc)) {
			return "Remote in " + loc
		}
		return loc
	}
	if m := remoteRe.FindString(s); m != "" {
		return strings.ToUpper(m[:1]) + strings.ToLower(m[1:])
	}
	return ""
}

func employmentFrom(s string) model.EmploymentType {
	return normalize.EmploymentType(employmentRe.FindString(s))
}

func looksLikeLocation(s string) bool {
	s = strings.TrimSpace(s)
	return strings.EqualFold(s, "remote") || (s != "" && cityStateRe.FindString(s) == s)
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
