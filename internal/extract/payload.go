package extract

// Payload is the raw output of one extraction call. The variant tells the
// parser which strategy applies:
//
//	JSONExtraction      structured records (job-search APIs, schema extraction)
//	MarkdownExtraction  page or search-results body as markdown
//	LinkList            hyperlinks discovered on a search page
type Payload interface {
	// Origin is the URL the payload was produced from, if any.
	Origin() string
	// ProviderName names the job board the content came from (e.g. "Indeed").
	ProviderName() string

	sealed()
}

// StructuredJob is one record of a JSONExtraction, already mapped from the
// provider's wire format. Empty fields mean the provider did not supply them.
type StructuredJob struct {
	ID             string
	Title          string
	Company        string
	City           string
	State          string
	Country        string
	Location       string
	Remote         bool
	EmploymentType string
	SalaryText     string
	SalaryMin      float64
	SalaryMax      float64
	SalaryPeriod   string
	Description    string
	ApplyURL       string
	PostedAt       string
	Publisher      string
}

// JSONExtraction carries structured job records.
type JSONExtraction struct {
	SourceURL string
	Provider  string
	Jobs      []StructuredJob
}

// MarkdownExtraction carries a page rendered as markdown.
type MarkdownExtraction struct {
	SourceURL string
	Provider  string
	Title     string
	Markdown  string
}

// LinkList carries hyperlinks harvested from a page.
type LinkList struct {
	SourceURL string
	Provider  string
	Links     []string
}

func (p JSONExtraction) Origin() string       { return p.SourceURL }
func (p JSONExtraction) ProviderName() string { return p.Provider }
func (JSONExtraction) sealed()                {}

func (p MarkdownExtraction) Origin() string       { return p.SourceURL }
func (p MarkdownExtraction) ProviderName() string { return p.Provider }
func (MarkdownExtraction) sealed()                {}

func (p LinkList) Origin() string       { return p.SourceURL }
func (p LinkList) ProviderName() string { return p.Provider }
func (LinkList) sealed()                {}
