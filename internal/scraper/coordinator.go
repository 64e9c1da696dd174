package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobboard/scrape-service/internal/extract"
	"jobboard/scrape-service/internal/filter"
	"jobboard/scrape-service/internal/model"
	"jobboard/scrape-service/internal/normalize"
	"jobboard/scrape-service/internal/notify"
	"jobboard/scrape-service/internal/parse"
	"jobboard/scrape-service/internal/store"
)

var (
	// ErrMissingConfig aborts an invocation: a required credential is absent.
	ErrMissingConfig = errors.New("missing required configuration")
	// ErrInvalidRequest marks a request the caller must fix.
	ErrInvalidRequest = errors.New("invalid request")
)

// Options wires a Coordinator.
type Options struct {
	Extractor extract.Extractor
	Parser    parse.Strategy
	Store     store.Store
	Publisher notify.Publisher
	Logger    *zap.Logger

	// BatchSize is the window width W. Defaults to model.DefaultBatchSize.
	BatchSize int
	// Terms and Locations replace the built-in defaults when non-empty.
	Terms     []string
	Locations []string
	// ExcludeTerms drop postings that mention any of them.
	ExcludeTerms []string

	Now func() time.Time
}

// Request is one invocation. Every field is optional.
type Request struct {
	SearchTerms []string `json:"searchTerms,omitempty"`
	Locations   []string `json:"locations,omitempty"`
	BatchIndex  *int     `json:"batchIndex,omitempty"`

	// SearchTerm and Location are the older single-pair form.
	SearchTerm string `json:"searchTerm,omitempty"`
	Location   string `json:"location,omitempty"`

	// RunID correlates the batches of one resumption loop in logs.
	RunID string `json:"-"`
}

// Response reports one invocation.
type Response struct {
	Success        bool   `json:"success"`
	Inserted       int    `json:"inserted"`
	Skipped        int    `json:"skipped"`
	TotalFound     int    `json:"total_found"`
	HasMore        bool   `json:"hasMore"`
	NextBatchIndex *int   `json:"nextBatchIndex"`
	Progress       string `json:"progress"`
}

// counters for one batch. stale, filtered and failed are log-only.
type counters struct {
	inserted, skipped, found     int
	stale, filtered, failed, bad int
}

// Coordinator runs one batch window per invocation. It holds no state
// between invocations; the cursor travels with the caller.
type Coordinator struct {
	opts  Options
	dedup *store.Deduplicator
	log   *zap.Logger
}

// NewCoordinator applies defaults to opts.
func NewCoordinator(opts Options) *Coordinator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = model.DefaultBatchSize
	}
	if opts.Publisher == nil {
		opts.Publisher = notify.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Coordinator{
		opts:  opts,
		dedup: store.NewDeduplicator(opts.Store),
		log:   opts.Logger,
	}
}

// Combinations is the ordered search space: for each location, for each
// term. The order is stable so a batch index means the same window on
// every call.
func Combinations(locations, terms []string) []model.SearchUnit {
	units := make([]model.SearchUnit, 0, len(locations)*len(terms))
	for _, loc := range locations {
		for _, term := range terms {
			units = append(units, model.SearchUnit{Term: term, Location: loc})
		}
	}
	return units
}

// RunBatch processes window req.BatchIndex of the search space.
func (c *Coordinator) RunBatch(ctx context.Context, req Request) (Response, error) {
	idx := 0
	if req.BatchIndex != nil {
		idx = *req.BatchIndex
	}
	if idx < 0 {
		return Response{}, errors.Wrapf(ErrInvalidRequest, "batchIndex must be >= 0, got %d", idx)
	}
	if err := c.opts.Extractor.Validate(); err != nil {
		return Response{}, errors.Mark(err, ErrMissingConfig)
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := c.log.With(zap.String("run_id", runID), zap.Int("batch_index", idx))

	terms := pick(req.SearchTerms, req.SearchTerm, c.opts.Terms, model.SearchTerms())
	locations := pick(req.Locations, req.Location, c.opts.Locations, model.Locations())
	units := Combinations(locations, terms)

	w := c.opts.BatchSize
	total := len(units)
	batches := (total + w - 1) / w

	m := machine{state: StateIdle}
	start := idx * w
	if start >= total {
		if err := m.to(StateDone); err != nil {
			return Response{}, err
		}
		log.Info("batch window empty", zap.String("state", string(m.state)), zap.Int("combinations", total))
		return Response{
			Success:  true,
			Progress: progress(total, total, min(idx+1, batches), batches),
		}, nil
	}
	end := min(start+w, total)

	if err := m.to(StateRunning); err != nil {
		return Response{}, err
	}
	log.Info("batch started",
		zap.String("state", string(m.state)),
		zap.String("extractor", c.opts.Extractor.Name()),
		zap.Int("from", start), zap.Int("to", end), zap.Int("combinations", total),
	)

	var n counters
	for _, unit := range units[start:end] {
		if err := ctx.Err(); err != nil {
			return Response{}, errors.Wrap(err, "batch interrupted")
		}
		c.processUnit(ctx, log, unit, &n)
	}
	if err := m.to(StateDone); err != nil {
		return Response{}, err
	}

	resp := Response{
		Success:    true,
		Inserted:   n.inserted,
		Skipped:    n.skipped,
		TotalFound: n.found,
		HasMore:    end < total,
		Progress:   progress(end, total, idx+1, batches),
	}
	if resp.HasMore {
		next := idx + 1
		resp.NextBatchIndex = &next
	}

	log.Info("batch done",
		zap.String("state", string(m.state)),
		zap.Int("inserted", n.inserted),
		zap.Int("skipped", n.skipped),
		zap.Int("total_found", n.found),
		zap.Int("stale", n.stale),
		zap.Int("filtered", n.filtered),
		zap.Int("failed", n.failed),
		zap.Int("no_identity", n.bad),
		zap.Bool("has_more", resp.HasMore),
	)

	if n.inserted > 0 {
		ev := notify.JobsScraped{
			RunID:      runID,
			BatchIndex: idx,
			Inserted:   n.inserted,
			Skipped:    n.skipped,
			TotalFound: n.found,
		}
		if err := c.opts.Publisher.PublishJobsScraped(ctx, ev); err != nil {
			log.Warn("publish event failed", zap.String("event", notify.EventJobsScraped), zap.Error(err))
		}
	}
	return resp, nil
}

func (c *Coordinator) processUnit(ctx context.Context, log *zap.Logger, unit model.SearchUnit, n *counters) {
	ulog := log.With(zap.String("term", unit.Term), zap.String("location", unit.Location))

	payload, err := c.opts.Extractor.Extract(ctx, unit)
	if err != nil {
		// One unit failing never fails the batch.
		ulog.Warn("extract failed, treating unit as empty", zap.Error(err))
		return
	}

	recs := c.opts.Parser.Parse(ctx, payload)
	ulog.Debug("unit parsed", zap.Int("records", len(recs)))

	now := c.opts.Now()
	for _, rec := range recs {
		n.found++
		rec = finalize(rec, unit, now)

		if !rec.HasIdentity() || rec.ExternalID == "" {
			n.bad++
			continue
		}
		if !filter.IsEligibleAt(rec.PostedAge, now) {
			n.stale++
			continue
		}
		if filter.ContainsRedFlag(rec.Title, rec.Company, model.Deref(rec.Description), c.opts.ExcludeTerms) {
			n.filtered++
			continue
		}

		seen, err := c.dedup.Seen(ctx, rec)
		if err != nil {
			n.failed++
			ulog.Error("dedup check failed, dropping record", zap.String("external_id", rec.ExternalID), zap.Error(err))
			continue
		}
		if seen {
			n.skipped++
			continue
		}

		inserted, err := c.opts.Store.Upsert(ctx, rec)
		if err != nil {
			n.failed++
			ulog.Error("insert failed, dropping record", zap.String("external_id", rec.ExternalID), zap.Error(err))
			continue
		}
		if inserted {
			n.inserted++
			ulog.Debug("job inserted", zap.String("title", rec.Title), zap.String("company", rec.Company))
		} else {
			// Lost a race with a concurrent run.
			n.skipped++
		}
	}
}

// finalize fills the defaults a parser could not know: the searched
// location and the board-wide constants.
func finalize(rec model.JobRecord, unit model.SearchUnit, now time.Time) model.JobRecord {
	if rec.Location == "" || rec.Location == "Unknown" {
		rec.Location = strings.TrimSpace(unit.Location)
		rec.LocationType = normalize.LocationType(rec.LocationType == model.LocationRemote, rec.Title+" "+rec.Location)
	}
	if rec.LocationType == "" {
		rec.LocationType = normalize.LocationType(false, rec.Title+" "+rec.Location)
	}
	if rec.EmploymentType == "" {
		rec.EmploymentType = model.EmploymentFullTime
	}
	if rec.Company == "" {
		rec.Company = model.UnknownCompany
	}
	if rec.Category == "" {
		rec.Category = model.DefaultCategory
	}
	if rec.PostedAt.IsZero() {
		rec.PostedAt = now
	}
	return rec
}

// pick returns the first non-empty list among the request list, the
// request's single value, the configured list and the defaults. Blank
// entries are dropped.
func pick(req []string, single string, configured, defaults []string) []string {
	for _, candidate := range [][]string{req, {single}, configured} {
		if cleaned := clean(candidate); len(cleaned) > 0 {
			return cleaned
		}
	}
	return defaults
}

func clean(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func progress(done, total, batch, batches int) string {
	return fmt.Sprintf("Processed %d of %d combinations (batch %d of %d)", done, total, batch, batches)
}
