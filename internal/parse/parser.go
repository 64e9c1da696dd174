// Package parse turns raw extractor payloads into canonical job records.
// Parsing is best effort and never fails: input that cannot yield a title
// and an identity key simply produces no record.
package parse

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"jobboard/scrape-service/internal/extract"
	"jobboard/scrape-service/internal/model"
)

// Strategy parses one payload variant into zero or more records.
type Strategy interface {
	Parse(ctx context.Context, p extract.Payload) []model.JobRecord
}

// Dispatcher routes each payload to the strategy for its variant.
type Dispatcher struct {
	JSON     Strategy
	Markdown Strategy
	Links    Strategy
	logger   *zap.Logger
}

// NewDispatcher wires the three strategies. fetcher may be nil when the
// extraction mode never produces link lists.
func NewDispatcher(fetcher extract.PageFetcher, maxPages int, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		JSON:     JSONStrategy{},
		Markdown: MarkdownStrategy{},
		Links:    LinkStrategy{Fetcher: fetcher, MaxPages: maxPages, Logger: logger},
		logger:   logger,
	}
}

// Parse implements Strategy.
func (d *Dispatcher) Parse(ctx context.Context, p extract.Payload) (recs []model.JobRecord) {
	defer func() {
		if r := recover(); r != nil {
			d.log().Error("parser panic recovered", zap.Any("panic", r), zap.String("source_url", originOf(p)))
			recs = nil
		}
	}()

	switch v := p.(type) {
	case extract.JSONExtraction:
		return d.JSON.Parse(ctx, v)
	case extract.MarkdownExtraction:
		return d.Markdown.Parse(ctx, v)
	case extract.LinkList:
		return d.Links.Parse(ctx, v)
	case nil:
		return nil
	default:
		d.log().Warn("unknown payload variant", zap.String("type", fmt.Sprintf("%T", v)))
		return nil
	}
}

func originOf(p extract.Payload) string {
	if p == nil {
		return ""
	}
	return p.Origin()
}

func (d *Dispatcher) log() *zap.Logger {
	if d.logger == nil {
		return zap.NewNop()
	}
	return d.logger
}
