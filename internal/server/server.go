// Package server implements the HTTP surface of the scrape service.
//
// Routes:
//
//	POST /              → run one batch window (same as /scrape-jobs)
//	POST /scrape-jobs   → run one batch window
//	GET  /jobs          → recent jobs from reputable boards, newest first
//	GET  /health        → liveness
//
// Every route answers CORS preflight with 200.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jobboard/scrape-service/internal/model"
	"jobboard/scrape-service/internal/scraper"
)

// Batcher runs one batch window.
type Batcher interface {
	RunBatch(ctx context.Context, req scraper.Request) (scraper.Response, error)
}

// Lister reads back stored jobs.
type Lister interface {
	ListRecent(ctx context.Context, sources []string, limit int) ([]model.JobRecord, error)
}

// Handler holds shared dependencies.
type Handler struct {
	batches Batcher
	jobs    Lister
	log     *zap.Logger
	version string
	now     func() time.Time
}

// NewHandler returns a configured Handler. jobs may be nil, in which case
// GET /jobs is not mounted.
func NewHandler(batches Batcher, jobs Lister, log *zap.Logger, version string) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		batches: batches,
		jobs:    jobs,
		log:     log.Named("http"),
		version: version,
		now:     time.Now,
	}
}

// Router builds the gin engine with CORS and all routes mounted.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.accessLog())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	config.AllowHeaders = allowHeaders
	config.OptionsResponseStatusCode = http.StatusOK
	r.Use(corsHeaders(), cors.New(config))

	r.GET("/health", h.health)
	r.POST("/", h.scrapeJobs)
	r.POST("/scrape-jobs", h.scrapeJobs)
	if h.jobs != nil {
		r.GET("/jobs", h.listJobs)
	}
	return r
}

// ─── Handlers ───────────────────────────────────────────────────────────────

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "scrape-service",
		"version": h.version,
	})
}

// scrapeJobs handles POST / and POST /scrape-jobs. A missing or unparsable
// body is the same as {}: run batch 0 with the default search space. Valid
// JSON with a field of the wrong type is rejected with 400.
func (h *Handler) scrapeJobs(c *gin.Context) {
	var req scraper.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			jsonError(c, http.StatusBadRequest, errors.Wrapf(scraper.ErrInvalidRequest, "field %q: expected %s", typeErr.Field, typeErr.Type))
			return
		}
		req = scraper.Request{}
	}

	resp, err := h.batches.RunBatch(c.Request.Context(), req)
	if err != nil {
		code := statusFor(err)
		if code >= http.StatusInternalServerError {
			h.log.Error("scrape invocation failed", zap.Error(err))
		}
		jsonError(c, code, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

var allowHeaders = []string{"authorization", "x-client-info", "apikey", "content-type"}

// corsHeaders stamps the CORS headers on every response, including calls
// that carry no Origin header and are therefore skipped by cors.New.
func corsHeaders() gin.HandlerFunc {
	value := strings.Join(allowHeaders, ", ")
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", value)
		c.Next()
	}
}

// statusFor maps invocation errors onto HTTP status codes.
func statusFor(err error) int {
	if errors.Is(err, scraper.ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func jsonError(c *gin.Context, code int, err error) {
	c.JSON(code, gin.H{"error": err.Error(), "success": false})
}

func (h *Handler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}
