// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing, the process exits.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissing marks a required configuration value that is absent.
var ErrMissing = errors.New("required configuration missing")

// Extraction modes.
const (
	ModeJSearch  = "jsearch"
	ModeAdzuna   = "adzuna"
	ModeExtract  = "extract"
	ModeMarkdown = "markdown"
	ModeLinks    = "links"
	ModeHTML     = "html"
)

// Config holds all runtime configuration for the scrape service.
type Config struct {
	Port     string
	GRPCPort string // empty disables the gRPC listener

	DatabaseURL            string
	SupabaseURL            string
	SupabaseServiceRoleKey string
	RedisURL               string // empty disables event publishing

	Mode string

	JSearchAPIKey string
	JSearchHost   string

	AdzunaAppID   string
	AdzunaAppKey  string
	AdzunaCountry string

	FirecrawlAPIKey  string
	FirecrawlBaseURL string

	BatchSize           int
	RequestDelay        time.Duration
	MaxPagesPerUnit     int
	ScrapeIntervalHours int // 0 disables the cron trigger

	LogJSON  bool
	LogLevel string

	Search Search
}

// Search is the optional YAML search file. Empty lists fall back to the
// built-in defaults at invocation time.
type Search struct {
	Terms        []string `yaml:"terms"`
	Locations    []string `yaml:"locations"`
	ExcludeTerms []string `yaml:"exclude_terms"`
}

// Load reads environment variables (and .env when present) and returns a
// validated Config.
func Load() (*Config, error) {
	return load(true)
}

// LoadWithoutStorage is Load for commands that never touch the jobs table,
// such as dry runs and remote invocations.
func LoadWithoutStorage() (*Config, error) {
	return load(false)
}

func load(requireStorage bool) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:                   getenv("SCRAPE_PORT", "8083"),
		GRPCPort:               os.Getenv("GRPC_PORT"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		SupabaseURL:            strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
		SupabaseServiceRoleKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		RedisURL:               os.Getenv("REDIS_URL"),
		Mode:                   strings.ToLower(getenv("EXTRACTION_MODE", ModeJSearch)),
		JSearchAPIKey:          os.Getenv("JSEARCH_API_KEY"),
		JSearchHost:            getenv("JSEARCH_HOST", "jsearch.p.rapidapi.com"),
		AdzunaAppID:            os.Getenv("ADZUNA_APP_ID"),
		AdzunaAppKey:           os.Getenv("ADZUNA_APP_KEY"),
		AdzunaCountry:          getenv("ADZUNA_COUNTRY", "us"),
		FirecrawlAPIKey:        os.Getenv("FIRECRAWL_API_KEY"),
		FirecrawlBaseURL:       strings.TrimRight(getenv("FIRECRAWL_BASE_URL", "https://api.firecrawl.dev"), "/"),
		LogJSON:                strings.EqualFold(os.Getenv("LOG_FORMAT"), "json"),
		LogLevel:               getenv("LOG_LEVEL", "info"),
	}

	if requireStorage && cfg.DatabaseURL == "" && (cfg.SupabaseURL == "" || cfg.SupabaseServiceRoleKey == "") {
		return nil, errors.WithHint(
			errors.Wrap(ErrMissing, "storage endpoint"),
			"set DATABASE_URL, or both SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY",
		)
	}

	switch cfg.Mode {
	case ModeJSearch, ModeAdzuna, ModeExtract, ModeMarkdown, ModeLinks, ModeHTML:
	default:
		return nil, errors.Newf("EXTRACTION_MODE %q is not one of jsearch, adzuna, extract, markdown, links, html", cfg.Mode)
	}

	var err error
	if cfg.BatchSize, err = positiveInt("BATCH_SIZE", 4); err != nil {
		return nil, err
	}
	if cfg.MaxPagesPerUnit, err = positiveInt("MAX_PAGES_PER_UNIT", 10); err != nil {
		return nil, err
	}
	if cfg.ScrapeIntervalHours, err = nonNegativeInt("SCRAPE_INTERVAL_HOURS", 0); err != nil {
		return nil, err
	}
	delayMs, err := nonNegativeInt("REQUEST_DELAY_MS", 400)
	if err != nil {
		return nil, err
	}
	cfg.RequestDelay = time.Duration(delayMs) * time.Millisecond

	if path := os.Getenv("SEARCH_CONFIG_PATH"); path != "" {
		if cfg.Search, err = LoadSearch(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// LoadSearch parses the YAML search file at path.
func LoadSearch(path string) (Search, error) {
	var s Search
	data, err := os.ReadFile(path)
	if err != nil {
		return s, errors.Wrapf(err, "read search config %s", path)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, errors.Wrapf(err, "parse search config %s", path)
	}
	return s, nil
}

// ExtractionCredential reports whether the selected extraction mode has
// the credentials it needs. html mode scrapes pages directly and needs none.
func (c *Config) ExtractionCredential() error {
	switch c.Mode {
	case ModeJSearch:
		if c.JSearchAPIKey == "" {
			return errors.Wrap(ErrMissing, "JSEARCH_API_KEY is required")
		}
	case ModeAdzuna:
		if c.AdzunaAppID == "" || c.AdzunaAppKey == "" {
			return errors.Wrap(ErrMissing, "ADZUNA_APP_ID and ADZUNA_APP_KEY are required")
		}
	case ModeExtract, ModeMarkdown, ModeLinks:
		if c.FirecrawlAPIKey == "" {
			return errors.Wrap(ErrMissing, "FIRECRAWL_API_KEY is required")
		}
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func positiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 0, errors.Newf("%s must be a positive integer, got %q", key, s)
	}
	return v, nil
}

func nonNegativeInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, errors.Newf("%s must be a non-negative integer, got %q", key, s)
	}
	return v, nil
}
