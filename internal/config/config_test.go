package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedVars = []string{
	"SCRAPE_PORT", "GRPC_PORT", "DATABASE_URL", "SUPABASE_URL", "SUPABASE_SERVICE_ROLE_KEY",
	"REDIS_URL", "EXTRACTION_MODE", "JSEARCH_API_KEY", "JSEARCH_HOST", "ADZUNA_APP_ID",
	"ADZUNA_APP_KEY", "ADZUNA_COUNTRY", "FIRECRAWL_API_KEY", "FIRECRAWL_BASE_URL", "BATCH_SIZE",
	"REQUEST_DELAY_MS", "MAX_PAGES_PER_UNIT", "SCRAPE_INTERVAL_HOURS", "LOG_FORMAT", "LOG_LEVEL",
	"SEARCH_CONFIG_PATH",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range managedVars {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/jobs")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8083", cfg.Port)
	assert.Equal(t, ModeJSearch, cfg.Mode)
	assert.Equal(t, 4, cfg.BatchSize)
	assert.Equal(t, 400*time.Millisecond, cfg.RequestDelay)
	assert.Equal(t, 10, cfg.MaxPagesPerUnit)
	assert.Equal(t, 0, cfg.ScrapeIntervalHours)
	assert.Equal(t, "jsearch.p.rapidapi.com", cfg.JSearchHost)
	assert.Equal(t, "https://api.firecrawl.dev", cfg.FirecrawlBaseURL)
	assert.False(t, cfg.LogJSON)
}

func TestLoad_MissingStorageIsFatal(t *testing.T) {
	clearEnv(t)
	_, err := Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissing))

	t.Setenv("SUPABASE_URL", "https://x.supabase.co")
	_, err = Load()
	assert.True(t, errors.Is(err, ErrMissing), "service role key still missing")

	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://x.supabase.co", cfg.SupabaseURL)
}

func TestLoadWithoutStorage(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadWithoutStorage()
	require.NoError(t, err)
	assert.Equal(t, ModeJSearch, cfg.Mode)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"BATCH_SIZE":            "0",
		"REQUEST_DELAY_MS":      "-5",
		"MAX_PAGES_PER_UNIT":    "many",
		"SCRAPE_INTERVAL_HOURS": "-1",
		"EXTRACTION_MODE":       "carrier-pigeon",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("DATABASE_URL", "postgres://localhost/jobs")
			t.Setenv(key, val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_SearchFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "search.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
terms:
  - Instructional Designer
locations:
  - Remote
  - Tampa, FL
exclude_terms:
  - commission only
`), 0o644))

	t.Setenv("DATABASE_URL", "postgres://localhost/jobs")
	t.Setenv("SEARCH_CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"Instructional Designer"}, cfg.Search.Terms)
	assert.Equal(t, []string{"Remote", "Tampa, FL"}, cfg.Search.Locations)
	assert.Equal(t, []string{"commission only"}, cfg.Search.ExcludeTerms)
}

func TestExtractionCredential(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"jsearch missing", Config{Mode: ModeJSearch}, true},
		{"jsearch ok", Config{Mode: ModeJSearch, JSearchAPIKey: "k"}, false},
		{"adzuna half", Config{Mode: ModeAdzuna, AdzunaAppID: "id"}, true},
		{"adzuna ok", Config{Mode: ModeAdzuna, AdzunaAppID: "id", AdzunaAppKey: "k"}, false},
		{"firecrawl missing", Config{Mode: ModeLinks}, true},
		{"firecrawl ok", Config{Mode: ModeMarkdown, FirecrawlAPIKey: "k"}, false},
		{"html needs nothing", Config{Mode: ModeHTML}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ExtractionCredential()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrMissing))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
