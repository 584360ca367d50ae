package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/fundgest/internal/errs"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, 100, cfg.MaxQueueSize)
	assert.Equal(t, int64(52428800), cfg.MaxUploadBytes)
	assert.Equal(t, time.Hour, cfg.JobTTL)
	assert.True(t, cfg.PDFFallbackPdftotext)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FUNDGEST_PORT", "9000")
	t.Setenv("FUNDGEST_WORKER_COUNT", "8")
	t.Setenv("FUNDGEST_JOB_TTL", "30m")
	t.Setenv("FUNDGEST_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, 30*time.Minute, cfg.JobTTL)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadRejectsBadNumber(t *testing.T) {
	t.Setenv("FUNDGEST_WORKER_COUNT", "many")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	bad := cfg
	bad.WorkerCount = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.LogLevel = "loud"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.RecordStoreURL = "http://localhost:8080"
	assert.Error(t, bad.Validate(), "record store URL without key")
	bad.RecordStoreAPIKey = "k"
	assert.NoError(t, bad.Validate())

	assert.Error(t, cfg.ValidateServer())
	cfg.APIKey = "secret"
	assert.NoError(t, cfg.ValidateServer())
}

func TestParseSections(t *testing.T) {
	s, err := ParseSections([]byte(`
agenda:
  starts: [Contingency, Sponsorship]
  terminators: [Adjournment]
absa:
  header: [Student Activity Groups (SAG)]
  no_header: [Senate]
  end: SUBTOTAL
`))
	require.NoError(t, err)
	require.NotNil(t, s.Agenda)
	assert.Equal(t, []string{"Contingency", "Sponsorship"}, s.Agenda.Starts)
	assert.Equal(t, []string{"Adjournment"}, s.Agenda.Terminators)
	require.NotNil(t, s.ABSA)
	assert.Equal(t, "SUBTOTAL", s.ABSA.End)
	assert.Nil(t, s.FR)
}

func TestParseSectionsValidation(t *testing.T) {
	cases := map[string]string{
		"empty starts":      "agenda:\n  starts: []\n",
		"duplicate start":   "agenda:\n  starts: [A, A]\n",
		"blank keyword":     "agenda:\n  starts: [A, \"\"]\n",
		"blank designation": "oasis:\n  designations: [\"\"]\n",
		"bad yaml":          "agenda: [",
	}
	for name, doc := range cases {
		_, err := ParseSections([]byte(doc))
		assert.True(t, errs.IsValidation(err), name)
	}
}

func TestLoadSectionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sections.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fr:\n  anchor: Appx\n"), 0o644))
	s, err := LoadSections(path)
	require.NoError(t, err)
	require.NotNil(t, s.FR)
	assert.Equal(t, "Appx", s.FR.Anchor)

	_, err = LoadSections(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
