package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zalepa/stipboard/stip"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "stipboard.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// inTempDir keeps a stray stipboard.yaml in the package directory from
// leaking into the defaults.
func inTempDir(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, stip.DefaultYears, cfg.Years)
	assert.Equal(t, "data/stip_projects.csv", cfg.StipSources().Projects)
}

func TestLoadFile(t *testing.T) {
	inTempDir(t)
	path := writeConfig(t, `
sources:
  projects: https://example.org/stip_projects.csv
years: [2026, 2027]
logging:
  level: DEBUG
server:
  port: 9090
  read_timeout: 5s
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org/stip_projects.csv", cfg.Sources.Projects)
	assert.Equal(t, "data/Funding.csv", cfg.Sources.Funding, "unset keys keep defaults")
	assert.Equal(t, []int{2026, 2027}, cfg.Years)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)

	opts := cfg.ParseOptions()
	assert.Equal(t, []int{2026, 2027}, opts.Years)
	assert.Equal(t, stip.DefaultPrograms, opts.Programs)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	inTempDir(t)
	path := writeConfig(t, "server:\n  port: 9090\nprograms: [NHPP]\n")
	t.Setenv("STIP_SERVER_PORT", "7070")
	t.Setenv("STIP_YEARS", "2030,2031")
	t.Setenv("STIP_SOURCES_REVENUE", "/srv/revenue.xlsx")
	t.Setenv("STIP_FETCH_TIMEOUT", "1m")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, []int{2030, 2031}, cfg.Years)
	assert.Equal(t, "/srv/revenue.xlsx", cfg.Sources.Revenue)
	assert.Equal(t, []string{"NHPP"}, cfg.Programs)
	assert.Equal(t, time.Minute, cfg.FetchTimeout)
}

func TestLoadDefaultFileInWorkingDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte("logging:\n  format: json\n"), 0o644))
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadErrors(t *testing.T) {
	inTempDir(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "unknown_key: 1\n"))
	assert.ErrorContains(t, err, "load config file")

	_, err = Load(writeConfig(t, "server:\n  port: 70000\nlogging:\n  format: xml\n"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "server.port")
	assert.ErrorContains(t, err, "logging.format")

	_, err = Load(writeConfig(t, "years: []\n"))
	assert.ErrorContains(t, err, "years")
}

func TestValidateSources(t *testing.T) {
	cfg := Default()
	cfg.Sources.Funding = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sources.funding: failed required")
}
