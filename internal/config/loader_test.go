package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	oldwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { _ = os.Chdir(oldwd) })
	return tmp
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	l := NewLoader("")
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "WordPress", cfg.Product)
	assert.Equal(t, 100, cfg.ConfidenceLevel)
	assert.Equal(t, DefaultExposingPages(), cfg.ExposingPages)
	assert.Equal(t, 5, cfg.Scan.MaxConcurrency)
	assert.Equal(t, 11*time.Second, cfg.Scan.Timeout)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Empty(t, l.ConfigFileUsed())
}

func TestLoadSearchesWorkingDirectory(t *testing.T) {
	tmp := chdirTemp(t)
	writeFile(t, tmp, ".verid.yaml", "confidence_level: 51\n")

	l := NewLoader("")
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, 51, cfg.ConfidenceLevel)
	assert.Contains(t, l.ConfigFileUsed(), ".verid.yaml")
}

func TestLoadConfigFile(t *testing.T) {
	tmp := chdirTemp(t)
	path := writeFile(t, tmp, "conf/verid.yaml", `
product: WordPress
confidence_level: 86
exposing_pages:
  - /
  - readme.html
redaction_patterns:
  - '(?i)internal-[a-z0-9]+'
fingerprint:
  path: s3://fingerprints/wordpress.json
  s3:
    endpoint: minio.local:9000
    use_ssl: false
scan:
  max_concurrency: 9
  request_budget: 777
  delay: 250ms
  max_files: 40
  active_cross_domain: true
log:
  level: debug
  format: json
database:
  url: postgres://verid@localhost/verid
`)

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 86, cfg.ConfidenceLevel)
	assert.Equal(t, []string{"/", "readme.html"}, cfg.ExposingPages)
	assert.Equal(t, []string{"(?i)internal-[a-z0-9]+"}, cfg.RedactionPatterns)
	assert.Equal(t, "s3://fingerprints/wordpress.json", cfg.Fingerprint.Path)
	assert.Equal(t, "minio.local:9000", cfg.Fingerprint.S3.Endpoint)
	assert.False(t, cfg.Fingerprint.S3.UseSSL)
	assert.Equal(t, 9, cfg.Scan.MaxConcurrency)
	assert.Equal(t, int64(777), cfg.Scan.RequestBudget)
	assert.Equal(t, 250*time.Millisecond, cfg.Scan.Delay)
	assert.Equal(t, 40, cfg.Scan.MaxFiles)
	assert.True(t, cfg.Scan.ActiveCrossDomain)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "postgres://verid@localhost/verid", cfg.Database.URL)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	tmp := chdirTemp(t)
	_, err := NewLoader(filepath.Join(tmp, "absent.yaml")).Load()
	assert.Error(t, err)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	tmp := chdirTemp(t)
	path := writeFile(t, tmp, "verid.yaml", "confidence_level: 86\nscan:\n  max_concurrency: 3\n")
	t.Setenv("VERID_CONFIDENCE_LEVEL", "51")
	t.Setenv("VERID_SCAN_MAX_CONCURRENCY", "12")

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 51, cfg.ConfidenceLevel)
	assert.Equal(t, 12, cfg.Scan.MaxConcurrency)
}

func TestDotEnvIsLoaded(t *testing.T) {
	tmp := chdirTemp(t)
	writeFile(t, tmp, ".env", "VERID_PRODUCT=Drupal\n")
	t.Cleanup(func() { _ = os.Unsetenv("VERID_PRODUCT") })

	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, "Drupal", cfg.Product)
}

func TestFlagsOverrideEverything(t *testing.T) {
	tmp := chdirTemp(t)
	path := writeFile(t, tmp, "verid.yaml", "confidence_level: 86\n")
	t.Setenv("VERID_CONFIDENCE_LEVEL", "51")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("confidence", 100, "")
	flags.Int("concurrency", 5, "")
	require.NoError(t, flags.Parse([]string{"--confidence=0"}))

	l := NewLoader(path)
	require.NoError(t, l.BindFlags(flags, map[string]string{
		"confidence":  "confidence_level",
		"concurrency": "scan.max_concurrency",
	}))
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.ConfidenceLevel)
	assert.Equal(t, 5, cfg.Scan.MaxConcurrency)

	assert.Error(t, l.BindFlags(flags, map[string]string{"nope": "product"}))
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := map[string]string{
		"confidence too high": "confidence_level: 150\n",
		"confidence negative": "confidence_level: -1\n",
		"zero concurrency":    "scan:\n  max_concurrency: 0\n",
		"unknown log format":  "log:\n  format: xml\n",
		"file without path":   "log:\n  output: file\n  file_path: \"\"\n",
		"bad redaction":       "redaction_patterns:\n  - '('\n",
		"empty product":       "product: \"\"\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			tmp := chdirTemp(t)
			path := writeFile(t, tmp, "verid.yaml", content)
			_, err := NewLoader(path).Load()
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))
	assert.Equal(t, "stderr", cfg.Log.Output)
}

func TestCompileRedactionPatterns(t *testing.T) {
	res, err := CompileRedactionPatterns([]string{" ", `'(?i)secret-\d+'`, ""})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.True(t, res[0].MatchString("SECRET-42"))

	_, err = CompileRedactionPatterns([]string{"[unclosed"})
	assert.Error(t, err)
}
