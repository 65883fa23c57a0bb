package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MOYARU/verid/internal/config"
)

func reset(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		mu.Lock()
		instance = nil
		mu.Unlock()
	})
}

func TestHelpersAreSafeBeforeInit(t *testing.T) {
	reset(t)
	mu.Lock()
	instance = nil
	mu.Unlock()

	assert.NotPanics(t, func() {
		Infof("nothing %d", 1)
		Errorf("nothing")
		WithField("k", "v").Info("discarded")
	})
}

func TestInitWritesJSONToRotatingFile(t *testing.T) {
	reset(t)
	path := filepath.Join(t.TempDir(), "logs", "verid.log")

	m, err := Init(&config.LogConfig{Level: "info", Format: "json", Output: "file", FilePath: path, MaxSize: 1})
	require.NoError(t, err)

	WithField("target", "https://example.com").Info("identified")
	Debugf("below level")
	require.NoError(t, m.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "identified", rec["message"])
	assert.Equal(t, "https://example.com", rec["target"])
	assert.Contains(t, rec, "timestamp")
}

func TestInitRejectsBadSettings(t *testing.T) {
	reset(t)

	_, err := Init(nil)
	assert.Error(t, err)
	_, err = Init(&config.LogConfig{Format: "xml"})
	assert.Error(t, err)
	_, err = Init(&config.LogConfig{Format: "text", Output: "file"})
	assert.Error(t, err)
	_, err = Init(&config.LogConfig{Format: "text", Output: "syslog"})
	assert.Error(t, err)
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	reset(t)
	m, err := Init(&config.LogConfig{Level: "loud", Format: "text", Output: "stderr"})
	require.NoError(t, err)
	assert.Equal(t, "info", m.Logger().GetLevel().String())
	assert.Equal(t, "loud", m.Config().Level)
}
