package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"solfavs/pkg/config"
)

const testMint = "Eppcp4FhG6wmaRno3omWWvKsZHbzucVLR316SdXopump"

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestTestConfig_DryRunLeavesFileUntouched(t *testing.T) {
	// Legacy string boolean plus an invalid interval: loading normalizes
	// both, so the file differs from its normalized form.
	content := `{"mints": ["` + testMint + `"], "clipboard_watch": "true", "refresh_interval_seconds": 7}`
	path := writeTestConfig(t, content)

	testConfig(path, true, true)

	after, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Equal(t, content, string(after))
}

func TestTestConfig_NormalizesLegacyFile(t *testing.T) {
	path := writeTestConfig(t, `{"mints": ["`+testMint+`"], "clipboard_watch": "true"}`)

	testConfig(path, true, false)

	var prefs struct {
		ClipboardWatch bool     `json:"clipboard_watch"`
		Mints          []string `json:"mints"`
	}
	raw, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.NoError(t, json.Unmarshal(raw, &prefs))
	assert.True(t, prefs.ClipboardWatch, "legacy string flag rewritten as a real boolean")
	assert.Equal(t, []string{testMint}, prefs.Mints)
}

func TestTestConfig_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.ConfigFileName)

	// Must not exit or create the file.
	testConfig(path, true, false)

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
