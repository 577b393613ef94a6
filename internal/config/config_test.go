package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	assert.Equal(t, 800, c.Detection.BoxWidth)
	assert.Equal(t, 600, c.Detection.BoxHeight)
	assert.Equal(t, 1000.0, c.Detection.MinArea)
	assert.Equal(t, 0.015, c.Detection.Epsilon)
	assert.Equal(t, 128, c.Format.Threshold)
	assert.Equal(t, 10, c.Format.Margin)
	assert.Equal(t, int64(50<<20), c.Server.MaxUploadBytes)
}

func TestLoadEmptyPath(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Format, c.Format)
}

func TestLoadFile(t *testing.T) {
	t.Setenv("DOCSCAN_TEST_LANG", "deu")

	path := writeFile(t, `
detection:
  min_area: 500
format:
  margin: 4
ocr:
  engine: command
  languages: ["${DOCSCAN_TEST_LANG}", "eng"]
  rate: 2
server:
  request_timeout: 15s
log_level: debug
`)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500.0, c.Detection.MinArea)
	assert.Equal(t, 0.015, c.Detection.Epsilon, "unset fields keep their default")
	assert.Equal(t, 4, c.Format.Margin)
	assert.Equal(t, "command", c.OCR.Engine)
	assert.Equal(t, []string{"deu", "eng"}, c.OCR.Languages)
	assert.Equal(t, 15*time.Second, c.Server.RequestTimeout)
	assert.Equal(t, "debug", c.LogLevel)
	assert.NotNil(t, c.OCR.Limiter())
}

func TestLoadEmptyFile(t *testing.T) {
	c, err := Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "otsu", c.Detection.Detector)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "detection:\n  colour: red\n"},
		{"bad yaml", "detection: [\n"},
		{"invalid value", "format:\n  threshold: 300\n"},
		{"unknown engine", "ocr:\n  engine: magic\n"},
		{"bad level", "log_level: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DOCSCAN_ADDR", ":9000")
	t.Setenv("DOCSCAN_TESSERACT", "/opt/tesseract/bin/tesseract")
	t.Setenv("DOCSCAN_LANGUAGES", "eng+fra")
	t.Setenv("DOCSCAN_MAX_CONCURRENT", "3")

	c := Default()
	require.NoError(t, c.ApplyEnv())

	assert.Equal(t, ":9000", c.Server.Address)
	assert.Equal(t, "/opt/tesseract/bin/tesseract", c.OCR.Binary)
	assert.Equal(t, []string{"eng", "fra"}, c.OCR.Languages)
	assert.Equal(t, 3, c.Server.MaxConcurrent)

	t.Setenv("DOCSCAN_MAX_CONCURRENT", "many")
	assert.Error(t, c.ApplyEnv())
}

func TestLimiter(t *testing.T) {
	o := OCR{}
	assert.Nil(t, o.Limiter())

	o = OCR{Rate: 5, Burst: 0}
	l := o.Limiter()
	require.NotNil(t, l)
	assert.Equal(t, 1, l.Burst())
}

func TestParseLevel(t *testing.T) {
	for _, s := range []string{"debug", "info", "warn", "error", "INFO"} {
		_, err := ParseLevel(s)
		assert.NoError(t, err, s)
	}
}
