package client_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ivlev/docscan/internal/analyzer"
	"github.com/ivlev/docscan/internal/client"
	"github.com/ivlev/docscan/internal/config"
	"github.com/ivlev/docscan/internal/engine"
	"github.com/ivlev/docscan/internal/fixture"
	"github.com/ivlev/docscan/internal/ocr"
	"github.com/ivlev/docscan/internal/server"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, recognizer ocr.Engine) *client.Client {
	t.Helper()

	p := engine.NewPipeline(analyzer.NewBoundaryDetector(), recognizer)

	s, err := server.New(config.Default().Server, p)
	require.NoError(t, err)

	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)

	c, err := client.New(ts.URL+"/", client.WithClient(ts.Client()), client.WithRequestID("req-42"))
	require.NoError(t, err)

	return c
}

func TestScan(t *testing.T) {
	c := newClient(t, nil)

	data, err := fixture.EncodePNG(fixture.Uniform(200, 150, color.White))
	require.NoError(t, err)

	result, err := c.Scan(context.Background(), "page one.png", data)
	require.NoError(t, err)

	assert.Equal(t, "page_one_scanned.jpg", result.Filename)
	assert.Equal(t, "image/jpeg", result.ContentType)
	assert.Equal(t, "req-42", result.RequestID)
	assert.NotEmpty(t, result.Content)
}

func TestRecognizeFile(t *testing.T) {
	c := newClient(t, ocr.Func(func(ctx context.Context, img image.Image) (string, error) {
		return "\tTOTAL 12.50 \n", nil
	}))

	data, err := fixture.EncodePNG(fixture.Uniform(200, 150, color.White))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "receipt.png")
	require.NoError(t, os.WriteFile(path, data, 0644))

	result, err := c.ScanFile(context.Background(), "ocr", path)
	require.NoError(t, err)

	assert.Equal(t, "receipt_recognized.txt", result.Filename)
	assert.Equal(t, "TOTAL 12.50", string(result.Content))
}

func TestErrors(t *testing.T) {
	c := newClient(t, nil)

	_, err := c.Scan(context.Background(), "notes.png", []byte("not an image"))

	var apiErr *client.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "input", apiErr.Kind)

	data, err := fixture.EncodePNG(fixture.Uniform(100, 100, color.White))
	require.NoError(t, err)

	_, err = c.Recognize(context.Background(), "a.png", data)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "unavailable", apiErr.Kind)

	_, err = c.ScanFile(context.Background(), "pdf", "a.png")
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	c := newClient(t, ocr.Disabled{})

	health, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "none", health["ocr"])
}

func TestNewRequiresURL(t *testing.T) {
	_, err := client.New("")
	assert.Error(t, err)
}
