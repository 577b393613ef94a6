package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/ivlev/docscan/internal/analyzer"
	"github.com/ivlev/docscan/internal/config"
	"github.com/ivlev/docscan/internal/engine"
	"github.com/ivlev/docscan/internal/fixture"
	"github.com/ivlev/docscan/internal/ocr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDetector struct {
	calls atomic.Int32
	inner analyzer.Detector
}

func (d *countingDetector) Detect(img image.Image) (analyzer.Contour, error) {
	d.calls.Add(1)
	return d.inner.Detect(img)
}

type testServer struct {
	*httptest.Server
	detector *countingDetector
}

func newTestServer(t *testing.T, recognizer ocr.Engine, mutate func(*config.Server)) *testServer {
	t.Helper()

	det := &countingDetector{inner: analyzer.NewBoundaryDetector()}
	p := engine.NewPipeline(det, recognizer)

	cfg := config.Default().Server
	if mutate != nil {
		mutate(&cfg)
	}

	s, err := New(cfg, p)
	require.NoError(t, err)

	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)

	return &testServer{Server: ts, detector: det}
}

func upload(t *testing.T, url, field, filename string, data []byte) *http.Response {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("comment", "no file here"))
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(url, mw.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func photoPNG(t *testing.T) []byte {
	t.Helper()

	photo, err := fixture.NewPhoto(fixture.DefaultOptions())
	require.NoError(t, err)

	data, err := fixture.EncodePNG(photo.Image)
	require.NoError(t, err)
	return data
}

func whitePNG(t *testing.T, w, h int) []byte {
	t.Helper()

	data, err := fixture.EncodePNG(fixture.Uniform(w, h, color.White))
	require.NoError(t, err)
	return data
}

func attachmentName(t *testing.T, resp *http.Response) string {
	t.Helper()

	disposition, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "attachment", disposition)
	return params["filename"]
}

func errorBody(t *testing.T, resp *http.Response) map[string]string {
	t.Helper()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestScan(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	resp := upload(t, ts.URL+"/scan", "file", "My Receipt.png", photoPNG(t))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	assert.Equal(t, "My_Receipt_scanned.jpg", attachmentName(t, resp))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	img, err := jpeg.Decode(resp.Body)
	require.NoError(t, err)
	assert.InDelta(t, 806, img.Bounds().Dx(), 8)
	assert.InDelta(t, 1166, img.Bounds().Dy(), 8)
}

func TestOCR(t *testing.T) {
	recognizer := ocr.Func(func(ctx context.Context, img image.Image) (string, error) {
		return "  INVOICE 2041\n\n", nil
	})
	ts := newTestServer(t, recognizer, nil)

	for _, route := range []string{"/ocr", "/text", "/process?mode=text"} {
		t.Run(route, func(t *testing.T) {
			resp := upload(t, ts.URL+route, "file", "invoice.jpg", whitePNG(t, 200, 150))
			require.Equal(t, http.StatusOK, resp.StatusCode)

			assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
			assert.Equal(t, "invoice_recognized.txt", attachmentName(t, resp))

			var buf bytes.Buffer
			_, err := buf.ReadFrom(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, "INVOICE 2041", buf.String())
		})
	}
}

func TestBadRequests(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	tests := []struct {
		name     string
		route    string
		field    string
		filename string
		data     []byte
		status   int
	}{
		{"no file part", "/scan", "", "", nil, http.StatusBadRequest},
		{"wrong field", "/scan", "image", "a.png", []byte("x"), http.StatusBadRequest},
		{"empty filename", "/scan", "file", "", []byte("x"), http.StatusBadRequest},
		{"not an image", "/scan", "file", "a.png", []byte("hello"), http.StatusBadRequest},
		{"empty upload", "/scan", "file", "a.png", []byte{}, http.StatusBadRequest},
		{"invalid mode", "/process?mode=pdf", "file", "a.png", whitePNG(t, 100, 100), http.StatusBadRequest},
		{"missing mode", "/process", "file", "a.png", whitePNG(t, 100, 100), http.StatusBadRequest},
		{"margin too large", "/scan", "file", "a.png", whitePNG(t, 15, 15), http.StatusUnprocessableEntity},
		{"ocr unavailable", "/ocr", "file", "a.png", whitePNG(t, 100, 100), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := upload(t, ts.URL+tt.route, tt.field, tt.filename, tt.data)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
			assert.NotEmpty(t, errorBody(t, resp)["error"])
		})
	}
}

func TestInvalidModeSkipsPipeline(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	resp := upload(t, ts.URL+"/process?mode=pdf", "file", "a.png", whitePNG(t, 100, 100))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_argument", errorBody(t, resp)["kind"])
	assert.Equal(t, int32(0), ts.detector.calls.Load())
}

func TestUploadTooLarge(t *testing.T) {
	ts := newTestServer(t, nil, func(c *config.Server) {
		c.MaxUploadBytes = 1024
	})

	resp := upload(t, ts.URL+"/scan", "file", "big.png", bytes.Repeat([]byte{0xff}, 64<<10))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, int32(0), ts.detector.calls.Load())
}

func TestTempFilesRemoved(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	before, err := os.ReadDir(ts.Config.Handler.(*Server).tempDir)
	require.NoError(t, err)

	resp := upload(t, ts.URL+"/scan", "file", "a.png", whitePNG(t, 100, 100))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	after, err := os.ReadDir(ts.Config.Handler.(*Server).tempDir)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, ocr.Disabled{}, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status string `json:"status"`
		OCR    string `json:"ocr"`
		Stats  struct {
			CPUs int `json:"cpus"`
		} `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "none", body.OCR)
	assert.Positive(t, body.Stats.CPUs)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/scan", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestSanitizeName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"photo.jpg", "photo"},
		{"My Receipt.png", "My_Receipt"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\scan 1.jpeg`, "scan_1"},
		{"..jpg", "document"},
		{"счёт.png", "document"},
		{"a.b.c.png", "a.b.c"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeName(tt.in), tt.in)
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(engine.ErrInvalidMode))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
	assert.Equal(t, http.StatusGatewayTimeout, statusFor(context.DeadlineExceeded))
}
