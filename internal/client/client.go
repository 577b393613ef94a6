// Package client talks to a running docscand over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

type Client struct {
	client *http.Client

	url       string
	requestID string
}

// Result is a downloaded scan or transcript
type Result struct {
	Filename    string
	ContentType string
	RequestID   string

	Content []byte
}

// Error is a non-2xx answer from the server
type Error struct {
	StatusCode int
	Message    string
	Kind       string
}

func (e *Error) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%d %s (%s)", e.StatusCode, e.Message, e.Kind)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
}

func New(url string, options ...Option) (*Client, error) {
	if url == "" {
		return nil, errors.New("server url is required")
	}

	c := &Client{
		client: http.DefaultClient,

		url: strings.TrimRight(url, "/"),
	}

	for _, option := range options {
		option(c)
	}

	return c, nil
}

// Scan uploads a photo and returns the binarized JPEG
func (c *Client) Scan(ctx context.Context, name string, content []byte) (*Result, error) {
	return c.upload(ctx, "/scan", name, content)
}

// Recognize uploads a photo and returns the recognized text
func (c *Client) Recognize(ctx context.Context, name string, content []byte) (*Result, error) {
	return c.upload(ctx, "/ocr", name, content)
}

// ScanFile reads path and uploads it in the given mode ("scan" or "ocr")
func (c *Client) ScanFile(ctx context.Context, mode, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch mode {
	case "scan":
		return c.Scan(ctx, filepath.Base(path), data)
	case "ocr", "text":
		return c.Recognize(ctx, filepath.Base(path), data)
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

// Health returns the decoded /health document
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	req, _ := http.NewRequestWithContext(ctx, "GET", c.url+"/health", nil)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, convertError(resp)
	}

	var result map[string]any

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return result, nil
}

func (c *Client) upload(ctx context.Context, path, name string, content []byte) (*Result, error) {
	var body bytes.Buffer

	w := multipart.NewWriter(&body)

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", multipart.FileContentDisposition("file", name))
	h.Set("Content-Type", contentType)

	f, err := w.CreatePart(h)

	if err != nil {
		return nil, err
	}

	if _, err := f.Write(content); err != nil {
		return nil, err
	}

	w.Close()

	req, _ := http.NewRequestWithContext(ctx, "POST", c.url+path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())

	if c.requestID != "" {
		req.Header.Set("X-Request-Id", c.requestID)
	}

	resp, err := c.client.Do(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, convertError(resp)
	}

	data, err := io.ReadAll(resp.Body)

	if err != nil {
		return nil, err
	}

	result := &Result{
		ContentType: resp.Header.Get("Content-Type"),
		RequestID:   resp.Header.Get("X-Request-Id"),

		Content: data,
	}

	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		result.Filename = params["filename"]
	}

	return result, nil
}

func convertError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)

	e := &Error{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
	}

	var body struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}

	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		e.Message = body.Error
		e.Kind = body.Kind
	} else if len(data) > 0 {
		e.Message = strings.TrimSpace(string(data))
	}

	return e
}
