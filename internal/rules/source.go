package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Source supplies rule records from somewhere outside the process.
type Source interface {
	// Fetch returns the current rule records in catalog order.
	Fetch(ctx context.Context) ([]Record, error)

	// Name identifies the source in logs.
	Name() string
}

// FileSource reads a YAML rules file on every fetch.
type FileSource struct {
	Path string
}

// NewFileSource creates a FileSource for path
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Fetch reads and decodes the file
func (f *FileSource) Fetch(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return decode(data)
}

// Name returns "file:<path>"
func (f *FileSource) Name() string {
	return "file:" + f.Path
}

// HTTPSource fetches rule records as a JSON array from a remote endpoint,
// such as another instance's GET /rules.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates an HTTPSource with a default client
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewHTTPSourceWithClient creates an HTTPSource with a custom client
func NewHTTPSourceWithClient(url string, client *http.Client) *HTTPSource {
	return &HTTPSource{url: url, client: client}
}

// Fetch GETs and decodes the rule list
func (h *HTTPSource) Fetch(ctx context.Context) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create rules request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rules request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("rules endpoint returned %d", resp.StatusCode)
	}

	var records []Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode rules response: %w", err)
	}
	return records, nil
}

// Name returns "http:<url>"
func (h *HTTPSource) Name() string {
	return "http:" + h.url
}

// StaticSource always returns the same records.
type StaticSource []Record

// Fetch returns a copy of the records
func (s StaticSource) Fetch(ctx context.Context) ([]Record, error) {
	return append([]Record(nil), s...), nil
}

// Name returns "static"
func (s StaticSource) Name() string {
	return "static"
}
