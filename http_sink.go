package xtrack

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	HTTPSinkName = "http"

	DefaultRelayBaseURL = "http://localhost:8000"
	DefaultRelayPath    = "/api/event"
)

// HTTPSinkConfig controls the built-in HTTP relay sink.
type HTTPSinkConfig struct {
	// BaseURL is the backend origin (default "http://localhost:8000").
	BaseURL string
	// Path is the ingestion path (default "/api/event").
	Path string
	// Headers are added to every request.
	Headers map[string]string
	// Client overrides the HTTP client (default: a client with a 10s timeout).
	Client *http.Client
}

// HTTPSinkConfigFromMap converts a generic config blob, applying defaults.
func HTTPSinkConfigFromMap(cfg map[string]any) HTTPSinkConfig {
	c := HTTPSinkConfig{BaseURL: DefaultRelayBaseURL, Path: DefaultRelayPath}
	if v, ok := cfg["base_url"].(string); ok && v != "" {
		c.BaseURL = v
	}
	if v, ok := cfg["path"].(string); ok && v != "" {
		c.Path = v
	}
	if v, ok := cfg["headers"].(map[string]string); ok {
		c.Headers = v
	}
	if v, ok := cfg["client"].(*http.Client); ok {
		c.Client = v
	}
	return c
}

// HTTPSink POSTs each payload once to the ingestion endpoint. The response
// body is drained and discarded; any non-2xx status is a StatusError.
type HTTPSink struct {
	endpoint string
	headers  map[string]string
	client   *http.Client
}

var _ Sink = (*HTTPSink)(nil)

func NewHTTPSink(cfg HTTPSinkConfig) (*HTTPSink, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultRelayBaseURL
	}
	if cfg.Path == "" {
		cfg.Path = DefaultRelayPath
	}
	endpoint, err := url.JoinPath(cfg.BaseURL, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("xtrack: invalid relay endpoint: %w", err)
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPSink{endpoint: endpoint, headers: cfg.Headers, client: client}, nil
}

// Endpoint returns the resolved ingestion URL.
func (s *HTTPSink) Endpoint() string { return s.endpoint }

func (s *HTTPSink) Send(ctx context.Context, out Outbound) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(out.Body))
	if err != nil {
		return err
	}
	contentType := out.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

func (s *HTTPSink) Close(_ context.Context) error {
	s.client.CloseIdleConnections()
	return nil
}
