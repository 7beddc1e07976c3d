package apiutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

// Doer abstracts the ability to execute HTTP requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Result represents a simplified HTTP response payload.
type Result struct {
	StatusCode int
	Status     string
	Body       []byte
	Header     http.Header
}

// OK reports whether the response carried a 2xx status.
func (r *Result) OK() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Request issues an HTTP request against the provided endpoint. If the provided
// path is not absolute it is resolved against the base URL. Headers are merged
// with defaults where the caller provided values take precedence.
func Request(
	ctx context.Context,
	client Doer,
	method string,
	baseURL string,
	path string,
	token string,
	headers map[string]string,
	body io.Reader,
) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if client == nil {
		client = http.DefaultClient
	}

	endpoint, err := ResolveEndpoint(baseURL, path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Result{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       data,
		Header:     resp.Header.Clone(),
	}, nil
}

// JSONBody encodes v for use as a request body.
func JSONBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return bytes.NewReader(data), nil
}

// ResolveEndpoint joins an API path onto the base URL. Absolute URLs are returned untouched.
func ResolveEndpoint(baseURL, path string) (string, error) {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return "", fmt.Errorf("endpoint path cannot be empty")
	}

	if strings.HasPrefix(trimmedPath, "http://") || strings.HasPrefix(trimmedPath, "https://") {
		return trimmedPath, nil
	}

	if baseURL == "" {
		return "", fmt.Errorf("base URL cannot be empty")
	}

	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(trimmedPath, "/"), nil
}

// ErrorDetail extracts a readable message from an error response body. Field
// errors are listed in key order.
func ErrorDetail(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	if d, ok := payload["detail"].(string); ok {
		return d
	}
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, detailValue(payload[k])))
	}
	return strings.Join(parts, "; ")
}

func detailValue(v any) string {
	list, ok := v.([]any)
	if !ok {
		return fmt.Sprint(v)
	}
	msgs := make([]string, 0, len(list))
	for _, item := range list {
		msgs = append(msgs, fmt.Sprint(item))
	}
	return strings.Join(msgs, " ")
}
