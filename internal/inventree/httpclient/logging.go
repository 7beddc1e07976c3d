package httpclient

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inventree/invctl/internal/log"
)

const (
	// RequestIDHeader carries a per request identifier that also appears in trace logs.
	RequestIDHeader = "X-Request-ID"

	redactedValue    = "[REDACTED]"
	maxLoggedBodyLen = 1000
)

// Doer abstracts the ability to execute HTTP requests.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// LoggingHTTPClient wraps an HTTP client to tag requests with an id and
// trace log request/response metadata.
type LoggingHTTPClient struct {
	wrapped *http.Client
	logger  *slog.Logger
}

// NewLoggingHTTPClient creates a logging client whose requests are bounded by timeout.
func NewLoggingHTTPClient(logger *slog.Logger, timeout time.Duration) *LoggingHTTPClient {
	return &LoggingHTTPClient{
		wrapped: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// NewLoggingHTTPClientWithClient wraps an existing HTTP client
func NewLoggingHTTPClientWithClient(client *http.Client, logger *slog.Logger) *LoggingHTTPClient {
	return &LoggingHTTPClient{
		wrapped: client,
		logger:  logger,
	}
}

// Timeout reports the request timeout of the wrapped client.
func (c *LoggingHTTPClient) Timeout() time.Duration {
	return c.wrapped.Timeout
}

// Do implements Doer with logging
func (c *LoggingHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}

	if c.logger == nil || !c.logger.Enabled(req.Context(), log.LevelTrace) {
		return c.wrapped.Do(req)
	}

	start := time.Now()
	c.logRequest(req)

	resp, err := c.wrapped.Do(req)

	duration := time.Since(start)
	if err != nil {
		attrs := append(log.HTTPLogContextAttrs(req.Context()),
			slog.String("request_id", req.Header.Get(RequestIDHeader)),
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()),
		)
		c.logger.LogAttrs(req.Context(), log.LevelTrace, "HTTP request failed", attrs...)
		return nil, err
	}

	c.logResponse(req, resp, duration)

	return resp, nil
}

func (c *LoggingHTTPClient) logRequest(req *http.Request) {
	attrs := append(log.HTTPLogContextAttrs(req.Context()),
		slog.String("request_id", req.Header.Get(RequestIDHeader)),
		slog.String("method", req.Method),
		slog.String("route", req.URL.Path),
		slog.Any("query_params", redactQuery(req)),
		slog.Any("headers", redactHeaders(req.Header)),
	)

	if req.Body != nil && req.ContentLength > 0 {
		attrs = append(attrs, slog.Int64("content_length", req.ContentLength))
	}

	c.logger.LogAttrs(req.Context(), log.LevelTrace, "HTTP request", attrs...)
}

func (c *LoggingHTTPClient) logResponse(req *http.Request, resp *http.Response, duration time.Duration) {
	attrs := []slog.Attr{
		slog.String("request_id", req.Header.Get(RequestIDHeader)),
		slog.Int("status_code", resp.StatusCode),
		slog.String("status_text", resp.Status),
		slog.Duration("duration", duration),
		slog.Any("headers", redactHeaders(resp.Header)),
	}

	if resp.StatusCode >= 400 {
		body, err := peekResponseBody(resp)
		if err == nil && len(body) > 0 {
			if len(body) > maxLoggedBodyLen {
				body = fmt.Sprintf("%s... [truncated, total %d bytes]", body[:maxLoggedBodyLen], len(body))
			}
			attrs = append(attrs, slog.String("error_body", body))
		}
	}

	c.logger.LogAttrs(req.Context(), log.LevelTrace, "HTTP response", attrs...)
}

func redactHeaders(header http.Header) map[string]string {
	rv := make(map[string]string, len(header))
	for k, v := range header {
		if isSensitiveKey(k) {
			rv[k] = redactedValue
			continue
		}
		rv[k] = strings.Join(v, ", ")
	}
	return rv
}

func redactQuery(req *http.Request) map[string]string {
	values := req.URL.Query()
	rv := make(map[string]string, len(values))
	for k := range values {
		if isSensitiveKey(k) {
			rv[k] = redactedValue
			continue
		}
		rv[k] = values.Get(k)
	}
	return rv
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	return k == "authorization" || k == "set-cookie" || k == "cookie" ||
		strings.Contains(k, "token") || strings.Contains(k, "password") || strings.Contains(k, "secret")
}

// peekResponseBody reads the response body without consuming it
func peekResponseBody(resp *http.Response) (string, error) {
	if resp.Body == nil {
		return "", nil
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	resp.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	return string(bodyBytes), nil
}
