// Package inventree holds the connection to an InvenTree server.
package inventree

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/inventree/invctl/internal/cmd/common"
	"github.com/inventree/invctl/internal/config"
	"github.com/inventree/invctl/internal/inventree/apiutil"
	"github.com/inventree/invctl/internal/inventree/auth"
	"github.com/inventree/invctl/internal/inventree/httpclient"
)

// Client is an authenticated connection to a server.
type Client struct {
	BaseURL string
	Token   string
	HTTP    apiutil.Doer
}

// URL resolves an API path against the base URL.
func (c *Client) URL(path string) string {
	endpoint, err := apiutil.ResolveEndpoint(c.BaseURL, path)
	if err != nil {
		return path
	}
	return endpoint
}

// Request issues an authenticated request.
func (c *Client) Request(ctx context.Context, method, path string, body io.Reader) (*apiutil.Result, error) {
	return apiutil.Request(ctx, c.HTTP, method, c.BaseURL, path, c.Token, nil, body)
}

// DefaultTimeout bounds every request when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// ClientFactory builds a client from configuration.
type ClientFactory func(cfg config.Hook, logger *slog.Logger) (*Client, error)

type clientFactoryKey struct{}

// ClientFactoryKey stores the ClientFactory on the command context.
var ClientFactoryKey = clientFactoryKey{}

// BaseURL returns the configured server URL.
func BaseURL(cfg config.Hook) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.GetString(common.BaseURLConfigPath)), "/")
	if base == "" {
		return "", fmt.Errorf("no server configured, set --%s or %s", common.BaseURLFlagName, common.BaseURLConfigPath)
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return "", fmt.Errorf("invalid server URL %q, expected http:// or https://", base)
	}
	return base, nil
}

// NewHTTPClient returns the logging HTTP client configured with the request timeout.
func NewHTTPClient(cfg config.Hook, logger *slog.Logger) *httpclient.LoggingHTTPClient {
	timeout := cfg.GetDurationOrElse(common.TimeoutConfigPath, DefaultTimeout)
	return httpclient.NewLoggingHTTPClient(logger, timeout)
}

// DefaultClientFactory resolves the base URL and token from configuration.
func DefaultClientFactory(cfg config.Hook, logger *slog.Logger) (*Client, error) {
	base, err := BaseURL(cfg)
	if err != nil {
		return nil, err
	}
	token, err := auth.ResolveToken(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w; run 'login' or set --%s", err, common.TokenFlagName)
	}
	return &Client{
		BaseURL: base,
		Token:   token,
		HTTP:    NewHTTPClient(cfg, logger),
	}, nil
}
