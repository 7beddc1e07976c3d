package inventree

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/inventree/invctl/internal/cmd/common"
	"github.com/inventree/invctl/internal/config"
	"github.com/inventree/invctl/internal/log"
	"github.com/inventree/invctl/test/fakeapi"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConfig(t *testing.T) *config.ProfiledConfig {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	return config.BuildProfiledConfig("default", path, viper.New())
}

func TestBaseURL(t *testing.T) {
	cfg := newConfig(t)

	_, err := BaseURL(cfg)
	require.Error(t, err)

	cfg.SetString(common.BaseURLConfigPath, "ftp://example")
	_, err = BaseURL(cfg)
	require.Error(t, err)

	cfg.SetString(common.BaseURLConfigPath, " https://inv.example.com/ ")
	base, err := BaseURL(cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://inv.example.com", base)
}

func TestDefaultClientFactory(t *testing.T) {
	api := fakeapi.New()
	defer api.Close()

	cfg := newConfig(t)
	cfg.SetString(common.BaseURLConfigPath, api.URL)

	_, err := DefaultClientFactory(cfg, log.FromContext(context.Background()))
	require.Error(t, err)

	cfg.SetString(common.TokenConfigPath, fakeapi.Token)
	client, err := DefaultClientFactory(cfg, log.FromContext(context.Background()))
	require.NoError(t, err)
	assert.Equal(t, api.URL+"/api/part/", client.URL("/api/part/"))

	res, err := client.Request(context.Background(), http.MethodGet, "/api/part/1/", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(res.Body), "Resistor 10k")
}

func TestNewHTTPClientTimeout(t *testing.T) {
	cfg := newConfig(t)
	assert.Equal(t, DefaultTimeout, NewHTTPClient(cfg, log.FromContext(context.Background())).Timeout())

	cfg.Set(common.TimeoutConfigPath, "3s")
	assert.Equal(t, "3s", NewHTTPClient(cfg, log.FromContext(context.Background())).Timeout().String())
}
