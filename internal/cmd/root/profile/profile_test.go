package profile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/inventree/invctl/internal/config"
	"github.com/inventree/invctl/internal/iostreams"
	"github.com/inventree/invctl/internal/log"
	"github.com/inventree/invctl/internal/profile"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

const configYAML = `
default:
  output: text
  inventree:
    base-url: https://stock.example.com
    token: secret-token
staging:
  output: json
  inventree:
    base-url: https://staging.example.com
`

type env struct {
	cfg *config.ProfiledConfig
	out *strings.Builder
	ctx context.Context
}

func newEnv(t *testing.T, active string) *env {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	cfg := config.BuildProfiledConfig(active, path, v)

	streams, _, _, _ := iostreams.NewTestIOStreams()
	out := &strings.Builder{}
	streams.Out = out

	ctx := context.WithValue(context.Background(), config.ConfigKey, config.Hook(cfg))
	ctx = context.WithValue(ctx, iostreams.StreamsKey, &streams)
	ctx = context.WithValue(ctx, log.LoggerKey, log.NewLogger(nil, nil, "error"))
	ctx = context.WithValue(ctx, profile.ProfileManagerKey, profile.NewManager(v))
	return &env{cfg: cfg, out: out, ctx: ctx}
}

func (e *env) run(args ...string) error {
	c := NewProfileCmd()
	c.SetArgs(args)
	return c.ExecuteContext(e.ctx)
}

func TestProfileList(t *testing.T) {
	e := newEnv(t, "staging")
	e.cfg.Set("output", "text")

	require.NoError(t, e.run("list"))
	out := e.out.String()
	require.Contains(t, out, "default")
	require.Contains(t, out, "staging")
	require.Contains(t, out, "*")
}

func TestProfileShowRedactsToken(t *testing.T) {
	e := newEnv(t, "default")
	e.cfg.Set("output", "json")

	require.NoError(t, e.run("show"))

	var got Info
	require.NoError(t, json.Unmarshal([]byte(e.out.String()), &got))
	require.Equal(t, "default", got.Name)
	require.True(t, got.Active)
	inv, ok := got.Settings["inventree"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "********", inv["token"])
	require.Equal(t, "https://stock.example.com", inv["base-url"])
}

func TestProfileShowUnknown(t *testing.T) {
	e := newEnv(t, "default")

	require.Error(t, e.run("show", "production"))
}

func TestProfileCreateWritesFile(t *testing.T) {
	e := newEnv(t, "default")

	require.NoError(t, e.run("create", "production"))
	require.Contains(t, e.out.String(), "Created profile production")

	data, err := os.ReadFile(e.cfg.GetPath())
	require.NoError(t, err)
	require.Contains(t, string(data), "production")
	require.Contains(t, string(data), "stock.example.com")
}
