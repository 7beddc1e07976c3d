// Package verbtest runs verb commands against the fake API.
package verbtest

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/inventree/invctl/internal/cmd"
	"github.com/inventree/invctl/internal/cmd/common"
	"github.com/inventree/invctl/internal/cmd/session"
	"github.com/inventree/invctl/internal/config"
	"github.com/inventree/invctl/internal/inventree"
	"github.com/inventree/invctl/internal/iostreams"
	"github.com/inventree/invctl/internal/log"
	"github.com/inventree/invctl/internal/table/actions"
	"github.com/inventree/invctl/internal/table/metadata"
	"github.com/inventree/invctl/test/fakeapi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Env is a configured profile pointing at a running fake API.
type Env struct {
	Server *fakeapi.Server
	Config *config.ProfiledConfig
	Store  metadata.LabelStore
	In     *bytes.Buffer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
	Opened []string

	streams iostreams.IOStreams
}

func New(t *testing.T) *Env {
	t.Helper()
	srv := fakeapi.New()
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "config.yaml")
	v := viper.New()
	v.SetConfigFile(path)
	cfg := config.BuildProfiledConfig("default", path, v)
	cfg.Set(common.OutputConfigPath, "text")
	cfg.Set(common.BaseURLConfigPath, srv.URL)

	streams, in, out, errOut := iostreams.NewTestIOStreams()
	return &Env{
		Server:  srv,
		Config:  cfg,
		Store:   metadata.NewMemoryStore(),
		In:      in,
		Out:     out,
		ErrOut:  errOut,
		streams: streams,
	}
}

// Context carries everything the root command would have set up.
func (e *Env) Context() context.Context {
	ctx := context.WithValue(context.Background(), config.ConfigKey, config.Hook(e.Config))
	ctx = context.WithValue(ctx, iostreams.StreamsKey, &e.streams)
	ctx = context.WithValue(ctx, log.LoggerKey, slog.New(slog.DiscardHandler))
	ctx = context.WithValue(ctx, cmd.LabelStoreKey, e.Store)
	ctx = context.WithValue(ctx, session.OpenerKey, actions.Opener(actions.OpenerFunc(func(u string) error {
		e.Opened = append(e.Opened, u)
		return nil
	})))
	return context.WithValue(ctx, inventree.ClientFactoryKey, inventree.ClientFactory(
		func(cfg config.Hook, _ *slog.Logger) (*inventree.Client, error) {
			base, err := inventree.BaseURL(cfg)
			if err != nil {
				return nil, err
			}
			return &inventree.Client{BaseURL: base, Token: fakeapi.Token, HTTP: e.Server.Client()}, nil
		}))
}

// Run executes c with args and returns its error.
func (e *Env) Run(c *cobra.Command, args ...string) error {
	c.SetArgs(args)
	c.SetIn(e.In)
	c.SetOut(e.Out)
	c.SetErr(e.ErrOut)
	return c.ExecuteContext(e.Context())
}
