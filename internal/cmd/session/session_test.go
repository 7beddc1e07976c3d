package session

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/inventree/invctl/internal/cmd"
	"github.com/inventree/invctl/internal/cmd/common"
	"github.com/inventree/invctl/internal/config"
	"github.com/inventree/invctl/internal/inventree"
	"github.com/inventree/invctl/internal/iostreams"
	"github.com/inventree/invctl/internal/resources"
	"github.com/inventree/invctl/internal/table"
	"github.com/inventree/invctl/internal/table/actions"
	"github.com/inventree/invctl/internal/table/fetch"
	"github.com/inventree/invctl/internal/table/metadata"
	testcmd "github.com/inventree/invctl/test/cmd"
	"github.com/inventree/invctl/test/fakeapi"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	srv    *fakeapi.Server
	cfg    *config.ProfiledConfig
	errOut *bytes.Buffer
	ctx    context.Context
	helper *testcmd.MockHelper
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := fakeapi.New()
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "config.yaml")
	v := viper.New()
	v.SetConfigFile(path)
	cfg := config.BuildProfiledConfig("default", path, v)
	cfg.Set(common.BaseURLConfigPath, srv.URL)

	streams, _, _, errOut := iostreams.NewTestIOStreams()
	f := &fixture{srv: srv, cfg: cfg, errOut: errOut, ctx: context.Background()}
	c := &cobra.Command{}
	f.helper = &testcmd.MockHelper{
		GetCmdMock:     func() *cobra.Command { return c },
		GetStreamsMock: func() *iostreams.IOStreams { return &streams },
		GetConfigMock:  func() (config.Hook, error) { return cfg, nil },
		GetLoggerMock:  func() (*slog.Logger, error) { return slog.New(slog.DiscardHandler), nil },
		GetContextMock: func() context.Context { return f.ctx },
		GetAPIClientMock: func(config.Hook, *slog.Logger) (*inventree.Client, error) {
			return &inventree.Client{BaseURL: srv.URL, Token: fakeapi.Token, HTTP: srv.Client()}, nil
		},
	}
	return f
}

func (f *fixture) open(t *testing.T) *Session {
	t.Helper()
	s, err := Open(f.helper)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestRegistryWithExtraTables(t *testing.T) {
	f := newFixture(t)
	f.cfg.Set(resources.ExtraTablesConfigPath, []any{
		map[string]any{
			"name":     "attachments",
			"endpoint": "/api/attachment/",
			"columns":  []any{map[string]any{"accessor": "pk"}},
		},
	})

	reg, err := Registry(f.cfg)
	require.NoError(t, err)
	_, ok := reg.Lookup("attachments")
	require.True(t, ok)
	_, ok = reg.Lookup("parts")
	require.True(t, ok)
}

func TestRegistryRejectsInvalidExtraTables(t *testing.T) {
	f := newFixture(t)
	f.cfg.Set(resources.ExtraTablesConfigPath, []any{map[string]any{"name": "broken"}})

	_, err := Registry(f.cfg)
	var cfgErr *cmd.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestLookupUnknownNamesTables(t *testing.T) {
	reg, err := resources.Builtin()
	require.NoError(t, err)

	_, err = Lookup(reg, "widgets")
	require.ErrorContains(t, err, `unknown resource "widgets", expected one of:`)
	require.ErrorContains(t, err, "parts")
}

func TestDetailPath(t *testing.T) {
	res := resources.Resource{Name: "parts", Endpoint: "/api/part"}
	require.Equal(t, "/api/part/42/", DetailPath(res, " 42 "))
	require.Equal(t, "/api/part/a%2Fb/", DetailPath(res, "a/b"))
}

func TestRecord(t *testing.T) {
	f := newFixture(t)
	s := f.open(t)
	res, err := s.Resource("part")
	require.NoError(t, err)

	rec, err := s.Record(f.ctx, res, "7")
	require.NoError(t, err)
	require.Equal(t, "7", rec.PK())
	require.Equal(t, "Resistor 1k", rec.Display("name"))

	_, err = s.Record(f.ctx, res, "99")
	var execErr *cmd.ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, fetch.MsgNotFound, execErr.Msg)
}

func TestProbeAndTable(t *testing.T) {
	f := newFixture(t)
	s := f.open(t)
	res, err := s.Resource("parts")
	require.NoError(t, err)

	probe := s.Probe(res, http.MethodPost)
	require.Equal(t, f.srv.URL+"/api/part/", probe.URL)
	require.Equal(t, res.Key(), probe.TableKey)
	require.Equal(t, fakeapi.Token, probe.Token)

	grid := s.Table(res, nil)
	require.Equal(t, f.srv.URL+"/api/part/", grid.ListURL())
	result := grid.Refresh(f.ctx)
	require.Empty(t, result.Message)
	require.Len(t, grid.State().Records(), 5)
}

func TestPermissionDeniedNotice(t *testing.T) {
	f := newFixture(t)
	f.srv.Methods = []string{http.MethodGet}
	s := f.open(t)
	res, err := s.Resource("parts")
	require.NoError(t, err)

	var notices []table.Notice
	s.Table(res, func(n table.Notice) { notices = append(notices, n) })

	_, err = s.Prober.Fields(f.ctx, s.Probe(res, http.MethodPost))
	require.ErrorIs(t, err, metadata.ErrPermissionDenied)
	require.Len(t, notices, 1)
	require.Equal(t, table.NoticeWarning, notices[0].Level)
	require.Equal(t, "Permission denied", notices[0].Title)
	require.Equal(t, "POST "+f.srv.URL+"/api/part/", notices[0].Message)
}

func TestOpenerOverride(t *testing.T) {
	f := newFixture(t)
	var opened []string
	f.ctx = context.WithValue(f.ctx, OpenerKey, actions.Opener(actions.OpenerFunc(func(u string) error {
		opened = append(opened, u)
		return nil
	})))
	s := f.open(t)

	require.NoError(t, s.Opener().Open("http://example.com/"))
	require.Equal(t, []string{"http://example.com/"}, opened)
}

func TestSystemOpenerFromConfig(t *testing.T) {
	f := newFixture(t)
	f.cfg.Set(BrowserConfigPath, "firefox")
	s := f.open(t)

	require.Equal(t, actions.SystemOpener{Command: "firefox"}, s.Opener())
}

func TestStderrNotifier(t *testing.T) {
	var buf bytes.Buffer
	notify := StderrNotifier(&buf)

	notify(table.Notice{Level: table.NoticeSuccess, Title: "Items deleted", Message: "Deleted 2 items"})
	notify(table.Notice{Level: table.NoticeError, Title: "Delete failed"})
	StderrNotifier(nil)(table.Notice{Title: "ignored"})

	require.Equal(t, "success: Items deleted: Deleted 2 items\nerror: Delete failed\n", buf.String())
}
