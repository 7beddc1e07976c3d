// Package session opens the resources a resource verb needs: configuration,
// the API client, the label cache and the table registry.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/inventree/invctl/internal/cmd"
	"github.com/inventree/invctl/internal/cmd/common"
	"github.com/inventree/invctl/internal/config"
	"github.com/inventree/invctl/internal/inventree"
	"github.com/inventree/invctl/internal/log"
	"github.com/inventree/invctl/internal/resources"
	"github.com/inventree/invctl/internal/table"
	"github.com/inventree/invctl/internal/table/actions"
	"github.com/inventree/invctl/internal/table/fetch"
	"github.com/inventree/invctl/internal/table/metadata"
	"github.com/inventree/invctl/internal/table/record"
	"github.com/inventree/invctl/internal/util/i18n"
)

// BrowserConfigPath names the command used to open URLs, e.g. "firefox".
const BrowserConfigPath = "browser"

type openerKey struct{}

// OpenerKey overrides the URL opener on the command context.
var OpenerKey = openerKey{}

// Session is an open connection to the configured server.
type Session struct {
	Helper   cmd.Helper
	Config   config.Hook
	Logger   *slog.Logger
	Client   *inventree.Client
	Registry *resources.Registry
	Prober   *metadata.Prober
	Store    metadata.LabelStore

	notify  table.Notifier
	release func()
}

// Registry returns the builtin tables plus the ones configured under tables.extra.
func Registry(cfg config.Hook) (*resources.Registry, error) {
	reg, err := resources.Builtin()
	if err != nil {
		return nil, err
	}
	if err := reg.LoadConfigValue(cfg.Get(resources.ExtraTablesConfigPath)); err != nil {
		return nil, &cmd.ConfigurationError{Err: err}
	}
	return reg, nil
}

// Open resolves the client and label store. Close must be called when done.
func Open(helper cmd.Helper) (*Session, error) {
	cfg, err := helper.GetConfig()
	if err != nil {
		return nil, err
	}
	logger, err := helper.GetLogger()
	if err != nil {
		return nil, err
	}
	reg, err := Registry(cfg)
	if err != nil {
		return nil, err
	}
	client, err := helper.GetAPIClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	store, release, err := helper.GetLabelStore(cfg)
	if err != nil {
		return nil, cmd.PrepareExecutionErrorWithHelper(helper, "failed to open the label cache", err)
	}

	s := &Session{
		Helper:   helper,
		Config:   cfg,
		Logger:   logger,
		Client:   client,
		Registry: reg,
		Store:    store,
		notify:   StderrNotifier(helper.GetStreams().ErrOut),
		release:  release,
	}
	s.Prober = metadata.NewProber(client.HTTP, store,
		metadata.WithLogger(logger),
		metadata.WithNotifier(s.permissionDenied))
	return s, nil
}

func (s *Session) Close() {
	if s.release != nil {
		s.release()
		s.release = nil
	}
}

func (s *Session) permissionDenied(url, method string) {
	s.notify(table.Notice{
		Level:   table.NoticeWarning,
		Title:   i18n.T("session.permission.denied", "Permission denied"),
		Message: fmt.Sprintf("%s %s", method, url),
	})
}

// Resource resolves a table name or alias.
func (s *Session) Resource(name string) (resources.Resource, error) {
	return Lookup(s.Registry, name)
}

// Lookup resolves name in reg with a usage error naming the known tables.
func Lookup(reg *resources.Registry, name string) (resources.Resource, error) {
	res, ok := reg.Lookup(name)
	if !ok {
		return resources.Resource{}, &cmd.ConfigurationError{
			Err: fmt.Errorf("unknown resource %q, expected one of: %s", name, strings.Join(reg.Names(), ", ")),
		}
	}
	return res, nil
}

// Opener returns the opener on the command context or the system opener.
func (s *Session) Opener() actions.Opener {
	if o, ok := s.Helper.GetContext().Value(OpenerKey).(actions.Opener); ok && o != nil {
		return o
	}
	return actions.SystemOpener{Command: s.Config.GetString(BrowserConfigPath)}
}

// Table builds the grid controller of res. A nil notify keeps notices on stderr;
// otherwise permission notices from the prober are routed to notify as well.
func (s *Session) Table(res resources.Resource, notify table.Notifier) *table.Table {
	if notify != nil {
		s.notify = notify
	}
	timeout := s.Config.GetDurationOrElse(common.TimeoutConfigPath, inventree.DefaultTimeout)
	return table.New(res.Definition(), table.Deps{
		BaseURL:  s.Client.BaseURL,
		Token:    s.Client.Token,
		Client:   s.Client.HTTP,
		Fetcher:  fetch.New(s.Client.HTTP, fetch.WithTimeout(timeout), fetch.WithLogger(s.Logger)),
		Prober:   s.Prober,
		Config:   s.Config,
		Opener:   s.Opener(),
		Notify:   s.notify,
		Logger:   s.Logger,
		PageSize: s.Config.GetIntOrElse(common.PageSizeConfigPath, common.DefaultPageSize),
	})
}

// Probe is the capability request of res for method.
func (s *Session) Probe(res resources.Resource, method string) metadata.Probe {
	return metadata.Probe{
		URL:      s.Client.URL(res.Endpoint),
		Method:   method,
		TableKey: res.Key(),
		Token:    s.Client.Token,
	}
}

// DetailPath is the API path of one record of res.
func DetailPath(res resources.Resource, pk string) string {
	return strings.TrimRight(res.Endpoint, "/") + "/" + url.PathEscape(strings.TrimSpace(pk)) + "/"
}

// Record retrieves one record of res.
func (s *Session) Record(ctx context.Context, res resources.Resource, pk string) (record.Record, error) {
	ctx = log.WithHTTPLogContext(ctx, log.HTTPLogContext{Resource: res.Name, TableKey: res.Key(), Action: "get"})
	result, err := s.Client.Request(ctx, http.MethodGet, DetailPath(res, pk), nil)
	if err != nil {
		return record.Record{}, cmd.PrepareExecutionErrorWithHelper(s.Helper, "request failed", err, "resource", res.Name, "pk", pk)
	}
	if !result.OK() {
		return record.Record{}, cmd.PrepareExecutionErrorMsg(s.Helper, fetch.StatusMessage(result.StatusCode),
			"resource", res.Name, "pk", pk, "status", result.StatusCode)
	}

	var values map[string]any
	if err := json.Unmarshal(result.Body, &values); err != nil {
		return record.Record{}, cmd.PrepareExecutionErrorWithHelper(s.Helper, fetch.MsgIncorrectType, err, "resource", res.Name, "pk", pk)
	}
	return record.New(values), nil
}

// StderrNotifier prints notices as single lines on w.
func StderrNotifier(w io.Writer) table.Notifier {
	return func(n table.Notice) {
		if w == nil {
			return
		}
		if n.Message == "" {
			fmt.Fprintf(w, "%s: %s\n", n.Level, n.Title)
			return
		}
		fmt.Fprintf(w, "%s: %s: %s\n", n.Level, n.Title, n.Message)
	}
}
