// Package table wires the query, fetch, metadata, column and action layers into
// one grid controller.
package table

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/inventree/invctl/internal/config"
	"github.com/inventree/invctl/internal/inventree/apiutil"
	"github.com/inventree/invctl/internal/log"
	"github.com/inventree/invctl/internal/models"
	"github.com/inventree/invctl/internal/table/actions"
	"github.com/inventree/invctl/internal/table/columns"
	"github.com/inventree/invctl/internal/table/fetch"
	"github.com/inventree/invctl/internal/table/metadata"
	"github.com/inventree/invctl/internal/table/record"
	"github.com/inventree/invctl/internal/table/state"
	"github.com/inventree/invctl/internal/util/i18n"
)

// Definition is what a view declares about its grid.
type Definition struct {
	Name       string
	TableKey   string
	Endpoint   string
	Model      models.ModelType
	Columns    []columns.Column
	Filters    []columns.Filter
	Schema     record.Schema
	Base       url.Values
	Transform  fetch.Transformer
	RowActions bool
	// Unpaginated disables limit and offset on list requests.
	Unpaginated bool
	// OnRowClick replaces the default navigation on row activation.
	OnRowClick func(rec record.Record) error
}

// Deps are the collaborators of a Table.
type Deps struct {
	BaseURL  string
	Token    string
	Client   apiutil.Doer
	Fetcher  *fetch.Fetcher
	Prober   *metadata.Prober
	Config   config.Hook
	Opener   actions.Opener
	Notify   Notifier
	Logger   *slog.Logger
	PageSize int
}

// Table is the controller of one grid.
type Table struct {
	def    Definition
	deps   Deps
	state  *state.State
	cols   []columns.Column
	labels metadata.Labels
}

func New(def Definition, deps Deps) *Table {
	if deps.Fetcher == nil {
		deps.Fetcher = fetch.New(deps.Client, fetch.WithLogger(deps.Logger))
	}
	if deps.Prober == nil {
		deps.Prober = metadata.NewProber(deps.Client, metadata.NewMemoryStore(), metadata.WithLogger(deps.Logger))
	}
	if deps.Opener == nil {
		deps.Opener = actions.SystemOpener{}
	}
	if deps.Notify == nil {
		deps.Notify = func(Notice) {}
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}

	t := &Table{
		def:   def,
		deps:  deps,
		state: state.New(def.TableKey, deps.PageSize),
	}
	t.recompose()
	return t
}

func (t *Table) Definition() Definition { return t.def }
func (t *Table) State() *state.State    { return t.state }

// Columns returns the composed columns with visibility applied.
func (t *Table) Columns() []columns.Column {
	return t.cols
}

// VisibleColumns returns the columns currently shown.
func (t *Table) VisibleColumns() []columns.Column {
	return columns.Visible(t.cols)
}

// ListURL is the absolute endpoint of the table.
func (t *Table) ListURL() string {
	endpoint, err := apiutil.ResolveEndpoint(t.deps.BaseURL, t.def.Endpoint)
	if err != nil {
		return t.def.Endpoint
	}
	return endpoint
}

func (t *Table) ctx(ctx context.Context, action string) context.Context {
	return log.WithHTTPLogContext(ctx, log.HTTPLogContext{
		Resource: t.def.Name,
		TableKey: t.state.TableKey(),
		Action:   action,
	})
}

func (t *Table) recompose() {
	cols := columns.Compose(t.def.Columns, t.labels, t.def.RowActions)
	if hidden, ok := columns.LoadHidden(t.deps.Config, t.state.TableKey()); ok {
		cols = columns.ApplyHidden(cols, hidden)
	}
	t.cols = cols
}

// LoadMetadata probes field labels, consulting the label store first, and fills
// empty column titles.
func (t *Table) LoadMetadata(ctx context.Context) error {
	labels, err := t.deps.Prober.Labels(t.ctx(ctx, "probe"), metadata.Probe{
		URL:      t.ListURL(),
		TableKey: t.state.TableKey(),
		Token:    t.deps.Token,
	})
	if err != nil {
		t.deps.Logger.Warn("metadata probe failed", "table", t.state.TableKey(), "error", err)
		t.recompose()
		return err
	}
	t.labels = labels
	t.recompose()
	return nil
}

// Labels returns the introspected labels, nil before LoadMetadata or when denied.
func (t *Table) Labels() metadata.Labels {
	return t.labels
}

// BeginFetch enters loading and returns the request for the current state.
func (t *Table) BeginFetch() fetch.Request {
	gen := t.state.BeginFetch()
	return fetch.Request{
		URL:        t.ListURL(),
		Query:      t.state.Query(t.def.Base, !t.def.Unpaginated).Build(),
		Token:      t.deps.Token,
		Schema:     t.def.Schema,
		Transform:  t.def.Transform,
		Generation: gen,
	}
}

// Fetch runs a request built by BeginFetch. It is safe to call off the UI goroutine.
func (t *Table) Fetch(ctx context.Context, req fetch.Request) fetch.Result {
	ctx = log.WithHTTPLogContext(t.ctx(ctx, "fetch"), log.HTTPLogContext{Generation: req.Generation})
	return t.deps.Fetcher.Fetch(ctx, req)
}

// Apply stores a result unless a newer request was issued.
func (t *Table) Apply(res fetch.Result) bool {
	applied := t.state.Apply(res)
	if !applied {
		t.deps.Logger.Debug("discarding stale result", "generation", res.Generation, "latest", t.state.Generation())
	}
	if applied && res.Rejected > 0 {
		t.deps.Logger.Warn("rows failed validation", "table", t.state.TableKey(), "rejected", res.Rejected)
	}
	return applied
}

// Refresh fetches the current page synchronously.
func (t *Table) Refresh(ctx context.Context) fetch.Result {
	res := t.Fetch(ctx, t.BeginFetch())
	t.Apply(res)
	return res
}

// SetTableKey switches the grid to another table key. The cached labels of the
// previous key are invalidated and metadata is probed again.
func (t *Table) SetTableKey(ctx context.Context, key string) error {
	prev := t.state.SetTableKey(key)
	if prev == key {
		return nil
	}
	if err := t.deps.Prober.Invalidate(ctx, prev); err != nil {
		t.deps.Logger.Warn("label cache invalidation failed", "key", prev, "error", err)
	}
	return t.LoadMetadata(ctx)
}

// ToggleColumn flips the visibility of a switchable column and persists it.
func (t *Table) ToggleColumn(accessor string) error {
	cols, err := columns.Toggle(t.cols, accessor)
	if err != nil {
		return err
	}
	t.cols = cols
	return columns.SaveHidden(t.deps.Config, t.state.TableKey(), cols)
}

// SetFilterValue validates a filter against the declared filters and applies it.
func (t *Table) SetFilterValue(name, raw string) error {
	values, err := columns.ResolveFilters(t.def.Filters, map[string]string{name: raw})
	if err != nil {
		return err
	}
	t.state.SetFilter(name, values[name])
	return nil
}

// Scope binds actions to the current selection and query.
func (t *Table) Scope() actions.Scope {
	return actions.Scope{
		BaseURL:  t.deps.BaseURL,
		ListURL:  t.ListURL(),
		Token:    t.deps.Token,
		Query:    t.state.Query(t.def.Base, false).Build(),
		Model:    t.def.Model,
		Selected: t.state.Selected(),
	}
}

// DeleteSelected issues one bulk delete for the selection. The caller has already
// confirmed. On success the grid is refetched once; on failure state is unchanged.
func (t *Table) DeleteSelected(ctx context.Context) error {
	if err := t.DeleteScope(ctx, t.Scope()); err != nil {
		return err
	}
	t.Refresh(ctx)
	return nil
}

// DeleteScope deletes the records of scope and reports the outcome as a notice.
// It does not touch grid state, so it may run off the UI goroutine; the caller
// refetches after a nil return.
func (t *Table) DeleteScope(ctx context.Context, scope actions.Scope) error {
	n := len(scope.Selected)
	if err := actions.BulkDelete(t.ctx(ctx, "bulk-delete"), t.deps.Client, scope); err != nil {
		t.deps.Notify(Notice{Level: NoticeError, Title: i18n.T("table.delete.failed", "Delete failed"), Message: err.Error()})
		return err
	}

	t.deps.Notify(Notice{
		Level:   NoticeSuccess,
		Title:   i18n.T("table.delete.success", "Items deleted"),
		Message: i18n.T("table.delete.count", "Deleted") + " " + i18n.Count(n, "item", "items"),
	})
	return nil
}

// Export opens the server side export of the current query.
func (t *Table) Export(format actions.ExportFormat) (string, error) {
	target, err := actions.Export(t.Scope(), format, t.deps.Opener)
	if err != nil {
		t.deps.Notify(Notice{Level: NoticeError, Title: i18n.T("table.export.failed", "Export failed"), Message: err.Error()})
		return "", err
	}
	t.deps.Notify(Notice{Level: NoticeInfo, Title: i18n.T("table.export.started", "Export started"), Message: target})
	return target, nil
}

// Activate handles a row click: the row handler if one is set, otherwise the
// record detail page of the model.
func (t *Table) Activate(rec record.Record) error {
	if t.def.OnRowClick != nil {
		return t.def.OnRowClick(rec)
	}
	if t.def.Model == "" {
		return nil
	}
	_, err := actions.Navigate(t.Scope(), rec, actions.ModeView, t.deps.Opener)
	return err
}

// OpenDetail opens the detail page of rec in a given mode.
func (t *Table) OpenDetail(rec record.Record, mode actions.DetailMode) (string, error) {
	if t.def.Model == "" {
		return "", fmt.Errorf("table %s has no model type", t.def.Name)
	}
	return actions.Navigate(t.Scope(), rec, mode, t.deps.Opener)
}

// PrintLabels renders labels for the selection.
func (t *Table) PrintLabels(tmpl string) (string, error) {
	return actions.PrintLabels(t.Scope(), tmpl)
}

// Barcodes returns the barcode payload of every selected record.
func (t *Table) Barcodes() ([]string, error) {
	scope := t.Scope()
	rv := make([]string, 0, len(scope.Selected))
	for _, rec := range scope.Selected {
		data, err := actions.BarcodeData(scope.Model, rec)
		if err != nil {
			return nil, err
		}
		rv = append(rv, data)
	}
	return rv, nil
}

// EmptyMessage is shown when no rows are loaded.
func (t *Table) EmptyMessage() string {
	if msg := strings.TrimSpace(t.state.Message()); msg != "" {
		return msg
	}
	return i18n.T("table.empty", "No records found")
}
