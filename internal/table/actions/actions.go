// Package actions implements the grid actions. Each action works on the current
// selection and query only.
package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/inventree/invctl/internal/inventree/apiutil"
	"github.com/inventree/invctl/internal/log"
	"github.com/inventree/invctl/internal/models"
	"github.com/inventree/invctl/internal/table/query"
	"github.com/inventree/invctl/internal/table/record"
)

// ExportFormat is a server side export file type.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportTSV  ExportFormat = "tsv"
	ExportXLSX ExportFormat = "xlsx"
)

// ExportFormats lists the supported formats.
var ExportFormats = []ExportFormat{ExportCSV, ExportTSV, ExportXLSX}

func ParseExportFormat(s string) (ExportFormat, error) {
	f := ExportFormat(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ExportFormats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported export format %q (use csv, tsv or xlsx)", s)
}

// Scope is what an action is bound to.
type Scope struct {
	BaseURL  string
	ListURL  string
	Token    string
	Query    url.Values
	Model    models.ModelType
	Selected []record.Record
}

// ExportURL is the list URL with the unpaginated query and the export parameter.
func ExportURL(listURL string, q url.Values, format ExportFormat) (string, error) {
	u, err := url.Parse(listURL)
	if err != nil {
		return "", fmt.Errorf("invalid list URL %q: %w", listURL, err)
	}
	values := u.Query()
	for k, v := range query.Unpaginated(q) {
		values[k] = v
	}
	values.Set(query.ExportKey, string(format))
	u.RawQuery = values.Encode()
	return u.String(), nil
}

// Export opens the export download in a new browser window.
func Export(scope Scope, format ExportFormat, opener Opener) (string, error) {
	target, err := ExportURL(scope.ListURL, scope.Query, format)
	if err != nil {
		return "", err
	}
	if err := opener.Open(target); err != nil {
		return "", err
	}
	return target, nil
}

// DeleteError is a rejected bulk delete.
type DeleteError struct {
	StatusCode int
	Detail     string
}

func (e *DeleteError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("delete failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("delete failed with status %d: %s", e.StatusCode, e.Detail)
}

// BulkDelete removes the selected records with a single request.
func BulkDelete(ctx context.Context, client apiutil.Doer, scope Scope) error {
	if len(scope.Selected) == 0 {
		return fmt.Errorf("no records selected")
	}

	items := make([]any, 0, len(scope.Selected))
	for _, r := range scope.Selected {
		items = append(items, r.PKValue())
	}

	body, err := apiutil.JSONBody(map[string]any{"items": items})
	if err != nil {
		return err
	}

	ctx = log.WithHTTPLogContext(ctx, log.HTTPLogContext{Action: "bulk-delete"})
	res, err := apiutil.Request(ctx, client, http.MethodDelete, "", scope.ListURL, scope.Token, nil, body)
	if err != nil {
		return err
	}
	if !res.OK() {
		return &DeleteError{StatusCode: res.StatusCode, Detail: apiutil.ErrorDetail(res.Body)}
	}
	return nil
}

// DetailMode selects what the detail page opens for.
type DetailMode string

const (
	ModeView      DetailMode = ""
	ModeEdit      DetailMode = "edit"
	ModeDuplicate DetailMode = "duplicate"
)

// DetailURL resolves the web location of a record, with ?edit=1 or ?duplicate=1
// for the edit and duplicate modes.
func DetailURL(baseURL string, model models.ModelType, rec record.Record, mode DetailMode) (string, error) {
	target, err := models.DetailURL(baseURL, model, rec.PK())
	if err != nil {
		return "", err
	}
	if mode != ModeView {
		target += "?" + string(mode) + "=1"
	}
	return target, nil
}

// Navigate opens a record detail page.
func Navigate(scope Scope, rec record.Record, mode DetailMode, opener Opener) (string, error) {
	target, err := DetailURL(scope.BaseURL, scope.Model, rec, mode)
	if err != nil {
		return "", err
	}
	return target, opener.Open(target)
}

// BarcodeData is the InvenTree barcode payload of a record.
func BarcodeData(model models.ModelType, rec record.Record) (string, error) {
	if model == "" {
		return "", fmt.Errorf("barcode requires a model type")
	}
	data, err := json.Marshal(map[string]any{string(model): rec.PKValue()})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DefaultLabelTemplate prints one line per record.
const DefaultLabelTemplate = `{{ .pk }}{{ "\t" }}{{ .name | default "" }}{{ "\t" }}{{ barcode }}`

// PrintLabels renders tmpl once per selected record. Records are exposed as their
// raw field maps; sprig functions and barcode are available.
func PrintLabels(scope Scope, tmpl string) (string, error) {
	if len(scope.Selected) == 0 {
		return "", fmt.Errorf("no records selected")
	}
	if tmpl == "" {
		tmpl = DefaultLabelTemplate
	}

	var out bytes.Buffer
	for _, rec := range scope.Selected {
		t, err := template.New("label").
			Funcs(sprig.TxtFuncMap()).
			Funcs(template.FuncMap{
				"barcode": func() (string, error) { return BarcodeData(scope.Model, rec) },
			}).
			Option("missingkey=zero").
			Parse(tmpl)
		if err != nil {
			return "", fmt.Errorf("invalid label template: %w", err)
		}
		if err := t.Execute(&out, rec.Raw()); err != nil {
			return "", fmt.Errorf("failed to render label for %s: %w", rec.PK(), err)
		}
		out.WriteByte('\n')
	}
	return out.String(), nil
}
