package actions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/inventree/invctl/internal/models"
	"github.com/inventree/invctl/internal/table/query"
	"github.com/inventree/invctl/internal/table/record"
	"github.com/inventree/invctl/test/fakeapi"
	"github.com/stretchr/testify/require"
)

type recordingOpener struct {
	urls []string
}

func (r *recordingOpener) Open(u string) error {
	r.urls = append(r.urls, u)
	return nil
}

func recs(pks ...int) []record.Record {
	rv := []record.Record{}
	for _, pk := range pks {
		rv = append(rv, record.New(map[string]any{"pk": pk, "name": "part " + string(rune('a'+pk%26))}))
	}
	return rv
}

func TestExportOpensOneWindowWithoutPagination(t *testing.T) {
	q := query.Builder{
		Filters:  map[string]string{"category": "3"},
		Search:   "res",
		Paginate: true,
		PageSize: 25,
		Page:     4,
		Sort:     &query.Sort{Accessor: "name"},
	}.Build()

	opener := &recordingOpener{}
	target, err := Export(Scope{ListURL: "http://inventree.local/api/part/", Query: q}, ExportXLSX, opener)
	require.NoError(t, err)
	require.Len(t, opener.urls, 1)
	require.Equal(t, target, opener.urls[0])

	u, err := url.Parse(target)
	require.NoError(t, err)
	got := u.Query()
	require.Equal(t, "xlsx", got.Get("export"))
	require.Equal(t, "3", got.Get("category"))
	require.Equal(t, "res", got.Get("search"))
	require.Equal(t, "name", got.Get("ordering"))
	require.NotContains(t, got, "limit")
	require.NotContains(t, got, "offset")
	require.Equal(t, "/api/part/", u.Path)
}

func TestParseExportFormat(t *testing.T) {
	f, err := ParseExportFormat("TSV")
	require.NoError(t, err)
	require.Equal(t, ExportTSV, f)

	_, err = ParseExportFormat("pdf")
	require.Error(t, err)
}

func TestBulkDeleteSendsOneRequest(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()

	scope := Scope{ListURL: srv.URL + "/api/part/", Selected: recs(7, 12)}
	require.NoError(t, BulkDelete(context.Background(), srv.Client(), scope))

	deletes := srv.Requests(http.MethodDelete)
	require.Len(t, deletes, 1)

	var body map[string][]int
	require.NoError(t, json.Unmarshal([]byte(deletes[0].Body), &body))
	require.Equal(t, []int{7, 12}, body["items"])
	require.Equal(t, 3, srv.PartCount())
}

func TestBulkDeleteKeepsStringKeys(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()

	rec := record.New(map[string]any{"pk": "0012", "name": "Fuse"})
	require.NoError(t, BulkDelete(context.Background(), srv.Client(), Scope{ListURL: srv.URL + "/api/part/", Selected: []record.Record{rec}}))

	deletes := srv.Requests(http.MethodDelete)
	require.Len(t, deletes, 1)
	require.JSONEq(t, `{"items":["0012"]}`, deletes[0].Body)

	data, err := BarcodeData(models.Part, rec)
	require.NoError(t, err)
	require.JSONEq(t, `{"part":"0012"}`, data)
}

func TestBulkDeleteFailure(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	srv.DeleteStatus = http.StatusForbidden

	err := BulkDelete(context.Background(), srv.Client(), Scope{ListURL: srv.URL + "/api/part/", Selected: recs(7)})
	var delErr *DeleteError
	require.ErrorAs(t, err, &delErr)
	require.Equal(t, http.StatusForbidden, delErr.StatusCode)
	require.Equal(t, "Forbidden", delErr.Detail)
	require.Equal(t, 5, srv.PartCount())

	require.Error(t, BulkDelete(context.Background(), srv.Client(), Scope{ListURL: srv.URL + "/api/part/"}))
}

func TestNavigateModes(t *testing.T) {
	opener := &recordingOpener{}
	scope := Scope{BaseURL: "http://inventree.local", Model: models.Part}
	rec := recs(7)[0]

	_, err := Navigate(scope, rec, ModeView, opener)
	require.NoError(t, err)
	_, err = Navigate(scope, rec, ModeEdit, opener)
	require.NoError(t, err)
	_, err = Navigate(scope, rec, ModeDuplicate, opener)
	require.NoError(t, err)

	require.Equal(t, []string{
		"http://inventree.local/web/part/7/",
		"http://inventree.local/web/part/7/?edit=1",
		"http://inventree.local/web/part/7/?duplicate=1",
	}, opener.urls)
}

func TestBarcodeAndLabels(t *testing.T) {
	rec := recs(7)[0]
	data, err := BarcodeData(models.StockItem, rec)
	require.NoError(t, err)
	require.Equal(t, `{"stockitem":7}`, data)

	_, err = BarcodeData("", rec)
	require.Error(t, err)

	out, err := PrintLabels(Scope{Model: models.Part, Selected: recs(7, 12)}, `{{ .pk }}:{{ .name | upper }}:{{ barcode }}`)
	require.NoError(t, err)
	require.Equal(t, "7:PART H:{\"part\":7}\n12:PART M:{\"part\":12}\n", out)

	out, err = PrintLabels(Scope{Model: models.Part, Selected: recs(1)}, "")
	require.NoError(t, err)
	require.Equal(t, "1\tpart b\t{\"part\":1}\n", out)

	_, err = PrintLabels(Scope{Model: models.Part, Selected: recs(1)}, "{{ .pk ")
	require.Error(t, err)
}

func TestExportURLKeepsEndpointQuery(t *testing.T) {
	target, err := ExportURL("http://api.test/api/stock/?location=3",
		url.Values{"search": {"bolt"}, "limit": {"25"}, "offset": {"0"}}, ExportCSV)
	require.NoError(t, err)

	u, err := url.Parse(target)
	require.NoError(t, err)
	require.Equal(t, url.Values{"location": {"3"}, "search": {"bolt"}, "export": {"csv"}}, u.Query())
}
