package metadata

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/inventree/invctl/test/fakeapi"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	require.Equal(t, "part", CacheKey("part-table"))
	require.Equal(t, "part", CacheKey("part-category-table"))
	require.Equal(t, "stockitem", CacheKey("stockitem"))
	require.Equal(t, "", CacheKey("-x"))
}

func TestLabelsFlattensNestedFields(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()

	p := NewProber(srv.Client(), NewMemoryStore())
	labels, err := p.Labels(context.Background(), Probe{URL: srv.URL + "/api/part/", Method: "POST", TableKey: "part-list"})
	require.NoError(t, err)

	require.Equal(t, "Name", labels["name"])
	require.Equal(t, "Supplier Name", labels["supplier.name"])
	require.Equal(t, "Website", labels["supplier.url"])
	_, hasParent := labels["supplier"]
	require.False(t, hasParent)
}

func TestLabelsUsesCacheBeforeNetwork(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()

	store := NewMemoryStore()
	p := NewProber(srv.Client(), store)
	probe := Probe{URL: srv.URL + "/api/part/", Method: "GET", TableKey: "part-list"}

	_, err := p.Labels(context.Background(), probe)
	require.NoError(t, err)

	probe.TableKey = "part-variants"
	labels, err := p.Labels(context.Background(), probe)
	require.NoError(t, err)
	require.Equal(t, "IPN", labels["IPN"])
	require.Len(t, srv.Requests(http.MethodOptions), 1)

	require.NoError(t, p.Invalidate(context.Background(), "part-anything"))
	_, err = p.Labels(context.Background(), probe)
	require.NoError(t, err)
	require.Len(t, srv.Requests(http.MethodOptions), 2)
}

func TestLabelsMissingMethodNotifiesOnce(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	srv.Methods = []string{http.MethodGet}

	var calls int
	p := NewProber(srv.Client(), NewMemoryStore(), WithNotifier(func(url, method string) {
		calls++
		require.Equal(t, http.MethodPost, method)
	}))

	labels, err := p.Labels(context.Background(), Probe{URL: srv.URL + "/api/part/", Method: "post", TableKey: "part"})
	require.NoError(t, err)
	require.Nil(t, labels)
	require.Equal(t, 1, calls)

	_, err = p.Labels(context.Background(), Probe{URL: srv.URL + "/api/part/", Method: "POST", TableKey: "part"})
	require.NoError(t, err)
	require.Equal(t, 2, calls, "nothing is cached for a denied method")

	_, err = p.Labels(context.Background(), Probe{URL: srv.URL + "/api/part/", Method: "POST", TableKey: "part", Suppress: true})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestConcurrentProbesShareOneRequest(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()

	var notified atomic.Int32
	p := NewProber(srv.Client(), NewMemoryStore(), WithNotifier(func(string, string) { notified.Add(1) }))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Labels(context.Background(), Probe{URL: srv.URL + "/api/part/", TableKey: "part-list"})
		}()
	}
	wg.Wait()

	require.LessOrEqual(t, len(srv.Requests(http.MethodOptions)), 8)
	require.GreaterOrEqual(t, len(srv.Requests(http.MethodOptions)), 1)
	require.Zero(t, notified.Load())
}

func TestFieldsKeepResponseOrderAndDetail(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()

	p := NewProber(srv.Client(), nil)
	fields, err := p.Fields(context.Background(), Probe{URL: srv.URL + "/api/part/", Method: http.MethodPost})
	require.NoError(t, err)
	require.NotEmpty(t, fields)

	byName := map[string]Field{}
	for _, f := range fields {
		byName[f.Name] = f
	}

	name := byName["name"]
	require.True(t, name.Required)
	require.Equal(t, "Part name", name.HelpText)
	require.Equal(t, 100, name.MaxLength)

	require.Equal(t, true, byName["active"].Default)
	require.True(t, byName["pk"].ReadOnly)
	require.Len(t, byName["units"].Choices, 2)
	require.Equal(t, "Pieces", byName["units"].Choices[0].DisplayName)
	require.Equal(t, "partcategory", byName["category"].Model)

	supplier := byName["supplier"]
	require.Len(t, supplier.Children, 2)
	require.Equal(t, "supplier.name", supplier.Children[0].Name)
}

func TestFieldsPermissionDenied(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	srv.Methods = nil

	var calls int
	p := NewProber(srv.Client(), nil, WithNotifier(func(string, string) { calls++ }))
	_, err := p.Fields(context.Background(), Probe{URL: srv.URL + "/api/part/", Method: http.MethodPost})
	require.ErrorIs(t, err, ErrPermissionDenied)
	require.Equal(t, 1, calls)
}

func TestLabelsTransportError(t *testing.T) {
	p := NewProber(nil, nil)
	_, err := p.Labels(context.Background(), Probe{URL: "http://127.0.0.1:1/api/part/", TableKey: "part"})
	require.Error(t, err)
}

func TestLabelsWithoutActionsIsNotDenial(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	srv.OmitActions = true

	var calls int
	store := NewMemoryStore()
	p := NewProber(srv.Client(), store, WithNotifier(func(string, string) { calls++ }))

	labels, err := p.Labels(context.Background(), Probe{URL: srv.URL + "/api/part/", Method: http.MethodPost, TableKey: "part"})
	require.NoError(t, err)
	require.Empty(t, labels)
	require.Zero(t, calls)

	_, ok, err := store.Get(context.Background(), "part")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFieldsWithoutActions(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	srv.OmitActions = true

	var calls int
	p := NewProber(srv.Client(), nil, WithNotifier(func(string, string) { calls++ }))
	_, err := p.Fields(context.Background(), Probe{URL: srv.URL + "/api/part/", Method: http.MethodPost})
	require.ErrorIs(t, err, ErrNoMetadata)
	require.NotErrorIs(t, err, ErrPermissionDenied)
	require.Zero(t, calls)
}
