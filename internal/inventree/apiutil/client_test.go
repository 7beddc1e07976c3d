package apiutil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestResolveEndpoint(t *testing.T) {
	cases := []struct {
		base, path, want string
	}{
		{"http://inventree.local", "/api/part/", "http://inventree.local/api/part/"},
		{"http://inventree.local/", "api/part/", "http://inventree.local/api/part/"},
		{"http://inventree.local", "https://other.test/api/", "https://other.test/api/"},
	}
	for _, tc := range cases {
		got, err := ResolveEndpoint(tc.base, tc.path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tc.want {
			t.Fatalf("ResolveEndpoint(%q, %q) = %q, want %q", tc.base, tc.path, got, tc.want)
		}
	}

	if _, err := ResolveEndpoint("", "/api/part/"); err == nil {
		t.Fatal("expected error for empty base URL")
	}
	if _, err := ResolveEndpoint("http://inventree.local", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestRequestSetsTokenAndJSONHeaders(t *testing.T) {
	client := doerFunc(func(req *http.Request) (*http.Response, error) {
		if got := req.Header.Get("Authorization"); got != "Token tok" {
			t.Fatalf("unexpected authorization header: %s", got)
		}
		if got := req.Header.Get("Content-Type"); got != "application/json" {
			t.Fatalf("unexpected content type: %s", got)
		}
		body, _ := io.ReadAll(req.Body)
		if string(body) != `{"items":[1,2]}` {
			t.Fatalf("unexpected body: %s", body)
		}
		return &http.Response{
			StatusCode: http.StatusNoContent,
			Status:     "204 No Content",
			Body:       io.NopCloser(strings.NewReader("")),
			Header:     make(http.Header),
		}, nil
	})

	body, err := JSONBody(map[string]any{"items": []int{1, 2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := Request(context.Background(), client, http.MethodDelete, "http://inventree.local", "/api/part/", "tok", nil, body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.OK() {
		t.Fatalf("expected success, got %d", res.StatusCode)
	}
}

func TestRequestHeaderOverride(t *testing.T) {
	client := doerFunc(func(req *http.Request) (*http.Response, error) {
		if got := req.Header.Get("Accept"); got != "text/csv" {
			t.Fatalf("unexpected accept header: %s", got)
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader("a,b")),
			Header:     make(http.Header),
		}, nil
	})

	res, err := Request(context.TODO(), client, http.MethodGet, "http://inventree.local", "/api/part/", "",
		map[string]string{"Accept": "text/csv"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(res.Body) != "a,b" {
		t.Fatalf("unexpected body: %s", res.Body)
	}
}

func TestRequestTransportError(t *testing.T) {
	client := doerFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("boom")
	})

	_, err := Request(context.Background(), client, http.MethodGet, "http://inventree.local", "/api/part/", "", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestErrorDetail(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{
			body: `{"detail":"Not found."}`,
			want: "Not found.",
		},
		{
			body: `{"name":["This field is required."],"IPN":["Too long.","Duplicate."]}`,
			want: "IPN: Too long. Duplicate.; name: This field is required.",
		},
		{
			body: "<html>oops</html>\n",
			want: "<html>oops</html>",
		},
	}
	for _, tc := range cases {
		if got := ErrorDetail([]byte(tc.body)); got != tc.want {
			t.Errorf("ErrorDetail(%s) = %q, want %q", tc.body, got, tc.want)
		}
	}
}
