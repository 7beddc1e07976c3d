// Package fetch loads one page of table rows and turns every failure into an
// explanatory message instead of an error.
package fetch

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/inventree/invctl/internal/inventree/apiutil"
	"github.com/inventree/invctl/internal/log"
	"github.com/inventree/invctl/internal/table/record"
	"github.com/tidwall/gjson"
)

// DefaultTimeout bounds every list request.
const DefaultTimeout = 10 * time.Second

// Messages shown in place of rows when a fetch yields nothing usable.
const (
	MsgBadRequest    = "Bad request"
	MsgUnauthorized  = "Unauthorized"
	MsgForbidden     = "Forbidden"
	MsgNotFound      = "Not found"
	MsgIncorrectType = "Incorrect data type"
	msgUnexpected    = "Unexpected response: "
	msgError         = "Error: "
)

// Transformer reshapes the decoded body before the envelope is inspected. When
// it returns a bare list out of a paginated envelope, the envelope count is kept.
type Transformer func(payload any) any

// Request describes one list fetch.
type Request struct {
	URL        string
	Query      url.Values
	Token      string
	Schema     record.Schema
	Transform  Transformer
	Generation uint64
}

// Result is the outcome of a fetch. Message is empty on success.
type Result struct {
	Records    []record.Record
	Count      int
	Message    string
	StatusCode int
	Rejected   int
	Generation uint64
}

// Fetcher issues list requests.
type Fetcher struct {
	client  apiutil.Doer
	timeout time.Duration
	logger  *slog.Logger
}

type Option func(*Fetcher)

func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

func New(client apiutil.Doer, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  client,
		timeout: DefaultTimeout,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Timeout returns the request ceiling in use.
func (f *Fetcher) Timeout() time.Duration {
	return f.timeout
}

// Fetch never returns an error. Status, transport and shape problems are reported
// through Result.Message.
func (f *Fetcher) Fetch(ctx context.Context, req Request) Result {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	ctx = log.WithHTTPLogContext(ctx, log.HTTPLogContext{Action: "fetch", Generation: req.Generation})

	rv := Result{Generation: req.Generation}

	target, err := listTarget(req.URL, req.Query)
	if err != nil {
		rv.Message = msgError + err.Error()
		return rv
	}

	res, err := apiutil.Request(ctx, f.client, http.MethodGet, "", target, req.Token, nil, nil)
	if err != nil {
		f.logger.Debug("list request failed", "url", target, "error", err)
		rv.Message = msgError + err.Error()
		return rv
	}

	rv.StatusCode = res.StatusCode
	if res.StatusCode != http.StatusOK {
		rv.Message = StatusMessage(res.StatusCode)
		return rv
	}

	rows, count, ok := extractRows(res.Body, req.Transform)
	if !ok {
		rv.Message = MsgIncorrectType
		return rv
	}

	rv.Count = count
	rv.Records = make([]record.Record, 0, len(rows))
	for i, row := range rows {
		rec, err := req.Schema.Validate(row)
		if err != nil {
			rv.Rejected++
			f.logger.Debug("dropping invalid row", "index", i, "error", err)
			continue
		}
		rv.Records = append(rv.Records, rec)
	}

	return rv
}

// StatusMessage maps a non-200 status to the text shown in the empty grid.
func StatusMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return MsgBadRequest
	case http.StatusUnauthorized:
		return MsgUnauthorized
	case http.StatusForbidden:
		return MsgForbidden
	case http.StatusNotFound:
		return MsgNotFound
	}
	text := http.StatusText(code)
	if text == "" {
		text = http.StatusText(http.StatusInternalServerError)
	}
	return msgUnexpected + text
}

func extractRows(body []byte, transform Transformer) ([]any, int, bool) {
	if !gjson.ValidBytes(body) {
		return nil, 0, false
	}
	parsed := gjson.ParseBytes(body)

	// envelopeCount is the server's total when the body is a paginated envelope.
	var envelopeCount int
	var hasCount bool
	if parsed.IsObject() {
		if c := parsed.Get("count"); c.Exists() {
			envelopeCount, hasCount = int(c.Int()), true
		}
	}
	countOr := func(n int) int {
		if hasCount {
			return envelopeCount
		}
		return n
	}

	if transform == nil {
		switch {
		case parsed.IsArray():
			rows := decodeArray(parsed)
			return rows, len(rows), true
		case parsed.IsObject() && parsed.Get("results").IsArray():
			rows := decodeArray(parsed.Get("results"))
			return rows, countOr(len(rows)), true
		}
		return nil, 0, false
	}

	switch payload := transform(parsed.Value()).(type) {
	case []any:
		return payload, countOr(len(payload)), true
	case map[string]any:
		results, ok := payload["results"].([]any)
		if !ok {
			return nil, 0, false
		}
		if c, ok := payload["count"].(float64); ok {
			return results, int(c), true
		}
		return results, countOr(len(results)), true
	}
	return nil, 0, false
}

func decodeArray(arr gjson.Result) []any {
	items := arr.Array()
	rv := make([]any, 0, len(items))
	for _, item := range items {
		rv = append(rv, item.Value())
	}
	return rv
}

// listTarget merges q into any query string the endpoint already carries.
// Keys in q replace the endpoint's own.
func listTarget(listURL string, q url.Values) (string, error) {
	u, err := url.Parse(listURL)
	if err != nil {
		return "", err
	}
	values := u.Query()
	for k, v := range q {
		values[k] = v
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}
