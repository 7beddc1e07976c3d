// Package metadata discovers field definitions with OPTIONS requests and caches
// the resulting field labels per table.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/inventree/invctl/internal/inventree/apiutil"
	"github.com/inventree/invctl/internal/log"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrPermissionDenied is returned by Fields when the method is not advertised.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNoMetadata is returned by Fields when the response has no actions.
	ErrNoMetadata = errors.New("no field metadata")
)

// Notifier is told when a probed method is not available to the user.
type Notifier func(url, method string)

// Probe describes one capability discovery request.
type Probe struct {
	URL      string
	Method   string
	TableKey string
	Token    string
	// Suppress skips the permission denied notification.
	Suppress bool
	// Refresh ignores a cached mapping.
	Refresh bool
}

// Prober issues OPTIONS requests and caches labels in a LabelStore.
type Prober struct {
	client apiutil.Doer
	store  LabelStore
	notify Notifier
	logger *slog.Logger
	group  singleflight.Group
}

type ProberOption func(*Prober)

func WithNotifier(n Notifier) ProberOption {
	return func(p *Prober) {
		p.notify = n
	}
}

func WithLogger(l *slog.Logger) ProberOption {
	return func(p *Prober) {
		if l != nil {
			p.logger = l
		}
	}
}

func NewProber(client apiutil.Doer, store LabelStore, opts ...ProberOption) *Prober {
	if store == nil {
		store = NewMemoryStore()
	}
	p := &Prober{
		client: client,
		store:  store,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Store returns the label store shared by this prober.
func (p *Prober) Store() LabelStore {
	return p.store
}

// CacheKey derives the cache key of a table key: the part before the first '-'.
func CacheKey(tableKey string) string {
	key, _, _ := strings.Cut(tableKey, "-")
	return key
}

type labelsResult struct {
	labels Labels
	denied bool
}

// Labels returns the path to label mapping for the probed method. A cached mapping
// is returned without a request. When the method is missing the notifier fires once
// for this call and nil is returned. A response without actions yields nil
// without a notification.
func (p *Prober) Labels(ctx context.Context, probe Probe) (Labels, error) {
	method := methodOrDefault(probe.Method)
	key := CacheKey(probe.TableKey)

	if key != "" && !probe.Refresh {
		labels, ok, err := p.store.Get(ctx, key)
		if err != nil {
			p.logger.Warn("label cache read failed", "key", key, "error", err)
		} else if ok {
			return labels, nil
		}
	}

	flight := key + "|" + method + "|" + probe.URL
	v, err, _ := p.group.Do(flight, func() (any, error) {
		opts, err := p.options(ctx, probe)
		if err != nil {
			return nil, err
		}
		if !opts.HasActions() {
			return labelsResult{}, nil
		}
		if !opts.HasMethod(method) {
			return labelsResult{denied: true}, nil
		}
		fields, err := opts.Fields(method)
		if err != nil {
			return nil, err
		}
		labels := FlattenLabels(fields)
		if key != "" {
			if err := p.store.Put(ctx, key, labels); err != nil {
				p.logger.Warn("label cache write failed", "key", key, "error", err)
			}
		}
		return labelsResult{labels: labels}, nil
	})
	if err != nil {
		return nil, err
	}

	res := v.(labelsResult)
	if res.denied {
		p.denied(probe, method)
		return nil, nil
	}
	return res.labels, nil
}

// Fields returns the full field definitions of the probed method. Field
// definitions are not cached.
func (p *Prober) Fields(ctx context.Context, probe Probe) ([]Field, error) {
	method := methodOrDefault(probe.Method)

	opts, err := p.options(ctx, probe)
	if err != nil {
		return nil, err
	}
	if !opts.HasActions() {
		return nil, fmt.Errorf("%w: %s", ErrNoMetadata, probe.URL)
	}
	if !opts.HasMethod(method) {
		p.denied(probe, method)
		return nil, fmt.Errorf("%w: %s %s", ErrPermissionDenied, method, probe.URL)
	}
	return opts.Fields(method)
}

// Options issues the OPTIONS request and returns the decoded response.
func (p *Prober) Options(ctx context.Context, probe Probe) (*Options, error) {
	return p.options(ctx, probe)
}

// Invalidate drops the cached mapping of a table key.
func (p *Prober) Invalidate(ctx context.Context, tableKey string) error {
	key := CacheKey(tableKey)
	if key == "" {
		return nil
	}
	return p.store.Invalidate(ctx, key)
}

func (p *Prober) options(ctx context.Context, probe Probe) (*Options, error) {
	ctx = log.WithHTTPLogContext(ctx, log.HTTPLogContext{Action: "probe", TableKey: probe.TableKey})

	res, err := apiutil.Request(ctx, p.client, http.MethodOptions, "", probe.URL, probe.Token, nil, nil)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, fmt.Errorf("metadata request for %s returned %d", probe.URL, res.StatusCode)
	}

	opts, err := parseOptions(res.Body)
	if err != nil {
		return nil, fmt.Errorf("metadata request for %s: %w", probe.URL, err)
	}
	return opts, nil
}

func (p *Prober) denied(probe Probe, method string) {
	p.logger.Debug("method not permitted", "url", probe.URL, "method", method)
	if probe.Suppress || p.notify == nil {
		return
	}
	p.notify(probe.URL, method)
}

func methodOrDefault(method string) string {
	if method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(method)
}
