// Package remote provides an HTTP adapter for paginated collection endpoints.
//
// The adapter is generic and works with any item type whose JSON form is
// returned inside the collection envelope:
//
//	{"data": [...], "meta": {"cursor": "...", "has_next": true, ...}}
//
// It implements paging.Fetcher[T], so it plugs straight into the controller:
//
//	fetcher := remote.NewFetcher[orders.Order](
//	    "http://localhost:8000",
//	    "/api/purchase-orders/paginated",
//	    remote.WithHTTPClient(remote.NewHTTPClient(10*time.Second)),
//	)
//	c := controller.New[orders.Order](fetcher, orders.OrderID)
package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/friendsofgo/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	paging "github.com/nrfta/feed-paging"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody bounds how much of a failed response is kept in StatusError.
const maxErrorBody = 4 << 10

// Fetcher implements paging.Fetcher[T] against GET <baseURL><path>?<query>.
type Fetcher[T any] struct {
	baseURL string
	path    string
	client  *http.Client
}

// Option configures a Fetcher or a client built on the same transport.
type Option func(*settings)

type settings struct {
	client *http.Client
}

// WithHTTPClient sets the HTTP client. Defaults to NewHTTPClient(0).
func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		if c != nil {
			s.client = c
		}
	}
}

func applyOptions(opts []Option) *settings {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = NewHTTPClient(0)
	}
	return s
}

// NewHTTPClient returns an HTTP client whose transport is instrumented with
// OpenTelemetry. A zero timeout leaves requests bounded only by their context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// NewFetcher creates a Fetcher for the collection at baseURL + path.
func NewFetcher[T any](baseURL, path string, opts ...Option) *Fetcher[T] {
	s := applyOptions(opts)
	return &Fetcher[T]{
		baseURL: strings.TrimRight(baseURL, "/"),
		path:    path,
		client:  s.client,
	}
}

// Fetch retrieves one page. Non-2xx responses are returned as *StatusError.
func (f *Fetcher[T]) Fetch(ctx context.Context, query string) (*paging.Page[T], error) {
	target := f.baseURL + f.path
	if query != "" {
		target += "?" + query
	}

	req, err := NewRequest(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	var page paging.Page[T]
	if err := Do(f.client, req, &page); err != nil {
		return nil, errors.Wrapf(err, "fetch %s", f.path)
	}

	if page.Items == nil {
		page.Items = []T{}
	}
	return &page, nil
}

// NewRequest builds a request carrying the request id of ctx, or a fresh one.
func NewRequest(ctx context.Context, method, target string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}

	id := paging.RequestID(ctx)
	if id == "" {
		id = uuid.NewString()
	}
	req.Header.Set(RequestIDHeader, id)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Do sends req and decodes a 2xx JSON body into out. A nil out discards the
// body. Non-2xx responses become *StatusError.
func Do(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			StatusCode: resp.StatusCode,
			Method:     req.Method,
			URL:        req.URL.Redacted(),
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
