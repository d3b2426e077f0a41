package orders

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/friendsofgo/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	paging "github.com/nrfta/feed-paging"
	"github.com/nrfta/feed-paging/internal/logger"
	"github.com/nrfta/feed-paging/remote"
)

// DefaultBasePath is the collection path of the purchase-order API.
const DefaultBasePath = "/api/purchase-orders"

// ErrNotFound is returned when the order does not exist.
var ErrNotFound = errors.New("purchase order not found")

// Client talks to the purchase-order API.
type Client struct {
	baseURL  string
	basePath string
	http     *http.Client
	logger   *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client. Defaults to remote.NewHTTPClient(0).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// WithBasePath overrides DefaultBasePath.
func WithBasePath(path string) Option {
	return func(cl *Client) {
		if path != "" {
			cl.basePath = "/" + strings.Trim(path, "/")
		}
	}
}

// NewClient creates a client for the API at baseURL, e.g. http://localhost:8000.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		basePath: DefaultBasePath,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = remote.NewHTTPClient(0)
	}
	return c
}

// Feed returns the paginated collection as a paging.Fetcher for the controller.
func (c *Client) Feed() paging.Fetcher[Order] {
	return remote.NewFetcher[Order](c.baseURL, c.basePath+"/paginated", remote.WithHTTPClient(c.http))
}

// Get loads a single order.
func (c *Client) Get(ctx context.Context, id int64) (*Order, error) {
	req, err := remote.NewRequest(ctx, http.MethodGet, c.orderURL(id), nil)
	if err != nil {
		return nil, err
	}

	var order Order
	if err := remote.Do(c.http, req, &order); err != nil {
		if remote.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, pkgerrors.Wrapf(err, "get order %d", id)
	}
	return &order, nil
}

// Create submits a new order and returns it as stored by the server.
func (c *Client) Create(ctx context.Context, order NewOrder) (*Order, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	ctx, log := c.scoped(ctx)

	body, err := json.Marshal(order)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "encode order")
	}

	req, err := remote.NewRequest(ctx, http.MethodPost, c.baseURL+c.basePath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var created Order
	if err := remote.Do(c.http, req, &created); err != nil {
		return nil, pkgerrors.Wrap(err, "create order")
	}

	log.Info("order created", zap.Int64("id", created.ID))
	return &created, nil
}

// Delete removes an order upstream. On success callers drop it from their
// local list (controller.RemoveLocal); nothing is rolled back on failure.
func (c *Client) Delete(ctx context.Context, id int64) error {
	ctx, log := c.scoped(ctx)

	req, err := remote.NewRequest(ctx, http.MethodDelete, c.orderURL(id), nil)
	if err != nil {
		return err
	}

	if err := remote.Do(c.http, req, nil); err != nil {
		if remote.IsNotFound(err) {
			return ErrNotFound
		}
		return pkgerrors.Wrapf(err, "delete order %d", id)
	}

	log.Info("order deleted", zap.Int64("id", id))
	return nil
}

// scoped makes sure ctx carries a request id, so the log line and the
// X-Request-ID header agree.
func (c *Client) scoped(ctx context.Context) (context.Context, *zap.Logger) {
	if paging.RequestID(ctx) == "" {
		ctx = paging.WithRequestID(ctx, uuid.NewString())
	}
	return ctx, logger.WithContext(ctx, c.logger)
}

func (c *Client) orderURL(id int64) string {
	return c.baseURL + c.basePath + "/" + strconv.FormatInt(id, 10)
}
