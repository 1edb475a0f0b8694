package kv

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	workerskv "github.com/tarmac-project/workerskv"
	"github.com/tarmac-project/workerskv/httpclient"
	"github.com/tarmac-project/workerskv/metrics"
)

// KV is the Workers KV call surface. Client and mock.Client implement it.
type KV interface {
	// ListKeys returns one page of keys of a namespace.
	ListKeys(ctx context.Context, opts ListKeysOptions) (*ListKeysResponse, error)

	// ListAllKeys follows cursors until the listing is exhausted.
	ListAllKeys(ctx context.Context, opts ListAllKeysOptions) (*ListKeysResponse, error)

	// ListNamespaces returns one page of the account's namespaces.
	ListNamespaces(ctx context.Context, opts ListNamespacesOptions) (*ListNamespacesResponse, error)

	// ReadKey returns the value stored under a key.
	ReadKey(ctx context.Context, opts ReadKeyOptions) (*ReadKeyResponse, error)

	// WriteKey stores a single value.
	WriteKey(ctx context.Context, opts WriteKeyOptions) (*Response, error)

	// DeleteKey removes a single key.
	DeleteKey(ctx context.Context, opts DeleteKeyOptions) (*Response, error)

	// WriteMultipleKeys stores up to MaxMultipleKeysLength values in one request.
	WriteMultipleKeys(ctx context.Context, opts WriteMultipleKeysOptions) (*Response, error)

	// DeleteMultipleKeys removes up to MaxMultipleKeysLength keys in one request.
	DeleteMultipleKeys(ctx context.Context, opts DeleteMultipleKeysOptions) (*Response, error)

	// Close releases transport resources owned by the client.
	Close() error
}

// Operation names used as log fields and metric labels.
const (
	OpListKeys           = "list_keys"
	OpListNamespaces     = "list_namespaces"
	OpReadKey            = "read_key"
	OpWriteKey           = "write_key"
	OpDeleteKey          = "delete_key"
	OpWriteMultipleKeys  = "write_multiple_keys"
	OpDeleteMultipleKeys = "delete_multiple_keys"
)

// Config configures a Client.
type Config struct {
	// SDKConfig carries the account, host, default namespace and resolved
	// authentication headers, usually from workerskv.SDK.Config.
	SDKConfig workerskv.RuntimeConfig

	// HTTPClient sends requests. When nil, New creates one whose connection
	// pool is released by Client.Close.
	HTTPClient httpclient.Client

	// Logger receives request diagnostics. Nil disables logging.
	Logger *zap.Logger

	// Metrics records request outcomes. Nil disables metrics.
	Metrics *metrics.Metrics
}

// Client talks to the Workers KV REST API. It holds no mutable state after
// New and is safe for concurrent use.
type Client struct {
	runtime  workerskv.RuntimeConfig
	builder  builder
	http     httpclient.Client
	ownsHTTP bool
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

var _ KV = (*Client)(nil)

// New creates a Client, filling Host and BasePath defaults from the account.
func New(config Config) (*Client, error) {
	rt := config.SDKConfig
	if rt.AccountID == "" {
		return nil, workerskv.ErrAccountIDRequired
	}
	if len(rt.AuthHeaders) == 0 {
		return nil, workerskv.ErrCredentialsRequired
	}
	rt.AuthHeaders = rt.AuthHeaders.Clone()

	if rt.Host == "" {
		rt.Host = workerskv.DefaultHost
	}
	if rt.BasePath == "" {
		rt.BasePath = workerskv.BasePath(rt.AccountID)
	}

	c := &Client{
		runtime: rt,
		builder: newBuilder(rt),
		http:    config.HTTPClient,
		logger:  config.Logger,
		metrics: config.Metrics,
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}

	if c.http == nil {
		hc, err := httpclient.New(httpclient.Config{Logger: c.logger})
		if err != nil {
			return nil, fmt.Errorf("creating http client: %w", err)
		}
		c.http = hc
		c.ownsHTTP = true
	}

	return c, nil
}

// Close releases the connection pool when New created the HTTP client.
func (c *Client) Close() error {
	if !c.ownsHTTP {
		return nil
	}
	return c.http.Close()
}

// send issues one request and records its outcome.
func (c *Client) send(ctx context.Context, op string, req request) (*httpclient.Response, error) {
	hreq, err := httpclient.NewRequest(req.method, req.url(), req.body)
	if err != nil {
		return nil, err
	}
	hreq.Header = req.header

	c.logger.Debug("sending request",
		zap.String("operation", op),
		zap.String("method", req.method),
		zap.String("path", req.path),
	)

	done := c.metrics.Start(op)
	resp, err := c.http.Do(ctx, hreq)
	if err != nil {
		done(0, err)
		c.logger.Warn("request failed", zap.String("operation", op), zap.Error(err))
		return nil, err
	}
	done(resp.StatusCode, nil)

	c.logger.Debug("request completed",
		zap.String("operation", op),
		zap.Int("status", resp.StatusCode),
	)
	return resp, nil
}

// call builds, sends and decodes an operation answered with a JSON envelope.
func call[T any](ctx context.Context, c *Client, op string, req request, buildErr error) (*T, error) {
	if buildErr != nil {
		return nil, buildErr
	}

	resp, err := c.send(ctx, op, req)
	if err != nil {
		return nil, err
	}

	out := new(T)
	if err := decodeEnvelope(resp, out); err != nil {
		c.logger.Warn("invalid response",
			zap.String("operation", op),
			zap.Int("status", resp.StatusCode),
			zap.Error(err),
		)
		return nil, err
	}
	return out, nil
}

// decodeEnvelope unmarshals a JSON body into v. Recognized non-JSON bodies
// fail with workerskv.ErrResponseInvalid.
func decodeEnvelope(resp *httpclient.Response, v any) error {
	return resp.DecodeJSON(v)
}
