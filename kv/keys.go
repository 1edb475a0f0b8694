package kv

import (
	"context"

	"go.uber.org/zap"

	"github.com/tarmac-project/workerskv/httpclient"
)

// ListKeys returns one page of keys. A zero Limit requests MaxKeysLimit keys.
func (c *Client) ListKeys(ctx context.Context, opts ListKeysOptions) (*ListKeysResponse, error) {
	req, err := c.builder.listKeys(opts)
	return call[ListKeysResponse](ctx, c, OpListKeys, req, err)
}

// ListAllKeys walks every page of the listing. See ListAll for how failed
// pages are treated.
func (c *Client) ListAllKeys(ctx context.Context, opts ListAllKeysOptions) (*ListKeysResponse, error) {
	return ListAll(ctx, countingLister{c}, opts)
}

// countingLister counts each fetched page in the client metrics.
type countingLister struct{ c *Client }

func (l countingLister) ListKeys(ctx context.Context, opts ListKeysOptions) (*ListKeysResponse, error) {
	page, err := l.c.ListKeys(ctx, opts)
	if err == nil {
		l.c.metrics.IncPages()
	}
	return page, err
}

// ReadKey fetches a value. A successful response carries the raw body in
// Value whatever its declared type. A failed JSON response is decoded into
// the envelope and returned without error; other failed bodies are returned
// in Value with Success false.
func (c *Client) ReadKey(ctx context.Context, opts ReadKeyOptions) (*ReadKeyResponse, error) {
	req, err := c.builder.readKey(opts)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, OpReadKey, req)
	if err != nil {
		return nil, err
	}

	kind, err := resp.Kind()
	if err != nil {
		c.logger.Warn("invalid response", zap.String("operation", OpReadKey), zap.Error(err))
		return nil, err
	}

	out := &ReadKeyResponse{}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		out.Success = true
		out.Value = resp.Body
	case kind == httpclient.KindJSON:
		if err := resp.DecodeJSON(&out.Envelope); err != nil {
			return nil, err
		}
	default:
		out.Value = resp.Body
	}
	return out, nil
}

// WriteKey stores a value. Expiration and ExpirationTTL are sent only when
// non-zero.
func (c *Client) WriteKey(ctx context.Context, opts WriteKeyOptions) (*Response, error) {
	req, err := c.builder.writeKey(opts)
	return call[Response](ctx, c, OpWriteKey, req, err)
}

// DeleteKey removes a key.
func (c *Client) DeleteKey(ctx context.Context, opts DeleteKeyOptions) (*Response, error) {
	req, err := c.builder.deleteKey(opts)
	return call[Response](ctx, c, OpDeleteKey, req, err)
}
