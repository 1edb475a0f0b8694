package kv

import (
	"context"
	"sort"
)

// KeyValuesFromMap converts a map into key values sorted by key.
func KeyValuesFromMap(m map[string]string) []KeyValue {
	kvs := make([]KeyValue, 0, len(m))
	for k, v := range m {
		kvs = append(kvs, KeyValue{Key: k, Value: v})
	}
	sort.Slice(kvs, func(i, j int) bool { return kvs[i].Key < kvs[j].Key })
	return kvs
}

// WriteMultipleKeys stores every entry of opts.KeyValues in one request. The
// body lists entries in the order given.
func (c *Client) WriteMultipleKeys(ctx context.Context, opts WriteMultipleKeysOptions) (*Response, error) {
	req, err := c.builder.writeMultipleKeys(opts)
	return call[Response](ctx, c, OpWriteMultipleKeys, req, err)
}

// DeleteMultipleKeys removes every key of opts.Keys in one request.
func (c *Client) DeleteMultipleKeys(ctx context.Context, opts DeleteMultipleKeysOptions) (*Response, error) {
	req, err := c.builder.deleteMultipleKeys(opts)
	return call[Response](ctx, c, OpDeleteMultipleKeys, req, err)
}
