package kv

import "context"

// ListNamespaces returns one page of namespaces. Zero Page and PerPage select
// DefaultPage and DefaultPerPage.
func (c *Client) ListNamespaces(ctx context.Context, opts ListNamespacesOptions) (*ListNamespacesResponse, error) {
	req, err := c.builder.listNamespaces(opts)
	return call[ListNamespacesResponse](ctx, c, OpListNamespaces, req, err)
}
