package kv

import "context"

// Lister fetches a single page of keys.
type Lister interface {
	ListKeys(ctx context.Context, opts ListKeysOptions) (*ListKeysResponse, error)
}

// ListAll requests pages sequentially, following result_info.cursor until a
// page returns an empty cursor, and concatenates the keys in order.
//
// Only pages reporting success contribute keys, yet the cursor of a failed
// page is still followed. The aggregate always reports success with the total
// count, so a page that failed is indistinguishable from an empty one. Errors
// returned by the Lister stop the walk and are returned as is.
func ListAll(ctx context.Context, l Lister, opts ListAllKeysOptions) (*ListKeysResponse, error) {
	limit := opts.Limit
	if limit == 0 {
		limit = MaxKeysLimit
	}
	if err := CheckLimit(limit); err != nil {
		return nil, err
	}

	keys := []Key{}
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := l.ListKeys(ctx, ListKeysOptions{
			NamespaceID: opts.NamespaceID,
			Limit:       limit,
			Cursor:      cursor,
			Prefix:      opts.Prefix,
		})
		if err != nil {
			return nil, err
		}

		if page.Success {
			keys = append(keys, page.Result...)
		}

		cursor = page.ResultInfo.Cursor
		if cursor == "" {
			break
		}
	}

	return &ListKeysResponse{
		Envelope:   Envelope{Success: true, Errors: []Message{}, Messages: []Message{}},
		Result:     keys,
		ResultInfo: ResultInfo{Count: len(keys)},
	}, nil
}
