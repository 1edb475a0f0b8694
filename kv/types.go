package kv

import "encoding/json"

// ListKeysOptions configures a single page of a key listing.
type ListKeysOptions struct {
	// NamespaceID overrides the client's default namespace.
	NamespaceID string
	// Limit is the page size, between MinKeysLimit and MaxKeysLimit. Zero means MaxKeysLimit.
	Limit int
	// Cursor continues a previous listing. Empty starts from the beginning.
	Cursor string
	// Prefix restricts the listing to keys starting with it.
	Prefix string
}

// ListAllKeysOptions configures a listing that follows cursors to exhaustion.
type ListAllKeysOptions struct {
	NamespaceID string
	Prefix      string
	// Limit is the page size used for each request. Zero means MaxKeysLimit.
	Limit int
}

// ListNamespacesOptions selects a page of namespaces.
type ListNamespacesOptions struct {
	// Page is 1-based. Zero means DefaultPage.
	Page int
	// PerPage is the page size. Zero means DefaultPerPage.
	PerPage int
}

// ReadKeyOptions identifies the key to read.
type ReadKeyOptions struct {
	Key         string
	NamespaceID string
}

// WriteKeyOptions describes a single value write.
type WriteKeyOptions struct {
	Key         string
	Value       string
	NamespaceID string
	// Expiration is an absolute expiry in seconds since the epoch. Zero omits it.
	Expiration int64
	// ExpirationTTL is a relative expiry in seconds. Zero omits it.
	ExpirationTTL int64
}

// DeleteKeyOptions identifies the key to delete.
type DeleteKeyOptions struct {
	Key         string
	NamespaceID string
}

// KeyValue is one entry of a bulk write.
type KeyValue struct {
	Key   string
	Value string
}

// WriteMultipleKeysOptions describes a bulk write. KeyValues order is kept in
// the request body.
type WriteMultipleKeysOptions struct {
	KeyValues     []KeyValue
	NamespaceID   string
	Expiration    int64
	ExpirationTTL int64
	// Base64 declares every value as base64 encoded binary data.
	Base64 bool
}

// DeleteMultipleKeysOptions identifies the keys of a bulk delete.
type DeleteMultipleKeysOptions struct {
	Keys        []string
	NamespaceID string
}

// Message is an error or informational entry of an API envelope.
type Message struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Envelope holds the status fields shared by every API response.
type Envelope struct {
	Success  bool      `json:"success"`
	Errors   []Message `json:"errors"`
	Messages []Message `json:"messages"`
}

// ResultInfo carries pagination details.
type ResultInfo struct {
	Cursor     string `json:"cursor,omitempty"`
	Count      int    `json:"count"`
	Page       int    `json:"page,omitempty"`
	PerPage    int    `json:"per_page,omitempty"`
	TotalCount int    `json:"total_count,omitempty"`
}

// Response is the envelope returned by write and delete operations.
type Response struct {
	Envelope
	Result json.RawMessage `json:"result,omitempty"`
}

// Key describes one listed key.
type Key struct {
	Name       string          `json:"name"`
	Expiration int64           `json:"expiration,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

// ListKeysResponse is one page of keys, or the aggregate built by ListAll.
type ListKeysResponse struct {
	Envelope
	Result     []Key      `json:"result"`
	ResultInfo ResultInfo `json:"result_info"`
}

// Namespace describes one namespace of the account.
type Namespace struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	SupportsURLEncoding bool   `json:"supports_url_encoding,omitempty"`
}

// ListNamespacesResponse is one page of namespaces.
type ListNamespacesResponse struct {
	Envelope
	Result     []Namespace `json:"result"`
	ResultInfo ResultInfo  `json:"result_info"`
}

// ReadKeyResponse holds a value read. When the service answers with a JSON
// envelope instead of the value (for example a missing key), Value is nil and
// the envelope fields describe the failure.
type ReadKeyResponse struct {
	Envelope
	Value []byte `json:"-"`
}

// String returns the value as a string.
func (r *ReadKeyResponse) String() string { return string(r.Value) }
