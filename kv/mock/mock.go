package mock

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tarmac-project/workerskv/kv"
)

// Service error codes reproduced by the mock.
const (
	CodeBadRequest        = 10001
	CodeKeyNotFound       = 10009
	CodeNamespaceNotFound = 10013
)

// Config configures the mock client.
type Config struct {
	// Namespaces seeds the store, keyed by namespace id then key.
	Namespaces map[string]map[string]string

	// Titles names seeded namespaces. Unnamed namespaces use their id.
	Titles map[string]string

	// DefaultNamespace is used when an operation does not name one.
	DefaultNamespace string

	// Now returns the current time for expirations. Defaults to time.Now.
	Now func() time.Time
}

// Response overrides the outcome of an operation.
type Response struct {
	// Envelope, when set, is returned as the operation's status.
	Envelope *kv.Envelope
	// Err indicates an error to return for the operation.
	Err error
}

// ResponseBuilder allows fluent configuration of responses.
type ResponseBuilder struct {
	m  *Client
	op string
}

// ReturnEnvelope makes the operation answer with env instead of touching the store.
func (b *ResponseBuilder) ReturnEnvelope(env kv.Envelope) *Client {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()
	b.m.responses[b.op] = Response{Envelope: &env}
	return b.m
}

// ReturnError makes the operation fail with err.
func (b *ResponseBuilder) ReturnError(err error) *Client {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()
	b.m.responses[b.op] = Response{Err: err}
	return b.m
}

// Call records an operation performed against the mock.
type Call struct {
	Op          string
	NamespaceID string
	Key         string
	Keys        []string
	Cursor      string
}

type entry struct {
	value      string
	expiration int64
}

type namespace struct {
	title   string
	entries map[string]entry
}

// Client implements kv.KV in memory. It is safe for concurrent use.
type Client struct {
	mu         sync.Mutex
	namespaces map[string]*namespace
	defaultNS  string
	responses  map[string]Response
	now        func() time.Time

	// Calls stores a history of operations for assertions.
	Calls []Call
}

var _ kv.KV = (*Client)(nil)

// New creates a new mock KV client.
func New(cfg Config) *Client {
	m := &Client{
		namespaces: make(map[string]*namespace, len(cfg.Namespaces)),
		defaultNS:  cfg.DefaultNamespace,
		responses:  make(map[string]Response),
		now:        cfg.Now,
		Calls:      []Call{},
	}
	if m.now == nil {
		m.now = time.Now
	}

	for id, values := range cfg.Namespaces {
		ns := &namespace{title: id, entries: make(map[string]entry, len(values))}
		if t, ok := cfg.Titles[id]; ok {
			ns.title = t
		}
		for k, v := range values {
			ns.entries[k] = entry{value: v}
		}
		m.namespaces[id] = ns
	}
	return m
}

// On configures the outcome of an operation named by one of the kv.Op constants.
func (m *Client) On(op string) *ResponseBuilder { return &ResponseBuilder{m: m, op: op} }

// Recorded returns a copy of the calls observed so far.
func (m *Client) Recorded() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.Calls...)
}

// ListKeys implements kv.KV. Keys are returned in lexical order and the
// cursor encodes the last key of the page.
func (m *Client) ListKeys(_ context.Context, opts kv.ListKeysOptions) (*kv.ListKeysResponse, error) {
	limit := opts.Limit
	if limit == 0 {
		limit = kv.MaxKeysLimit
	}
	if err := kv.CheckLimit(limit); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ns, env, err := m.begin(kv.OpListKeys, opts.NamespaceID, Call{Cursor: opts.Cursor})
	if err != nil {
		return nil, err
	}
	if env != nil {
		return &kv.ListKeysResponse{Envelope: *env, Result: []kv.Key{}}, nil
	}

	after := ""
	if opts.Cursor != "" {
		b, err := base64.RawURLEncoding.DecodeString(opts.Cursor)
		if err != nil {
			return &kv.ListKeysResponse{Envelope: failure(CodeBadRequest, "invalid cursor"), Result: []kv.Key{}}, nil
		}
		after = string(b)
	}

	names := m.liveKeys(ns, opts.Prefix)
	start := sort.SearchStrings(names, after)
	if start < len(names) && names[start] == after {
		start++
	}
	end := min(start+limit, len(names))

	keys := make([]kv.Key, 0, end-start)
	for _, name := range names[start:end] {
		keys = append(keys, kv.Key{Name: name, Expiration: ns.entries[name].expiration})
	}

	info := kv.ResultInfo{Count: len(keys)}
	if end < len(names) {
		info.Cursor = base64.RawURLEncoding.EncodeToString([]byte(names[end-1]))
	}
	return &kv.ListKeysResponse{Envelope: success(), Result: keys, ResultInfo: info}, nil
}

// ListAllKeys implements kv.KV on top of ListKeys.
func (m *Client) ListAllKeys(ctx context.Context, opts kv.ListAllKeysOptions) (*kv.ListKeysResponse, error) {
	return kv.ListAll(ctx, m, opts)
}

// ListNamespaces implements kv.KV. Namespaces are ordered by id.
func (m *Client) ListNamespaces(_ context.Context, opts kv.ListNamespacesOptions) (*kv.ListNamespacesResponse, error) {
	page, perPage := opts.Page, opts.PerPage
	if page == 0 {
		page = kv.DefaultPage
	}
	if perPage == 0 {
		perPage = kv.DefaultPerPage
	}
	if page < 0 || perPage < 0 {
		return nil, kv.ErrInvalidPage
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, Call{Op: kv.OpListNamespaces})
	if r, ok := m.responses[kv.OpListNamespaces]; ok {
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Envelope != nil {
			return &kv.ListNamespacesResponse{Envelope: *r.Envelope, Result: []kv.Namespace{}}, nil
		}
	}

	ids := make([]string, 0, len(m.namespaces))
	for id := range m.namespaces {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	start := min((page-1)*perPage, len(ids))
	end := min(start+perPage, len(ids))
	result := make([]kv.Namespace, 0, end-start)
	for _, id := range ids[start:end] {
		result = append(result, kv.Namespace{ID: id, Title: m.namespaces[id].title, SupportsURLEncoding: true})
	}

	return &kv.ListNamespacesResponse{
		Envelope: success(),
		Result:   result,
		ResultInfo: kv.ResultInfo{
			Count:      len(result),
			Page:       page,
			PerPage:    perPage,
			TotalCount: len(ids),
		},
	}, nil
}

// ReadKey implements kv.KV. Missing or expired keys answer with a failed
// envelope carrying CodeKeyNotFound.
func (m *Client) ReadKey(_ context.Context, opts kv.ReadKeyOptions) (*kv.ReadKeyResponse, error) {
	if err := kv.CheckKey(opts.Key); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ns, env, err := m.begin(kv.OpReadKey, opts.NamespaceID, Call{Key: opts.Key})
	if err != nil {
		return nil, err
	}
	if env != nil {
		return &kv.ReadKeyResponse{Envelope: *env}, nil
	}

	e, ok := ns.entries[opts.Key]
	if !ok || m.expired(e) {
		return &kv.ReadKeyResponse{Envelope: failure(CodeKeyNotFound, "get: 'key not found'")}, nil
	}
	return &kv.ReadKeyResponse{Envelope: success(), Value: []byte(e.value)}, nil
}

// WriteKey implements kv.KV.
func (m *Client) WriteKey(_ context.Context, opts kv.WriteKeyOptions) (*kv.Response, error) {
	if err := kv.CheckKeyValue(opts.Key, opts.Value); err != nil {
		return nil, err
	}
	if err := kv.CheckExpirationTTL(opts.ExpirationTTL); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ns, env, err := m.begin(kv.OpWriteKey, opts.NamespaceID, Call{Key: opts.Key})
	if err != nil {
		return nil, err
	}
	if env != nil {
		return &kv.Response{Envelope: *env}, nil
	}

	ns.entries[opts.Key] = entry{value: opts.Value, expiration: m.expiry(opts.Expiration, opts.ExpirationTTL)}
	return &kv.Response{Envelope: success()}, nil
}

// DeleteKey implements kv.KV. Deleting a missing key succeeds.
func (m *Client) DeleteKey(_ context.Context, opts kv.DeleteKeyOptions) (*kv.Response, error) {
	if err := kv.CheckKey(opts.Key); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ns, env, err := m.begin(kv.OpDeleteKey, opts.NamespaceID, Call{Key: opts.Key})
	if err != nil {
		return nil, err
	}
	if env != nil {
		return &kv.Response{Envelope: *env}, nil
	}

	delete(ns.entries, opts.Key)
	return &kv.Response{Envelope: success()}, nil
}

// WriteMultipleKeys implements kv.KV. Base64 values are decoded before
// being stored.
func (m *Client) WriteMultipleKeys(_ context.Context, opts kv.WriteMultipleKeysOptions) (*kv.Response, error) {
	if err := kv.CheckKeyValues(opts.KeyValues); err != nil {
		return nil, err
	}
	if err := kv.CheckExpirationTTL(opts.ExpirationTTL); err != nil {
		return nil, err
	}

	keys := make([]string, len(opts.KeyValues))
	for i, e := range opts.KeyValues {
		keys[i] = e.Key
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ns, env, err := m.begin(kv.OpWriteMultipleKeys, opts.NamespaceID, Call{Keys: keys})
	if err != nil {
		return nil, err
	}
	if env != nil {
		return &kv.Response{Envelope: *env}, nil
	}

	values := make([]string, len(opts.KeyValues))
	for i, e := range opts.KeyValues {
		values[i] = e.Value
		if opts.Base64 {
			b, err := base64.StdEncoding.DecodeString(e.Value)
			if err != nil {
				return &kv.Response{Envelope: failure(CodeBadRequest, fmt.Sprintf("invalid base64 value for key %q", e.Key))}, nil
			}
			values[i] = string(b)
		}
	}

	exp := m.expiry(opts.Expiration, opts.ExpirationTTL)
	for i, k := range keys {
		ns.entries[k] = entry{value: values[i], expiration: exp}
	}
	return &kv.Response{Envelope: success()}, nil
}

// DeleteMultipleKeys implements kv.KV.
func (m *Client) DeleteMultipleKeys(_ context.Context, opts kv.DeleteMultipleKeysOptions) (*kv.Response, error) {
	if err := kv.CheckKeys(opts.Keys); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ns, env, err := m.begin(kv.OpDeleteMultipleKeys, opts.NamespaceID, Call{Keys: append([]string(nil), opts.Keys...)})
	if err != nil {
		return nil, err
	}
	if env != nil {
		return &kv.Response{Envelope: *env}, nil
	}

	for _, k := range opts.Keys {
		delete(ns.entries, k)
	}
	return &kv.Response{Envelope: success()}, nil
}

// Close implements kv.KV.
func (m *Client) Close() error { return nil }

// begin records the call, applies overrides and resolves the namespace. A
// non-nil envelope ends the operation with that status. Callers hold m.mu.
func (m *Client) begin(op, override string, c Call) (*namespace, *kv.Envelope, error) {
	id, err := kv.ResolveNamespaceID(m.defaultNS, override)
	if err != nil {
		return nil, nil, err
	}

	c.Op = op
	c.NamespaceID = id
	m.Calls = append(m.Calls, c)

	if r, ok := m.responses[op]; ok {
		if r.Err != nil {
			return nil, nil, r.Err
		}
		if r.Envelope != nil {
			return nil, r.Envelope, nil
		}
	}

	ns, ok := m.namespaces[id]
	if !ok {
		env := failure(CodeNamespaceNotFound, "namespace not found")
		return nil, &env, nil
	}
	return ns, nil, nil
}

// liveKeys returns the sorted unexpired keys starting with prefix.
func (m *Client) liveKeys(ns *namespace, prefix string) []string {
	names := make([]string, 0, len(ns.entries))
	for k, e := range ns.entries {
		if strings.HasPrefix(k, prefix) && !m.expired(e) {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

func (m *Client) expired(e entry) bool {
	return e.expiration != 0 && e.expiration <= m.now().Unix()
}

func (m *Client) expiry(expiration, ttl int64) int64 {
	if ttl != 0 {
		return m.now().Unix() + ttl
	}
	return expiration
}

func success() kv.Envelope {
	return kv.Envelope{Success: true, Errors: []kv.Message{}, Messages: []kv.Message{}}
}

func failure(code int, msg string) kv.Envelope {
	return kv.Envelope{Success: false, Errors: []kv.Message{{Code: code, Message: msg}}, Messages: []kv.Message{}}
}
