package kv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	workerskv "github.com/tarmac-project/workerskv"
	"github.com/tarmac-project/workerskv/httpclient"
)

// request is a fully resolved API call. path already carries the escaped
// query string.
type request struct {
	method string
	host   string
	path   string
	header http.Header
	body   []byte
}

func (r request) url() string { return "https://" + r.host + r.path }

// builder turns operation options into requests for one account.
type builder struct {
	host        string
	basePath    string
	namespaceID string
	header      http.Header
}

func newBuilder(cfg workerskv.RuntimeConfig) builder {
	return builder{
		host:        cfg.Host,
		basePath:    cfg.BasePath,
		namespaceID: cfg.NamespaceID,
		header:      cfg.AuthHeaders,
	}
}

func (b builder) newRequest(method, path string) request {
	return request{
		method: method,
		host:   b.host,
		path:   path,
		header: b.header.Clone(),
	}
}

// namespacePath resolves the namespace and joins escaped segments under it.
func (b builder) namespacePath(override string, segments ...string) (string, error) {
	ns, err := ResolveNamespaceID(b.namespaceID, override)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(b.basePath)
	sb.WriteByte('/')
	sb.WriteString(url.PathEscape(ns))
	for _, s := range segments {
		sb.WriteByte('/')
		sb.WriteString(url.PathEscape(s))
	}
	return sb.String(), nil
}

func (b builder) listKeys(opts ListKeysOptions) (request, error) {
	limit := opts.Limit
	if limit == 0 {
		limit = MaxKeysLimit
	}
	if err := CheckLimit(limit); err != nil {
		return request{}, err
	}

	path, err := b.namespacePath(opts.NamespaceID, "keys")
	if err != nil {
		return request{}, err
	}

	qs := queryString(
		intParam("limit", int64(limit)),
		param("cursor", opts.Cursor),
		param("prefix", opts.Prefix),
	)
	return b.newRequest(http.MethodGet, pathWithQuery(path, qs)), nil
}

func (b builder) listNamespaces(opts ListNamespacesOptions) (request, error) {
	page, perPage := opts.Page, opts.PerPage
	if page == 0 {
		page = DefaultPage
	}
	if perPage == 0 {
		perPage = DefaultPerPage
	}
	if page < 0 || perPage < 0 {
		return request{}, fmt.Errorf("%w: page %d, per page %d", ErrInvalidPage, page, perPage)
	}

	qs := queryString(
		intParam("page", int64(page)),
		intParam("per_page", int64(perPage)),
	)
	return b.newRequest(http.MethodGet, pathWithQuery(b.basePath, qs)), nil
}

func (b builder) readKey(opts ReadKeyOptions) (request, error) {
	if err := CheckKey(opts.Key); err != nil {
		return request{}, err
	}

	path, err := b.namespacePath(opts.NamespaceID, "values", opts.Key)
	if err != nil {
		return request{}, err
	}
	return b.newRequest(http.MethodGet, path), nil
}

func (b builder) writeKey(opts WriteKeyOptions) (request, error) {
	if err := CheckKeyValue(opts.Key, opts.Value); err != nil {
		return request{}, err
	}
	if err := CheckExpirationTTL(opts.ExpirationTTL); err != nil {
		return request{}, err
	}

	path, err := b.namespacePath(opts.NamespaceID, "values", opts.Key)
	if err != nil {
		return request{}, err
	}

	qs := queryString(
		intParam("expiration", opts.Expiration),
		intParam("expiration_ttl", opts.ExpirationTTL),
	)
	req := b.newRequest(http.MethodPut, pathWithQuery(path, qs))
	req.setBody(httpclient.ContentTypeText, []byte(opts.Value))
	return req, nil
}

func (b builder) deleteKey(opts DeleteKeyOptions) (request, error) {
	if err := CheckKey(opts.Key); err != nil {
		return request{}, err
	}

	path, err := b.namespacePath(opts.NamespaceID, "values", opts.Key)
	if err != nil {
		return request{}, err
	}
	return b.newRequest(http.MethodDelete, path), nil
}

// bulkEntry is the wire form of one bulk write item.
type bulkEntry struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Base64 bool   `json:"base64"`
}

func (b builder) writeMultipleKeys(opts WriteMultipleKeysOptions) (request, error) {
	if err := CheckKeyValues(opts.KeyValues); err != nil {
		return request{}, err
	}
	if err := CheckExpirationTTL(opts.ExpirationTTL); err != nil {
		return request{}, err
	}

	path, err := b.namespacePath(opts.NamespaceID, "bulk")
	if err != nil {
		return request{}, err
	}

	entries := make([]bulkEntry, len(opts.KeyValues))
	for i, kv := range opts.KeyValues {
		entries[i] = bulkEntry{Key: kv.Key, Value: kv.Value, Base64: opts.Base64}
	}
	body, err := encodeJSON(entries)
	if err != nil {
		return request{}, err
	}

	qs := queryString(
		intParam("expiration", opts.Expiration),
		intParam("expiration_ttl", opts.ExpirationTTL),
	)
	req := b.newRequest(http.MethodPut, pathWithQuery(path, qs))
	req.setBody(httpclient.ContentTypeJSON, body)
	return req, nil
}

func (b builder) deleteMultipleKeys(opts DeleteMultipleKeysOptions) (request, error) {
	if err := CheckKeys(opts.Keys); err != nil {
		return request{}, err
	}

	path, err := b.namespacePath(opts.NamespaceID, "bulk")
	if err != nil {
		return request{}, err
	}

	body, err := encodeJSON(opts.Keys)
	if err != nil {
		return request{}, err
	}

	req := b.newRequest(http.MethodDelete, path)
	req.setBody(httpclient.ContentTypeJSON, body)
	return req, nil
}

// setBody attaches a payload with its content type and byte length.
func (r *request) setBody(contentType string, body []byte) {
	r.body = body
	r.header.Set("Content-Type", contentType)
	r.header.Set("Content-Length", strconv.Itoa(len(body)))
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// queryParam is one optional query string entry.
type queryParam struct {
	name  string
	value string
	set   bool
}

// param is set when value is non-empty.
func param(name, value string) queryParam {
	return queryParam{name: name, value: value, set: value != ""}
}

// intParam is set when v is non-zero.
func intParam(name string, v int64) queryParam {
	return queryParam{name: name, value: strconv.FormatInt(v, 10), set: v != 0}
}

// queryString encodes the set params in the order given.
func queryString(params ...queryParam) string {
	var sb strings.Builder
	for _, p := range params {
		if !p.set {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(queryEscape(p.name))
		sb.WriteByte('=')
		sb.WriteString(queryEscape(p.value))
	}
	return sb.String()
}

// queryEscape is url.QueryEscape with spaces written as %20.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// pathWithQuery returns path unchanged when query is empty, path?query otherwise.
func pathWithQuery(path, query string) string {
	if query == "" {
		return path
	}
	return path + "?" + query
}
