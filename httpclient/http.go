package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	workerskv "github.com/tarmac-project/workerskv"
)

// Client sends a single HTTP request and returns the buffered response.
type Client interface {
	// Do issues the request and returns the response with its body fully read.
	Do(ctx context.Context, req *Request) (*Response, error)

	// Close releases idle connections held by the client.
	Close() error
}

// Config configures the HTTP client behavior.
//
// Client lets callers share or tune an *http.Client (timeouts, proxies, TLS).
// When nil, New builds a client with a dedicated keep-alive transport that is
// released by Close. Logger receives debug output for each response; nil
// disables logging.
type Config struct {
	// Client overrides the underlying *http.Client.
	Client *http.Client
	// Logger receives response diagnostics.
	Logger *zap.Logger
}

// HTTPClient implements Client on top of net/http.
type HTTPClient struct {
	// client performs the round trips and owns the connection pool.
	client *http.Client
	// owned reports whether New created client and must release it.
	owned bool
	// logger records response metadata at debug level.
	logger *zap.Logger
}

// Ensure HTTPClient always satisfies the Client interface at compile time.
var _ Client = (*HTTPClient)(nil)

// Response represents a buffered HTTP response.
type Response struct {
	// Status is the HTTP status text (e.g., "OK").
	Status string
	// StatusCode is the numeric HTTP status code (e.g., 200).
	StatusCode int
	// Header contains response headers.
	Header http.Header
	// Body is the complete response payload. It may be empty.
	Body []byte
}

// Request represents an HTTP request to be sent by the client.
type Request struct {
	// Method is the HTTP method (e.g., GET, PUT).
	Method string
	// URL is the full request URL; Host must be non-empty.
	URL *url.URL
	// Header holds request headers. Nil is treated as empty.
	Header http.Header
	// Body is an optional request payload.
	Body []byte
}

// Kind classifies a response body by its declared content type.
type Kind int

const (
	// KindJSON is an application/json body.
	KindJSON Kind = iota + 1
	// KindText is a text/plain body.
	KindText
	// KindBinary is an application/octet-stream body.
	KindBinary
)

// Content types understood by the decoder.
const (
	ContentTypeJSON   = "application/json"
	ContentTypeText   = "text/plain"
	ContentTypeBinary = "application/octet-stream"
)

var (
	// ErrInvalidURL indicates a malformed or unsupported URL.
	ErrInvalidURL = errors.New("invalid URL provided")

	// ErrCreateRequest wraps failures while building the net/http request.
	ErrCreateRequest = errors.New("failed to create request")

	// ErrReadBody wraps failures while reading a response body stream.
	ErrReadBody = errors.New("failed to read response body")

	// ErrInvalidMethod indicates an HTTP method not permitted by NewRequest.
	ErrInvalidMethod = errors.New("invalid HTTP method")

	// ErrNilRequest indicates Do received a nil Request pointer.
	ErrNilRequest = errors.New("request is nil")
)

// New creates a new HTTP client with the provided configuration.
func New(config Config) (*HTTPClient, error) {
	hc := &HTTPClient{client: config.Client, logger: config.Logger}

	// Build a dedicated keep-alive pool if no client was provided
	if hc.client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		hc.client = &http.Client{Transport: transport}
		hc.owned = true
	}

	if hc.logger == nil {
		hc.logger = zap.NewNop()
	}

	return hc, nil
}

// Do issues the request once and buffers the response body. Network level
// failures are returned joined with workerskv.ErrTransport.
func (c *HTTPClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	// Validate the URL before building anything.
	if req.URL == nil || req.URL.Host == "" {
		return nil, ErrInvalidURL
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	hreq, err := http.NewRequestWithContext(ctx, req.Method, req.URL.String(), body)
	if err != nil {
		return nil, errors.Join(ErrCreateRequest, err)
	}

	// Copy headers
	for key, values := range req.Header {
		hreq.Header[key] = append([]string(nil), values...)
	}

	resp, err := c.client.Do(hreq)
	if err != nil {
		return nil, errors.Join(workerskv.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Join(workerskv.ErrTransport, ErrReadBody, err)
	}

	c.logger.Debug("received response",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Any("headers", resp.Header),
	)

	return &Response{
		Status:     http.StatusText(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       b,
	}, nil
}

// Close releases idle connections of a pool created by New. A caller supplied
// *http.Client is left untouched.
func (c *HTTPClient) Close() error {
	if c.owned {
		c.client.CloseIdleConnections()
	}
	return nil
}

// Kind reports how the body should be decoded based on the Content-Type
// header. Content types other than JSON, plain text and octet streams fail
// with workerskv.ErrUnexpectedContentType.
func (r *Response) Kind() (Kind, error) {
	ct := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", workerskv.ErrUnexpectedContentType, ct)
	}

	switch mediaType {
	case ContentTypeJSON:
		return KindJSON, nil
	case ContentTypeText:
		return KindText, nil
	case ContentTypeBinary:
		return KindBinary, nil
	default:
		return 0, fmt.Errorf("%w: %q", workerskv.ErrUnexpectedContentType, ct)
	}
}

// Decode is the generic decoder for callers of this package. It returns the
// body as a parsed JSON value, a string for plain text or the raw bytes for an
// octet stream.
func (r *Response) Decode() (any, error) {
	kind, err := r.Kind()
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindJSON:
		var v any
		if err := r.unmarshal(&v); err != nil {
			return nil, err
		}
		return v, nil
	case KindText:
		return string(r.Body), nil
	default:
		return r.Body, nil
	}
}

// DecodeJSON unmarshals a JSON body into v. Plain text and octet stream
// bodies fail with workerskv.ErrResponseInvalid.
func (r *Response) DecodeJSON(v any) error {
	kind, err := r.Kind()
	if err != nil {
		return err
	}
	if kind != KindJSON {
		return fmt.Errorf("%w: expected %s, got %q",
			workerskv.ErrResponseInvalid, ContentTypeJSON, r.Header.Get("Content-Type"))
	}
	return r.unmarshal(v)
}

func (r *Response) unmarshal(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return errors.Join(workerskv.ErrResponseInvalid, err)
	}
	return nil
}

// NewRequest creates a new Request object to use with the Do method.
func NewRequest(method, urlString string, body []byte) (*Request, error) {
	// Validate the HTTP method first
	if !isValidMethod(method) {
		return nil, ErrInvalidMethod
	}

	// Validate the URL
	parsedURL, err := url.Parse(urlString)
	if err != nil || parsedURL == nil || parsedURL.Host == "" {
		return nil, ErrInvalidURL
	}

	return &Request{
		Method: method,
		URL:    parsedURL,
		Header: make(http.Header),
		Body:   body,
	}, nil
}

func isValidMethod(method string) bool {
	switch method {
	case http.MethodGet,
		http.MethodHead,
		http.MethodPost,
		http.MethodPut,
		http.MethodPatch,
		http.MethodDelete,
		http.MethodConnect,
		http.MethodOptions,
		http.MethodTrace:
		return true
	default:
		return false
	}
}
