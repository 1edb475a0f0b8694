package hostmock

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
)

var (
	// ErrUnexpectedMethod is returned when the HTTP method is not as expected.
	ErrUnexpectedMethod = errors.New("unexpected method")

	// ErrUnexpectedPath is returned when the request path is not as expected.
	ErrUnexpectedPath = errors.New("unexpected path")

	// ErrUnexpectedQuery is returned when the raw query string is not as expected.
	ErrUnexpectedQuery = errors.New("unexpected query")

	// ErrUnexpectedHeader is returned when a required header is missing or differs.
	ErrUnexpectedHeader = errors.New("unexpected header")

	// ErrOperationFailed is returned when Fail is set without a custom error.
	ErrOperationFailed = errors.New("operation failed")
)

// Response is the scripted reply of the pretend host.
type Response struct {
	// StatusCode defaults to 200 when zero.
	StatusCode int

	// ContentType is written as the Content-Type header when non-empty.
	ContentType string

	// Body is the raw response payload.
	Body []byte
}

// Config represents the configuration for creating a Mock instance.
type Config struct {
	// ExpectedMethod defines the HTTP method expected in the request.
	ExpectedMethod string

	// ExpectedPath defines the escaped request path expected in the request.
	ExpectedPath string

	// ExpectedQuery defines the raw query string expected in the request.
	ExpectedQuery string

	// ExpectedHeaders lists header values the request must carry.
	ExpectedHeaders map[string]string

	// Error is the error to record if the mock is configured to fail.
	Error error

	// PayloadValidator validates the request body.
	PayloadValidator func([]byte) error

	// Response defines the response to return for the request.
	Response func() Response

	// Fail drops the connection without answering.
	Fail bool
}

// Mock simulates the Workers KV REST host with validation and configurable
// responses. It implements http.Handler.
type Mock struct {
	cfg Config

	mu    sync.Mutex
	err   error
	calls int
}

// New creates a new instance of the Mock based on the provided Config.
func New(config Config) (*Mock, error) {
	return &Mock{cfg: config}, nil
}

// Serve validates one request and returns the scripted response.
func (m *Mock) Serve(method, path, query string, header http.Header, payload []byte) (Response, error) {
	// Return user-defined error if Fail is set
	if m.cfg.Fail && m.cfg.Error != nil {
		return Response{}, m.cfg.Error
	}

	// Return default error if Fail is set but no custom error is provided
	if m.cfg.Fail {
		return Response{}, ErrOperationFailed
	}

	// Validate method
	if m.cfg.ExpectedMethod != "" && m.cfg.ExpectedMethod != method {
		return Response{}, fmt.Errorf("%w: expected method %s, got %s", ErrUnexpectedMethod, m.cfg.ExpectedMethod, method)
	}

	// Validate path
	if m.cfg.ExpectedPath != "" && m.cfg.ExpectedPath != path {
		return Response{}, fmt.Errorf("%w: expected path %s, got %s", ErrUnexpectedPath, m.cfg.ExpectedPath, path)
	}

	// Validate query
	if m.cfg.ExpectedQuery != "" && m.cfg.ExpectedQuery != query {
		return Response{}, fmt.Errorf("%w: expected query %s, got %s", ErrUnexpectedQuery, m.cfg.ExpectedQuery, query)
	}

	// Validate headers
	for name, want := range m.cfg.ExpectedHeaders {
		if got := header.Get(name); got != want {
			return Response{}, fmt.Errorf("%w: %s expected %q, got %q", ErrUnexpectedHeader, name, want, got)
		}
	}

	// Validate payload using user-defined validator, if provided
	if m.cfg.PayloadValidator != nil {
		if err := m.cfg.PayloadValidator(payload); err != nil {
			return Response{}, err
		}
	}

	// Return user-defined response if provided
	if m.cfg.Response != nil {
		return m.cfg.Response(), nil
	}

	// Default to an empty OK response
	return Response{StatusCode: http.StatusOK}, nil
}

// ServeHTTP answers with the scripted response. When validation fails or Fail
// is set, the error is recorded and the connection is dropped so the client
// observes a transport failure.
func (m *Mock) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err == nil {
		var resp Response
		resp, err = m.Serve(r.Method, r.URL.EscapedPath(), r.URL.RawQuery, r.Header, payload)
		if err == nil {
			m.record(nil)
			write(w, resp)
			return
		}
	}

	m.record(err)
	if hj, ok := w.(http.Hijacker); ok {
		if conn, _, hjErr := hj.Hijack(); hjErr == nil {
			_ = conn.Close()
			return
		}
	}
	w.WriteHeader(http.StatusInternalServerError)
}

// Err returns the last validation or failure error recorded by ServeHTTP.
func (m *Mock) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Calls returns the number of requests received by ServeHTTP.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *Mock) record(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err != nil {
		m.err = err
	}
}

func write(w http.ResponseWriter, resp Response) {
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	code := resp.StatusCode
	if code == 0 {
		code = http.StatusOK
	}
	w.WriteHeader(code)
	_, _ = w.Write(resp.Body)
}
