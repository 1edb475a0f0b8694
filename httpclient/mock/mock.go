package mock

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/tarmac-project/workerskv/httpclient"
)

// successEnvelope is the body of Success and of the default response.
const successEnvelope = `{"success":true,"errors":[],"messages":[],"result":null}`

// Response is a canned reply. When Error is set it is returned instead.
type Response struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Error      error
}

// Call is one request seen by the Client.
type Call struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Config controls construction of a Client.
type Config struct {
	// DefaultResponse answers requests without a route. Nil selects Success().
	DefaultResponse *Response
}

type route struct {
	method string
	url    string
}

// Client is a scripted httpclient.Client. Routes match on method and the full
// URL string, query included. It is safe for concurrent use.
type Client struct {
	mu     sync.Mutex
	routes map[route]*Response

	// DefaultResponse answers requests without a route.
	DefaultResponse *Response

	// Calls lists the requests received, in order.
	Calls []Call

	// Closed reports whether Close was called.
	Closed bool
}

var _ httpclient.Client = (*Client)(nil)

// New creates a Client answering every request with the default response.
func New(config Config) *Client {
	def := config.DefaultResponse
	if def == nil {
		def = Success()
	}
	if def.Header == nil {
		def.Header = make(http.Header)
	}
	return &Client{
		routes:          make(map[route]*Response),
		DefaultResponse: def,
		Calls:           []Call{},
	}
}

// Success is a 200 response carrying an empty successful API envelope.
func Success() *Response { return JSON(http.StatusOK, successEnvelope) }

// Failure is a JSON API envelope with success false and one error entry.
func Failure(status, code int, message string) *Response {
	return JSON(status, fmt.Sprintf(`{"success":false,"errors":[{"code":%d,"message":%q}],"messages":[]}`, code, message))
}

// JSON is a response with an application/json body.
func JSON(status int, body string) *Response {
	return typed(status, httpclient.ContentTypeJSON, body)
}

// Text is a response with a text/plain body.
func Text(status int, body string) *Response {
	return typed(status, httpclient.ContentTypeText, body)
}

func typed(status int, contentType, body string) *Response {
	h := make(http.Header)
	h.Set("Content-Type", contentType)
	return &Response{StatusCode: status, Status: http.StatusText(status), Header: h, Body: []byte(body)}
}

// On selects the route to script for method and url.
func (c *Client) On(method, url string) *Route {
	return &Route{client: c, key: route{method: method, url: url}}
}

// Route scripts the reply of one method and URL pair.
type Route struct {
	client *Client
	key    route
}

// Return answers the route with resp.
func (r *Route) Return(resp *Response) *Client {
	if resp.Header == nil {
		resp.Header = make(http.Header)
	}
	return r.set(resp)
}

// ReturnError fails the route with err, as a transport failure would.
func (r *Route) ReturnError(err error) *Client {
	return r.set(&Response{Error: err})
}

func (r *Route) set(resp *Response) *Client {
	r.client.mu.Lock()
	defer r.client.mu.Unlock()
	r.client.routes[r.key] = resp
	return r.client
}

// Do records req and answers with its route or the default response.
func (c *Client) Do(_ context.Context, req *httpclient.Request) (*httpclient.Response, error) {
	if req == nil {
		return nil, httpclient.ErrNilRequest
	}
	if req.URL == nil {
		return nil, httpclient.ErrInvalidURL
	}
	u := req.URL.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.Calls = append(c.Calls, Call{
		Method: req.Method,
		URL:    u,
		Header: req.Header.Clone(),
		Body:   append([]byte(nil), req.Body...),
	})

	resp, ok := c.routes[route{method: req.Method, url: u}]
	if !ok {
		resp = c.DefaultResponse
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	return &httpclient.Response{
		Status:     resp.Status,
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       append([]byte(nil), resp.Body...),
	}, nil
}

// Close marks the client closed.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
	return nil
}

// Recorded returns a copy of Calls.
func (c *Client) Recorded() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.Calls...)
}
