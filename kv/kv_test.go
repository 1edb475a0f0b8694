package kv

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	workerskv "github.com/tarmac-project/workerskv"
	"github.com/tarmac-project/workerskv/httpclient"
	"github.com/tarmac-project/workerskv/httpclient/mock"
	"github.com/tarmac-project/workerskv/metrics"
)

const testURL = "https://api.cloudflare.com" + testBasePath

func testRuntime(namespaceID string) workerskv.RuntimeConfig {
	return workerskv.RuntimeConfig{
		AccountID:   "acct",
		NamespaceID: namespaceID,
		AuthHeaders: http.Header{"Authorization": []string{"Bearer token"}},
	}
}

func newTestClient(t *testing.T, namespaceID string) (*Client, *mock.Client) {
	t.Helper()
	hc := mock.New(mock.Config{})
	c, err := New(Config{SDKConfig: testRuntime(namespaceID), HTTPClient: hc})
	if err != nil {
		t.Fatalf("unexpected error creating client: %v", err)
	}
	return c, hc
}

func TestNew(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{name: "defaults", config: Config{SDKConfig: testRuntime("ns")}},
		{
			name:    "missing account",
			config:  Config{SDKConfig: workerskv.RuntimeConfig{AuthHeaders: testRuntime("").AuthHeaders}},
			wantErr: workerskv.ErrAccountIDRequired,
		},
		{
			name:    "missing credentials",
			config:  Config{SDKConfig: workerskv.RuntimeConfig{AccountID: "acct"}},
			wantErr: workerskv.ErrCredentialsRequired,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			c, err := New(tc.config)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if err != nil {
				return
			}
			defer func() { _ = c.Close() }()

			if c.runtime.Host != workerskv.DefaultHost {
				t.Fatalf("expected default host, got %q", c.runtime.Host)
			}
			if c.runtime.BasePath != testBasePath {
				t.Fatalf("expected base path %q, got %q", testBasePath, c.runtime.BasePath)
			}
			if !c.ownsHTTP {
				t.Fatal("expected client to own its http client")
			}
		})
	}
}

func TestNewFromSDK(t *testing.T) {
	t.Parallel()

	sdk, err := workerskv.New(workerskv.Config{AccountID: "acct", Email: "me@example.com", AuthKey: "key", NamespaceID: "ns"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hc := mock.New(mock.Config{})
	c, err := New(Config{SDKConfig: sdk.Config(), HTTPClient: hc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := c.DeleteKey(context.Background(), DeleteKeyOptions{Key: "k"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := hc.Recorded()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].Header.Get("X-Auth-Email") != "me@example.com" || calls[0].Header.Get("X-Auth-Key") != "key" {
		t.Fatalf("missing auth headers: %v", calls[0].Header)
	}
	if calls[0].Header.Get("Authorization") != "" {
		t.Fatalf("unexpected bearer header: %v", calls[0].Header)
	}
}

func TestClient_Operations(t *testing.T) {
	t.Parallel()

	const okEnvelope = `{"success":true,"errors":[],"messages":[],"result":null}`

	tt := []struct {
		name   string
		method string
		url    string
		body   string
		call   func(*Client) (bool, error)
	}{
		{
			name:   "write key",
			method: http.MethodPut,
			url:    testURL + "/ns/values/greeting?expiration=1700000000",
			body:   "hello",
			call: func(c *Client) (bool, error) {
				r, err := c.WriteKey(context.Background(), WriteKeyOptions{Key: "greeting", Value: "hello", Expiration: 1700000000})
				if err != nil {
					return false, err
				}
				return r.Success, nil
			},
		},
		{
			name:   "delete key with namespace override",
			method: http.MethodDelete,
			url:    testURL + "/other/values/greeting",
			call: func(c *Client) (bool, error) {
				r, err := c.DeleteKey(context.Background(), DeleteKeyOptions{Key: "greeting", NamespaceID: "other"})
				if err != nil {
					return false, err
				}
				return r.Success, nil
			},
		},
		{
			name:   "write multiple keys",
			method: http.MethodPut,
			url:    testURL + "/ns/bulk",
			body:   `[{"key":"a","value":"1","base64":false}]`,
			call: func(c *Client) (bool, error) {
				r, err := c.WriteMultipleKeys(context.Background(), WriteMultipleKeysOptions{
					KeyValues: []KeyValue{{Key: "a", Value: "1"}},
				})
				if err != nil {
					return false, err
				}
				return r.Success, nil
			},
		},
		{
			name:   "delete multiple keys",
			method: http.MethodDelete,
			url:    testURL + "/ns/bulk",
			body:   `["a","b"]`,
			call: func(c *Client) (bool, error) {
				r, err := c.DeleteMultipleKeys(context.Background(), DeleteMultipleKeysOptions{Keys: []string{"a", "b"}})
				if err != nil {
					return false, err
				}
				return r.Success, nil
			},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			c, hc := newTestClient(t, "ns")
			hc.On(tc.method, tc.url).Return(mock.JSON(http.StatusOK, okEnvelope))

			ok, err := tc.call(c)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !ok {
				t.Fatal("expected success")
			}

			calls := hc.Recorded()
			if len(calls) != 1 {
				t.Fatalf("expected 1 call, got %d", len(calls))
			}
			if calls[0].Method != tc.method || calls[0].URL != tc.url {
				t.Fatalf("unexpected call %s %s", calls[0].Method, calls[0].URL)
			}
			if string(calls[0].Body) != tc.body {
				t.Fatalf("expected body %q, got %q", tc.body, calls[0].Body)
			}
			if calls[0].Header.Get("Authorization") != "Bearer token" {
				t.Fatalf("missing auth header: %v", calls[0].Header)
			}
		})
	}
}

func TestClient_ListKeys(t *testing.T) {
	t.Parallel()

	c, hc := newTestClient(t, "ns")
	hc.On(http.MethodGet, testURL+"/ns/keys?limit=1000&prefix=prod_").Return(mock.JSON(http.StatusOK,
		`{"success":true,"errors":[],"messages":[],
		  "result":[{"name":"prod_a","expiration":1700000000,"metadata":{"v":1}},{"name":"prod_b"}],
		  "result_info":{"count":2,"cursor":"next"}}`))

	resp, err := c.ListKeys(context.Background(), ListKeysOptions{Prefix: "prod_"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Success || len(resp.Result) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Result[0].Name != "prod_a" || resp.Result[0].Expiration != 1700000000 || string(resp.Result[0].Metadata) != `{"v":1}` {
		t.Fatalf("unexpected first key %+v", resp.Result[0])
	}
	if resp.ResultInfo.Cursor != "next" || resp.ResultInfo.Count != 2 {
		t.Fatalf("unexpected result info %+v", resp.ResultInfo)
	}
}

func TestClient_ListNamespaces(t *testing.T) {
	t.Parallel()

	c, hc := newTestClient(t, "")
	hc.On(http.MethodGet, testURL+"?page=2&per_page=50").Return(mock.JSON(http.StatusOK,
		`{"success":true,"errors":[],"messages":[],
		  "result":[{"id":"ns1","title":"first","supports_url_encoding":true}],
		  "result_info":{"count":1,"page":2,"per_page":50,"total_count":51}}`))

	resp, err := c.ListNamespaces(context.Background(), ListNamespacesOptions{Page: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Namespace{ID: "ns1", Title: "first", SupportsURLEncoding: true}
	if len(resp.Result) != 1 || resp.Result[0] != want {
		t.Fatalf("unexpected namespaces %+v", resp.Result)
	}
	if resp.ResultInfo.TotalCount != 51 || resp.ResultInfo.Page != 2 {
		t.Fatalf("unexpected result info %+v", resp.ResultInfo)
	}
}

func TestClient_ReadKey(t *testing.T) {
	t.Parallel()

	url := testURL + "/ns/values/greeting"

	tt := []struct {
		name        string
		response    *mock.Response
		wantSuccess bool
		wantValue   string
		wantCode    int
		wantErr     error
	}{
		{
			name:        "text value",
			response:    mock.Text(http.StatusOK, "hello"),
			wantSuccess: true,
			wantValue:   "hello",
		},
		{
			name: "binary value",
			response: &mock.Response{
				StatusCode: http.StatusOK,
				Body:       []byte{0x00, 0xff},
				Header:     http.Header{"Content-Type": []string{httpclient.ContentTypeBinary}},
			},
			wantSuccess: true,
			wantValue:   "\x00\xff",
		},
		{
			name:        "json value",
			response:    mock.JSON(http.StatusOK, `{"stored":"json"}`),
			wantSuccess: true,
			wantValue:   `{"stored":"json"}`,
		},
		{
			name: "missing key envelope",
			response: mock.JSON(http.StatusNotFound,
				`{"success":false,"errors":[{"code":10009,"message":"get: 'key not found'"}],"messages":[]}`),
			wantCode: 10009,
		},
		{
			name:      "failed text body",
			response:  mock.Text(http.StatusInternalServerError, "oops"),
			wantValue: "oops",
		},
		{
			name: "unexpected content type",
			response: &mock.Response{
				StatusCode: http.StatusOK,
				Body:       []byte("<html>"),
				Header:     http.Header{"Content-Type": []string{"text/html"}},
			},
			wantErr: workerskv.ErrUnexpectedContentType,
		},
		{
			name:     "malformed envelope",
			response: mock.JSON(http.StatusBadRequest, `{"success":`),
			wantErr:  workerskv.ErrResponseInvalid,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			c, hc := newTestClient(t, "ns")
			hc.On(http.MethodGet, url).Return(tc.response)

			resp, err := c.ReadKey(context.Background(), ReadKeyOptions{Key: "greeting"})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if err != nil {
				return
			}
			if resp.Success != tc.wantSuccess {
				t.Fatalf("expected success %t, got %t", tc.wantSuccess, resp.Success)
			}
			if resp.String() != tc.wantValue {
				t.Fatalf("expected value %q, got %q", tc.wantValue, resp.String())
			}
			if tc.wantCode != 0 && (len(resp.Errors) != 1 || resp.Errors[0].Code != tc.wantCode) {
				t.Fatalf("expected error code %d, got %+v", tc.wantCode, resp.Errors)
			}
		})
	}
}

func TestClient_RemoteFailureIsData(t *testing.T) {
	t.Parallel()

	c, hc := newTestClient(t, "ns")
	hc.On(http.MethodDelete, testURL+"/ns/values/k").Return(mock.JSON(http.StatusBadRequest,
		`{"success":false,"errors":[{"code":10001,"message":"bad"}],"messages":[]}`))

	resp, err := c.DeleteKey(context.Background(), DeleteKeyOptions{Key: "k"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Success || len(resp.Errors) != 1 || resp.Errors[0].Code != 10001 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestClient_Errors(t *testing.T) {
	t.Parallel()

	t.Run("transport failure", func(t *testing.T) {
		c, hc := newTestClient(t, "ns")
		hc.On(http.MethodGet, testURL+"/ns/keys?limit=1000").ReturnError(errors.Join(workerskv.ErrTransport, io.EOF))

		_, err := c.ListKeys(context.Background(), ListKeysOptions{})
		if !errors.Is(err, workerskv.ErrTransport) || !errors.Is(err, io.EOF) {
			t.Fatalf("expected transport error, got %v", err)
		}
	})

	t.Run("text body for envelope", func(t *testing.T) {
		c, hc := newTestClient(t, "ns")
		hc.On(http.MethodPut, testURL+"/ns/values/k").Return(mock.Text(http.StatusOK, "done"))

		_, err := c.WriteKey(context.Background(), WriteKeyOptions{Key: "k", Value: "v"})
		if !errors.Is(err, workerskv.ErrResponseInvalid) {
			t.Fatalf("expected ErrResponseInvalid, got %v", err)
		}
	})

	t.Run("missing content type", func(t *testing.T) {
		c, hc := newTestClient(t, "ns")
		hc.On(http.MethodPut, testURL+"/ns/values/k").Return(&mock.Response{StatusCode: http.StatusOK, Body: []byte("{}")})

		_, err := c.WriteKey(context.Background(), WriteKeyOptions{Key: "k", Value: "v"})
		if !errors.Is(err, workerskv.ErrUnexpectedContentType) {
			t.Fatalf("expected ErrUnexpectedContentType, got %v", err)
		}
	})

	t.Run("validation happens before any request", func(t *testing.T) {
		c, hc := newTestClient(t, "")

		if _, err := c.ReadKey(context.Background(), ReadKeyOptions{Key: "k"}); !errors.Is(err, ErrNamespaceRequired) {
			t.Fatalf("expected ErrNamespaceRequired, got %v", err)
		}
		if _, err := c.ListAllKeys(context.Background(), ListAllKeysOptions{NamespaceID: "ns", Limit: 1}); !errors.Is(err, ErrInvalidLimit) {
			t.Fatalf("expected ErrInvalidLimit, got %v", err)
		}
		if _, err := c.WriteMultipleKeys(context.Background(), WriteMultipleKeysOptions{NamespaceID: "ns"}); !errors.Is(err, ErrInvalidKeyValues) {
			t.Fatalf("expected ErrInvalidKeyValues, got %v", err)
		}
		if n := len(hc.Recorded()); n != 0 {
			t.Fatalf("expected no requests, got %d", n)
		}
	})
}

func TestClient_ListAllKeys(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := metrics.New(metrics.Config{Registerer: reg})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hc := mock.New(mock.Config{})
	c, err := New(Config{SDKConfig: testRuntime("ns"), HTTPClient: hc, Metrics: m})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hc.On(http.MethodGet, testURL+"/ns/keys?limit=1000").Return(mock.JSON(http.StatusOK,
		`{"success":true,"result":[{"name":"a"},{"name":"b"}],"result_info":{"count":2,"cursor":"X"}}`))
	hc.On(http.MethodGet, testURL+"/ns/keys?limit=1000&cursor=X").Return(mock.JSON(http.StatusOK,
		`{"success":true,"result":[{"name":"c"},{"name":"d"}],"result_info":{"count":2,"cursor":""}}`))

	resp, err := c.ListAllKeys(context.Background(), ListAllKeysOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !resp.Success || resp.ResultInfo.Count != 4 || resp.ResultInfo.Cursor != "" {
		t.Fatalf("unexpected aggregate %+v", resp)
	}
	for i, want := range []string{"a", "b", "c", "d"} {
		if resp.Result[i].Name != want {
			t.Fatalf("expected key %d to be %q, got %q", i, want, resp.Result[i].Name)
		}
	}

	expected := `
# HELP workerskv_list_pages_total Total number of key list pages fetched while listing all keys
# TYPE workerskv_list_pages_total counter
workerskv_list_pages_total 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "workerskv_list_pages_total"); err != nil {
		t.Fatalf("unexpected metrics: %v", err)
	}
	n, err := testutil.GatherAndCount(reg, "workerskv_requests_total")
	if err != nil || n != 1 {
		t.Fatalf("expected one requests_total series, got %d (%v)", n, err)
	}
}

func TestClient_Close(t *testing.T) {
	t.Parallel()

	c, hc := newTestClient(t, "ns")
	if err := c.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hc.Closed {
		t.Fatal("injected http client must not be closed")
	}
}
