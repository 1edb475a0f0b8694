/*
Package hostmock provides a friendly pretend Workers KV host.

It's designed primarily for SDK development and advanced tests where you want
to validate exactly what a component is sending over the wire without needing
the real Cloudflare API. No real namespaces were harmed in the making of these
tests.

Why use hostmock?

  - Validate routing: ensure calls use the expected method, path and query when you set them.
  - Inspect payloads: plug in a PayloadValidator to assert request bodies.
  - Check authentication: require header values with ExpectedHeaders.
  - Script responses: return custom status codes, content types and bytes, or drop the connection.

Quick start

	m, _ := hostmock.New(hostmock.Config{
	  ExpectedMethod: http.MethodGet,
	  ExpectedPath:   "/client/v4/accounts/acct/storage/kv/namespaces/ns/values/greeting",
	  Response: func() hostmock.Response {
	    return hostmock.Response{ContentType: "text/plain", Body: []byte("hello")}
	  },
	})

	srv := httptest.NewTLSServer(m)
	defer srv.Close()

	// Point a client at srv.Listener.Addr() using srv.Client().

Behavior

  - If Fail is true and Error is set, the request fails with that error.
  - If Fail is true and Error is nil, the request fails with ErrOperationFailed.
  - Otherwise, Serve enforces the expected method, path, query and headers and
    runs PayloadValidator when provided. If everything is in order, Response
    (when set) provides the reply; otherwise an empty 200 is returned.
  - Over HTTP, failures are recorded (see Err) and the connection is dropped,
    so the client under test observes a transport error.

Tips

  - Leave fields blank when you want a wildcard; hostmock only enforces values you set.
  - Call Serve directly in table-driven tests that do not need a server.
*/
package hostmock
