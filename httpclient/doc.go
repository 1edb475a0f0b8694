/*
Package httpclient provides the transport used by the Workers KV client.

A Client sends exactly one request per call, buffers the full response body and
leaves retries, timeouts and redirects to the underlying net/http client.
Response.Kind and Response.Decode apply the content type policy: JSON is
parsed, plain text is returned as a string, octet streams as raw bytes, and
anything else fails with workerskv.ErrUnexpectedContentType.

The keep-alive connection pool belongs to the HTTPClient returned by New and
is released with Close.
*/
package httpclient
