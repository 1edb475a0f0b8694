/*
Package metrics provides Prometheus collectors for the Workers KV client.

New registers a request counter labelled by operation and status code, a
latency histogram, an in-flight gauge and a counter of pages fetched while
listing all keys. Recording is best-effort and never returns errors; a nil
*Metrics records nothing, so clients can treat metrics as optional.
*/
package metrics
