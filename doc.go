/*
Package workerskv provides the shared runtime configuration for clients of the
Cloudflare Workers KV REST API.

New validates the account and credentials once and produces a RuntimeConfig
snapshot that capability clients (see the kv package) bind to. The snapshot
carries the resolved authentication headers, the API host, the account scoped
base path and an optional default namespace.

Errors are sentinel values. Validation failures wrap ErrValidation, network
failures wrap ErrTransport and responses with an undeclared content type wrap
ErrUnexpectedContentType; all can be checked with errors.Is.
*/
package workerskv
