/*
Package logging builds zap root loggers for applications using the Workers KV
client.

Clients accept any *zap.Logger and default to a no-op logger. New is a
convenience for programs that want the same encoder setup everywhere: JSON,
console or logfmt output, UTC microsecond timestamps and an "lvl" level key.
*/
package logging
