/*
Package mock provides an in-memory implementation of kv.KV for testing code
that uses Workers KV without reaching the API.

Namespaces are seeded through Config and behave like the service: keys list in
lexical order with an opaque cursor, expirations hide keys once passed, and
missing keys or namespaces answer with failed envelopes rather than errors.
Input validation is shared with kv.Client.

	m := mock.New(mock.Config{
		DefaultNamespace: "ns",
		Namespaces:       map[string]map[string]string{"ns": {"a": "1"}},
	})
	resp, err := m.ReadKey(ctx, kv.ReadKeyOptions{Key: "a"})

Override an operation with one of the kv.Op constants:

	m.On(kv.OpWriteKey).ReturnError(errors.New("reject write"))
	m.On(kv.OpListKeys).ReturnEnvelope(kv.Envelope{Success: false})

Every call is recorded in Calls, also available as a copy via Recorded.
*/
package mock
