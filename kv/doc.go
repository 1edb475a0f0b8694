/*
Package kv is a client for the Cloudflare Workers KV REST API.

A Client binds an account, its authentication headers and an optional default
namespace once, then exposes the listing, read, write and delete operations of
the API. Every operation validates its input before any request is sent;
validation failures wrap workerskv.ErrValidation.

	sdk, err := workerskv.New(workerskv.Config{
		AccountID:   "account",
		AuthToken:   os.Getenv("CLOUDFLARE_AUTH_TOKEN"),
		NamespaceID: "namespace",
	})
	if err != nil {
		return err
	}

	client, err := kv.New(kv.Config{SDKConfig: sdk.Config()})
	if err != nil {
		return err
	}
	defer client.Close()

	_, err = client.WriteKey(ctx, kv.WriteKeyOptions{Key: "greeting", Value: "hello"})

Responses with success set to false are returned as data, not as errors.
Network failures wrap workerskv.ErrTransport and responses with an undeclared
content type fail with workerskv.ErrUnexpectedContentType.

ListAllKeys follows cursors until the listing is exhausted. Pages reporting a
failure are skipped while their cursor is still followed, so the aggregate
cannot tell an empty namespace from a failed page.
*/
package kv
