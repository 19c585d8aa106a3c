// Package integrations provides the shared HTTP client used to talk to
// knowledge services.
//
// # Client
//
// [Client] wraps net/http with the conventions every service client
// follows: JSON responses, a 30 second timeout, retries with backoff for
// transient failures and a [cache.Cache] in front of every lookup:
//
//	client := integrations.NewClient(c, "scicrunch", cache.TTLQuery, nil)
//	var out Result
//	err := client.Cached(ctx, client.Key(u), false, &out, func() error {
//	    return client.Get(ctx, u, &out)
//	})
//
// # Errors
//
// Failures are reported with the sentinels [ErrNotFound], [ErrNetwork],
// [ErrUnauthorized] and [ErrDecode]; test them with errors.Is.
//
// [cache.Cache]: github.com/matzehuels/mapknowledge/pkg/cache.Cache
package integrations
