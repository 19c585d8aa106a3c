package cache

import "errors"

// Sentinel errors for cache construction.
var (
	// ErrUnknownBackend is returned by [Open] for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown cache backend")

	// ErrNoAddr is returned when a Redis cache is requested without an address.
	ErrNoAddr = errors.New("redis address not configured")
)
