// Package cache implements the Cache Gateway: a uniform async key/value
// interface namespaced by owning-service identity, shared by the User
// Directory, the Policy Resolver's bindings, and the Coordinator's
// per-token policy maps.
package cache

import (
	"context"
	"time"
)

// Gateway is the async key/value interface every Palisade service uses to
// read and write its durable state. Implementations serialise values;
// callers hand in typed Go values.
//
// Palisade expresses an async future<T> contract as plain
// context.Context-bearing Go calls: the only guarantee callers need is
// that a suspension point exists and that the call can be cancelled
// cooperatively, which a blocking call under a goroutine already gives.
type Gateway interface {
	// Add writes value under (service, key), serialising it. ttl of zero
	// means no expiry. Returns false if the write was rejected (quota,
	// validation) rather than erroring.
	Add(ctx context.Context, service, key string, value any, ttl time.Duration) (bool, error)

	// Get deserialises the value stored under (service, key) into out.
	// found is false if the key is absent or has expired; it is not an
	// error.
	Get(ctx context.Context, service, key string, out any) (found bool, err error)

	// List enumerates keys under service whose name starts with prefix.
	List(ctx context.Context, service, prefix string) ([]string, error)
}
