// Package httpcache caches upstream HTTP responses for the content providers.
//
// The cache lives in the transport: providers tag each request with a TTL via
// WithTTL and the Transport stores successful responses under a key derived
// from the exact request (method, URL, Accept header, and for POST the body),
// so different users, files or GraphQL variables never share an entry.
package httpcache

import (
	"context"
	"time"
)

// TTLs assigned by the providers.
const (
	TTLRepoMeta = 24 * time.Hour   // repository metadata such as the default branch
	TTLContent  = 10 * time.Minute // trees, blobs, commit history
	TTLUser     = time.Hour        // owner profile
	TTLSearch   = 60 * time.Second // repository search
)

// Store persists serialized responses.
type Store interface {
	// Get returns the value for key. found is false for missing or expired keys.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type ttlKey struct{}

// WithTTL marks requests made with ctx as cacheable for d.
func WithTTL(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, ttlKey{}, d)
}

// TTLFrom returns the TTL attached to ctx, if any.
func TTLFrom(ctx context.Context) (time.Duration, bool) {
	d, ok := ctx.Value(ttlKey{}).(time.Duration)
	return d, ok && d > 0
}
