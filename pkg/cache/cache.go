// Package cache provides byte caching for generated assets.
//
// The pipeline caches raw generation bytes, as returned by the image
// service and before post-processing, under the asset's content fingerprint.
// A build that partially failed does not re-pay the external image service
// for assets that already generated successfully: the next run finds their
// bytes here and only re-runs the local resize and encode. Reuse decisions from the diff engine never consult
// this cache; they copy from the previous version directory.
//
// Three backends are provided: [FileCache] for CLI usage, [RedisCache] for
// shared environments, and [NullCache] to disable caching.
package cache

import (
	"context"
	"time"
)

// TTLAsset is the default time-to-live for cached asset bytes. Generated
// imagery is content-addressed by fingerprint, so a long TTL is safe.
const TTLAsset = 30 * 24 * time.Hour

// Cache stores raw bytes under string keys with per-entry TTL.
//
// Implementations must be safe for concurrent use; the pipeline's worker
// pool reads and writes from multiple goroutines.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found
	// and fresh; expired or missing entries return (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A TTL of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// AssetKey builds the cache key for an asset fingerprint.
func AssetKey(fingerprint string) string {
	return "asset:" + fingerprint
}
