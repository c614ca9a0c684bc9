// Package observability provides hooks for metrics, tracing, and logging.
//
// The hooks pattern keeps the build pipeline free of hard dependencies on
// any observability backend: no-op defaults are registered, and main can
// swap in implementations backed by whatever the deployment uses.
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetBuildHooks(&myBuildHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Build().OnAssetStart(ctx, filename, action)
//	// ... generate or copy ...
//	observability.Build().OnAssetComplete(ctx, filename, action, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// BuildHooks receives events from the build pipeline.
type BuildHooks interface {
	// OnBuildStart fires when a build begins, after diffing has decided how
	// many assets will be reused vs regenerated.
	OnBuildStart(ctx context.Context, runID string, version, reuse, regenerate int)

	// OnAssetStart fires when work on one asset begins. action is "reuse" or
	// "regenerate".
	OnAssetStart(ctx context.Context, filename, action string)

	// OnAssetComplete fires when work on one asset ends.
	OnAssetComplete(ctx context.Context, filename, action string, duration time.Duration, err error)

	// OnBuildComplete fires after the version directory is written. failed
	// carries the filenames of assets that could not be produced.
	OnBuildComplete(ctx context.Context, runID string, version int, duration time.Duration, failed []string)
}

// CacheHooks receives events from generation-cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// NoopBuildHooks is a no-op implementation of BuildHooks.
type NoopBuildHooks struct{}

func (NoopBuildHooks) OnBuildStart(context.Context, string, int, int, int)                    {}
func (NoopBuildHooks) OnAssetStart(context.Context, string, string)                           {}
func (NoopBuildHooks) OnAssetComplete(context.Context, string, string, time.Duration, error)  {}
func (NoopBuildHooks) OnBuildComplete(context.Context, string, int, time.Duration, []string)  {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

var (
	buildHooks BuildHooks = NoopBuildHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	hooksMu    sync.RWMutex
)

// SetBuildHooks registers custom build hooks.
// Call once at application startup before any build runs.
func SetBuildHooks(h BuildHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		buildHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// Call once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Build returns the registered build hooks.
func Build() BuildHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return buildHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	buildHooks = NoopBuildHooks{}
	cacheHooks = NoopCacheHooks{}
}
