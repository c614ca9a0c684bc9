// Package pkg provides the core libraries for the slidesmith presentation
// builder.
//
// # Overview
//
// Slidesmith turns a declarative presentation schema into a versioned
// directory of rendered visual assets plus a deployable slide runtime.
// The pkg directory is organized into:
//
//  1. [schema] - Presentation schema model, validation, asset derivation
//  2. [manifest] - Content fingerprints, build manifests, the asset diff engine
//  3. [genimage] - Generation client for the external image service (retry state machine)
//  4. [postprocess] - Resize/re-encode of raw generated bytes
//  5. [version] - Version resolution, version directory writer, current pointer
//  6. [pipeline] - Build orchestration (diff → generate → post-process → write)
//  7. [cache] - Byte cache for generated assets (file, redis, null backends)
//
// # Architecture
//
// The data flow of one build:
//
//	presentation schema (JSON)
//	         ↓
//	    [schema] package (validate, derive AssetSpecs)
//	         ↓
//	    [version] resolver + [manifest] diff (reuse vs regenerate)
//	         ↓
//	    [genimage] + [postprocess] (worker pool, regenerated assets only)
//	         ↓
//	    [version] writer (assets, runtime JSON, manifest, atomic activation)
//
// # Durable state
//
// Each build materializes an immutable version directory v1, v2, ... under
// build/<short-name>/. The "current" symlink is repointed atomically and only
// after every asset resolved; a partially failed build leaves the previous
// version active.
//
// [schema]: https://pkg.go.dev/github.com/slidesmith/slidesmith/pkg/schema
// [manifest]: https://pkg.go.dev/github.com/slidesmith/slidesmith/pkg/manifest
// [genimage]: https://pkg.go.dev/github.com/slidesmith/slidesmith/pkg/genimage
// [postprocess]: https://pkg.go.dev/github.com/slidesmith/slidesmith/pkg/postprocess
// [version]: https://pkg.go.dev/github.com/slidesmith/slidesmith/pkg/version
// [pipeline]: https://pkg.go.dev/github.com/slidesmith/slidesmith/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/slidesmith/slidesmith/pkg/cache
package pkg
