// Package pipeline orchestrates a full build: resolve the next version,
// diff against the previous manifest, produce assets through a bounded
// worker pool, write the version directory, and activate it when every
// asset succeeded.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/slidesmith/slidesmith/pkg/cache"
	"github.com/slidesmith/slidesmith/pkg/errors"
	"github.com/slidesmith/slidesmith/pkg/genimage"
	"github.com/slidesmith/slidesmith/pkg/manifest"
	"github.com/slidesmith/slidesmith/pkg/observability"
	"github.com/slidesmith/slidesmith/pkg/postprocess"
	"github.com/slidesmith/slidesmith/pkg/schema"
	"github.com/slidesmith/slidesmith/pkg/version"
)

// DefaultWorkers bounds concurrent generation requests.
const DefaultWorkers = 3

// Options configures a Runner.
type Options struct {
	// BuildRoot is the directory holding this presentation's versions.
	BuildRoot string

	// Generator produces raw image bytes. The runner wraps it with the
	// retry policy; pass an unwrapped client.
	Generator genimage.Generator

	// Workers is the generation concurrency. Zero means DefaultWorkers.
	Workers int

	// Cache holds raw generated bytes keyed by fingerprint, so an asset
	// paid for in a failed build is not paid for again. Nil disables it.
	Cache cache.Cache

	// RendererHTML is written into the version directory as index.html.
	RendererHTML []byte

	// Sleep overrides the retry delay; tests inject a stub.
	Sleep genimage.SleepFunc

	// Logger receives build progress. Nil discards.
	Logger *log.Logger

	// Now overrides the clock for version.json timestamps.
	Now func() time.Time
}

// AssetFailure names one asset that could not be produced and why.
type AssetFailure struct {
	Filename string
	Err      error
}

// Stats summarizes what a build did per asset.
type Stats struct {
	Total       int
	Reused      int
	Regenerated int
	Failed      int
}

// Result describes a finished build.
type Result struct {
	RunID     string
	Version   int
	Dir       string
	Activated bool
	Stats     Stats
	Failures  []AssetFailure
}

// Runner executes builds. Construct with New; zero value is not usable.
type Runner struct {
	opts   Options
	logger *log.Logger
}

// New validates options and returns a Runner.
func New(opts Options) (*Runner, error) {
	if opts.BuildRoot == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "build root is required")
	}
	if opts.Generator == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "generator is required")
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{opts: opts, logger: logger}, nil
}

// Run builds the next version for the schema. On partial failure the version
// directory is still written for inspection, the `current` pointer is left
// untouched, and the returned error names every failed asset; the Result is
// returned alongside it.
func (r *Runner) Run(ctx context.Context, s *schema.Schema) (*Result, error) {
	start := r.opts.Now()
	runID := uuid.NewString()
	logger := r.logger.With("run", runID[:8], "deck", s.Meta.ShortName)

	specs, err := s.AssetSpecs()
	if err != nil {
		return nil, err
	}

	next, prevDir, err := version.Resolve(r.opts.BuildRoot)
	if err != nil {
		return nil, err
	}

	var prev manifest.Manifest
	prevAssetsDir := ""
	if prevDir != "" {
		if prev, err = manifest.Load(prevDir); err != nil {
			return nil, err
		}
		prevAssetsDir = filepath.Join(prevDir, version.AssetsDirName)
	}

	decisions := manifest.Diff(specs, prev, prevAssetsDir)

	reuse, regen := splitDecisions(decisions)
	logger.Info("build plan", "version", next, "reuse", len(reuse), "regenerate", len(regen))
	observability.Build().OnBuildStart(ctx, runID, next, len(reuse), len(regen))

	assets := make([]version.Asset, 0, len(decisions))
	for _, d := range reuse {
		observability.Build().OnAssetStart(ctx, d.Spec.Filename, d.Action.String())
		assets = append(assets, version.Asset{Filename: d.Spec.Filename, SourcePath: d.SourcePath})
		observability.Build().OnAssetComplete(ctx, d.Spec.Filename, d.Action.String(), 0, nil)
	}

	produced, failures := r.produce(ctx, logger, regen)
	assets = append(assets, produced...)

	// The manifest records only assets actually present in this version.
	m := manifest.Manifest{}
	failedSet := make(map[string]bool, len(failures))
	for _, f := range failures {
		failedSet[f.Filename] = true
	}
	for _, d := range decisions {
		if !failedSet[d.Spec.Filename] {
			m[d.Spec.Filename] = d.Fingerprint
		}
	}

	prevVersion, err := version.Current(r.opts.BuildRoot)
	if err != nil {
		return nil, err
	}

	failedNames := make([]string, 0, len(failures))
	for _, f := range failures {
		failedNames = append(failedNames, f.Filename)
	}
	sort.Strings(failedNames)

	dir := version.Dir(r.opts.BuildRoot, next)
	build := version.Build{
		Schema:       s,
		Manifest:     m,
		Assets:       assets,
		RendererHTML: r.opts.RendererHTML,
		Info: version.Info{
			Version:         next,
			CreatedAt:       start.UTC(),
			PreviousVersion: prevVersion,
			RunID:           runID,
			Reused:          len(reuse),
			Regenerated:     len(produced),
			Failed:          failedNames,
		},
	}
	if err := version.Write(dir, build); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:   runID,
		Version: next,
		Dir:     dir,
		Stats: Stats{
			Total:       len(decisions),
			Reused:      len(reuse),
			Regenerated: len(produced),
			Failed:      len(failures),
		},
		Failures: failures,
	}

	observability.Build().OnBuildComplete(ctx, runID, next, r.opts.Now().Sub(start), failedNames)

	if len(failures) > 0 {
		logger.Error("build incomplete", "version", next, "failed", len(failures))
		return result, partialBuildError(failures)
	}

	if err := version.Activate(r.opts.BuildRoot, next); err != nil {
		return result, err
	}
	result.Activated = true
	logger.Info("build complete", "version", next,
		"reused", len(reuse), "regenerated", len(produced),
		"took", r.opts.Now().Sub(start).Round(time.Millisecond))
	return result, nil
}

func splitDecisions(decisions []manifest.Decision) (reuse, regen []manifest.Decision) {
	for _, d := range decisions {
		if d.Action == manifest.Reuse {
			reuse = append(reuse, d)
		} else {
			regen = append(regen, d)
		}
	}
	return reuse, regen
}

type assetResult struct {
	decision manifest.Decision
	data     []byte
	err      error
}

// produce renders the regenerate set through the worker pool. The collector
// loop is the only goroutine touching the accumulators.
func (r *Runner) produce(ctx context.Context, logger *log.Logger, regen []manifest.Decision) ([]version.Asset, []AssetFailure) {
	if len(regen) == 0 {
		return nil, nil
	}

	workers := r.opts.Workers
	if workers > len(regen) {
		workers = len(regen)
	}

	gen := genimage.NewRetryer(r.opts.Generator, r.opts.Sleep, logger)

	jobs := make(chan manifest.Decision, len(regen))
	results := make(chan assetResult, len(regen))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := range jobs {
				data, err := r.produceOne(ctx, gen, d)
				results <- assetResult{decision: d, data: data, err: err}
			}
		}()
	}

	for _, d := range regen {
		jobs <- d
	}
	close(jobs)

	var assets []version.Asset
	var failures []AssetFailure
	for range regen {
		res := <-results
		name := res.decision.Spec.Filename
		if res.err != nil {
			logger.Error("asset failed", "asset", name, "error", res.err)
			failures = append(failures, AssetFailure{Filename: name, Err: res.err})
			continue
		}
		assets = append(assets, version.Asset{Filename: name, Data: res.data})
	}
	wg.Wait()

	return assets, failures
}

// produceOne renders a single asset: raw bytes from the generation cache or
// the generator, then post-processing. Raw bytes enter the cache as soon as
// generation succeeds, so a later failure in the same build does not force
// the next build to pay for this asset again.
func (r *Runner) produceOne(ctx context.Context, gen genimage.Generator, d manifest.Decision) ([]byte, error) {
	name := d.Spec.Filename
	action := d.Action.String()
	observability.Build().OnAssetStart(ctx, name, action)
	start := time.Now()

	raw, err := r.rawBytes(ctx, gen, d)
	if err != nil {
		observability.Build().OnAssetComplete(ctx, name, action, time.Since(start), err)
		return nil, err
	}

	processed, err := postprocess.Process(raw, d.Spec)
	observability.Build().OnAssetComplete(ctx, name, action, time.Since(start), err)
	return processed, err
}

func (r *Runner) rawBytes(ctx context.Context, gen genimage.Generator, d manifest.Decision) ([]byte, error) {
	key := cache.AssetKey(d.Fingerprint)
	if data, ok, err := r.opts.Cache.Get(ctx, key); err == nil && ok {
		observability.Cache().OnCacheHit(ctx, "asset")
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "asset")

	raw, err := gen.Generate(ctx, d.Spec)
	if err != nil {
		return nil, err
	}
	if err := r.opts.Cache.Set(ctx, key, raw, cache.TTLAsset); err == nil {
		observability.Cache().OnCacheSet(ctx, "asset", len(raw))
	}
	return raw, nil
}

func partialBuildError(failures []AssetFailure) error {
	parts := make([]string, len(failures))
	for i, f := range failures {
		parts[i] = fmt.Sprintf("%s (%v)", f.Filename, f.Err)
	}
	sort.Strings(parts)
	return errors.New(errors.ErrCodePartialBuild,
		"%d asset(s) failed: %s", len(failures), strings.Join(parts, "; "))
}
