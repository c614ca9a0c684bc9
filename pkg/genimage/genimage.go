// Package genimage calls the OpenAI image generation API and classifies its
// failures so the build pipeline can decide between retrying and giving up.
//
// The package separates two concerns: [Client] performs a single generation
// request and tags every failure as transient or permanent, and [Retryer]
// wraps any [Generator] with the fixed-schedule retry policy. The pipeline
// only ever talks to a [Generator], so tests substitute a fake and never
// touch the network.
package genimage

import (
	"context"

	"github.com/slidesmith/slidesmith/pkg/schema"
)

// Generator produces the raw image bytes for one asset spec.
type Generator interface {
	Generate(ctx context.Context, spec schema.AssetSpec) ([]byte, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, spec schema.AssetSpec) ([]byte, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, spec schema.AssetSpec) ([]byte, error) {
	return f(ctx, spec)
}
