// Package manifest records what a version was built from and decides, on the
// next build, which assets can be carried over unchanged.
//
// Every generated asset is identified by a fingerprint over the inputs that
// influence its pixels. Two builds that derive the same fingerprint for a
// filename would produce equivalent output, so the newer build copies the
// older file instead of calling the image service again.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/slidesmith/slidesmith/pkg/schema"
)

// fingerprintInput is the canonical form hashed into a fingerprint. Field
// order is fixed by the struct; adding a field invalidates all prior
// fingerprints, which is the intended effect when generation inputs grow.
type fingerprintInput struct {
	Kind           string `json:"kind"`
	Prompt         string `json:"prompt"`
	GenerationSize string `json:"generation_size"`
	FinalSize      [2]int `json:"final_size"`
	Transparent    bool   `json:"transparent"`
}

// Fingerprint returns the sha256 hex digest of an asset's generation inputs.
// Filenames are deliberately excluded: renaming an asset without changing its
// prompt or sizes still allows reuse of the rendered bytes.
func Fingerprint(spec schema.AssetSpec) string {
	in := fingerprintInput{
		Kind:           string(spec.Kind),
		Prompt:         spec.Prompt,
		GenerationSize: spec.GenerationSize,
		FinalSize:      [2]int{spec.FinalWidth, spec.FinalHeight},
		Transparent:    spec.Transparent,
	}
	data, err := json.Marshal(in)
	if err != nil {
		// Marshalling a flat struct of strings and ints cannot fail.
		panic(fmt.Sprintf("fingerprint marshal: %v", err))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
