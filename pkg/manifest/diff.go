package manifest

import (
	"os"
	"path/filepath"

	"github.com/slidesmith/slidesmith/pkg/schema"
)

// Action says what the build must do for one asset.
type Action int

const (
	// Reuse copies the asset from the previous version directory.
	Reuse Action = iota
	// Regenerate calls the image service for a fresh render.
	Regenerate
)

func (a Action) String() string {
	if a == Reuse {
		return "reuse"
	}
	return "regenerate"
}

// Decision pairs an asset spec with the action the diff chose for it.
type Decision struct {
	Spec        schema.AssetSpec
	Fingerprint string
	Action      Action
	// SourcePath is the file to copy from when Action is Reuse.
	SourcePath string
}

// Diff compares the wanted specs against a previous version's manifest and
// decides per asset whether it can be carried over. An asset is reused only
// when the previous manifest recorded the same fingerprint for its filename
// AND the backing file still exists on disk; a manifest entry whose file was
// deleted out from under it falls back to regeneration rather than failing
// the build. prevAssetsDir may be empty for a first build.
func Diff(specs []schema.AssetSpec, prev Manifest, prevAssetsDir string) []Decision {
	decisions := make([]Decision, 0, len(specs))
	for _, spec := range specs {
		fp := Fingerprint(spec)
		d := Decision{Spec: spec, Fingerprint: fp, Action: Regenerate}

		if prevAssetsDir != "" && prev[spec.Filename] == fp {
			src := filepath.Join(prevAssetsDir, spec.Filename)
			if info, err := os.Stat(src); err == nil && info.Mode().IsRegular() {
				d.Action = Reuse
				d.SourcePath = src
			}
		}
		decisions = append(decisions, d)
	}
	return decisions
}
