package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/slidesmith/slidesmith/pkg/errors"
	"github.com/slidesmith/slidesmith/pkg/schema"
)

// FileName is the manifest's name inside a version directory.
const FileName = "manifest.json"

// Manifest maps asset filename to the fingerprint it was built from.
type Manifest map[string]string

// FromSpecs builds the manifest a set of asset specs would produce.
func FromSpecs(specs []schema.AssetSpec) Manifest {
	m := make(Manifest, len(specs))
	for _, spec := range specs {
		m[spec.Filename] = Fingerprint(spec)
	}
	return m
}

// Load reads a manifest from a version directory. A missing manifest is not
// an error: older or foreign version directories simply offer nothing to
// reuse, so Load returns an empty manifest for them.
func Load(versionDir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(versionDir, FileName))
	if os.IsNotExist(err) {
		return Manifest{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read manifest in %s", versionDir)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		// A corrupt manifest also just disables reuse.
		return Manifest{}, nil
	}
	return m, nil
}

// Save writes the manifest into a version directory with sorted keys.
func (m Manifest) Save(versionDir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal manifest")
	}
	path := filepath.Join(versionDir, FileName)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, err, "write %s", path)
	}
	return nil
}

// Filenames returns the manifest's filenames in sorted order.
func (m Manifest) Filenames() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
