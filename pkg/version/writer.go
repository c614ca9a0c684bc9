package version

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/slidesmith/slidesmith/pkg/errors"
	"github.com/slidesmith/slidesmith/pkg/manifest"
	"github.com/slidesmith/slidesmith/pkg/schema"
)

// Names of the files a complete version directory contains.
const (
	AssetsDirName   = "assets_generated"
	RuntimeFileName = "slides_runtime.json"
	SchemaFileName  = "presentation_schema.json"
	IndexFileName   = "index.html"
	InfoFileName    = "version.json"
)

// Info is the version.json document describing how a version was built.
type Info struct {
	Version         int       `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	PreviousVersion int       `json:"previous_version,omitempty"`
	RunID           string    `json:"run_id,omitempty"`
	Reused          int       `json:"reused"`
	Regenerated     int       `json:"regenerated"`
	Failed          []string  `json:"failed,omitempty"`
}

// Asset is one file destined for the assets directory. Exactly one of Data
// (freshly rendered bytes) or SourcePath (a previous version's file to copy)
// is set.
type Asset struct {
	Filename   string
	Data       []byte
	SourcePath string
}

// Build bundles everything the writer persists into a version directory.
type Build struct {
	Schema       *schema.Schema
	Manifest     manifest.Manifest
	Assets       []Asset
	RendererHTML []byte
	Info         Info
}

// Write materializes a complete version directory. The directory is written
// even when Info.Failed is non-empty so a partial build can be inspected;
// the caller decides whether to activate it. Write never touches the
// `current` pointer.
func Write(versionDir string, b Build) error {
	assetsDir := filepath.Join(versionDir, AssetsDirName)
	if err := os.MkdirAll(assetsDir, 0755); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, err, "create %s", assetsDir)
	}

	for _, asset := range b.Assets {
		dst := filepath.Join(assetsDir, asset.Filename)
		if asset.SourcePath != "" {
			if err := copyFile(asset.SourcePath, dst); err != nil {
				return errors.Wrap(errors.ErrCodeWriteFailed, err, "carry over %s", asset.Filename)
			}
			continue
		}
		if err := os.WriteFile(dst, asset.Data, 0644); err != nil {
			return errors.Wrap(errors.ErrCodeWriteFailed, err, "write %s", asset.Filename)
		}
	}

	runtime, err := b.Schema.MarshalRuntime()
	if err != nil {
		return err
	}
	files := []struct {
		name string
		data []byte
	}{
		{RuntimeFileName, runtime},
		{SchemaFileName, b.Schema.Raw()},
		{IndexFileName, b.RendererHTML},
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(versionDir, f.name), f.data, 0644); err != nil {
			return errors.Wrap(errors.ErrCodeWriteFailed, err, "write %s", f.name)
		}
	}

	if err := b.Manifest.Save(versionDir); err != nil {
		return err
	}
	return writeInfo(versionDir, b.Info)
}

// ReadInfo loads a version directory's version.json.
func ReadInfo(versionDir string) (Info, error) {
	var info Info
	data, err := os.ReadFile(filepath.Join(versionDir, InfoFileName))
	if err != nil {
		return info, errors.Wrap(errors.ErrCodeVersionNotFound, err, "read version info in %s", versionDir)
	}
	if err := json.Unmarshal(data, &info); err != nil {
		return info, errors.Wrap(errors.ErrCodeInvalidVersion, err, "parse version info in %s", versionDir)
	}
	return info, nil
}

func writeInfo(versionDir string, info Info) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal version info")
	}
	path := filepath.Join(versionDir, InfoFileName)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, err, "write %s", path)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
