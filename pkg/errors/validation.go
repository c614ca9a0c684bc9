package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateAssetFilename validates an asset filename for safety and correctness.
// It rejects names that could be used for path traversal, since asset filenames
// are written directly into version directories.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
//
// Naming-convention checks (SLIDE-XX-*.png, IC-*.png) are done separately by
// the schema validator.
func ValidateAssetFilename(name string) error {
	if name == "" {
		return New(ErrCodeInvalidAsset, "asset filename cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidAsset, "asset filename too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidAsset, "asset filename contains invalid control characters")
		}
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidAsset, "asset filename cannot contain path separators")
	}
	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidAsset, "asset filename cannot contain path traversal sequences (..)")
	}
	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidAsset, "asset filename cannot be a hidden file")
	}

	return nil
}

// shortNameRegex matches valid presentation short names (directory-safe slugs).
var shortNameRegex = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidateShortName validates a presentation short name. Short names become
// directory names under the build root, so only lowercase alphanumerics and
// hyphens are allowed.
func ValidateShortName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidSchema, "short_name cannot be empty")
	}
	if !shortNameRegex.MatchString(name) {
		return New(ErrCodeInvalidSchema, "short_name must be lowercase alphanumeric with hyphens, got: %q", name)
	}
	return nil
}

// dimensionsRegex matches WIDTHxHEIGHT generation size strings (e.g. "1792x1024").
var dimensionsRegex = regexp.MustCompile(`^\d+x\d+$`)

// ValidateDimensions validates a generation size string of the form "WxH".
func ValidateDimensions(size string) error {
	if !dimensionsRegex.MatchString(size) {
		return New(ErrCodeInvalidSchema, "size must be WIDTHxHEIGHT format, got: %q", size)
	}
	return nil
}
