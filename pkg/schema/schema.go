// Package schema models the declarative presentation schema and derives the
// asset work list for a build.
//
// A schema is immutable once loaded: the pipeline reads it, derives
// [AssetSpec] values from slide backgrounds and icon entries, and projects
// the runtime JSON consumed by the static slide renderer. Validation is two
// layered: a JSON Schema document checks structure and field formats, and
// Go-side checks cover the cross-field invariants the schema language cannot
// express (duplicate ids, conflicting asset filenames, unknown layouts).
package schema

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/slidesmith/slidesmith/pkg/errors"
)

// Schema is the root input for a build. Load it once per invocation and
// treat it as read-only afterwards.
type Schema struct {
	Meta           Meta            `json:"meta"`
	VisualIdentity VisualIdentity  `json:"visual_identity"`
	LayoutSystem   LayoutSystem    `json:"layout_system"`
	AssetConfig    AssetConfig     `json:"asset_config"`
	Slides         []Slide         `json:"slides"`
	Icons          []Icon          `json:"icons,omitempty"`
	RuntimeConfig  json.RawMessage `json:"runtime_config,omitempty"`

	// raw holds the source bytes so the writer can copy the schema into the
	// version directory verbatim.
	raw []byte
}

// Meta identifies the presentation.
type Meta struct {
	Title     string `json:"title"`
	ShortName string `json:"short_name"`
	Version   string `json:"version"`
	Created   string `json:"created"`
	Theme     string `json:"theme"`
}

// VisualIdentity carries the shared look of the deck. StylePrompt is
// prepended to every asset prompt so the whole deck renders in one style.
type VisualIdentity struct {
	Colors      map[string]string `json:"colors"`
	Typography  map[string]string `json:"typography"`
	StylePrompt string            `json:"style_prompt"`
	Atmosphere  string            `json:"atmosphere"`
}

// LayoutSystem is the catalog of named slide layouts.
type LayoutSystem struct {
	Layouts map[string]Layout `json:"layouts"`
}

// Layout describes where text sits relative to the background art.
type Layout struct {
	Description  string `json:"description"`
	TextPosition string `json:"text_position"`
	TextZone     string `json:"text_zone"`
	MaxWidth     string `json:"max_width"`
}

// AssetConfig controls how assets are requested from the image service.
type AssetConfig struct {
	Dimensions       Dimensions `json:"dimensions"`
	NamingConvention string     `json:"naming_convention"`
	Model            string     `json:"dalle_model"`
}

// Dimensions holds per-kind size settings.
type Dimensions struct {
	Background DimensionSpec `json:"background"`
	Icons      DimensionSpec `json:"icons"`
}

// DimensionSpec pairs the size requested from the service with the final
// dimensions assets are resized to.
type DimensionSpec struct {
	GenerationSize string `json:"generation_size"` // "WxH", e.g. "1792x1024"
	FinalSize      [2]int `json:"final_size"`      // [width, height]
}

// Slide is one ordered slide definition.
type Slide struct {
	ID         string       `json:"id"`
	Layout     string       `json:"layout"`
	Content    SlideContent `json:"content"`
	Background Background   `json:"background"`
}

// SlideContent is the text content rendered over the background.
type SlideContent struct {
	Title    string   `json:"title,omitempty"`
	Subtitle string   `json:"subtitle,omitempty"`
	Bullets  []string `json:"bullets,omitempty"`
	Text     string   `json:"text,omitempty"`
	Icons    []string `json:"icons,omitempty"`
	Links    []Link   `json:"links,omitempty"`
}

// Link is a navigable reference shown on a slide.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Background describes the generated backdrop of one slide.
type Background struct {
	Filename  string          `json:"filename"`
	Concept   string          `json:"concept"`
	Prompt    string          `json:"prompt"`
	TextZones json.RawMessage `json:"text_zones,omitempty"`
}

// Icon describes one generated icon asset.
type Icon struct {
	Filename    string `json:"filename"`
	Prompt      string `json:"prompt"`
	Transparent bool   `json:"transparent"`
}

// Load reads, parses, and validates a schema file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeSchemaNotFound, "schema file not found: %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read schema %s", path)
	}
	return Parse(data)
}

// Parse parses and validates schema bytes.
func Parse(data []byte) (*Schema, error) {
	if err := validateStructure(data); err != nil {
		return nil, err
	}

	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSchema, err, "parse schema JSON")
	}
	s.raw = data

	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Raw returns the source bytes the schema was parsed from.
func (s *Schema) Raw() []byte { return s.raw }

// validate covers cross-field invariants after structural validation passed.
func (s *Schema) validate() error {
	if err := errors.ValidateShortName(s.Meta.ShortName); err != nil {
		return err
	}

	for _, spec := range []struct {
		name string
		dim  DimensionSpec
	}{
		{"background", s.AssetConfig.Dimensions.Background},
		{"icons", s.AssetConfig.Dimensions.Icons},
	} {
		if err := errors.ValidateDimensions(spec.dim.GenerationSize); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidSchema, err, "asset_config.dimensions.%s.generation_size", spec.name)
		}
		if spec.dim.FinalSize[0] <= 0 || spec.dim.FinalSize[1] <= 0 {
			return errors.New(errors.ErrCodeInvalidSchema,
				"asset_config.dimensions.%s.final_size must be positive [width, height], got %v", spec.name, spec.dim.FinalSize)
		}
	}

	seenIDs := make(map[string]bool)
	for i, slide := range s.Slides {
		if seenIDs[slide.ID] {
			return errors.New(errors.ErrCodeInvalidSchema, "duplicate slide id: %s", slide.ID)
		}
		seenIDs[slide.ID] = true

		if _, ok := s.LayoutSystem.Layouts[slide.Layout]; !ok {
			return errors.New(errors.ErrCodeInvalidSchema,
				"slides[%d] references unknown layout %q", i, slide.Layout)
		}
		if err := errors.ValidateAssetFilename(slide.Background.Filename); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidSchema, err, "slides[%d].background.filename", i)
		}
	}

	for i, icon := range s.Icons {
		if err := errors.ValidateAssetFilename(icon.Filename); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidSchema, err, "icons[%d].filename", i)
		}
	}

	// AssetSpecs detects filename collisions with diverging content; run it
	// here so a colliding schema never starts a build.
	if _, err := s.AssetSpecs(); err != nil {
		return err
	}
	return nil
}

// String implements fmt.Stringer for logging.
func (s *Schema) String() string {
	return fmt.Sprintf("%s (%s, %d slides, %d icons)", s.Meta.Title, s.Meta.ShortName, len(s.Slides), len(s.Icons))
}
