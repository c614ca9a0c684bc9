package schema

import (
	"github.com/slidesmith/slidesmith/pkg/errors"
)

// AssetKind distinguishes slide backgrounds from icons.
type AssetKind string

// Asset kinds.
const (
	KindBackground AssetKind = "background"
	KindIcon       AssetKind = "icon"
)

// AssetSpec is one required visual artifact, derived from a slide background
// or an icon entry. Filename is the stable identity key; everything else
// feeds the content fingerprint.
type AssetSpec struct {
	Kind           AssetKind `json:"kind"`
	Filename       string    `json:"filename"`
	Prompt         string    `json:"prompt"`          // composed style + scene prompt
	GenerationSize string    `json:"generation_size"` // "WxH" requested from the service
	FinalWidth     int       `json:"final_width"`
	FinalHeight    int       `json:"final_height"`
	Transparent    bool      `json:"transparent"`
}

// FinalSize returns the target dimensions as a pair.
func (a AssetSpec) FinalSize() (w, h int) {
	return a.FinalWidth, a.FinalHeight
}

// equivalent reports whether two specs sharing a filename request identical
// content.
func (a AssetSpec) equivalent(b AssetSpec) bool {
	return a.Kind == b.Kind &&
		a.Prompt == b.Prompt &&
		a.GenerationSize == b.GenerationSize &&
		a.FinalWidth == b.FinalWidth &&
		a.FinalHeight == b.FinalHeight &&
		a.Transparent == b.Transparent
}

// AssetSpecs derives the ordered asset work list for a build: one spec per
// slide background followed by one per icon.
//
// The effective prompt is the visual identity's style prompt joined with the
// asset's own prompt, so a style change fingerprints every asset as changed.
//
// Two entries may declare the same filename only if they are equivalent in
// prompt and dimensions; equivalent duplicates collapse to one spec, while a
// divergent duplicate is an INVALID_SCHEMA error (a single build must never
// race two different contents into one file).
func (s *Schema) AssetSpecs() ([]AssetSpec, error) {
	var specs []AssetSpec
	byName := make(map[string]AssetSpec)

	add := func(spec AssetSpec) error {
		if prev, ok := byName[spec.Filename]; ok {
			if !prev.equivalent(spec) {
				return errors.New(errors.ErrCodeInvalidSchema,
					"filename %q declared twice with different content", spec.Filename)
			}
			return nil
		}
		byName[spec.Filename] = spec
		specs = append(specs, spec)
		return nil
	}

	bg := s.AssetConfig.Dimensions.Background
	for _, slide := range s.Slides {
		spec := AssetSpec{
			Kind:           KindBackground,
			Filename:       slide.Background.Filename,
			Prompt:         s.composePrompt(slide.Background.Prompt),
			GenerationSize: bg.GenerationSize,
			FinalWidth:     bg.FinalSize[0],
			FinalHeight:    bg.FinalSize[1],
		}
		if err := add(spec); err != nil {
			return nil, err
		}
	}

	ic := s.AssetConfig.Dimensions.Icons
	for _, icon := range s.Icons {
		spec := AssetSpec{
			Kind:           KindIcon,
			Filename:       icon.Filename,
			Prompt:         s.composePrompt(icon.Prompt),
			GenerationSize: ic.GenerationSize,
			FinalWidth:     ic.FinalSize[0],
			FinalHeight:    ic.FinalSize[1],
			Transparent:    icon.Transparent,
		}
		if err := add(spec); err != nil {
			return nil, err
		}
	}

	return specs, nil
}

// composePrompt joins the deck-wide style prompt with an asset's scene prompt.
func (s *Schema) composePrompt(scene string) string {
	if s.VisualIdentity.StylePrompt == "" {
		return scene
	}
	return s.VisualIdentity.StylePrompt + " — " + scene
}
