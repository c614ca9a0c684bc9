package schema

import (
	"bytes"
	"encoding/json"
)

// RuntimeSlide is the renderer-facing projection of one slide: content plus
// resolved asset filenames, stripped of generation-only fields (prompts,
// concepts, text zones). Changing this shape is a contract change for the
// static renderer.
type RuntimeSlide struct {
	Layout   string   `json:"layout"`
	Bg       string   `json:"bg"`
	Title    string   `json:"title,omitempty"`
	Subtitle string   `json:"subtitle,omitempty"`
	Bullets  []string `json:"bullets,omitempty"`
	Text     string   `json:"text,omitempty"`
	Icons    []string `json:"icons,omitempty"`
	Links    []Link   `json:"links,omitempty"`
}

// RuntimeSlides projects the schema's ordered slides for the client renderer.
func (s *Schema) RuntimeSlides() []RuntimeSlide {
	slides := make([]RuntimeSlide, len(s.Slides))
	for i, slide := range s.Slides {
		slides[i] = RuntimeSlide{
			Layout:   slide.Layout,
			Bg:       slide.Background.Filename,
			Title:    slide.Content.Title,
			Subtitle: slide.Content.Subtitle,
			Bullets:  slide.Content.Bullets,
			Text:     slide.Content.Text,
			Icons:    slide.Content.Icons,
			Links:    slide.Content.Links,
		}
	}
	return slides
}

// MarshalRuntime encodes the runtime slides as indented JSON, the exact
// document written to slides_runtime.json.
func (s *Schema) MarshalRuntime() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.RuntimeSlides()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
