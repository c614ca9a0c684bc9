package schema

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/slidesmith/slidesmith/pkg/errors"
)

// testDoc returns a minimal valid schema document as a mutable map.
func testDoc() map[string]any {
	return map[string]any{
		"meta": map[string]any{
			"title":      "AI Developer Workflows",
			"short_name": "ai-dev",
			"version":    "1.0.0",
			"created":    "2026-08-01",
			"theme":      "future-of-dev",
		},
		"visual_identity": map[string]any{
			"colors": map[string]any{
				"primary":        "#2D2F92",
				"secondary":      "#6F3EDD",
				"accent":         "#15D4C8",
				"text_primary":   "#FFFFFF",
				"text_secondary": "#B8B8D0",
				"overlay_bg":     "rgba(20, 20, 40, 0.8)",
				"border":         "#3A3D99",
			},
			"typography": map[string]any{
				"font_family":   "Inter, sans-serif",
				"title_size":    "3.2rem",
				"subtitle_size": "1.6rem",
				"body_size":     "1.1rem",
				"small_size":    "0.9rem",
			},
			"style_prompt": "Modern, futuristic, minimalistic; deep indigo palette",
			"atmosphere":   "cinematic",
		},
		"layout_system": map[string]any{
			"layouts": map[string]any{
				"title-slide": map[string]any{
					"description":   "Centered opening slide",
					"text_position": "center",
					"text_zone":     "full",
					"max_width":     "80%",
				},
				"lf": map[string]any{
					"description":   "Text on the left third",
					"text_position": "left",
					"text_zone":     "left-third",
					"max_width":     "33%",
				},
			},
		},
		"asset_config": map[string]any{
			"dimensions": map[string]any{
				"background": map[string]any{
					"generation_size": "1792x1024",
					"final_size":      []int{1920, 1080},
				},
				"icons": map[string]any{
					"generation_size": "1024x1024",
					"final_size":      []int{350, 350},
				},
			},
			"naming_convention": "SLIDE-XX-Concept.png",
			"dalle_model":       "dall-e-3",
		},
		"slides": []any{
			map[string]any{
				"id":     "01",
				"layout": "title-slide",
				"content": map[string]any{
					"title":    "AI Developer Workflows",
					"subtitle": "From autocomplete to agents",
				},
				"background": map[string]any{
					"filename": "SLIDE-01-Opening.png",
					"concept":  "opening",
					"prompt":   "mountain sunrise over a sea of code",
				},
			},
			map[string]any{
				"id":     "02",
				"layout": "lf",
				"content": map[string]any{
					"title":   "Where we are",
					"bullets": []string{"Autocomplete", "Chat", "Agents"},
					"icons":   []string{"IC-Bolt.png"},
				},
				"background": map[string]any{
					"filename": "SLIDE-02-Timeline.png",
					"concept":  "timeline",
					"prompt":   "vertical tech timeline with holographic icons",
				},
			},
		},
		"icons": []any{
			map[string]any{
				"filename":    "IC-Bolt.png",
				"prompt":      "minimalist neon outline lightning bolt icon",
				"transparent": true,
			},
		},
	}
}

func marshal(t *testing.T, doc map[string]any) []byte {
	t.Helper()
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal test doc: %v", err)
	}
	return data
}

func TestParseValid(t *testing.T) {
	s, err := Parse(marshal(t, testDoc()))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if s.Meta.ShortName != "ai-dev" {
		t.Errorf("ShortName = %q, want %q", s.Meta.ShortName, "ai-dev")
	}
	if len(s.Slides) != 2 {
		t.Errorf("len(Slides) = %d, want 2", len(s.Slides))
	}
	if len(s.Icons) != 1 {
		t.Errorf("len(Icons) = %d, want 1", len(s.Icons))
	}
	if s.AssetConfig.Dimensions.Background.FinalSize != [2]int{1920, 1080} {
		t.Errorf("background final_size = %v", s.AssetConfig.Dimensions.Background.FinalSize)
	}
	if len(s.Raw()) == 0 {
		t.Error("Raw() should retain source bytes")
	}
}

func TestParseStructuralErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(doc map[string]any)
	}{
		{
			name:   "missing meta",
			mutate: func(doc map[string]any) { delete(doc, "meta") },
		},
		{
			name: "bad short_name",
			mutate: func(doc map[string]any) {
				doc["meta"].(map[string]any)["short_name"] = "AI Dev!"
			},
		},
		{
			name: "bad version",
			mutate: func(doc map[string]any) {
				doc["meta"].(map[string]any)["version"] = "1.0"
			},
		},
		{
			name: "bad slide id",
			mutate: func(doc map[string]any) {
				doc["slides"].([]any)[0].(map[string]any)["id"] = "1"
			},
		},
		{
			name: "bad generation size",
			mutate: func(doc map[string]any) {
				dims := doc["asset_config"].(map[string]any)["dimensions"].(map[string]any)
				dims["background"].(map[string]any)["generation_size"] = "1792 by 1024"
			},
		},
		{
			name: "empty slides",
			mutate: func(doc map[string]any) {
				doc["slides"] = []any{}
			},
		},
		{
			name: "unknown model",
			mutate: func(doc map[string]any) {
				doc["asset_config"].(map[string]any)["dalle_model"] = "imagen"
			},
		},
		{
			name: "background filename outside naming convention",
			mutate: func(doc map[string]any) {
				slide := doc["slides"].([]any)[0].(map[string]any)
				slide["background"].(map[string]any)["filename"] = "totally-free-form.name.png"
			},
		},
		{
			name: "icon filename without IC prefix",
			mutate: func(doc map[string]any) {
				doc["icons"].([]any)[0].(map[string]any)["filename"] = "Bolt.png"
			},
		},
		{
			name: "icon missing transparent",
			mutate: func(doc map[string]any) {
				delete(doc["icons"].([]any)[0].(map[string]any), "transparent")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := testDoc()
			tt.mutate(doc)
			_, err := Parse(marshal(t, doc))
			if err == nil {
				t.Fatal("Parse should fail")
			}
			if !errors.Is(err, errors.ErrCodeInvalidSchema) {
				t.Errorf("error code = %v, want INVALID_SCHEMA: %v", errors.GetCode(err), err)
			}
		})
	}
}

func TestParseCrossFieldErrors(t *testing.T) {
	t.Run("duplicate slide id", func(t *testing.T) {
		doc := testDoc()
		doc["slides"].([]any)[1].(map[string]any)["id"] = "01"
		_, err := Parse(marshal(t, doc))
		if err == nil || !strings.Contains(err.Error(), "duplicate slide id") {
			t.Errorf("want duplicate slide id error, got %v", err)
		}
	})

	t.Run("unknown layout", func(t *testing.T) {
		doc := testDoc()
		doc["slides"].([]any)[1].(map[string]any)["layout"] = "rf"
		_, err := Parse(marshal(t, doc))
		if err == nil || !strings.Contains(err.Error(), "unknown layout") {
			t.Errorf("want unknown layout error, got %v", err)
		}
	})

	t.Run("conflicting duplicate filename", func(t *testing.T) {
		doc := testDoc()
		slide := doc["slides"].([]any)[1].(map[string]any)
		slide["background"].(map[string]any)["filename"] = "SLIDE-01-Opening.png"
		_, err := Parse(marshal(t, doc))
		if err == nil || !strings.Contains(err.Error(), "declared twice") {
			t.Errorf("want filename collision error, got %v", err)
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "deck.json")
		if err := os.WriteFile(path, marshal(t, testDoc()), 0644); err != nil {
			t.Fatal(err)
		}
		s, err := Load(path)
		if err != nil {
			t.Fatalf("Load error: %v", err)
		}
		if s.Meta.Title == "" {
			t.Error("loaded schema has empty title")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
		if !errors.Is(err, errors.ErrCodeSchemaNotFound) {
			t.Errorf("error code = %v, want SCHEMA_NOT_FOUND", errors.GetCode(err))
		}
	})
}

func TestAssetSpecs(t *testing.T) {
	s, err := Parse(marshal(t, testDoc()))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	specs, err := s.AssetSpecs()
	if err != nil {
		t.Fatalf("AssetSpecs error: %v", err)
	}

	if len(specs) != 3 {
		t.Fatalf("len(specs) = %d, want 3", len(specs))
	}

	// Backgrounds come first, in slide order
	bg := specs[0]
	if bg.Kind != KindBackground || bg.Filename != "SLIDE-01-Opening.png" {
		t.Errorf("specs[0] = %+v", bg)
	}
	if bg.GenerationSize != "1792x1024" || bg.FinalWidth != 1920 || bg.FinalHeight != 1080 {
		t.Errorf("background sizes = %s %dx%d", bg.GenerationSize, bg.FinalWidth, bg.FinalHeight)
	}
	if !strings.HasPrefix(bg.Prompt, s.VisualIdentity.StylePrompt) {
		t.Error("prompt should be prefixed with the style prompt")
	}
	if !strings.Contains(bg.Prompt, "mountain sunrise") {
		t.Error("prompt should contain the scene prompt")
	}

	// Icons follow, with icon dimensions and transparency
	ic := specs[2]
	if ic.Kind != KindIcon || ic.Filename != "IC-Bolt.png" {
		t.Errorf("specs[2] = %+v", ic)
	}
	if !ic.Transparent {
		t.Error("icon spec should preserve transparent flag")
	}
	if ic.FinalWidth != 350 || ic.FinalHeight != 350 {
		t.Errorf("icon final size = %dx%d, want 350x350", ic.FinalWidth, ic.FinalHeight)
	}
}

func TestAssetSpecsDeduplicatesEquivalent(t *testing.T) {
	doc := testDoc()
	// Second slide reuses the first slide's background verbatim.
	slides := doc["slides"].([]any)
	first := slides[0].(map[string]any)["background"].(map[string]any)
	slides[1].(map[string]any)["background"] = map[string]any{
		"filename": first["filename"],
		"concept":  first["concept"],
		"prompt":   first["prompt"],
	}

	s, err := Parse(marshal(t, doc))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	specs, err := s.AssetSpecs()
	if err != nil {
		t.Fatalf("AssetSpecs error: %v", err)
	}
	// Two slides sharing one background plus one icon
	if len(specs) != 2 {
		t.Errorf("len(specs) = %d, want 2", len(specs))
	}
}

func TestRuntimeSlides(t *testing.T) {
	s, err := Parse(marshal(t, testDoc()))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	slides := s.RuntimeSlides()
	if len(slides) != 2 {
		t.Fatalf("len(slides) = %d, want 2", len(slides))
	}
	if slides[0].Bg != "SLIDE-01-Opening.png" {
		t.Errorf("slides[0].Bg = %q", slides[0].Bg)
	}
	if slides[1].Layout != "lf" {
		t.Errorf("slides[1].Layout = %q", slides[1].Layout)
	}
	if len(slides[1].Bullets) != 3 {
		t.Errorf("slides[1].Bullets = %v", slides[1].Bullets)
	}

	// Generation-only fields must not leak into the runtime document.
	data, err := s.MarshalRuntime()
	if err != nil {
		t.Fatalf("MarshalRuntime error: %v", err)
	}
	if strings.Contains(string(data), "prompt") {
		t.Error("runtime JSON must not contain prompts")
	}
	if strings.Contains(string(data), "concept") {
		t.Error("runtime JSON must not contain concepts")
	}
}
