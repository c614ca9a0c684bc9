// Package renderer embeds the static slide viewer copied into every version
// directory. The viewer is self-contained: it fetches slides_runtime.json
// next to itself and renders slides over the generated background images.
package renderer

import _ "embed"

//go:embed index.html
var indexHTML []byte

// IndexHTML returns the embedded viewer page.
func IndexHTML() []byte { return indexHTML }
