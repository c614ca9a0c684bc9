package schema

import (
	_ "embed"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/slidesmith/slidesmith/pkg/errors"
)

//go:embed presentation.schema.json
var schemaDocument []byte

// validateStructure checks the document against the embedded JSON Schema.
// Every violation is reported, not just the first, so authors can fix a
// schema in one pass.
func validateStructure(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaDocument),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		// gojsonschema errors here mean unparseable JSON, not invalid content.
		return errors.Wrap(errors.ErrCodeInvalidSchema, err, "parse schema JSON")
	}
	if result.Valid() {
		return nil
	}

	var b strings.Builder
	for i, desc := range result.Errors() {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(desc.Field())
		b.WriteString(": ")
		b.WriteString(desc.Description())
	}
	return errors.New(errors.ErrCodeInvalidSchema, "schema validation failed: %s", b.String())
}
