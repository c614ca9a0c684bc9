// Package postprocess turns raw generated image bytes into the final asset
// files: decode, resize to the exact final dimensions, and re-encode as PNG.
//
// A post-processing failure is always permanent. Regenerating the same image
// would decode the same way, so the pipeline fails the asset immediately
// instead of burning retry attempts on it.
package postprocess

import (
	"bytes"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
	"github.com/slidesmith/slidesmith/pkg/errors"
	"github.com/slidesmith/slidesmith/pkg/schema"
)

// Process decodes raw image bytes, resizes them to the asset's final
// dimensions, and returns the PNG encoding. Lanczos resampling keeps fine
// detail in downscaled backgrounds; PNG keeps the alpha channel of
// transparent icons intact.
func Process(raw []byte, spec schema.AssetSpec) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePostProcessing, err, "decode image for %s", spec.Filename)
	}

	w, h := spec.FinalSize()
	if img.Bounds().Dx() != w || img.Bounds().Dy() != h {
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := encodePNG(&buf, img); err != nil {
		return nil, errors.Wrap(errors.ErrCodePostProcessing, err, "encode %s", spec.Filename)
	}
	return buf.Bytes(), nil
}

func encodePNG(buf *bytes.Buffer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	return enc.Encode(buf, img)
}
