package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// DefaultMaxWidth bounds generated images before they are inlined. Every
// stream frame repeats every slide, so inline images are kept small.
const DefaultMaxWidth = 512

// Sink stores image bytes somewhere addressable and returns the URL.
type Sink interface {
	Put(ctx context.Context, data []byte, contentType string) (string, error)
}

// Output controls what happens to raw provider bytes.
type Output struct {
	// MaxWidth is the width images are downscaled to. Zero disables scaling.
	MaxWidth int
	// Sink, when set, receives the image and the slide gets its URL instead
	// of a data URI.
	Sink Sink
}

func (o Output) publish(ctx context.Context, data []byte, mimeType string) (string, error) {
	if o.MaxWidth > 0 {
		scaled, scaledType, err := Downscale(data, o.MaxWidth)
		if err != nil {
			log.Warn().Err(err).Str("mime", mimeType).Msg("Keeping original image, downscale failed")
		} else {
			data, mimeType = scaled, scaledType
		}
	}

	if o.Sink != nil {
		url, err := o.Sink.Put(ctx, data, mimeType)
		if err != nil {
			return "", fmt.Errorf("store image: %w", err)
		}
		return url, nil
	}
	return DataURI(data, mimeType), nil
}

// DataURI encodes data as a base64 data URI.
func DataURI(data []byte, mimeType string) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Downscale resizes a PNG or JPEG so its width is at most maxWidth and
// re-encodes it as JPEG. Images already narrow enough are returned as-is.
func Downscale(data []byte, maxWidth int) ([]byte, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxWidth {
		return data, "image/" + format, nil
	}

	newW := maxWidth
	newH := h * maxWidth / w
	if newH < 1 {
		newH = 1
	}
	resized := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return nil, "", fmt.Errorf("encode jpeg: %w", err)
	}

	log.Debug().
		Int("orig_width", w).
		Int("orig_height", h).
		Int("new_width", newW).
		Int("new_height", newH).
		Int("output_size", buf.Len()).
		Msg("Image downscaled")

	return buf.Bytes(), "image/jpeg", nil
}
