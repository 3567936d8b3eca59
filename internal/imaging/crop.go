package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
)

// Encoded is an image serialized for transport in events and tool results.
type Encoded struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Crop cuts rect out of src and returns it as a new image anchored at (0,0).
//
// The result always has the size of rect. Parts of rect that fall outside
// src are left transparent black, so a gene cell near the frame border still
// yields a full-size cell image.
func Crop(src image.Image, rect image.Rectangle) *image.NRGBA {
	rect = rect.Canon()
	out := imaging.New(rect.Dx(), rect.Dy(), color.NRGBA{})

	visible := rect.Intersect(src.Bounds())
	if visible.Empty() {
		return out
	}

	part := imaging.Crop(src, visible)
	return imaging.Paste(out, part, visible.Min.Sub(rect.Min))
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeBase64 encodes img as a base64 PNG together with its dimensions.
func EncodeBase64(img image.Image) (*Encoded, error) {
	data, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &Encoded{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
	}, nil
}
