package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/convolution"
	"github.com/disintegration/imaging"
)

// Names of the transform steps, in the order Preprocess records them.
const (
	StepRawCrop   = "1. Raw crop"
	StepGreyscale = "2. Greyscale"
	StepInvert    = "3. Invert"
	StepNormalize = "4. Normalize"
	StepScale     = "5. Scale 2×"
	StepSharpen   = "6. Convolute (sharpen)"
	StepContrast  = "7. Contrast"
)

// StepNames lists every transform step in order.
var StepNames = []string{
	StepRawCrop,
	StepGreyscale,
	StepInvert,
	StepNormalize,
	StepScale,
	StepSharpen,
	StepContrast,
}

// ContrastBoost is the contrast adjustment applied as the last step.
// Values range from -1 to 1; 0.5 triples the distance from mid-grey.
const ContrastBoost = 0.5

// UpscaleFactor is the linear scale applied before sharpening.
const UpscaleFactor = 2

// sharpenKernel is a 4-neighbour Laplacian with a centre weight of 4. It is
// not normalized: its weights sum to 2, which brightens the result.
var sharpenKernel = &convolution.Kernel{
	Matrix: []float64{
		0, -0.5, 0,
		-0.5, 4, -0.5,
		0, -0.5, 0,
	},
	Width:  3,
	Height: 3,
}

// StepRecorder receives every intermediate image of Preprocess. The images
// are never modified after they are recorded.
type StepRecorder func(name string, img image.Image)

// Preprocess prepares a gene cell for single-character recognition.
//
// Parameters:
//   - cell: The cropped gene cell. Any image type and any bounds origin are
//     accepted; the result always starts at (0,0).
//   - record: Optional. When set, it is called once per step with the step
//     name and the image after that step, in StepNames order.
//
// Returns:
//   - *image.NRGBA: Dark glyph on a light background, UpscaleFactor times
//     the cell size, ready to be encoded and handed to the engine.
//
// # Steps
//
//   - Greyscale with truncated luma weights
//   - Invert, so light game text becomes dark
//   - Normalize the value range to 0..255
//   - Upscale by UpscaleFactor with linear filtering
//   - Sharpen with a 3x3 kernel
//   - Raise contrast by ContrastBoost
func Preprocess(cell image.Image, record StepRecorder) *image.NRGBA {
	if record == nil {
		record = func(string, image.Image) {}
	}

	img := imaging.Clone(cell)
	record(StepRawCrop, img)

	img = Greyscale(img)
	record(StepGreyscale, img)

	img = imaging.Invert(img)
	record(StepInvert, img)

	img = Normalize(img)
	record(StepNormalize, img)

	b := img.Bounds()
	img = imaging.Resize(img, b.Dx()*UpscaleFactor, b.Dy()*UpscaleFactor, imaging.Linear)
	record(StepScale, img)

	img = imaging.Clone(convolution.Convolve(img, sharpenKernel, &convolution.Options{
		Bias:      0,
		Wrap:      false,
		KeepAlpha: true,
	}))
	record(StepSharpen, img)

	img = imaging.Clone(adjust.Apply(img, contrastFunc(ContrastBoost)))
	record(StepContrast, img)

	return img
}

// Greyscale replaces every pixel with its Rec. 709 luma. Alpha is kept.
func Greyscale(img image.Image) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		y := uint8(0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B))
		return color.NRGBA{y, y, y, c.A}
	})
}

// Normalize stretches each colour channel independently so that its darkest
// value becomes 0 and its brightest 255. A channel whose values are all equal
// is left unchanged. Alpha is kept.
func Normalize(img image.Image) *image.NRGBA {
	src := imaging.Clone(img)

	lo := [3]uint8{255, 255, 255}
	hi := [3]uint8{0, 0, 0}
	for i := 0; i+3 < len(src.Pix); i += 4 {
		for ch := 0; ch < 3; ch++ {
			v := src.Pix[i+ch]
			if v < lo[ch] {
				lo[ch] = v
			}
			if v > hi[ch] {
				hi[ch] = v
			}
		}
	}

	var lut [3][256]uint8
	for ch := 0; ch < 3; ch++ {
		for v := 0; v < 256; v++ {
			if hi[ch] <= lo[ch] {
				lut[ch][v] = uint8(v)
				continue
			}
			n := float64(v-int(lo[ch])) * 255 / float64(hi[ch]-lo[ch])
			lut[ch][v] = uint8(math.Max(0, math.Min(255, n)))
		}
	}

	for i := 0; i+3 < len(src.Pix); i += 4 {
		for ch := 0; ch < 3; ch++ {
			src.Pix[i+ch] = lut[ch][src.Pix[i+ch]]
		}
	}
	return src
}

// contrastFunc returns a per-pixel contrast adjustment that scales the
// distance of each channel from 127 by (1+change)/(1-change).
func contrastFunc(change float64) func(color.RGBA) color.RGBA {
	factor := (change + 1) / (1 - change)

	var lut [256]uint8
	for v := 0; v < 256; v++ {
		n := math.Floor(factor*(float64(v)-127) + 127)
		lut[v] = uint8(math.Max(0, math.Min(255, n)))
	}

	return func(c color.RGBA) color.RGBA {
		if c.A != 255 {
			// Premultiplied input; adjust the straight colour.
			if c.A == 0 {
				return c
			}
			n := color.NRGBAModel.Convert(c).(color.NRGBA)
			n.R, n.G, n.B = lut[n.R], lut[n.G], lut[n.B]
			return color.RGBAModel.Convert(n).(color.RGBA)
		}
		return color.RGBA{lut[c.R], lut[c.G], lut[c.B], c.A}
	}
}
