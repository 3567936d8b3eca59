// Package imaging provides the pixel operations of the gene scanner.
//
// It covers three concerns:
//
//   - Loading and decoding frames (ImageCache, Decode) for capture sources
//     that read still images from disk or from a screenshot tool.
//   - Cutting gene cells and preview strips out of the render surface (Crop)
//     and encoding them for transport (EncodePNG, EncodeBase64).
//   - The per-cell transform stage that prepares a cell for recognition
//     (Preprocess), plus colour statistics used by the diagnostic trace
//     (MeanColor).
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner.
// Rectangles have an inclusive Min and an exclusive Max. Images returned by
// this package always start at (0,0), regardless of where in the source they
// were cut from.
//
// # Transform Stage
//
// Preprocess applies, in order: greyscale, invert, per-channel normalize,
// 2x upscale, a 3x3 sharpening convolution and a contrast boost. Each step
// produces a new image, so the intermediate images handed to a StepRecorder
// are never modified afterwards. The stage is deterministic: the same input
// always yields the same output at every step.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are stateless
// and may run concurrently on different images; the scanner relies on this to
// transform all twelve cells of a cycle in parallel.
package imaging
