// Package geometry maps normalized on-screen gene layouts to pixel rectangles.
//
// A sapling's six genes are drawn by the game as a horizontal row of small
// letter cells. Where that row sits depends on which overlay is open (the
// world tooltip or the inventory panel), but relative to the frame size it is
// always in the same place, so each layout is described once in normalized
// (0-1) coordinates and scaled to whatever frame the capture source delivers.
//
// # Coordinate System
//
// Pixel coordinates follow the image package convention: (0,0) is the
// top-left corner, X grows rightward, Y grows downward. Rectangles returned by
// this package are image.Rectangle values with an inclusive Min and exclusive
// Max, so they can be passed straight to SubImage or imaging.Crop.
//
// # Rounding
//
// Every pixel value is rounded to the nearest integer independently (origin
// and extent), matching how the layouts were calibrated. A cell's right edge
// is therefore origin+extent, not round(right edge).
//
// # Aspect Ratio
//
// Layouts were calibrated on 16:9 frames. Frames with any other ratio are
// assumed to be a windowed game with a title bar on top; AspectCorrection
// returns the height the frame would have at 16:9 and the vertical offset
// that pushes the extra rows off the top of the render surface.
package geometry
