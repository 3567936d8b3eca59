package geometry

import (
	"image"
	"math"
)

// CellsPerRegion is the number of gene cells in every layout.
const CellsPerRegion = 6

// SupportedAspectRatio is the frame ratio the layouts were calibrated on.
const SupportedAspectRatio = 16.0 / 9.0

// Region describes one layout in normalized frame coordinates.
type Region struct {
	Name string `json:"name"`

	// CellWidth and CellHeight are the size of one gene cell.
	CellWidth  float64 `json:"cell_width"`
	CellHeight float64 `json:"cell_height"`

	// FirstCenterX and FirstCenterY locate the center of the first cell.
	FirstCenterX float64 `json:"first_center_x"`
	FirstCenterY float64 `json:"first_center_y"`

	// Spacing is the distance between the centers of consecutive cells.
	Spacing float64 `json:"spacing"`
}

// World is the gene row shown when looking at a planted sapling.
var World = Region{
	Name:         "world",
	CellWidth:    0.008,
	CellHeight:   0.015,
	FirstCenterX: 0.42,
	FirstCenterY: 0.2845,
	Spacing:      0.01405,
}

// Inventory is the gene row shown on a seed hovered in the inventory.
var Inventory = Region{
	Name:         "inventory",
	CellWidth:    0.01,
	CellHeight:   0.0185,
	FirstCenterX: 0.617,
	FirstCenterY: 0.3512,
	Spacing:      0.0241,
}

// DefaultRegions returns the layouts scanned on every cycle, in region index
// order.
func DefaultRegions() []Region {
	return []Region{World, Inventory}
}

// CellRect returns the pixel rectangle of the gene cell at position (0-5)
// for a frame of the given size.
func CellRect(r Region, position, frameWidth, frameHeight int) image.Rectangle {
	w := float64(frameWidth)
	h := float64(frameHeight)

	x := round(w * (r.FirstCenterX - r.CellWidth/2 + r.Spacing*float64(position)))
	y := round(h * (r.FirstCenterY - r.CellHeight/2))
	dx := round(w * r.CellWidth)
	dy := round(h * r.CellHeight)

	return image.Rect(x, y, x+dx, y+dy)
}

// CellRects returns all six cell rectangles of a region in position order.
func CellRects(r Region, frameWidth, frameHeight int) []image.Rectangle {
	rects := make([]image.Rectangle, CellsPerRegion)
	for pos := range rects {
		rects[pos] = CellRect(r, pos, frameWidth, frameHeight)
	}
	return rects
}

// PreviewRect returns the strip spanning from the left edge of the first cell
// to the right edge of the last cell, at full cell height.
func PreviewRect(r Region, frameWidth, frameHeight int) image.Rectangle {
	w := float64(frameWidth)
	h := float64(frameHeight)

	x := round(w * (r.FirstCenterX - r.CellWidth/2))
	y := round(h * (r.FirstCenterY - r.CellHeight/2))
	last := float64(CellsPerRegion - 1)
	dx := round(w*(r.FirstCenterX+last*r.Spacing+r.CellWidth/2) - float64(x))
	dy := round(h * r.CellHeight)

	return image.Rect(x, y, x+dx, y+dy)
}

// AspectCorrection returns the render surface height for a frame and the
// vertical offset at which the frame must be drawn onto it.
//
// Frames already at 16:9 are drawn unmodified (offset 0). Any other ratio
// yields a surface of height round(width/(16/9)) and an offset of
// -(frameHeight - surfaceHeight), which keeps the bottom of the frame and
// drops the top rows.
func AspectCorrection(frameWidth, frameHeight int) (surfaceHeight, yOffset int) {
	if frameWidth <= 0 || frameHeight <= 0 {
		return frameHeight, 0
	}
	if float64(frameWidth)/float64(frameHeight) == SupportedAspectRatio {
		return frameHeight, 0
	}
	expected := round(float64(frameWidth) / SupportedAspectRatio)
	return expected, -(frameHeight - expected)
}

// SlotIndex returns the worker slot bound to a region and cell position.
func SlotIndex(region, position int) int {
	return region*CellsPerRegion + position
}

// SlotCell is the inverse of SlotIndex.
func SlotCell(slot int) (region, position int) {
	return slot / CellsPerRegion, slot % CellsPerRegion
}

// round rounds to the nearest integer with halves going up.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}
