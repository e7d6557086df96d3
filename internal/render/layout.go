package render

import "math"

// Layout holds the grid geometry. Draw positioning, click hit-testing, and
// the worker's visibility range all derive from the same formulas here, so a
// cell is clickable exactly where it is drawn.
type Layout struct {
	Cell    float64
	Spacing float64
}

// DefaultLayout matches the built-in configuration.
func DefaultLayout() Layout {
	return Layout{Cell: 250, Spacing: 20}
}

// Pitch is the distance between the left edges of adjacent cells.
func (l Layout) Pitch() float64 {
	return l.Cell + l.Spacing
}

// Columns returns the column count for a window width, never less than 1.
func (l Layout) Columns(winW float64) int {
	cols := int(winW / l.Pitch())
	if cols < 1 {
		cols = 1
	}
	return cols
}

// CellPos returns the x position and the scroll-independent y position of
// cell i. The caller adds the current scroll offset to y.
func (l Layout) CellPos(i, cols int) (x, y float64) {
	row := i / cols
	col := i % cols
	x = l.Spacing + float64(col)*l.Pitch()
	y = l.Spacing + float64(row)*l.Pitch()
	return x, y
}

// Rows returns the row count for n items.
func (l Layout) Rows(n, cols int) int {
	return (n + cols - 1) / cols
}

// ContentHeight is the total scrollable height for n items.
func (l Layout) ContentHeight(n, cols int) float64 {
	return float64(l.Rows(n, cols))*l.Pitch() + l.Spacing
}

// MaxScroll returns the magnitude of the largest allowed negative scroll.
func (l Layout) MaxScroll(n, cols int, winH float64) float64 {
	return math.Max(l.ContentHeight(n, cols)-winH, 0)
}

// ClampScroll clamps scroll to [-MaxScroll, 0].
func (l Layout) ClampScroll(scroll float64, n, cols int, winH float64) float64 {
	return math.Min(math.Max(scroll, -l.MaxScroll(n, cols, winH)), 0)
}

// HitTest maps a window coordinate to a cell index, or -1 when the point
// falls outside the grid. The inverse of CellPos; each cell's slot includes
// the spacing to its right and below.
func (l Layout) HitTest(x, y, scroll, winW float64, n int) int {
	cols := l.Columns(winW)
	col := int(math.Floor((x - l.Spacing) / l.Pitch()))
	row := int(math.Floor((y - scroll - l.Spacing) / l.Pitch()))
	if col < 0 || col >= cols || row < 0 {
		return -1
	}
	i := row*cols + col
	if i >= n {
		return -1
	}
	return i
}

// ScrollToItem returns the minimal scroll adjustment that brings item i fully
// into view with one spacing of margin, clamped.
func (l Layout) ScrollToItem(scroll float64, i, n int, winW, winH float64) float64 {
	cols := l.Columns(winW)
	_, top := l.CellPos(i, cols)
	bottom := top + l.Cell

	if top < -scroll {
		scroll = -top + l.Spacing
	} else if bottom > -scroll+winH {
		scroll = -bottom + winH - l.Spacing
	}
	return l.ClampScroll(scroll, n, cols, winH)
}

// VisibleRange returns the half-open index range [start, end) of cells whose
// rows intersect the viewport, before clamping to the item count.
func (l Layout) VisibleRange(scroll, winW, winH float64) (start, end int) {
	cols := l.Columns(winW)
	startRow := int(math.Max(0, math.Floor((-scroll-l.Spacing)/l.Pitch())))
	endRow := int(math.Ceil((-scroll + winH + l.Spacing) / l.Pitch()))
	return startRow * cols, endRow * cols
}

// PageRows returns how many whole rows fit in the viewport, never less
// than 1.
func (l Layout) PageRows(winH float64) int {
	rows := int(winH / l.Pitch())
	if rows < 1 {
		rows = 1
	}
	return rows
}

// FitZoom returns the zoom that fits an image in the window along its
// constrained axis, capped at 1.0 so small images are not upscaled.
func FitZoom(imgW, imgH, winW, winH float64) float64 {
	if imgW <= 0 || imgH <= 0 {
		return 1.0
	}
	var z float64
	if winW/winH > imgW/imgH {
		z = winH / imgH
	} else {
		z = winW / imgW
	}
	return math.Min(z, 1.0)
}
