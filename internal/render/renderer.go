// Package render is the GPU presentation layer. It owns every texture, the
// per-cell draw parameters, scroll state, and the two draw paths (grid and
// single view). All calls must come from the game loop goroutine.
package render

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	gridClearColor   = color.RGBA{3, 3, 3, 255}
	singleClearColor = color.RGBA{0, 0, 0, 255}
	cellPlaceholder  = color.RGBA{24, 26, 32, 255}
	selectionAccent  = color.RGBA{200, 160, 40, 255}
)

// Params mirrors the per-draw uniform state of one quad.
type Params struct {
	ImageSize  [2]float32
	WindowSize [2]float32
	Pan        [2]float32
	Zoom       float32
	IsGridItem float32
	IsSelected float32
}

// Cell is one grid tile. Tex stays nil until the thumbnail worker delivers a
// pixel payload; a nil texture draws as a flat placeholder.
type Cell struct {
	Path      string
	IsDir     bool
	Tex       *ebiten.Image
	Params    Params
	ImageSize [2]float32
}

// Renderer holds all GPU-side state for both view modes.
type Renderer struct {
	layout Layout
	winW   float64
	winH   float64

	cells  []Cell
	scroll float64

	singleTex *ebiten.Image
	params    Params
	nearest   bool
}

// New creates a renderer for the given window size and grid geometry.
func New(winW, winH float64, layout Layout) *Renderer {
	return &Renderer{
		layout: layout,
		winW:   winW,
		winH:   winH,
		params: Params{
			WindowSize: [2]float32{float32(winW), float32(winH)},
			Zoom:       1.0,
		},
	}
}

// Resize updates the window size and reclamps the scroll offset so the grid
// never overscrolls after a shrink.
func (r *Renderer) Resize(winW, winH float64) {
	r.winW = winW
	r.winH = winH
	r.params.WindowSize = [2]float32{float32(winW), float32(winH)}
	r.scroll = r.layout.ClampScroll(r.scroll, len(r.cells), r.layout.Columns(winW), winH)
}

// WindowSize returns the current window size in pixels.
func (r *Renderer) WindowSize() (w, h float64) {
	return r.winW, r.winH
}

// Layout returns the grid geometry.
func (r *Renderer) Layout() Layout {
	return r.layout
}

// ImageSize returns the pixel size of the single-view image.
func (r *Renderer) ImageSize() (w, h float64) {
	return float64(r.params.ImageSize[0]), float64(r.params.ImageSize[1])
}

// SetImage uploads img as the single-view texture, releasing the previous
// one, and resets the pan offset.
func (r *Renderer) SetImage(img *image.RGBA) {
	if r.singleTex != nil {
		r.singleTex.Deallocate()
	}
	r.singleTex = ebiten.NewImageFromImage(img)
	b := img.Bounds()
	r.params.ImageSize = [2]float32{float32(b.Dx()), float32(b.Dy())}
	r.params.Pan = [2]float32{0, 0}
}

// SetFiltering switches between linear and nearest sampling. The single-view
// texture keeps its pixels; only the draw-time filter changes.
func (r *Renderer) SetFiltering(nearest bool) {
	r.nearest = nearest
}

// Zoom returns the single-view zoom factor.
func (r *Renderer) Zoom() float64 {
	return float64(r.params.Zoom)
}

// SetZoom sets the single-view zoom factor, clamped to [0.1, 50].
func (r *Renderer) SetZoom(z float64) {
	if z < 0.1 {
		z = 0.1
	}
	if z > 50.0 {
		z = 50.0
	}
	r.params.Zoom = float32(z)
}

// ZoomStep applies one wheel step: multiplicative zoom in single view,
// vertical scroll in grid view.
func (r *Renderer) ZoomStep(amount float64, grid bool) {
	if grid {
		r.ScrollBy(amount * 100)
		return
	}
	if amount > 0 {
		r.SetZoom(r.Zoom() * 1.1)
	} else if amount < 0 {
		r.SetZoom(r.Zoom() / 1.1)
	}
}

// PanBy accumulates a raw pan delta. Pan is intentionally unclamped.
func (r *Renderer) PanBy(dx, dy float64) {
	r.params.Pan[0] += float32(dx)
	r.params.Pan[1] += float32(dy)
}

// ResetPan zeroes the pan offset.
func (r *Renderer) ResetPan() {
	r.params.Pan = [2]float32{0, 0}
}

// ClearGrid releases every cell texture and empties the grid.
func (r *Renderer) ClearGrid() {
	for i := range r.cells {
		if r.cells[i].Tex != nil {
			r.cells[i].Tex.Deallocate()
		}
	}
	r.cells = r.cells[:0]
	r.scroll = 0
}

// AddCell appends a placeholder cell for path. The texture arrives later via
// SetCellImage.
func (r *Renderer) AddCell(path string, isDir bool) {
	r.cells = append(r.cells, Cell{Path: path, IsDir: isDir})
}

// CellCount returns the number of grid cells.
func (r *Renderer) CellCount() int {
	return len(r.cells)
}

// Cells exposes the cell slice for read access.
func (r *Renderer) Cells() []Cell {
	return r.cells
}

// SetCellImage uploads a thumbnail for cell i. Out-of-range indexes are
// ignored; responses can outlive the grid they were requested for.
func (r *Renderer) SetCellImage(i int, img *image.RGBA) {
	if i < 0 || i >= len(r.cells) {
		return
	}
	if r.cells[i].Tex != nil {
		r.cells[i].Tex.Deallocate()
	}
	r.cells[i].Tex = ebiten.NewImageFromImage(img)
	b := img.Bounds()
	r.cells[i].ImageSize = [2]float32{float32(b.Dx()), float32(b.Dy())}
}

// Scroll returns the grid scroll offset (0 or negative).
func (r *Renderer) Scroll() float64 {
	return r.scroll
}

// ScrollBy shifts the grid scroll offset and clamps it.
func (r *Renderer) ScrollBy(dy float64) {
	cols := r.layout.Columns(r.winW)
	r.scroll = r.layout.ClampScroll(r.scroll+dy, len(r.cells), cols, r.winH)
}

// ScrollToItem nudges the scroll offset minimally so cell i is fully
// visible.
func (r *Renderer) ScrollToItem(i int) {
	r.scroll = r.layout.ScrollToItem(r.scroll, i, len(r.cells), r.winW, r.winH)
}

// HitTest maps a window coordinate to the cell under it, or -1.
func (r *Renderer) HitTest(x, y float64) int {
	return r.layout.HitTest(x, y, r.scroll, r.winW, len(r.cells))
}

// VisibleRange returns the half-open cell index range intersecting the
// viewport, clamped to the cell count.
func (r *Renderer) VisibleRange() (start, end int) {
	start, end = r.layout.VisibleRange(r.scroll, r.winW, r.winH)
	if end > len(r.cells) {
		end = len(r.cells)
	}
	if start > end {
		start = end
	}
	return start, end
}

// Draw renders the current mode into screen. In grid mode selected is the
// highlighted cell index; in single mode it is ignored.
func (r *Renderer) Draw(screen *ebiten.Image, grid bool, selected int) {
	if grid {
		r.drawGrid(screen, selected)
		return
	}
	r.drawSingle(screen)
}

func (r *Renderer) drawSingle(screen *ebiten.Image) {
	screen.Fill(singleClearColor)
	if r.singleTex == nil {
		return
	}

	zoom := float64(r.params.Zoom)
	imgW := float64(r.params.ImageSize[0]) * zoom
	imgH := float64(r.params.ImageSize[1]) * zoom

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(zoom, zoom)
	op.GeoM.Translate(
		(r.winW-imgW)/2+float64(r.params.Pan[0]),
		(r.winH-imgH)/2+float64(r.params.Pan[1]),
	)
	op.Filter = ebiten.FilterLinear
	if r.nearest {
		op.Filter = ebiten.FilterNearest
	}
	screen.DrawImage(r.singleTex, op)
}

func (r *Renderer) drawGrid(screen *ebiten.Image, selected int) {
	screen.Fill(gridClearColor)

	cols := r.layout.Columns(r.winW)
	cell := r.layout.Cell

	for i := range r.cells {
		x, y := r.layout.CellPos(i, cols)
		y += r.scroll
		if y+cell < 0 || y > r.winH {
			continue
		}

		c := &r.cells[i]
		c.Params = Params{
			ImageSize:  c.ImageSize,
			WindowSize: r.params.WindowSize,
			Zoom:       1.0,
			IsGridItem: 1.0,
		}
		if i == selected {
			c.Params.IsSelected = 1.0
		}

		if c.Tex == nil {
			vector.DrawFilledRect(screen, float32(x), float32(y),
				float32(cell), float32(cell), cellPlaceholder, false)
		} else {
			// Fit the thumbnail in the cell preserving aspect, centered.
			tw := float64(c.ImageSize[0])
			th := float64(c.ImageSize[1])
			scale := cell / tw
			if th > tw {
				scale = cell / th
			}
			op := &ebiten.DrawImageOptions{}
			op.GeoM.Scale(scale, scale)
			op.GeoM.Translate(x+(cell-tw*scale)/2, y+(cell-th*scale)/2)
			op.Filter = ebiten.FilterLinear
			screen.DrawImage(c.Tex, op)
		}

		if i == selected {
			vector.StrokeRect(screen, float32(x), float32(y),
				float32(cell), float32(cell), 3, selectionAccent, false)
		}
	}
}
