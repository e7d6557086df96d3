package thumb

import (
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	placeholderBG     = color.RGBA{30, 40, 60, 255}
	placeholderAccent = color.RGBA{200, 160, 40, 255}
	labelBand         = color.RGBA{0, 0, 0, 180}
	labelText         = color.RGBA{255, 255, 255, 255}
)

var (
	labelFontOnce sync.Once
	labelFont     *opentype.Font
)

// loadLabelFont parses the embedded font on first use. Parse failure leaves
// labelFont nil and placeholders render without a name.
func loadLabelFont() *opentype.Font {
	labelFontOnce.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			return
		}
		labelFont = f
	})
	return labelFont
}

// placeholder draws the directory tile for path: a flat background, an
// accent square, and a bottom band with the truncated directory name. All
// geometry scales with the tile size.
func placeholder(path string, size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(placeholderBG), image.Point{}, draw.Src)

	inset := 40 * size / 256
	accent := image.Rect(inset, inset, size-inset, size-inset)
	draw.Draw(img, accent, image.NewUniform(placeholderAccent), image.Point{}, draw.Src)

	bandTop := 220 * size / 256
	band := image.Rect(0, bandTop, size, size)
	draw.Draw(img, band, image.NewUniform(labelBand), image.Point{}, draw.Over)

	f := loadLabelFont()
	if f == nil {
		return img
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(18 * size / 256),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return img
	}
	defer face.Close()

	name := filepath.Base(path)
	maxWidth := size - 2*(10*size/256)
	name = truncateToWidth(name, face, maxWidth)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelText),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(10 * size / 256),
			Y: fixed.I(242 * size / 256),
		},
	}
	d.DrawString(name)
	return img
}

// truncateToWidth shortens s with a trailing ellipsis until it fits in
// maxWidth pixels under face.
func truncateToWidth(s string, face font.Face, maxWidth int) string {
	if font.MeasureString(face, s).Ceil() <= maxWidth {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if font.MeasureString(face, candidate).Ceil() <= maxWidth {
			return candidate
		}
	}
	return "..."
}
