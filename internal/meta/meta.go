// Package meta defines the boundary to the image metadata collaborator.
// Extraction itself (EXIF parsing, embedded prompt decoding) lives outside
// this program; consumers only see an orientation correction and a list of
// display fields.
package meta

import "image"

// Orientation is the EXIF orientation correction an image needs before
// display.
type Orientation int

const (
	OrientNormal Orientation = iota
	OrientFlipH
	OrientRotate180
	OrientFlipHRotate180
	OrientFlipHRotate90
	OrientRotate90
	OrientFlipHRotate270
	OrientRotate270
)

// OrientationFromEXIF maps an EXIF orientation tag value (1-8) to an
// Orientation. Unknown values map to OrientNormal.
func OrientationFromEXIF(v int) Orientation {
	switch v {
	case 2:
		return OrientFlipH
	case 3:
		return OrientRotate180
	case 4:
		return OrientFlipHRotate180
	case 5:
		return OrientFlipHRotate90
	case 6:
		return OrientRotate90
	case 7:
		return OrientFlipHRotate270
	case 8:
		return OrientRotate270
	default:
		return OrientNormal
	}
}

// NeedsCorrection reports whether the orientation requires a pixel transform.
func (o Orientation) NeedsCorrection() bool {
	return o != OrientNormal
}

// String returns a human-readable description of the orientation.
func (o Orientation) String() string {
	switch o {
	case OrientFlipH:
		return "Flip Horizontal"
	case OrientRotate180:
		return "Rotate 180"
	case OrientFlipHRotate180:
		return "Flip Horizontal, Rotate 180"
	case OrientFlipHRotate90:
		return "Flip Horizontal, Rotate 90 CW"
	case OrientRotate90:
		return "Rotate 90 CW"
	case OrientFlipHRotate270:
		return "Flip Horizontal, Rotate 90 CCW"
	case OrientRotate270:
		return "Rotate 90 CCW"
	default:
		return "Normal"
	}
}

// Field is one display string pair produced by the extractor, shown verbatim.
type Field struct {
	Key   string
	Value string
}

// Info is everything the collaborator reports for one image.
type Info struct {
	Orientation Orientation
	Fields      []Field
}

// Extractor produces metadata for an image path. Implementations must treat
// every failure as "no metadata" and never return an error.
type Extractor interface {
	Extract(path string) Info
}

// Null is an Extractor that reports no metadata for any path.
type Null struct{}

// Extract implements Extractor.
func (Null) Extract(string) Info { return Info{} }

// Apply returns a copy of src with the orientation correction applied.
// OrientNormal returns src unchanged. Composite variants rotate first, then
// flip; the order matters for the 90-degree cases.
func Apply(src *image.RGBA, o Orientation) *image.RGBA {
	switch o {
	case OrientFlipH:
		return flipH(src)
	case OrientRotate90:
		return rotate90(src)
	case OrientRotate180:
		return rotate180(src)
	case OrientRotate270:
		return rotate270(src)
	case OrientFlipHRotate90:
		return flipH(rotate90(src))
	case OrientFlipHRotate180:
		return flipH(rotate180(src))
	case OrientFlipHRotate270:
		return flipH(rotate270(src))
	default:
		return src
	}
}

// rotate90 rotates 90 degrees clockwise.
func rotate90(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.SetRGBA(h-1-y, x, src.RGBAAt(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

func rotate180(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.SetRGBA(w-1-x, h-1-y, src.RGBAAt(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

// rotate270 rotates 90 degrees counter-clockwise.
func rotate270(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.SetRGBA(y, w-1-x, src.RGBAAt(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

func flipH(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.SetRGBA(w-1-x, y, src.RGBAAt(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}
