// Package catalog owns the scanned contents of the current directory: the
// ordered item list shown in the grid, the image-only navigation list used in
// single view, and full-image decoding with orientation correction.
package catalog

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "golang.org/x/image/webp"

	_ "image/jpeg"
	_ "image/png"

	"github.com/simmessa/fastview/internal/meta"
)

// decodedCacheSize is the number of decoded full-resolution images kept in
// memory for quick next/prev navigation.
const decodedCacheSize = 8

// Item is one entry of the browsed directory: a subdirectory or an image.
type Item struct {
	Path  string
	IsDir bool
}

// Catalog is the scanned state of one directory. Not safe for concurrent
// use; the viewer accesses it only from the game loop.
type Catalog struct {
	dir       string
	items     []Item
	images    []string
	current   int
	exts      map[string]bool
	extractor meta.Extractor
	decoded   *lru.Cache[string, *image.RGBA]
}

// New creates a catalog rooted at dir with the given extension allow-list
// (lowercase, with leading dot). The extractor supplies orientation data for
// decoded images; pass meta.Null{} to disable.
func New(dir string, extensions []string, extractor meta.Extractor) *Catalog {
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = true
	}
	decoded, _ := lru.New[string, *image.RGBA](decodedCacheSize)
	c := &Catalog{
		dir:       Canonical(dir),
		exts:      exts,
		extractor: extractor,
		decoded:   decoded,
	}
	c.Refresh()
	return c
}

// Canonical resolves p to a canonical absolute path. Resolution failures fall
// back to the cleaned input so the path is still usable as a cache key.
func Canonical(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// Refresh rescans the directory. An unreadable directory yields an empty
// catalog; unreadable entries are skipped. Modification times are captured
// once here and not consulted again.
func (c *Catalog) Refresh() {
	c.items = c.items[:0]
	c.images = c.images[:0]
	c.current = 0

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}

	mtimes := make(map[string]time.Time)
	for _, entry := range entries {
		path := filepath.Join(c.dir, entry.Name())
		if entry.IsDir() {
			c.items = append(c.items, Item{Path: path, IsDir: true})
			continue
		}
		if !c.exts[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		mtimes[path] = info.ModTime()
		c.items = append(c.items, Item{Path: path})
	}

	// Directories first, path ascending. Images newest first, ties broken
	// by path so the order is deterministic.
	sort.SliceStable(c.items, func(i, j int) bool {
		a, b := c.items[i], c.items[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		if a.IsDir {
			return a.Path < b.Path
		}
		ta, tb := mtimes[a.Path], mtimes[b.Path]
		if !ta.Equal(tb) {
			return ta.After(tb)
		}
		return a.Path < b.Path
	})

	for _, it := range c.items {
		if !it.IsDir {
			c.images = append(c.images, it.Path)
		}
	}
}

// SetPath points the catalog at a new directory and rescans it.
func (c *Catalog) SetPath(dir string) {
	c.dir = Canonical(dir)
	c.Refresh()
}

// Path returns the canonical directory the catalog is rooted at.
func (c *Catalog) Path() string {
	return c.dir
}

// Items returns the ordered grid items.
func (c *Catalog) Items() []Item {
	return c.items
}

// ImageCount returns the length of the image navigation list.
func (c *Catalog) ImageCount() int {
	return len(c.images)
}

// CurrentIndex returns the position of the current image in the navigation
// list.
func (c *Catalog) CurrentIndex() int {
	return c.current
}

// CurrentPath returns the path of the current image, or "" when the catalog
// has no images.
func (c *Catalog) CurrentPath() string {
	if len(c.images) == 0 {
		return ""
	}
	return c.images[c.current]
}

// LoadCurrent decodes the current image.
func (c *Catalog) LoadCurrent() (*image.RGBA, error) {
	if len(c.images) == 0 {
		return nil, fmt.Errorf("no images in %s", c.dir)
	}
	return c.decode(c.images[c.current])
}

// NextImage advances to the next image, wrapping past the end, and decodes it.
func (c *Catalog) NextImage() (*image.RGBA, error) {
	if len(c.images) == 0 {
		return nil, fmt.Errorf("no images in %s", c.dir)
	}
	c.current = (c.current + 1) % len(c.images)
	return c.decode(c.images[c.current])
}

// PrevImage steps back to the previous image, wrapping past the start, and
// decodes it.
func (c *Catalog) PrevImage() (*image.RGBA, error) {
	if len(c.images) == 0 {
		return nil, fmt.Errorf("no images in %s", c.dir)
	}
	c.current = (c.current - 1 + len(c.images)) % len(c.images)
	return c.decode(c.images[c.current])
}

// OpenImage makes path the current image and decodes it. The path must be an
// image in the current directory.
func (c *Catalog) OpenImage(path string) (*image.RGBA, error) {
	canonical := Canonical(path)
	for i, p := range c.images {
		if p == canonical {
			c.current = i
			return c.decode(p)
		}
	}
	return nil, fmt.Errorf("image not in catalog: %s", path)
}

// decode loads and decodes path, applies the orientation correction, and
// memoizes the result.
func (c *Catalog) decode(path string) (*image.RGBA, error) {
	if img, ok := c.decoded.Get(path); ok {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	rgba := toRGBA(src)
	if o := c.extractor.Extract(path).Orientation; o.NeedsCorrection() {
		rgba = meta.Apply(rgba, o)
	}

	c.decoded.Add(path, rgba)
	return rgba, nil
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
