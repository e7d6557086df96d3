package catalog

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/simmessa/fastview/internal/meta"
)

var testExts = []string{".jpg", ".jpeg", ".png", ".webp"}

func writePNG(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", path, err)
	}
}

func touch(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("failed to set mtime on %s: %v", path, err)
	}
}

func TestOrdering(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	if err := os.Mkdir(filepath.Join(dir, "zeta"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "alpha"), 0755); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(dir, "old.png"), base)
	touch(t, filepath.Join(dir, "new.jpg"), base.Add(time.Hour))
	touch(t, filepath.Join(dir, "ignored.txt"), base)

	c := New(dir, testExts, meta.Null{})
	items := c.Items()

	wantNames := []string{"alpha", "zeta", "new.jpg", "old.png"}
	if len(items) != len(wantNames) {
		t.Fatalf("got %d items, want %d", len(items), len(wantNames))
	}
	for i, want := range wantNames {
		if got := filepath.Base(items[i].Path); got != want {
			t.Errorf("items[%d] = %s, want %s", i, got, want)
		}
	}
	if !items[0].IsDir || !items[1].IsDir {
		t.Error("directories must come first")
	}
	if items[2].IsDir || items[3].IsDir {
		t.Error("images must follow directories")
	}
}

func TestOrderingMTimeTieBreaksOnPath(t *testing.T) {
	dir := t.TempDir()
	mtime := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	touch(t, filepath.Join(dir, "b.png"), mtime)
	touch(t, filepath.Join(dir, "a.png"), mtime)

	c := New(dir, testExts, meta.Null{})
	items := c.Items()
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if filepath.Base(items[0].Path) != "a.png" {
		t.Errorf("tied mtimes should order by path, got %s first",
			filepath.Base(items[0].Path))
	}
}

func TestUnreadableDirIsEmpty(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "does-not-exist"), testExts, meta.Null{})
	if n := len(c.Items()); n != 0 {
		t.Errorf("got %d items, want 0", n)
	}
	if n := c.ImageCount(); n != 0 {
		t.Errorf("got %d images, want 0", n)
	}
}

func TestOpenImageAndWrap(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	// mtime-descending: c.png, b.png, a.png
	for i, name := range []string{"a.png", "b.png", "c.png"} {
		path := filepath.Join(dir, name)
		writePNG(t, path, color.RGBA{uint8(i * 80), 0, 0, 255})
		mtime := base.Add(time.Duration(i) * time.Hour)
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}

	c := New(dir, testExts, meta.Null{})
	if c.ImageCount() != 3 {
		t.Fatalf("ImageCount = %d, want 3", c.ImageCount())
	}

	if _, err := c.OpenImage(filepath.Join(dir, "b.png")); err != nil {
		t.Fatalf("OpenImage failed: %v", err)
	}
	if got := filepath.Base(c.CurrentPath()); got != "b.png" {
		t.Errorf("CurrentPath = %s, want b.png", got)
	}
	if c.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex = %d, want 1", c.CurrentIndex())
	}

	// Next wraps past the end back to the newest image.
	if _, err := c.NextImage(); err != nil {
		t.Fatalf("NextImage failed: %v", err)
	}
	if _, err := c.NextImage(); err != nil {
		t.Fatalf("NextImage failed: %v", err)
	}
	if got := filepath.Base(c.CurrentPath()); got != "c.png" {
		t.Errorf("after wrapping forward, CurrentPath = %s, want c.png", got)
	}

	// Prev wraps past the start back to the oldest image.
	if _, err := c.PrevImage(); err != nil {
		t.Fatalf("PrevImage failed: %v", err)
	}
	if got := filepath.Base(c.CurrentPath()); got != "a.png" {
		t.Errorf("after wrapping backward, CurrentPath = %s, want a.png", got)
	}
}

func TestOpenImageNotInCatalog(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), color.RGBA{255, 0, 0, 255})

	c := New(dir, testExts, meta.Null{})
	if _, err := c.OpenImage(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("expected error for a path outside the catalog")
	}
}

func TestSetPathResets(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()
	writePNG(t, filepath.Join(dir1, "a.png"), color.RGBA{255, 0, 0, 255})
	writePNG(t, filepath.Join(dir2, "b.png"), color.RGBA{0, 255, 0, 255})
	writePNG(t, filepath.Join(dir2, "c.png"), color.RGBA{0, 0, 255, 255})

	c := New(dir1, testExts, meta.Null{})
	if c.ImageCount() != 1 {
		t.Fatalf("ImageCount = %d, want 1", c.ImageCount())
	}

	c.SetPath(dir2)
	if c.ImageCount() != 2 {
		t.Errorf("after SetPath, ImageCount = %d, want 2", c.ImageCount())
	}
	if c.CurrentIndex() != 0 {
		t.Errorf("after SetPath, CurrentIndex = %d, want 0", c.CurrentIndex())
	}
}

func TestDecodeFailure(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0644); err != nil {
		t.Fatal(err)
	}

	c := New(dir, testExts, meta.Null{})
	if _, err := c.LoadCurrent(); err == nil {
		t.Error("expected decode error for a corrupt file")
	}
}
