package thumb

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/image/font/opentype"

	"github.com/simmessa/fastview/internal/cache"
)

func openTestStore(t *testing.T) *cache.Store {
	t.Helper()
	s, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func collectResponses(t *testing.T, w *Worker, n int) []Response {
	t.Helper()
	var out []Response
	deadline := time.After(5 * time.Second)
	for len(out) < n {
		select {
		case resp := <-w.Responses():
			out = append(out, resp)
		case <-deadline:
			t.Fatalf("got %d responses, want %d", len(out), n)
		}
	}
	return out
}

// Visibility hints set before a batch is submitted must be honored: the
// visible cell is serviced first even when it was queued last.
func TestVisibleServicedFirst(t *testing.T) {
	w := NewWorker(openTestStore(t), 64)

	dir := t.TempDir()
	w.SetVisible([]int{5})
	w.Submit([]Request{
		{Path: dir, Index: 0, IsDir: true},
		{Path: dir, Index: 1, IsDir: true},
		{Path: dir, Index: 5, IsDir: true},
	})

	w.Start()
	defer w.Stop()

	responses := collectResponses(t, w, 3)
	if responses[0].Index != 5 {
		t.Errorf("first response index = %d, want 5", responses[0].Index)
	}
	if responses[1].Index != 0 || responses[2].Index != 1 {
		t.Errorf("non-visible order = %d, %d, want 0, 1",
			responses[1].Index, responses[2].Index)
	}
}

// A cached thumbnail is served without touching the filesystem.
func TestCacheHitSkipsDecode(t *testing.T) {
	store := openTestStore(t)

	thumb := image.NewRGBA(image.Rect(0, 0, 64, 64))
	thumb.SetRGBA(0, 0, color.RGBA{200, 100, 50, 255})
	store.SetThumbnail("/no/such/file.png", thumb, 1, 1)

	w := NewWorker(store, 64)
	w.Submit([]Request{{Path: "/no/such/file.png", Index: 0}})
	w.Start()
	defer w.Stop()

	resp := collectResponses(t, w, 1)[0]
	if got := resp.Image.RGBAAt(0, 0); got != (color.RGBA{200, 100, 50, 255}) {
		t.Errorf("cached pixel = %v", got)
	}
}

// Undecodable files produce no response; the queue moves on.
func TestDecodeFailureSkipped(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(bad, []byte("not a png"), 0644); err != nil {
		t.Fatal(err)
	}

	w := NewWorker(openTestStore(t), 64)
	w.Submit([]Request{
		{Path: bad, Index: 0},
		{Path: dir, Index: 1, IsDir: true},
	})
	w.Start()
	defer w.Stop()

	resp := collectResponses(t, w, 1)[0]
	if resp.Index != 1 {
		t.Errorf("response index = %d, want 1 (the broken file must be skipped)", resp.Index)
	}
}

func TestResizeToFill(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"wide", 200, 50},
		{"tall", 50, 200},
		{"square", 128, 128},
		{"smaller than target", 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := image.NewRGBA(image.Rect(0, 0, tt.w, tt.h))
			got := resizeToFill(src, 64)
			if got.Bounds().Dx() != 64 || got.Bounds().Dy() != 64 {
				t.Errorf("thumbnail is %v, want 64x64", got.Bounds())
			}
		})
	}
}

func TestResizeToFillCropsCenter(t *testing.T) {
	// Left half red, right half blue; the centered square crop of a wide
	// image straddles the middle, so both colors survive.
	src := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			c := color.RGBA{255, 0, 0, 255}
			if x >= 100 {
				c = color.RGBA{0, 0, 255, 255}
			}
			src.SetRGBA(x, y, c)
		}
	}

	got := resizeToFill(src, 64)
	left := got.RGBAAt(4, 32)
	right := got.RGBAAt(60, 32)
	if left.R < 200 || left.B > 50 {
		t.Errorf("left edge = %v, want red", left)
	}
	if right.B < 200 || right.R > 50 {
		t.Errorf("right edge = %v, want blue", right)
	}
}

func TestPlaceholder(t *testing.T) {
	img := placeholder("/some/Directory Name", 256)

	if b := img.Bounds(); b.Dx() != 256 || b.Dy() != 256 {
		t.Fatalf("placeholder is %v, want 256x256", b)
	}
	if got := img.RGBAAt(2, 2); got != placeholderBG {
		t.Errorf("corner = %v, want background %v", got, placeholderBG)
	}
	if got := img.RGBAAt(128, 128); got != placeholderAccent {
		t.Errorf("center = %v, want accent %v", got, placeholderAccent)
	}
	// The label band darkens the bottom strip.
	if got := img.RGBAAt(2, 250); got == placeholderBG {
		t.Error("bottom strip should be darkened by the label band")
	}
}

func TestTruncateToWidthKeepsShortNames(t *testing.T) {
	f := loadLabelFont()
	if f == nil {
		t.Skip("embedded font failed to parse")
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: 18, DPI: 72})
	if err != nil {
		t.Fatalf("failed to build face: %v", err)
	}
	defer face.Close()

	if got := truncateToWidth("ab", face, 1000); got != "ab" {
		t.Errorf("short name was truncated to %q", got)
	}
	long := "a very long directory name that cannot possibly fit"
	got := truncateToWidth(long, face, 60)
	if got == long {
		t.Error("long name was not truncated")
	}
	if len(got) < 3 || got[len(got)-3:] != "..." {
		t.Errorf("truncated name %q lacks ellipsis", got)
	}
}
