// Package thumb runs the background thumbnail worker. The game loop submits
// request batches and visibility hints; the worker services requests one at a
// time, visible cells first, consulting the persistent cache before decoding,
// and streams finished thumbnails back over a response channel.
package thumb

import (
	"image"
	"image/draw"
	"os"
	"sort"
	"time"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	_ "image/jpeg"
	_ "image/png"

	"github.com/simmessa/fastview/internal/cache"
)

const idleSleep = 10 * time.Millisecond

// Request asks for one thumbnail. Each request is consumed exactly once;
// there is no deduplication or cancellation.
type Request struct {
	Path  string
	Index int
	IsDir bool
}

// Response carries one finished thumbnail back to the game loop. Index is
// the grid cell the request was made for; the receiver must bounds-check it
// against the current grid.
type Response struct {
	Index int
	Image *image.RGBA
}

// Worker is the background thumbnail generator. Start launches its
// goroutine; Stop shuts it down. All fields are owned by that goroutine
// except the channel endpoints and the shared cache handle.
type Worker struct {
	store     *cache.Store
	size      int
	requests  chan []Request
	visible   chan []int
	responses chan Response
	stop      chan struct{}
}

// NewWorker creates a worker producing size-by-size thumbnails backed by
// store.
func NewWorker(store *cache.Store, size int) *Worker {
	return &Worker{
		store:     store,
		size:      size,
		requests:  make(chan []Request, 64),
		visible:   make(chan []int, 8),
		responses: make(chan Response, 256),
		stop:      make(chan struct{}),
	}
}

// Start launches the worker goroutine.
func (w *Worker) Start() {
	go w.run()
}

// Stop shuts the worker down. Pending requests are abandoned.
func (w *Worker) Stop() {
	close(w.stop)
}

// Submit enqueues a batch of requests.
func (w *Worker) Submit(batch []Request) {
	select {
	case w.requests <- batch:
	case <-w.stop:
	}
}

// SetVisible replaces the worker's view of which cell indexes are on screen.
// Only the latest hint matters, so a full channel drops its oldest entry
// rather than blocking the game loop.
func (w *Worker) SetVisible(indexes []int) {
	for {
		select {
		case w.visible <- indexes:
			return
		default:
		}
		select {
		case <-w.visible:
		default:
		}
	}
}

// Responses returns the channel of finished thumbnails. The game loop drains
// it non-blocking once per tick.
func (w *Worker) Responses() <-chan Response {
	return w.responses
}

func (w *Worker) run() {
	var pending []Request
	visible := make(map[int]bool)

	for {
		select {
		case <-w.stop:
			return
		default:
		}

		// Drain every queued batch and keep only the newest hint.
		draining := true
		for draining {
			select {
			case batch := <-w.requests:
				pending = append(pending, batch...)
			case indexes := <-w.visible:
				clear(visible)
				for _, i := range indexes {
					visible[i] = true
				}
			default:
				draining = false
			}
		}

		if len(pending) == 0 {
			select {
			case <-w.stop:
				return
			case <-time.After(idleSleep):
			}
			continue
		}

		// Visible cells first, then ascending index. Stable so equal
		// requests keep submission order.
		sort.SliceStable(pending, func(i, j int) bool {
			vi, vj := visible[pending[i].Index], visible[pending[j].Index]
			if vi != vj {
				return vi
			}
			return pending[i].Index < pending[j].Index
		})

		req := pending[0]
		pending = pending[1:]

		img := w.process(req)
		if img == nil {
			continue
		}
		select {
		case w.responses <- Response{Index: req.Index, Image: img}:
		case <-w.stop:
			return
		}
	}
}

// process produces the thumbnail for one request, or nil on failure.
// Directory tiles are drawn fresh every time and never cached.
func (w *Worker) process(req Request) *image.RGBA {
	if req.IsDir {
		return placeholder(req.Path, w.size)
	}

	if cached := w.store.GetThumbnail(req.Path); cached != nil {
		return cached
	}

	f, err := os.Open(req.Path)
	if err != nil {
		return nil
	}
	src, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return nil
	}

	thumb := resizeToFill(src, w.size)

	if info, err := os.Stat(req.Path); err == nil {
		w.store.SetThumbnail(req.Path, thumb, info.ModTime().Unix(), info.Size())
	}
	return thumb
}

// resizeToFill scales src to cover a size-by-size square, cropping the
// overflow around the center. Implemented as a centered square crop followed
// by a CatmullRom downscale.
func resizeToFill(src image.Image, size int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	side := w
	if h < w {
		side = h
	}
	crop := image.Rect(0, 0, side, side).
		Add(image.Point{b.Min.X + (w-side)/2, b.Min.Y + (h-side)/2})

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	return dst
}
