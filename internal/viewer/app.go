// Package viewer is the controller tying the catalog, the thumbnail worker,
// and the renderer together behind an ebiten game loop. It owns the mode
// state machine and is the only code that touches the catalog and renderer.
package viewer

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/hajimehoshi/ebiten/v2"
	"golang.design/x/clipboard"

	"github.com/simmessa/fastview/internal/cache"
	"github.com/simmessa/fastview/internal/catalog"
	"github.com/simmessa/fastview/internal/config"
	"github.com/simmessa/fastview/internal/meta"
	"github.com/simmessa/fastview/internal/render"
	"github.com/simmessa/fastview/internal/thumb"
)

const (
	defaultWindowW = 1280
	defaultWindowH = 720
)

// Mode is the current view mode.
type Mode int

const (
	ModeGrid Mode = iota
	ModeSingle
)

// String returns a human-readable mode name.
func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "Single"
	default:
		return "Grid"
	}
}

// EventKind names one foreground event.
type EventKind int

const (
	// EventOpenPath activates a path received over IPC.
	EventOpenPath EventKind = iota
	// EventRefresh rescans the current directory.
	EventRefresh
)

// Event is one item on the foreground queue, drained once per tick.
type Event struct {
	Kind EventKind
	Path string
}

// App is the viewer application. It implements ebiten.Game.
type App struct {
	cfg      *config.Config
	store    *cache.Store
	catalog  *catalog.Catalog
	renderer *render.Renderer
	worker   *thumb.Worker
	input    InputHandler

	mode     Mode
	selected int

	events     chan Event
	activation <-chan string
	watcher    *fsnotify.Watcher
	watched    string

	savedZoom  float64
	actualSize bool
	nearest    bool

	clipboardOK bool

	geom      cache.WindowGeometry
	geomKnown bool
}

// NewApp builds the application for startPath, which may be a directory or
// an image file. The worker goroutine is started here; the window itself is
// created later by Run.
func NewApp(cfg *config.Config, store *cache.Store, startPath string) (*App, error) {
	startPath = catalog.Canonical(startPath)
	info, err := os.Stat(startPath)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", startPath, err)
	}

	dir := startPath
	startImage := ""
	if !info.IsDir() {
		dir = filepath.Dir(startPath)
		startImage = startPath
	}

	a := &App{
		cfg:    cfg,
		store:  store,
		events: make(chan Event, 8),
	}

	winW, winH := float64(defaultWindowW), float64(defaultWindowH)
	if g, ok := store.WindowGeometry(); ok {
		a.geom = *g
		a.geomKnown = true
		winW, winH = float64(g.Width), float64(g.Height)
	}

	layout := render.Layout{
		Cell:    float64(cfg.CellSize),
		Spacing: float64(cfg.CellSpacing),
	}
	a.renderer = render.New(winW, winH, layout)
	a.catalog = catalog.New(dir, cfg.Extensions, meta.Null{})

	a.worker = thumb.NewWorker(store, cfg.ThumbSize)
	a.worker.Start()

	if w, err := fsnotify.NewWatcher(); err != nil {
		log.Printf("Failed to create directory watcher: %v", err)
	} else {
		a.watcher = w
		go a.watchLoop()
	}

	if err := clipboard.Init(); err != nil {
		log.Printf("Clipboard unavailable: %v", err)
	} else {
		a.clipboardOK = true
	}

	a.loadGrid()

	if startImage != "" {
		a.openImage(startImage)
	}

	return a, nil
}

// SetActivationSource wires the IPC path channel into the foreground queue.
func (a *App) SetActivationSource(paths <-chan string) {
	a.activation = paths
}

// Run configures the window from persisted geometry and enters the game
// loop. Blocks until the window closes.
func (a *App) Run() error {
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	w, h := a.renderer.WindowSize()
	ebiten.SetWindowSize(int(w), int(h))
	if a.geomKnown {
		ebiten.SetWindowPosition(a.geom.X, a.geom.Y)
	}
	a.updateTitle()

	defer a.worker.Stop()
	if a.watcher != nil {
		defer a.watcher.Close()
	}
	return ebiten.RunGame(a)
}

// Update implements ebiten.Game.
func (a *App) Update() error {
	a.drainResponses()
	a.drainEvents()
	a.persistGeometry()

	for _, action := range a.input.Poll() {
		a.handleAction(action)
	}
	return nil
}

// Draw implements ebiten.Game.
func (a *App) Draw(screen *ebiten.Image) {
	a.renderer.Draw(screen, a.mode == ModeGrid, a.selected)
}

// Layout implements ebiten.Game.
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := a.renderer.WindowSize()
	if float64(outsideWidth) != w || float64(outsideHeight) != h {
		a.renderer.Resize(float64(outsideWidth), float64(outsideHeight))
		a.updateViewport()
	}
	return outsideWidth, outsideHeight
}

// drainResponses applies every pending worker response. Indexes are
// validated by the renderer against the current grid, so responses from a
// superseded grid fall on the floor.
func (a *App) drainResponses() {
	for {
		select {
		case resp := <-a.worker.Responses():
			a.renderer.SetCellImage(resp.Index, resp.Image)
		default:
			return
		}
	}
}

func (a *App) drainEvents() {
	if a.activation != nil {
		for draining := true; draining; {
			select {
			case path := <-a.activation:
				select {
				case a.events <- Event{Kind: EventOpenPath, Path: path}:
				default:
				}
			default:
				draining = false
			}
		}
	}

	for {
		select {
		case ev := <-a.events:
			switch ev.Kind {
			case EventOpenPath:
				a.OpenPath(ev.Path)
				ebiten.RestoreWindow()
			case EventRefresh:
				a.catalog.Refresh()
				a.loadGrid()
			}
		default:
			return
		}
	}
}

// persistGeometry saves the window position and size whenever either
// changes.
func (a *App) persistGeometry() {
	x, y := ebiten.WindowPosition()
	w, h := ebiten.WindowSize()
	g := cache.WindowGeometry{X: x, Y: y, Width: w, Height: h}
	if a.geomKnown && g == a.geom {
		return
	}
	a.geom = g
	a.geomKnown = true
	a.store.SetWindowGeometry(&g)
}

func (a *App) handleAction(action Action) {
	if a.mode == ModeGrid {
		a.handleGridAction(action)
		return
	}
	a.handleSingleAction(action)
}

func (a *App) handleGridAction(action Action) {
	switch action.Kind {
	case ActionSelectLeft:
		a.moveSelection(-1)
	case ActionSelectRight:
		a.moveSelection(1)
	case ActionSelectUp:
		a.moveSelection(-a.columns())
	case ActionSelectDown:
		a.moveSelection(a.columns())
	case ActionPageUp:
		a.moveSelectionByPage(-1)
	case ActionPageDown:
		a.moveSelectionByPage(1)
	case ActionOpenSelected:
		a.activate(a.selected)
	case ActionBack:
		a.catalog.SetPath(filepath.Dir(a.catalog.Path()))
		a.loadGrid()
	case ActionZoom:
		a.renderer.ZoomStep(action.Amount, true)
		a.updateViewport()
	case ActionClick:
		if i := a.renderer.HitTest(action.X, action.Y); i >= 0 {
			a.selected = i
			a.activate(i)
		}
	}
}

func (a *App) handleSingleAction(action Action) {
	switch action.Kind {
	case ActionSelectLeft:
		if img, err := a.catalog.PrevImage(); err == nil {
			a.showImage(img)
		}
	case ActionSelectRight:
		if img, err := a.catalog.NextImage(); err == nil {
			a.showImage(img)
		}
	case ActionZoom:
		a.renderer.ZoomStep(action.Amount, false)
	case ActionPan:
		a.renderer.PanBy(action.DX, action.DY)
	case ActionActualSize:
		a.toggleActualSize()
	case ActionCopyPath:
		a.copyCurrentPath()
	case ActionBack:
		a.mode = ModeGrid
		a.actualSize = false
		a.nearest = false
		a.renderer.SetFiltering(false)
		a.updateTitle()
		a.updateViewport()
	}
}

// toggleActualSize swaps between the saved zoom with linear sampling and
// 1:1 pixels with nearest sampling.
func (a *App) toggleActualSize() {
	if a.actualSize {
		a.renderer.SetZoom(a.savedZoom)
		a.nearest = false
	} else {
		a.savedZoom = a.renderer.Zoom()
		a.renderer.SetZoom(1.0)
		a.nearest = true
	}
	a.actualSize = !a.actualSize
	a.renderer.SetFiltering(a.nearest)
}

func (a *App) copyCurrentPath() {
	if !a.clipboardOK {
		return
	}
	if path := a.catalog.CurrentPath(); path != "" {
		clipboard.Write(clipboard.FmtText, []byte(path))
	}
}

func (a *App) columns() int {
	w, _ := a.renderer.WindowSize()
	return a.renderer.Layout().Columns(w)
}

// moveSelection shifts the grid selection by delta cells. A target outside
// the grid leaves the selection where it is, so Up on the top row or Down
// past the bottom row does not jump the selection sideways.
func (a *App) moveSelection(delta int) {
	i := a.selected + delta
	if i < 0 || i >= a.renderer.CellCount() {
		return
	}
	a.setSelection(i)
}

// moveSelectionByPage moves by one viewport of rows, clamped to the grid.
func (a *App) moveSelectionByPage(dir int) {
	n := a.renderer.CellCount()
	if n == 0 {
		return
	}
	_, h := a.renderer.WindowSize()
	rows := a.renderer.Layout().PageRows(h)
	i := a.selected + dir*rows*a.columns()
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	a.setSelection(i)
}

func (a *App) setSelection(i int) {
	a.selected = i
	a.renderer.ScrollToItem(i)
	a.updateViewport()
}

// activate opens grid item i: descend into a directory, or switch to single
// view on an image.
func (a *App) activate(i int) {
	items := a.catalog.Items()
	if i < 0 || i >= len(items) {
		return
	}
	item := items[i]
	if item.IsDir {
		a.catalog.SetPath(item.Path)
		a.loadGrid()
		return
	}
	a.openImage(item.Path)
}

func (a *App) openImage(path string) {
	img, err := a.catalog.OpenImage(path)
	if err != nil {
		log.Printf("Failed to open image %s: %v", path, err)
		return
	}
	a.mode = ModeSingle
	a.showImage(img)
}

// showImage uploads img as the single-view texture and resets the view to
// fit, with linear sampling.
func (a *App) showImage(img *image.RGBA) {
	a.renderer.SetImage(img)
	a.actualSize = false
	a.nearest = false
	a.renderer.SetFiltering(false)
	a.setZoomToFit()
	a.updateTitle()
}

func (a *App) setZoomToFit() {
	iw, ih := a.renderer.ImageSize()
	ww, wh := a.renderer.WindowSize()
	a.renderer.SetZoom(render.FitZoom(iw, ih, ww, wh))
}

// loadGrid rebuilds the grid cells from the catalog and submits one
// thumbnail request per item.
func (a *App) loadGrid() {
	a.mode = ModeGrid
	a.selected = 0
	a.renderer.ClearGrid()

	items := a.catalog.Items()
	batch := make([]thumb.Request, 0, len(items))
	for i, item := range items {
		a.renderer.AddCell(item.Path, item.IsDir)
		batch = append(batch, thumb.Request{
			Path:  item.Path,
			Index: i,
			IsDir: item.IsDir,
		})
	}
	if len(batch) > 0 {
		a.worker.Submit(batch)
	}

	a.updateViewport()
	a.updateTitle()
	a.rewatch()
}

// updateViewport forwards the on-screen cell range to the worker so visible
// thumbnails are generated first.
func (a *App) updateViewport() {
	if a.mode != ModeGrid {
		return
	}
	start, end := a.renderer.VisibleRange()
	indexes := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		indexes = append(indexes, i)
	}
	a.worker.SetVisible(indexes)
}

// OpenPath activates path, which may be a directory or an image file.
func (a *App) OpenPath(path string) {
	path = catalog.Canonical(path)
	info, err := os.Stat(path)
	if err != nil {
		log.Printf("Failed to open %s: %v", path, err)
		return
	}

	if info.IsDir() {
		a.catalog.SetPath(path)
		a.loadGrid()
		return
	}
	a.catalog.SetPath(filepath.Dir(path))
	a.loadGrid()
	a.openImage(path)
}

func (a *App) updateTitle() {
	if a.mode == ModeGrid {
		ebiten.SetWindowTitle(fmt.Sprintf("fastview - Browsing: %s", a.catalog.Path()))
		return
	}
	ebiten.SetWindowTitle(fmt.Sprintf("fastview - [%d/%d]",
		a.catalog.CurrentIndex()+1, a.catalog.ImageCount()))
}

// rewatch points the directory watcher at the current catalog directory.
func (a *App) rewatch() {
	if a.watcher == nil {
		return
	}
	if a.watched != "" {
		a.watcher.Remove(a.watched)
	}
	a.watched = a.catalog.Path()
	if err := a.watcher.Add(a.watched); err != nil {
		log.Printf("Failed to watch %s: %v", a.watched, err)
		a.watched = ""
	}
}

// watchLoop forwards filesystem changes in the watched directory as refresh
// events. Runs in its own goroutine for the life of the watcher.
func (a *App) watchLoop() {
	for {
		select {
		case ev, ok := <-a.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case a.events <- Event{Kind: EventRefresh}:
			default:
			}
		case err, ok := <-a.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Directory watcher error: %v", err)
		}
	}
}
