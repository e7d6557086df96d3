package viewer

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// ActionKind names one user intent produced by input polling.
type ActionKind int

const (
	ActionSelectLeft ActionKind = iota
	ActionSelectRight
	ActionSelectUp
	ActionSelectDown
	ActionOpenSelected
	ActionBack
	ActionActualSize
	ActionPageUp
	ActionPageDown
	ActionZoom
	ActionPan
	ActionClick
	ActionCopyPath
)

// Action is one decoded input event. X/Y carry the cursor position for
// clicks, DX/DY the drag delta for pans, Amount the wheel delta for zooms.
type Action struct {
	Kind   ActionKind
	X, Y   float64
	DX, DY float64
	Amount float64
}

// InputHandler turns raw ebiten input state into Actions. Clicks fire on
// release; a held left button pans.
type InputHandler struct {
	mouseDown bool
	lastX     int
	lastY     int
}

// Poll decodes this tick's input into zero or more actions, in the order
// they should be applied.
func (h *InputHandler) Poll() []Action {
	var actions []Action

	keys := []struct {
		key  ebiten.Key
		kind ActionKind
	}{
		{ebiten.KeyArrowLeft, ActionSelectLeft},
		{ebiten.KeyArrowRight, ActionSelectRight},
		{ebiten.KeyArrowUp, ActionSelectUp},
		{ebiten.KeyArrowDown, ActionSelectDown},
		{ebiten.KeyEnter, ActionOpenSelected},
		{ebiten.KeyEscape, ActionBack},
		{ebiten.KeyBackspace, ActionBack},
		{ebiten.Key1, ActionActualSize},
		{ebiten.KeyPageUp, ActionPageUp},
		{ebiten.KeyPageDown, ActionPageDown},
		{ebiten.KeyC, ActionCopyPath},
	}
	for _, k := range keys {
		if inpututil.IsKeyJustPressed(k.key) {
			actions = append(actions, Action{Kind: k.kind})
		}
	}

	if _, wy := ebiten.Wheel(); wy != 0 {
		actions = append(actions, Action{Kind: ActionZoom, Amount: wy})
	}

	x, y := ebiten.CursorPosition()
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		h.mouseDown = true
		h.lastX, h.lastY = x, y
	}
	if h.mouseDown && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if dx, dy := x-h.lastX, y-h.lastY; dx != 0 || dy != 0 {
			actions = append(actions, Action{
				Kind: ActionPan,
				DX:   float64(dx),
				DY:   float64(dy),
			})
			h.lastX, h.lastY = x, y
		}
	}
	if h.mouseDown && inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		h.mouseDown = false
		actions = append(actions, Action{
			Kind: ActionClick,
			X:    float64(x),
			Y:    float64(y),
		})
	}

	return actions
}
