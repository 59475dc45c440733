// File: internal/humanoid/humanoid.go
package humanoid

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Tamas54/bravectl/internal/config"
)

// MouseEventType mirrors the CDP input event type strings.
type MouseEventType string

const (
	MouseMoved    MouseEventType = "mouseMoved"
	MousePressed  MouseEventType = "mousePressed"
	MouseReleased MouseEventType = "mouseReleased"
)

// MouseButton mirrors the CDP mouse button strings.
type MouseButton string

const (
	ButtonNone  MouseButton = "none"
	ButtonLeft  MouseButton = "left"
	ButtonRight MouseButton = "right"
)

// MouseEvent is a browser-agnostic mouse event. The Executor adapts it to
// the concrete driver protocol.
type MouseEvent struct {
	Type       MouseEventType
	X, Y       float64
	Button     MouseButton
	Buttons    int64 // bitfield of held buttons during a move
	ClickCount int
}

// Point is a viewport coordinate.
type Point struct {
	X, Y float64
}

// Executor abstracts the low-level input dispatch so the trajectory and
// timing logic stays independent of the browser driver.
type Executor interface {
	DispatchMouseEvent(ctx context.Context, ev MouseEvent) error
	SendKeys(ctx context.Context, keys string) error
	Sleep(ctx context.Context, d time.Duration) error
}

// Humanoid generates human-like pointer trajectories and keystroke timing.
// It owns no retry logic; it is a pure trajectory/timing generator layered
// under whatever operation invokes it.
type Humanoid struct {
	cfg    config.HumanoidConfig
	exec   Executor
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
	pos Point
}

// New creates a Humanoid. A nil rng seeds one from the clock; tests inject
// a fixed-seed source for determinism.
func New(cfg config.HumanoidConfig, exec Executor, logger *zap.Logger, rng *rand.Rand) *Humanoid {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.StepInterval <= 0 {
		cfg.StepInterval = 20 * time.Millisecond
	}
	if cfg.ControlJitterPx <= 0 {
		cfg.ControlJitterPx = 25.0
	}
	return &Humanoid{
		cfg:    cfg,
		exec:   exec,
		logger: logger,
		rng:    rng,
	}
}

// Position returns the tracked cursor position.
func (h *Humanoid) Position() Point {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pos
}

// SetPosition resets the tracked cursor position. Navigation discards the
// in-page listeners that track the cursor, so callers reset to the origin
// after every page load.
func (h *Humanoid) SetPosition(p Point) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pos = p
}

// Pause sleeps a uniformly random duration in [min, max]. A disabled
// simulator does not pause at all.
func (h *Humanoid) Pause(ctx context.Context, min, max time.Duration) error {
	if !h.cfg.Enabled {
		return nil
	}
	h.mu.Lock()
	d := min + time.Duration(h.rng.Float64()*float64(max-min))
	h.mu.Unlock()
	return h.exec.Sleep(ctx, d)
}

// ClickAt moves the cursor to p along a generated trajectory, pauses
// briefly, then presses and releases the given button.
func (h *Humanoid) ClickAt(ctx context.Context, p Point, button MouseButton, clickCount int) error {
	if err := h.MoveTo(ctx, p, 0); err != nil {
		return err
	}
	if err := h.Pause(ctx, 100*time.Millisecond, 300*time.Millisecond); err != nil {
		return err
	}
	if clickCount < 1 {
		clickCount = 1
	}
	press := MouseEvent{Type: MousePressed, X: p.X, Y: p.Y, Button: button, ClickCount: clickCount}
	if err := h.exec.DispatchMouseEvent(ctx, press); err != nil {
		return err
	}
	release := MouseEvent{Type: MouseReleased, X: p.X, Y: p.Y, Button: button, ClickCount: clickCount}
	return h.exec.DispatchMouseEvent(ctx, release)
}

// DragTo presses the left button at the current position, moves to target
// with the button held, and releases.
func (h *Humanoid) DragTo(ctx context.Context, target Point, duration time.Duration) error {
	start := h.Position()
	press := MouseEvent{Type: MousePressed, X: start.X, Y: start.Y, Button: ButtonLeft, ClickCount: 1}
	if err := h.exec.DispatchMouseEvent(ctx, press); err != nil {
		return err
	}
	if err := h.moveTo(ctx, target, duration, 1); err != nil {
		return err
	}
	release := MouseEvent{Type: MouseReleased, X: target.X, Y: target.Y, Button: ButtonLeft, ClickCount: 1}
	return h.exec.DispatchMouseEvent(ctx, release)
}
