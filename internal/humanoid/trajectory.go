// File: internal/humanoid/trajectory.go
package humanoid

import (
	"context"
	"math"
	"time"
)

const defaultMoveDuration = 500 * time.Millisecond

// tremorAmplitude bounds the per-sample perturbation applied to
// intermediate trajectory points, in pixels either side of the curve.
const tremorAmplitude = 0.5

// MoveTo moves the cursor from the tracked position to target along a
// cubic Bezier curve. The two control points sit at the quarter and
// three-quarter points of the straight line, each offset by a bounded
// random jitter, which introduces natural curvature. The curve is sampled
// at the configured step interval; every intermediate sample receives a
// small random tremor, and the final sample lands exactly on the target.
func (h *Humanoid) MoveTo(ctx context.Context, target Point, duration time.Duration) error {
	return h.moveTo(ctx, target, duration, 0)
}

func (h *Humanoid) moveTo(ctx context.Context, target Point, duration time.Duration, heldButtons int64) error {
	if !h.cfg.Enabled {
		// Simulation off: jump straight to the target in one event.
		ev := MouseEvent{Type: MouseMoved, X: target.X, Y: target.Y, Button: ButtonNone, Buttons: heldButtons}
		if err := h.exec.DispatchMouseEvent(ctx, ev); err != nil {
			return err
		}
		h.mu.Lock()
		h.pos = target
		h.mu.Unlock()
		return nil
	}

	if duration <= 0 {
		duration = defaultMoveDuration
	}
	steps := int(math.Ceil(float64(duration) / float64(h.cfg.StepInterval)))
	if steps < 1 {
		steps = 1
	}

	h.mu.Lock()
	start := h.pos
	jitter := h.cfg.ControlJitterPx
	cp1 := Point{
		X: start.X + (target.X-start.X)*0.25 + (h.rng.Float64()-0.5)*2*jitter,
		Y: start.Y + (target.Y-start.Y)*0.25 + (h.rng.Float64()-0.5)*2*jitter,
	}
	cp2 := Point{
		X: start.X + (target.X-start.X)*0.75 + (h.rng.Float64()-0.5)*2*jitter,
		Y: start.Y + (target.Y-start.Y)*0.75 + (h.rng.Float64()-0.5)*2*jitter,
	}
	h.mu.Unlock()

	for i := 0; i <= steps; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		t := float64(i) / float64(steps)
		p := cubicBezier(start, cp1, cp2, target, t)

		// Tremor is omitted on the final sample so the path lands
		// exactly on the target.
		if i < steps {
			h.mu.Lock()
			p.X += (h.rng.Float64() - 0.5) * 2 * tremorAmplitude
			p.Y += (h.rng.Float64() - 0.5) * 2 * tremorAmplitude
			h.mu.Unlock()
		}

		ev := MouseEvent{Type: MouseMoved, X: p.X, Y: p.Y, Button: ButtonNone, Buttons: heldButtons}
		if err := h.exec.DispatchMouseEvent(ctx, ev); err != nil {
			return err
		}

		h.mu.Lock()
		h.pos = p
		h.mu.Unlock()

		if err := h.exec.Sleep(ctx, h.cfg.StepInterval); err != nil {
			return err
		}
	}
	return nil
}

// cubicBezier evaluates the curve defined by p0..p3 at parameter t.
func cubicBezier(p0, p1, p2, p3 Point, t float64) Point {
	omt := 1 - t
	omt2 := omt * omt
	omt3 := omt2 * omt
	t2 := t * t
	t3 := t2 * t
	return Point{
		X: omt3*p0.X + 3*omt2*t*p1.X + 3*omt*t2*p2.X + t3*p3.X,
		Y: omt3*p0.Y + 3*omt2*t*p1.Y + 3*omt*t2*p2.Y + t3*p3.Y,
	}
}
