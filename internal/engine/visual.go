// File: internal/engine/visual.go
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/Tamas54/bravectl/internal/humanoid"
)

// Coordinates is a viewport-relative point supplied by the caller.
// Captured element positions go stale as soon as the page re-renders;
// callers should re-capture before acting on old coordinates.
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds is an element's viewport-relative box.
type Bounds struct {
	X       int `json:"x"`
	Y       int `json:"y"`
	Width   int `json:"width"`
	Height  int `json:"height"`
	CenterX int `json:"centerX,omitempty"`
	CenterY int `json:"centerY,omitempty"`
}

// VisualCaptchaParams drive one visual_captcha call.
type VisualCaptchaParams struct {
	Action      string
	Coordinates *Coordinates
	Text        string
	URL         string
}

// MouseControlParams drive one mouse_control call.
type MouseControlParams struct {
	Action   string
	X, Y     float64
	TargetX  float64
	TargetY  float64
	Duration time.Duration
	URL      string
}

// VisualInspectParams drive one visual_inspect call.
type VisualInspectParams struct {
	Mode  string
	Query string
	URL   string
}

const captchaCaptureJS = `(function() {
	const captcha = document.querySelector('.g-recaptcha, #captcha, [data-captcha], iframe[src*="recaptcha"], iframe[src*="captcha"]');
	const rect = captcha?.getBoundingClientRect();

	const clickables = Array.from(document.querySelectorAll('img, button, div[role="button"], canvas, .captcha-image, [class*="captcha"]'))
		.filter(el => {
			const r = el.getBoundingClientRect();
			return r.width > 0 && r.height > 0;
		})
		.map(el => {
			const r = el.getBoundingClientRect();
			return {
				tag: el.tagName,
				classes: el.className,
				text: el.textContent?.trim() || el.alt || el.title || '',
				bounds: {
					x: Math.round(r.x),
					y: Math.round(r.y),
					width: Math.round(r.width),
					height: Math.round(r.height),
					centerX: Math.round(r.x + r.width/2),
					centerY: Math.round(r.y + r.height/2)
				}
			};
		});

	return {
		captchaArea: rect ? {
			x: Math.round(rect.x),
			y: Math.round(rect.y),
			width: Math.round(rect.width),
			height: Math.round(rect.height)
		} : null,
		clickableElements: clickables,
		viewport: {
			width: window.innerWidth,
			height: window.innerHeight
		},
		pageTitle: document.title
	};
})()`

// CaptchaElements is the geometry snapshot taken by a capture call.
type CaptchaElements struct {
	CaptchaArea       *Bounds `json:"captchaArea"`
	ClickableElements []struct {
		Tag     string `json:"tag"`
		Classes string `json:"classes"`
		Text    string `json:"text"`
		Bounds  Bounds `json:"bounds"`
	} `json:"clickableElements"`
	Viewport struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"viewport"`
	PageTitle string `json:"pageTitle"`
}

// VisualCaptcha inspects or interacts with a CAPTCHA challenge. Each
// call runs on its own tab; pass URL to open the page first.
func (e *Engine) VisualCaptcha(ctx context.Context, params VisualCaptchaParams) (any, error) {
	p, err := e.openVisualPage(ctx, params.URL)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	switch params.Action {
	case "capture":
		screenshot, err := p.Screenshot(ctx, false)
		if err != nil {
			return nil, err
		}
		var elements CaptchaElements
		if err := p.Evaluate(ctx, captchaCaptureJS, &elements); err != nil {
			return nil, err
		}
		return map[string]any{
			"screenshot": screenshot,
			"elements":   elements,
			"hint":       "Screenshot taken. Element coordinates are in the 'elements' object. Use the brave_mouse_control tool to click!",
		}, nil

	case "click":
		if params.Coordinates == nil {
			return nil, fmt.Errorf("click needs coordinates")
		}
		target := humanoid.Point{X: params.Coordinates.X, Y: params.Coordinates.Y}
		if err := p.sim.ClickAt(ctx, target, humanoid.ButtonLeft, 1); err != nil {
			return nil, err
		}
		if err := e.humanDelay(ctx, 500*time.Millisecond, time.Second); err != nil {
			return nil, err
		}
		after, err := p.Screenshot(ctx, false)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"success":         true,
			"clicked":         params.Coordinates,
			"screenshotAfter": after,
			"message":         fmt.Sprintf("Clicked at x=%.0f, y=%.0f", params.Coordinates.X, params.Coordinates.Y),
		}, nil

	case "type":
		if params.Text == "" {
			return nil, fmt.Errorf("type needs text")
		}
		if params.Coordinates != nil {
			target := humanoid.Point{X: params.Coordinates.X, Y: params.Coordinates.Y}
			if err := p.sim.ClickAt(ctx, target, humanoid.ButtonLeft, 1); err != nil {
				return nil, err
			}
			if err := e.humanDelay(ctx, 100*time.Millisecond, 300*time.Millisecond); err != nil {
				return nil, err
			}
		}
		if err := p.sim.TypeText(ctx, params.Text); err != nil {
			return nil, err
		}
		return map[string]any{
			"success": true,
			"typed":   params.Text,
			"message": fmt.Sprintf("Typed: %q", params.Text),
		}, nil

	case "refresh":
		// A reload rotates the challenge.
		if err := p.Reload(ctx); err != nil {
			return nil, err
		}
		screenshot, err := p.Screenshot(ctx, false)
		if err != nil {
			return nil, err
		}
		var elements CaptchaElements
		if err := p.Evaluate(ctx, captchaCaptureJS, &elements); err != nil {
			return nil, err
		}
		return map[string]any{
			"screenshot": screenshot,
			"elements":   elements,
			"message":    "Page reloaded, fresh challenge captured",
		}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMouseAction, params.Action)
	}
}

const drawCursorJS = `(function(x, y) {
	const cursor = document.createElement('div');
	cursor.style.position = 'fixed';
	cursor.style.left = x + 'px';
	cursor.style.top = y + 'px';
	cursor.style.width = '20px';
	cursor.style.height = '20px';
	cursor.style.backgroundColor = 'red';
	cursor.style.borderRadius = '50%%';
	cursor.style.zIndex = '999999';
	cursor.style.pointerEvents = 'none';
	cursor.id = 'virtual-cursor';
	document.body.appendChild(cursor);
})(%f, %f)`

const removeCursorJS = `document.getElementById('virtual-cursor')?.remove()`

// MouseControl runs one humanized pointer action on a fresh tab.
func (e *Engine) MouseControl(ctx context.Context, params MouseControlParams) (any, error) {
	p, err := e.openVisualPage(ctx, params.URL)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	target := humanoid.Point{X: params.X, Y: params.Y}

	switch params.Action {
	case "move":
		if err := p.sim.MoveTo(ctx, target, params.Duration); err != nil {
			return nil, err
		}
		return mouseOK("move", target), nil

	case "click":
		if err := p.sim.ClickAt(ctx, target, humanoid.ButtonLeft, 1); err != nil {
			return nil, err
		}
		return mouseOK("click", target), nil

	case "doubleClick":
		if err := p.sim.ClickAt(ctx, target, humanoid.ButtonLeft, 2); err != nil {
			return nil, err
		}
		return mouseOK("doubleClick", target), nil

	case "rightClick":
		if err := p.sim.ClickAt(ctx, target, humanoid.ButtonRight, 1); err != nil {
			return nil, err
		}
		return mouseOK("rightClick", target), nil

	case "drag":
		if err := p.sim.MoveTo(ctx, target, 0); err != nil {
			return nil, err
		}
		dragDuration := params.Duration
		if dragDuration <= 0 {
			dragDuration = time.Second
		}
		dest := humanoid.Point{X: params.TargetX, Y: params.TargetY}
		if err := p.sim.DragTo(ctx, dest, dragDuration); err != nil {
			return nil, err
		}
		return map[string]any{
			"success": true,
			"action":  "drag",
			"from":    map[string]float64{"x": params.X, "y": params.Y},
			"to":      map[string]float64{"x": params.TargetX, "y": params.TargetY},
		}, nil

	case "hover":
		if err := p.sim.MoveTo(ctx, target, 0); err != nil {
			return nil, err
		}
		hold := params.Duration
		if hold <= 0 {
			hold = time.Second
		}
		if err := e.humanDelay(ctx, hold, hold+500*time.Millisecond); err != nil {
			return nil, err
		}
		return mouseOK("hover", target), nil

	case "screenshot_with_cursor":
		if err := p.Evaluate(ctx, fmt.Sprintf(drawCursorJS, params.X, params.Y), nil); err != nil {
			return nil, err
		}
		screenshot, err := p.Screenshot(ctx, false)
		if err != nil {
			return nil, err
		}
		if err := p.Evaluate(ctx, removeCursorJS, nil); err != nil {
			return nil, err
		}
		return map[string]any{
			"screenshot":     screenshot,
			"cursorPosition": map[string]float64{"x": params.X, "y": params.Y},
			"hint":           "The red dot marks the cursor position",
		}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMouseAction, params.Action)
	}
}

func mouseOK(action string, pos humanoid.Point) map[string]any {
	return map[string]any{
		"success":  true,
		"action":   action,
		"position": map[string]float64{"x": pos.X, "y": pos.Y},
	}
}

func (e *Engine) openVisualPage(ctx context.Context, url string) (*Page, error) {
	p, err := e.newPage(ctx)
	if err != nil {
		return nil, err
	}
	if url != "" {
		if err := p.Navigate(ctx, url, e.cfg.Network.NavigationTimeout); err != nil {
			p.Close()
			return nil, err
		}
	}
	return p, nil
}
