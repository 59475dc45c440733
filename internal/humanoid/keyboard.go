// File: internal/humanoid/keyboard.go
package humanoid

import (
	"context"
	"time"
)

// TypeText sends text one character at a time with a randomized per-key
// delay and an occasional longer pause, approximating a human typing
// cadence. The element to receive the keys must already be focused.
func (h *Humanoid) TypeText(ctx context.Context, text string) error {
	if !h.cfg.Enabled {
		return h.exec.SendKeys(ctx, text)
	}

	minDelay := time.Duration(h.cfg.KeyDelayMinMs) * time.Millisecond
	maxDelay := time.Duration(h.cfg.KeyDelayMaxMs) * time.Millisecond
	if maxDelay < minDelay {
		maxDelay = minDelay
	}

	for _, r := range text {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := h.exec.SendKeys(ctx, string(r)); err != nil {
			return err
		}
		if err := h.Pause(ctx, minDelay, maxDelay); err != nil {
			return err
		}

		h.mu.Lock()
		pause := h.rng.Float64() < h.cfg.PauseChance
		h.mu.Unlock()
		if pause {
			if err := h.Pause(ctx, 100*time.Millisecond, 300*time.Millisecond); err != nil {
				return err
			}
		}
	}
	return nil
}
