package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/MrWong99/lookout/internal/sampler"
)

// inputCloser is implemented by listeners whose input can run out, such as
// the console listener at EOF.
type inputCloser interface {
	Closed() <-chan struct{}
}

// TriggerLoop re-triggers the orchestrator every time it returns to idle,
// so a console listener behaves like an always-on microphone: each typed
// line starts a new session. Triggers rejected by the debounce window are
// retried after the window. TriggerLoop returns when ctx is done, or with nil
// once the listener's input is exhausted.
func (a *App) TriggerLoop(ctx context.Context) error {
	retry := a.cfg.Session.Debounce
	if retry <= 0 {
		retry = 100 * time.Millisecond
	}
	var closed <-chan struct{}
	if c, ok := a.providers.Listener.(inputCloser); ok {
		closed = c.Closed()
	}

	slog.Info("app: console trigger loop started")
	for {
		select {
		case <-closed:
			slog.Info("app: listener input closed, stopping trigger loop")
			return nil
		default:
		}

		if !a.orch.Trigger(ctx) {
			if err := sampler.Sleep(ctx, retry); err != nil {
				return err
			}
			continue
		}
		if err := a.orch.Wait(ctx); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}
