package flow

import (
	"context"
	"time"
)

// RedirectCommand describes a navigation the caller should perform after a
// successful exchange. It is data, not an action: the HTTP layer renders it
// as a refresh header/meta tag, and programmatic embeddings run Execute.
type RedirectCommand struct {
	Target string
	Delay  time.Duration
}

// Execute waits for the command's delay and then invokes navigate exactly
// once. Cancelling ctx before the delay elapses (the page was torn down)
// suppresses the navigation entirely.
func (rc *RedirectCommand) Execute(ctx context.Context, navigate func(target string)) {
	timer := time.NewTimer(rc.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		navigate(rc.Target)
	case <-ctx.Done():
	}
}
