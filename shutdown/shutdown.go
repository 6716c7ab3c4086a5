package shutdown

import (
	"context"
	"os"
	"os/signal"

	"itinera/log"
)

func Notify(ch chan os.Signal) {
	signal.Notify(ch, signals...)
}

// WithCancel returns a context cancelled by the first termination signal
// or by the returned cancel func.
func WithCancel(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 1)
	Notify(ch)
	go func() {
		defer signal.Stop(ch)
		select {
		case sig := <-ch:
			log.Info("signal_received: " + sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
