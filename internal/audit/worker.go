package audit

import (
	"context"
	"time"
)

// Run delivers queued events until ctx is done, then makes one last
// bounded attempt to drain the buffer. It always returns nil.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.writeTimeout)
			p.Flush(drainCtx)
			cancel()
			return nil
		case <-p.notify:
			p.Flush(ctx)
		case <-ticker.C:
			p.Flush(ctx)
		}
	}
}
