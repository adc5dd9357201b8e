package middleware

import (
	"context"

	"rentnow/internal/app/commands"
	"rentnow/internal/app/outbox"
)

// OutboxFlush opens a per-command event buffer and flushes it once the inner
// chain (including the transaction) succeeded.
func OutboxFlush(box outbox.Outbox) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			ctx = outbox.WithBuffer(ctx)
			res, err := nextFn(ctx, cmd)
			if err != nil {
				if d, ok := box.(interface{ Discard(context.Context) }); ok {
					d.Discard(ctx)
				}
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				return nil, err
			}
			return res, nil
		})
	}
}
