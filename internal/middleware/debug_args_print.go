package middleware

import (
	"log/slog"

	"github.com/keshon/cvc/internal/command"
)

// WithDebugArgsPrint logs the resolved command and its arguments at debug level.
func WithDebugArgsPrint() command.Middleware {
	return command.Around(func(ctx *command.Context, next command.Command) error {
		slog.Debug("running command", "command", next.Name(), "args", ctx.Args, "dir", ctx.WorkDir)
		return next.Run(ctx)
	})
}
