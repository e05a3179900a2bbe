package middleware

import (
	"errors"
	"fmt"

	"github.com/keshon/cvc/internal/bitmap"
	"github.com/keshon/cvc/internal/command"
)

// WithWorkspaceCheck refuses to run unless the working directory is inside a
// workspace whose index can be read.
func WithWorkspaceCheck() command.Middleware {
	return command.Around(func(ctx *command.Context, next command.Command) error {
		r, err := ctx.Repo()
		if err != nil {
			return fmt.Errorf("%w\nRun `cvc init` in the workspace root first", err)
		}
		if _, err := r.Load(); err != nil {
			if errors.Is(err, bitmap.ErrCorruptIndex) {
				return fmt.Errorf("workspace index is unreadable: %w\nFix or remove %s before continuing", err, r.Config.IndexPath())
			}
			return err
		}
		return next.Run(ctx)
	})
}
