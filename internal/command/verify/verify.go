package verify

import (
	"flag"
	"fmt"
	"time"

	"github.com/keshon/cvc/internal/command"
	"github.com/keshon/cvc/internal/middleware"
)

type Command struct{}

func (c *Command) Name() string      { return "verify" }
func (c *Command) Short() string     { return "V" }
func (c *Command) Aliases() []string { return []string{"check"} }
func (c *Command) Usage() string     { return "verify" }
func (c *Command) Brief() string     { return "Check index and snapshot integrity" }
func (c *Command) Help() string {
	return `Check every tracked component without changing anything.

Reports records that break index invariants, tracked files that are missing
from disk, and snapshots that cannot be read.
`
}

func (c *Command) Subcommands() []command.Command { return nil }
func (c *Command) Flags(fs *flag.FlagSet)         {}

func (c *Command) Run(ctx *command.Context) error {
	r, err := ctx.Repo()
	if err != nil {
		return err
	}

	start := time.Now()
	problems, err := r.Verify(ctx)
	if err != nil {
		return err
	}

	if len(problems) == 0 {
		fmt.Fprintf(ctx.Out, "\nAll components OK (%s)\n", time.Since(start).Truncate(time.Millisecond))
		return nil
	}
	fmt.Fprintln(ctx.Out)
	for _, p := range problems {
		fmt.Fprintf(ctx.Out, "  %s: %v\n", p.ID, p.Err)
	}
	return fmt.Errorf("%d problem(s) found", len(problems))
}

func init() {
	command.RegisterCommand(
		command.ApplyMiddlewares(
			&Command{},
			middleware.WithDebugArgsPrint(),
			middleware.WithWorkspaceCheck(),
		),
	)
}
