package untrack

import (
	"flag"
	"fmt"

	"github.com/keshon/cvc/internal/command"
	"github.com/keshon/cvc/internal/middleware"
)

type Command struct{}

func (c *Command) Name() string      { return "untrack" }
func (c *Command) Short() string     { return "U" }
func (c *Command) Aliases() []string { return []string{"rm"} }
func (c *Command) Usage() string     { return "untrack <component>... [options]" }
func (c *Command) Brief() string     { return "Stop tracking components" }
func (c *Command) Help() string {
	return `Remove components from the index.

Files on disk are left alone. Recorded snapshots are kept, so re-adding the
component continues its history, unless --purge is given. Every named
component must exist, otherwise nothing is removed.

Options:
  -p, --purge   Also delete the component's snapshots.

Examples:
  cvc untrack utils/bar
  cvc untrack utils/bar --purge
`
}

func (c *Command) Subcommands() []command.Command { return nil }

func (c *Command) Flags(fs *flag.FlagSet) {
	fs.Bool("purge", false, "delete snapshots too")
	fs.Bool("p", false, "alias for --purge")
}

func (c *Command) Run(ctx *command.Context) error {
	if len(ctx.Args) == 0 {
		return fmt.Errorf("no component specified (usage: %s)", c.Usage())
	}
	r, err := ctx.Repo()
	if err != nil {
		return err
	}
	if err := r.Untrack(ctx.Bool("purge") || ctx.Bool("p"), ctx.Args...); err != nil {
		return err
	}
	for _, id := range ctx.Args {
		fmt.Fprintf(ctx.Out, "untracked %s\n", id)
	}
	return nil
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
