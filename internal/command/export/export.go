package export

import (
	"flag"
	"fmt"

	"github.com/keshon/cvc/internal/command"
	"github.com/keshon/cvc/internal/middleware"
)

type Command struct{}

func (c *Command) Name() string      { return "export" }
func (c *Command) Short() string     { return "E" }
func (c *Command) Aliases() []string { return []string{"publish"} }
func (c *Command) Usage() string     { return "export [component...]" }
func (c *Command) Brief() string     { return "Mark staged snapshots as published" }
func (c *Command) Help() string {
	return `Mark the latest snapshot of staged components as published.

Without arguments every staged component is exported. Naming a component
that was never tagged is an error.

Examples:
  cvc export
  cvc export utils/bar
`
}

func (c *Command) Subcommands() []command.Command { return nil }
func (c *Command) Flags(fs *flag.FlagSet)         {}

func (c *Command) Run(ctx *command.Context) error {
	r, err := ctx.Repo()
	if err != nil {
		return err
	}
	ids, err := r.Export(ctx, ctx.Args...)
	for _, id := range ids {
		fmt.Fprintf(ctx.Out, "exported %s\n", id)
	}
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(ctx.Out, "nothing to export")
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
