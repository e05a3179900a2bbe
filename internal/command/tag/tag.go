package tag

import (
	"flag"
	"fmt"
	"sort"

	"github.com/keshon/cvc/internal/command"
	"github.com/keshon/cvc/internal/middleware"
)

type Command struct{}

func (c *Command) Name() string      { return "tag" }
func (c *Command) Short() string     { return "T" }
func (c *Command) Aliases() []string { return []string{"snapshot"} }
func (c *Command) Usage() string     { return "tag [component...]" }
func (c *Command) Brief() string     { return "Record snapshots of new and modified components" }
func (c *Command) Help() string {
	return `Record a snapshot of every new or modified component.

Without arguments all components are considered. Unchanged and staged
components are skipped. A component that cannot be captured, for example
because its main file is missing, is reported and the others are still tagged.

Examples:
  cvc tag
  cvc tag utils/bar utils/baz
`
}

func (c *Command) Subcommands() []command.Command { return nil }
func (c *Command) Flags(fs *flag.FlagSet)         {}

func (c *Command) Run(ctx *command.Context) error {
	r, err := ctx.Repo()
	if err != nil {
		return err
	}
	res, err := r.Tag(ctx, ctx.Args...)
	if err != nil {
		return err
	}

	if len(res.Tagged) == 0 && len(res.Failed) == 0 {
		fmt.Fprintln(ctx.Out, "nothing to tag")
		return nil
	}
	for _, snap := range res.Tagged {
		fmt.Fprintf(ctx.Out, "tagged %s (%s, %d file(s))\n", snap.Component, snap.ID[:12], len(snap.Files))
	}
	if len(res.Failed) == 0 {
		return nil
	}

	ids := make([]string, 0, len(res.Failed))
	for id := range res.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(ctx.Out, "failed %s: %v\n", id, res.Failed[id])
	}
	return fmt.Errorf("%d component(s) could not be tagged", len(ids))
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
