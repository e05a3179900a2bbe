package log

import (
	"flag"
	"fmt"

	"github.com/keshon/cvc/internal/command"
	"github.com/keshon/cvc/internal/middleware"
)

type Command struct{}

func (c *Command) Name() string      { return "log" }
func (c *Command) Short() string     { return "G" }
func (c *Command) Aliases() []string { return []string{"history"} }
func (c *Command) Usage() string     { return "log <component> [options]" }
func (c *Command) Brief() string     { return "Show the snapshot history of a component" }
func (c *Command) Help() string {
	return `Show the snapshots of a component, latest first.

Untracked components keep their history until untracked with --purge.

Options:
  -n, --max-count <n>   Show at most n snapshots.
  -o, --oneline         One line per snapshot.

Examples:
  cvc log utils/bar
  cvc log utils/bar -n 3 --oneline
`
}

func (c *Command) Subcommands() []command.Command { return nil }

func (c *Command) Flags(fs *flag.FlagSet) {
	fs.Int("max-count", 0, "limit the number of snapshots")
	fs.Int("n", 0, "alias for --max-count")
	fs.Bool("oneline", false, "one line per snapshot")
	fs.Bool("o", false, "alias for --oneline")
}

func (c *Command) Run(ctx *command.Context) error {
	if len(ctx.Args) != 1 {
		return fmt.Errorf("exactly one component expected (usage: %s)", c.Usage())
	}
	id := ctx.Args[0]
	limit := ctx.Int("max-count")
	if n := ctx.Int("n"); n > 0 {
		limit = n
	}
	oneline := ctx.Bool("oneline") || ctx.Bool("o")

	r, err := ctx.Repo()
	if err != nil {
		return err
	}
	history, err := r.History(id)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Fprintf(ctx.Out, "%s has no snapshots yet\n", id)
		return nil
	}
	if limit > 0 && limit < len(history) {
		history = history[:limit]
	}

	for _, snap := range history {
		state := "exported"
		if snap.Pending() {
			state = "pending"
		}
		if oneline {
			fmt.Fprintf(ctx.Out, "%s %s %d file(s) (%s)\n", snap.ID[:12], snap.Timestamp, len(snap.Files), state)
			continue
		}
		fmt.Fprintf(ctx.Out, "snapshot %s (%s)\n", snap.ID, state)
		fmt.Fprintf(ctx.Out, "Date:  %s\n", snap.Timestamp)
		fmt.Fprintf(ctx.Out, "Main:  %s\n", snap.MainFile)
		fmt.Fprintf(ctx.Out, "Files: %d\n\n", len(snap.Files))
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
