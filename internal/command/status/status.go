package status

import (
	"flag"
	"fmt"
	"io"

	"github.com/keshon/cvc/internal/command"
	"github.com/keshon/cvc/internal/middleware"
	"github.com/keshon/cvc/internal/status"
	"github.com/keshon/cvc/internal/util"
)

type Command struct{}

func (c *Command) Name() string      { return "status" }
func (c *Command) Short() string     { return "S" }
func (c *Command) Aliases() []string { return []string{"st"} }
func (c *Command) Usage() string     { return "status [component...] [options]" }
func (c *Command) Brief() string     { return "Show the state of tracked components" }

func (c *Command) Help() string {
	return `Show the state of tracked components.

Directory-bound components are rescanned first: new files are added, removed
files dropped, and a one-to-one change is taken as a rename. The index is
rewritten when that changes anything.

Each component is reported as new, modified, staged or unchanged. A component
whose main file is gone is reported as an issue and left as it was; the other
components are still shown.

Options:
  -a, --all    Also list unchanged components.
  -j, --json   Machine-readable output.
  -q, --quiet  Only report issues.

Examples:
  cvc status
  cvc status utils/bar --json
`
}

func (c *Command) Subcommands() []command.Command { return nil }

func (c *Command) Flags(fs *flag.FlagSet) {
	fs.Bool("all", false, "list unchanged components")
	fs.Bool("a", false, "alias for --all")
	fs.Bool("json", false, "machine-readable output")
	fs.Bool("j", false, "alias for --json")
	fs.Bool("quiet", false, "only report issues")
	fs.Bool("q", false, "alias for --quiet")
}

func (c *Command) Run(ctx *command.Context) error {
	all := ctx.Bool("all") || ctx.Bool("a")
	asJSON := ctx.Bool("json") || ctx.Bool("j")
	quiet := ctx.Bool("quiet") || ctx.Bool("q")

	r, err := ctx.Repo()
	if err != nil {
		return err
	}
	rep, err := r.StatusOf(ctx, ctx.Args...)
	if err != nil {
		return err
	}

	if asJSON {
		data, err := util.MarshalJSON(toJSON(rep))
		if err != nil {
			return err
		}
		_, err = ctx.Out.Write(data)
		return err
	}

	groups := map[status.State][]status.Component{}
	for _, comp := range rep.Components {
		if comp.Err == nil {
			groups[comp.State] = append(groups[comp.State], comp)
		}
	}

	if !quiet {
		printGroup(ctx.Out, "new components", `(use "cvc tag" to record a snapshot)`, groups[status.New])
		printGroup(ctx.Out, "modified components", `(use "cvc tag" to record a snapshot)`, groups[status.Modified])
		printGroup(ctx.Out, "staged components", `(use "cvc export" to publish them)`, groups[status.Staged])
		if all {
			printGroup(ctx.Out, "unchanged components", "", groups[status.Unchanged])
		}
		if len(rep.Components) == 0 {
			fmt.Fprintln(ctx.Out, `nothing tracked (use "cvc add" to track components)`)
		} else if len(rep.Components) == len(groups[status.Unchanged]) && !all {
			fmt.Fprintln(ctx.Out, "nothing to tag, every component is unchanged")
		}
	}

	failed := rep.Failed()
	if len(failed) == 0 {
		return nil
	}
	fmt.Fprintln(ctx.Out, "components with issues")
	for _, comp := range failed {
		fmt.Fprintf(ctx.Out, "     > %s ... %v\n", comp.ID, comp.Err)
	}
	fmt.Fprintln(ctx.Out)
	return fmt.Errorf("%d component(s) with issues", len(failed))
}

func printGroup(w io.Writer, title, hint string, comps []status.Component) {
	if len(comps) == 0 {
		return
	}
	fmt.Fprintln(w, title)
	if hint != "" {
		fmt.Fprintln(w, hint)
	}
	fmt.Fprintln(w)
	for _, comp := range comps {
		fmt.Fprintf(w, "     > %s ... ok\n", comp.ID)
		if res := comp.Reconcile; res != nil {
			for _, p := range res.Added {
				fmt.Fprintf(w, "          added    %s\n", p)
			}
			for _, p := range res.Removed {
				fmt.Fprintf(w, "          removed  %s\n", p)
			}
			for _, rn := range res.Renamed {
				fmt.Fprintf(w, "          renamed  %s -> %s\n", rn.From, rn.To)
			}
		}
	}
	fmt.Fprintln(w)
}

type componentJSON struct {
	ID      string   `json:"id"`
	State   string   `json:"state,omitempty"`
	Error   string   `json:"error,omitempty"`
	Changes []string `json:"changes,omitempty"`
}

func toJSON(rep *status.Report) []componentJSON {
	out := make([]componentJSON, 0, len(rep.Components))
	for _, comp := range rep.Components {
		item := componentJSON{ID: comp.ID, Changes: comp.Changes}
		if comp.Err != nil {
			item.Error = comp.Err.Error()
		} else {
			item.State = comp.State.String()
		}
		out = append(out, item)
	}
	return out
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
