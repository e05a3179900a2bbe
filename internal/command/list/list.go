package list

import (
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/keshon/cvc/internal/command"
	"github.com/keshon/cvc/internal/middleware"
	"github.com/keshon/cvc/internal/util"
)

type Command struct{}

func (c *Command) Name() string      { return "list" }
func (c *Command) Short() string     { return "L" }
func (c *Command) Aliases() []string { return []string{"ls"} }
func (c *Command) Usage() string     { return "list [options]" }
func (c *Command) Brief() string     { return "List tracked components" }
func (c *Command) Help() string {
	return `List tracked components in index order.

Reads the index and the snapshot store only; the working tree is not scanned.

Options:
  -j, --json   Machine-readable output.

Examples:
  cvc list
  cvc ls --json
`
}

func (c *Command) Subcommands() []command.Command { return nil }

func (c *Command) Flags(fs *flag.FlagSet) {
	fs.Bool("json", false, "machine-readable output")
	fs.Bool("j", false, "alias for --json")
}

type summaryJSON struct {
	ID       string `json:"id"`
	Binding  string `json:"binding"`
	MainFile string `json:"mainFile"`
	Files    int    `json:"files"`
	Tests    int    `json:"tests"`
	Snapshot string `json:"snapshot,omitempty"`
	Pending  bool   `json:"pending,omitempty"`
}

func (c *Command) Run(ctx *command.Context) error {
	r, err := ctx.Repo()
	if err != nil {
		return err
	}
	summaries, err := r.List()
	if err != nil {
		return err
	}

	if ctx.Bool("json") || ctx.Bool("j") {
		out := make([]summaryJSON, 0, len(summaries))
		for _, s := range summaries {
			out = append(out, summaryJSON{
				ID:       s.ID,
				Binding:  s.Binding.String(),
				MainFile: s.MainFile,
				Files:    s.Files,
				Tests:    s.Tests,
				Snapshot: s.Snapshot,
				Pending:  s.Pending,
			})
		}
		data, err := util.MarshalJSON(out)
		if err != nil {
			return err
		}
		_, err = ctx.Out.Write(data)
		return err
	}

	if len(summaries) == 0 {
		fmt.Fprintln(ctx.Out, "no components tracked")
		return nil
	}

	tw := tabwriter.NewWriter(ctx.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBINDING\tMAIN\tFILES\tSNAPSHOT")
	for _, s := range summaries {
		snap := "-"
		if s.Snapshot != "" {
			snap = s.Snapshot[:12]
			if s.Pending {
				snap += " (pending)"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", s.ID, s.Binding, s.MainFile, s.Files, snap)
	}
	return tw.Flush()
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
