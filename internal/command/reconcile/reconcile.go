package reconcile

import (
	"flag"
	"fmt"
	"sort"

	"github.com/keshon/cvc/internal/command"
	"github.com/keshon/cvc/internal/middleware"
	rc "github.com/keshon/cvc/internal/reconcile"
)

type Command struct{}

func (c *Command) Name() string      { return "reconcile" }
func (c *Command) Short() string     { return "R" }
func (c *Command) Aliases() []string { return []string{"sync"} }
func (c *Command) Usage() string     { return "reconcile [options]" }
func (c *Command) Brief() string     { return "Bring directory-bound components up to date" }
func (c *Command) Help() string {
	return `Rescan every directory-bound component and update the index.

This is the same pass status runs first, without the classification. With
--dry-run the changes are reported but not saved.

Options:
  -n, --dry-run   Report changes without saving the index.

Examples:
  cvc reconcile
  cvc reconcile -n
`
}

func (c *Command) Subcommands() []command.Command { return nil }

func (c *Command) Flags(fs *flag.FlagSet) {
	fs.Bool("dry-run", false, "report without saving")
	fs.Bool("n", false, "alias for --dry-run")
}

func (c *Command) Run(ctx *command.Context) error {
	dryRun := ctx.Bool("dry-run") || ctx.Bool("n")

	r, err := ctx.Repo()
	if err != nil {
		return err
	}

	var rep *rc.Report
	if dryRun {
		ix, err := r.Load()
		if err != nil {
			return err
		}
		rep, err = r.Reconciler.Index(ctx, ix)
		if err != nil {
			return err
		}
	} else {
		rep, err = r.Reconcile(ctx)
		if err != nil {
			return err
		}
	}

	ids := make([]string, 0, len(rep.Results)+len(rep.Errors))
	for id := range rep.Results {
		ids = append(ids, id)
	}
	for id := range rep.Errors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	changed := 0
	for _, id := range ids {
		if err, ok := rep.Errors[id]; ok {
			fmt.Fprintf(ctx.Out, "  %s: %v\n", id, err)
			continue
		}
		res := rep.Results[id]
		if !res.Changed() {
			continue
		}
		changed++
		fmt.Fprintf(ctx.Out, "  %s: %d added, %d removed, %d renamed\n", id, len(res.Added), len(res.Removed), len(res.Renamed))
	}

	if dryRun {
		fmt.Fprintf(ctx.Out, "%d component(s) would be updated\n", changed)
	} else {
		fmt.Fprintf(ctx.Out, "%d component(s) updated\n", changed)
	}
	if len(rep.Errors) > 0 {
		return fmt.Errorf("%d component(s) could not be reconciled", len(rep.Errors))
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
