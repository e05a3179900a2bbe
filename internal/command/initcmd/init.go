package initcmd

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/keshon/cvc/internal/command"
	"github.com/keshon/cvc/internal/middleware"
	"github.com/keshon/cvc/internal/repo"
)

type Command struct{}

func (c *Command) Name() string      { return "init" }
func (c *Command) Short() string     { return "i" }
func (c *Command) Aliases() []string { return []string{"initialize"} }
func (c *Command) Usage() string     { return "init [options]" }
func (c *Command) Brief() string     { return "Initialize a new workspace" }
func (c *Command) Help() string {
	return `Initialize a workspace in the current directory.

Creates .cvc/ with an empty index, the snapshot store and a default
config.yaml. Running it again in an existing workspace changes nothing.

Options:
  -q, --quiet   Suppress normal output.

Examples:
  cvc init
  cvc init -q
`
}

func (c *Command) Subcommands() []command.Command { return nil }

func (c *Command) Flags(fs *flag.FlagSet) {
	fs.Bool("quiet", false, "suppress output")
	fs.Bool("q", false, "alias for --quiet")
}

func (c *Command) Run(ctx *command.Context) error {
	quiet := ctx.Bool("quiet") || ctx.Bool("q")

	r, created, err := repo.InitAt(ctx.FS, ctx.WorkDir, repo.WithOutput(ctx.Out))
	if err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}

	if !quiet {
		if created {
			fmt.Fprintf(ctx.Out, "Initialized empty workspace in %q\n", r.Config.RepoDir())
		} else {
			fmt.Fprintf(ctx.Out, "Reinitialized existing workspace in %q\n", r.Config.RepoDir())
		}
	}
	return nil
}

func init() {
	command.RegisterCommand(
		command.ApplyMiddlewares(
			&Command{},
			middleware.WithDebugArgsPrint(),
		),
	)
}
