package importcmd

import (
	"flag"
	"fmt"

	"github.com/keshon/cvc/internal/bitmap"
	"github.com/keshon/cvc/internal/command"
	"github.com/keshon/cvc/internal/middleware"
	"github.com/keshon/cvc/internal/repo"
)

type Command struct{}

func (c *Command) Name() string      { return "import" }
func (c *Command) Short() string     { return "I" }
func (c *Command) Aliases() []string { return []string{} }
func (c *Command) Usage() string     { return "import <id> --root <dir> --main <file> [file...]" }
func (c *Command) Brief() string     { return "Track an already materialized component" }
func (c *Command) Help() string {
	return `Track a component whose files were written into the workspace by a
dependency installer.

The component is bound to its root directory and its current content is
recorded as an exported snapshot, so it starts out unchanged. Files and the
main file are given relative to the root; without files everything under the
root is taken.

Options:
  -r, --root <dir>    Directory the component was written to.
  -m, --main <file>   Main file, relative to the root.
  -t, --tests <file>  Mark a file as a test (repeatable).

Examples:
  cvc import vendor/left-pad --root components/left-pad --main index.js
`
}

func (c *Command) Subcommands() []command.Command { return nil }

func (c *Command) Flags(fs *flag.FlagSet) {
	fs.String("root", "", "component root directory")
	fs.String("r", "", "alias for --root")
	fs.String("main", "", "main file relative to the root")
	fs.String("m", "", "alias for --main")
	fs.Var(&command.StringList{}, "tests", "test files relative to the root")
	fs.Var(&command.StringList{}, "t", "alias for --tests")
}

func (c *Command) Run(ctx *command.Context) error {
	if len(ctx.Args) == 0 {
		return fmt.Errorf("no component id given (usage: %s)", c.Usage())
	}
	root := ctx.String("root")
	if root == "" {
		root = ctx.String("r")
	}
	main := ctx.String("main")
	if main == "" {
		main = ctx.String("m")
	}
	if root == "" || main == "" {
		return fmt.Errorf("--root and --main are required (usage: %s)", c.Usage())
	}

	tests := map[string]bool{}
	for _, t := range append(ctx.Strings("tests"), ctx.Strings("t")...) {
		tests[t] = true
	}
	var files []bitmap.FileRecord
	for _, f := range ctx.Args[1:] {
		files = append(files, bitmap.NewFileRecord(f, tests[f]))
	}

	r, err := ctx.Repo()
	if err != nil {
		return err
	}
	snap, err := r.Import(ctx, repo.ImportSpec{
		ID:       ctx.Args[0],
		RootDir:  ctx.Path(root),
		MainFile: main,
		Files:    files,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "imported %s (%s, %d file(s))\n", snap.Component, snap.ID[:12], len(snap.Files))
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
