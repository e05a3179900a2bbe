package add

import (
	"flag"
	"fmt"

	"github.com/keshon/cvc/internal/command"
	"github.com/keshon/cvc/internal/middleware"
	"github.com/keshon/cvc/internal/track"
)

type Command struct{}

func (c *Command) Name() string      { return "add" }
func (c *Command) Short() string     { return "a" }
func (c *Command) Aliases() []string { return []string{"track"} }
func (c *Command) Usage() string     { return "add <file|dir|glob>... [options]" }
func (c *Command) Brief() string     { return "Track files or directories as components" }
func (c *Command) Help() string {
	return `Track files or directories as components.

A single directory added without excludes stays bound to that directory:
files created, removed or renamed inside it are picked up on the next status.
Adding a file outside the bound directory turns the component into an
explicit file list for good.

Options:
  -i, --id <id>          Component id. Groups all targets into one component.
                         Defaults to the directory path, or the file path
                         without extension.
  -m, --main <file>      Main file, as a workspace path or relative to the
                         target directory.
  -t, --tests <pattern>  Mark matching files as tests (repeatable, gitignore syntax).
  -e, --exclude <pattern>
                         Leave matching files out (repeatable, gitignore syntax).

Examples:
  cvc add utils/bar
  cvc add utils/bar -m foo.js
  cvc add 'utils/**'
  cvc add utils/a.js --id utils/bar
  cvc add utils/bar --exclude foo2.js --tests '*.spec.js'
`
}

func (c *Command) Subcommands() []command.Command { return nil }

func (c *Command) Flags(fs *flag.FlagSet) {
	fs.String("id", "", "component id")
	fs.String("i", "", "alias for --id")
	fs.String("main", "", "main file")
	fs.String("m", "", "alias for --main")
	fs.Var(&command.StringList{}, "tests", "test file patterns")
	fs.Var(&command.StringList{}, "t", "alias for --tests")
	fs.Var(&command.StringList{}, "exclude", "excluded file patterns")
	fs.Var(&command.StringList{}, "e", "alias for --exclude")
}

func (c *Command) Run(ctx *command.Context) error {
	if len(ctx.Args) == 0 {
		return fmt.Errorf("nothing specified, nothing added (usage: %s)", c.Usage())
	}

	targets := make([]string, len(ctx.Args))
	for i, arg := range ctx.Args {
		targets[i] = ctx.Path(arg)
	}

	opts := track.Options{
		Targets: targets,
		ID:      first(ctx.String("id"), ctx.String("i")),
		Main:    first(ctx.String("main"), ctx.String("m")),
		Tests:   append(ctx.Strings("tests"), ctx.Strings("t")...),
		Exclude: append(ctx.Strings("exclude"), ctx.Strings("e")...),
	}

	r, err := ctx.Repo()
	if err != nil {
		return err
	}
	res, err := r.Add(ctx, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Out, "tracking %d component(s)\n", len(res.Changes))
	for _, ch := range res.Changes {
		verb := "updated"
		if ch.Created {
			verb = "added"
		}
		fmt.Fprintf(ctx.Out, "  %s %s (%d new file(s), main: %s)\n", verb, ch.ID, len(ch.Added), ch.Record.MainFile())
		if ch.Detached {
			fmt.Fprintf(ctx.Out, "    no longer bound to a directory\n")
		}
	}
	return nil
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
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
