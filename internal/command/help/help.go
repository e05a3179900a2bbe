package help

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/keshon/cvc/internal/command"
	"github.com/keshon/cvc/internal/middleware"
)

type Command struct{}

func (c *Command) Name() string      { return "help" }
func (c *Command) Short() string     { return "H" }
func (c *Command) Aliases() []string { return []string{"h", "?"} }
func (c *Command) Usage() string     { return "help [command]" }
func (c *Command) Brief() string     { return "Show help for commands" }
func (c *Command) Help() string {
	return `Display help information for commands.

Usage:
  help          List all commands.
  help <name>   Show detailed help for a specific command.`
}

func (c *Command) Subcommands() []command.Command { return nil }
func (c *Command) Flags(fs *flag.FlagSet)         {}

func (c *Command) Run(ctx *command.Context) error {
	if len(ctx.Args) > 0 {
		return commandHelp(ctx.Out, strings.ToLower(ctx.Args[0]))
	}
	listAll(ctx.Out)
	return nil
}

// commandHelp shows detailed help for a specific command
func commandHelp(w io.Writer, name string) error {
	cmd, ok := command.GetCommand(name)
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}

	if usage := cmd.Usage(); usage != "" {
		fmt.Fprintf(w, "Usage: cvc %s\n\n", usage)
	}
	fmt.Fprintf(w, "%s\n", strings.TrimRight(cmd.Help(), "\n"))

	if aliases := cmd.Aliases(); len(aliases) > 0 {
		fmt.Fprintf(w, "\nAliases: %s\n", strings.Join(aliases, ", "))
	}
	return nil
}

// listAll lists all commands in a Git-style layout
func listAll(w io.Writer) {
	commands := command.AllCommands()

	fmt.Fprint(w, "Available commands:\n\n")
	longest := 0
	for _, cmd := range commands {
		if l := len(cmd.Name()); l > longest {
			longest = l
		}
	}

	for _, cmd := range commands {
		desc := cmd.Brief()
		if desc == "" {
			desc = "-"
		}
		padding := strings.Repeat(" ", longest-len(cmd.Name())+2)
		fmt.Fprintf(w, "  %s%s%s\n", cmd.Name(), padding, desc)
	}

	fmt.Fprintln(w, "\nType 'cvc help <command>' to see detailed information about a specific command.")
}

func init() {
	command.RegisterCommand(
		command.ApplyMiddlewares(
			&Command{},
			middleware.WithDebugArgsPrint(),
		),
	)
}
