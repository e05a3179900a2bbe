package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/keshon/cvc/internal/fs"
)

// Run resolves args to a command, parses its flags, and runs it against the
// workspace around workDir. Flags may appear before or after positional arguments.
func Run(ctx context.Context, fsys fs.FS, args []string, out io.Writer, workDir string) error {
	if len(args) == 0 {
		return fmt.Errorf("no command provided")
	}

	node, remaining, err := ResolveCommand(args)
	if err != nil {
		return err
	}
	cmd := node.Cmd

	flags := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	cmd.Flags(flags)
	positional, err := parseInterspersed(flags, remaining)
	if err != nil {
		return fmt.Errorf("%s: %w (usage: %s)", cmd.Name(), err, cmd.Usage())
	}

	return cmd.Run(&Context{
		Context: ctx,
		Args:    positional,
		Flags:   flags,
		Out:     out,
		WorkDir: workDir,
		FS:      fsys,
	})
}

func parseInterspersed(flags *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := flags.Parse(args); err != nil {
			return nil, err
		}
		rest := flags.Args()
		// Parse swallows a "--" terminator; everything after it is positional.
		if n := len(args) - len(rest); n > 0 && args[n-1] == "--" {
			return append(positional, rest...), nil
		}
		args = rest
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// RunCLI is the main entrypoint for executing commands.
// It runs in the current directory and exits non-zero on failure.
func RunCLI(args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	if err := Run(ctx, fs.NewOSFS(), args, os.Stdout, wd); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
