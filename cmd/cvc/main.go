package main

import (
	"log/slog"
	"os"

	"github.com/keshon/cvc/internal/command"
	_ "github.com/keshon/cvc/internal/command/builtin"
	"github.com/keshon/cvc/internal/logging"
)

func main() {
	slog.SetDefault(logging.New(os.Stderr, os.Getenv("CVC_LOG_LEVEL")))

	if len(os.Args) < 2 {
		os.Args = append(os.Args, "help")
	}
	command.RunCLI(os.Args[1:])
}
