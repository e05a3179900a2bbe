package command

import (
	"context"
	"flag"
	"io"
	"path/filepath"
	"strings"

	"github.com/keshon/cvc/internal/fs"
	"github.com/keshon/cvc/internal/repo"
)

// Command represents a cli command
type Command interface {
	Name() string
	Short() string
	Aliases() []string
	Usage() string
	Brief() string
	Help() string
	Subcommands() []Command
	Flags(fs *flag.FlagSet)
	Run(ctx *Context) error
}

// Context is handed to a running command. It carries cancellation, so it can
// be passed wherever a context.Context is expected.
type Context struct {
	context.Context
	Args    []string
	Flags   *flag.FlagSet
	Out     io.Writer
	WorkDir string
	FS      fs.FS
}

// Repo opens the workspace containing WorkDir.
func (c *Context) Repo() (*repo.Repository, error) {
	return repo.Open(c.FS, c.WorkDir, repo.WithOutput(c.Out))
}

// Path resolves a path given on the command line against WorkDir.
func (c *Context) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.WorkDir, p)
}

func (c *Context) Bool(name string) bool {
	if f := c.Flags.Lookup(name); f != nil {
		if v, ok := f.Value.(flag.Getter).Get().(bool); ok {
			return v
		}
	}
	return false
}

func (c *Context) Int(name string) int {
	if f := c.Flags.Lookup(name); f != nil {
		if v, ok := f.Value.(flag.Getter).Get().(int); ok {
			return v
		}
	}
	return 0
}

func (c *Context) String(name string) string {
	if f := c.Flags.Lookup(name); f != nil {
		return f.Value.String()
	}
	return ""
}

// Strings returns the values collected by a StringList flag.
func (c *Context) Strings(name string) []string {
	if f := c.Flags.Lookup(name); f != nil {
		if l, ok := f.Value.(*StringList); ok {
			return append([]string(nil), *l...)
		}
	}
	return nil
}

// StringList is a repeatable flag; each value may also hold comma-separated items.
type StringList []string

func (l *StringList) String() string { return strings.Join(*l, ",") }

func (l *StringList) Set(v string) error {
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			*l = append(*l, item)
		}
	}
	return nil
}

func (l *StringList) Get() any { return []string(*l) }
