// Package ignore decides which workspace paths are invisible to tracking.
//
// Paths handed to an Evaluator are slash-separated and relative to the
// working tree root. Directories may be checked with a trailing slash.
package ignore

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/keshon/cvc/internal/config"
	"github.com/keshon/cvc/internal/fs"
)

// Evaluator reports whether a path must be skipped.
type Evaluator interface {
	IsIgnored(path string) bool
}

// Func adapts a plain function to Evaluator.
type Func func(path string) bool

func (f Func) IsIgnored(p string) bool { return f(p) }

// Nothing ignores no path.
var Nothing Evaluator = Func(func(string) bool { return false })

// Ignore matches gitignore-style patterns.
type Ignore struct {
	patterns []string
	matcher  *gitignore.GitIgnore
}

// New compiles patterns in gitignore syntax. Blank lines and comments are skipped.
func New(patterns ...string) *Ignore {
	var kept []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		kept = append(kept, p)
	}
	return &Ignore{patterns: kept, matcher: gitignore.CompileIgnoreLines(kept...)}
}

// Load combines the built-in defaults, configured patterns, and the
// .cvcignore and .gitignore files at the working tree root.
func Load(fsys fs.FS, cfg *config.Config) (*Ignore, error) {
	lines := append([]string(nil), config.DefaultIgnoredFiles...)
	lines = append(lines, cfg.IgnorePatterns...)

	for _, p := range []string{cfg.IgnorePath(), filepath.Join(cfg.WorkingTreeDir, ".gitignore")} {
		data, err := fsys.ReadFile(p)
		if err != nil {
			if fsys.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		lines = append(lines, strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")...)
	}
	return New(lines...), nil
}

// Patterns returns the compiled patterns in order.
func (m *Ignore) Patterns() []string {
	return append([]string(nil), m.patterns...)
}

// Empty reports whether no pattern was supplied.
func (m *Ignore) Empty() bool { return len(m.patterns) == 0 }

// IsIgnored returns true if the path should be ignored
func (m *Ignore) IsIgnored(p string) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}
	clean := path.Clean(filepath.ToSlash(p))
	if strings.HasSuffix(p, "/") {
		clean += "/"
	}
	return m.matcher.MatchesPath(clean)
}

// Chain ignores a path when any member does.
type Chain []Evaluator

func (c Chain) IsIgnored(p string) bool {
	for _, e := range c {
		if e != nil && e.IsIgnored(p) {
			return true
		}
	}
	return false
}

// Dir reports whether a directory is ignored, probing with and without the trailing slash.
func Dir(e Evaluator, dir string) bool {
	dir = strings.TrimSuffix(dir, "/")
	return e.IsIgnored(dir) || e.IsIgnored(dir+"/")
}
