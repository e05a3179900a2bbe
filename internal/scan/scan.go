// Package scan enumerates working tree files the way tracking sees them.
package scan

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"

	"github.com/keshon/cvc/internal/config"
	"github.com/keshon/cvc/internal/fs"
	"github.com/keshon/cvc/internal/ignore"
)

// Scanner walks the working tree rooted at Root. All paths it accepts and
// returns are slash-separated and relative to Root.
type Scanner struct {
	FS     fs.FS
	Root   string
	Ignore ignore.Evaluator
}

func New(fsys fs.FS, root string, ig ignore.Evaluator) *Scanner {
	if ig == nil {
		ig = ignore.Nothing
	}
	return &Scanner{FS: fsys, Root: root, Ignore: ig}
}

// Abs maps a workspace-relative path to a filesystem path.
func (s *Scanner) Abs(rel string) string {
	return filepath.Join(s.Root, filepath.FromSlash(rel))
}

// Files returns every non-ignored regular file under dir, sorted.
func (s *Scanner) Files(ctx context.Context, dir string) ([]string, error) {
	return s.FilesFunc(ctx, dir, nil)
}

// FilesFunc is Files with an extra per-path filter; skip returning true drops the path
// (and, for paths ending in "/", the whole directory).
func (s *Scanner) FilesFunc(ctx context.Context, dir string, skip func(rel string) bool) ([]string, error) {
	dir = Clean(dir)
	if dir != "." && ignore.Dir(s.Ignore, dir) {
		return nil, nil
	}

	var paths []string
	var walk func(rel string) error
	walk = func(rel string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		entries, err := s.FS.ReadDir(s.Abs(rel))
		if err != nil {
			return fmt.Errorf("read dir %q: %w", rel, err)
		}
		for _, e := range entries {
			child := join(rel, e.Name())

			if e.Type()&os.ModeSymlink != 0 {
				continue
			}

			// Skip ignored directories
			if e.IsDir() {
				if e.Name() == config.RepoDir || ignore.Dir(s.Ignore, child) {
					continue
				}
				if skip != nil && skip(child+"/") {
					continue
				}
				if err := walk(child); err != nil {
					return err
				}
				continue
			}

			if s.Ignore.IsIgnored(child) || (skip != nil && skip(child)) {
				continue
			}
			paths = append(paths, child)
		}
		return nil
	}

	if err := walk(dir); err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

// Glob expands a doublestar pattern against the working tree, returning files
// and directories that match, sorted. Ignored entries never match.
func (s *Scanner) Glob(ctx context.Context, pattern string) ([]string, error) {
	pattern = strings.TrimPrefix(filepath.ToSlash(pattern), "./")
	base := StaticPrefix(pattern)
	if base != "." && !s.FS.IsDir(s.Abs(base)) {
		return nil, nil
	}

	var matches []string
	var walk func(rel string) error
	walk = func(rel string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		entries, err := s.FS.ReadDir(s.Abs(rel))
		if err != nil {
			return fmt.Errorf("read dir %q: %w", rel, err)
		}
		for _, e := range entries {
			child := join(rel, e.Name())
			if e.IsDir() {
				if e.Name() == config.RepoDir || ignore.Dir(s.Ignore, child) {
					continue
				}
			} else if s.Ignore.IsIgnored(child) {
				continue
			}

			ok, err := doublestar.Match(pattern, child)
			if err != nil {
				return fmt.Errorf("bad pattern %q: %w", pattern, err)
			}
			if ok {
				matches = append(matches, child)
			}
			if e.IsDir() {
				if err := walk(child); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := walk(base); err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// IsGlob reports whether p contains pattern metacharacters.
func IsGlob(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

// StaticPrefix returns the leading directory segments of pattern that contain no metacharacters.
func StaticPrefix(pattern string) string {
	var kept []string
	segs := strings.Split(pattern, "/")
	for i, seg := range segs {
		if IsGlob(seg) || i == len(segs)-1 {
			break
		}
		kept = append(kept, seg)
	}
	if len(kept) == 0 {
		return "."
	}
	return path.Join(kept...)
}

// Rel converts p, absolute or relative to the working tree root, into a
// workspace-relative slash path. Paths escaping the root are rejected.
func Rel(root, p string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("path %q is outside the working tree %q", p, root)
	}
	return rel, nil
}

// Clean normalises a workspace-relative path.
func Clean(p string) string {
	p = strings.TrimSuffix(filepath.ToSlash(p), "/")
	if p == "" {
		return "."
	}
	return path.Clean(p)
}

// Within reports whether rel lies inside dir (or is dir itself).
func Within(dir, rel string) bool {
	dir, rel = Clean(dir), Clean(rel)
	if dir == "." {
		return !strings.HasPrefix(rel, "../") && rel != ".."
	}
	return rel == dir || strings.HasPrefix(rel, dir+"/")
}

func join(dir, name string) string {
	if dir == "." || dir == "" {
		return name
	}
	return dir + "/" + name
}
