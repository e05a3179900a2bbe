package scan_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/keshon/cvc/internal/fs"
	"github.com/keshon/cvc/internal/ignore"
	"github.com/keshon/cvc/internal/scan"
)

func writeFile(t *testing.T, m *fs.MemoryFS, p, content string) {
	t.Helper()
	if err := m.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := m.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTree(t *testing.T) *fs.MemoryFS {
	t.Helper()
	m := fs.NewMemoryFS()
	writeFile(t, m, "/ws/.cvc/bitmap.json", "{}")
	writeFile(t, m, "/ws/utils/bar/foo.js", "a")
	writeFile(t, m, "/ws/utils/bar/sub/deep.js", "b")
	writeFile(t, m, "/ws/utils/bar/foo.log", "c")
	writeFile(t, m, "/ws/utils/baz/index.js", "d")
	writeFile(t, m, "/ws/utils/a.js", "e")
	writeFile(t, m, "/ws/node_modules/x/index.js", "f")
	return m
}

func TestScanFiles(t *testing.T) {
	m := newTree(t)
	s := scan.New(m, "/ws", ignore.New("*.log", "node_modules/"))

	got, err := s.Files(context.Background(), "utils/bar")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"utils/bar/foo.js", "utils/bar/sub/deep.js"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestScanWholeTreeSkipsRepoDir(t *testing.T) {
	m := newTree(t)
	s := scan.New(m, "/ws", ignore.New("node_modules/"))

	got, err := s.Files(context.Background(), ".")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"utils/a.js",
		"utils/bar/foo.js",
		"utils/bar/foo.log",
		"utils/bar/sub/deep.js",
		"utils/baz/index.js",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestScanFilesFuncSkip(t *testing.T) {
	m := newTree(t)
	s := scan.New(m, "/ws", nil)

	got, err := s.FilesFunc(context.Background(), "utils/bar", func(rel string) bool {
		return rel == "utils/bar/sub/"
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"utils/bar/foo.js", "utils/bar/foo.log"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestScanIgnoredTarget(t *testing.T) {
	m := newTree(t)
	s := scan.New(m, "/ws", ignore.New("utils/bar/"))

	got, err := s.Files(context.Background(), "utils/bar")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("expected nothing under an ignored dir, got %v", got)
	}
}

func TestScanMissingDir(t *testing.T) {
	m := newTree(t)
	s := scan.New(m, "/ws", nil)

	_, err := s.Files(context.Background(), "nope")
	if err == nil || !m.IsNotExist(err) {
		t.Fatalf("expected not-exist error for missing dir, got %v", err)
	}
}

func TestScanCancelled(t *testing.T) {
	m := newTree(t)
	s := scan.New(m, "/ws", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Files(ctx, "."); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGlob(t *testing.T) {
	m := newTree(t)
	s := scan.New(m, "/ws", ignore.New("node_modules/"))

	got, err := s.Glob(context.Background(), "utils/*")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"utils/a.js", "utils/bar", "utils/baz"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	got, err = s.Glob(context.Background(), "**/index.js")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"utils/baz/index.js"}) {
		t.Fatalf("unexpected matches %v", got)
	}
}

func TestStaticPrefix(t *testing.T) {
	cases := []struct{ in, want string }{
		{"utils/**", "utils"},
		{"utils/bar/*.js", "utils/bar"},
		{"*.js", "."},
		{"src/{a,b}/x", "src"},
	}
	for _, tt := range cases {
		if got := scan.StaticPrefix(tt.in); got != tt.want {
			t.Errorf("StaticPrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRelAndWithin(t *testing.T) {
	rel, err := scan.Rel("/ws", "/ws/utils/bar/")
	if err != nil || rel != "utils/bar" {
		t.Fatalf("Rel = %q, %v", rel, err)
	}
	rel, err = scan.Rel("/ws", "utils/a.js")
	if err != nil || rel != "utils/a.js" {
		t.Fatalf("Rel = %q, %v", rel, err)
	}
	if _, err := scan.Rel("/ws", "/other/x"); err == nil {
		t.Fatal("expected error for path outside the working tree")
	}

	cases := []struct {
		dir, rel string
		want     bool
	}{
		{"utils/bar", "utils/bar/foo.js", true},
		{"utils/bar", "utils/bar", true},
		{"utils/bar", "utils/barn/x.js", false},
		{"utils/bar", "utils/a.js", false},
		{".", "utils/a.js", true},
	}
	for _, tt := range cases {
		if got := scan.Within(tt.dir, tt.rel); got != tt.want {
			t.Errorf("Within(%q, %q) = %v, want %v", tt.dir, tt.rel, got, tt.want)
		}
	}
}
