package bitmap

import "path"

// BindingKind says how a component's file set is derived.
type BindingKind uint8

const (
	// Unbound components own an explicit file list.
	Unbound BindingKind = iota
	// DirectoryBound components mirror one directory and are rescanned on every status pass.
	DirectoryBound
	// RootBound components were materialized from an imported snapshot; their
	// paths are relative to the root, and new files under it are picked up.
	RootBound
)

func (k BindingKind) String() string {
	switch k {
	case DirectoryBound:
		return "directory"
	case RootBound:
		return "root"
	default:
		return "unbound"
	}
}

// Binding is a tagged directory reference. The zero value is Unbound.
type Binding struct {
	kind BindingKind
	dir  string
}

func NoBinding() Binding { return Binding{} }

// TrackDir binds a component to a workspace-relative directory.
func TrackDir(dir string) Binding { return Binding{kind: DirectoryBound, dir: cleanDir(dir)} }

// RootDir roots an imported component at a workspace-relative directory.
func RootDir(dir string) Binding { return Binding{kind: RootBound, dir: cleanDir(dir)} }

func (b Binding) Kind() BindingKind { return b.kind }

// Dir returns the bound directory, or "" when Unbound.
func (b Binding) Dir() string { return b.dir }

func (b Binding) IsDirectory() bool { return b.kind == DirectoryBound }
func (b Binding) IsRoot() bool      { return b.kind == RootBound }

// Reconciled reports whether the component is rescanned from disk.
func (b Binding) Reconciled() bool { return b.kind != Unbound }

func (b Binding) String() string {
	if b.kind == Unbound {
		return b.kind.String()
	}
	return b.kind.String() + ":" + b.dir
}

func cleanDir(dir string) string {
	if dir == "" {
		return "."
	}
	return path.Clean(dir)
}
