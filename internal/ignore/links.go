package ignore

import (
	"bufio"
	"path/filepath"
	"strings"

	"github.com/keshon/cvc/internal/fs"
)

// LinkDetector recognises files written to wire components to their
// dependencies. Such files begin with Marker on their first line.
type LinkDetector struct {
	FS     fs.FS
	Root   string
	Marker string
}

func NewLinkDetector(fsys fs.FS, root, marker string) *LinkDetector {
	return &LinkDetector{FS: fsys, Root: root, Marker: marker}
}

func (d *LinkDetector) IsIgnored(p string) bool {
	if d == nil || d.Marker == "" || strings.HasSuffix(p, "/") {
		return false
	}
	f, err := d.FS.Open(filepath.Join(d.Root, filepath.FromSlash(p)))
	if err != nil {
		return false
	}
	defer f.Close()

	line, err := bufio.NewReaderSize(f, 256).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.HasPrefix(strings.TrimSpace(line), d.Marker)
}
