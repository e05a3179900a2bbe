package reconcile_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/cvc/internal/bitmap"
	"github.com/keshon/cvc/internal/config"
	"github.com/keshon/cvc/internal/fs"
	"github.com/keshon/cvc/internal/ignore"
	"github.com/keshon/cvc/internal/reconcile"
	"github.com/keshon/cvc/internal/scan"
)

const root = "/ws"

type fixture struct {
	fs *fs.MemoryFS
	r  *reconcile.Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	m := fs.NewMemoryFS()
	require.NoError(t, m.MkdirAll(root+"/.cvc", 0o755))
	s := scan.New(m, root, ignore.New(append(config.DefaultIgnoredFiles, "*.log")...))
	links := ignore.NewLinkDetector(m, root, config.DefaultLinkMarker)
	return &fixture{fs: m, r: reconcile.New(s, links, config.DefaultGeneratedFiles, 2, nil)}
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	p := filepath.Join(root, rel)
	require.NoError(t, f.fs.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, f.fs.WriteFile(p, []byte(content), 0o644))
}

func (f *fixture) move(t *testing.T, from, to string) {
	t.Helper()
	require.NoError(t, f.fs.Rename(filepath.Join(root, from), filepath.Join(root, to)))
}

func barRecord(files ...bitmap.FileRecord) *bitmap.Record {
	return bitmap.NewRecord(bitmap.TrackDir("utils/bar"), "utils/bar/foo.js", files...)
}

func TestDiscoversNewFiles(t *testing.T) {
	f := newFixture(t)
	f.write(t, "utils/bar/foo.js", "foo")
	rec := barRecord(bitmap.NewFileRecord("utils/bar/foo.js", false))

	f.write(t, "utils/bar/foo2.js", "foo2")
	res, err := f.r.Reconcile(context.Background(), "utils/bar", rec)
	require.NoError(t, err)

	assert.True(t, res.Changed())
	assert.Equal(t, []string{"utils/bar/foo2.js"}, res.Added)
	assert.Equal(t, []string{"utils/bar/foo.js", "utils/bar/foo2.js"}, res.Record.Paths())
	assert.False(t, res.Record.Files()[1].Test)
	assert.Equal(t, bitmap.TrackDir("utils/bar"), res.Record.Binding())
}

func TestNonMainRenameIsInPlace(t *testing.T) {
	f := newFixture(t)
	f.write(t, "utils/bar/foo.js", "foo")
	f.write(t, "utils/bar/foo2.js", "foo2")
	f.write(t, "utils/bar/zzz.js", "z")
	rec := barRecord(
		bitmap.NewFileRecord("utils/bar/foo.js", false),
		bitmap.NewFileRecord("utils/bar/foo2.js", true),
		bitmap.NewFileRecord("utils/bar/zzz.js", false),
	)

	f.move(t, "utils/bar/foo2.js", "utils/bar/foo3.js")
	res, err := f.r.Reconcile(context.Background(), "utils/bar", rec)
	require.NoError(t, err)

	assert.Equal(t, []reconcile.Rename{{From: "utils/bar/foo2.js", To: "utils/bar/foo3.js"}}, res.Renamed)
	assert.Empty(t, res.Added)
	assert.Empty(t, res.Removed)

	files := res.Record.Files()
	require.Len(t, files, 3)
	assert.Equal(t, bitmap.FileRecord{RelativePath: "utils/bar/foo3.js", Name: "foo3.js", Test: true}, files[1])
	assert.Equal(t, "utils/bar/foo.js", res.Record.MainFile())
}

func TestMainFileRenameFails(t *testing.T) {
	f := newFixture(t)
	f.write(t, "utils/bar/foo.js", "foo")
	rec := barRecord(bitmap.NewFileRecord("utils/bar/foo.js", false))
	before, err := rec.MarshalJSON()
	require.NoError(t, err)

	f.move(t, "utils/bar/foo.js", "utils/bar/foo2.js")
	res, err := f.r.Reconcile(context.Background(), "utils/bar", rec)
	require.ErrorIs(t, err, bitmap.ErrMainFileMissing)

	var ce *bitmap.ComponentError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "utils/bar", ce.ID)
	assert.Equal(t, "utils/bar/foo.js", ce.Path)

	after, err := res.Record.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
	assert.Equal(t, "utils/bar/foo.js", res.Record.Files()[0].RelativePath)
}

func TestMainFileMissingAmongManyChanges(t *testing.T) {
	f := newFixture(t)
	f.write(t, "utils/bar/a.js", "a")
	rec := barRecord(
		bitmap.NewFileRecord("utils/bar/foo.js", false),
		bitmap.NewFileRecord("utils/bar/a.js", false),
	)

	_, err := f.r.Reconcile(context.Background(), "utils/bar", rec)
	assert.ErrorIs(t, err, bitmap.ErrMainFileMissing)
}

func TestInvalidRecordFailsBeforeScan(t *testing.T) {
	f := newFixture(t)
	f.write(t, "utils/bar/foo.js", "foo")
	f.write(t, "utils/bar/foo2.js", "foo2")
	rec := barRecord(bitmap.NewFileRecord("utils/bar/foo2.js", false))

	res, err := f.r.Reconcile(context.Background(), "utils/bar", rec)
	assert.ErrorIs(t, err, bitmap.ErrMainFileNotFound)
	assert.Contains(t, err.Error(), "utils/bar")
	assert.True(t, rec.Equal(res.Record))
	assert.False(t, res.Changed())

	unbound := bitmap.NewRecord(bitmap.NoBinding(), "utils/a.js")
	_, err = f.r.Reconcile(context.Background(), "utils/a", unbound)
	assert.ErrorIs(t, err, bitmap.ErrEmptyFiles)
}

func TestManyToManyDropsAndAppends(t *testing.T) {
	f := newFixture(t)
	f.write(t, "utils/bar/foo.js", "foo")
	f.write(t, "utils/bar/x.js", "x")
	f.write(t, "utils/bar/y.js", "y")
	rec := barRecord(
		bitmap.NewFileRecord("utils/bar/foo.js", false),
		bitmap.NewFileRecord("utils/bar/old1.js", true),
		bitmap.NewFileRecord("utils/bar/old2.js", false),
	)

	res, err := f.r.Reconcile(context.Background(), "utils/bar", rec)
	require.NoError(t, err)
	assert.Empty(t, res.Renamed)
	assert.Equal(t, []string{"utils/bar/old1.js", "utils/bar/old2.js"}, res.Removed)
	assert.Equal(t, []string{"utils/bar/foo.js", "utils/bar/x.js", "utils/bar/y.js"}, res.Record.Paths())
	for _, file := range res.Record.Files() {
		assert.False(t, file.Test, file.RelativePath)
	}
}

func TestOnlyRemovals(t *testing.T) {
	f := newFixture(t)
	f.write(t, "utils/bar/foo.js", "foo")
	rec := barRecord(
		bitmap.NewFileRecord("utils/bar/foo.js", false),
		bitmap.NewFileRecord("utils/bar/gone.js", false),
	)

	res, err := f.r.Reconcile(context.Background(), "utils/bar", rec)
	require.NoError(t, err)
	assert.Equal(t, []string{"utils/bar/foo.js"}, res.Record.Paths())
}

func TestIgnoredAndLinkFilesAreSkipped(t *testing.T) {
	f := newFixture(t)
	f.write(t, "utils/bar/foo.js", "foo")
	f.write(t, "utils/bar/debug.log", "noise")
	f.write(t, "utils/bar/node_modules/dep/index.js", "dep")
	f.write(t, "utils/bar/link.js", config.DefaultLinkMarker+"\nmodule.exports = require('x');\n")
	rec := barRecord(bitmap.NewFileRecord("utils/bar/foo.js", false))

	res, err := f.r.Reconcile(context.Background(), "utils/bar", rec)
	require.NoError(t, err)
	assert.False(t, res.Changed())
	assert.Equal(t, []string{"utils/bar/foo.js"}, res.Record.Paths())
}

func TestUnboundIsUntouched(t *testing.T) {
	f := newFixture(t)
	f.write(t, "utils/a.js", "a")
	f.write(t, "utils/b.js", "b")
	rec := bitmap.NewRecord(bitmap.NoBinding(), "utils/a.js", bitmap.NewFileRecord("utils/a.js", false))

	res, err := f.r.Reconcile(context.Background(), "utils/a", rec)
	require.NoError(t, err)
	assert.False(t, res.Changed())
	assert.True(t, rec.Equal(res.Record))
}

func TestRootBoundPathsAreRelativeToRoot(t *testing.T) {
	f := newFixture(t)
	f.write(t, "components/bar/foo/bar/foo.js", "foo")
	f.write(t, "components/bar/foo/package.json", "{}")
	f.write(t, "components/bar/foo/bar/package.json", "{}")
	f.write(t, "components/bar/foo/foo2.js", "foo2")
	rec := bitmap.NewRecord(bitmap.RootDir("components/bar/foo"), "bar/foo.js", bitmap.NewFileRecord("bar/foo.js", false))

	res, err := f.r.Reconcile(context.Background(), "bar/foo", rec)
	require.NoError(t, err)

	// only the generated file at the top of the root is skipped
	assert.Equal(t, []string{"bar/package.json", "foo2.js"}, res.Added)
	assert.Equal(t, []string{"bar/foo.js", "bar/package.json", "foo2.js"}, res.Record.Paths())
	assert.True(t, res.Record.Binding().IsRoot())
}

func TestMissingDirectoryReportsMainFile(t *testing.T) {
	f := newFixture(t)
	rec := barRecord(bitmap.NewFileRecord("utils/bar/foo.js", false))

	_, err := f.r.Reconcile(context.Background(), "utils/bar", rec)
	assert.ErrorIs(t, err, bitmap.ErrMainFileMissing)
}

func TestIndexMergesAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.write(t, "utils/bar/foo.js", "foo")
	f.write(t, "utils/bar/foo2.js", "foo2")
	f.write(t, "utils/baz/index.js", "baz")

	ix := bitmap.New()
	require.NoError(t, ix.Upsert("utils/bar", barRecord(bitmap.NewFileRecord("utils/bar/foo.js", false))))
	require.NoError(t, ix.Upsert("utils/baz", bitmap.NewRecord(bitmap.TrackDir("utils/baz"), "utils/baz/index.js",
		bitmap.NewFileRecord("utils/baz/index.js", false))))

	rep, err := f.r.Index(context.Background(), ix)
	require.NoError(t, err)
	assert.True(t, rep.Changed())
	assert.Empty(t, rep.Errors)

	rec, _ := ix.Get("utils/bar")
	assert.Equal(t, []string{"utils/bar/foo.js", "utils/bar/foo2.js"}, rec.Paths())

	first, err := bitmap.Encode(ix)
	require.NoError(t, err)

	rep, err = f.r.Index(context.Background(), ix)
	require.NoError(t, err)
	assert.False(t, rep.Changed())

	second, err := bitmap.Encode(ix)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestIndexPartialFailure(t *testing.T) {
	f := newFixture(t)
	f.write(t, "utils/bar/foo2.js", "foo renamed")
	f.write(t, "utils/baz/index.js", "baz")
	f.write(t, "utils/baz/extra.js", "extra")

	ix := bitmap.New()
	require.NoError(t, ix.Upsert("utils/bar", barRecord(bitmap.NewFileRecord("utils/bar/foo.js", false))))
	require.NoError(t, ix.Upsert("utils/baz", bitmap.NewRecord(bitmap.TrackDir("utils/baz"), "utils/baz/index.js",
		bitmap.NewFileRecord("utils/baz/index.js", false))))

	rep, err := f.r.Index(context.Background(), ix)
	require.NoError(t, err)

	require.Contains(t, rep.Errors, "utils/bar")
	assert.ErrorIs(t, rep.Errors["utils/bar"], bitmap.ErrMainFileMissing)
	assert.NotContains(t, rep.Results, "utils/bar")

	bar, _ := ix.Get("utils/bar")
	assert.Equal(t, []string{"utils/bar/foo.js"}, bar.Paths())
	baz, _ := ix.Get("utils/baz")
	assert.Equal(t, []string{"utils/baz/index.js", "utils/baz/extra.js"}, baz.Paths())
}

func TestIndexCancelledLeavesIndexAlone(t *testing.T) {
	f := newFixture(t)
	f.write(t, "utils/bar/foo.js", "foo")
	f.write(t, "utils/bar/foo2.js", "foo2")

	ix := bitmap.New()
	require.NoError(t, ix.Upsert("utils/bar", barRecord(bitmap.NewFileRecord("utils/bar/foo.js", false))))
	before := ix.Clone()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.r.Index(ctx, ix)
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, before.Equal(ix))
}
