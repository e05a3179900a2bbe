package bitmap_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/cvc/internal/bitmap"
	"github.com/keshon/cvc/internal/fs"
)

func barRecord() *bitmap.Record {
	return bitmap.NewRecord(bitmap.TrackDir("utils/bar"), "utils/bar/foo.js",
		bitmap.NewFileRecord("utils/bar/foo.js", false),
		bitmap.NewFileRecord("utils/bar/foo.spec.js", true),
	)
}

func TestIndexUpsertKeepsOrder(t *testing.T) {
	ix := bitmap.New()
	require.NoError(t, ix.Upsert("utils/bar", barRecord()))
	require.NoError(t, ix.Upsert("utils/a", bitmap.NewRecord(bitmap.NoBinding(), "utils/a.js",
		bitmap.NewFileRecord("utils/a.js", false))))

	rec := barRecord()
	require.NoError(t, rec.Append(bitmap.NewFileRecord("utils/bar/x.js", false)))
	require.NoError(t, ix.Upsert("utils/bar", rec))

	assert.Equal(t, []string{"utils/bar", "utils/a"}, ix.IDs())

	got, ok := ix.Get("utils/bar")
	require.True(t, ok)
	assert.Equal(t, []string{"utils/bar/foo.js", "utils/bar/foo.spec.js", "utils/bar/x.js"}, got.Paths())
}

func TestIndexGetReturnsCopy(t *testing.T) {
	ix := bitmap.New()
	require.NoError(t, ix.Upsert("utils/bar", barRecord()))

	rec, _ := ix.Get("utils/bar")
	require.NoError(t, rec.Append(bitmap.NewFileRecord("utils/bar/new.js", false)))

	again, _ := ix.Get("utils/bar")
	assert.Equal(t, 2, again.Len())
}

func TestIndexUpsertRejectsInvalid(t *testing.T) {
	ix := bitmap.New()

	err := ix.Upsert("c", bitmap.NewRecord(bitmap.NoBinding(), "missing.js", bitmap.NewFileRecord("a.js", false)))
	require.ErrorIs(t, err, bitmap.ErrMainFileNotFound)
	var ce *bitmap.ComponentError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "c", ce.ID)
	assert.Equal(t, "missing.js", ce.Path)

	err = ix.Upsert("c", bitmap.NewRecord(bitmap.NoBinding(), "a.js"))
	assert.ErrorIs(t, err, bitmap.ErrEmptyFiles)

	err = ix.Upsert("c", bitmap.NewRecord(bitmap.NoBinding(), "a.js",
		bitmap.NewFileRecord("a.js", false), bitmap.NewFileRecord("a.js", true)))
	assert.ErrorIs(t, err, bitmap.ErrDuplicatePath)

	assert.Equal(t, 0, ix.Len())
}

func TestIndexRemove(t *testing.T) {
	ix := bitmap.New()
	require.NoError(t, ix.Upsert("a", bitmap.NewRecord(bitmap.NoBinding(), "a.js", bitmap.NewFileRecord("a.js", false))))
	require.NoError(t, ix.Upsert("b", bitmap.NewRecord(bitmap.NoBinding(), "b.js", bitmap.NewFileRecord("b.js", false))))

	assert.True(t, ix.Remove("a"))
	assert.False(t, ix.Remove("a"))
	assert.Equal(t, []string{"b"}, ix.IDs())

	_, err := ix.MustGet("a")
	assert.ErrorIs(t, err, bitmap.ErrComponentNotFound)
}

func TestRecordRenameInPlace(t *testing.T) {
	rec := barRecord()
	require.NoError(t, rec.Rename("utils/bar/foo.spec.js", "utils/bar/foo.test.js"))

	files := rec.Files()
	assert.Equal(t, "utils/bar/foo.test.js", files[1].RelativePath)
	assert.Equal(t, "foo.test.js", files[1].Name)
	assert.True(t, files[1].Test)

	assert.ErrorIs(t, rec.Rename("utils/bar/nope.js", "x.js"), bitmap.ErrPathNotFound)
	assert.ErrorIs(t, rec.Rename("utils/bar/foo.js", "utils/bar/foo.test.js"), bitmap.ErrDuplicatePath)
}

func TestRecordDetachDirIsOneWay(t *testing.T) {
	rec := barRecord()
	assert.True(t, rec.DetachDir())
	assert.Equal(t, bitmap.Unbound, rec.Binding().Kind())
	assert.False(t, rec.DetachDir())

	root := bitmap.NewRecord(bitmap.RootDir("components/x"), "index.js", bitmap.NewFileRecord("index.js", false))
	assert.False(t, root.DetachDir())
	assert.Equal(t, bitmap.RootBound, root.Binding().Kind())
	assert.Equal(t, "components/x/index.js", root.WorkspacePath("index.js"))
}

func TestEncodeFormat(t *testing.T) {
	ix := bitmap.New()
	require.NoError(t, ix.Upsert("utils/bar", bitmap.NewRecord(bitmap.TrackDir("utils/bar"), "utils/bar/foo.js",
		bitmap.NewFileRecord("utils/bar/foo.js", false))))
	require.NoError(t, ix.Upsert("bar/foo", bitmap.NewRecord(bitmap.RootDir("components/bar/foo"), "bar/foo.js",
		bitmap.NewFileRecord("bar/foo.js", false))))

	data, err := bitmap.Encode(ix)
	require.NoError(t, err)

	want := `{
  "utils/bar": {
    "files": [
      {
        "relativePath": "utils/bar/foo.js",
        "test": false,
        "name": "foo.js"
      }
    ],
    "mainFile": "utils/bar/foo.js",
    "trackDir": "utils/bar"
  },
  "bar/foo": {
    "files": [
      {
        "relativePath": "bar/foo.js",
        "test": false,
        "name": "foo.js"
      }
    ],
    "mainFile": "bar/foo.js",
    "rootDir": "components/bar/foo"
  }
}
`
	assert.Equal(t, want, string(data))
}

func TestLoadSaveRoundTripIsByteIdentical(t *testing.T) {
	m := fs.NewMemoryFS()
	store := bitmap.NewStore(m, "/ws/.cvc/bitmap.json")

	ix := bitmap.New()
	// ids deliberately out of lexical order
	require.NoError(t, ix.Upsert("z/last", bitmap.NewRecord(bitmap.NoBinding(), "z/last.js", bitmap.NewFileRecord("z/last.js", false))))
	require.NoError(t, ix.Upsert("utils/bar", barRecord()))
	require.NoError(t, ix.Upsert("a<&>", bitmap.NewRecord(bitmap.NoBinding(), "a.js", bitmap.NewFileRecord("a.js", true))))
	require.NoError(t, store.Save(ix))

	first, err := m.ReadFile("/ws/.cvc/bitmap.json")
	require.NoError(t, err)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.True(t, ix.Equal(loaded))
	require.NoError(t, store.Save(loaded))

	second, err := m.ReadFile("/ws/.cvc/bitmap.json")
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestLoadMissingIsEmpty(t *testing.T) {
	store := bitmap.NewStore(fs.NewMemoryFS(), "/ws/.cvc/bitmap.json")
	ix, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, ix.Len())
}

func TestLoadCorrupt(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"truncated", `{"utils/bar": {"files": [`},
		{"not an object", `[1, 2]`},
		{"bad record", `{"a": {"files": "x"}}`},
		{"both bindings", `{"a": {"files": [], "mainFile": "", "trackDir": "a", "rootDir": "b"}}`},
		{"duplicate id", `{"a": {"files": []}, "a": {"files": []}}`},
		{"trailing data", `{} {}`},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			m := fs.NewMemoryFS()
			require.NoError(t, m.MkdirAll("/ws/.cvc", 0o755))
			require.NoError(t, m.WriteFile("/ws/.cvc/bitmap.json", []byte(tt.data), 0o644))

			_, err := bitmap.NewStore(m, "/ws/.cvc/bitmap.json").Load()
			assert.ErrorIs(t, err, bitmap.ErrCorruptIndex)
		})
	}
}
