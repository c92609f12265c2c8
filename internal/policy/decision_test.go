package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	exists   map[string]bool
	lengths  map[string]uint64
	modified map[string]int64
	md5s     map[string]string
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		exists:   map[string]bool{},
		lengths:  map[string]uint64{},
		modified: map[string]int64{},
		md5s:     map[string]string{},
	}
}

func (f *fakeLookup) Exists(name string) bool { return f.exists[name] }

func (f *fakeLookup) DatasetLength(name string) (uint64, bool, error) {
	v, ok := f.lengths[name]

	return v, ok, nil
}

func (f *fakeLookup) ModifiedAttr(name string) (int64, bool, error) {
	v, ok := f.modified[name]

	return v, ok, nil
}

func (f *fakeLookup) MD5Attr(name string) (string, bool, error) {
	v, ok := f.md5s[name]

	return v, ok, nil
}

func Test_Decide_NewFile_AsInternal_Success(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o644))

	eng, err := New(DefaultConfig())
	require.NoError(t, err)

	d, err := eng.Decide(Entry{BasePath: dir, SourcePath: path, DatasetName: "a.txt"}, newFakeLookup())
	require.NoError(t, err)
	require.Equal(t, AsInternal, d.Kind)
}

func Test_Decide_RejectGlob_DontStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.tmp")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o644))

	cfg := DefaultConfig()
	cfg.RejectFileGlob = []string{"*.tmp"}

	eng, err := New(cfg)
	require.NoError(t, err)

	d, err := eng.Decide(Entry{BasePath: dir, SourcePath: path, DatasetName: "a.tmp"}, newFakeLookup())
	require.NoError(t, err)
	require.Equal(t, DontStore, d.Kind)
}

func Test_Decide_HardLink_SecondOccurrence(t *testing.T) {
	dir := t.TempDir()
	path1 := filepath.Join(dir, "a.txt")
	path2 := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(path1, []byte("hi"), 0o644))
	require.NoError(t, os.Link(path1, path2))

	eng, err := New(DefaultConfig())
	require.NoError(t, err)

	lookup := newFakeLookup()

	d1, err := eng.Decide(Entry{BasePath: dir, SourcePath: path1, DatasetName: "a.txt"}, lookup)
	require.NoError(t, err)
	require.Equal(t, AsInternal, d1.Kind)

	d2, err := eng.Decide(Entry{BasePath: dir, SourcePath: path2, DatasetName: "b.txt"}, lookup)
	require.NoError(t, err)
	require.Equal(t, AsHardLink, d2.Kind)
	require.Equal(t, "/"+filepath.Base(dir)+"/a.txt", d2.Path)
}

func Test_Decide_SoftLink_InsideBase(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a.txt")
	link := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(target, []byte("hi"), 0o644))
	require.NoError(t, os.Symlink(target, link))

	eng, err := New(DefaultConfig())
	require.NoError(t, err)

	d, err := eng.Decide(Entry{BasePath: dir, SourcePath: link, DatasetName: "b.txt"}, newFakeLookup())
	require.NoError(t, err)
	require.Equal(t, AsSoftLink, d.Kind)
	require.Equal(t, "/"+filepath.Base(dir)+"/a.txt", d.Path)
}

func Test_Decide_ExternalSymlink_IgnorePolicy(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "a.txt")
	link := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(target, []byte("hi"), 0o644))
	require.NoError(t, os.Symlink(target, link))

	eng, err := New(DefaultConfig())
	require.NoError(t, err)

	d, err := eng.Decide(Entry{BasePath: dir, SourcePath: link, DatasetName: "b.txt"}, newFakeLookup())
	require.NoError(t, err)
	require.Equal(t, DontStore, d.Kind)
}

func Test_Decide_ExternalSymlink_LinkPolicy(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "a.txt")
	link := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(target, []byte("hi"), 0o644))
	require.NoError(t, os.Symlink(target, link))

	cfg := DefaultConfig()
	cfg.StoreExternalSymlinks = SymlinkLink

	eng, err := New(cfg)
	require.NoError(t, err)

	d, err := eng.Decide(Entry{BasePath: dir, SourcePath: link, DatasetName: "b.txt"}, newFakeLookup())
	require.NoError(t, err)
	require.Equal(t, AsExternalLink, d.Kind)
	require.Equal(t, target, d.Path)
}

func Test_Decide_UpdatePolicy_Never_DontStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o644))

	eng, err := New(DefaultConfig())
	require.NoError(t, err)

	lookup := newFakeLookup()
	lookup.exists["a.txt"] = true

	d, err := eng.Decide(Entry{BasePath: dir, SourcePath: path, DatasetName: "a.txt"}, lookup)
	require.NoError(t, err)
	require.Equal(t, DontStore, d.Kind)
}

func Test_Decide_UpdatePolicy_Filesize_ChangedSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	cfg := DefaultConfig()
	cfg.UpdatePolicy = UpdateFilesize

	eng, err := New(cfg)
	require.NoError(t, err)

	lookup := newFakeLookup()
	lookup.exists["a.txt"] = true
	lookup.lengths["a.txt"] = 2

	d, err := eng.Decide(Entry{BasePath: dir, SourcePath: path, DatasetName: "a.txt"}, lookup)
	require.NoError(t, err)
	require.Equal(t, AsInternal, d.Kind)
}

func Test_Decide_UpdatePolicy_Hash_SameDigest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o644))

	digest, err := HashFile(path, DefaultChunkSize)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.UpdatePolicy = UpdateHash

	eng, err := New(cfg)
	require.NoError(t, err)

	lookup := newFakeLookup()
	lookup.exists["a.txt"] = true
	lookup.md5s["a.txt"] = digest

	d, err := eng.Decide(Entry{BasePath: dir, SourcePath: path, DatasetName: "a.txt"}, lookup)
	require.NoError(t, err)
	require.Equal(t, DontStore, d.Kind)
}

func Test_globToRegex_TranslatesGlobTokens(t *testing.T) {
	require.Equal(t, `a.*b\.c.d`, globToRegex("a*b.c?d"))
}
