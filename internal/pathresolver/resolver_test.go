package pathresolver

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/csbrady-warwick/h5vfs/internal/archive"
	"github.com/stretchr/testify/require"
)

func buildTestArchive(t *testing.T) *archive.Container {
	t.Helper()

	path := filepath.Join(t.TempDir(), "archive.h5")

	c, err := archive.Create(path, 1700000000)
	require.NoError(t, err)

	_, err = c.EnsureGroup("/base")
	require.NoError(t, err)
	require.NoError(t, c.WriteObjectMeta("/base", 1, 2, 0o755))

	require.NoError(t, c.CreateDataset("/base/file.txt", 5))
	require.NoError(t, c.WriteDatasetAt("/base/file.txt", []byte("hello")))
	require.NoError(t, c.WriteObjectMeta("/base/file.txt", 1, 2, 0o644))
	require.NoError(t, c.WriteMD5Hash("/base/file.txt", "5d41402abc4b2a76b9719d911017c592"))

	require.NoError(t, c.CreateSoftLink("/base/link.txt", "/base/file.txt"))
	require.NoError(t, c.CreateExternalLinkGroup("/base/outside", "/etc/hosts", 1700000000))

	return c
}

func Test_Resolve_DirectObject_Success(t *testing.T) {
	c := buildTestArchive(t)
	defer c.Close()

	r := New(c, Options{})
	require.True(t, r.AttrSurfacingEnabled())

	res, err := r.Resolve("/base/file.txt")
	require.NoError(t, err)
	require.Equal(t, KindObject, res.Kind)
	require.Equal(t, archive.KindDataset, res.ObjectKind)
}

func Test_Resolve_SoftLink_Success(t *testing.T) {
	c := buildTestArchive(t)
	defer c.Close()

	r := New(c, Options{})

	res, err := r.Resolve("/base/link.txt")
	require.NoError(t, err)
	require.Equal(t, KindSoftLink, res.Kind)
	require.Equal(t, "/base/file.txt", res.ContainerPath)
}

func Test_Resolve_ExternalLink_Success(t *testing.T) {
	c := buildTestArchive(t)
	defer c.Close()

	r := New(c, Options{})

	res, err := r.Resolve("/base/outside")
	require.NoError(t, err)
	require.Equal(t, KindExternalLink, res.Kind)
}

func Test_Resolve_AttrAsFile_Success(t *testing.T) {
	c := buildTestArchive(t)
	defer c.Close()

	r := New(c, Options{})

	res, err := r.Resolve("/base/.file.txt.attr.MD5Hash")
	require.NoError(t, err)
	require.Equal(t, KindAttrFile, res.Kind)
	require.Equal(t, "/base/file.txt", res.AttrParentPath)
	require.Equal(t, "MD5Hash", res.AttrName)
}

func Test_Resolve_Absent_Success(t *testing.T) {
	c := buildTestArchive(t)
	defer c.Close()

	r := New(c, Options{})

	res, err := r.Resolve("/base/nope.txt")
	require.NoError(t, err)
	require.Equal(t, KindAbsent, res.Kind)
}

func Test_Resolve_DotAndDotDot(t *testing.T) {
	c := buildTestArchive(t)
	defer c.Close()

	r := New(c, Options{})

	res, err := r.Resolve("/base/.")
	require.NoError(t, err)
	require.Equal(t, KindDot, res.Kind)

	res, err = r.Resolve("/base/..")
	require.NoError(t, err)
	require.Equal(t, KindDot, res.Kind)
}

func Test_Resolve_AttrSurfacingDisabled_WhenH5VFSMarkerPresent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.h5")
	c, err := archive.Create(path, 1700000000)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.CreateDataset("/file.txt", 2))
	require.NoError(t, c.WriteDatasetAt("/file.txt", []byte("hi")))
	require.NoError(t, c.WriteObjectMeta("/file.txt", 1, 1, 0o644))
	require.NoError(t, c.WriteMD5Hash("/file.txt", "something"))

	r := New(c, Options{})
	require.False(t, r.AttrSurfacingEnabled())

	res, err := r.Resolve("/.file.txt.attr.MD5Hash")
	require.NoError(t, err)
	require.Equal(t, KindAbsent, res.Kind)
}

func Test_Resolve_CachesResult(t *testing.T) {
	c := buildTestArchive(t)
	defer c.Close()

	r := New(c, Options{CacheTTL: time.Minute})

	res1, err := r.Resolve("/base/file.txt")
	require.NoError(t, err)

	res2, err := r.Resolve("/base/file.txt")
	require.NoError(t, err)
	require.Equal(t, res1, res2)
}
