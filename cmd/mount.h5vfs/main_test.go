package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_NewMountHelper_Success(t *testing.T) {
	t.Parallel()

	mh, err := NewMountHelper([]string{"mount.h5vfs", "/data/archive.h5", "/mnt/h5vfs"})
	require.NoError(t, err)
	require.Equal(t, "h5vfs", mh.Program)
	require.Equal(t, "/data/archive.h5", mh.Source)
	require.Equal(t, "/mnt/h5vfs", mh.Mountpoint)
	require.Empty(t, mh.Options)
}

func Test_NewMountHelper_WithOptions_Success(t *testing.T) {
	t.Parallel()

	mh, err := NewMountHelper([]string{
		"mount.h5vfs", "/data/archive.h5", "/mnt/h5vfs",
		"-o", "allow_other,diag-addr=:8000,setuid=nobody,mbin=/opt/h5vfs",
	})
	require.NoError(t, err)
	require.Equal(t, "", mh.Options["allow_other"])
	require.Equal(t, ":8000", mh.Options["diag-addr"])
	require.Equal(t, "nobody", mh.Setuid)
	require.Equal(t, "/opt/h5vfs", mh.Binary)
}

func Test_NewMountHelper_UnrecognizedOption_Dropped(t *testing.T) {
	t.Parallel()

	mh, err := NewMountHelper([]string{
		"mount.h5vfs", "/data/archive.h5", "/mnt/h5vfs", "-o", "bogus=1",
	})
	require.NoError(t, err)
	require.NotContains(t, mh.Options, "bogus")
}

func Test_BuildCommand_SplitsOwnAndFuseOptions(t *testing.T) {
	t.Parallel()

	mh := &MountHelper{
		Program:    "h5vfs",
		Source:     "/data/archive.h5",
		Mountpoint: "/mnt/h5vfs",
		Options: map[string]string{
			"diag-addr":   ":8000",
			"allow_other": "",
			"subtype":     "h5vfs",
		},
	}

	cmd := mh.BuildCommand()
	require.Equal(t, "h5vfs", cmd[0])
	require.Equal(t, "/data/archive.h5", cmd[1])
	require.Equal(t, "/mnt/h5vfs", cmd[2])
	require.Contains(t, cmd, "--diag-addr=:8000")

	var fuseArg string
	for _, a := range cmd[3:] {
		if len(a) >= 2 && a[:2] == "-o" {
			fuseArg = a
		}
	}
	require.Contains(t, fuseArg, "allow_other")
	require.Contains(t, fuseArg, "subtype=h5vfs")
}

func Test_BuildCommand_UsesOverrideBinary(t *testing.T) {
	t.Parallel()

	mh := &MountHelper{
		Program:    "h5vfs",
		Source:     "/data/archive.h5",
		Mountpoint: "/mnt/h5vfs",
		Binary:     "/opt/h5vfs",
		Options:    map[string]string{},
	}

	cmd := mh.BuildCommand()
	require.Equal(t, "/opt/h5vfs", cmd[0])
}

func Test_checkMountTable_NotMounted(t *testing.T) {
	t.Parallel()

	mh := &MountHelper{Mountpoint: "/nonexistent/mountpoint/for/test"}
	mounted, err := mh.checkMountTable()
	require.NoError(t, err)
	require.False(t, mounted)
}
