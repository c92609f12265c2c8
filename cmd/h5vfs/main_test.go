package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_parseArgs_Success(t *testing.T) {
	t.Parallel()

	opts, err := parseArgs([]string{"archive.h5", "/mnt/h5vfs", "-oallow_other", "--diag-addr=:8080"})
	require.NoError(t, err)
	require.Equal(t, "archive.h5", opts.containerFile)
	require.Equal(t, "/mnt/h5vfs", opts.mountPoint)
	require.Equal(t, ":8080", opts.diagAddr)
	require.Equal(t, []string{"-oallow_other"}, opts.fuseArgs)
}

func Test_parseArgs_MissingMountpoint_Error(t *testing.T) {
	t.Parallel()

	_, err := parseArgs([]string{"archive.h5"})
	require.Error(t, err)
	require.True(t, errors.Is(err, errInvalidArgs))
}

func Test_parseArgs_NoFuseOptions_Success(t *testing.T) {
	t.Parallel()

	opts, err := parseArgs([]string{"archive.h5", "/mnt/h5vfs"})
	require.NoError(t, err)
	require.Empty(t, opts.fuseArgs)
	require.Empty(t, opts.diagAddr)
}
