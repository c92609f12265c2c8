package vfs

import (
	"errors"
	"io"
	"os"
)

// openFile is one entry of the open-file table (spec §4.4/§5), keyed by
// archive path and refcount-managed across concurrent opens of the same
// dataset. It is a plain mutex-guarded map rather than a TTL cache: its
// eviction rule is refcount-exact (erase at zero references), not
// time-based, which [pathresolver]'s cache is a poor fit for.
type openFile struct {
	containerPath string
	refcount      int

	length       uint64
	rawOffset    uint64
	hasRawOffset bool

	// buf is the materialized full-decode fallback, populated lazily and
	// released at refcount zero.
	buf []byte
}

// preadContainer reads size bytes at offset directly from the container
// file on disk, the raw-offset fast path of spec §4.4. A fresh handle is
// opened per call, mirroring the teacher's per-read zip.OpenReader in
// node_zipfile.go rather than keeping a long-lived descriptor around.
func (fsys *FS) preadContainer(offset uint64, size int) ([]byte, error) {
	f, err := os.Open(fsys.container.Path())
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, size)

	n, err := f.ReadAt(buf, int64(offset))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	return buf[:n], nil
}
