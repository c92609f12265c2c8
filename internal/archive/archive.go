// Package archive implements the archive schema of spec §3 (groups,
// datasets, attributes, links) as a thin Go layer over libhdf5.
//
// The container library itself is treated as an external collaborator
// (spec §1): this package assumes the operations enumerated in spec §6 are
// available and exposes exactly the subset the Policy Engine, Packer, Path
// Resolver and VFS Adapter need, nothing more. Dataset byte I/O goes
// through gonum.org/v1/hdf5's ergonomic Go API; link introspection,
// attribute enumeration and raw dataset offset retrieval have no
// counterpart there and are implemented in chdf5.go against the C API
// directly, the same split the original implementation made between
// H5Cpp's object wrappers and raw H5L/H5D/H5O calls.
package archive

import (
	"errors"
	"fmt"
	"os"

	hdf5 "gonum.org/v1/hdf5"
)

// ErrContainer wraps any low-level archive library failure (spec §7
// ContainerError).
var ErrContainer = errors.New("container error")

// ErrNotFound indicates a requested name does not exist in the container.
var ErrNotFound = errors.New("not found in archive")

// Container is an open archive file.
//
// It is safe for concurrent use by the VFS Adapter only under the
// Concurrency Guard (internal/vfs); the Packer uses it single-threaded.
type Container struct {
	path string
	file *hdf5.File
}

// Open opens an existing archive read-only.
func Open(path string) (*Container, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %w", ErrContainer, path, err)
	}

	return &Container{path: path, file: f}, nil
}

// OpenForUpdate opens an existing archive read-write, for the Packer to
// append to.
func OpenForUpdate(path string) (*Container, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDWR)
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %w", ErrContainer, path, err)
	}

	return &Container{path: path, file: f}, nil
}

// Create truncates (or creates) path and writes the root H5VFS marker
// attributes that identify an archive as produced by this system.
func Create(path string, createdAt int64) (*Container, error) {
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, fmt.Errorf("%w: create %q: %w", ErrContainer, path, err)
	}

	c := &Container{path: path, file: f}

	if err := c.writeStringAttr("/", AttrH5VFS, Version); err != nil {
		c.Close()

		return nil, err
	}
	if err := c.writeInt64Attr("/", AttrCreated, createdAt); err != nil {
		c.Close()

		return nil, err
	}

	return c, nil
}

// Path returns the on-disk path of the container file, needed by the VFS
// Adapter's raw-offset fast path to pread the file directly.
func (c *Container) Path() string {
	return c.path
}

// Close releases the underlying file handle.
func (c *Container) Close() error {
	if c.file == nil {
		return nil
	}
	if err := c.file.Close(); err != nil {
		return fmt.Errorf("%w: close: %w", ErrContainer, err)
	}

	return nil
}

// Stat returns the host filesystem metadata of the archive file itself,
// used by the VFS Adapter as the fallback mtime/ctime source (spec §4.4).
func (c *Container) Stat() (os.FileInfo, error) {
	return os.Stat(c.path)
}

// HasH5VFSMarker reports whether the root group carries the H5VFS
// attribute, which disables attribute-as-file surfacing (spec §4.3).
func (c *Container) HasH5VFSMarker() bool {
	_, ok, err := c.StringAttr("/", AttrH5VFS)

	return err == nil && ok
}
