package archive

import (
	"fmt"

	hdf5 "gonum.org/v1/hdf5"
)

// CreateDataset allocates a contiguous NATIVE_UINT8 dataset of the given
// length, mirroring toHDF5.cpp's H5::PredType::NATIVE_UINT8 dataspace of
// size equal to the file's st_size. A zero-length dataset allocates no
// storage at all, matching the original's empty-file handling (no data
// is ever written, and getOffset later reports HADDR_UNDEF).
func (c *Container) CreateDataset(path string, length uint64) error {
	space, err := hdf5.CreateSimpleDataspace([]uint{uint(length)}, nil)
	if err != nil {
		return fmt.Errorf("create dataspace for %s: %w", path, err)
	}
	defer space.Close()

	dset, err := c.file.CreateDataset(path, hdf5.T_NATIVE_UINT8, space)
	if err != nil {
		return fmt.Errorf("create dataset %s: %w", path, err)
	}
	defer dset.Close()

	return nil
}

// WriteDatasetAt writes the full contents of a dataset in one call. The
// Packer always writes a dataset exactly once, in the chunked-read loop
// driven by the configured chunk size, one call per chunk's worth of
// bytes read from the source file; callers accumulate into a
// length-sized buffer and call this once per file, matching the
// original's single contiguous write per file.
func (c *Container) WriteDatasetAt(path string, data []byte) error {
	if len(data) == 0 {
		return nil
	}

	dset, err := c.file.OpenDataset(path)
	if err != nil {
		return fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer dset.Close()

	if err := dset.Write(&data); err != nil {
		return fmt.Errorf("write dataset %s: %w", path, err)
	}

	return nil
}

// WriteDatasetChunk writes one hyperslab-selected chunk of a dataset
// already allocated by CreateDataset, the per-chunk write storeFile
// performs while streaming a source file (spec §4.2).
func (c *Container) WriteDatasetChunk(path string, offset uint64, data []byte) error {
	if err := c.withRaw(true, func(r rawFile) error {
		return r.writeChunk(path, offset, data)
	}); err != nil {
		return fmt.Errorf("write chunk %s@%d: %w", path, offset, err)
	}

	return nil
}

// DatasetLength returns the element count of a dataset, i.e. the file
// size it represents.
func (c *Container) DatasetLength(path string) (uint64, error) {
	dset, err := c.file.OpenDataset(path)
	if err != nil {
		return 0, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()

	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return 0, fmt.Errorf("dataspace dims %s: %w", path, err)
	}
	if len(dims) == 0 {
		return 0, nil
	}

	return uint64(dims[0]), nil
}

// ReadDataset reads an entire dataset's bytes, the decode-whole-object
// fallback path used when the raw offset is unavailable (spec §4.4).
func (c *Container) ReadDataset(path string) ([]byte, error) {
	dset, err := c.file.OpenDataset(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()

	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, fmt.Errorf("dataspace dims %s: %w", path, err)
	}
	if len(dims) == 0 || dims[0] == 0 {
		return nil, nil
	}

	buf := make([]byte, dims[0])
	if err := dset.Read(&buf); err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}

	return buf, nil
}

// DatasetRawOffset returns the absolute byte offset of path's storage
// within the container file, for the VFS Adapter's raw pread fast path.
// ok is false for an empty dataset, which has no allocated storage.
func (c *Container) DatasetRawOffset(path string) (offset uint64, ok bool, err error) {
	err = c.withRaw(false, func(r rawFile) error {
		off, found, ferr := r.datasetRawOffset(path)
		offset, ok = off, found

		return ferr
	})
	if err != nil {
		return 0, false, fmt.Errorf("dataset offset %s: %w", path, err)
	}

	return offset, ok, nil
}
