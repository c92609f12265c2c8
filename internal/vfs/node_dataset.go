package vfs

import (
	"context"
	"os"
	"syscall"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
)

var (
	_ fs.Node       = (*datasetNode)(nil)
	_ fs.NodeOpener = (*datasetNode)(nil)
)

// datasetNode is an archive dataset, presented as a regular file.
type datasetNode struct {
	fsys          *FS
	inode         uint64
	containerPath string
}

func (n *datasetNode) Attr(_ context.Context, a *fuse.Attr) error {
	fsys := n.fsys
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	length, err := fsys.container.DatasetLength(n.containerPath)
	if err != nil {
		fsys.rbuf.Printf("Error: %q->Attr: %v\n", n.containerPath, err)

		return fuse.ToErrno(syscall.EIO)
	}

	created, modified, perm := readObjectMeta(fsys, n.containerPath)

	a.Inode = n.inode
	a.Size = length
	a.Mode = filePerm
	if perm != 0 {
		a.Mode = os.FileMode(perm & 0o777)
	}
	a.Nlink = 1
	a.Uid, a.Gid = fsys.uid, fsys.gid
	fsys.applyTimes(a, created, modified)

	return nil
}

// Open obtains or creates the dataset's open-file-table entry and
// increments its refcount (spec §4.4).
func (n *datasetNode) Open(_ context.Context, _ *fuse.OpenRequest, resp *fuse.OpenResponse) (fs.Handle, error) {
	fsys := n.fsys
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	entry, ok := fsys.handles[n.containerPath]
	if !ok {
		length, err := fsys.container.DatasetLength(n.containerPath)
		if err != nil {
			fsys.rbuf.Printf("Error: %q->Open: %v\n", n.containerPath, err)

			return nil, fuse.ToErrno(syscall.EIO)
		}

		offset, hasOffset, err := fsys.container.DatasetRawOffset(n.containerPath)
		if err != nil {
			fsys.rbuf.Printf("Error: %q->Open: raw offset unavailable, falling back: %v\n", n.containerPath, err)

			hasOffset = false
		}

		entry = &openFile{
			containerPath: n.containerPath,
			length:        length,
			rawOffset:     offset,
			hasRawOffset:  hasOffset,
		}
		fsys.handles[n.containerPath] = entry
	}

	entry.refcount++
	fsys.Metrics.OpenFiles.Store(int64(len(fsys.handles)))
	fsys.Metrics.TotalOpens.Add(1)

	resp.Flags |= fuse.OpenKeepCache

	return &datasetHandle{fsys: fsys, entry: entry}, nil
}

var (
	_ fs.HandleReader   = (*datasetHandle)(nil)
	_ fs.HandleReleaser = (*datasetHandle)(nil)
)

// datasetHandle is the per-open handle returned by datasetNode.Open.
type datasetHandle struct {
	fsys  *FS
	entry *openFile
}

func (h *datasetHandle) Read(_ context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	fsys := h.fsys
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	entry := h.entry

	if req.Offset < 0 || uint64(req.Offset) >= entry.length {
		resp.Data = nil

		return nil
	}

	size := req.Size
	remaining := entry.length - uint64(req.Offset)
	if uint64(size) > remaining {
		size = int(remaining)
	}

	if entry.hasRawOffset {
		data, err := fsys.preadContainer(entry.rawOffset+uint64(req.Offset), size)
		if err == nil {
			fsys.Metrics.RawOffsetReads.Add(1)
			resp.Data = data

			return nil
		}

		fsys.rbuf.Printf("Error: %q->Read: raw offset fast path failed, falling back: %v\n", entry.containerPath, err)
	}

	if entry.buf == nil {
		buf, err := fsys.container.ReadDataset(entry.containerPath)
		if err != nil {
			fsys.rbuf.Printf("Error: %q->Read: %v\n", entry.containerPath, err)

			return fuse.ToErrno(syscall.EIO)
		}
		entry.buf = buf
	}

	fsys.Metrics.FullDecodeReads.Add(1)
	resp.Data = entry.buf[req.Offset : uint64(req.Offset)+uint64(size)]

	return nil
}

// Release decrements the open-file-table refcount, evicting and freeing
// the cached buffer at zero (spec §4.4).
func (h *datasetHandle) Release(_ context.Context, _ *fuse.ReleaseRequest) error {
	fsys := h.fsys
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	entry := h.entry
	entry.refcount--

	if entry.refcount <= 0 {
		delete(fsys.handles, entry.containerPath)
		entry.buf = nil
	}

	fsys.Metrics.OpenFiles.Store(int64(len(fsys.handles)))
	fsys.Metrics.TotalReleases.Add(1)

	return nil
}
