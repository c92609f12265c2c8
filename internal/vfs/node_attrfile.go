package vfs

import (
	"context"
	"syscall"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
)

var (
	_ fs.Node         = (*attrFileNode)(nil)
	_ fs.HandleReader = (*attrFileNode)(nil)
)

// attrFileNode is a synthetic file surfacing one attribute of parentPath
// (spec §4.3 point 5). It implements [fs.HandleReader] directly rather than
// [fs.NodeOpener]: it never goes through the open-file table, since no
// handle is allocated for an attribute-as-file (spec §4.4).
type attrFileNode struct {
	fsys       *FS
	inode      uint64
	parentPath string
	attrName   string
}

func (n *attrFileNode) Attr(_ context.Context, a *fuse.Attr) error {
	fsys := n.fsys
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	data, err := fsys.container.AttrRawBytes(n.parentPath, n.attrName)
	if err != nil {
		fsys.rbuf.Printf("Error: %q->Attr: attribute %q: %v\n", n.parentPath, n.attrName, err)

		return fuse.ToErrno(syscall.EIO)
	}

	a.Inode = n.inode
	a.Mode = filePerm
	a.Size = uint64(len(data))
	a.Nlink = 1
	a.Uid, a.Gid = fsys.uid, fsys.gid
	fsys.applyTimes(a, 0, 0)

	return nil
}

// Read decodes the attribute into a transient buffer and copies the
// clipped [offset, offset+size) window out of it (spec §4.4).
func (n *attrFileNode) Read(_ context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	fsys := n.fsys
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	data, err := fsys.container.AttrRawBytes(n.parentPath, n.attrName)
	if err != nil {
		fsys.rbuf.Printf("Error: %q->Read: attribute %q: %v\n", n.parentPath, n.attrName, err)

		return fuse.ToErrno(syscall.EIO)
	}

	if req.Offset < 0 || uint64(req.Offset) >= uint64(len(data)) {
		resp.Data = nil

		return nil
	}

	end := uint64(req.Offset) + uint64(req.Size)
	if end > uint64(len(data)) {
		end = uint64(len(data))
	}

	resp.Data = data[req.Offset:end]

	return nil
}
