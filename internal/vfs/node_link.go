package vfs

import (
	"context"
	"os"
	"syscall"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"

	"github.com/csbrady-warwick/h5vfs/internal/archive"
)

var (
	_ fs.Node           = (*softLinkNode)(nil)
	_ fs.NodeReadlinker = (*softLinkNode)(nil)
)

// softLinkNode is an intra-archive soft link, presented as a symlink
// pointing at the mounted path of its target (spec §4.4).
type softLinkNode struct {
	fsys          *FS
	inode         uint64
	containerPath string
}

func (n *softLinkNode) Attr(_ context.Context, a *fuse.Attr) error {
	fsys := n.fsys
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	target, err := fsys.container.SoftLinkTarget(n.containerPath)
	if err != nil {
		fsys.rbuf.Printf("Error: %q->Attr: %v\n", n.containerPath, err)

		return fuse.ToErrno(syscall.EIO)
	}

	var size uint64
	if length, err := fsys.container.DatasetLength(target); err == nil {
		size = length
	}

	a.Inode = n.inode
	a.Mode = os.ModeSymlink | linkPerm
	a.Size = size
	a.Nlink = 1
	a.Uid, a.Gid = fsys.uid, fsys.gid
	fsys.applyTimes(a, 0, 0)

	return nil
}

func (n *softLinkNode) Readlink(_ context.Context, _ *fuse.ReadlinkRequest) (string, error) {
	fsys := n.fsys
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	target, err := fsys.container.SoftLinkTarget(n.containerPath)
	if err != nil {
		fsys.rbuf.Printf("Error: %q->Readlink: %v\n", n.containerPath, err)

		return "", fuse.ToErrno(syscall.EIO)
	}

	result := fsys.mountPoint + target
	if len(result) > maxLinkBytes {
		return "", fuse.ToErrno(syscall.ENAMETOOLONG)
	}

	return result, nil
}

var (
	_ fs.Node           = (*externalLinkNode)(nil)
	_ fs.NodeReadlinker = (*externalLinkNode)(nil)
)

// externalLinkNode is a group bearing the ExternalLink attribute,
// presented as a symlink pointing directly at the host path it was
// recorded with (spec §4.4).
type externalLinkNode struct {
	fsys          *FS
	inode         uint64
	containerPath string
}

func (n *externalLinkNode) Attr(_ context.Context, a *fuse.Attr) error {
	fsys := n.fsys
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	hostPath, ok, err := fsys.container.StringAttr(n.containerPath, archive.AttrExternalLink)
	if err != nil || !ok {
		fsys.rbuf.Printf("Error: %q->Attr: external link attribute: %v\n", n.containerPath, err)

		return fuse.ToErrno(syscall.EIO)
	}

	var size uint64
	if info, statErr := os.Stat(hostPath); statErr == nil {
		size = uint64(info.Size())
	}

	created, _, _ := readObjectMeta(fsys, n.containerPath)

	a.Inode = n.inode
	a.Mode = os.ModeSymlink | linkPerm
	a.Size = size
	a.Nlink = 1
	a.Uid, a.Gid = fsys.uid, fsys.gid
	fsys.applyTimes(a, created, 0)

	return nil
}

func (n *externalLinkNode) Readlink(_ context.Context, _ *fuse.ReadlinkRequest) (string, error) {
	fsys := n.fsys
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	hostPath, ok, err := fsys.container.StringAttr(n.containerPath, archive.AttrExternalLink)
	if err != nil || !ok {
		fsys.rbuf.Printf("Error: %q->Readlink: external link attribute: %v\n", n.containerPath, err)

		return "", fuse.ToErrno(syscall.EIO)
	}

	if len(hostPath) > maxLinkBytes {
		return "", fuse.ToErrno(syscall.ENAMETOOLONG)
	}

	return hostPath, nil
}
