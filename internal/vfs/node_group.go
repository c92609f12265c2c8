package vfs

import (
	"context"
	"os"
	"syscall"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"

	"github.com/csbrady-warwick/h5vfs/internal/archive"
	"github.com/csbrady-warwick/h5vfs/internal/pathresolver"
)

var (
	_ fs.Node               = (*groupNode)(nil)
	_ fs.HandleReadDirAller = (*groupNode)(nil)
	_ fs.NodeStringLookuper = (*groupNode)(nil)
)

// groupNode is an archive group, presented as a regular directory.
type groupNode struct {
	fsys          *FS
	inode         uint64
	containerPath string
}

func (n *groupNode) Attr(_ context.Context, a *fuse.Attr) error {
	fsys := n.fsys
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	created, modified, perm := readObjectMeta(fsys, n.containerPath)

	a.Inode = n.inode
	a.Mode = os.ModeDir | dirPerm
	if perm != 0 {
		a.Mode = os.ModeDir | os.FileMode(perm&0o777)
	}
	a.Nlink = 2
	a.Uid, a.Gid = fsys.uid, fsys.gid
	fsys.applyTimes(a, created, modified)

	return nil
}

func (n *groupNode) ReadDirAll(_ context.Context) ([]fuse.Dirent, error) {
	fsys := n.fsys
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	children, err := fsys.container.GroupChildren(n.containerPath)
	if err != nil {
		fsys.rbuf.Printf("Error: %q->ReadDirAll: %v\n", n.containerPath, err)

		return nil, fuse.ToErrno(syscall.EIO)
	}

	resp := make([]fuse.Dirent, 0, len(children))

	for _, child := range children {
		childPath := joinContainerPath(n.containerPath, child.Name)

		res, err := fsys.resolver.Resolve(childPath)
		if err != nil {
			fsys.rbuf.Printf("Error: %q->ReadDirAll->%q: %v\n", n.containerPath, child.Name, err)

			return nil, fuse.ToErrno(syscall.EIO)
		}

		resp = append(resp, fuse.Dirent{
			Name:  child.Name,
			Type:  direntType(res),
			Inode: fs.GenerateDynamicInode(n.inode, child.Name),
		})

		if !fsys.resolver.AttrSurfacingEnabled() {
			continue
		}

		names, err := fsys.container.AttrNames(childPath)
		if err != nil {
			fsys.rbuf.Printf("Error: %q->ReadDirAll->%q: attribute names: %v\n", n.containerPath, child.Name, err)

			continue
		}

		for _, attr := range names {
			synthetic := "." + child.Name + archive.AttrSeparator + attr
			resp = append(resp, fuse.Dirent{
				Name:  synthetic,
				Type:  fuse.DT_File,
				Inode: fs.GenerateDynamicInode(n.inode, synthetic),
			})
		}
	}

	return resp, nil
}

func (n *groupNode) Lookup(_ context.Context, name string) (fs.Node, error) {
	fsys := n.fsys
	fsys.mu.Lock()
	defer fsys.mu.Unlock()

	return fsys.lookupLocked(n.inode, n.containerPath, name)
}

// lookupLocked resolves name within parentPath. Callers must hold fsys.mu.
func (fsys *FS) lookupLocked(parentInode uint64, parentPath, name string) (fs.Node, error) {
	childPath := joinContainerPath(parentPath, name)

	res, err := fsys.resolver.Resolve(childPath)
	if err != nil {
		fsys.rbuf.Printf("Error: %q->Lookup->%q: %v\n", parentPath, name, err)

		return nil, fuse.ToErrno(syscall.EIO)
	}

	inode := fs.GenerateDynamicInode(parentInode, name)

	switch res.Kind {
	case pathresolver.KindObject:
		if res.ObjectKind == archive.KindGroup {
			return &groupNode{fsys: fsys, inode: inode, containerPath: res.ContainerPath}, nil
		}

		return &datasetNode{fsys: fsys, inode: inode, containerPath: res.ContainerPath}, nil

	case pathresolver.KindSoftLink:
		return &softLinkNode{fsys: fsys, inode: inode, containerPath: res.ContainerPath}, nil

	case pathresolver.KindExternalLink:
		return &externalLinkNode{fsys: fsys, inode: inode, containerPath: res.ContainerPath}, nil

	case pathresolver.KindAttrFile:
		return &attrFileNode{fsys: fsys, inode: inode, parentPath: res.AttrParentPath, attrName: res.AttrName}, nil

	default:
		return nil, fuse.ToErrno(syscall.ENOENT)
	}
}

// direntType maps a resolution to the dirent type readdir reports for it.
func direntType(res pathresolver.Resolution) fuse.DirentType {
	switch res.Kind {
	case pathresolver.KindSoftLink, pathresolver.KindExternalLink:
		return fuse.DT_Link
	case pathresolver.KindObject:
		if res.ObjectKind == archive.KindGroup {
			return fuse.DT_Dir
		}

		return fuse.DT_File
	default:
		return fuse.DT_File
	}
}
