package packer

import (
	"path"

	"github.com/csbrady-warwick/h5vfs/internal/archive"
)

// archiveLookup adapts a Container/group path pair to the
// policy.ExistingLookup interface the Policy Engine consults for
// already-present destinations.
type archiveLookup struct {
	container *archive.Container
	groupPath string
}

func (l archiveLookup) childPath(name string) string {
	return path.Join(l.groupPath, name)
}

func (l archiveLookup) Exists(name string) bool {
	return l.container.Exists(l.childPath(name))
}

func (l archiveLookup) DatasetLength(name string) (uint64, bool, error) {
	if !l.Exists(name) {
		return 0, false, nil
	}

	n, err := l.container.DatasetLength(l.childPath(name))
	if err != nil {
		return 0, false, err
	}

	return n, true, nil
}

func (l archiveLookup) ModifiedAttr(name string) (int64, bool, error) {
	return l.container.Int64Attr(l.childPath(name), archive.AttrModified)
}

func (l archiveLookup) MD5Attr(name string) (string, bool, error) {
	return l.container.StringAttr(l.childPath(name), archive.AttrMD5Hash)
}
