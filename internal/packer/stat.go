package packer

import (
	"os"
	"syscall"
)

// entryInfo is the subset of lstat(2) output the Packer consults,
// mirroring the struct stat fields toHDF5.cpp reads directly.
type entryInfo struct {
	isDir     bool
	isRegular bool
	isSymlink bool
	size      int64
	created   int64
	modified  int64
	perm      uint32
}

func lstatEntry(path string) (entryInfo, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return entryInfo{}, err
	}

	info := entryInfo{
		isDir:     fi.IsDir(),
		isRegular: fi.Mode().IsRegular(),
		isSymlink: fi.Mode()&os.ModeSymlink != 0,
		size:      fi.Size(),
		modified:  fi.ModTime().Unix(),
		perm:      uint32(fi.Mode().Perm()),
	}

	if sys, ok := fi.Sys().(*syscall.Stat_t); ok {
		info.created = sys.Ctim.Sec
		info.perm = sys.Mode
	} else {
		info.created = info.modified
	}

	return info, nil
}
