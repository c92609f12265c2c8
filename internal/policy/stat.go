package policy

import (
	"os"
	"syscall"
)

// inodeInfo extracts the inode number and hard-link count backing info,
// the fields spec §4.1's hard-link dedup rule consults.
func inodeInfo(info os.FileInfo) (ino uint64, nlink uint64, ok bool) {
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0, false
	}

	return sys.Ino, uint64(sys.Nlink), true
}

// modTimeUnix returns info's modification time as a Unix timestamp,
// matching the NATIVE_INT64 Modified attribute written by the Packer.
func modTimeUnix(info os.FileInfo) int64 {
	return info.ModTime().Unix()
}
