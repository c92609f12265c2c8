package main

import (
	"strconv"
	"strings"

	"bazil.org/fuse"
)

// parseMountOptions translates the bare FUSE-style option arguments h5vfs
// was given (the "[FUSE-options...]" tail of spec §6's usage line) into
// [fuse.MountOption] values. [bazil.org/fuse] exposes a fixed set of typed
// combinators rather than the raw string-option passthrough the original
// C fuse_main call provides, so only the recognized subset below is
// translated; anything else is reported via warn and otherwise ignored.
// fsname and ro are never accepted from the caller: both are always
// appended by the caller of this function, exactly as spec §6 describes.
func parseMountOptions(args []string, warn func(string)) []fuse.MountOption {
	var opts []fuse.MountOption

	for _, arg := range args {
		raw, ok := strings.CutPrefix(arg, "-o")
		if !ok {
			warn("ignoring unrecognized FUSE argument: " + arg)

			continue
		}

		for _, entry := range strings.Split(raw, ",") {
			if entry == "" {
				continue
			}
			opts = append(opts, translateOption(entry, warn)...)
		}
	}

	return opts
}

func translateOption(entry string, warn func(string)) []fuse.MountOption {
	key, val, hasVal := strings.Cut(entry, "=")

	switch key {
	case "allow_other":
		return []fuse.MountOption{fuse.AllowOther()}
	case "allow_root":
		return []fuse.MountOption{fuse.AllowRoot()}
	case "default_permissions":
		return []fuse.MountOption{fuse.DefaultPermissions()}
	case "nonempty":
		return []fuse.MountOption{fuse.AllowNonEmptyMount()}
	case "async_read":
		return []fuse.MountOption{fuse.AsyncRead()}
	case "writeback_cache":
		return []fuse.MountOption{fuse.WritebackCache()}
	case "subtype":
		if hasVal {
			return []fuse.MountOption{fuse.Subtype(val)}
		}
	case "volname":
		if hasVal {
			return []fuse.MountOption{fuse.VolumeName(val)}
		}
	case "max_readahead":
		if hasVal {
			if n, err := strconv.ParseUint(val, 10, 32); err == nil {
				return []fuse.MountOption{fuse.MaxReadahead(uint32(n))}
			}
		}
	case "fsname", "ro":
		warn("ignoring " + key + ": always set by h5vfs")

		return nil
	}

	warn("ignoring unrecognized FUSE option: " + entry)

	return nil
}
