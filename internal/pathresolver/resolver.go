// Package pathresolver implements the Path Resolver of spec §4.3: it
// classifies a mount-relative POSIX path into exactly one of the six
// categories the VFS Adapter needs in order to answer getattr, readdir,
// readlink, open and read.
package pathresolver

import (
	"path"
	"strings"
	"time"

	"github.com/csbrady-warwick/h5vfs/internal/archive"
	"github.com/jellydator/ttlcache/v3"
)

// Kind tags a Resolution's category, the six variants of spec §4.3.
type Kind int

// Recognized Kind values.
const (
	KindDot Kind = iota
	KindObject
	KindSoftLink
	KindExternalLink
	KindAttrFile
	KindAbsent
)

// Resolution is the classification of one mount-relative path.
type Resolution struct {
	Kind Kind

	// ContainerPath is the archive-absolute path of the resolved object,
	// valid for KindObject, KindSoftLink and KindExternalLink.
	ContainerPath string
	// ObjectKind is the archive object kind, valid for KindObject.
	ObjectKind archive.ObjectKind

	// AttrParentPath and AttrName are valid for KindAttrFile: the
	// archive-absolute path of the attribute's owning object, and the
	// attribute's name.
	AttrParentPath string
	AttrName       string
}

// Resolver classifies mount-relative paths against an open archive.
//
// The archive is immutable for the lifetime of a mount (spec's
// write-through Non-goal), so resolved classifications are cached with a
// bounded TTL: a cache hit can never observe a result that has since
// become stale, because nothing in the container changes underneath it.
type Resolver struct {
	container     *archive.Container
	attrSurfacing bool
	cache         *ttlcache.Cache[string, Resolution]
}

// Options configures a Resolver.
type Options struct {
	// CacheTTL bounds how long a resolved path is trusted before being
	// recomputed. Zero disables caching.
	CacheTTL time.Duration
	// CacheCapacity bounds the number of cached entries.
	CacheCapacity uint64
}

// New constructs a Resolver, consulting the archive root's H5VFS
// attribute once (spec §4.3's mount-time check) to decide whether
// attribute-as-file surfacing is enabled for this mount.
func New(container *archive.Container, opts Options) *Resolver {
	r := &Resolver{
		container:     container,
		attrSurfacing: !container.HasH5VFSMarker(),
	}

	if opts.CacheTTL > 0 {
		capacity := opts.CacheCapacity
		if capacity == 0 {
			capacity = 4096
		}

		r.cache = ttlcache.New[string, Resolution](
			ttlcache.WithTTL[string, Resolution](opts.CacheTTL),
			ttlcache.WithCapacity[string, Resolution](capacity),
		)
	}

	return r
}

// AttrSurfacingEnabled reports whether this mount surfaces attribute-as-file
// entries, the immutable boolean set once at mount time (spec §5).
func (r *Resolver) AttrSurfacingEnabled() bool {
	return r.attrSurfacing
}

// Resolve classifies mountPath, consulting the cache first.
func (r *Resolver) Resolve(mountPath string) (Resolution, error) {
	base := path.Base(mountPath)
	if base == "." || base == ".." {
		return Resolution{Kind: KindDot}, nil
	}

	if r.cache != nil {
		if item := r.cache.Get(mountPath); item != nil {
			return item.Value(), nil
		}
	}

	res, err := r.resolveUncached(mountPath)
	if err != nil {
		return Resolution{}, err
	}

	if r.cache != nil {
		r.cache.Set(mountPath, res, ttlcache.DefaultTTL)
	}

	return res, nil
}

func (r *Resolver) resolveUncached(mountPath string) (Resolution, error) {
	containerPath := toContainerPath(mountPath)

	if r.container.Exists(containerPath) {
		kind, err := r.container.LinkKindOf(containerPath)
		if err != nil {
			return Resolution{}, err
		}

		switch kind {
		case archive.LinkSoft:
			return Resolution{Kind: KindSoftLink, ContainerPath: containerPath}, nil
		default:
			objKind, err := r.container.ChildKind(containerPath)
			if err != nil {
				return Resolution{}, err
			}

			if objKind == archive.KindGroup {
				isExternal, err := r.container.HasAttr(containerPath, archive.AttrExternalLink)
				if err != nil {
					return Resolution{}, err
				}
				if isExternal {
					return Resolution{Kind: KindExternalLink, ContainerPath: containerPath}, nil
				}
			}

			return Resolution{Kind: KindObject, ContainerPath: containerPath, ObjectKind: objKind}, nil
		}
	}

	if r.attrSurfacing {
		if res, ok, err := r.resolveAttrFile(containerPath); err != nil {
			return Resolution{}, err
		} else if ok {
			return res, nil
		}
	}

	return Resolution{Kind: KindAbsent}, nil
}

// resolveAttrFile implements the attribute-as-file recognition rule of
// spec §4.3 point 5, mirroring isNameAttribute in the original driver:
// the ".attr." token's first occurrence in the basename splits it into a
// child name and an attribute name.
func (r *Resolver) resolveAttrFile(containerPath string) (Resolution, bool, error) {
	base := path.Base(containerPath)
	if !strings.HasPrefix(base, ".") {
		return Resolution{}, false, nil
	}

	rest := base[1:]

	idx := strings.Index(rest, archive.AttrSeparator)
	if idx < 0 {
		return Resolution{}, false, nil
	}

	childName := rest[:idx]
	attrName := rest[idx+len(archive.AttrSeparator):]
	if childName == "" || attrName == "" {
		return Resolution{}, false, nil
	}

	prefix := path.Dir(containerPath)
	if !r.container.Exists(prefix) {
		return Resolution{}, false, nil
	}

	kind, err := r.container.ChildKind(prefix)
	if err != nil {
		return Resolution{}, false, nil
	}
	if kind != archive.KindGroup {
		return Resolution{}, false, nil
	}

	childPath := path.Join(prefix, childName)
	if !r.container.Exists(childPath) {
		return Resolution{}, false, nil
	}

	hasAttr, err := r.container.HasAttr(childPath, attrName)
	if err != nil {
		return Resolution{}, false, err
	}
	if !hasAttr {
		return Resolution{}, false, nil
	}

	return Resolution{
		Kind:           KindAttrFile,
		AttrParentPath: childPath,
		AttrName:       attrName,
	}, true, nil
}

func toContainerPath(mountPath string) string {
	if mountPath == "" {
		return "/"
	}
	if !strings.HasPrefix(mountPath, "/") {
		return "/" + mountPath
	}

	return mountPath
}
