package archive

import "fmt"

// ChildEntry is one entry returned by GroupChildren.
type ChildEntry struct {
	Name string
	Kind ObjectKind
}

// Exists reports whether path names any object or link in the archive.
func (c *Container) Exists(path string) bool {
	if path == "/" {
		return true
	}

	return c.LinkExists(path)
}

// ChildKind reports whether path is a group or a dataset, resolving
// through any hard link transparently (HDF5 hard links have no type of
// their own; they simply name an existing object).
func (c *Container) ChildKind(path string) (ObjectKind, error) {
	var kind ObjectKind

	err := c.withRaw(false, func(r rawFile) error {
		k, err := r.childKind(path)
		kind = k

		return err
	})
	if err != nil {
		return KindUnknown, fmt.Errorf("child kind of %s: %w", path, err)
	}

	return kind, nil
}

// GroupChildren lists a group's direct children in the order HDF5
// iterates them, mirroring the readdir loop of the original driver.
func (c *Container) GroupChildren(groupPath string) ([]ChildEntry, error) {
	var entries []ChildEntry

	err := c.withRaw(false, func(r rawFile) error {
		names, err := r.groupChildNames(groupPath)
		if err != nil {
			return err
		}

		entries = make([]ChildEntry, 0, len(names))
		for _, name := range names {
			childPath := groupPath
			if childPath == "/" {
				childPath = "/" + name
			} else {
				childPath = groupPath + "/" + name
			}

			kind, err := r.childKind(childPath)
			if err != nil {
				return err
			}

			entries = append(entries, ChildEntry{Name: name, Kind: kind})
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list children of %s: %w", groupPath, err)
	}

	return entries, nil
}

// EnsureGroup opens groupPath if it exists, or creates it (and every
// missing ancestor up to it, mirroring the per-component descent in the
// original packer's directory walk). It reports whether the group was
// newly created.
func (c *Container) EnsureGroup(groupPath string) (bool, error) {
	if c.LinkExists(groupPath) {
		return false, nil
	}

	if err := c.withRaw(true, func(r rawFile) error {
		return r.createGroup(groupPath)
	}); err != nil {
		return false, fmt.Errorf("ensure group %s: %w", groupPath, err)
	}

	return true, nil
}
