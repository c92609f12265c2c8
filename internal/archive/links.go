package archive

import "fmt"

// LinkExists reports whether name is present as a direct link in its
// parent, without resolving it.
func (c *Container) LinkExists(path string) bool {
	var exists bool

	c.withRaw(false, func(r rawFile) error {
		exists = r.linkExists(path)

		return nil
	})

	return exists
}

// LinkKindOf classifies path: a soft link, an external-link group, a
// hard-linked dataset/group (indistinguishable from a first reference at
// this layer), or none.
func (c *Container) LinkKindOf(path string) (LinkKind, error) {
	var kind LinkKind

	err := c.withRaw(false, func(r rawFile) error {
		if !r.linkExists(path) {
			kind = LinkNone

			return nil
		}

		soft, err := r.isSoftLink(path)
		if err != nil {
			return err
		}
		if soft {
			kind = LinkSoft

			return nil
		}

		objKind, err := r.childKind(path)
		if err != nil {
			return err
		}
		if objKind == KindGroup && r.attrExists(path, AttrExternalLink) {
			kind = LinkExternal

			return nil
		}

		kind = LinkHard

		return nil
	})

	return kind, err
}

// SoftLinkTarget reads the archive-internal path a soft link points to.
func (c *Container) SoftLinkTarget(path string) (string, error) {
	var target string

	err := c.withRaw(false, func(r rawFile) error {
		t, err := r.softLinkTarget(path)
		target = t

		return err
	})

	return target, err
}

// CreateSoftLink creates a soft link at linkPath pointing to target,
// which must be an archive-absolute path (spec §4.1's composed
// "/" + base_name + relative path form).
func (c *Container) CreateSoftLink(linkPath, target string) error {
	if err := c.withRaw(true, func(r rawFile) error {
		return r.createSoftLink(target, linkPath)
	}); err != nil {
		return fmt.Errorf("create soft link %s -> %s: %w", linkPath, target, err)
	}

	return nil
}

// CreateHardLink creates a hard link at linkPath referring to the object
// already stored at existingPath.
func (c *Container) CreateHardLink(linkPath, existingPath string) error {
	if err := c.withRaw(true, func(r rawFile) error {
		return r.createHardLink(existingPath, linkPath)
	}); err != nil {
		return fmt.Errorf("create hard link %s -> %s: %w", linkPath, existingPath, err)
	}

	return nil
}

// CreateExternalLinkGroup creates a group at linkPath and tags it with
// the ExternalLink attribute, the on-disk representation of a symlink
// that escapes the base directory under storeexternalsymlinks=link.
func (c *Container) CreateExternalLinkGroup(linkPath, hostPath string, created int64) error {
	if err := c.withRaw(true, func(r rawFile) error {
		return r.createGroup(linkPath)
	}); err != nil {
		return fmt.Errorf("create external link group %s: %w", linkPath, err)
	}

	if err := c.WriteExternalLink(linkPath, hostPath); err != nil {
		return err
	}

	return c.writeInt64Attr(linkPath, AttrCreated, created)
}
