package archive

import "fmt"

// Unlink removes a name from its parent group, mirroring the
// unlink-before-rewrite step storeFile performs when a destination
// dataset already exists (spec §4.2).
func (c *Container) Unlink(path string) error {
	cpath := path

	err := c.withRaw(true, func(r rawFile) error {
		return r.unlink(cpath)
	})
	if err != nil {
		return fmt.Errorf("unlink %s: %w", path, err)
	}

	return nil
}
