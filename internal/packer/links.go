package packer

// hardLink creates a hard link at destPath referring to sourcePath, or
// enqueues it for resolution at the end of the walk if sourcePath hasn't
// been written yet (spec §4.2's deferred hard links).
func (p *Packer) hardLink(sourcePath, destPath string) {
	if p.container.Exists(destPath) {
		p.container.Unlink(destPath) //nolint:errcheck
	}

	if !p.container.Exists(sourcePath) {
		p.deferred = append(p.deferred, deferredLink{source: sourcePath, dest: destPath})

		return
	}

	if err := p.container.CreateHardLink(destPath, sourcePath); err != nil {
		p.log.Printf("failed to link %s to %s: %v", sourcePath, destPath, err)
	}
}

func (p *Packer) softLink(sourcePath, destPath string) error {
	if p.container.Exists(destPath) {
		if err := p.container.Unlink(destPath); err != nil {
			return err
		}
	}

	return p.container.CreateSoftLink(destPath, sourcePath)
}

func (p *Packer) externalLink(hostPath, destPath string) error {
	if p.container.Exists(destPath) {
		if err := p.container.Unlink(destPath); err != nil {
			return err
		}
	}

	return p.container.CreateExternalLinkGroup(destPath, hostPath, p.now())
}
