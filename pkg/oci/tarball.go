package oci

import (
	"context"
	"fmt"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/tarball"
)

// TarballProvider reads an image config from a `docker save` style archive.
type TarballProvider struct {
	path string
	tag  *name.Tag
}

// NewTarballProvider opens path lazily. tag selects the image when the
// archive holds more than one; it may be empty.
func NewTarballProvider(path, tag string) (*TarballProvider, error) {
	p := &TarballProvider{path: path}
	if tag != "" {
		t, err := name.NewTag(tag)
		if err != nil {
			return nil, fmt.Errorf("invalid tag: %w", err)
		}
		p.tag = &t
	}
	return p, nil
}

func (p *TarballProvider) Info() string {
	if p.tag != nil {
		return fmt.Sprintf("tarball://%s#%s", p.path, p.tag.String())
	}
	return "tarball://" + p.path
}

func (p *TarballProvider) GetImage(ctx context.Context) (*Image, error) {
	img, err := tarball.ImageFromPath(p.path, p.tag)
	if err != nil {
		return nil, fmt.Errorf("open tarball: %w", err)
	}
	return fromV1Image(img)
}
