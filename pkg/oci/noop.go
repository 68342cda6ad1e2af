package oci

import (
	"context"
)

const noopConfig = `{"architecture":"amd64","os":"linux",` +
	`"config":{"Entrypoint":["/bin/sh"],"Cmd":["-c","echo hello"],"Env":["PATH=/usr/bin:/bin"],"WorkingDir":"/","User":"root"},` +
	`"rootfs":{"diff_ids":[],"type":"layers"}}`

// NoOpImageProvider for testing
type NoOpImageProvider struct{}

func NewNoOpImageProvider() *NoOpImageProvider {
	return &NoOpImageProvider{}
}

func (p *NoOpImageProvider) Info() string {
	return "registry.com/noop-image:latest"
}

func (p *NoOpImageProvider) GetImage(ctx context.Context) (*Image, error) {
	image, err := newImage([]byte(noopConfig))
	if err != nil {
		return nil, err
	}
	image.Manifest = &Manifest{MediaType: "application/vnd.oci.image.manifest.v1+json"}
	return image, nil
}
