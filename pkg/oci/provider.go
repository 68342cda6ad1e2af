// Package oci retrieves image configuration documents from registries,
// docker save archives and plain files.
package oci

import (
	"context"
)

// OciImageSource yields one image config. Info names the source for logs
// and for the reference recorded next to stored configs.
type OciImageSource interface {
	GetImage(ctx context.Context) (*Image, error)
	Info() string
}

var (
	_ OciImageSource = (*RegistryProvider)(nil)
	_ OciImageSource = (*TarballProvider)(nil)
	_ OciImageSource = (*FileProvider)(nil)
	_ OciImageSource = (*NoOpImageProvider)(nil)
)

// Manifest summarizes the manifest an image config was reached through.
// Size is the config blob plus all layer blobs.
type Manifest struct {
	MediaType string
	Size      int64
}
