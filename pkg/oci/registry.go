package oci

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/opencontainers/go-digest"
)

// RegistryProvider fetches image configs from a container registry using go-containerregistry.
// It implements the OciImageSource interface.
//
// Only the manifest and the config blob are downloaded; layer blobs are never touched.
type RegistryProvider struct {
	imageRef name.Reference // e.g., "nginx:latest" or "docker.io/nginx:latest"
	platform string
}

// RegistryOption configures a RegistryProvider.
type RegistryOption func(*RegistryProvider)

// WithPlatform selects the platform ("os/arch[/variant]") to resolve when the
// reference points at an image index. Defaults to linux/GOARCH.
func WithPlatform(platform string) RegistryOption {
	return func(p *RegistryProvider) {
		p.platform = platform
	}
}

// NewRegistryProvider creates a new provider for the given image reference
// ref can be:
//   - "nginx:latest" (defaults to docker.io/library)
//   - "docker.io/nginx:latest"
//   - "ghcr.io/owner/repo:tag"
//   - "localhost:5000/image:tag"
func NewRegistryProvider(imageRef string, opts ...RegistryOption) (OciImageSource, error) {
	// Add docker.io default if no registry specified
	normalizedRef := imageRef
	if !strings.Contains(imageRef, "/") {
		normalizedRef = "docker.io/library/" + imageRef
	} else if !strings.Contains(strings.Split(imageRef, "/")[0], ".") && !strings.Contains(strings.Split(imageRef, "/")[0], ":") {
		// If first component has no dots or colons, prepend docker.io
		normalizedRef = "docker.io/" + imageRef
	}

	ref, err := name.ParseReference(normalizedRef)
	if err != nil {
		return nil, fmt.Errorf("invalid image reference: %w", err)
	}

	p := &RegistryProvider{
		imageRef: ref,
		platform: fmt.Sprintf("linux/%s", runtime.GOARCH),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *RegistryProvider) Info() string {
	return p.imageRef.String()
}

// GetImage fetches the manifest and config blob from the registry.
func (p *RegistryProvider) GetImage(ctx context.Context) (*Image, error) {
	platform, err := v1.ParsePlatform(p.platform)
	if err != nil {
		return nil, fmt.Errorf("could not parse platform: %w", err)
	}

	img, err := remote.Image(p.imageRef, remote.WithContext(ctx), remote.WithPlatform(*platform))
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}

	return fromV1Image(img)
}

// fromV1Image reads the config blob and manifest metadata of img.
func fromV1Image(img v1.Image) (*Image, error) {
	dgst, err := img.Digest()
	if err != nil {
		return nil, fmt.Errorf("get image digest: %w", err)
	}

	manifest, err := img.Manifest()
	if err != nil {
		return nil, fmt.Errorf("get manifest: %w", err)
	}

	raw, err := img.RawConfigFile()
	if err != nil {
		return nil, fmt.Errorf("get config file: %w", err)
	}

	image, err := newImage(raw)
	if err != nil {
		return nil, err
	}

	// config blob plus every layer blob
	manifestSize := manifest.Config.Size
	for _, layer := range manifest.Layers {
		manifestSize += layer.Size
	}

	image.Digest = digest.Digest(dgst.String())
	image.Manifest = &Manifest{
		MediaType: string(manifest.MediaType),
		Size:      manifestSize,
	}
	return image, nil
}
