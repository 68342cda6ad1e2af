package oci

import (
	"fmt"

	"github.com/maxdollinger/imagespec/pkg/imagespec"
	"github.com/opencontainers/go-digest"
)

// Image is an image configuration as retrieved from a source, kept both as
// the raw blob and as the decoded model.
type Image struct {
	Digest       digest.Digest // manifest digest, empty if the source has no manifest
	ConfigDigest digest.Digest // digest of RawConfig
	RawConfig    []byte
	Spec         *imagespec.ImageSpec
	Manifest     *Manifest
}

// newImage decodes a raw config blob.
func newImage(raw []byte) (*Image, error) {
	spec, err := imagespec.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("decode image config: %w", err)
	}

	return &Image{
		ConfigDigest: digest.FromBytes(raw),
		RawConfig:    raw,
		Spec:         spec,
	}, nil
}
