package imagespec

import (
	"fmt"

	"github.com/opencontainers/go-digest"
)

// Digest returns the sha256 digest of the serialized document.
func (s *ImageSpec) Digest() (digest.Digest, error) {
	b, err := Marshal(s)
	if err != nil {
		return "", fmt.Errorf("serialize image spec: %w", err)
	}
	return digest.FromBytes(b), nil
}

// Digests parses DiffIDs as content digests, in layer order.
func (r Rootfs) Digests() ([]digest.Digest, error) {
	out := make([]digest.Digest, 0, len(r.DiffIDs))
	for i, id := range r.DiffIDs {
		d, err := digest.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("diff_ids[%d] %q: %w", i, id, err)
		}
		out = append(out, d)
	}
	return out, nil
}
