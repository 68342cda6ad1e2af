package imagespec

import (
	"testing"

	"github.com/opencontainers/go-digest"
)

func TestDigest(t *testing.T) {
	raw := readFixture(t, "minimal.json")
	spec, err := Unmarshal(raw)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	got, err := spec.Digest()
	if err != nil {
		t.Fatalf("Digest() error = %v", err)
	}
	b, _ := Marshal(spec)
	if want := digest.FromBytes(b); got != want {
		t.Errorf("Digest() = %s, want %s", got, want)
	}
	if got.Algorithm() != digest.SHA256 {
		t.Errorf("Digest() algorithm = %s, want sha256", got.Algorithm())
	}

	again, _ := spec.Digest()
	if again != got {
		t.Errorf("Digest() not stable: %s != %s", again, got)
	}

	spec.Variant = Ptr("v2")
	changed, _ := spec.Digest()
	if changed == got {
		t.Error("Digest() did not change after a field changed")
	}
}

func TestRootfsDigests(t *testing.T) {
	tests := []struct {
		name    string
		diffIDs []string
		want    int
		wantErr bool
	}{
		{
			name:    "empty",
			diffIDs: []string{},
			want:    0,
		},
		{
			name: "valid",
			diffIDs: []string{
				"sha256:8d853c8add5d1e7b0aafc4b68a3d9fb8e7a0da27970c2acf831fe63be4a0cd2c",
				"sha256:f5fe472da25334617e6e6467c7ebce41e0ae5580e5bd0ecbf0d573bacd560ecb",
			},
			want: 2,
		},
		{
			name:    "opaque id",
			diffIDs: []string{"d1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Rootfs{DiffIDs: tt.diffIDs}.Digests()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Digests() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && len(got) != tt.want {
				t.Errorf("Digests() returned %d digests, want %d", len(got), tt.want)
			}
		})
	}
}
