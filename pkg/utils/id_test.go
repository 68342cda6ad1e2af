package utils

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewUUID7(t *testing.T) {
	seen := make(map[string]bool)
	prev := ""
	for range 100 {
		id, err := NewUUID7()
		if err != nil {
			t.Fatalf("NewUUID7: %v", err)
		}

		parsed, err := uuid.Parse(id)
		if err != nil {
			t.Fatalf("uuid.Parse(%q): %v", id, err)
		}
		if parsed.Version() != 7 {
			t.Errorf("version = %d, want 7", parsed.Version())
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true

		if prev != "" && id <= prev {
			t.Errorf("ids not increasing: %q after %q", id, prev)
		}
		prev = id
	}
}
