package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// NewUUID7 returns a time-ordered UUIDv7 string, used as the row id of
// stored image configs so ids sort by insertion time.
func NewUUID7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid7: %w", err)
	}

	return id.String(), nil
}
