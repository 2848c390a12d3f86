package store

import (
	"fmt"

	"github.com/serroba/hashlink/internal/links"
)

// unavailable marks err as an infrastructure fault.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", links.ErrStorageUnavailable, op, err)
}
