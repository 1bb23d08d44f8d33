package idgen

import "github.com/google/uuid"

// UUID generates application identifiers. Collision probability is
// negligible; uniqueness is still enforced by the store's insert contract.
type UUID struct{}

func (UUID) NewID() string {
	return uuid.NewString()
}
