// Package idgen provides identifier generators for resources without an id.
package idgen

import (
	"github.com/google/uuid"

	"github.com/custodia-labs/didakt/internal/core/ports/driven"
)

// Ensure UUIDGenerator implements the interface.
var _ driven.IDGenerator = UUIDGenerator{}

// UUIDGenerator allocates random version 4 UUIDs.
type UUIDGenerator struct{}

// NewID returns a new random UUID string.
func (UUIDGenerator) NewID() string {
	return uuid.New().String()
}
