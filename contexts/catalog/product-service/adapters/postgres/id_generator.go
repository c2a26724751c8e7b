package postgresadapter

import (
	"context"

	"github.com/google/uuid"
)

// UUIDGenerator creates product, file, and media identifiers.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
