package postgresadapter

import (
	"context"

	"github.com/google/uuid"
)

// UUIDGenerator creates user ids and verification tokens.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
