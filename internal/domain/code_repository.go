package domain

import "context"

// CodeRepository defines the interface for authorization code data access.
// Consumption of a code is not exposed here; it happens atomically together
// with token creation through TokenRepository.CreateConsumingCode so that a
// code can never be spent without the token insert committing alongside it.
type CodeRepository interface {
	// Create persists a new authorization code
	Create(ctx context.Context, code *AuthorizationCode) error

	// FindByCode finds an authorization code by its value
	FindByCode(ctx context.Context, code string) (*AuthorizationCode, error)

	// DeleteExpired removes codes whose expiry is in the past
	DeleteExpired(ctx context.Context) (int64, error)
}
