package domain

import (
	"context"
	"time"
)

// TokenRepository defines the interface for access token data access
type TokenRepository interface {
	// CreateConsumingCode marks the authorization code consumed and inserts the
	// access token in a single transaction. It returns false when the code was
	// already consumed or absent; in that case nothing is written. The consume
	// is a conditional write, so concurrent exchanges of the same code agree on
	// exactly one winner even across service replicas.
	CreateConsumingCode(ctx context.Context, code string, token *AccessToken) (bool, error)

	// FindByID finds an access token by its opaque ID
	FindByID(ctx context.Context, id string) (*AccessToken, error)

	// FindByRefreshToken finds an access token by its refresh token
	FindByRefreshToken(ctx context.Context, refreshToken string) (*AccessToken, error)

	// Rotate deletes the old token row and inserts the new one in a single
	// transaction. It returns false when the old row was already gone, which
	// signals a replayed refresh token.
	Rotate(ctx context.Context, oldID string, token *AccessToken) (bool, error)

	// DeleteByID deletes an access token by ID; deleting an absent token is not an error
	DeleteByID(ctx context.Context, id string) error

	// DeleteByRefreshToken deletes an access token by refresh token; idempotent
	DeleteByRefreshToken(ctx context.Context, refreshToken string) error

	// CountByClient counts tokens currently referencing the client
	CountByClient(ctx context.Context, clientID string) (int64, error)

	// DeleteByClient removes every token issued to the client, returning the
	// number of revoked rows
	DeleteByClient(ctx context.Context, clientID string) (int64, error)

	// DeleteCreatedBefore removes token rows created before the cutoff, which
	// is how rows whose refresh lifetime has lapsed get swept
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
