package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ipede/oauth-grant-service/internal/domain"
	"github.com/ipede/oauth-grant-service/internal/infrastructure/database"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// PostgresTokenRepository implements TokenRepository using PostgreSQL
type PostgresTokenRepository struct {
	db     *database.Postgres
	logger *zap.Logger
}

// NewTokenRepository creates a new PostgresTokenRepository
func NewTokenRepository(db *database.Postgres, logger *zap.Logger) domain.TokenRepository {
	return &PostgresTokenRepository{
		db:     db,
		logger: logger,
	}
}

// CreateConsumingCode flips the code's used flag and inserts the token in one
// transaction. The conditional UPDATE is what makes concurrent exchanges of
// the same code linearizable: only the transaction that flips the flag sees
// an affected-row count of one, every other one rolls back empty-handed.
func (r *PostgresTokenRepository) CreateConsumingCode(ctx context.Context, code string, token *domain.AccessToken) (bool, error) {
	scopes, err := json.Marshal(token.Scopes)
	if err != nil {
		return false, err
	}

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE authorization_codes SET used = true
		WHERE code = $1 AND used = false
	`, code)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO access_tokens (id, client_id, user_id, scopes, refresh_token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, token.ID, token.ClientID, token.UserID, scopes, token.RefreshToken, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert access token", zap.String("client_id", token.ClientID), zap.Error(err))
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (r *PostgresTokenRepository) FindByID(ctx context.Context, id string) (*domain.AccessToken, error) {
	return r.findBy(ctx, "id", id)
}

func (r *PostgresTokenRepository) FindByRefreshToken(ctx context.Context, refreshToken string) (*domain.AccessToken, error) {
	return r.findBy(ctx, "refresh_token", refreshToken)
}

func (r *PostgresTokenRepository) findBy(ctx context.Context, column, value string) (*domain.AccessToken, error) {
	token := &domain.AccessToken{}
	var scopes []byte

	err := r.db.QueryRow(ctx, `
		SELECT id, client_id, user_id, scopes, refresh_token, expires_at, created_at
		FROM access_tokens WHERE `+column+` = $1
	`, value).Scan(&token.ID, &token.ClientID, &token.UserID, &scopes,
		&token.RefreshToken, &token.ExpiresAt, &token.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(scopes, &token.Scopes); err != nil {
		return nil, err
	}

	return token, nil
}

// Rotate replaces the old token row with the new one transactionally. A zero
// affected-row count on the delete means the refresh token was already spent.
func (r *PostgresTokenRepository) Rotate(ctx context.Context, oldID string, token *domain.AccessToken) (bool, error) {
	scopes, err := json.Marshal(token.Scopes)
	if err != nil {
		return false, err
	}

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, "DELETE FROM access_tokens WHERE id = $1", oldID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO access_tokens (id, client_id, user_id, scopes, refresh_token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, token.ID, token.ClientID, token.UserID, scopes, token.RefreshToken, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert rotated access token", zap.String("client_id", token.ClientID), zap.Error(err))
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (r *PostgresTokenRepository) DeleteByID(ctx context.Context, id string) error {
	return r.db.Exec(ctx, "DELETE FROM access_tokens WHERE id = $1", id)
}

func (r *PostgresTokenRepository) DeleteByRefreshToken(ctx context.Context, refreshToken string) error {
	return r.db.Exec(ctx, "DELETE FROM access_tokens WHERE refresh_token = $1", refreshToken)
}

func (r *PostgresTokenRepository) DeleteByClient(ctx context.Context, clientID string) (int64, error) {
	tag, err := r.db.ExecTag(ctx, "DELETE FROM access_tokens WHERE client_id = $1", clientID)
	if err != nil {
		r.logger.Error("Failed to delete client tokens", zap.String("client_id", clientID), zap.Error(err))
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresTokenRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.ExecTag(ctx, "DELETE FROM access_tokens WHERE created_at < $1", cutoff)
	if err != nil {
		r.logger.Error("Failed to sweep stale tokens", zap.Error(err))
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresTokenRepository) CountByClient(ctx context.Context, clientID string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, "SELECT count(*) FROM access_tokens WHERE client_id = $1", clientID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
