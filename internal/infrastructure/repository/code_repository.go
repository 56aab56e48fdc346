package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ipede/oauth-grant-service/internal/domain"
	"github.com/ipede/oauth-grant-service/internal/infrastructure/database"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// PostgresCodeRepository implements CodeRepository using PostgreSQL
type PostgresCodeRepository struct {
	db     *database.Postgres
	logger *zap.Logger
}

// NewCodeRepository creates a new PostgresCodeRepository
func NewCodeRepository(db *database.Postgres, logger *zap.Logger) domain.CodeRepository {
	return &PostgresCodeRepository{
		db:     db,
		logger: logger,
	}
}

func (r *PostgresCodeRepository) Create(ctx context.Context, code *domain.AuthorizationCode) error {
	scopes, err := json.Marshal(code.Scopes)
	if err != nil {
		return err
	}

	return r.db.Exec(ctx, `
		INSERT INTO authorization_codes (code, client_id, user_id, scopes, redirect_uri, state, used, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, code.Code, code.ClientID, code.UserID, scopes, code.RedirectURI, code.State,
		code.Used, code.ExpiresAt, code.CreatedAt)
}

func (r *PostgresCodeRepository) FindByCode(ctx context.Context, code string) (*domain.AuthorizationCode, error) {
	authCode := &domain.AuthorizationCode{}
	var scopes []byte

	err := r.db.QueryRow(ctx, `
		SELECT code, client_id, user_id, scopes, redirect_uri, state, used, expires_at, created_at
		FROM authorization_codes WHERE code = $1
	`, code).Scan(&authCode.Code, &authCode.ClientID, &authCode.UserID, &scopes,
		&authCode.RedirectURI, &authCode.State, &authCode.Used, &authCode.ExpiresAt, &authCode.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvalidGrant
		}
		return nil, err
	}

	if err := json.Unmarshal(scopes, &authCode.Scopes); err != nil {
		return nil, err
	}

	return authCode, nil
}

func (r *PostgresCodeRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.ExecTag(ctx, "DELETE FROM authorization_codes WHERE expires_at < now()")
	if err != nil {
		r.logger.Error("Failed to delete expired authorization codes", zap.Error(err))
		return 0, err
	}
	return tag.RowsAffected(), nil
}
