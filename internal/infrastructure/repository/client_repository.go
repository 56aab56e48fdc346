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

// PostgresClientRepository implements ClientRepository using PostgreSQL
type PostgresClientRepository struct {
	db     *database.Postgres
	logger *zap.Logger
}

// NewClientRepository creates a new PostgresClientRepository
func NewClientRepository(db *database.Postgres, logger *zap.Logger) domain.ClientRepository {
	return &PostgresClientRepository{
		db:     db,
		logger: logger,
	}
}

func (r *PostgresClientRepository) Create(ctx context.Context, client *domain.OAuthClient) error {
	scopes, err := json.Marshal(client.Scopes)
	if err != nil {
		return err
	}

	return r.db.Exec(ctx, `
		INSERT INTO oauth_clients (id, name, secret_hash, redirect_uri, scopes, client_type, status, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, client.ID, client.Name, client.SecretHash, client.RedirectURI, scopes,
		client.Type, client.Status, client.UserID, client.CreatedAt, client.UpdatedAt)
}

func (r *PostgresClientRepository) FindByID(ctx context.Context, id string) (*domain.OAuthClient, error) {
	client := &domain.OAuthClient{}
	var scopes []byte

	err := r.db.QueryRow(ctx, `
		SELECT id, name, secret_hash, redirect_uri, scopes, client_type, status, user_id, created_at, updated_at
		FROM oauth_clients WHERE id = $1
	`, id).Scan(&client.ID, &client.Name, &client.SecretHash, &client.RedirectURI, &scopes,
		&client.Type, &client.Status, &client.UserID, &client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrClientNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(scopes, &client.Scopes); err != nil {
		return nil, err
	}

	return client, nil
}

func (r *PostgresClientRepository) Update(ctx context.Context, client *domain.OAuthClient) error {
	scopes, err := json.Marshal(client.Scopes)
	if err != nil {
		return err
	}

	return r.db.Exec(ctx, `
		UPDATE oauth_clients
		SET name = $1, secret_hash = $2, redirect_uri = $3, scopes = $4, client_type = $5, status = $6, updated_at = $7
		WHERE id = $8
	`, client.Name, client.SecretHash, client.RedirectURI, scopes,
		client.Type, client.Status, client.UpdatedAt, client.ID)
}

func (r *PostgresClientRepository) Delete(ctx context.Context, id string) error {
	return r.db.Exec(ctx, "DELETE FROM oauth_clients WHERE id = $1", id)
}

func (r *PostgresClientRepository) List(ctx context.Context) ([]*domain.OAuthClient, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, secret_hash, redirect_uri, scopes, client_type, status, user_id, created_at, updated_at
		FROM oauth_clients
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []*domain.OAuthClient
	for rows.Next() {
		client := &domain.OAuthClient{}
		var scopes []byte

		err := rows.Scan(&client.ID, &client.Name, &client.SecretHash, &client.RedirectURI, &scopes,
			&client.Type, &client.Status, &client.UserID, &client.CreatedAt, &client.UpdatedAt)
		if err != nil {
			return nil, err
		}

		if err := json.Unmarshal(scopes, &client.Scopes); err != nil {
			return nil, err
		}

		clients = append(clients, client)
	}
	return clients, rows.Err()
}
