package application

import (
	"context"
	"time"

	"github.com/ipede/oauth-grant-service/internal/domain"
	"github.com/ipede/oauth-grant-service/internal/infrastructure/secret"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// ClientService is the client registry. It authenticates clients for the
// token endpoint and owns client management.
type ClientService struct {
	clientRepo domain.ClientRepository
	tokenRepo  domain.TokenRepository
	logger     *zap.Logger
}

// NewClientService creates a new ClientService
func NewClientService(clientRepo domain.ClientRepository, tokenRepo domain.TokenRepository, logger *zap.Logger) *ClientService {
	return &ClientService{
		clientRepo: clientRepo,
		tokenRepo:  tokenRepo,
		logger:     logger,
	}
}

// Authenticate validates client identity. Confidential clients must present
// their secret; public clients have none and any presented value is ignored.
func (s *ClientService) Authenticate(ctx context.Context, clientID, clientSecret string) (*domain.OAuthClient, error) {
	s.logger.Debug("Authenticating client", zap.String("client_id", clientID))

	client, err := s.clientRepo.FindByID(ctx, clientID)
	if err != nil {
		s.logger.Warn("Failed to find client",
			zap.String("client_id", clientID),
			zap.Error(err))
		return nil, err
	}

	if !client.IsActive() {
		s.logger.Warn("Client is not active",
			zap.String("client_id", clientID),
			zap.String("status", string(client.Status)))
		return nil, domain.ErrClientDisabled
	}

	if client.Type == domain.ClientTypeConfidential {
		if err := secret.CheckSecret(clientSecret, client.SecretHash); err != nil {
			s.logger.Warn("Client secret mismatch", zap.String("client_id", clientID))
			return nil, domain.ErrInvalidClientSecret
		}
	}

	return client, nil
}

// CreateClientInput carries the fields needed to register a client
type CreateClientInput struct {
	Name        string
	RedirectURI string
	Scopes      []string
	Type        domain.ClientType
	UserID      string
}

// CreateClient registers a new client. For confidential clients the generated
// secret is returned exactly once; only its hash is stored.
func (s *ClientService) CreateClient(ctx context.Context, in CreateClientInput, plainSecret string) (*domain.OAuthClient, error) {
	now := time.Now()
	client := &domain.OAuthClient{
		ID:          ulid.Make().String(),
		Name:        in.Name,
		RedirectURI: in.RedirectURI,
		Scopes:      in.Scopes,
		Type:        in.Type,
		Status:      domain.ClientStatusActive,
		UserID:      in.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if in.Type == domain.ClientTypeConfidential {
		hash, err := secret.HashSecret(plainSecret)
		if err != nil {
			s.logger.Error("Failed to hash client secret", zap.Error(err))
			return nil, domain.ErrInternal
		}
		client.SecretHash = hash
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		s.logger.Error("Failed to create client", zap.Error(err))
		return nil, domain.ErrInternal
	}

	s.logger.Info("Client created",
		zap.String("client_id", client.ID),
		zap.String("type", string(client.Type)))
	return client, nil
}

// GetClient finds a client by ID
func (s *ClientService) GetClient(ctx context.Context, id string) (*domain.OAuthClient, error) {
	return s.clientRepo.FindByID(ctx, id)
}

// ListClients lists all registered clients
func (s *ClientService) ListClients(ctx context.Context) ([]*domain.OAuthClient, error) {
	return s.clientRepo.List(ctx)
}

// UpdateClient mutates the client's metadata and status. Suspending a client
// also revokes its outstanding tokens; expiry checks alone would leave them
// usable until they run out.
func (s *ClientService) UpdateClient(ctx context.Context, client *domain.OAuthClient) error {
	client.UpdatedAt = time.Now()
	if err := s.clientRepo.Update(ctx, client); err != nil {
		s.logger.Error("Failed to update client",
			zap.String("client_id", client.ID),
			zap.Error(err))
		return domain.ErrInternal
	}

	if client.Status == domain.ClientStatusSuspended {
		revoked, err := s.tokenRepo.DeleteByClient(ctx, client.ID)
		if err != nil {
			s.logger.Error("Failed to revoke tokens of suspended client",
				zap.String("client_id", client.ID),
				zap.Error(err))
			return domain.ErrInternal
		}
		if revoked > 0 {
			s.logger.Info("Revoked tokens of suspended client",
				zap.String("client_id", client.ID),
				zap.Int64("revoked", revoked))
		}
	}

	return nil
}

// DeleteClient removes a client. Clients with live tokens cannot be hard
// deleted; they must be soft-disabled via status instead.
func (s *ClientService) DeleteClient(ctx context.Context, id string) error {
	if _, err := s.clientRepo.FindByID(ctx, id); err != nil {
		return err
	}

	count, err := s.tokenRepo.CountByClient(ctx, id)
	if err != nil {
		s.logger.Error("Failed to count client tokens",
			zap.String("client_id", id),
			zap.Error(err))
		return domain.ErrInternal
	}
	if count > 0 {
		return domain.ErrClientHasTokens
	}

	if err := s.clientRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete client",
			zap.String("client_id", id),
			zap.Error(err))
		return domain.ErrInternal
	}

	s.logger.Info("Client deleted", zap.String("client_id", id))
	return nil
}
