package application

import (
	"context"
	"strings"
	"time"

	"github.com/ipede/oauth-grant-service/internal/domain"
	"github.com/ipede/oauth-grant-service/internal/infrastructure/config"
	"github.com/ipede/oauth-grant-service/internal/infrastructure/token"
	"go.uber.org/zap"
)

// AuthorizationService issues short-lived single-use authorization codes.
// It is the grant half of the protocol and never touches tokens.
type AuthorizationService struct {
	clientRepo domain.ClientRepository
	codeRepo   domain.CodeRepository
	scopes     *ScopeNegotiator
	generator  *token.Generator
	cfg        *config.Config
	logger     *zap.Logger
}

// NewAuthorizationService creates a new AuthorizationService
func NewAuthorizationService(
	clientRepo domain.ClientRepository,
	codeRepo domain.CodeRepository,
	scopes *ScopeNegotiator,
	generator *token.Generator,
	cfg *config.Config,
	logger *zap.Logger,
) *AuthorizationService {
	return &AuthorizationService{
		clientRepo: clientRepo,
		codeRepo:   codeRepo,
		scopes:     scopes,
		generator:  generator,
		cfg:        cfg,
		logger:     logger,
	}
}

// Authorize validates the request against the client's registration and
// persists a new authorization code bound to it
func (s *AuthorizationService) Authorize(ctx context.Context, clientID, userID string, requestedScopes []string, redirectURI, state string) (*domain.AuthorizationCode, error) {
	s.logger.Debug("Authorizing",
		zap.String("client_id", clientID),
		zap.String("user_id", userID),
		zap.Strings("scopes", requestedScopes))

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

	granted, err := s.scopes.Negotiate(client, requestedScopes)
	if err != nil {
		s.logger.Warn("Scope negotiation failed",
			zap.String("client_id", clientID),
			zap.Strings("requested", requestedScopes))
		return nil, err
	}

	if !redirectURIMatches(client.RedirectURI, redirectURI) {
		s.logger.Warn("Redirect URI mismatch",
			zap.String("client_id", clientID),
			zap.String("redirect_uri", redirectURI))
		return nil, domain.ErrRedirectURIMismatch
	}

	value, err := s.generator.Opaque()
	if err != nil {
		s.logger.Error("Failed to generate authorization code", zap.Error(err))
		return nil, domain.ErrInternal
	}

	now := time.Now()
	authCode := &domain.AuthorizationCode{
		Code:        value,
		ClientID:    client.ID,
		UserID:      userID,
		Scopes:      granted,
		RedirectURI: redirectURI,
		State:       state,
		ExpiresAt:   now.Add(s.cfg.CodeTTL),
		CreatedAt:   now,
	}

	if err := s.codeRepo.Create(ctx, authCode); err != nil {
		s.logger.Error("Failed to store authorization code", zap.Error(err))
		return nil, domain.ErrInternal
	}

	return authCode, nil
}

// redirectURIMatches compares redirect URIs by exact string equality after
// trimming a single trailing slash from both sides. That trim is the only
// normalization applied anywhere; issuance and exchange both go through here.
func redirectURIMatches(registered, provided string) bool {
	return strings.TrimSuffix(registered, "/") == strings.TrimSuffix(provided, "/")
}
