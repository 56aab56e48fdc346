package application

import (
	"context"
	"errors"
	"time"

	"github.com/ipede/oauth-grant-service/internal/domain"
	"github.com/ipede/oauth-grant-service/internal/infrastructure/config"
	"github.com/ipede/oauth-grant-service/internal/infrastructure/token"
	"go.uber.org/zap"
)

// OpenIDScope marks a grant that additionally receives a signed ID token
const OpenIDScope = "openid"

// IDTokenSigner mints the optional ID token attached to openid grants
type IDTokenSigner interface {
	SignIDToken(userID, clientID string, expiresAt time.Time) (string, error)
}

// TokenService exchanges authorization codes for tokens and manages the
// token lifecycle: validation, single-use refresh rotation, and revocation.
type TokenService struct {
	clients   *ClientService
	codeRepo  domain.CodeRepository
	tokenRepo domain.TokenRepository
	generator *token.Generator
	signer    IDTokenSigner
	cfg       *config.Config
	logger    *zap.Logger
}

// NewTokenService creates a new TokenService. The signer may be nil, in which
// case openid grants simply carry no ID token.
func NewTokenService(
	clients *ClientService,
	codeRepo domain.CodeRepository,
	tokenRepo domain.TokenRepository,
	generator *token.Generator,
	signer IDTokenSigner,
	cfg *config.Config,
	logger *zap.Logger,
) *TokenService {
	return &TokenService{
		clients:   clients,
		codeRepo:  codeRepo,
		tokenRepo: tokenRepo,
		generator: generator,
		signer:    signer,
		cfg:       cfg,
		logger:    logger,
	}
}

// Exchange consumes an authorization code exactly once and mints an access
// and refresh token pair. Every validation step short-circuits; a replayed,
// missing, or expired code is always reported as ErrInvalidGrant.
func (s *TokenService) Exchange(ctx context.Context, code, clientID, clientSecret, redirectURI string) (*domain.TokenBundle, error) {
	client, err := s.clients.Authenticate(ctx, clientID, clientSecret)
	if err != nil {
		return nil, err
	}

	authCode, err := s.codeRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if authCode.Used || authCode.IsExpired(now) {
		s.logger.Warn("Authorization code dead",
			zap.String("client_id", clientID),
			zap.Bool("used", authCode.Used),
			zap.Time("expires_at", authCode.ExpiresAt))
		return nil, domain.ErrInvalidGrant
	}

	// Binding check: a code stolen from one client must not be exchangeable
	// by another.
	if authCode.ClientID != client.ID {
		s.logger.Warn("Authorization code client mismatch",
			zap.String("client_id", clientID),
			zap.String("code_client_id", authCode.ClientID))
		return nil, domain.ErrInvalidGrant
	}

	if !redirectURIMatches(authCode.RedirectURI, redirectURI) {
		s.logger.Warn("Redirect URI mismatch at exchange",
			zap.String("client_id", clientID))
		return nil, domain.ErrRedirectURIMismatch
	}

	accessToken, err := s.mint(client.ID, authCode.UserID, authCode.Scopes, now)
	if err != nil {
		return nil, err
	}

	ok, err := s.tokenRepo.CreateConsumingCode(ctx, authCode.Code, accessToken)
	if err != nil {
		s.logger.Error("Failed to persist token exchange", zap.Error(err))
		return nil, domain.ErrInternal
	}
	if !ok {
		// Lost the consume race: another exchange already spent this code.
		s.logger.Warn("Authorization code replay detected",
			zap.String("client_id", clientID))
		return nil, domain.ErrInvalidGrant
	}

	return s.bundle(accessToken), nil
}

// Validate resolves an access token to its grant. Active is the only state
// it succeeds from.
func (s *TokenService) Validate(ctx context.Context, accessTokenID string) (*domain.TokenInfo, error) {
	accessToken, err := s.tokenRepo.FindByID(ctx, accessTokenID)
	if err != nil {
		return nil, err
	}

	if accessToken.IsExpired(time.Now()) {
		return nil, domain.ErrTokenExpired
	}

	return &domain.TokenInfo{
		ClientID: accessToken.ClientID,
		UserID:   accessToken.UserID,
		Scopes:   accessToken.Scopes,
	}, nil
}

// Refresh rotates a refresh token. Refresh tokens are single use: the old
// row is deleted and a new pair inserted in one transaction, mirroring the
// code-exchange double-spend protection. A replayed refresh token is
// ErrInvalidGrant.
func (s *TokenService) Refresh(ctx context.Context, refreshToken, clientID, clientSecret string) (*domain.TokenBundle, error) {
	client, err := s.clients.Authenticate(ctx, clientID, clientSecret)
	if err != nil {
		return nil, err
	}

	current, err := s.tokenRepo.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			return nil, domain.ErrInvalidGrant
		}
		return nil, err
	}

	if current.ClientID != client.ID {
		s.logger.Warn("Refresh token client mismatch",
			zap.String("client_id", clientID),
			zap.String("token_client_id", current.ClientID))
		return nil, domain.ErrInvalidGrant
	}

	now := time.Now()
	if now.After(current.CreatedAt.Add(s.cfg.RefreshTokenTTL)) {
		s.logger.Warn("Refresh token past its lifetime",
			zap.String("client_id", clientID),
			zap.Time("created_at", current.CreatedAt))
		return nil, domain.ErrInvalidGrant
	}

	next, err := s.mint(client.ID, current.UserID, current.Scopes, now)
	if err != nil {
		return nil, err
	}

	ok, err := s.tokenRepo.Rotate(ctx, current.ID, next)
	if err != nil {
		s.logger.Error("Failed to rotate token", zap.Error(err))
		return nil, domain.ErrInternal
	}
	if !ok {
		s.logger.Warn("Refresh token replay detected",
			zap.String("client_id", clientID))
		return nil, domain.ErrInvalidGrant
	}

	return s.bundle(next), nil
}

// Revoke deletes the token matching the given value, tried first as an
// access token ID and then as a refresh token. Revoking an absent token is a
// success: revocation sets the token to absent, and absent it already is.
func (s *TokenService) Revoke(ctx context.Context, value string) error {
	if err := s.tokenRepo.DeleteByID(ctx, value); err != nil {
		s.logger.Error("Failed to revoke by token ID", zap.Error(err))
		return domain.ErrInternal
	}
	if err := s.tokenRepo.DeleteByRefreshToken(ctx, value); err != nil {
		s.logger.Error("Failed to revoke by refresh token", zap.Error(err))
		return domain.ErrInternal
	}
	return nil
}

// mint builds a fresh access token row with new opaque credentials
func (s *TokenService) mint(clientID, userID string, scopes []string, now time.Time) (*domain.AccessToken, error) {
	id, err := s.generator.Opaque()
	if err != nil {
		s.logger.Error("Failed to generate access token", zap.Error(err))
		return nil, domain.ErrInternal
	}
	refresh, err := s.generator.Opaque()
	if err != nil {
		s.logger.Error("Failed to generate refresh token", zap.Error(err))
		return nil, domain.ErrInternal
	}

	return &domain.AccessToken{
		ID:           id,
		ClientID:     clientID,
		UserID:       userID,
		Scopes:       scopes,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(s.cfg.AccessTokenTTL),
		CreatedAt:    now,
	}, nil
}

// bundle shapes the caller-facing result, attaching an ID token when the
// grant carries the openid scope and a signer is configured
func (s *TokenService) bundle(accessToken *domain.AccessToken) *domain.TokenBundle {
	out := &domain.TokenBundle{
		AccessToken:  accessToken.ID,
		TokenType:    "Bearer",
		RefreshToken: accessToken.RefreshToken,
		Scopes:       accessToken.Scopes,
		ExpiresAt:    accessToken.ExpiresAt,
	}

	if s.signer != nil && hasScope(accessToken.Scopes, OpenIDScope) {
		idToken, err := s.signer.SignIDToken(accessToken.UserID, accessToken.ClientID, accessToken.ExpiresAt)
		if err != nil {
			// The grant itself succeeded; the bundle goes out without an ID token.
			s.logger.Error("Failed to sign ID token", zap.Error(err))
		} else {
			out.IDToken = idToken
		}
	}

	return out
}

func hasScope(scopes []string, want string) bool {
	for _, scope := range scopes {
		if scope == want {
			return true
		}
	}
	return false
}
