package application

import (
	"context"
	"time"

	"github.com/ipede/oauth-grant-service/internal/domain"
	"github.com/ipede/oauth-grant-service/internal/infrastructure/config"
	"go.uber.org/zap"
)

// MaintenanceService sweeps expired grant artifacts. Expiry is already
// enforced at read time, so the sweep is purely about keeping the tables
// from growing without bound.
type MaintenanceService struct {
	codeRepo  domain.CodeRepository
	tokenRepo domain.TokenRepository
	cfg       *config.Config
	logger    *zap.Logger
}

// NewMaintenanceService creates a new MaintenanceService
func NewMaintenanceService(codeRepo domain.CodeRepository, tokenRepo domain.TokenRepository, cfg *config.Config, logger *zap.Logger) *MaintenanceService {
	return &MaintenanceService{
		codeRepo:  codeRepo,
		tokenRepo: tokenRepo,
		cfg:       cfg,
		logger:    logger,
	}
}

// Sweep deletes expired authorization codes and token rows whose refresh
// lifetime has lapsed
func (s *MaintenanceService) Sweep(ctx context.Context) error {
	codes, err := s.codeRepo.DeleteExpired(ctx)
	if err != nil {
		s.logger.Error("Failed to sweep expired authorization codes", zap.Error(err))
		return err
	}

	cutoff := time.Now().Add(-s.cfg.RefreshTokenTTL)
	tokens, err := s.tokenRepo.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("Failed to sweep stale tokens", zap.Error(err))
		return err
	}

	if codes > 0 || tokens > 0 {
		s.logger.Info("Sweep completed",
			zap.Int64("codes_deleted", codes),
			zap.Int64("tokens_deleted", tokens))
	}
	return nil
}

// Run sweeps on the given interval until the context is cancelled
func (s *MaintenanceService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Warn("Sweep failed, will retry next interval", zap.Error(err))
			}
		}
	}
}
