package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/garyjia/gas-voucher/internal/application/port"
	"github.com/garyjia/gas-voucher/internal/domain/entity"
)

// UserService mirrors the user profiles carried by access tokens so voucher
// and payment reads can join names and contact details
type UserService interface {
	// Sync stores profile unless the same profile was stored before
	Sync(ctx context.Context, profile *entity.UserSummary) error
}

type userServiceImpl struct {
	userRepo port.UserRepository
	logger   Logger

	mu     sync.Mutex
	synced map[string]entity.UserSummary
}

// NewUserService creates a new UserService
func NewUserService(userRepo port.UserRepository, logger Logger) UserService {
	return &userServiceImpl{
		userRepo: userRepo,
		logger:   logger,
		synced:   make(map[string]entity.UserSummary),
	}
}

func (s *userServiceImpl) Sync(ctx context.Context, profile *entity.UserSummary) error {
	if profile == nil || profile.ID == "" {
		return nil
	}

	s.mu.Lock()
	last, ok := s.synced[profile.ID]
	s.mu.Unlock()
	if ok && last == *profile {
		return nil
	}

	if err := s.userRepo.Upsert(ctx, profile); err != nil {
		s.logger.Error("Failed to sync user profile", "error", err, "user_id", profile.ID)
		return fmt.Errorf("sync user %s: %w", profile.ID, err)
	}

	s.mu.Lock()
	s.synced[profile.ID] = *profile
	s.mu.Unlock()

	s.logger.Info("User profile synced", "user_id", profile.ID)
	return nil
}
