package services

import (
	"context"
	"sync"
	"time"

	"trekhub_backend/internal/logger"
	"trekhub_backend/internal/repositories"
	"trekhub_backend/internal/services/dto"
	"trekhub_backend/pkg/apperrors"
)

type StatsService interface {
	// Snapshot возвращает последний снимок; до первого обновления считает его сам
	Snapshot(ctx context.Context) (dto.PlatformStatsDTO, error)
	Refresh(ctx context.Context) (dto.PlatformStatsDTO, error)
}

type statsService struct {
	repo repositories.StatsRepository
	now  func() time.Time

	mu       sync.RWMutex
	snapshot *dto.PlatformStatsDTO
}

func NewStatsService(repo repositories.StatsRepository) StatsService {
	return &statsService{repo: repo, now: time.Now}
}

func (s *statsService) Snapshot(ctx context.Context) (dto.PlatformStatsDTO, error) {
	s.mu.RLock()
	current := s.snapshot
	s.mu.RUnlock()

	if current != nil {
		return *current, nil
	}
	return s.Refresh(ctx)
}

func (s *statsService) Refresh(ctx context.Context) (dto.PlatformStatsDTO, error) {
	counts, err := s.repo.PlatformCounts(ctx)
	if err != nil {
		return dto.PlatformStatsDTO{}, apperrors.Wrap(err, apperrors.CodeDatabaseError, "stats", "Failed to compute platform stats", 500)
	}

	next := dto.PlatformStatsDTO{
		TotalTrails:        counts.TotalTrails,
		CommunityMembers:   counts.CommunityMembers,
		VerifiedOrganizers: counts.VerifiedOrganizers,
		ComputedAt:         s.now(),
	}

	s.mu.Lock()
	s.snapshot = &next
	s.mu.Unlock()

	logger.CtxDebug(ctx, "Platform stats refreshed", "trails", next.TotalTrails, "members", next.CommunityMembers)
	return next, nil
}
