package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/lorrc/chamados/internal/core/domain"
	apperrors "github.com/lorrc/chamados/internal/core/errors"
	"github.com/lorrc/chamados/internal/core/ports"
)

// DirectoryService serves cascading lookups from an in-memory snapshot of
// the reference feed. Reload swaps the snapshot atomically so readers never
// see a partially loaded directory.
type DirectoryService struct {
	feed     ports.DirectoryFeed
	metrics  ports.MetricsRecorder
	clock    domain.Clock
	logger   *zap.Logger
	snapshot atomic.Pointer[domain.Directory]
}

var _ ports.DirectoryService = (*DirectoryService)(nil)

// NewDirectoryService creates a directory service with an empty snapshot.
// Call Reload to populate it.
func NewDirectoryService(feed ports.DirectoryFeed, metrics ports.MetricsRecorder, clock domain.Clock, logger *zap.Logger) *DirectoryService {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &DirectoryService{
		feed:    feed,
		metrics: metrics,
		clock:   clock,
		logger:  logger.Named("directory_service"),
	}
}

// Reload reads the feed and replaces the snapshot. On failure the previous
// snapshot stays in place (empty on first load) and the error wraps
// ErrDirectoryUnavailable.
func (s *DirectoryService) Reload(ctx context.Context) error {
	entries, err := s.feed.Load(ctx)
	if err != nil {
		s.metrics.DirectoryReloaded(false, s.Size())
		s.logger.Warn("directory feed unavailable, keeping previous snapshot",
			zap.Int("entries", s.Size()),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", apperrors.ErrDirectoryUnavailable, err)
	}

	dir := domain.NewDirectory(entries, s.clock())
	s.snapshot.Store(dir)
	s.metrics.DirectoryReloaded(true, dir.Len())
	s.logger.Info("directory loaded", zap.Int("entries", dir.Len()))
	return nil
}

// Size returns the number of rows in the current snapshot.
func (s *DirectoryService) Size() int {
	return s.snapshot.Load().Len()
}

// LoadedAt returns when the current snapshot was built.
func (s *DirectoryService) LoadedAt() time.Time {
	return s.snapshot.Load().LoadedAt()
}

func (s *DirectoryService) RegionsInRange(_ context.Context, start, end time.Time) []string {
	return s.snapshot.Load().RegionsInRange(start, end)
}

func (s *DirectoryService) StoresInRange(_ context.Context, regional string, start, end time.Time) []string {
	return s.snapshot.Load().StoresInRange(regional, start, end)
}

func (s *DirectoryService) LeaderFor(_ context.Context, regional, store string, start, end time.Time) (string, bool) {
	return s.snapshot.Load().LeaderFor(regional, store, start, end)
}
