package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/nade-api/internal/dto"
	"github.com/noah-isme/nade-api/internal/models"
	appErrors "github.com/noah-isme/nade-api/pkg/errors"
)

type occurrenceStats interface {
	CountByStatus(ctx context.Context, statuses []models.OccurrenceStatus) (int64, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
	CountByType(ctx context.Context, limit int) ([]models.TypeCount, error)
	Recent(ctx context.Context, limit int) ([]dto.RecentOccurrence, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL    time.Duration
	TopTypes    int
	RecentLimit int
}

// DashboardService computes the four dashboard statistics concurrently.
// A failure in any one fails the whole response.
type DashboardService struct {
	stats  occurrenceStats
	cache  statsCache
	logger *zap.Logger
	now    func() time.Time
	cfg    DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService. cache may be nil.
func NewDashboardService(stats occurrenceStats, cache statsCache, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	if cfg.TopTypes <= 0 {
		cfg.TopTypes = 10
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{stats: stats, cache: cache, logger: logger, now: time.Now, cfg: cfg}
}

// StatsCacheKey is the cache key for the snapshot of a given local day.
func StatsCacheKey(day time.Time) string {
	return fmt.Sprintf("dash:stats:%s", day.Format("2006-01-02"))
}

// Stats returns the dashboard payload and whether it came from cache.
func (s *DashboardService) Stats(ctx context.Context) (*dto.DashboardStats, bool, error) {
	now := s.now()
	key := StatsCacheKey(now)

	if s.cache != nil {
		var cached dto.DashboardStats
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return &cached, true, nil
		}
	}

	stats, err := s.compute(ctx, now)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, stats, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return stats, false, nil
}

func (s *DashboardService) compute(ctx context.Context, now time.Time) (*dto.DashboardStats, error) {
	start := StartOfDay(now)
	end := start.AddDate(0, 0, 1)

	var out dto.DashboardStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.stats.CountByStatus(gctx, models.OpenStatuses)
		if err != nil {
			return fmt.Errorf("open occurrences: %w", err)
		}
		out.OpenOccurrences = n
		return nil
	})
	g.Go(func() error {
		n, err := s.stats.CountCreatedBetween(gctx, start, end)
		if err != nil {
			return fmt.Errorf("today occurrences: %w", err)
		}
		out.TodayOccurrences = n
		return nil
	})
	g.Go(func() error {
		counts, err := s.stats.CountByType(gctx, s.cfg.TopTypes)
		if err != nil {
			return fmt.Errorf("occurrences by type: %w", err)
		}
		out.OccurrencesByType = RankTypes(counts, s.cfg.TopTypes)
		return nil
	})
	g.Go(func() error {
		recent, err := s.stats.Recent(gctx, s.cfg.RecentLimit)
		if err != nil {
			return fmt.Errorf("recent occurrences: %w", err)
		}
		if recent == nil {
			recent = []dto.RecentOccurrence{}
		}
		out.RecentOccurrences = recent
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, appErrors.Internal(err, "dashboard stats")
	}
	return &out, nil
}

// RankTypes orders counts by count descending then type name ascending and
// keeps the first n. Stores already sort this way; re-sorting makes the
// order independent of the backend.
func RankTypes(counts []models.TypeCount, n int) []models.TypeCount {
	ranked := make([]models.TypeCount, len(counts))
	copy(ranked, counts)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Type < ranked[j].Type
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// StartOfDay is local midnight of t's day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
