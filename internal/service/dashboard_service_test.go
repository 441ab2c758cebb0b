package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/nade-api/internal/models"
	appErrors "github.com/noah-isme/nade-api/pkg/errors"
)

func seedOccurrences(repo *fakeOccurrenceRepo, now time.Time, entries ...models.Occurrence) {
	for i := range entries {
		o := entries[i]
		repo.seq++
		o.ID = fmt.Sprintf("o%d", repo.seq)
		if o.CreatedAt.IsZero() {
			o.CreatedAt = now
		}
		repo.items[o.ID] = &o
		repo.order = append(repo.order, o.ID)
	}
}

func TestDashboardStatsComputesAllFigures(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.Local)
	students := newFakeStudentRepo(models.Student{ID: "s1", Name: "Ana", Class: "9A"})
	repo := newFakeOccurrenceRepo(students, nil)
	sid := "s1"
	seedOccurrences(repo, now,
		models.Occurrence{Type: "Dano", Status: models.StatusOpen, CreatedAt: now.AddDate(0, 0, -2)},
		models.Occurrence{Type: "Bullying", Status: models.StatusInProgress},
		models.Occurrence{Type: "Bullying", Status: models.StatusResolved, StudentID: &sid},
		models.Occurrence{Type: "Ameaça", Status: models.StatusClosed},
	)

	svc := NewDashboardService(repo, nil, nil, DashboardServiceConfig{TopTypes: 2, RecentLimit: 3})
	svc.now = func() time.Time { return now }

	stats, cached, err := svc.Stats(context.Background())

	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, int64(2), stats.OpenOccurrences)
	assert.Equal(t, int64(3), stats.TodayOccurrences)
	assert.Equal(t, []models.TypeCount{{Type: "Bullying", Count: 2}, {Type: "Ameaça", Count: 1}}, stats.OccurrencesByType)
	require.Len(t, stats.RecentOccurrences, 3)
	assert.Equal(t, "Ameaça", stats.RecentOccurrences[0].Type)
	assert.Nil(t, stats.RecentOccurrences[0].Student)
	require.NotNil(t, stats.RecentOccurrences[1].Student)
	assert.Equal(t, "9A", stats.RecentOccurrences[1].Student.Class)
}

func TestDashboardStatsFailsWhenAnyQueryFails(t *testing.T) {
	repo := newFakeOccurrenceRepo(nil, nil)
	repo.statsErr = errors.New("db down")
	svc := NewDashboardService(repo, nil, nil, DashboardServiceConfig{})

	_, _, err := svc.Stats(context.Background())

	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, appErrors.FromError(err).Status)
}

func TestDashboardStatsUsesCache(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.Local)
	cache := newFakeCache()
	cacheSvc := NewCacheService(cache, nil, time.Minute, nil, true)
	repo := newFakeOccurrenceRepo(nil, nil)
	seedOccurrences(repo, now, models.Occurrence{Type: "Dano", Status: models.StatusOpen})

	svc := NewDashboardService(repo, cacheSvc, nil, DashboardServiceConfig{})
	svc.now = func() time.Time { return now }

	first, cached, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Contains(t, cache.entries, "dash:stats:2024-03-10")

	seedOccurrences(repo, now, models.Occurrence{Type: "Dano", Status: models.StatusOpen})
	second, cached, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, first.OpenOccurrences, second.OpenOccurrences)

	require.NoError(t, cacheSvc.Invalidate(context.Background(), DashboardCachePattern))
	third, cached, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, int64(2), third.OpenOccurrences)
}

func TestDashboardEmptyStore(t *testing.T) {
	svc := NewDashboardService(newFakeOccurrenceRepo(nil, nil), nil, nil, DashboardServiceConfig{})

	stats, _, err := svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Zero(t, stats.OpenOccurrences)
	assert.NotNil(t, stats.RecentOccurrences)
	assert.Empty(t, stats.OccurrencesByType)
}

func TestRankTypesTieBreak(t *testing.T) {
	counts := []models.TypeCount{{Type: "Dano", Count: 2}, {Type: "Ameaça", Count: 2}, {Type: "Bullying", Count: 5}, {Type: "Outros", Count: 1}}

	ranked := RankTypes(counts, 3)

	assert.Equal(t, []models.TypeCount{{Type: "Bullying", Count: 5}, {Type: "Ameaça", Count: 2}, {Type: "Dano", Count: 2}}, ranked)
	assert.Equal(t, "Dano", counts[0].Type, "input is not reordered")
}

func TestStatsCacheKey(t *testing.T) {
	assert.Equal(t, "dash:stats:2024-12-01", StatsCacheKey(time.Date(2024, 12, 1, 23, 59, 0, 0, time.Local)))
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.Local), StartOfDay(time.Date(2024, 12, 1, 23, 59, 0, 0, time.Local)))
}
