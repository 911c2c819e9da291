package analytics

import (
	"context"
	"fmt"
	"time"

	"tripdesk/internal/caching"
	"tripdesk/internal/models"
	"tripdesk/internal/repositories"
	"tripdesk/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AnalyticsService computes dashboard summaries and caches them per window.
type AnalyticsService struct {
	repo         repositories.DashboardRepository
	cacheService caching.CacheService
	loc          *time.Location
	now          func() time.Time
}

func NewAnalyticsService(repo repositories.DashboardRepository, cacheService caching.CacheService, loc *time.Location) *AnalyticsService {
	return &AnalyticsService{
		repo:         repo,
		cacheService: cacheService,
		loc:          loc,
		now:          time.Now,
	}
}

// Today is the current calendar day in the configured timezone.
func (s *AnalyticsService) Today() models.Date {
	return models.DateOf(s.now().In(s.loc))
}

// Summary resolves the window, serves it from cache when possible and
// otherwise aggregates fresh facts.
func (s *AnalyticsService) Summary(ctx context.Context, orgID uuid.UUID, filter, from, to string) (*Summary, error) {
	log := logger.FromContext(ctx)
	today := s.Today()

	window, err := ResolveRange(filter, from, to, today)
	if err != nil {
		return nil, err
	}
	// Overdue depends on today, so it is part of the key.
	key := fmt.Sprintf("%s:%s", window.Key(), today)

	if s.cacheService != nil {
		var cached Summary
		hit, err := s.cacheService.GetDashboard(ctx, orgID, key, &cached)
		if err != nil {
			log.Warn("dashboard cache read failed", zap.String("org_id", orgID.String()), zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	facts, err := s.loadFacts(ctx, orgID, window)
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboard data: %w", err)
	}
	summary := Aggregate(window, today, s.loc, facts)
	summary.GeneratedAt = s.now().UTC()

	if s.cacheService != nil {
		if err := s.cacheService.SetDashboard(ctx, orgID, key, summary, caching.DashboardTTL); err != nil {
			log.Warn("dashboard cache write failed", zap.String("org_id", orgID.String()), zap.Error(err))
		}
	}
	return summary, nil
}

func (s *AnalyticsService) loadFacts(ctx context.Context, orgID uuid.UUID, window Range) (Facts, error) {
	var facts Facts
	start, end := window.Bounds(s.loc)
	from, to := window.Days()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		facts.Orders, err = s.repo.OrdersCreatedBetween(gctx, orgID, start, end)
		return err
	})
	g.Go(func() (err error) {
		facts.Converted, err = s.repo.ConvertedOrdersBetween(gctx, orgID, start, end)
		return err
	})
	g.Go(func() (err error) {
		facts.Paid, err = s.repo.PaidInstallments(gctx, orgID, from, to)
		return err
	})
	g.Go(func() (err error) {
		facts.Open, err = s.repo.OpenInstallments(gctx, orgID, from, to)
		return err
	})
	return facts, g.Wait()
}
