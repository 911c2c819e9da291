package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"tripdesk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type MockDashboardRepository struct {
	mock.Mock
}

func (m *MockDashboardRepository) OrdersCreatedBetween(ctx context.Context, orgID uuid.UUID, start, end *time.Time) ([]models.OrderFact, error) {
	args := m.Called(ctx, orgID, start, end)
	return args.Get(0).([]models.OrderFact), args.Error(1)
}

func (m *MockDashboardRepository) ConvertedOrdersBetween(ctx context.Context, orgID uuid.UUID, start, end *time.Time) ([]models.OrderFact, error) {
	args := m.Called(ctx, orgID, start, end)
	return args.Get(0).([]models.OrderFact), args.Error(1)
}

func (m *MockDashboardRepository) PaidInstallments(ctx context.Context, orgID uuid.UUID, from, to *models.Date) ([]models.InstallmentFact, error) {
	args := m.Called(ctx, orgID, from, to)
	return args.Get(0).([]models.InstallmentFact), args.Error(1)
}

func (m *MockDashboardRepository) OpenInstallments(ctx context.Context, orgID uuid.UUID, from, to *models.Date) ([]models.InstallmentFact, error) {
	args := m.Called(ctx, orgID, from, to)
	return args.Get(0).([]models.InstallmentFact), args.Error(1)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetDashboard(ctx context.Context, orgID uuid.UUID, rangeKey string, dst any) (bool, error) {
	args := m.Called(ctx, orgID, rangeKey, dst)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) SetDashboard(ctx context.Context, orgID uuid.UUID, rangeKey string, summary any, ttl time.Duration) error {
	return m.Called(ctx, orgID, rangeKey, summary, ttl).Error(0)
}

func (m *MockCacheService) InvalidateDashboard(ctx context.Context, orgID uuid.UUID) error {
	return m.Called(ctx, orgID).Error(0)
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type AnalyticsServiceTestSuite struct {
	suite.Suite
	repo    *MockDashboardRepository
	cache   *MockCacheService
	service *AnalyticsService
	orgID   uuid.UUID
	ctx     context.Context
}

func (s *AnalyticsServiceTestSuite) SetupTest() {
	s.repo = new(MockDashboardRepository)
	s.cache = new(MockCacheService)
	s.service = NewAnalyticsService(s.repo, s.cache, time.UTC)
	s.service.now = func() time.Time { return time.Date(2025, 3, 5, 15, 0, 0, 0, time.UTC) }
	s.orgID = uuid.New()
	s.ctx = context.Background()
}

func TestAnalyticsServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsServiceTestSuite))
}

func (s *AnalyticsServiceTestSuite) expectFacts() {
	created := time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)
	s.repo.On("OrdersCreatedBetween", mock.Anything, s.orgID, mock.Anything, mock.Anything).
		Return([]models.OrderFact{{ID: uuid.New(), Status: models.OrderStatusPending, TotalAmount: amount("120"), CreatedAt: created}}, nil)
	s.repo.On("ConvertedOrdersBetween", mock.Anything, s.orgID, mock.Anything, mock.Anything).
		Return([]models.OrderFact{}, nil)
	s.repo.On("PaidInstallments", mock.Anything, s.orgID, mock.Anything, mock.Anything).
		Return([]models.InstallmentFact{}, nil)
	s.repo.On("OpenInstallments", mock.Anything, s.orgID, mock.Anything, mock.Anything).
		Return([]models.InstallmentFact{}, nil)
}

func (s *AnalyticsServiceTestSuite) TestSummary_MissComputesAndCaches() {
	key := "today:2025-03-05:2025-03-05:2025-03-05"
	s.cache.On("GetDashboard", s.ctx, s.orgID, key, mock.Anything).Return(false, nil)
	s.cache.On("SetDashboard", s.ctx, s.orgID, key, mock.AnythingOfType("*analytics.Summary"), 5*time.Minute).Return(nil)
	s.expectFacts()

	summary, err := s.service.Summary(s.ctx, s.orgID, FilterToday, "", "")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, summary.OrderCount)
	assert.Equal(s.T(), "120", summary.Revenue.String())
	s.cache.AssertExpectations(s.T())
	s.repo.AssertExpectations(s.T())
}

func (s *AnalyticsServiceTestSuite) TestSummary_HitSkipsRepository() {
	s.cache.On("GetDashboard", s.ctx, s.orgID, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			args.Get(3).(*Summary).OrderCount = 7
		}).
		Return(true, nil)

	summary, err := s.service.Summary(s.ctx, s.orgID, FilterThisMonth, "", "")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 7, summary.OrderCount)
	s.repo.AssertNotCalled(s.T(), "OrdersCreatedBetween", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *AnalyticsServiceTestSuite) TestSummary_CacheFailureFallsThrough() {
	s.cache.On("GetDashboard", s.ctx, s.orgID, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
	s.cache.On("SetDashboard", s.ctx, s.orgID, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))
	s.expectFacts()

	summary, err := s.service.Summary(s.ctx, s.orgID, FilterAll, "", "")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, summary.OrderCount)
}

func (s *AnalyticsServiceTestSuite) TestSummary_RepositoryError() {
	s.cache.On("GetDashboard", s.ctx, s.orgID, mock.Anything, mock.Anything).Return(false, nil)
	s.repo.On("OrdersCreatedBetween", mock.Anything, s.orgID, mock.Anything, mock.Anything).Return([]models.OrderFact(nil), errors.New("boom"))
	s.repo.On("ConvertedOrdersBetween", mock.Anything, s.orgID, mock.Anything, mock.Anything).Return([]models.OrderFact{}, nil).Maybe()
	s.repo.On("PaidInstallments", mock.Anything, s.orgID, mock.Anything, mock.Anything).Return([]models.InstallmentFact{}, nil).Maybe()
	s.repo.On("OpenInstallments", mock.Anything, s.orgID, mock.Anything, mock.Anything).Return([]models.InstallmentFact{}, nil).Maybe()

	_, err := s.service.Summary(s.ctx, s.orgID, FilterToday, "", "")
	assert.ErrorContains(s.T(), err, "failed to load dashboard data")
}

func (s *AnalyticsServiceTestSuite) TestSummary_InvalidFilter() {
	_, err := s.service.Summary(s.ctx, s.orgID, "yesterday-ish", "", "")
	assert.Error(s.T(), err)
	s.cache.AssertNotCalled(s.T(), "GetDashboard", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
