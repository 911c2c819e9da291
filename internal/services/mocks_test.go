package services

import (
	"context"
	"io"
	"time"

	"tripdesk/internal/models"
	"tripdesk/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockOrganizationRepository struct {
	mock.Mock
}

func (m *MockOrganizationRepository) CreateWithOwner(ctx context.Context, org *models.Organization, owner *models.Member) error {
	args := m.Called(ctx, org, owner)
	return args.Error(0)
}

func (m *MockOrganizationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Organization, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*models.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) Update(ctx context.Context, org *models.Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *MockOrganizationRepository) UpdateLogo(ctx context.Context, id uuid.UUID, logoURL string) error {
	args := m.Called(ctx, id, logoURL)
	return args.Error(0)
}

type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) GetByOrgAndUser(ctx context.Context, orgID, userID uuid.UUID) (*models.Member, error) {
	args := m.Called(ctx, orgID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MockMemberRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Member, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *MockMemberRepository) List(ctx context.Context, orgID uuid.UUID) ([]*models.Member, error) {
	args := m.Called(ctx, orgID)
	return args.Get(0).([]*models.Member), args.Error(1)
}

func (m *MockMemberRepository) UpdateRole(ctx context.Context, orgID, id uuid.UUID, role models.Role) error {
	args := m.Called(ctx, orgID, id, role)
	return args.Error(0)
}

func (m *MockMemberRepository) SetActive(ctx context.Context, orgID, id uuid.UUID, active bool) error {
	args := m.Called(ctx, orgID, id, active)
	return args.Error(0)
}

func (m *MockMemberRepository) CountActive(ctx context.Context, orgID uuid.UUID) (int, error) {
	args := m.Called(ctx, orgID)
	return args.Int(0), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Ensure(ctx context.Context, id uuid.UUID, email string) error {
	args := m.Called(ctx, id, email)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	args := m.Called(ctx, id, hash)
	return args.Error(0)
}

type MockInviteRepository struct {
	mock.Mock
}

func (m *MockInviteRepository) Create(ctx context.Context, invite *models.Invite) error {
	args := m.Called(ctx, invite)
	return args.Error(0)
}

func (m *MockInviteRepository) GetOpenByEmail(ctx context.Context, orgID uuid.UUID, email string, now time.Time) (*models.Invite, error) {
	args := m.Called(ctx, orgID, email, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invite), args.Error(1)
}

func (m *MockInviteRepository) GetByToken(ctx context.Context, token string) (*models.Invite, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invite), args.Error(1)
}

func (m *MockInviteRepository) ListPending(ctx context.Context, orgID uuid.UUID, now time.Time) ([]*models.Invite, error) {
	args := m.Called(ctx, orgID, now)
	return args.Get(0).([]*models.Invite), args.Error(1)
}

func (m *MockInviteRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	args := m.Called(ctx, orgID, id)
	return args.Error(0)
}

func (m *MockInviteRepository) DeleteExpiredForEmail(ctx context.Context, orgID uuid.UUID, email string, now time.Time) (int64, error) {
	args := m.Called(ctx, orgID, email, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInviteRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInviteRepository) Accept(ctx context.Context, invite *models.Invite, userID uuid.UUID, userLimit int) (*models.Member, error) {
	args := m.Called(ctx, invite, userID, userLimit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Customer, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) List(ctx context.Context, orgID uuid.UUID, search string, limit, offset int) ([]*models.Customer, error) {
	args := m.Called(ctx, orgID, search, limit, offset)
	return args.Get(0).([]*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	args := m.Called(ctx, orgID, id)
	return args.Error(0)
}

type MockPackageRepository struct {
	mock.Mock
}

func (m *MockPackageRepository) Create(ctx context.Context, pkg *models.Package) error {
	args := m.Called(ctx, pkg)
	return args.Error(0)
}

func (m *MockPackageRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Package, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Package), args.Error(1)
}

func (m *MockPackageRepository) List(ctx context.Context, orgID uuid.UUID, search string, activeOnly bool, limit, offset int) ([]*models.Package, error) {
	args := m.Called(ctx, orgID, search, activeOnly, limit, offset)
	return args.Get(0).([]*models.Package), args.Error(1)
}

func (m *MockPackageRepository) Update(ctx context.Context, pkg *models.Package) error {
	args := m.Called(ctx, pkg)
	return args.Error(0)
}

func (m *MockPackageRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	args := m.Called(ctx, orgID, id)
	return args.Error(0)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Order, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, orgID uuid.UUID, status string, limit, offset int) ([]*models.Order, error) {
	args := m.Called(ctx, orgID, status, limit, offset)
	return args.Get(0).([]*models.Order), args.Error(1)
}

func (m *MockOrderRepository) Update(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdateWithPaymentAmount(ctx context.Context, order *models.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	args := m.Called(ctx, orgID, id)
	return args.Error(0)
}

func (m *MockOrderRepository) GenerateOrderNumber(ctx context.Context, orgID uuid.UUID, year int) (string, error) {
	args := m.Called(ctx, orgID, year)
	return args.String(0), args.Error(1)
}

// MockPaymentRepository runs Mutate commands against the schedule it was
// primed with, so tests exercise the real reconciliation engine.
type MockPaymentRepository struct {
	mock.Mock
	Schedule *models.PaymentSchedule
}

func (m *MockPaymentRepository) Create(ctx context.Context, schedule *models.PaymentSchedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetSchedule(ctx context.Context, orgID, id uuid.UUID) (*models.PaymentSchedule, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentSchedule), args.Error(1)
}

func (m *MockPaymentRepository) GetScheduleByOrder(ctx context.Context, orgID, orderID uuid.UUID) (*models.PaymentSchedule, error) {
	args := m.Called(ctx, orgID, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentSchedule), args.Error(1)
}

func (m *MockPaymentRepository) List(ctx context.Context, orgID uuid.UUID, status string, limit, offset int) ([]*models.Payment, error) {
	args := m.Called(ctx, orgID, status, limit, offset)
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	args := m.Called(ctx, orgID, id)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetInstallment(ctx context.Context, orgID, id uuid.UUID) (*models.Installment, error) {
	args := m.Called(ctx, orgID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Installment), args.Error(1)
}

func (m *MockPaymentRepository) Mutate(ctx context.Context, orgID, id uuid.UUID, expectedVersion *int, cmd repositories.ScheduleCommand) (*models.PaymentSchedule, *models.ScheduleChange, error) {
	args := m.Called(ctx, orgID, id, expectedVersion)
	if err := args.Error(0); err != nil {
		return nil, nil, err
	}
	change, err := cmd(m.Schedule)
	if err != nil {
		return nil, nil, err
	}
	m.Schedule.Payment.Version++
	return m.Schedule, change, nil
}

func (m *MockPaymentRepository) ListOverdueCandidates(ctx context.Context, today models.Date) ([]repositories.OverdueCandidate, error) {
	args := m.Called(ctx, today)
	return args.Get(0).([]repositories.OverdueCandidate), args.Error(1)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetDashboard(ctx context.Context, orgID uuid.UUID, rangeKey string, dst any) (bool, error) {
	args := m.Called(ctx, orgID, rangeKey, dst)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) SetDashboard(ctx context.Context, orgID uuid.UUID, rangeKey string, summary any, ttl time.Duration) error {
	args := m.Called(ctx, orgID, rangeKey, summary, ttl)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateDashboard(ctx context.Context, orgID uuid.UUID) error {
	args := m.Called(ctx, orgID)
	return args.Error(0)
}

func (m *MockCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, email Email) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

type MockStorageService struct {
	mock.Mock
}

func (m *MockStorageService) Upload(ctx context.Context, objectName, contentType string, reader io.Reader, objectSize int64) (string, error) {
	args := m.Called(ctx, objectName, contentType, reader, objectSize)
	return args.String(0), args.Error(1)
}

func (m *MockStorageService) Delete(ctx context.Context, objectName string) error {
	args := m.Called(ctx, objectName)
	return args.Error(0)
}

func (m *MockStorageService) EnsureBucketExists(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStorageService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
