//go:build integration

package repositories_test

import (
	"context"
	"fmt"
	"testing"

	"tripdesk/internal/common"
	"tripdesk/internal/models"
	"tripdesk/internal/reconciliation"
	"tripdesk/internal/repositories"
	"tripdesk/testhelpers"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func seedPayment(t *testing.T, db *testhelpers.TestDB, f *testhelpers.Fixture, repo repositories.PaymentRepository) *models.Payment {
	t.Helper()
	total := decimal.RequireFromString("1000.00")
	orderID := testhelpers.SeedOrder(t, db, f, "ORD-2025-"+uuid.NewString()[:5], total)

	payment := &models.Payment{
		ID:      uuid.New(),
		OrgID:   f.OrgID,
		OrderID: orderID,
		Amount:  total,
		DueDate: models.NewDate(2025, 7, 1),
		Status:  models.PaymentStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), &models.PaymentSchedule{Payment: payment}))
	return payment
}

func TestPaymentMutate_SplitIsBalanced(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	f := testhelpers.SeedOrganization(t, db)
	repo := repositories.NewPaymentRepo(db.Pool)
	payment := seedPayment(t, db, f, repo)
	ctx := context.Background()

	version := payment.Version
	schedule, _, err := repo.Mutate(ctx, f.OrgID, payment.ID, &version, func(s *models.PaymentSchedule) (*models.ScheduleChange, error) {
		return reconciliation.CreateEqualSplit(s, 3)
	})
	require.NoError(t, err)
	assert.Equal(t, version+1, schedule.Payment.Version)

	stored, err := repo.GetSchedule(ctx, f.OrgID, payment.ID)
	require.NoError(t, err)
	require.Len(t, stored.Installments, 3)
	assert.True(t, reconciliation.Balanced(stored))
	assert.Equal(t, "333.34", stored.Installments[0].Amount.StringFixed(2))
}

func TestPaymentMutate_StaleVersion(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	f := testhelpers.SeedOrganization(t, db)
	repo := repositories.NewPaymentRepo(db.Pool)
	payment := seedPayment(t, db, f, repo)

	stale := payment.Version - 1
	_, _, err := repo.Mutate(context.Background(), f.OrgID, payment.ID, &stale, func(s *models.PaymentSchedule) (*models.ScheduleChange, error) {
		return &models.ScheduleChange{}, nil
	})
	assert.ErrorIs(t, err, common.ErrVersionConflict)
}

func TestPaymentMutate_ConcurrentWritersSerialize(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	f := testhelpers.SeedOrganization(t, db)
	repo := repositories.NewPaymentRepo(db.Pool)
	payment := seedPayment(t, db, f, repo)
	ctx := context.Background()

	const writers = 8
	var g errgroup.Group
	for i := 0; i < writers; i++ {
		g.Go(func() error {
			_, _, err := repo.Mutate(ctx, f.OrgID, payment.ID, nil, func(s *models.PaymentSchedule) (*models.ScheduleChange, error) {
				s.Payment.Amount = s.Payment.Amount.Add(decimal.NewFromInt(1))
				return &models.ScheduleChange{}, nil
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	stored, err := repo.GetSchedule(ctx, f.OrgID, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, payment.Version+writers, stored.Payment.Version)
	assert.Equal(t, "1008.00", stored.Payment.Amount.StringFixed(2))
}

func TestGenerateOrderNumber_Concurrent(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	f := testhelpers.SeedOrganization(t, db)
	repo := repositories.NewOrderRepo(db.Pool)
	ctx := context.Background()

	const n = 10
	numbers := make([]string, n)
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			number, err := repo.GenerateOrderNumber(ctx, f.OrgID, 2031)
			numbers[i] = number
			return err
		})
	}
	require.NoError(t, g.Wait())

	seen := make(map[string]bool, n)
	for _, number := range numbers {
		assert.False(t, seen[number], "duplicate %s", number)
		seen[number] = true
	}
	for i := 1; i <= n; i++ {
		assert.True(t, seen[fmt.Sprintf("ORD-2031-%05d", i)])
	}
}

func TestCustomerRepo_TenantIsolation(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	a := testhelpers.SeedOrganization(t, db)
	b := testhelpers.SeedOrganization(t, db)
	repo := repositories.NewCustomerRepo(db.Pool)

	_, err := repo.GetByID(context.Background(), b.OrgID, a.CustomerID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUpdateWithPaymentAmount_KeepsPaymentInStep(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	f := testhelpers.SeedOrganization(t, db)
	payments := repositories.NewPaymentRepo(db.Pool)
	orders := repositories.NewOrderRepo(db.Pool)
	payment := seedPayment(t, db, f, payments)
	ctx := context.Background()

	order, err := orders.GetByID(ctx, f.OrgID, payment.OrderID)
	require.NoError(t, err)
	order.TotalAmount = decimal.RequireFromString("1250.00")
	require.NoError(t, orders.UpdateWithPaymentAmount(ctx, order))

	stored, err := payments.GetSchedule(ctx, f.OrgID, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, "1250.00", stored.Payment.Amount.StringFixed(2))
	assert.Equal(t, payment.Version+1, stored.Payment.Version)
}
