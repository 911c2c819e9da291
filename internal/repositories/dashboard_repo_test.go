package repositories

import (
	"context"
	"testing"
	"time"

	"tripdesk/internal/models"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func installmentFactRows() *pgxmock.Rows {
	paid := models.NewDate(2025, time.March, 5)
	return pgxmock.NewRows([]string{"id", "amount", "status", "due_date", "payment_date"}).
		AddRow(uuid.New(), decimal.RequireFromString("30.00"), models.InstallmentStatusPaid, paid, &paid)
}

func TestPaidInstallments_SingleDayUsesEquality(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	orgID := uuid.New()
	day := models.NewDate(2025, time.March, 5)
	mock.ExpectQuery(`FROM installments WHERE org_id = \$1 AND status = 'paid' AND payment_date IS NOT NULL AND payment_date = \$2`).
		WithArgs(orgID, day).
		WillReturnRows(installmentFactRows())

	facts, err := NewDashboardRepo(mock).PaidInstallments(context.Background(), orgID, &day, &day)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "2025-03-05", facts[0].PaymentDate.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaidInstallments_RangeUsesBetween(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	orgID := uuid.New()
	from := models.NewDate(2025, time.March, 1)
	to := models.NewDate(2025, time.March, 31)
	mock.ExpectQuery(`payment_date BETWEEN \$2 AND \$3`).
		WithArgs(orgID, from, to).
		WillReturnRows(installmentFactRows())

	facts, err := NewDashboardRepo(mock).PaidInstallments(context.Background(), orgID, &from, &to)
	require.NoError(t, err)
	assert.Len(t, facts, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConvertedOrders_UsesConfirmationTimestamp(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	orgID := uuid.New()
	start := time.Date(2025, 3, 1, 3, 0, 0, 0, time.UTC)
	end := time.Date(2025, 4, 1, 3, 0, 0, 0, time.UTC)
	confirmed := start.Add(48 * time.Hour)
	mock.ExpectQuery(`status IN \('confirmed', 'completed'\) AND \(\$2::timestamptz IS NULL OR COALESCE\(confirmed_at, created_at\) >= \$2\)`).
		WithArgs(orgID, &start, &end).
		WillReturnRows(pgxmock.NewRows([]string{"id", "status", "total_amount", "created_at", "confirmed_at"}).
			AddRow(uuid.New(), models.OrderStatusConfirmed, decimal.RequireFromString("1500.00"), start.AddDate(0, -1, 0), &confirmed))

	facts, err := NewDashboardRepo(mock).ConvertedOrdersBetween(context.Background(), orgID, &start, &end)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, confirmed, *facts[0].ConfirmedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
