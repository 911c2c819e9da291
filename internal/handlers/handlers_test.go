package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tripdesk/internal/common"
	"tripdesk/internal/models"
	"tripdesk/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) result(args mock.Arguments) (*services.ScheduleResult, error) {
	if r := args.Get(0); r != nil {
		return r.(*services.ScheduleResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentService) schedule(args mock.Arguments) (*models.PaymentSchedule, error) {
	if r := args.Get(0); r != nil {
		return r.(*models.PaymentSchedule), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentService) Create(ctx context.Context, orgID uuid.UUID, req *services.CreatePaymentRequest) (*services.ScheduleResult, error) {
	return m.result(m.Called(ctx, orgID, req))
}

func (m *MockPaymentService) Get(ctx context.Context, orgID, id uuid.UUID) (*models.PaymentSchedule, error) {
	return m.schedule(m.Called(ctx, orgID, id))
}

func (m *MockPaymentService) GetByOrder(ctx context.Context, orgID, orderID uuid.UUID) (*models.PaymentSchedule, error) {
	return m.schedule(m.Called(ctx, orgID, orderID))
}

func (m *MockPaymentService) List(ctx context.Context, orgID uuid.UUID, status string, limit, offset int) ([]*models.Payment, error) {
	args := m.Called(ctx, orgID, status, limit, offset)
	if r := args.Get(0); r != nil {
		return r.([]*models.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPaymentService) Update(ctx context.Context, orgID, id uuid.UUID, expectedVersion *int, req *services.UpdatePaymentRequest) (*services.ScheduleResult, error) {
	return m.result(m.Called(ctx, orgID, id, expectedVersion, req))
}

func (m *MockPaymentService) CreateInstallments(ctx context.Context, orgID, id uuid.UUID, expectedVersion *int, count int) (*services.ScheduleResult, error) {
	return m.result(m.Called(ctx, orgID, id, expectedVersion, count))
}

func (m *MockPaymentService) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	return m.Called(ctx, orgID, id).Error(0)
}

func (m *MockPaymentService) EditInstallmentAmount(ctx context.Context, orgID, installmentID uuid.UUID, expectedVersion *int, amount decimal.Decimal) (*services.ScheduleResult, error) {
	return m.result(m.Called(ctx, orgID, installmentID, expectedVersion, amount.StringFixed(2)))
}

func (m *MockPaymentService) EditInstallmentDueDate(ctx context.Context, orgID, installmentID uuid.UUID, expectedVersion *int, dueDate models.Date) (*services.ScheduleResult, error) {
	return m.result(m.Called(ctx, orgID, installmentID, expectedVersion, dueDate))
}

func (m *MockPaymentService) EditInstallmentDetails(ctx context.Context, orgID, installmentID uuid.UUID, expectedVersion *int, method, notes *string) (*services.ScheduleResult, error) {
	return m.result(m.Called(ctx, orgID, installmentID, expectedVersion, method, notes))
}

func (m *MockPaymentService) LaunchInstallmentPayment(ctx context.Context, orgID, installmentID uuid.UUID, expectedVersion *int, req *services.LaunchPaymentRequest) (*services.ScheduleResult, error) {
	return m.result(m.Called(ctx, orgID, installmentID, expectedVersion, req))
}

func (m *MockPaymentService) MarkOverdue(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func intPtr(v int) *int { return &v }

// newTestServer wires handlers behind a stub membership middleware.
func newTestServer(orgID uuid.UUID, register func(e *echo.Echo)) *echo.Echo {
	e := echo.New()
	e.Validator = NewRequestValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(false)
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := common.WithUser(c.Request().Context(), uuid.New(), "agent@example.com")
			ctx = common.WithMembership(ctx, orgID, string(models.RoleAdmin))
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})
	register(e)
	return e
}

func serve(e *echo.Echo, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) common.ErrorResponse {
	t.Helper()
	var body common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorResponse_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"field validation", common.NewValidationError("email", "is required"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"paid installment", common.ErrInstallmentPaid, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"forbidden reason", &common.ForbiddenError{Reason: "agents cannot delete payments"}, http.StatusForbidden, "FORBIDDEN"},
		{"unauthorized", common.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"not found", fmt.Errorf("payment: %w", common.ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"stale version", common.ErrVersionConflict, http.StatusPreconditionFailed, "PRECONDITION_FAILED"},
		{"installments exist", common.ErrInstallmentsExist, http.StatusConflict, "CONFLICT"},
		{"rate limited", common.ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{"operation", common.SecureErrorMessage("load payment", errors.New("conn reset")), http.StatusInternalServerError, "SERVER_ERROR"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "SERVER_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := errorResponse(tt.err, true)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestErrorResponse_HidesCauseInProduction(t *testing.T) {
	err := common.SecureErrorMessage("load payment", errors.New("dial tcp 10.0.0.3:5432: connection refused"))

	_, body := errorResponse(err, true)
	assert.NotContains(t, body.Error.Message, "10.0.0.3")
	assert.Empty(t, body.Error.Details)

	_, body = errorResponse(err, false)
	assert.Contains(t, body.Error.Details["cause"], "connection refused")
}

func TestRequestValidator_ReportsJSONFieldName(t *testing.T) {
	v := NewRequestValidator()

	err := v.Validate(&createInstallmentsRequest{Installments: 13})
	var verr *common.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "installments", verr.Field)
	assert.Equal(t, "must be at most 12", verr.Message)

	assert.NoError(t, v.Validate(&createInstallmentsRequest{Installments: 12}))
}

func TestExpectedVersion(t *testing.T) {
	tests := []struct {
		name    string
		ifMatch string
		query   string
		want    *int
		wantErr bool
	}{
		{name: "absent"},
		{name: "wildcard", ifMatch: "*"},
		{name: "quoted", ifMatch: `"3"`, want: intPtr(3)},
		{name: "weak", ifMatch: `W/"7"`, want: intPtr(7)},
		{name: "bare", ifMatch: "2", want: intPtr(2)},
		{name: "query", query: "5", want: intPtr(5)},
		{name: "header wins", ifMatch: `"1"`, query: "5", want: intPtr(1)},
		{name: "garbage", ifMatch: `"abc"`, wantErr: true},
		{name: "negative", query: "-1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/"
			if tt.query != "" {
				target += "?expected_version=" + tt.query
			}
			req := httptest.NewRequest(http.MethodPatch, target, nil)
			if tt.ifMatch != "" {
				req.Header.Set("If-Match", tt.ifMatch)
			}
			c := echo.New().NewContext(req, httptest.NewRecorder())

			got, err := expectedVersion(c)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func paymentRoutes(h *PaymentHandlers) func(e *echo.Echo) {
	return func(e *echo.Echo) {
		e.GET("/payments/:id", h.GetPayment)
		e.PATCH("/payments/:id", h.UpdatePayment)
		e.POST("/payments/:id/installments", h.CreateInstallments)
		e.PATCH("/installments/:id/amount", h.EditInstallmentAmount)
		e.PATCH("/installments/:id/due-date", h.EditInstallmentDueDate)
		e.POST("/installments/:id/pay", h.LaunchInstallmentPayment)
	}
}

func scheduleResult(version int) *services.ScheduleResult {
	return &services.ScheduleResult{PaymentSchedule: &models.PaymentSchedule{
		Payment: &models.Payment{ID: uuid.New(), Status: models.PaymentStatusPartial, Version: version},
	}}
}

func TestGetPayment_SetsETag(t *testing.T) {
	orgID, id := uuid.New(), uuid.New()
	svc := new(MockPaymentService)
	svc.On("Get", mock.Anything, orgID, id).Return(scheduleResult(4).PaymentSchedule, nil)
	e := newTestServer(orgID, paymentRoutes(NewPaymentHandlers(svc)))

	rec := serve(e, http.MethodGet, "/payments/"+id.String(), "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `"4"`, rec.Header().Get("ETag"))
}

func TestEditInstallmentAmount_PassesPrecondition(t *testing.T) {
	orgID, id := uuid.New(), uuid.New()
	svc := new(MockPaymentService)
	result := scheduleResult(5)
	result.Warnings = []string{"amount exceeds remaining balance; other open installments set to 0.00"}
	svc.On("EditInstallmentAmount", mock.Anything, orgID, id, intPtr(4), "250.00").Return(result, nil)
	e := newTestServer(orgID, paymentRoutes(NewPaymentHandlers(svc)))

	rec := serve(e, http.MethodPatch, "/installments/"+id.String()+"/amount", `{"amount":"250"}`,
		map[string]string{"If-Match": `"4"`})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `"5"`, rec.Header().Get("ETag"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body["warnings"], 1)
	assert.Contains(t, body, "payment")
	svc.AssertExpectations(t)
}

func TestEditInstallmentAmount_StaleVersion(t *testing.T) {
	orgID, id := uuid.New(), uuid.New()
	svc := new(MockPaymentService)
	svc.On("EditInstallmentAmount", mock.Anything, orgID, id, intPtr(2), "10.00").Return(nil, common.ErrVersionConflict)
	e := newTestServer(orgID, paymentRoutes(NewPaymentHandlers(svc)))

	rec := serve(e, http.MethodPatch, "/installments/"+id.String()+"/amount", `{"amount":10}`,
		map[string]string{"If-Match": `W/"2"`})

	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	assert.Equal(t, "PRECONDITION_FAILED", decodeError(t, rec).Error.Code)
}

func TestEditInstallmentAmount_RequiresAmount(t *testing.T) {
	orgID, id := uuid.New(), uuid.New()
	svc := new(MockPaymentService)
	e := newTestServer(orgID, paymentRoutes(NewPaymentHandlers(svc)))

	for _, body := range []string{`{}`, `{"amuont":"50"}`, `{"amount":null}`} {
		rec := serve(e, http.MethodPatch, "/installments/"+id.String()+"/amount", body, nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, map[string]string{"amount": "is required"}, decodeError(t, rec).Error.Details, body)
	}
	svc.AssertNotCalled(t, "EditInstallmentAmount", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEditInstallmentAmount_ZeroIsAccepted(t *testing.T) {
	orgID, id := uuid.New(), uuid.New()
	svc := new(MockPaymentService)
	svc.On("EditInstallmentAmount", mock.Anything, orgID, id, (*int)(nil), "0.00").Return(scheduleResult(3), nil)
	e := newTestServer(orgID, paymentRoutes(NewPaymentHandlers(svc)))

	rec := serve(e, http.MethodPatch, "/installments/"+id.String()+"/amount", `{"amount":"0"}`, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestEditInstallmentDueDate_RequiresDate(t *testing.T) {
	orgID, id := uuid.New(), uuid.New()
	svc := new(MockPaymentService)
	e := newTestServer(orgID, paymentRoutes(NewPaymentHandlers(svc)))

	rec := serve(e, http.MethodPatch, "/installments/"+id.String()+"/due-date", `{}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]string{"due_date": "is required"}, decodeError(t, rec).Error.Details)
	svc.AssertNotCalled(t, "EditInstallmentDueDate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdatePayment_InstallmentsExist(t *testing.T) {
	orgID, id := uuid.New(), uuid.New()
	svc := new(MockPaymentService)
	svc.On("Update", mock.Anything, orgID, id, (*int)(nil), mock.AnythingOfType("*services.UpdatePaymentRequest")).
		Return(nil, common.ErrInstallmentsExist)
	e := newTestServer(orgID, paymentRoutes(NewPaymentHandlers(svc)))

	rec := serve(e, http.MethodPatch, "/payments/"+id.String(), `{"due_date":"2025-08-01"}`, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateInstallments_RejectsCountOutOfRange(t *testing.T) {
	orgID := uuid.New()
	svc := new(MockPaymentService)
	e := newTestServer(orgID, paymentRoutes(NewPaymentHandlers(svc)))

	rec := serve(e, http.MethodPost, "/payments/"+uuid.NewString()+"/installments", `{"installments":0}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]string{"installments": "must be at least 1"}, decodeError(t, rec).Error.Details)
	svc.AssertNotCalled(t, "CreateInstallments", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLaunchInstallmentPayment_EmptyBody(t *testing.T) {
	orgID, id := uuid.New(), uuid.New()
	svc := new(MockPaymentService)
	svc.On("LaunchInstallmentPayment", mock.Anything, orgID, id, (*int)(nil), &services.LaunchPaymentRequest{}).
		Return(scheduleResult(2), nil)
	e := newTestServer(orgID, paymentRoutes(NewPaymentHandlers(svc)))

	rec := serve(e, http.MethodPost, "/installments/"+id.String()+"/pay", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestInvalidIDParam(t *testing.T) {
	svc := new(MockPaymentService)
	e := newTestServer(uuid.New(), paymentRoutes(NewPaymentHandlers(svc)))

	rec := serve(e, http.MethodGet, "/payments/not-a-uuid", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCurrentOrg_RequiresMembership(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	_, err := currentOrg(c)

	var httpErr *echo.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReadinessCheck(t *testing.T) {
	healthy := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("refused") })

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)
	require.NoError(t, NewHealthHandlers(healthy, nil, nil, "test").ReadinessCheck(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)
	require.NoError(t, NewHealthHandlers(down, nil, nil, "test").ReadinessCheck(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "database")
}
