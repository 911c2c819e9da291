package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tripdesk/internal/common"
	"tripdesk/internal/config"
	"tripdesk/internal/models"
	"tripdesk/internal/policy"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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
	return m.Called(ctx, orgID, id, role).Error(0)
}

func (m *MockMemberRepository) SetActive(ctx context.Context, orgID, id uuid.UUID, active bool) error {
	return m.Called(ctx, orgID, id, active).Error(0)
}

func (m *MockMemberRepository) CountActive(ctx context.Context, orgID uuid.UUID) (int, error) {
	args := m.Called(ctx, orgID)
	return args.Int(0), args.Error(1)
}

const testSecret = "test-secret"

func signToken(t *testing.T, sub, email string, expires time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email: email,
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()
	users := new(MockUserRepository)
	users.On("Ensure", mock.Anything, userID, "ana@example.com").Return(nil)

	auth, stop, err := JWTAuth(config.JWTConfig{Secret: testSecret})
	require.NoError(t, err)
	defer stop()

	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		id, _ := common.GetUserIDFromContext(c.Request().Context())
		email, _ := common.GetUserEmailFromContext(c.Request().Context())
		return c.String(http.StatusOK, id.String()+" "+email)
	}, auth, Authenticate(users))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+signToken(t, userID.String(), "Ana@Example.com", time.Now().Add(time.Hour)))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID.String()+" ana@example.com", rec.Body.String())
	users.AssertExpectations(t)
}

func TestAuthenticate_Rejections(t *testing.T) {
	auth, stop, err := JWTAuth(config.JWTConfig{Secret: testSecret})
	require.NoError(t, err)
	defer stop()

	e := echo.New()
	e.GET("/me", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, auth, Authenticate(new(MockUserRepository)))

	cases := map[string]string{
		"missing": "",
		"expired": "Bearer " + signToken(t, uuid.NewString(), "a@b.com", time.Now().Add(-time.Minute)),
		"subject": "Bearer " + signToken(t, "not-a-uuid", "a@b.com", time.Now().Add(time.Hour)),
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set(echo.HeaderAuthorization, header)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
}

func TestJWTAuth_RequiresKeyMaterial(t *testing.T) {
	_, _, err := JWTAuth(config.JWTConfig{})
	assert.Error(t, err)
}

func serveInOrg(t *testing.T, members *MockMemberRepository, userID uuid.UUID, path string, header string, mw ...echo.MiddlewareFunc) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	if header != "" {
		req.Header.Set(HeaderOrganizationID, header)
	}
	req = req.WithContext(common.WithUser(req.Context(), userID, "ana@example.com"))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/orgs/:orgID/orders")

	var handler echo.HandlerFunc = func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	for i := len(mw) - 1; i >= 0; i-- {
		handler = mw[i](handler)
	}
	chain := RequireMembership(members)(handler)
	return chain(c)
}

func TestRequireMembership_FromHeader(t *testing.T) {
	orgID, userID := uuid.New(), uuid.New()
	members := new(MockMemberRepository)
	members.On("GetByOrgAndUser", mock.Anything, orgID, userID).
		Return(&models.Member{OrgID: orgID, UserID: userID, Role: models.RoleAgent, Active: true}, nil)

	var seenRole string
	capture := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			seenRole, _ = common.GetMemberRoleFromContext(c.Request().Context())
			return next(c)
		}
	}
	err := serveInOrg(t, members, userID, "/v1/orders", orgID.String(), capture)

	require.NoError(t, err)
	assert.Equal(t, "agent", seenRole)
}

func TestRequireMembership_Rejections(t *testing.T) {
	orgID, userID := uuid.New(), uuid.New()
	members := new(MockMemberRepository)

	err := serveInOrg(t, members, userID, "/v1/orders", "")
	assert.ErrorIs(t, err, common.ErrValidation)

	err = serveInOrg(t, members, userID, "/v1/orders", "nope")
	assert.ErrorIs(t, err, common.ErrValidation)

	members.On("GetByOrgAndUser", mock.Anything, orgID, userID).Return(nil, common.ErrNotFound).Once()
	err = serveInOrg(t, members, userID, "/v1/orders", orgID.String())
	assert.ErrorIs(t, err, common.ErrForbidden)

	members.On("GetByOrgAndUser", mock.Anything, orgID, userID).
		Return(&models.Member{Role: models.RoleAdmin, Active: false}, nil).Once()
	err = serveInOrg(t, members, userID, "/v1/orders", orgID.String())
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestRequireCapability(t *testing.T) {
	orgID, userID := uuid.New(), uuid.New()
	members := new(MockMemberRepository)
	members.On("GetByOrgAndUser", mock.Anything, orgID, userID).
		Return(&models.Member{Role: models.RoleViewer, Active: true}, nil)

	err := serveInOrg(t, members, userID, "/v1/orders", orgID.String(), RequireCapability(policy.ActionOrdersWrite))
	var forbidden *common.ForbiddenError
	require.True(t, errors.As(err, &forbidden))
	assert.NotEmpty(t, forbidden.Reason)

	err = serveInOrg(t, members, userID, "/v1/orders", orgID.String(), RequireCapability(policy.ActionDashboardView))
	assert.NoError(t, err)
}

func TestVersionRoute(t *testing.T) {
	e := echo.New()
	vm := NewVersionMiddleware()
	vm.Deprecate("v1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	vm.VersionRoute(e, "v1").GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ping", nil))

	assert.Equal(t, "v1", rec.Header().Get("X-API-Version"))
	assert.Equal(t, "true", rec.Header().Get("Deprecation"))
	assert.Equal(t, "Thu, 01 Jan 2026 00:00:00 GMT", rec.Header().Get("Sunset"))
	assert.Equal(t, "deprecated", vm.Versions()["v1"].Status)
}

type recorderFunc func(ctx context.Context, entry *models.AuditLog) error

func (f recorderFunc) Record(ctx context.Context, entry *models.AuditLog) error { return f(ctx, entry) }

func auditRequest(t *testing.T, method, route, target string, recorder AuditRecorder, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	orgID := uuid.MustParse("0b3f9d2e-8c1a-4e57-9f6a-2d4c5b6a7e8f")
	e := echo.New()
	e.Add(method, route, handler, func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := common.WithUser(c.Request().Context(), uuid.New(), "ana@example.com")
			ctx = common.WithMembership(ctx, orgID, "agent")
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}, Audit(recorder))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestAudit_RecordsMutation(t *testing.T) {
	var got *models.AuditLog
	recorder := recorderFunc(func(ctx context.Context, entry *models.AuditLog) error {
		got = entry
		return nil
	})
	id := uuid.NewString()

	rec := auditRequest(t, http.MethodPost, "/v1/orgs/:orgID/installments/:id/pay",
		"/v1/orgs/0b3f9d2e-8c1a-4e57-9f6a-2d4c5b6a7e8f/installments/"+id+"/pay", recorder,
		func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "POST /v1/orgs/:orgID/installments/:id/pay", got.Action)
	assert.Equal(t, "installments", got.Resource)
	assert.Equal(t, id, *got.ResourceID)
	assert.Equal(t, "agent", got.Role)
	assert.True(t, got.Success)
	assert.NotNil(t, got.UserID)
}

func TestAudit_RecordsFailureStatus(t *testing.T) {
	var got *models.AuditLog
	recorder := recorderFunc(func(ctx context.Context, entry *models.AuditLog) error {
		got = entry
		return errors.New("insert failed")
	})

	rec := auditRequest(t, http.MethodDelete, "/v1/orgs/:orgID/payments/:id",
		"/v1/orgs/0b3f9d2e-8c1a-4e57-9f6a-2d4c5b6a7e8f/payments/"+uuid.NewString(), recorder,
		func(c echo.Context) error { return echo.NewHTTPError(http.StatusConflict, "busy") })

	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, got)
	assert.False(t, got.Success)
	assert.Equal(t, http.StatusConflict, got.Status)
	require.NotNil(t, got.Error)
}

func TestAudit_SkipsReads(t *testing.T) {
	called := false
	recorder := recorderFunc(func(ctx context.Context, entry *models.AuditLog) error {
		called = true
		return nil
	})

	auditRequest(t, http.MethodGet, "/v1/orgs/:orgID/orders", "/v1/orgs/0b3f9d2e-8c1a-4e57-9f6a-2d4c5b6a7e8f/orders", recorder,
		func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	assert.False(t, called)
}

func TestAuditResource(t *testing.T) {
	assert.Equal(t, "organization", auditResource("/v1/orgs/:orgID"))
	assert.Equal(t, "organization", auditResource("/v1/orgs/:orgID/logo"))
	assert.Equal(t, "members", auditResource("/v1/orgs/:orgID/members/:id/role"))
	assert.Equal(t, "organization", auditResource("/v1/functions/send-reminder"))
}
