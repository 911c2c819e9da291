package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"tripdesk/internal/common"
	"tripdesk/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type OrganizationServiceTestSuite struct {
	suite.Suite
	orgRepo *MockOrganizationRepository
	storage *MockStorageService
	service *organizationService
	ctx     context.Context
	org     *models.Organization
}

func (suite *OrganizationServiceTestSuite) SetupTest() {
	suite.orgRepo = new(MockOrganizationRepository)
	suite.storage = new(MockStorageService)
	svc := NewOrganizationService(suite.orgRepo, suite.storage)
	suite.service = svc.(*organizationService)
	suite.service.now = func() time.Time { return time.Unix(1735689600, 0) }
	suite.ctx = context.Background()
	suite.org = &models.Organization{
		ID:             uuid.New(),
		Name:           "Blue Horizon Travel",
		PrimaryColor:   "#2563eb",
		SecondaryColor: "#ffffff",
		TertiaryColor:  "#ff0000",
		UserLimit:      5,
	}
}

func TestOrganizationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(OrganizationServiceTestSuite))
}

func (suite *OrganizationServiceTestSuite) TestCreate_AddsOwnerAndDefaults() {
	userID := uuid.New()
	suite.orgRepo.On("CreateWithOwner", suite.ctx,
		mock.AnythingOfType("*models.Organization"),
		mock.MatchedBy(func(m *models.Member) bool {
			return m.UserID == userID && m.Role == models.RoleOwner && m.Active
		})).Return(nil)

	org, err := suite.service.Create(suite.ctx, userID, &CreateOrganizationRequest{Name: "  Acme Trips "})

	suite.Require().NoError(err)
	suite.Equal("Acme Trips", org.Name)
	suite.Equal(models.DefaultPrimaryColor, org.PrimaryColor)
	suite.Equal(models.DefaultUserLimit, org.UserLimit)
	suite.Equal(userID, org.CreatedBy)
}

func (suite *OrganizationServiceTestSuite) TestUpdate_RejectsBadColor() {
	suite.orgRepo.On("GetByID", suite.ctx, suite.org.ID).Return(suite.org, nil)

	bad := "blue"
	_, err := suite.service.Update(suite.ctx, suite.org.ID, &UpdateOrganizationRequest{PrimaryColor: &bad})

	var verr *common.ValidationError
	suite.Require().True(errors.As(err, &verr))
	suite.Equal("primary_color", verr.Field)
	suite.orgRepo.AssertNotCalled(suite.T(), "Update", mock.Anything, mock.Anything)
}

func (suite *OrganizationServiceTestSuite) TestUpdate_UserLimitMustBePositive() {
	suite.orgRepo.On("GetByID", suite.ctx, suite.org.ID).Return(suite.org, nil)

	zero := 0
	_, err := suite.service.Update(suite.ctx, suite.org.ID, &UpdateOrganizationRequest{UserLimit: &zero})

	suite.ErrorIs(err, common.ErrValidation)
}

func (suite *OrganizationServiceTestSuite) TestUploadLogo_Stored() {
	suite.orgRepo.On("GetByID", suite.ctx, suite.org.ID).Return(suite.org, nil)
	objectName := fmt.Sprintf("%s/logo-1735689600.png", suite.org.ID)
	url := "https://cdn.example.com/org-logos/" + objectName
	suite.storage.On("Upload", suite.ctx, objectName, "image/png", mock.Anything, int64(1024)).Return(url, nil)
	suite.orgRepo.On("UpdateLogo", suite.ctx, suite.org.ID, url).Return(nil)

	org, warning, err := suite.service.UploadLogo(suite.ctx, suite.org.ID, &LogoUpload{
		ContentType: "image/png",
		Size:        1024,
		Reader:      strings.NewReader("png"),
	})

	suite.Require().NoError(err)
	suite.Empty(warning)
	suite.Equal(url, *org.LogoURL)
}

func (suite *OrganizationServiceTestSuite) TestUploadLogo_StorageFailureIsWarning() {
	suite.orgRepo.On("GetByID", suite.ctx, suite.org.ID).Return(suite.org, nil)
	suite.storage.On("Upload", suite.ctx, mock.Anything, "image/webp", mock.Anything, int64(10)).
		Return("", errors.New("connection refused"))

	org, warning, err := suite.service.UploadLogo(suite.ctx, suite.org.ID, &LogoUpload{
		ContentType: "image/webp",
		Size:        10,
		Reader:      strings.NewReader("webp"),
	})

	suite.Require().NoError(err)
	suite.NotEmpty(warning)
	suite.Nil(org.LogoURL)
	suite.orgRepo.AssertNotCalled(suite.T(), "UpdateLogo", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *OrganizationServiceTestSuite) TestUploadLogo_Rejections() {
	_, _, err := suite.service.UploadLogo(suite.ctx, suite.org.ID, &LogoUpload{ContentType: "application/pdf", Size: 10})
	suite.ErrorIs(err, common.ErrValidation)

	_, _, err = suite.service.UploadLogo(suite.ctx, suite.org.ID, &LogoUpload{ContentType: "image/png", Size: MaxLogoSize + 1})
	suite.ErrorIs(err, common.ErrValidation)

	suite.storage.AssertNotCalled(suite.T(), "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *OrganizationServiceTestSuite) TestTheme() {
	suite.orgRepo.On("GetByID", suite.ctx, suite.org.ID).Return(suite.org, nil)

	theme, err := suite.service.Theme(suite.ctx, suite.org.ID)

	suite.Require().NoError(err)
	suite.Equal("221 83% 53%", theme.Primary.CSS)
	suite.Equal(models.HSL{H: 0, S: 0, L: 100, CSS: "0 0% 100%"}, theme.Secondary)
	suite.Equal(models.HSL{H: 0, S: 100, L: 50, CSS: "0 100% 50%"}, theme.Tertiary)
}

func TestHexToHSL(t *testing.T) {
	hsl, err := HexToHSL("#00FF00")
	require.NoError(t, err)
	assert.Equal(t, 120, hsl.H)
	assert.Equal(t, 100, hsl.S)
	assert.Equal(t, 50, hsl.L)

	hsl, err = HexToHSL("#000000")
	require.NoError(t, err)
	assert.Equal(t, "0 0% 0%", hsl.CSS)

	for _, bad := range []string{"", "#fff", "00ff00", "#gg0000"} {
		_, err := HexToHSL(bad)
		assert.ErrorIs(t, err, common.ErrValidation, bad)
	}
}
