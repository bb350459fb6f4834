package services

import (
	"context"
	"errors"
	"testing"

	"boxtenant/internal/auth"
	"boxtenant/internal/common"
	"boxtenant/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type TenancyServiceTestSuite struct {
	suite.Suite
	requestRepo    *MockTenancyRequestRepository
	tenantRepo     *MockTenantRepository
	membershipRepo *MockMembershipRepository
	tenantSvc      *MockTenantService
	idp            *MockIdentityProvider
	service        TenancyService

	ctx        context.Context
	superAdmin *auth.Context
	requester  *auth.Context
}

func (suite *TenancyServiceTestSuite) SetupTest() {
	suite.requestRepo = &MockTenancyRequestRepository{}
	suite.tenantRepo = &MockTenantRepository{}
	suite.membershipRepo = &MockMembershipRepository{}
	suite.tenantSvc = &MockTenantService{}
	suite.idp = &MockIdentityProvider{}
	suite.service = NewTenancyService(suite.requestRepo, suite.tenantRepo, suite.membershipRepo, suite.tenantSvc, suite.idp)

	suite.ctx = context.Background()
	suite.superAdmin = &auth.Context{
		UserID: uuid.New(),
		Email:  "admin@platform.example",
		Role:   auth.RoleSuperAdmin,
	}
	suite.requester = &auth.Context{
		UserID: uuid.New(),
		Email:  "owner@clinic.example",
		Name:   "Clinic Owner",
		Role:   auth.RoleStaff,
	}
}

func (suite *TenancyServiceTestSuite) TearDownTest() {
	suite.requestRepo.AssertExpectations(suite.T())
	suite.tenantRepo.AssertExpectations(suite.T())
	suite.membershipRepo.AssertExpectations(suite.T())
	suite.tenantSvc.AssertExpectations(suite.T())
	suite.idp.AssertExpectations(suite.T())
}

func TestTenancyServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TenancyServiceTestSuite))
}

func (suite *TenancyServiceTestSuite) pendingRequest() *models.TenancyRequest {
	return &models.TenancyRequest{
		ID:             uuid.New(),
		HospitalName:   "City Clinic",
		Slug:           "city-clinic",
		ContactEmail:   "contact@clinic.example",
		RequestedBy:    suite.requester.UserID,
		RequesterEmail: suite.requester.Email,
		RequesterName:  suite.requester.Name,
		MaxUsers:       20,
		Status:         models.TenancyRequestStatusPending,
	}
}

func (suite *TenancyServiceTestSuite) TestSubmit_Success() {
	req := &SubmitTenancyRequest{
		HospitalName: "City Clinic",
		Slug:         "city-clinic",
		MaxUsers:     20,
	}

	suite.tenantRepo.On("GetBySlug", suite.ctx, "city-clinic").Return(nil, common.NewNotFound("tenant"))
	suite.requestRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.TenancyRequest")).Return(nil).Run(func(args mock.Arguments) {
		request := args.Get(1).(*models.TenancyRequest)
		assert.Equal(suite.T(), "City Clinic", request.HospitalName)
		assert.Equal(suite.T(), "city-clinic", request.Slug)
		assert.Equal(suite.T(), suite.requester.UserID, request.RequestedBy)
		assert.Equal(suite.T(), suite.requester.Email, request.RequesterEmail)
		assert.Equal(suite.T(), models.TenancyRequestStatusPending, request.Status)
		assert.NotEqual(suite.T(), uuid.Nil, request.ID)
	})

	request, err := suite.service.Submit(suite.ctx, suite.requester, req)
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), request)
	assert.Equal(suite.T(), models.TenancyRequestStatusPending, request.Status)
}

func (suite *TenancyServiceTestSuite) TestSubmit_NoIdentity() {
	request, err := suite.service.Submit(suite.ctx, nil, &SubmitTenancyRequest{
		HospitalName: "City Clinic",
		Slug:         "city-clinic",
	})
	assert.Nil(suite.T(), request)
	assert.Equal(suite.T(), common.KindUnauthorized, common.KindOf(err))
}

func (suite *TenancyServiceTestSuite) TestSubmit_MissingHospitalName() {
	request, err := suite.service.Submit(suite.ctx, suite.requester, &SubmitTenancyRequest{
		Slug: "city-clinic",
	})
	assert.Nil(suite.T(), request)
	assert.Equal(suite.T(), common.KindValidation, common.KindOf(err))
}

func (suite *TenancyServiceTestSuite) TestSubmit_BadSlug() {
	for _, slug := range []string{"", "UPPER", "has space", "-leading", "trailing-", "ab"} {
		request, err := suite.service.Submit(suite.ctx, suite.requester, &SubmitTenancyRequest{
			HospitalName: "City Clinic",
			Slug:         slug,
		})
		assert.Nil(suite.T(), request)
		assert.Equal(suite.T(), common.KindValidation, common.KindOf(err), "slug %q should be rejected", slug)
	}
}

func (suite *TenancyServiceTestSuite) TestSubmit_SlugOwnedByExistingTenant() {
	suite.tenantRepo.On("GetBySlug", suite.ctx, "city-clinic").Return(&models.Tenant{
		ID:     uuid.New(),
		Slug:   "city-clinic",
		Status: models.TenantStatusActive,
	}, nil)

	request, err := suite.service.Submit(suite.ctx, suite.requester, &SubmitTenancyRequest{
		HospitalName: "City Clinic",
		Slug:         "city-clinic",
	})
	assert.Nil(suite.T(), request)
	assert.Equal(suite.T(), common.KindConflict, common.KindOf(err))
}

func (suite *TenancyServiceTestSuite) TestSubmit_DuplicatePendingSlug() {
	suite.tenantRepo.On("GetBySlug", suite.ctx, "city-clinic").Return(nil, common.NewNotFound("tenant"))
	suite.requestRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.TenancyRequest")).
		Return(common.NewConflict("a pending request for this slug already exists"))

	request, err := suite.service.Submit(suite.ctx, suite.requester, &SubmitTenancyRequest{
		HospitalName: "City Clinic",
		Slug:         "city-clinic",
	})
	assert.Nil(suite.T(), request)
	assert.Equal(suite.T(), common.KindConflict, common.KindOf(err))
}

func (suite *TenancyServiceTestSuite) TestReview_RequiresSuperAdmin() {
	tenantAdmin := &auth.Context{UserID: uuid.New(), Role: auth.RoleTenantAdmin}

	result, err := suite.service.Review(suite.ctx, tenantAdmin, uuid.New(), &ReviewTenancyRequest{Approve: true})
	assert.Nil(suite.T(), result)
	assert.Equal(suite.T(), common.KindForbidden, common.KindOf(err))
}

func (suite *TenancyServiceTestSuite) TestReview_AlreadyReviewed() {
	request := suite.pendingRequest()
	request.Status = models.TenancyRequestStatusRejected

	suite.requestRepo.On("GetByID", suite.ctx, request.ID).Return(request, nil)

	result, err := suite.service.Review(suite.ctx, suite.superAdmin, request.ID, &ReviewTenancyRequest{Approve: true})
	assert.Nil(suite.T(), result)
	assert.Equal(suite.T(), common.KindInvalidState, common.KindOf(err))
}

func (suite *TenancyServiceTestSuite) TestReview_RejectWithReason() {
	request := suite.pendingRequest()
	rejected := *request
	rejected.Status = models.TenancyRequestStatusRejected

	suite.requestRepo.On("GetByID", suite.ctx, request.ID).Return(request, nil).Once()
	suite.requestRepo.On("MarkRejected", suite.ctx, request.ID, suite.superAdmin.UserID, "incomplete details").Return(nil)
	suite.requestRepo.On("GetByID", suite.ctx, request.ID).Return(&rejected, nil).Once()

	result, err := suite.service.Review(suite.ctx, suite.superAdmin, request.ID, &ReviewTenancyRequest{
		Approve:         false,
		RejectionReason: "incomplete details",
	})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.TenancyRequestStatusRejected, result.Request.Status)
	assert.Nil(suite.T(), result.Tenant)
}

func (suite *TenancyServiceTestSuite) TestReview_RejectWithoutReasonUsesDefault() {
	request := suite.pendingRequest()
	rejected := *request
	rejected.Status = models.TenancyRequestStatusRejected

	suite.requestRepo.On("GetByID", suite.ctx, request.ID).Return(request, nil).Once()
	suite.requestRepo.On("MarkRejected", suite.ctx, request.ID, suite.superAdmin.UserID, defaultRejectionReason).Return(nil)
	suite.requestRepo.On("GetByID", suite.ctx, request.ID).Return(&rejected, nil).Once()

	result, err := suite.service.Review(suite.ctx, suite.superAdmin, request.ID, &ReviewTenancyRequest{Approve: false})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.TenancyRequestStatusRejected, result.Request.Status)
}

func (suite *TenancyServiceTestSuite) TestReview_ApproveProvisionsTenantAndAdmin() {
	request := suite.pendingRequest()
	tenant := &models.Tenant{
		ID:       uuid.New(),
		Name:     request.HospitalName,
		Slug:     request.Slug,
		MaxUsers: request.MaxUsers,
		Status:   models.TenantStatusActive,
	}
	approved := *request
	approved.Status = models.TenancyRequestStatusApproved
	approved.TenantID = &tenant.ID

	suite.requestRepo.On("GetByID", suite.ctx, request.ID).Return(request, nil).Once()
	suite.tenantSvc.On("Create", suite.ctx, mock.AnythingOfType("*services.CreateTenantRequest")).Return(tenant, nil).Run(func(args mock.Arguments) {
		req := args.Get(1).(*CreateTenantRequest)
		assert.Equal(suite.T(), request.HospitalName, req.Name)
		assert.Equal(suite.T(), request.Slug, req.Slug)
		assert.Equal(suite.T(), request.MaxUsers, req.MaxUsers)
		assert.Equal(suite.T(), suite.superAdmin.UserID, req.CreatedBy)
	})
	suite.membershipRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Membership")).Return(nil).Run(func(args mock.Arguments) {
		membership := args.Get(1).(*models.Membership)
		assert.Equal(suite.T(), request.RequestedBy, membership.UserID)
		assert.Equal(suite.T(), tenant.ID, membership.TenantID)
		assert.Equal(suite.T(), auth.RoleTenantAdmin, membership.Role)
		assert.Equal(suite.T(), models.MembershipStatusActive, membership.Status)
	})
	suite.tenantRepo.On("AdjustUserCount", suite.ctx, tenant.ID, 1).Return(nil)
	suite.idp.On("UpdateUserAttributes", suite.ctx, request.RequesterEmail, mock.Anything).Return(nil)
	suite.requestRepo.On("MarkApproved", suite.ctx, request.ID, suite.superAdmin.UserID, tenant.ID).Return(nil)
	suite.requestRepo.On("GetByID", suite.ctx, request.ID).Return(&approved, nil).Once()

	result, err := suite.service.Review(suite.ctx, suite.superAdmin, request.ID, &ReviewTenancyRequest{Approve: true})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.TenancyRequestStatusApproved, result.Request.Status)
	assert.Equal(suite.T(), tenant, result.Tenant)
	assert.True(suite.T(), result.IdentitySynced)
}

func (suite *TenancyServiceTestSuite) TestReview_ApproveWithMaxUsersOverride() {
	request := suite.pendingRequest()
	tenant := &models.Tenant{ID: uuid.New(), Name: request.HospitalName, Slug: request.Slug, Status: models.TenantStatusActive}
	approved := *request
	approved.Status = models.TenancyRequestStatusApproved

	suite.requestRepo.On("GetByID", suite.ctx, request.ID).Return(request, nil).Once()
	suite.tenantSvc.On("Create", suite.ctx, mock.AnythingOfType("*services.CreateTenantRequest")).Return(tenant, nil).Run(func(args mock.Arguments) {
		req := args.Get(1).(*CreateTenantRequest)
		assert.Equal(suite.T(), 100, req.MaxUsers)
	})
	suite.membershipRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Membership")).Return(nil)
	suite.tenantRepo.On("AdjustUserCount", suite.ctx, tenant.ID, 1).Return(nil)
	suite.idp.On("UpdateUserAttributes", suite.ctx, request.RequesterEmail, mock.Anything).Return(nil)
	suite.requestRepo.On("MarkApproved", suite.ctx, request.ID, suite.superAdmin.UserID, tenant.ID).Return(nil)
	suite.requestRepo.On("GetByID", suite.ctx, request.ID).Return(&approved, nil).Once()

	_, err := suite.service.Review(suite.ctx, suite.superAdmin, request.ID, &ReviewTenancyRequest{
		Approve:          true,
		MaxUsersOverride: 100,
	})
	assert.NoError(suite.T(), err)
}

func (suite *TenancyServiceTestSuite) TestReview_ApproveIdentitySyncFailureIsAdvisory() {
	request := suite.pendingRequest()
	tenant := &models.Tenant{ID: uuid.New(), Name: request.HospitalName, Slug: request.Slug, Status: models.TenantStatusActive}
	approved := *request
	approved.Status = models.TenancyRequestStatusApproved

	suite.requestRepo.On("GetByID", suite.ctx, request.ID).Return(request, nil).Once()
	suite.tenantSvc.On("Create", suite.ctx, mock.AnythingOfType("*services.CreateTenantRequest")).Return(tenant, nil)
	suite.membershipRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Membership")).Return(nil)
	suite.tenantRepo.On("AdjustUserCount", suite.ctx, tenant.ID, 1).Return(nil)
	suite.idp.On("UpdateUserAttributes", suite.ctx, request.RequesterEmail, mock.Anything).Return(errors.New("idp unavailable"))
	suite.requestRepo.On("MarkApproved", suite.ctx, request.ID, suite.superAdmin.UserID, tenant.ID).Return(nil)
	suite.requestRepo.On("GetByID", suite.ctx, request.ID).Return(&approved, nil).Once()

	result, err := suite.service.Review(suite.ctx, suite.superAdmin, request.ID, &ReviewTenancyRequest{Approve: true})
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), result.IdentitySynced)
	assert.Equal(suite.T(), models.TenancyRequestStatusApproved, result.Request.Status)
}

func (suite *TenancyServiceTestSuite) TestReview_ApproveResumesInterruptedRun() {
	// An earlier approval created the tenant and membership but crashed
	// before flipping the request. Re-driving the review must reuse the
	// existing tenant instead of failing on the slug conflict.
	request := suite.pendingRequest()
	existing := &models.Tenant{ID: uuid.New(), Name: request.HospitalName, Slug: request.Slug, Status: models.TenantStatusActive}
	approved := *request
	approved.Status = models.TenancyRequestStatusApproved

	suite.requestRepo.On("GetByID", suite.ctx, request.ID).Return(request, nil).Once()
	suite.tenantSvc.On("Create", suite.ctx, mock.AnythingOfType("*services.CreateTenantRequest")).
		Return(nil, common.NewConflict("a tenant with this slug already exists"))
	suite.tenantRepo.On("GetBySlug", suite.ctx, request.Slug).Return(existing, nil)
	suite.membershipRepo.On("Get", suite.ctx, request.RequestedBy, existing.ID).Return(&models.Membership{
		UserID:   request.RequestedBy,
		TenantID: existing.ID,
		Role:     auth.RoleTenantAdmin,
		Status:   models.MembershipStatusActive,
	}, nil)
	suite.membershipRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Membership")).
		Return(common.NewConflict("membership already exists for this user and tenant"))
	suite.idp.On("UpdateUserAttributes", suite.ctx, request.RequesterEmail, mock.Anything).Return(nil)
	suite.requestRepo.On("MarkApproved", suite.ctx, request.ID, suite.superAdmin.UserID, existing.ID).Return(nil)
	suite.requestRepo.On("GetByID", suite.ctx, request.ID).Return(&approved, nil).Once()

	result, err := suite.service.Review(suite.ctx, suite.superAdmin, request.ID, &ReviewTenancyRequest{Approve: true})
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), existing, result.Tenant)
}

func (suite *TenancyServiceTestSuite) TestReview_ApproveSlugTakenByUnrelatedTenant() {
	// The slug was claimed by someone else between submission and review;
	// the requester has no membership there, so the conflict stands.
	request := suite.pendingRequest()
	unrelated := &models.Tenant{ID: uuid.New(), Slug: request.Slug, Status: models.TenantStatusActive}

	suite.requestRepo.On("GetByID", suite.ctx, request.ID).Return(request, nil)
	suite.tenantSvc.On("Create", suite.ctx, mock.AnythingOfType("*services.CreateTenantRequest")).
		Return(nil, common.NewConflict("a tenant with this slug already exists"))
	suite.tenantRepo.On("GetBySlug", suite.ctx, request.Slug).Return(unrelated, nil)
	suite.membershipRepo.On("Get", suite.ctx, request.RequestedBy, unrelated.ID).
		Return(nil, common.NewNotFound("membership"))

	result, err := suite.service.Review(suite.ctx, suite.superAdmin, request.ID, &ReviewTenancyRequest{Approve: true})
	assert.Nil(suite.T(), result)
	assert.Equal(suite.T(), common.KindConflict, common.KindOf(err))
}

func (suite *TenancyServiceTestSuite) TestReview_ApproveLosesStatusRace() {
	request := suite.pendingRequest()
	tenant := &models.Tenant{ID: uuid.New(), Name: request.HospitalName, Slug: request.Slug, Status: models.TenantStatusActive}

	suite.requestRepo.On("GetByID", suite.ctx, request.ID).Return(request, nil)
	suite.tenantSvc.On("Create", suite.ctx, mock.AnythingOfType("*services.CreateTenantRequest")).Return(tenant, nil)
	suite.membershipRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Membership")).Return(nil)
	suite.tenantRepo.On("AdjustUserCount", suite.ctx, tenant.ID, 1).Return(nil)
	suite.idp.On("UpdateUserAttributes", suite.ctx, request.RequesterEmail, mock.Anything).Return(nil)
	suite.requestRepo.On("MarkApproved", suite.ctx, request.ID, suite.superAdmin.UserID, tenant.ID).
		Return(common.NewInvalidState("tenancy request is not pending"))

	result, err := suite.service.Review(suite.ctx, suite.superAdmin, request.ID, &ReviewTenancyRequest{Approve: true})
	assert.Nil(suite.T(), result)
	assert.Equal(suite.T(), common.KindInvalidState, common.KindOf(err))
}

func (suite *TenancyServiceTestSuite) TestList_AppliesPaginationDefaults() {
	suite.requestRepo.On("List", suite.ctx, (*string)(nil), 50, 0).Return([]*models.TenancyRequest{}, nil)

	requests, err := suite.service.List(suite.ctx, nil, 0, -3)
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), requests)
}
