package background

import (
	"context"
	"errors"
	"testing"

	"boxtenant/internal/models"
	"boxtenant/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type mockTenantRepo struct {
	mock.Mock
}

func (m *mockTenantRepo) Create(ctx context.Context, tenant *models.Tenant) error {
	return m.Called(ctx, tenant).Error(0)
}

func (m *mockTenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *mockTenantRepo) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *mockTenantRepo) ListPublic(ctx context.Context) ([]*models.TenantSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TenantSummary), args.Error(1)
}

func (m *mockTenantRepo) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

func (m *mockTenantRepo) Update(ctx context.Context, tenant *models.Tenant) error {
	return m.Called(ctx, tenant).Error(0)
}

func (m *mockTenantRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockTenantRepo) AdjustUserCount(ctx context.Context, id uuid.UUID, delta int) error {
	return m.Called(ctx, id, delta).Error(0)
}

func (m *mockTenantRepo) SetUserCount(ctx context.Context, id uuid.UUID, count int) error {
	return m.Called(ctx, id, count).Error(0)
}

type mockMembershipRepo struct {
	mock.Mock
}

func (m *mockMembershipRepo) Create(ctx context.Context, membership *models.Membership) error {
	return m.Called(ctx, membership).Error(0)
}

func (m *mockMembershipRepo) Delete(ctx context.Context, userID, tenantID uuid.UUID) error {
	return m.Called(ctx, userID, tenantID).Error(0)
}

func (m *mockMembershipRepo) Get(ctx context.Context, userID, tenantID uuid.UUID) (*models.Membership, error) {
	args := m.Called(ctx, userID, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Membership), args.Error(1)
}

func (m *mockMembershipRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.UserTenancy, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserTenancy), args.Error(1)
}

func (m *mockMembershipRepo) ListByTenant(ctx context.Context, tenantID uuid.UUID, roleFilter *string, limit, offset int) ([]*models.Membership, error) {
	args := m.Called(ctx, tenantID, roleFilter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Membership), args.Error(1)
}

func (m *mockMembershipRepo) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

type mockTenantService struct {
	mock.Mock
}

func (m *mockTenantService) Create(ctx context.Context, req *services.CreateTenantRequest) (*models.Tenant, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *mockTenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *mockTenantService) ListPublic(ctx context.Context) ([]*models.TenantSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TenantSummary), args.Error(1)
}

func (m *mockTenantService) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

func (m *mockTenantService) Update(ctx context.Context, req *services.UpdateTenantRequest) (*models.Tenant, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *mockTenantService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockTenantService) RefreshDirectory(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type JobSchedulerTestSuite struct {
	suite.Suite
	tenantRepo     *mockTenantRepo
	membershipRepo *mockMembershipRepo
	tenantSvc      *mockTenantService
	scheduler      *JobScheduler
	ctx            context.Context
}

func (suite *JobSchedulerTestSuite) SetupTest() {
	suite.tenantRepo = &mockTenantRepo{}
	suite.membershipRepo = &mockMembershipRepo{}
	suite.tenantSvc = &mockTenantService{}

	scheduler, err := NewJobScheduler(suite.tenantRepo, suite.membershipRepo, suite.tenantSvc)
	assert.NoError(suite.T(), err)
	suite.scheduler = scheduler
	suite.ctx = context.Background()
}

func (suite *JobSchedulerTestSuite) TearDownTest() {
	suite.tenantRepo.AssertExpectations(suite.T())
	suite.membershipRepo.AssertExpectations(suite.T())
	suite.tenantSvc.AssertExpectations(suite.T())
	assert.NoError(suite.T(), suite.scheduler.Stop())
}

func TestJobSchedulerTestSuite(t *testing.T) {
	suite.Run(t, new(JobSchedulerTestSuite))
}

func (suite *JobSchedulerTestSuite) TestRegistersBothJobs() {
	assert.Len(suite.T(), suite.scheduler.jobs, 2)
	assert.Contains(suite.T(), suite.scheduler.jobs, "user-count-reconcile")
	assert.Contains(suite.T(), suite.scheduler.jobs, "directory-refresh")
}

func (suite *JobSchedulerTestSuite) TestReconcileUserCounts_CorrectsDrift() {
	drifted := &models.Tenant{ID: uuid.New(), Name: "Drifted", UserCount: 5, Status: models.TenantStatusActive}
	accurate := &models.Tenant{ID: uuid.New(), Name: "Accurate", UserCount: 3, Status: models.TenantStatusActive}
	deleted := &models.Tenant{ID: uuid.New(), Name: "Gone", UserCount: 9, Status: models.TenantStatusDeleted}

	suite.tenantRepo.On("List", suite.ctx, 100, 0).Return([]*models.Tenant{drifted, accurate, deleted}, nil)
	suite.tenantRepo.On("List", suite.ctx, 100, 100).Return([]*models.Tenant{}, nil)
	suite.membershipRepo.On("CountByTenant", suite.ctx, drifted.ID).Return(2, nil)
	suite.membershipRepo.On("CountByTenant", suite.ctx, accurate.ID).Return(3, nil)
	suite.tenantRepo.On("SetUserCount", suite.ctx, drifted.ID, 2).Return(nil)

	suite.scheduler.reconcileUserCounts(suite.ctx)

	// Deleted tenants are skipped entirely; accurate counts are left
	// untouched.
	suite.membershipRepo.AssertNotCalled(suite.T(), "CountByTenant", suite.ctx, deleted.ID)
	suite.tenantRepo.AssertNotCalled(suite.T(), "SetUserCount", suite.ctx, accurate.ID, 3)
}

func (suite *JobSchedulerTestSuite) TestReconcileUserCounts_CountErrorSkipsTenant() {
	broken := &models.Tenant{ID: uuid.New(), Name: "Broken", UserCount: 5, Status: models.TenantStatusActive}

	suite.tenantRepo.On("List", suite.ctx, 100, 0).Return([]*models.Tenant{broken}, nil)
	suite.tenantRepo.On("List", suite.ctx, 100, 100).Return([]*models.Tenant{}, nil)
	suite.membershipRepo.On("CountByTenant", suite.ctx, broken.ID).Return(0, errors.New("db timeout"))

	suite.scheduler.reconcileUserCounts(suite.ctx)

	suite.tenantRepo.AssertNotCalled(suite.T(), "SetUserCount", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JobSchedulerTestSuite) TestRefreshDirectory() {
	suite.tenantSvc.On("RefreshDirectory", suite.ctx).Return(nil)

	suite.scheduler.refreshDirectory(suite.ctx)
}
