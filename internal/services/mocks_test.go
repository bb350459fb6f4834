package services

import (
	"context"
	"time"

	"boxtenant/internal/identity"
	"boxtenant/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) GetBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) ListPublic(ctx context.Context) ([]*models.TenantSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TenantSummary), args.Error(1)
}

func (m *MockTenantRepository) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) Update(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTenantRepository) AdjustUserCount(ctx context.Context, id uuid.UUID, delta int) error {
	args := m.Called(ctx, id, delta)
	return args.Error(0)
}

func (m *MockTenantRepository) SetUserCount(ctx context.Context, id uuid.UUID, count int) error {
	args := m.Called(ctx, id, count)
	return args.Error(0)
}

type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) Create(ctx context.Context, membership *models.Membership) error {
	args := m.Called(ctx, membership)
	return args.Error(0)
}

func (m *MockMembershipRepository) Delete(ctx context.Context, userID, tenantID uuid.UUID) error {
	args := m.Called(ctx, userID, tenantID)
	return args.Error(0)
}

func (m *MockMembershipRepository) Get(ctx context.Context, userID, tenantID uuid.UUID) (*models.Membership, error) {
	args := m.Called(ctx, userID, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Membership), args.Error(1)
}

func (m *MockMembershipRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.UserTenancy, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserTenancy), args.Error(1)
}

func (m *MockMembershipRepository) ListByTenant(ctx context.Context, tenantID uuid.UUID, roleFilter *string, limit, offset int) ([]*models.Membership, error) {
	args := m.Called(ctx, tenantID, roleFilter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Membership), args.Error(1)
}

func (m *MockMembershipRepository) CountByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	args := m.Called(ctx, tenantID)
	return args.Int(0), args.Error(1)
}

type MockTenancyRequestRepository struct {
	mock.Mock
}

func (m *MockTenancyRequestRepository) Create(ctx context.Context, request *models.TenancyRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *MockTenancyRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.TenancyRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TenancyRequest), args.Error(1)
}

func (m *MockTenancyRequestRepository) List(ctx context.Context, statusFilter *string, limit, offset int) ([]*models.TenancyRequest, error) {
	args := m.Called(ctx, statusFilter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TenancyRequest), args.Error(1)
}

func (m *MockTenancyRequestRepository) ListByRequester(ctx context.Context, userID uuid.UUID) ([]*models.TenancyRequest, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TenancyRequest), args.Error(1)
}

func (m *MockTenancyRequestRepository) MarkRejected(ctx context.Context, id, reviewedBy uuid.UUID, reason string) error {
	args := m.Called(ctx, id, reviewedBy, reason)
	return args.Error(0)
}

func (m *MockTenancyRequestRepository) MarkApproved(ctx context.Context, id, reviewedBy, tenantID uuid.UUID) error {
	args := m.Called(ctx, id, reviewedBy, tenantID)
	return args.Error(0)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetTenant(ctx context.Context, tenantID uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockCacheService) SetTenant(ctx context.Context, tenant *models.Tenant, ttl time.Duration) error {
	args := m.Called(ctx, tenant, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteTenant(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

func (m *MockCacheService) GetPublicDirectory(ctx context.Context) ([]*models.TenantSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TenantSummary), args.Error(1)
}

func (m *MockCacheService) SetPublicDirectory(ctx context.Context, summaries []*models.TenantSummary, ttl time.Duration) error {
	args := m.Called(ctx, summaries, ttl)
	return args.Error(0)
}

func (m *MockCacheService) InvalidateDirectory(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockCacheService) GetUserTenancies(ctx context.Context, userID uuid.UUID) ([]*models.UserTenancy, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserTenancy), args.Error(1)
}

func (m *MockCacheService) SetUserTenancies(ctx context.Context, userID uuid.UUID, tenancies []*models.UserTenancy, ttl time.Duration) error {
	args := m.Called(ctx, userID, tenancies, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeleteUserTenancies(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) UpdateUserAttributes(ctx context.Context, username string, update identity.AttributeUpdate) error {
	args := m.Called(ctx, username, update)
	return args.Error(0)
}

type MockTenantService struct {
	mock.Mock
}

func (m *MockTenantService) Create(ctx context.Context, req *CreateTenantRequest) (*models.Tenant, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantService) ListPublic(ctx context.Context) ([]*models.TenantSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TenantSummary), args.Error(1)
}

func (m *MockTenantService) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tenant), args.Error(1)
}

func (m *MockTenantService) Update(ctx context.Context, req *UpdateTenantRequest) (*models.Tenant, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTenantService) RefreshDirectory(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
