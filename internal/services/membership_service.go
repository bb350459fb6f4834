package services

import (
	"context"
	"log"
	"time"

	"boxtenant/internal/auth"
	"boxtenant/internal/caching"
	"boxtenant/internal/common"
	"boxtenant/internal/models"
	"boxtenant/internal/repositories"

	"github.com/google/uuid"
)

const tenancyCacheTTL = 2 * time.Minute

type MembershipService interface {
	AddMember(ctx context.Context, actor *auth.Context, tenantID uuid.UUID, req *AddMemberRequest) (*models.Membership, error)
	RemoveMember(ctx context.Context, actor *auth.Context, tenantID, userID uuid.UUID) error
	GetMember(ctx context.Context, tenantID, userID uuid.UUID) (*models.Membership, error)
	ListMembers(ctx context.Context, tenantID uuid.UUID, roleFilter *string, limit, offset int) ([]*models.Membership, error)
	ListUserTenancies(ctx context.Context, userID uuid.UUID) ([]*models.UserTenancy, error)
}

type membershipService struct {
	membershipRepo repositories.MembershipRepository
	tenantRepo     repositories.TenantRepository
	cacheSvc       caching.CacheService
}

func NewMembershipService(membershipRepo repositories.MembershipRepository, tenantRepo repositories.TenantRepository, cacheSvc caching.CacheService) MembershipService {
	return &membershipService{
		membershipRepo: membershipRepo,
		tenantRepo:     tenantRepo,
		cacheSvc:       cacheSvc,
	}
}

type AddMemberRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
}

// AddMember creates a membership under tenantID. Role escalation is
// enforced here, at the call site: a tenant admin may grant staff only;
// granting tenant_admin takes a super admin.
func (s *membershipService) AddMember(ctx context.Context, actor *auth.Context, tenantID uuid.UUID, req *AddMemberRequest) (*models.Membership, error) {
	if _, err := auth.RequireTenantAdmin(actor, tenantID); err != nil {
		return nil, err
	}
	if !auth.IsTenantRole(req.Role) {
		return nil, common.NewValidation("role must be tenant_admin or staff")
	}
	if req.Role == auth.RoleTenantAdmin && !actor.IsSuperAdmin() {
		return nil, common.NewForbidden("only a super admin can grant tenant_admin")
	}
	if req.UserID == uuid.Nil {
		return nil, common.NewValidation("user_id is required")
	}
	if err := common.ValidateRequiredString(req.Email, "email"); err != nil {
		return nil, common.NewValidation(err.Error())
	}

	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.IsActive() {
		return nil, common.NewInvalidState("tenant is not active")
	}
	if tenant.MaxUsers > 0 && tenant.UserCount >= tenant.MaxUsers {
		return nil, common.NewConflict("tenant has reached its user capacity")
	}

	membership := &models.Membership{
		UserID:   req.UserID,
		TenantID: tenantID,
		Role:     req.Role,
		Email:    req.Email,
		Name:     req.Name,
		Status:   models.MembershipStatusActive,
	}
	if err := s.membershipRepo.Create(ctx, membership); err != nil {
		return nil, err
	}

	if err := s.tenantRepo.AdjustUserCount(ctx, tenantID, 1); err != nil {
		log.Printf("membership: failed to increment user count for tenant %s: %v", tenantID, err)
	}
	s.invalidateUser(ctx, req.UserID, tenantID)
	return membership, nil
}

// RemoveMember deletes a membership. A user cannot remove their own
// membership from the tenant they are currently scoped to.
func (s *membershipService) RemoveMember(ctx context.Context, actor *auth.Context, tenantID, userID uuid.UUID) error {
	if _, err := auth.RequireTenantAdmin(actor, tenantID); err != nil {
		return err
	}
	if actor.UserID == userID && actor.ActiveTenantID == tenantID {
		return common.NewForbidden("cannot remove your own membership from your active tenant")
	}

	if err := s.membershipRepo.Delete(ctx, userID, tenantID); err != nil {
		return err
	}

	if err := s.tenantRepo.AdjustUserCount(ctx, tenantID, -1); err != nil {
		log.Printf("membership: failed to decrement user count for tenant %s: %v", tenantID, err)
	}
	s.invalidateUser(ctx, userID, tenantID)
	return nil
}

func (s *membershipService) GetMember(ctx context.Context, tenantID, userID uuid.UUID) (*models.Membership, error) {
	return s.membershipRepo.Get(ctx, userID, tenantID)
}

func (s *membershipService) ListMembers(ctx context.Context, tenantID uuid.UUID, roleFilter *string, limit, offset int) ([]*models.Membership, error) {
	if roleFilter != nil && !auth.IsTenantRole(*roleFilter) {
		return nil, common.NewValidation("role filter must be tenant_admin or staff")
	}
	limit, offset = common.ValidatePaginationParams(limit, offset)
	return s.membershipRepo.ListByTenant(ctx, tenantID, roleFilter, limit, offset)
}

func (s *membershipService) ListUserTenancies(ctx context.Context, userID uuid.UUID) ([]*models.UserTenancy, error) {
	if cached, err := s.cacheSvc.GetUserTenancies(ctx, userID); err == nil && cached != nil {
		return cached, nil
	}

	tenancies, err := s.membershipRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cacheSvc.SetUserTenancies(ctx, userID, tenancies, tenancyCacheTTL); err != nil {
		log.Printf("cache: failed to store tenancies for user %s: %v", userID, err)
	}
	return tenancies, nil
}

func (s *membershipService) invalidateUser(ctx context.Context, userID, tenantID uuid.UUID) {
	if err := s.cacheSvc.DeleteUserTenancies(ctx, userID); err != nil {
		log.Printf("cache: failed to invalidate tenancies for user %s: %v", userID, err)
	}
	if err := s.cacheSvc.DeleteTenant(ctx, tenantID); err != nil {
		log.Printf("cache: failed to invalidate tenant %s: %v", tenantID, err)
	}
}
