package services

import (
	"context"
	"log"

	"boxtenant/internal/auth"
	"boxtenant/internal/common"
	"boxtenant/internal/identity"
	"boxtenant/internal/models"
	"boxtenant/internal/repositories"

	"github.com/google/uuid"
)

// SessionService changes which tenant is active for a user's session.
// The operation updates server-side token attributes only; it cannot
// invalidate an already-issued token, so every result tells the caller
// to refresh.
type SessionService interface {
	SwitchTenant(ctx context.Context, actor *auth.Context, targetTenantID uuid.UUID) (*SwitchResult, error)
}

type sessionService struct {
	membershipRepo repositories.MembershipRepository
	tenantRepo     repositories.TenantRepository
	idp            identity.Provider
}

func NewSessionService(membershipRepo repositories.MembershipRepository, tenantRepo repositories.TenantRepository, idp identity.Provider) SessionService {
	return &sessionService{
		membershipRepo: membershipRepo,
		tenantRepo:     tenantRepo,
		idp:            idp,
	}
}

type SwitchResult struct {
	Tenant               *models.TenantSummary `json:"tenant,omitempty"`
	Role                 string                `json:"role,omitempty"`
	TokenRefreshRequired bool                  `json:"token_refresh_required"`
	IdentitySynced       bool                  `json:"identity_synced"`
}

// SwitchTenant validates the actor's entitlement to the target tenant
// against the membership store, not the token: the token's role may be
// stale, the membership is authoritative. A nil target means "clear the
// active tenant" and skips the membership lookup entirely.
func (s *sessionService) SwitchTenant(ctx context.Context, actor *auth.Context, targetTenantID uuid.UUID) (*SwitchResult, error) {
	if actor == nil {
		return nil, common.NewUnauthorized("authentication required")
	}

	if targetTenantID == uuid.Nil {
		return s.clearTenant(ctx, actor)
	}

	membership, err := s.membershipRepo.Get(ctx, actor.UserID, targetTenantID)
	if err != nil {
		if common.KindOf(err) == common.KindNotFound {
			return nil, common.NewForbidden("you are not a member of this tenant")
		}
		return nil, err
	}
	if membership.Status != models.MembershipStatusActive {
		return nil, common.NewForbidden("membership is disabled")
	}

	tenant, err := s.tenantRepo.GetByID(ctx, targetTenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.IsActive() {
		return nil, common.NewForbidden("tenant is not active")
	}

	tenantID := tenant.ID.String()
	tenantName := tenant.Name
	synced := true
	if err := s.idp.UpdateUserAttributes(ctx, actor.Email, identity.AttributeUpdate{
		Role:       &membership.Role,
		TenantID:   &tenantID,
		TenantName: &tenantName,
	}); err != nil {
		synced = false
		log.Printf("session: identity attribute sync failed for %s: %v", actor.Email, err)
	}

	return &SwitchResult{
		Tenant:               tenant.Summary(),
		Role:                 membership.Role,
		TokenRefreshRequired: true,
		IdentitySynced:       synced,
	}, nil
}

func (s *sessionService) clearTenant(ctx context.Context, actor *auth.Context) (*SwitchResult, error) {
	empty := ""
	synced := true
	if err := s.idp.UpdateUserAttributes(ctx, actor.Email, identity.AttributeUpdate{
		TenantID:   &empty,
		TenantName: &empty,
	}); err != nil {
		synced = false
		log.Printf("session: identity attribute sync failed for %s: %v", actor.Email, err)
	}
	return &SwitchResult{
		TokenRefreshRequired: true,
		IdentitySynced:       synced,
	}, nil
}
