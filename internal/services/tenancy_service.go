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

// defaultRejectionReason is recorded when a reviewer rejects without
// giving one.
const defaultRejectionReason = "Your tenancy request did not meet the provisioning requirements."

// TenancyService drives the tenancy-request lifecycle:
// pending -> approved | rejected, both terminal.
type TenancyService interface {
	Submit(ctx context.Context, requester *auth.Context, req *SubmitTenancyRequest) (*models.TenancyRequest, error)
	Review(ctx context.Context, reviewer *auth.Context, requestID uuid.UUID, req *ReviewTenancyRequest) (*ReviewResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.TenancyRequest, error)
	List(ctx context.Context, statusFilter *string, limit, offset int) ([]*models.TenancyRequest, error)
	ListByRequester(ctx context.Context, userID uuid.UUID) ([]*models.TenancyRequest, error)
}

type tenancyService struct {
	requestRepo    repositories.TenancyRequestRepository
	tenantRepo     repositories.TenantRepository
	membershipRepo repositories.MembershipRepository
	tenantSvc      TenantService
	idp            identity.Provider
}

func NewTenancyService(
	requestRepo repositories.TenancyRequestRepository,
	tenantRepo repositories.TenantRepository,
	membershipRepo repositories.MembershipRepository,
	tenantSvc TenantService,
	idp identity.Provider,
) TenancyService {
	return &tenancyService{
		requestRepo:    requestRepo,
		tenantRepo:     tenantRepo,
		membershipRepo: membershipRepo,
		tenantSvc:      tenantSvc,
		idp:            idp,
	}
}

type SubmitTenancyRequest struct {
	HospitalName string `json:"hospital_name"`
	Slug         string `json:"slug"`
	Description  string `json:"description"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Reason       string `json:"reason"`
	MaxUsers     int    `json:"max_users"`
}

type ReviewTenancyRequest struct {
	Approve          bool   `json:"approve"`
	RejectionReason  string `json:"rejection_reason"`
	MaxUsersOverride int    `json:"max_users_override"`
}

// ReviewResult reports the outcome of an approval or rejection.
// IdentitySynced is an advisory: a false value means the requester's
// token attributes were not updated and will catch up on next login or
// explicit switch.
type ReviewResult struct {
	Request        *models.TenancyRequest `json:"request"`
	Tenant         *models.Tenant         `json:"tenant,omitempty"`
	IdentitySynced bool                   `json:"identity_synced"`
}

// Submit validates the candidate before any write happens: slug syntax
// first, then the slug must not belong to a live tenant, then the
// conditional insert enforces at most one pending request per slug.
func (s *tenancyService) Submit(ctx context.Context, requester *auth.Context, req *SubmitTenancyRequest) (*models.TenancyRequest, error) {
	if requester == nil {
		return nil, common.NewUnauthorized("authentication required")
	}
	if err := common.ValidateRequiredString(req.HospitalName, "hospital_name"); err != nil {
		return nil, common.NewValidation(err.Error())
	}
	if err := common.ValidateSlug(req.Slug); err != nil {
		return nil, common.NewValidation(err.Error())
	}

	if _, err := s.tenantRepo.GetBySlug(ctx, req.Slug); err == nil {
		return nil, common.NewConflict("slug already belongs to an existing tenant")
	} else if common.KindOf(err) != common.KindNotFound {
		return nil, err
	}

	request := &models.TenancyRequest{
		ID:             uuid.New(),
		HospitalName:   req.HospitalName,
		Slug:           req.Slug,
		Description:    req.Description,
		ContactEmail:   req.ContactEmail,
		ContactPhone:   req.ContactPhone,
		Reason:         req.Reason,
		RequestedBy:    requester.UserID,
		RequesterEmail: requester.Email,
		RequesterName:  requester.Name,
		MaxUsers:       req.MaxUsers,
		Status:         models.TenancyRequestStatusPending,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// Review decides a pending request. Rejection records a reason and
// stops. Approval runs the provisioning sequence: tenant, then admin
// membership, then the best-effort identity sync, then the request
// status flip. The ordering guarantees a sync failure never leaves an
// entitlement without a backing tenant, and the conditional status
// update makes a second review fail with InvalidState instead of
// provisioning twice.
func (s *tenancyService) Review(ctx context.Context, reviewer *auth.Context, requestID uuid.UUID, req *ReviewTenancyRequest) (*ReviewResult, error) {
	if _, err := auth.RequireSuperAdmin(reviewer); err != nil {
		return nil, err
	}

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !request.IsPending() {
		return nil, common.NewInvalidState("tenancy request has already been reviewed")
	}

	if !req.Approve {
		return s.reject(ctx, reviewer, request, req.RejectionReason)
	}
	return s.approve(ctx, reviewer, request, req.MaxUsersOverride)
}

func (s *tenancyService) reject(ctx context.Context, reviewer *auth.Context, request *models.TenancyRequest, reason string) (*ReviewResult, error) {
	if reason == "" {
		reason = defaultRejectionReason
	}
	if err := s.requestRepo.MarkRejected(ctx, request.ID, reviewer.UserID, reason); err != nil {
		return nil, err
	}

	updated, err := s.requestRepo.GetByID(ctx, request.ID)
	if err != nil {
		return nil, err
	}
	return &ReviewResult{Request: updated}, nil
}

func (s *tenancyService) approve(ctx context.Context, reviewer *auth.Context, request *models.TenancyRequest, maxUsersOverride int) (*ReviewResult, error) {
	maxUsers := request.MaxUsers
	if maxUsersOverride > 0 {
		maxUsers = maxUsersOverride
	}

	// Step 1: the tenant. On a slug conflict we check whether the slug
	// was claimed by an earlier, interrupted run of this same approval
	// and resume with that tenant; otherwise the slug was taken since
	// submission and the conflict stands.
	tenant, err := s.tenantSvc.Create(ctx, &CreateTenantRequest{
		Name:         request.HospitalName,
		Slug:         request.Slug,
		Description:  request.Description,
		ContactEmail: request.ContactEmail,
		ContactPhone: request.ContactPhone,
		MaxUsers:     maxUsers,
		CreatedBy:    reviewer.UserID,
	})
	if err != nil {
		if common.KindOf(err) != common.KindConflict {
			return nil, err
		}
		existing, getErr := s.tenantRepo.GetBySlug(ctx, request.Slug)
		if getErr != nil {
			return nil, err
		}
		if _, memberErr := s.membershipRepo.Get(ctx, request.RequestedBy, existing.ID); memberErr != nil {
			return nil, err
		}
		tenant = existing
	}

	// Step 2: the requester becomes the tenant's admin. A duplicate here
	// means an interrupted approval already placed it; re-driving is safe.
	membership := &models.Membership{
		UserID:   request.RequestedBy,
		TenantID: tenant.ID,
		Role:     auth.RoleTenantAdmin,
		Email:    request.RequesterEmail,
		Name:     request.RequesterName,
		Status:   models.MembershipStatusActive,
	}
	if err := s.membershipRepo.Create(ctx, membership); err != nil {
		if common.KindOf(err) != common.KindConflict {
			return nil, err
		}
	} else if err := s.tenantRepo.AdjustUserCount(ctx, tenant.ID, 1); err != nil {
		log.Printf("tenancy: failed to increment user count for tenant %s: %v", tenant.ID, err)
	}

	// Step 3: best-effort identity sync. Tenant and membership are
	// already durable, so a failure here is logged and reported as an
	// advisory; the requester picks up correct claims on next login or
	// explicit switch. Never retried automatically.
	role := auth.RoleTenantAdmin
	tenantID := tenant.ID.String()
	tenantName := tenant.Name
	synced := true
	if err := s.idp.UpdateUserAttributes(ctx, request.RequesterEmail, identity.AttributeUpdate{
		Role:       &role,
		TenantID:   &tenantID,
		TenantName: &tenantName,
	}); err != nil {
		synced = false
		log.Printf("tenancy: identity attribute sync failed for %s: %v", request.RequesterEmail, err)
	}

	// Step 4: flip the request. A concurrent review that won the flip
	// surfaces here as InvalidState.
	if err := s.requestRepo.MarkApproved(ctx, request.ID, reviewer.UserID, tenant.ID); err != nil {
		return nil, err
	}

	updated, err := s.requestRepo.GetByID(ctx, request.ID)
	if err != nil {
		return nil, err
	}
	return &ReviewResult{Request: updated, Tenant: tenant, IdentitySynced: synced}, nil
}

func (s *tenancyService) GetByID(ctx context.Context, id uuid.UUID) (*models.TenancyRequest, error) {
	return s.requestRepo.GetByID(ctx, id)
}

func (s *tenancyService) List(ctx context.Context, statusFilter *string, limit, offset int) ([]*models.TenancyRequest, error) {
	limit, offset = common.ValidatePaginationParams(limit, offset)
	return s.requestRepo.List(ctx, statusFilter, limit, offset)
}

func (s *tenancyService) ListByRequester(ctx context.Context, userID uuid.UUID) ([]*models.TenancyRequest, error) {
	return s.requestRepo.ListByRequester(ctx, userID)
}
