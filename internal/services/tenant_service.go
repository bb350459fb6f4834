package services

import (
	"context"
	"log"
	"time"

	"boxtenant/internal/caching"
	"boxtenant/internal/common"
	"boxtenant/internal/models"
	"boxtenant/internal/repositories"

	"github.com/google/uuid"
)

const (
	defaultMaxUsers   = 50
	tenantCacheTTL    = 5 * time.Minute
	directoryCacheTTL = 5 * time.Minute
)

type TenantService interface {
	Create(ctx context.Context, req *CreateTenantRequest) (*models.Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	ListPublic(ctx context.Context) ([]*models.TenantSummary, error)
	List(ctx context.Context, limit, offset int) ([]*models.Tenant, error)
	Update(ctx context.Context, req *UpdateTenantRequest) (*models.Tenant, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	RefreshDirectory(ctx context.Context) error
}

type tenantService struct {
	tenantRepo repositories.TenantRepository
	cacheSvc   caching.CacheService
}

func NewTenantService(tenantRepo repositories.TenantRepository, cacheSvc caching.CacheService) TenantService {
	return &tenantService{tenantRepo: tenantRepo, cacheSvc: cacheSvc}
}

type CreateTenantRequest struct {
	Name         string                `json:"name"`
	Slug         string                `json:"slug"`
	Description  string                `json:"description"`
	ContactEmail string                `json:"contact_email"`
	ContactPhone string                `json:"contact_phone"`
	MaxUsers     int                   `json:"max_users"`
	Settings     models.TenantSettings `json:"settings"`
	CreatedBy    uuid.UUID             `json:"-"`
}

type UpdateTenantRequest struct {
	ID           uuid.UUID              `json:"-"`
	Name         *string                `json:"name"`
	Description  *string                `json:"description"`
	ContactEmail *string                `json:"contact_email"`
	ContactPhone *string                `json:"contact_phone"`
	MaxUsers     *int                   `json:"max_users"`
	Status       *string                `json:"status"`
	Settings     *models.TenantSettings `json:"settings"`
}

func (s *tenantService) Create(ctx context.Context, req *CreateTenantRequest) (*models.Tenant, error) {
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return nil, common.NewValidation(err.Error())
	}
	if err := common.ValidateSlug(req.Slug); err != nil {
		return nil, common.NewValidation(err.Error())
	}

	maxUsers := req.MaxUsers
	if maxUsers <= 0 {
		maxUsers = defaultMaxUsers
	}

	tenant := &models.Tenant{
		ID:           uuid.New(),
		Name:         req.Name,
		Slug:         req.Slug,
		Description:  req.Description,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		MaxUsers:     maxUsers,
		Status:       models.TenantStatusActive,
		Settings:     req.Settings,
		CreatedBy:    req.CreatedBy,
	}

	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, err
	}

	s.invalidateDirectory(ctx)
	return tenant, nil
}

func (s *tenantService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	if cached, err := s.cacheSvc.GetTenant(ctx, id); err == nil && cached != nil {
		return cached, nil
	}

	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cacheSvc.SetTenant(ctx, tenant, tenantCacheTTL); err != nil {
		log.Printf("cache: failed to store tenant %s: %v", id, err)
	}
	return tenant, nil
}

func (s *tenantService) ListPublic(ctx context.Context) ([]*models.TenantSummary, error) {
	if cached, err := s.cacheSvc.GetPublicDirectory(ctx); err == nil && cached != nil {
		return cached, nil
	}

	summaries, err := s.tenantRepo.ListPublic(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cacheSvc.SetPublicDirectory(ctx, summaries, directoryCacheTTL); err != nil {
		log.Printf("cache: failed to store public directory: %v", err)
	}
	return summaries, nil
}

func (s *tenantService) List(ctx context.Context, limit, offset int) ([]*models.Tenant, error) {
	limit, offset = common.ValidatePaginationParams(limit, offset)
	return s.tenantRepo.List(ctx, limit, offset)
}

// Update merges only the provided fields onto the stored tenant. The
// slug is immutable and deletion goes through SoftDelete, not a status
// update.
func (s *tenantService) Update(ctx context.Context, req *UpdateTenantRequest) (*models.Tenant, error) {
	existing, err := s.tenantRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := common.ValidateRequiredString(*req.Name, "name"); err != nil {
			return nil, common.NewValidation(err.Error())
		}
		existing.Name = *req.Name
	}
	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.ContactEmail != nil {
		existing.ContactEmail = *req.ContactEmail
	}
	if req.ContactPhone != nil {
		existing.ContactPhone = *req.ContactPhone
	}
	if req.MaxUsers != nil {
		if *req.MaxUsers <= 0 {
			return nil, common.NewValidation("max_users must be positive")
		}
		existing.MaxUsers = *req.MaxUsers
	}
	if req.Status != nil {
		if *req.Status != models.TenantStatusActive && *req.Status != models.TenantStatusSuspended {
			return nil, common.NewValidation("status must be active or suspended")
		}
		existing.Status = *req.Status
	}
	if req.Settings != nil {
		existing.Settings = *req.Settings
	}

	if err := s.tenantRepo.Update(ctx, existing); err != nil {
		return nil, err
	}

	s.invalidateTenant(ctx, existing.ID)
	return existing, nil
}

func (s *tenantService) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if err := s.tenantRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.invalidateTenant(ctx, id)
	return nil
}

// RefreshDirectory repopulates the cached public directory from the
// registry. Called by the background scheduler.
func (s *tenantService) RefreshDirectory(ctx context.Context) error {
	summaries, err := s.tenantRepo.ListPublic(ctx)
	if err != nil {
		return err
	}
	return s.cacheSvc.SetPublicDirectory(ctx, summaries, directoryCacheTTL)
}

func (s *tenantService) invalidateTenant(ctx context.Context, id uuid.UUID) {
	if err := s.cacheSvc.DeleteTenant(ctx, id); err != nil {
		log.Printf("cache: failed to invalidate tenant %s: %v", id, err)
	}
	s.invalidateDirectory(ctx)
}

func (s *tenantService) invalidateDirectory(ctx context.Context) {
	if err := s.cacheSvc.InvalidateDirectory(ctx); err != nil {
		log.Printf("cache: failed to invalidate public directory: %v", err)
	}
}
