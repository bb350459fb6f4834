package handlers

import (
	"net/http"

	"boxtenant/internal/auth"
	"boxtenant/internal/common"
	"boxtenant/internal/services"

	"github.com/labstack/echo/v4"
)

// TenantHandlers serves the tenant registry endpoints.
type TenantHandlers struct {
	tenantSvc  services.TenantService
	storageSvc services.StorageService
}

func NewTenantHandlers(tenantSvc services.TenantService, storageSvc services.StorageService) *TenantHandlers {
	return &TenantHandlers{
		tenantSvc:  tenantSvc,
		storageSvc: storageSvc,
	}
}

// ListPublic returns the unauthenticated tenant directory used by
// registration flows.
func (h *TenantHandlers) ListPublic(c echo.Context) error {
	summaries, err := h.tenantSvc.ListPublic(c.Request().Context())
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tenants": summaries,
	})
}

// ListTenantsRequest represents query parameters for listing tenants
type ListTenantsRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// ListTenants returns every tenant including suspended and deleted
// ones (super admin only).
func (h *TenantHandlers) ListTenants(c echo.Context) error {
	actor, _ := auth.FromContext(c.Request().Context())
	if _, err := auth.RequireSuperAdmin(actor); err != nil {
		return common.RespondError(c, err)
	}

	var req ListTenantsRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "query", "Invalid query parameters")
	}

	tenants, err := h.tenantSvc.List(c.Request().Context(), req.Limit, req.Offset)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tenants": tenants,
		"limit":   req.Limit,
		"offset":  req.Offset,
	})
}

// CreateTenant provisions a tenant directly, outside the request
// workflow (super admin only).
func (h *TenantHandlers) CreateTenant(c echo.Context) error {
	actor, _ := auth.FromContext(c.Request().Context())
	if _, err := auth.RequireSuperAdmin(actor); err != nil {
		return common.RespondError(c, err)
	}

	var req services.CreateTenantRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}
	req.CreatedBy = actor.UserID

	tenant, err := h.tenantSvc.Create(c.Request().Context(), &req)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusCreated, tenant)
}

// GetTenant returns tenant details. Tenant admins see their own
// tenant; super admins see any.
func (h *TenantHandlers) GetTenant(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	actor, _ := auth.FromContext(c.Request().Context())
	if _, err := auth.RequireRoleInTenant(actor, auth.RoleStaff, tenantID); err != nil {
		return common.RespondError(c, err)
	}

	tenant, err := h.tenantSvc.GetByID(c.Request().Context(), tenantID)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, tenant)
}

// UpdateTenant merges the provided fields into the tenant. The slug is
// immutable.
func (h *TenantHandlers) UpdateTenant(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	actor, _ := auth.FromContext(c.Request().Context())
	if _, err := auth.RequireTenantAdmin(actor, tenantID); err != nil {
		return common.RespondError(c, err)
	}

	var req services.UpdateTenantRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}
	req.ID = tenantID

	// Suspending or reactivating a tenant is a platform decision.
	if req.Status != nil {
		if _, err := auth.RequireSuperAdmin(actor); err != nil {
			return common.RespondError(c, err)
		}
	}

	tenant, err := h.tenantSvc.Update(c.Request().Context(), &req)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, tenant)
}

// DeleteTenant soft-deletes a tenant (super admin only). The record is
// kept for audit and its memberships become inert.
func (h *TenantHandlers) DeleteTenant(c echo.Context) error {
	actor, _ := auth.FromContext(c.Request().Context())
	if _, err := auth.RequireSuperAdmin(actor); err != nil {
		return common.RespondError(c, err)
	}

	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.tenantSvc.SoftDelete(c.Request().Context(), tenantID); err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Tenant deleted",
	})
}

// UploadLogo stores a tenant's branding logo in object storage and
// records the URL in the tenant settings.
func (h *TenantHandlers) UploadLogo(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	actor, _ := auth.FromContext(c.Request().Context())
	if _, err := auth.RequireTenantAdmin(actor, tenantID); err != nil {
		return common.RespondError(c, err)
	}

	file, err := c.FormFile("logo")
	if err != nil {
		return common.SendValidationError(c, "logo", "logo file is required")
	}
	src, err := file.Open()
	if err != nil {
		return common.RespondError(c, err)
	}
	defer src.Close()

	ctx := c.Request().Context()
	logoURL, err := h.storageSvc.UploadTenantLogo(ctx, tenantID, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		return common.RespondError(c, err)
	}

	existing, err := h.tenantSvc.GetByID(ctx, tenantID)
	if err != nil {
		return common.RespondError(c, err)
	}
	settings := existing.Settings
	settings.LogoURL = logoURL

	tenant, err := h.tenantSvc.Update(ctx, &services.UpdateTenantRequest{
		ID:       tenantID,
		Settings: &settings,
	})
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, tenant)
}
