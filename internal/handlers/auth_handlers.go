package handlers

import (
	"net/http"

	"boxtenant/internal/auth"
	"boxtenant/internal/common"
	"boxtenant/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AuthHandlers serves the identity-facing endpoints: the current
// actor's profile, their tenancies, and the tenant-switch operation.
type AuthHandlers struct {
	membershipSvc services.MembershipService
	sessionSvc    services.SessionService
}

func NewAuthHandlers(membershipSvc services.MembershipService, sessionSvc services.SessionService) *AuthHandlers {
	return &AuthHandlers{
		membershipSvc: membershipSvc,
		sessionSvc:    sessionSvc,
	}
}

// Me returns the verified identity attached to the request.
func (h *AuthHandlers) Me(c echo.Context) error {
	actor, ok := auth.FromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}
	return c.JSON(http.StatusOK, actor)
}

// MyTenancies lists every tenant the actor is a member of, including
// the tenant status so clients can grey out inert memberships.
func (h *AuthHandlers) MyTenancies(c echo.Context) error {
	actor, ok := auth.FromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	tenancies, err := h.membershipSvc.ListUserTenancies(c.Request().Context(), actor.UserID)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"tenancies": tenancies,
	})
}

// SwitchTenantRequest carries the switch target. An empty tenant_id
// means "exit the current tenancy".
type SwitchTenantRequest struct {
	TenantID string `json:"tenant_id"`
}

// SwitchTenant changes the actor's active tenant.
func (h *AuthHandlers) SwitchTenant(c echo.Context) error {
	actor, ok := auth.FromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req SwitchTenantRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}

	target := uuid.Nil
	if req.TenantID != "" {
		parsed, err := common.ValidateUUID(req.TenantID, "tenant_id")
		if err != nil {
			return common.SendValidationError(c, "tenant_id", err.Error())
		}
		target = parsed
	}

	result, err := h.sessionSvc.SwitchTenant(c.Request().Context(), actor, target)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
