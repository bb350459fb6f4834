package handlers

import (
	"net/http"

	"boxtenant/internal/auth"
	"boxtenant/internal/common"
	"boxtenant/internal/services"

	"github.com/labstack/echo/v4"
)

// MembershipHandlers serves the per-tenant member administration
// endpoints. Role-escalation and self-removal rules live in the
// membership service.
type MembershipHandlers struct {
	membershipSvc services.MembershipService
}

func NewMembershipHandlers(membershipSvc services.MembershipService) *MembershipHandlers {
	return &MembershipHandlers{membershipSvc: membershipSvc}
}

// ListMembersRequest represents query parameters for listing members
type ListMembersRequest struct {
	Role   string `query:"role"`
	Limit  int    `query:"limit"`
	Offset int    `query:"offset"`
}

func (h *MembershipHandlers) ListMembers(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	actor, _ := auth.FromContext(c.Request().Context())
	if _, err := auth.RequireTenantAdmin(actor, tenantID); err != nil {
		return common.RespondError(c, err)
	}

	var req ListMembersRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "query", "Invalid query parameters")
	}

	var roleFilter *string
	if req.Role != "" {
		roleFilter = &req.Role
	}

	members, err := h.membershipSvc.ListMembers(c.Request().Context(), tenantID, roleFilter, req.Limit, req.Offset)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"members": members,
		"limit":   req.Limit,
		"offset":  req.Offset,
	})
}

func (h *MembershipHandlers) AddMember(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	actor, _ := auth.FromContext(c.Request().Context())

	var req services.AddMemberRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}

	membership, err := h.membershipSvc.AddMember(c.Request().Context(), actor, tenantID, &req)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusCreated, membership)
}

func (h *MembershipHandlers) GetMember(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}
	userID, err := common.ValidateUUID(c.Param("userId"), "user id")
	if err != nil {
		return common.SendValidationError(c, "userId", err.Error())
	}

	actor, _ := auth.FromContext(c.Request().Context())
	if _, err := auth.RequireTenantAdmin(actor, tenantID); err != nil {
		return common.RespondError(c, err)
	}

	membership, err := h.membershipSvc.GetMember(c.Request().Context(), tenantID, userID)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, membership)
}

func (h *MembershipHandlers) RemoveMember(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}
	userID, err := common.ValidateUUID(c.Param("userId"), "user id")
	if err != nil {
		return common.SendValidationError(c, "userId", err.Error())
	}

	actor, _ := auth.FromContext(c.Request().Context())
	if err := h.membershipSvc.RemoveMember(c.Request().Context(), actor, tenantID, userID); err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Membership removed",
	})
}
