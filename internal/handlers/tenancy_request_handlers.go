package handlers

import (
	"net/http"

	"boxtenant/internal/auth"
	"boxtenant/internal/common"
	"boxtenant/internal/models"
	"boxtenant/internal/services"

	"github.com/labstack/echo/v4"
)

// TenancyRequestHandlers serves the tenancy-request workflow: any
// authenticated user may submit, only super admins review.
type TenancyRequestHandlers struct {
	tenancySvc services.TenancyService
}

func NewTenancyRequestHandlers(tenancySvc services.TenancyService) *TenancyRequestHandlers {
	return &TenancyRequestHandlers{tenancySvc: tenancySvc}
}

func (h *TenancyRequestHandlers) Submit(c echo.Context) error {
	actor, ok := auth.FromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req services.SubmitTenancyRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}

	request, err := h.tenancySvc.Submit(c.Request().Context(), actor, &req)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusCreated, request)
}

// ListRequestsQuery represents query parameters for listing requests
type ListRequestsQuery struct {
	Status string `query:"status"`
	Limit  int    `query:"limit"`
	Offset int    `query:"offset"`
}

// List returns all tenancy requests (super admin only).
func (h *TenancyRequestHandlers) List(c echo.Context) error {
	actor, _ := auth.FromContext(c.Request().Context())
	if _, err := auth.RequireSuperAdmin(actor); err != nil {
		return common.RespondError(c, err)
	}

	var query ListRequestsQuery
	if err := c.Bind(&query); err != nil {
		return common.SendValidationError(c, "query", "Invalid query parameters")
	}

	var statusFilter *string
	if query.Status != "" {
		switch query.Status {
		case models.TenancyRequestStatusPending, models.TenancyRequestStatusApproved, models.TenancyRequestStatusRejected:
			statusFilter = &query.Status
		default:
			return common.SendValidationError(c, "status", "status must be pending, approved, or rejected")
		}
	}

	requests, err := h.tenancySvc.List(c.Request().Context(), statusFilter, query.Limit, query.Offset)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"requests": requests,
		"limit":    query.Limit,
		"offset":   query.Offset,
	})
}

// ListMine returns the actor's own submissions.
func (h *TenancyRequestHandlers) ListMine(c echo.Context) error {
	actor, ok := auth.FromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	requests, err := h.tenancySvc.ListByRequester(c.Request().Context(), actor.UserID)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"requests": requests,
	})
}

// Get returns a single request: its requester or a super admin.
func (h *TenancyRequestHandlers) Get(c echo.Context) error {
	actor, ok := auth.FromContext(c.Request().Context())
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	requestID, err := common.ValidateUUID(c.Param("id"), "request id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	request, err := h.tenancySvc.GetByID(c.Request().Context(), requestID)
	if err != nil {
		return common.RespondError(c, err)
	}

	if request.RequestedBy != actor.UserID {
		if _, err := auth.RequireSuperAdmin(actor); err != nil {
			return common.RespondError(c, err)
		}
	}
	return c.JSON(http.StatusOK, request)
}

// Review approves or rejects a pending request (super admin only).
func (h *TenancyRequestHandlers) Review(c echo.Context) error {
	actor, _ := auth.FromContext(c.Request().Context())

	requestID, err := common.ValidateUUID(c.Param("id"), "request id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req services.ReviewTenancyRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}

	result, err := h.tenancySvc.Review(c.Request().Context(), actor, requestID, &req)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
