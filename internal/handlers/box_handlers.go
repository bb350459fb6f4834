package handlers

import (
	"net/http"

	"boxtenant/internal/auth"
	"boxtenant/internal/common"
	"boxtenant/internal/models"
	"boxtenant/internal/repositories"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// BoxHandlers serves box CRUD within the actor's active tenant.
type BoxHandlers struct {
	boxRepo repositories.BoxRepository
}

func NewBoxHandlers(boxRepo repositories.BoxRepository) *BoxHandlers {
	return &BoxHandlers{boxRepo: boxRepo}
}

func requireActiveTenant(c echo.Context) (*auth.Context, uuid.UUID, error) {
	actor, _ := auth.FromContext(c.Request().Context())
	if _, err := auth.RequireStaff(actor); err != nil {
		return nil, uuid.Nil, err
	}
	if !actor.HasActiveTenant() {
		return nil, uuid.Nil, common.NewForbidden("no active tenant selected")
	}
	return actor, actor.ActiveTenantID, nil
}

// ListBoxesRequest represents query parameters for listing boxes
type ListBoxesRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

func (h *BoxHandlers) ListBoxes(c echo.Context) error {
	_, tenantID, err := requireActiveTenant(c)
	if err != nil {
		return common.RespondError(c, err)
	}

	var req ListBoxesRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "query", "Invalid query parameters")
	}
	limit, offset := common.ValidatePaginationParams(req.Limit, req.Offset)

	boxes, err := h.boxRepo.List(c.Request().Context(), tenantID, limit, offset)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"boxes":  boxes,
		"limit":  limit,
		"offset": offset,
	})
}

// CreateBoxRequest represents the box creation payload
type CreateBoxRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Capacity int    `json:"capacity"`
}

func (h *BoxHandlers) CreateBox(c echo.Context) error {
	actor, tenantID, err := requireActiveTenant(c)
	if err != nil {
		return common.RespondError(c, err)
	}
	if _, err := auth.RequireTenantAdmin(actor, tenantID); err != nil {
		return common.RespondError(c, err)
	}

	var req CreateBoxRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return common.SendValidationError(c, "name", err.Error())
	}

	box := &models.Box{
		ID:       uuid.New(),
		TenantID: tenantID,
		Name:     req.Name,
		Location: req.Location,
		Capacity: req.Capacity,
		Active:   true,
	}
	if err := h.boxRepo.Create(c.Request().Context(), box); err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusCreated, box)
}

func (h *BoxHandlers) GetBox(c echo.Context) error {
	_, tenantID, err := requireActiveTenant(c)
	if err != nil {
		return common.RespondError(c, err)
	}

	boxID, err := common.ValidateUUID(c.Param("id"), "box id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	box, err := h.boxRepo.GetByID(c.Request().Context(), tenantID, boxID)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, box)
}

// UpdateBoxRequest represents the box update payload
type UpdateBoxRequest struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
	Capacity *int    `json:"capacity"`
	Active   *bool   `json:"active"`
}

func (h *BoxHandlers) UpdateBox(c echo.Context) error {
	actor, tenantID, err := requireActiveTenant(c)
	if err != nil {
		return common.RespondError(c, err)
	}
	if _, err := auth.RequireTenantAdmin(actor, tenantID); err != nil {
		return common.RespondError(c, err)
	}

	boxID, err := common.ValidateUUID(c.Param("id"), "box id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req UpdateBoxRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}

	ctx := c.Request().Context()
	box, err := h.boxRepo.GetByID(ctx, tenantID, boxID)
	if err != nil {
		return common.RespondError(c, err)
	}

	if req.Name != nil {
		box.Name = *req.Name
	}
	if req.Location != nil {
		box.Location = *req.Location
	}
	if req.Capacity != nil {
		box.Capacity = *req.Capacity
	}
	if req.Active != nil {
		box.Active = *req.Active
	}

	if err := h.boxRepo.Update(ctx, box); err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, box)
}

func (h *BoxHandlers) DeleteBox(c echo.Context) error {
	actor, tenantID, err := requireActiveTenant(c)
	if err != nil {
		return common.RespondError(c, err)
	}
	if _, err := auth.RequireTenantAdmin(actor, tenantID); err != nil {
		return common.RespondError(c, err)
	}

	boxID, err := common.ValidateUUID(c.Param("id"), "box id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.boxRepo.Delete(c.Request().Context(), tenantID, boxID); err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Box deleted",
	})
}
