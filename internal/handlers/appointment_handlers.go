package handlers

import (
	"net/http"
	"time"

	"boxtenant/internal/common"
	"boxtenant/internal/models"
	"boxtenant/internal/repositories"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AppointmentHandlers serves appointment CRUD within the actor's
// active tenant.
type AppointmentHandlers struct {
	appointmentRepo repositories.AppointmentRepository
}

func NewAppointmentHandlers(appointmentRepo repositories.AppointmentRepository) *AppointmentHandlers {
	return &AppointmentHandlers{appointmentRepo: appointmentRepo}
}

// ListAppointmentsRequest represents query parameters for listing
// appointments by date range.
type ListAppointmentsRequest struct {
	From string `query:"from"`
	To   string `query:"to"`
}

func (h *AppointmentHandlers) ListAppointments(c echo.Context) error {
	_, tenantID, err := requireActiveTenant(c)
	if err != nil {
		return common.RespondError(c, err)
	}

	var req ListAppointmentsRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "query", "Invalid query parameters")
	}

	now := time.Now()
	from := now.AddDate(0, 0, -7)
	to := now.AddDate(0, 0, 30)
	if req.From != "" {
		parsed, err := time.Parse("2006-01-02", req.From)
		if err != nil {
			return common.SendValidationError(c, "from", "from must be in YYYY-MM-DD format")
		}
		from = parsed
	}
	if req.To != "" {
		parsed, err := time.Parse("2006-01-02", req.To)
		if err != nil {
			return common.SendValidationError(c, "to", "to must be in YYYY-MM-DD format")
		}
		to = parsed
	}
	if to.Before(from) {
		return common.SendValidationError(c, "to", "to cannot be before from")
	}

	appointments, err := h.appointmentRepo.ListByRange(c.Request().Context(), tenantID, from, to)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"appointments": appointments,
	})
}

// CreateAppointmentRequest represents the appointment creation payload
type CreateAppointmentRequest struct {
	BoxID       string    `json:"box_id"`
	StaffID     string    `json:"staff_id"`
	PatientName string    `json:"patient_name"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Notes       string    `json:"notes"`
}

func (h *AppointmentHandlers) CreateAppointment(c echo.Context) error {
	_, tenantID, err := requireActiveTenant(c)
	if err != nil {
		return common.RespondError(c, err)
	}

	var req CreateAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}

	boxID, err := common.ValidateUUID(req.BoxID, "box_id")
	if err != nil {
		return common.SendValidationError(c, "box_id", err.Error())
	}
	staffID, err := common.ValidateUUID(req.StaffID, "staff_id")
	if err != nil {
		return common.SendValidationError(c, "staff_id", err.Error())
	}
	if !req.EndsAt.After(req.StartsAt) {
		return common.SendValidationError(c, "ends_at", "ends_at must be after starts_at")
	}

	appointment := &models.Appointment{
		ID:          uuid.New(),
		TenantID:    tenantID,
		BoxID:       boxID,
		StaffID:     staffID,
		PatientName: req.PatientName,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		Status:      models.AppointmentStatusScheduled,
		Notes:       req.Notes,
	}
	if err := h.appointmentRepo.Create(c.Request().Context(), appointment); err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusCreated, appointment)
}

func (h *AppointmentHandlers) GetAppointment(c echo.Context) error {
	_, tenantID, err := requireActiveTenant(c)
	if err != nil {
		return common.RespondError(c, err)
	}

	appointmentID, err := common.ValidateUUID(c.Param("id"), "appointment id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	appointment, err := h.appointmentRepo.GetByID(c.Request().Context(), tenantID, appointmentID)
	if err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, appointment)
}

// UpdateAppointmentRequest represents the appointment update payload
type UpdateAppointmentRequest struct {
	PatientName *string    `json:"patient_name"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	Status      *string    `json:"status"`
	Notes       *string    `json:"notes"`
}

func (h *AppointmentHandlers) UpdateAppointment(c echo.Context) error {
	_, tenantID, err := requireActiveTenant(c)
	if err != nil {
		return common.RespondError(c, err)
	}

	appointmentID, err := common.ValidateUUID(c.Param("id"), "appointment id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	var req UpdateAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return common.SendValidationError(c, "body", "Invalid request format")
	}

	ctx := c.Request().Context()
	appointment, err := h.appointmentRepo.GetByID(ctx, tenantID, appointmentID)
	if err != nil {
		return common.RespondError(c, err)
	}

	if req.PatientName != nil {
		appointment.PatientName = *req.PatientName
	}
	if req.StartsAt != nil {
		appointment.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		appointment.EndsAt = *req.EndsAt
	}
	if req.Status != nil {
		switch *req.Status {
		case models.AppointmentStatusScheduled, models.AppointmentStatusCompleted, models.AppointmentStatusCancelled:
			appointment.Status = *req.Status
		default:
			return common.SendValidationError(c, "status", "status must be scheduled, completed, or cancelled")
		}
	}
	if req.Notes != nil {
		appointment.Notes = *req.Notes
	}
	if !appointment.EndsAt.After(appointment.StartsAt) {
		return common.SendValidationError(c, "ends_at", "ends_at must be after starts_at")
	}

	if err := h.appointmentRepo.Update(ctx, appointment); err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, appointment)
}

func (h *AppointmentHandlers) DeleteAppointment(c echo.Context) error {
	_, tenantID, err := requireActiveTenant(c)
	if err != nil {
		return common.RespondError(c, err)
	}

	appointmentID, err := common.ValidateUUID(c.Param("id"), "appointment id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	if err := h.appointmentRepo.Delete(c.Request().Context(), tenantID, appointmentID); err != nil {
		return common.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Appointment deleted",
	})
}
