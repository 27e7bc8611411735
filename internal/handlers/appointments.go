package handlers

import (
	"errors"

	"clinic-server/internal/middleware"
	"clinic-server/internal/models"
	"clinic-server/internal/scheduling"
	"clinic-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// AppointmentHandler exposes the appointment lifecycle and slot availability
// over HTTP. All state changes are delegated to the scheduling service.
type AppointmentHandler struct {
	Service *scheduling.Service
	Slots   *scheduling.SlotCalculator
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(service *scheduling.Service, slots *scheduling.SlotCalculator) *AppointmentHandler {
	return &AppointmentHandler{Service: service, Slots: slots}
}

// schedulingError maps a scheduling service error to the HTTP response.
func schedulingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scheduling.ErrSlotConflict):
		utils.Conflict(c, "This time slot is already booked")
	case errors.Is(err, scheduling.ErrNotFound):
		utils.NotFound(c, "Appointment not found")
	case errors.Is(err, scheduling.ErrCancelled):
		utils.BadRequest(c, "Cancelled appointments cannot be confirmed or rescheduled")
	case errors.Is(err, scheduling.ErrNotCancelled):
		utils.BadRequest(c, "Only cancelled appointments can be permanently deleted")
	default:
		utils.InternalServerError(c, err.Error())
	}
}

// CreateAppointmentRequest represents the request body for booking.
type CreateAppointmentRequest struct {
	PatientID       string `json:"patientId"`
	DoctorID        string `json:"doctorId" binding:"required"`
	AppointmentDate string `json:"appointmentDate" binding:"required"`
	AppointmentTime string `json:"appointmentTime" binding:"required"`
	AppointmentType string `json:"appointmentType"`
	Reason          string `json:"reason"`
	Notes           string `json:"notes"`
}

// CreateAppointment books a slot. Patients may only book for themselves;
// staff, admin, and doctor bookings are created on behalf of a patient and
// start out confirmed.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	role, _ := middleware.GetUserRoleFromContext(c)

	staffBooking := role == models.RoleStaff || role == models.RoleAdmin || role == models.RoleDoctor
	patientID := req.PatientID
	if !staffBooking {
		patientID = userID
	}
	if patientID == "" {
		utils.BadRequest(c, "patientId is required")
		return
	}

	appt, err := h.Service.Book(scheduling.BookRequest{
		PatientID:    patientID,
		DoctorID:     req.DoctorID,
		Date:         req.AppointmentDate,
		Time:         req.AppointmentTime,
		Type:         req.AppointmentType,
		Reason:       req.Reason,
		Notes:        req.Notes,
		StaffBooking: staffBooking,
	})
	if err != nil {
		schedulingError(c, err)
		return
	}

	utils.Created(c, "Appointment booked successfully", appt)
}

// GetAppointments lists appointments visible to the caller: patients see
// their own, doctors their consultations, staff and admin everything.
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	role, _ := middleware.GetUserRoleFromContext(c)

	appts, err := h.Service.ListForUser(userID, role)
	if err != nil {
		utils.InternalServerError(c, "Failed to retrieve appointments: "+err.Error())
		return
	}
	utils.Success(c, "Appointments retrieved successfully", appts)
}

// GetAppointmentByID returns one appointment.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appt, err := h.Service.FindByID(c.Param("id"))
	if err != nil {
		schedulingError(c, err)
		return
	}
	utils.Success(c, "Appointment retrieved successfully", appt)
}

// GetScheduledAppointments lists upcoming (pending, confirmed, scheduled)
// appointments for the caller.
func (h *AppointmentHandler) GetScheduledAppointments(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	role, _ := middleware.GetUserRoleFromContext(c)

	appts, err := h.Service.ListScheduled(userID, role)
	if err != nil {
		utils.InternalServerError(c, "Failed to retrieve appointments: "+err.Error())
		return
	}
	utils.Success(c, "Scheduled appointments retrieved successfully", appts)
}

// GetMissedAppointments lists missed and no-show appointments for the caller.
func (h *AppointmentHandler) GetMissedAppointments(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	role, _ := middleware.GetUserRoleFromContext(c)

	appts, err := h.Service.ListMissed(userID, role)
	if err != nil {
		utils.InternalServerError(c, "Failed to retrieve appointments: "+err.Error())
		return
	}
	utils.Success(c, "Missed appointments retrieved successfully", appts)
}

// GetPriorityAppointments lists high and urgent priority appointments that
// still need attention.
func (h *AppointmentHandler) GetPriorityAppointments(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)
	role, _ := middleware.GetUserRoleFromContext(c)

	appts, err := h.Service.ListPriority(userID, role)
	if err != nil {
		utils.InternalServerError(c, "Failed to retrieve appointments: "+err.Error())
		return
	}
	utils.Success(c, "Priority appointments retrieved successfully", appts)
}

// GetAvailableSlots computes the bookable slots for a doctor on one day. The
// doctor id comes from the path or, on the legacy route, a query parameter.
func (h *AppointmentHandler) GetAvailableSlots(c *gin.Context) {
	doctorID := c.Param("doctorId")
	if doctorID == "" {
		doctorID = c.Query("doctorId")
	}
	date := c.Query("date")
	if doctorID == "" || date == "" {
		utils.BadRequest(c, "doctorId and date query parameters are required")
		return
	}

	result, err := h.Slots.AvailableSlots(doctorID, date)
	if err != nil {
		utils.BadRequest(c, "Failed to compute slots: "+err.Error())
		return
	}
	utils.Success(c, "Available slots retrieved successfully", result)
}

// ConfirmAppointment confirms a pending appointment. Same-day confirmations
// also admit the patient into the doctor's queue.
func (h *AppointmentHandler) ConfirmAppointment(c *gin.Context) {
	appt, err := h.Service.Confirm(c.Param("id"))
	if err != nil {
		schedulingError(c, err)
		return
	}
	utils.Success(c, "Appointment confirmed successfully", appt)
}

// RescheduleRequest represents the request body for rescheduling.
type RescheduleRequest struct {
	AppointmentDate string `json:"appointmentDate" binding:"required"`
	AppointmentTime string `json:"appointmentTime" binding:"required"`
	Reason          string `json:"reason"`
	Priority        string `json:"priority" binding:"omitempty,oneof=normal high urgent"`
}

// RescheduleAppointment moves an appointment to a new slot.
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	var req RescheduleRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appt, err := h.Service.Reschedule(c.Param("id"),
		req.AppointmentDate, req.AppointmentTime, req.Reason,
		models.AppointmentPriority(req.Priority))
	if err != nil {
		schedulingError(c, err)
		return
	}
	utils.Success(c, "Appointment rescheduled successfully", appt)
}

// CancelAppointment soft-cancels an appointment and frees its slot.
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	appt, err := h.Service.Cancel(c.Param("id"))
	if err != nil {
		schedulingError(c, err)
		return
	}
	utils.Success(c, "Appointment cancelled successfully", appt)
}

// CompleteAppointment marks an appointment completed.
func (h *AppointmentHandler) CompleteAppointment(c *gin.Context) {
	appt, err := h.Service.Complete(c.Param("id"))
	if err != nil {
		schedulingError(c, err)
		return
	}
	utils.Success(c, "Appointment completed successfully", appt)
}

// MarkMissedAppointment records a no-show.
func (h *AppointmentHandler) MarkMissedAppointment(c *gin.Context) {
	appt, err := h.Service.MarkMissed(c.Param("id"))
	if err != nil {
		schedulingError(c, err)
		return
	}
	utils.Success(c, "Appointment marked as missed", appt)
}

// MissedReasonRequest represents the request body for recording why a visit
// was missed.
type MissedReasonRequest struct {
	MissedReason string `json:"missedReason" binding:"required,oneof=no_show emergency illness other"`
}

// UpdateMissedReason records the reason a visit was missed and adjusts the
// reschedule priority accordingly.
func (h *AppointmentHandler) UpdateMissedReason(c *gin.Context) {
	var req MissedReasonRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appt, err := h.Service.UpdateMissedReason(c.Param("id"), models.MissedReason(req.MissedReason))
	if err != nil {
		schedulingError(c, err)
		return
	}
	utils.Success(c, "Missed reason updated successfully", appt)
}

// UpdateAppointmentRequest represents a partial appointment update. Fields
// are applied in a fixed order; a reschedule subsumes any status change.
type UpdateAppointmentRequest struct {
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
	Status          string `json:"status" binding:"omitempty,oneof=pending confirmed scheduled completed cancelled no_show missed"`
	Priority        string `json:"priority" binding:"omitempty,oneof=normal high urgent"`
	MissedReason    string `json:"missedReason" binding:"omitempty,oneof=no_show emergency illness other"`
	Reason          string `json:"reason"`
	Notes           string `json:"notes"`
}

// UpdateAppointment applies a partial update to one appointment.
func (h *AppointmentHandler) UpdateAppointment(c *gin.Context) {
	var req UpdateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var cmds []scheduling.UpdateCommand
	if req.AppointmentDate != "" || req.AppointmentTime != "" {
		if req.AppointmentDate == "" || req.AppointmentTime == "" {
			utils.BadRequest(c, "appointmentDate and appointmentTime must be provided together")
			return
		}
		cmds = append(cmds, scheduling.Reschedule{
			Date:     req.AppointmentDate,
			Time:     req.AppointmentTime,
			Reason:   req.Reason,
			Priority: models.AppointmentPriority(req.Priority),
		})
	}
	if req.Status != "" {
		cmds = append(cmds, scheduling.ChangeStatus{
			Status:       models.AppointmentStatus(req.Status),
			MissedReason: models.MissedReason(req.MissedReason),
		})
	}
	if req.Priority != "" {
		cmds = append(cmds, scheduling.ChangePriority{Priority: models.AppointmentPriority(req.Priority)})
	}
	if req.Notes != "" {
		cmds = append(cmds, scheduling.ChangeNotes{Notes: req.Notes})
	}
	if len(cmds) == 0 {
		utils.BadRequest(c, "No updatable fields provided")
		return
	}

	appt, err := h.Service.Apply(c.Param("id"), cmds...)
	if err != nil {
		schedulingError(c, err)
		return
	}
	utils.Success(c, "Appointment updated successfully", appt)
}

// BatchStatusRequest represents the request body for a bulk status change.
type BatchStatusRequest struct {
	AppointmentIDs []string `json:"appointmentIds" binding:"required,min=1"`
	Status         string   `json:"status" binding:"required,oneof=pending confirmed scheduled completed cancelled no_show missed"`
	MissedReason   string   `json:"missedReason" binding:"omitempty,oneof=no_show emergency illness other"`
	Priority       string   `json:"priority" binding:"omitempty,oneof=normal high urgent"`
}

// BatchStatusResponse reports the outcome of a bulk status change.
type BatchStatusResponse struct {
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// BatchUpdateStatus applies one status change to many appointments. One bad
// id does not abort the rest.
func (h *AppointmentHandler) BatchUpdateStatus(c *gin.Context) {
	var req BatchStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	updated, errs := h.Service.BatchUpdateStatus(req.AppointmentIDs,
		models.AppointmentStatus(req.Status),
		models.MissedReason(req.MissedReason),
		models.AppointmentPriority(req.Priority))

	resp := BatchStatusResponse{Updated: updated, Failed: len(errs)}
	for _, err := range errs {
		resp.Errors = append(resp.Errors, err.Error())
	}
	utils.Success(c, "Batch status update processed", resp)
}

// DeleteAppointment permanently removes a cancelled appointment record.
func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	if err := h.Service.PermanentDelete(c.Param("id")); err != nil {
		schedulingError(c, err)
		return
	}
	utils.Success(c, "Appointment deleted successfully", nil)
}
