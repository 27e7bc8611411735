package handlers

import (
	"errors"
	"time"

	"clinic-server/internal/middleware"
	"clinic-server/internal/models"
	"clinic-server/internal/queue"
	"clinic-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// QueueHandler exposes the same-day waiting line over HTTP. Ordering and
// wait estimates come from the queue engine; the handler only translates.
type QueueHandler struct {
	Engine *queue.Engine
}

// NewQueueHandler creates a new QueueHandler.
func NewQueueHandler(engine *queue.Engine) *QueueHandler {
	return &QueueHandler{Engine: engine}
}

func queueError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, queue.ErrNotFound):
		utils.NotFound(c, "Queue entry not found")
	case errors.Is(err, queue.ErrQueueEmpty):
		utils.NotFound(c, "No patients waiting in the queue")
	case errors.Is(err, queue.ErrNotActive):
		utils.BadRequest(c, "Queue entry is no longer active")
	default:
		utils.InternalServerError(c, err.Error())
	}
}

// JoinQueueRequest represents the request body for joining a queue.
type JoinQueueRequest struct {
	PatientID     string `json:"patientId"`
	DoctorID      string `json:"doctorId" binding:"required"`
	Priority      string `json:"priority" binding:"omitempty,oneof=emergency appointment walk_in"`
	AppointmentID string `json:"appointmentId"`
}

// JoinQueue places a patient in a doctor's queue for today. Patients join
// for themselves; staff may join on a patient's behalf. Joining twice is a
// no-op that returns the existing active entry.
func (h *QueueHandler) JoinQueue(c *gin.Context) {
	var req JoinQueueRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	role, _ := middleware.GetUserRoleFromContext(c)

	patientID := req.PatientID
	if role == models.RolePatient {
		patientID = userID
	}
	if patientID == "" {
		utils.BadRequest(c, "patientId is required")
		return
	}

	priority := models.QueuePriority(req.Priority)
	if priority == "" {
		priority = models.QueueWalkIn
	}

	entry, err := h.Engine.Admit(patientID, req.DoctorID, priority, req.AppointmentID)
	if err != nil {
		queueError(c, err)
		return
	}
	utils.Created(c, "Joined queue successfully", entry)
}

// GetDoctorQueue returns a doctor's queue for one day (today by default)
// with summary statistics.
func (h *QueueHandler) GetDoctorQueue(c *gin.Context) {
	doctorID := c.Param("doctorId")
	date := c.Query("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	dq, err := h.Engine.QueueFor(doctorID, date)
	if err != nil {
		queueError(c, err)
		return
	}
	utils.Success(c, "Queue retrieved successfully", dq)
}

// GetPatientStatus returns the caller's place in the queue, or a
// not-in-queue marker.
func (h *QueueHandler) GetPatientStatus(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	status, err := h.Engine.StatusFor(userID)
	if err != nil {
		queueError(c, err)
		return
	}
	utils.Success(c, "Queue status retrieved successfully", status)
}

// CallNextRequest represents the request body for calling the next patient.
type CallNextRequest struct {
	DoctorID string `json:"doctorId" binding:"required"`
}

// CallNext moves the head of the queue to in progress and notifies the
// patient it is their turn. The doctor id comes from the path or, on the
// legacy route, the request body.
func (h *QueueHandler) CallNext(c *gin.Context) {
	doctorID := c.Param("doctorId")
	if doctorID == "" {
		var req CallNextRequest
		if !utils.BindAndValidate(c, &req) {
			return
		}
		doctorID = req.DoctorID
	}

	entry, err := h.Engine.CallNext(doctorID)
	if err != nil {
		queueError(c, err)
		return
	}
	utils.Success(c, "Next patient called", entry)
}

// CompleteQueueEntry finishes a consultation and recomputes the line.
func (h *QueueHandler) CompleteQueueEntry(c *gin.Context) {
	entry, err := h.Engine.Complete(c.Param("id"))
	if err != nil {
		queueError(c, err)
		return
	}
	utils.Success(c, "Queue entry completed", entry)
}

// FastTrackQueueEntry escalates an entry to emergency priority, moving it to
// the front of the waiting line.
func (h *QueueHandler) FastTrackQueueEntry(c *gin.Context) {
	entry, err := h.Engine.FastTrack(c.Param("id"))
	if err != nil {
		queueError(c, err)
		return
	}
	utils.Success(c, "Queue entry fast-tracked", entry)
}

// CheckInQueueEntry records that the patient has physically arrived.
func (h *QueueHandler) CheckInQueueEntry(c *gin.Context) {
	entry, err := h.Engine.CheckIn(c.Param("id"))
	if err != nil {
		queueError(c, err)
		return
	}
	utils.Success(c, "Patient checked in", entry)
}

// RemoveQueueEntry cancels an entry and closes the gap in the line.
func (h *QueueHandler) RemoveQueueEntry(c *gin.Context) {
	entry, err := h.Engine.Remove(c.Param("id"))
	if err != nil {
		queueError(c, err)
		return
	}
	utils.Success(c, "Queue entry removed", entry)
}

// SyncAppointments admits every patient with a confirmed or scheduled
// appointment today into their doctor's queue. Safe to repeat.
func (h *QueueHandler) SyncAppointments(c *gin.Context) {
	created, err := h.Engine.SyncTodaysAppointments()
	if err != nil {
		utils.InternalServerError(c, "Failed to sync appointments: "+err.Error())
		return
	}
	utils.Success(c, "Appointments synced to queue", gin.H{"added": created})
}
