package handlers

import (
	"clinic-server/internal/models"
	"clinic-server/internal/scheduling"
	"clinic-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// ScheduleHandler manages doctors' weekly recurring availability windows.
type ScheduleHandler struct {
	Calendar *scheduling.Calendar
}

// NewScheduleHandler creates a new ScheduleHandler.
func NewScheduleHandler(calendar *scheduling.Calendar) *ScheduleHandler {
	return &ScheduleHandler{Calendar: calendar}
}

// GetDoctorSchedule returns a doctor's full weekly schedule.
func (h *ScheduleHandler) GetDoctorSchedule(c *gin.Context) {
	windows, err := h.Calendar.Week(c.Param("doctorId"))
	if err != nil {
		utils.InternalServerError(c, "Failed to retrieve schedule: "+err.Error())
		return
	}
	utils.Success(c, "Schedule retrieved successfully", windows)
}

// ScheduleWindowRequest is one availability window in a schedule update.
type ScheduleWindowRequest struct {
	DayOfWeek int    `json:"dayOfWeek" binding:"min=0,max=6"`
	StartTime string `json:"startTime" binding:"required"`
	EndTime   string `json:"endTime" binding:"required"`
	IsActive  *bool  `json:"isActive"`
}

// SetScheduleRequest represents the request body for replacing a schedule.
type SetScheduleRequest struct {
	Windows []ScheduleWindowRequest `json:"windows" binding:"required,dive"`
}

// SetDoctorSchedule replaces a doctor's weekly schedule wholesale. The prior
// windows are dropped and the new set installed atomically.
func (h *ScheduleHandler) SetDoctorSchedule(c *gin.Context) {
	var req SetScheduleRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	doctorID := c.Param("doctorId")
	windows := make([]models.ScheduleWindow, 0, len(req.Windows))
	for _, w := range req.Windows {
		active := true
		if w.IsActive != nil {
			active = *w.IsActive
		}
		windows = append(windows, models.ScheduleWindow{
			DoctorID:  doctorID,
			DayOfWeek: w.DayOfWeek,
			StartTime: w.StartTime,
			EndTime:   w.EndTime,
			IsActive:  active,
		})
	}

	if err := h.Calendar.ReplaceWeek(doctorID, windows); err != nil {
		utils.BadRequest(c, "Invalid schedule: "+err.Error())
		return
	}

	updated, err := h.Calendar.Week(doctorID)
	if err != nil {
		utils.InternalServerError(c, "Failed to retrieve schedule: "+err.Error())
		return
	}
	utils.Success(c, "Schedule updated successfully", updated)
}
