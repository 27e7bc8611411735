package models

import (
	"fmt"
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
	StatusMissed    AppointmentStatus = "missed"
)

// AppointmentPriority represents how urgently an appointment should be handled.
type AppointmentPriority string

const (
	PriorityNormal AppointmentPriority = "normal"
	PriorityHigh   AppointmentPriority = "high"
	PriorityUrgent AppointmentPriority = "urgent"
)

// MissedReason classifies why a patient missed an appointment.
type MissedReason string

const (
	MissedNoShow    MissedReason = "no_show"
	MissedEmergency MissedReason = "emergency"
	MissedIllness   MissedReason = "illness"
	MissedOther     MissedReason = "other"
)

// Appointment represents a scheduled clinical visit. Date is a timezone-naive
// calendar day ("2006-01-02") and Time the slot start ("15:04").
type Appointment struct {
	BaseModel
	PatientID       string              `gorm:"size:36;index" json:"patientId"`
	DoctorID        string              `gorm:"size:36;index" json:"doctorId"`
	Date            string              `gorm:"size:10;index" json:"appointmentDate"`
	Time            string              `gorm:"size:5" json:"appointmentTime"`
	Type            string              `gorm:"size:50" json:"appointmentType"`
	Status          AppointmentStatus   `gorm:"size:20;default:'pending'" json:"status"`
	Reason          string              `gorm:"size:255" json:"reason,omitempty"`
	Notes           string              `gorm:"type:text" json:"notes,omitempty"`
	Priority        AppointmentPriority `gorm:"size:10;default:'normal'" json:"priority"`
	RescheduleCount int                 `gorm:"default:0" json:"rescheduleCount"`
	MissedReason    MissedReason        `gorm:"size:20" json:"missedReason,omitempty"`
	CompletedAt     *time.Time          `json:"completedAt,omitempty"`
	MissedAt        *time.Time          `json:"missedAt,omitempty"`

	// SlotKey is set while the appointment holds its slot and cleared on
	// cancellation. The unique index makes concurrent double booking fail at
	// the storage layer; MySQL permits any number of NULLs, so cancelled
	// appointments never collide.
	SlotKey *string `gorm:"size:64;uniqueIndex" json:"-"`

	// Relations
	Patient User `gorm:"foreignKey:PatientID" json:"-"`
	Doctor  User `gorm:"foreignKey:DoctorID" json:"-"`
}

// SlotKeyFor builds the uniqueness key for a doctor/date/time slot.
func SlotKeyFor(doctorID, date, tm string) string {
	return fmt.Sprintf("%s|%s|%s", doctorID, date, tm)
}

// HoldsSlot reports whether an appointment in this status occupies its slot.
func (s AppointmentStatus) HoldsSlot() bool {
	return s != StatusCancelled
}

// Terminal reports whether the status is an end state of the lifecycle.
func (s AppointmentStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow, StatusMissed:
		return true
	}
	return false
}
