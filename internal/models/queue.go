package models

import "time"

// QueuePriority is the tier that drives queue ordering.
type QueuePriority string

const (
	QueueEmergency   QueuePriority = "emergency"
	QueueAppointment QueuePriority = "appointment"
	QueueWalkIn      QueuePriority = "walk_in"
)

// Rank returns the sort rank of a priority tier; lower is served first.
// Unknown tiers rank as walk-in.
func (p QueuePriority) Rank() int {
	switch p {
	case QueueEmergency:
		return 1
	case QueueAppointment:
		return 2
	default:
		return 3
	}
}

// QueueStatus is the state of a queue entry.
type QueueStatus string

const (
	QueueWaiting    QueueStatus = "waiting"
	QueueInProgress QueueStatus = "in_progress"
	QueueCompleted  QueueStatus = "completed"
	QueueCancelled  QueueStatus = "cancelled"
	QueueNoShow     QueueStatus = "no_show"
)

// Active reports whether the entry still occupies a place in the line.
func (s QueueStatus) Active() bool {
	return s == QueueWaiting || s == QueueInProgress
}

// QueueEntry is a patient's place in a doctor's same-day waiting line.
// Position is derived state: it is recomputed from scratch after every
// mutation and is only meaningful while the entry is waiting.
type QueueEntry struct {
	BaseModel
	PatientID            string        `gorm:"size:36;index" json:"patientId"`
	DoctorID             string        `gorm:"size:36;index" json:"doctorId"`
	AppointmentID        string        `gorm:"size:36" json:"appointmentId,omitempty"`
	QueueDate            string        `gorm:"size:10;index" json:"queueDate"`
	Priority             QueuePriority `gorm:"size:15;default:'walk_in'" json:"priority"`
	Status               QueueStatus   `gorm:"size:15;default:'waiting'" json:"status"`
	Position             int           `json:"position"`
	EstimatedWaitMinutes int           `json:"estimatedWaitTime"`
	ArrivalTime          time.Time     `json:"arrivalTime"`
	CheckedInAt          *time.Time    `json:"checkedInAt,omitempty"`
	CalledAt             *time.Time    `json:"calledAt,omitempty"`
	CompletedAt          *time.Time    `json:"completedAt,omitempty"`
	Notes                string        `gorm:"size:255" json:"notes,omitempty"`

	Patient User `gorm:"foreignKey:PatientID" json:"-"`
	Doctor  User `gorm:"foreignKey:DoctorID" json:"-"`
}
