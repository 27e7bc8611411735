package scheduling

import "clinic-server/internal/models"

// UpdateCommand is one legal mutation of an appointment. The closed set
// replaces ad-hoc partial patches so every mutation is enumerable and
// testable.
type UpdateCommand interface {
	isUpdateCommand()
}

// Reschedule moves an appointment to a new slot. Priority defaults to high
// when empty.
type Reschedule struct {
	Date     string
	Time     string
	Reason   string
	Priority models.AppointmentPriority
}

// ChangeStatus transitions the appointment's status, stamping the matching
// timestamp and releasing the slot on cancellation.
type ChangeStatus struct {
	Status       models.AppointmentStatus
	MissedReason models.MissedReason
}

// ChangePriority sets the handling priority.
type ChangePriority struct {
	Priority models.AppointmentPriority
}

// ChangeNotes replaces the free-text notes.
type ChangeNotes struct {
	Notes string
}

func (Reschedule) isUpdateCommand()     {}
func (ChangeStatus) isUpdateCommand()   {}
func (ChangePriority) isUpdateCommand() {}
func (ChangeNotes) isUpdateCommand()    {}
