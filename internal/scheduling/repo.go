package scheduling

import "clinic-server/internal/models"

// AppointmentStore is the persistence boundary for appointments. Create and
// Save must return ErrSlotConflict when the storage-level uniqueness
// constraint on the slot key rejects the write, so a losing concurrent
// booking fails deterministically.
type AppointmentStore interface {
	Create(a *models.Appointment) error
	Save(a *models.Appointment) error
	Delete(id string) error
	FindByID(id string) (*models.Appointment, error)

	// SlotTaken reports whether a non-cancelled appointment other than
	// excludeID occupies the exact (doctor, date, time) slot.
	SlotTaken(doctorID, date, tm, excludeID string) (bool, error)

	ListForUser(userID string, role models.Role) ([]models.Appointment, error)
	ListByStatus(userID string, role models.Role, statuses ...models.AppointmentStatus) ([]models.Appointment, error)
	ListPriority(userID string, role models.Role) ([]models.Appointment, error)

	// ListForDoctorDay returns the non-cancelled appointments for a doctor on
	// one calendar day (slot availability input).
	ListForDoctorDay(doctorID, date string) ([]models.Appointment, error)

	// ListWithStatuses returns all appointments in any of the given statuses,
	// regardless of user (reconciliation and missed-visit sweep input).
	ListWithStatuses(statuses ...models.AppointmentStatus) ([]models.Appointment, error)
}

// ScheduleStore is the persistence boundary for weekly schedule windows.
type ScheduleStore interface {
	// ActiveWindows returns the active windows for a doctor on one weekday.
	ActiveWindows(doctorID string, dayOfWeek int) ([]models.ScheduleWindow, error)

	// Week returns all of a doctor's windows ordered by day of week.
	Week(doctorID string) ([]models.ScheduleWindow, error)

	// ReplaceWeek atomically swaps a doctor's schedule: every prior window is
	// deleted and the new set inserted in a single transaction.
	ReplaceWeek(doctorID string, windows []models.ScheduleWindow) error
}
