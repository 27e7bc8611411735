package queue

import (
	"errors"

	"clinic-server/internal/models"
)

var (
	// ErrNotFound is returned when no queue entry exists for the given id.
	ErrNotFound = errors.New("queue entry not found")

	// ErrQueueEmpty is returned by CallNext when nobody is waiting.
	ErrQueueEmpty = errors.New("no patients waiting")

	// ErrNotActive is returned when a transition is attempted on an entry
	// that already reached a terminal state.
	ErrNotActive = errors.New("queue entry is not active")
)

// Store is the persistence boundary for queue entries.
type Store interface {
	Create(e *models.QueueEntry) error
	Save(e *models.QueueEntry) error

	// SavePositions persists the recomputed position and wait estimate of
	// every given entry in one batched write.
	SavePositions(entries []models.QueueEntry) error

	FindByID(id string) (*models.QueueEntry, error)

	// FindActive returns the waiting or in-progress entry for a patient with
	// a doctor on a date, or nil when none exists.
	FindActive(patientID, doctorID, date string) (*models.QueueEntry, error)

	// FindActiveByPatient returns the patient's waiting or in-progress entry
	// on a date regardless of doctor, or nil.
	FindActiveByPatient(patientID, date string) (*models.QueueEntry, error)

	// ListWaiting returns the entries with status waiting for a doctor-day.
	ListWaiting(doctorID, date string) ([]models.QueueEntry, error)

	// ListForDoctor returns all non-cancelled entries for a doctor-day
	// ordered by position.
	ListForDoctor(doctorID, date string) ([]models.QueueEntry, error)
}

// AppointmentSource lists appointments for the reconciliation sweep.
type AppointmentSource interface {
	ListForDate(date string, statuses ...models.AppointmentStatus) ([]models.Appointment, error)
}
