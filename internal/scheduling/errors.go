package scheduling

import "errors"

var (
	// ErrSlotConflict is returned when a non-cancelled appointment already
	// holds the requested (doctor, date, time) slot.
	ErrSlotConflict = errors.New("time slot already booked")

	// ErrNotFound is returned when no appointment exists for the given id.
	ErrNotFound = errors.New("appointment not found")

	// ErrNotCancelled is returned when permanent deletion is attempted on an
	// appointment that has not been cancelled first.
	ErrNotCancelled = errors.New("only cancelled appointments can be permanently deleted")

	// ErrCancelled is returned when an operation is attempted on a cancelled
	// appointment that cannot leave that state.
	ErrCancelled = errors.New("appointment is cancelled")
)
