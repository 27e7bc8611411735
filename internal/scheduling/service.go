package scheduling

import (
	"fmt"
	"log/slog"
	"time"

	"clinic-server/internal/models"
)

// QueueAdmitter admits a confirmed same-day appointment's patient into the
// waiting line. Implemented by the queue engine; admission is idempotent, so
// redundant calls succeed.
type QueueAdmitter interface {
	AdmitFromAppointment(patientID, doctorID, appointmentID string) error
}

// Publisher pushes a state-change event to a user's realtime channel.
type Publisher interface {
	Publish(userID, eventType string, payload any)
}

// Notifier is the fire-and-forget notification sink.
type Notifier interface {
	Notify(recipientID, recipientType, title, message, priority string, metadata map[string]string)
}

// Service is the appointment lifecycle: the status state machine plus the
// side effects (queue admission, notification events) each transition
// produces. All appointment mutation goes through it.
type Service struct {
	appts        AppointmentStore
	queue        QueueAdmitter
	events       Publisher
	notifier     Notifier
	log          *slog.Logger
	graceMinutes int
	now          func() time.Time
}

// NewService wires the lifecycle. queue, events, and notifier may be nil;
// the corresponding side effects are then skipped.
func NewService(appts AppointmentStore, queue QueueAdmitter, events Publisher, notifier Notifier, log *slog.Logger, missedGraceMinutes int) *Service {
	return &Service{
		appts:        appts,
		queue:        queue,
		events:       events,
		notifier:     notifier,
		log:          log,
		graceMinutes: missedGraceMinutes,
		now:          time.Now,
	}
}

// BookRequest carries a booking for Book.
type BookRequest struct {
	PatientID    string
	DoctorID     string
	Date         string
	Time         string
	Type         string
	Reason       string
	Notes        string
	StaffBooking bool
}

// Book creates an appointment in the requested slot. Staff bookings start
// CONFIRMED, patient self-bookings start PENDING. The slot check is a
// read-then-decide guard; the storage-level unique slot key is what makes a
// losing concurrent writer fail with ErrSlotConflict instead of silently
// double booking. No queue admission happens at booking time.
func (s *Service) Book(req BookRequest) (*models.Appointment, error) {
	if _, err := ParseDate(req.Date); err != nil {
		return nil, err
	}
	if _, err := parseClock(req.Time); err != nil {
		return nil, err
	}

	taken, err := s.appts.SlotTaken(req.DoctorID, req.Date, req.Time, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlotConflict
	}

	status := models.StatusPending
	if req.StaffBooking {
		status = models.StatusConfirmed
	}
	key := models.SlotKeyFor(req.DoctorID, req.Date, req.Time)
	appt := &models.Appointment{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Date:      req.Date,
		Time:      req.Time,
		Type:      req.Type,
		Status:    status,
		Reason:    req.Reason,
		Notes:     req.Notes,
		Priority:  models.PriorityNormal,
		SlotKey:   &key,
	}
	if err := s.appts.Create(appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// Confirm sets an appointment to CONFIRMED. Cancelled appointments cannot be
// confirmed; their slot key is gone and the slot may already be rebooked.
// When the appointment is for the current calendar day its patient is
// admitted into the doctor's queue; admission failures (typically: already
// queued) are logged and swallowed so confirmation never fails on a
// redundant side effect.
func (s *Service) Confirm(id string) (*models.Appointment, error) {
	appt, err := s.appts.FindByID(id)
	if err != nil {
		return nil, err
	}
	if appt.Status == models.StatusCancelled {
		return nil, ErrCancelled
	}
	s.applyStatus(appt, ChangeStatus{Status: models.StatusConfirmed})
	if err := s.appts.Save(appt); err != nil {
		return nil, err
	}

	if s.queue != nil && appt.Date == s.today() {
		if err := s.queue.AdmitFromAppointment(appt.PatientID, appt.DoctorID, appt.ID); err != nil {
			s.log.Warn("queue admission on confirm failed",
				"appointmentId", appt.ID, "patientId", appt.PatientID, "error", err)
		}
	}

	s.announce(appt, "Appointment Confirmed",
		fmt.Sprintf("Your appointment on %s at %s has been confirmed.", appt.Date, appt.Time), "medium")
	return appt, nil
}

// Reschedule moves an appointment to a new slot. The destination slot is
// conflict-checked before committing; rescheduling into an occupied slot
// fails with ErrSlotConflict. The appointment returns to SCHEDULED, its
// reschedule count increments, and priority becomes high unless the caller
// overrides it. Cancelled appointments cannot be rescheduled.
func (s *Service) Reschedule(id, newDate, newTime, reason string, priority models.AppointmentPriority) (*models.Appointment, error) {
	if _, err := ParseDate(newDate); err != nil {
		return nil, err
	}
	if _, err := parseClock(newTime); err != nil {
		return nil, err
	}

	appt, err := s.appts.FindByID(id)
	if err != nil {
		return nil, err
	}
	if appt.Status == models.StatusCancelled {
		return nil, ErrCancelled
	}

	taken, err := s.appts.SlotTaken(appt.DoctorID, newDate, newTime, appt.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlotConflict
	}

	appt.Date = newDate
	appt.Time = newTime
	appt.Status = models.StatusScheduled
	appt.RescheduleCount++
	if priority == "" {
		priority = models.PriorityHigh
	}
	appt.Priority = priority
	if reason != "" {
		appt.Reason = reason
	}
	key := models.SlotKeyFor(appt.DoctorID, newDate, newTime)
	appt.SlotKey = &key

	if err := s.appts.Save(appt); err != nil {
		return nil, err
	}

	s.announce(appt, "Appointment Rescheduled",
		fmt.Sprintf("Your appointment has been moved to %s at %s.", appt.Date, appt.Time), "high")
	return appt, nil
}

// Complete marks an appointment COMPLETED and stamps the completion time.
func (s *Service) Complete(id string) (*models.Appointment, error) {
	return s.transition(id, ChangeStatus{Status: models.StatusCompleted},
		"Appointment Completed", "Your appointment has been completed.", "low")
}

// Cancel soft-cancels an appointment and releases its slot.
func (s *Service) Cancel(id string) (*models.Appointment, error) {
	return s.transition(id, ChangeStatus{Status: models.StatusCancelled},
		"Appointment Cancelled", "Your appointment has been cancelled.", "medium")
}

// MarkMissed marks a no-show: status MISSED, high priority so staff follow up
// on rescheduling.
func (s *Service) MarkMissed(id string) (*models.Appointment, error) {
	return s.transition(id, ChangeStatus{Status: models.StatusMissed, MissedReason: models.MissedNoShow},
		"Missed Appointment",
		"You missed your scheduled appointment. Please contact staff to reschedule.", "high")
}

// PermanentDelete hard-removes an appointment record. Only cancelled records
// may be deleted.
func (s *Service) PermanentDelete(id string) error {
	appt, err := s.appts.FindByID(id)
	if err != nil {
		return err
	}
	if appt.Status != models.StatusCancelled {
		return ErrNotCancelled
	}
	return s.appts.Delete(id)
}

// UpdateMissedReason records why a visit was missed and adjusts the
// reschedule priority: emergencies and illness become urgent, plain no-shows
// high, anything else keeps its priority.
func (s *Service) UpdateMissedReason(id string, reason models.MissedReason) (*models.Appointment, error) {
	appt, err := s.appts.FindByID(id)
	if err != nil {
		return nil, err
	}
	appt.MissedReason = reason
	switch reason {
	case models.MissedEmergency, models.MissedIllness:
		appt.Priority = models.PriorityUrgent
	case models.MissedNoShow:
		appt.Priority = models.PriorityHigh
	}
	if err := s.appts.Save(appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// BatchUpdateStatus applies one status change to many appointments. Failures
// are isolated per item: one bad id does not abort the rest. It returns the
// number updated and the per-item errors.
func (s *Service) BatchUpdateStatus(ids []string, status models.AppointmentStatus, missedReason models.MissedReason, priority models.AppointmentPriority) (int, []error) {
	var errs []error
	updated := 0
	for _, id := range ids {
		cmds := []UpdateCommand{ChangeStatus{Status: status, MissedReason: missedReason}}
		if priority != "" {
			cmds = append(cmds, ChangePriority{Priority: priority})
		}
		if _, err := s.Apply(id, cmds...); err != nil {
			errs = append(errs, fmt.Errorf("appointment %s: %w", id, err))
			continue
		}
		updated++
	}
	return updated, errs
}

// Apply runs a sequence of update commands against one appointment and saves
// the result. Status changes emit a patient-keyed event.
func (s *Service) Apply(id string, cmds ...UpdateCommand) (*models.Appointment, error) {
	appt, err := s.appts.FindByID(id)
	if err != nil {
		return nil, err
	}

	statusChanged := false
	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case Reschedule:
			// Reschedule needs the conflict guard; route through the
			// dedicated operation rather than patching in place.
			return s.Reschedule(id, c.Date, c.Time, c.Reason, c.Priority)
		case ChangeStatus:
			s.applyStatus(appt, c)
			statusChanged = true
		case ChangePriority:
			appt.Priority = c.Priority
		case ChangeNotes:
			appt.Notes = c.Notes
		}
	}

	if err := s.appts.Save(appt); err != nil {
		return nil, err
	}
	if statusChanged {
		s.publishUpdate(appt)
	}
	return appt, nil
}

func (s *Service) applyStatus(appt *models.Appointment, c ChangeStatus) {
	appt.Status = c.Status
	switch c.Status {
	case models.StatusCompleted:
		ts := s.now()
		appt.CompletedAt = &ts
	case models.StatusMissed, models.StatusNoShow:
		ts := s.now()
		appt.MissedAt = &ts
		if c.MissedReason != "" {
			appt.MissedReason = c.MissedReason
		}
	case models.StatusCancelled:
		appt.SlotKey = nil
	}
	if c.Status.HoldsSlot() && appt.SlotKey == nil {
		key := models.SlotKeyFor(appt.DoctorID, appt.Date, appt.Time)
		appt.SlotKey = &key
	}
}

// MarkOverdueMissed sweeps SCHEDULED appointments whose start time is past
// the grace period and marks them missed (no-show, high priority), notifying
// patient and staff. Failures are isolated per appointment. Returns the
// number marked.
func (s *Service) MarkOverdueMissed() (int, error) {
	scheduled, err := s.appts.ListWithStatuses(models.StatusScheduled)
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-time.Duration(s.graceMinutes) * time.Minute)
	marked := 0
	for _, appt := range scheduled {
		start, err := apptStart(appt)
		if err != nil {
			s.log.Warn("skipping appointment with bad date/time", "appointmentId", appt.ID, "error", err)
			continue
		}
		if !start.Before(cutoff) {
			continue
		}
		if _, err := s.MarkMissed(appt.ID); err != nil {
			s.log.Warn("failed to mark appointment missed", "appointmentId", appt.ID, "error", err)
			continue
		}
		if s.notifier != nil {
			s.notifier.Notify("staff", "staff", "Patient Missed Appointment",
				fmt.Sprintf("Patient missed appointment scheduled for %s %s. Follow up required.", appt.Date, appt.Time),
				"medium", map[string]string{"appointmentId": appt.ID})
		}
		marked++
	}
	return marked, nil
}

// FindByID returns one appointment.
func (s *Service) FindByID(id string) (*models.Appointment, error) {
	return s.appts.FindByID(id)
}

// ListForUser returns a user's appointments filtered by role: patients see
// their own, doctors their consultations, staff and admins everything.
func (s *Service) ListForUser(userID string, role models.Role) ([]models.Appointment, error) {
	return s.appts.ListForUser(userID, role)
}

// ListScheduled returns upcoming (pending, confirmed, scheduled) appointments
// for a user.
func (s *Service) ListScheduled(userID string, role models.Role) ([]models.Appointment, error) {
	return s.appts.ListByStatus(userID, role,
		models.StatusPending, models.StatusConfirmed, models.StatusScheduled)
}

// ListMissed returns missed and no-show appointments for a user.
func (s *Service) ListMissed(userID string, role models.Role) ([]models.Appointment, error) {
	return s.appts.ListByStatus(userID, role, models.StatusMissed, models.StatusNoShow)
}

// ListPriority returns non-terminal high and urgent priority appointments.
func (s *Service) ListPriority(userID string, role models.Role) ([]models.Appointment, error) {
	return s.appts.ListPriority(userID, role)
}

func (s *Service) transition(id string, change ChangeStatus, title, message, priority string) (*models.Appointment, error) {
	appt, err := s.appts.FindByID(id)
	if err != nil {
		return nil, err
	}
	s.applyStatus(appt, change)
	if err := s.appts.Save(appt); err != nil {
		return nil, err
	}
	s.announce(appt, title, message, priority)
	return appt, nil
}

// announce emits the realtime event and the stored notification for a status
// change. Both are best-effort and never fail the operation.
func (s *Service) announce(appt *models.Appointment, title, message, priority string) {
	s.publishUpdate(appt)
	if s.notifier != nil {
		s.notifier.Notify(appt.PatientID, "patient", title, message, priority,
			map[string]string{"appointmentId": appt.ID, "status": string(appt.Status)})
	}
}

func (s *Service) publishUpdate(appt *models.Appointment) {
	if s.events == nil {
		return
	}
	payload := map[string]any{
		"appointmentId": appt.ID,
		"status":        appt.Status,
		"date":          appt.Date,
		"time":          appt.Time,
	}
	s.events.Publish(appt.PatientID, "appointmentUpdated", payload)
	s.events.Publish(appt.DoctorID, "appointmentUpdated", payload)
}

func (s *Service) today() string {
	return s.now().Format("2006-01-02")
}

func apptStart(a models.Appointment) (time.Time, error) {
	day, err := ParseDate(a.Date)
	if err != nil {
		return time.Time{}, err
	}
	mins, err := parseClock(a.Time)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(time.Duration(mins) * time.Minute), nil
}
