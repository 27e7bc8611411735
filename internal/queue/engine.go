// Package queue maintains the per-doctor, per-day waiting line. Ordering is
// never patched incrementally: every mutation triggers a full re-derivation
// of positions from the waiting set, under a per-(doctor, date) lock, so
// concurrent admissions and removals cannot drift from a globally consistent
// 1..N sequence.
package queue

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"clinic-server/internal/models"
)

// Publisher pushes a queue event to a user's realtime channel.
type Publisher interface {
	Publish(userID, eventType string, payload any)
}

// Notifier is the fire-and-forget notification sink.
type Notifier interface {
	Notify(recipientID, recipientType, title, message, priority string, metadata map[string]string)
}

// Status is a patient's view of their place in line.
type Status struct {
	Position          *int   `json:"position"`
	EstimatedWaitTime int    `json:"estimatedWaitTime"`
	Status            string `json:"status"`
	DoctorID          string `json:"doctorId,omitempty"`
	QueueID           string `json:"queueId,omitempty"`
}

// Stats summarizes a doctor's queue for the staff view.
type Stats struct {
	Total             int `json:"total"`
	Waiting           int `json:"waiting"`
	InProgress        int `json:"inProgress"`
	Completed         int `json:"completed"`
	EstimatedWaitTime int `json:"estimatedWaitTime"`
}

// DoctorQueue is the ordered line plus its summary.
type DoctorQueue struct {
	Entries []models.QueueEntry `json:"queue"`
	Stats   Stats               `json:"stats"`
}

// Engine is the queue ordering engine.
type Engine struct {
	store          Store
	appts          AppointmentSource
	events         Publisher
	notifier       Notifier
	log            *slog.Logger
	locks          *keyLocks
	consultMinutes int
	now            func() time.Time
}

// NewEngine wires the engine. events and notifier may be nil. consultMinutes
// is the per-patient service estimate used for wait times.
func NewEngine(store Store, appts AppointmentSource, events Publisher, notifier Notifier, log *slog.Logger, consultMinutes int) *Engine {
	return &Engine{
		store:          store,
		appts:          appts,
		events:         events,
		notifier:       notifier,
		log:            log,
		locks:          newKeyLocks(),
		consultMinutes: consultMinutes,
		now:            time.Now,
	}
}

// Admit puts a patient into a doctor's line for today. Admission is
// idempotent: if the patient already has a waiting or in-progress entry with
// this doctor today, that entry is returned unchanged.
func (e *Engine) Admit(patientID, doctorID string, priority models.QueuePriority, appointmentID string) (*models.QueueEntry, error) {
	entry, _, err := e.admit(patientID, doctorID, priority, appointmentID)
	return entry, err
}

// AdmitFromAppointment admits with the appointment priority tier. It
// implements the admitter interface the appointment lifecycle consumes.
func (e *Engine) AdmitFromAppointment(patientID, doctorID, appointmentID string) error {
	_, _, err := e.admit(patientID, doctorID, models.QueueAppointment, appointmentID)
	return err
}

func (e *Engine) admit(patientID, doctorID string, priority models.QueuePriority, appointmentID string) (*models.QueueEntry, bool, error) {
	today := e.today()
	lock := e.locks.get(lockKey(doctorID, today))
	lock.Lock()
	defer lock.Unlock()

	existing, err := e.store.FindActive(patientID, doctorID, today)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	if priority == "" {
		priority = models.QueueWalkIn
	}
	entry := &models.QueueEntry{
		PatientID:     patientID,
		DoctorID:      doctorID,
		AppointmentID: appointmentID,
		QueueDate:     today,
		Priority:      priority,
		Status:        models.QueueWaiting,
		ArrivalTime:   e.now(),
	}
	if err := e.store.Create(entry); err != nil {
		return nil, false, err
	}
	if err := e.recomputeLocked(doctorID, today); err != nil {
		return nil, false, err
	}

	// Reload to pick up the recomputed position.
	entry, err = e.store.FindByID(entry.ID)
	if err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

// CallNext transitions the lowest-position waiting patient to in_progress,
// stamps the call time, tells the patient they are being called, and
// recomputes the remaining line. Returns ErrQueueEmpty when nobody waits.
func (e *Engine) CallNext(doctorID string) (*models.QueueEntry, error) {
	today := e.today()
	lock := e.locks.get(lockKey(doctorID, today))
	lock.Lock()
	defer lock.Unlock()

	waiting, err := e.store.ListWaiting(doctorID, today)
	if err != nil {
		return nil, err
	}
	if len(waiting) == 0 {
		return nil, ErrQueueEmpty
	}
	sortWaiting(waiting)

	next := waiting[0]
	next.Status = models.QueueInProgress
	ts := e.now()
	next.CalledAt = &ts
	next.EstimatedWaitMinutes = 0
	if err := e.store.Save(&next); err != nil {
		return nil, err
	}

	if e.events != nil {
		e.events.Publish(next.PatientID, "queueUpdated", map[string]any{
			"queueId": next.ID,
			"status":  next.Status,
			"message": "You are being called for your consultation",
		})
	}
	if e.notifier != nil {
		e.notifier.Notify(next.PatientID, "patient", "It's Your Turn",
			"The doctor is ready to see you now.", "high",
			map[string]string{"queueId": next.ID})
	}

	if err := e.recomputeLocked(doctorID, today); err != nil {
		return nil, err
	}
	return &next, nil
}

// Complete finishes a consultation and recomputes the remaining line.
func (e *Engine) Complete(queueID string) (*models.QueueEntry, error) {
	return e.finish(queueID, models.QueueCompleted)
}

// Remove withdraws an entry from the line (patient cancelled or left).
func (e *Engine) Remove(queueID string) (*models.QueueEntry, error) {
	return e.finish(queueID, models.QueueCancelled)
}

func (e *Engine) finish(queueID string, status models.QueueStatus) (*models.QueueEntry, error) {
	entry, err := e.store.FindByID(queueID)
	if err != nil {
		return nil, err
	}
	lock := e.locks.get(lockKey(entry.DoctorID, entry.QueueDate))
	lock.Lock()
	defer lock.Unlock()

	// Re-fetch under the lock: a racing transition may have finished the
	// entry between the lookup and lock acquisition.
	entry, err = e.store.FindByID(queueID)
	if err != nil {
		return nil, err
	}
	if !entry.Status.Active() {
		return nil, ErrNotActive
	}
	entry.Status = status
	if status == models.QueueCompleted {
		ts := e.now()
		entry.CompletedAt = &ts
	}
	entry.Position = 0
	entry.EstimatedWaitMinutes = 0
	if err := e.store.Save(entry); err != nil {
		return nil, err
	}

	if e.events != nil {
		e.events.Publish(entry.PatientID, "queueUpdated", map[string]any{
			"queueId": entry.ID,
			"status":  entry.Status,
		})
	}

	if err := e.recomputeLocked(entry.DoctorID, entry.QueueDate); err != nil {
		return nil, err
	}
	return entry, nil
}

// FastTrack escalates an entry to the emergency tier and recomputes.
func (e *Engine) FastTrack(queueID string) (*models.QueueEntry, error) {
	entry, err := e.store.FindByID(queueID)
	if err != nil {
		return nil, err
	}
	lock := e.locks.get(lockKey(entry.DoctorID, entry.QueueDate))
	lock.Lock()
	defer lock.Unlock()

	entry, err = e.store.FindByID(queueID)
	if err != nil {
		return nil, err
	}
	entry.Priority = models.QueueEmergency
	if err := e.store.Save(entry); err != nil {
		return nil, err
	}
	if err := e.recomputeLocked(entry.DoctorID, entry.QueueDate); err != nil {
		return nil, err
	}
	return e.store.FindByID(queueID)
}

// CheckIn stamps the patient's arrival at the clinic.
func (e *Engine) CheckIn(queueID string) (*models.QueueEntry, error) {
	entry, err := e.store.FindByID(queueID)
	if err != nil {
		return nil, err
	}
	ts := e.now()
	entry.CheckedInAt = &ts
	if err := e.store.Save(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// StatusFor returns a patient's current place in line, or a not_in_queue
// status when they hold no active entry today.
func (e *Engine) StatusFor(patientID string) (*Status, error) {
	entry, err := e.store.FindActiveByPatient(patientID, e.today())
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return &Status{Status: "not_in_queue"}, nil
	}
	st := &Status{
		EstimatedWaitTime: entry.EstimatedWaitMinutes,
		Status:            string(entry.Status),
		DoctorID:          entry.DoctorID,
		QueueID:           entry.ID,
	}
	if entry.Status == models.QueueWaiting {
		pos := entry.Position
		st.Position = &pos
	}
	return st, nil
}

// QueueFor returns a doctor's line for a date (today when empty) with
// summary stats.
func (e *Engine) QueueFor(doctorID, date string) (*DoctorQueue, error) {
	if date == "" {
		date = e.today()
	}
	entries, err := e.store.ListForDoctor(doctorID, date)
	if err != nil {
		return nil, err
	}

	stats := Stats{Total: len(entries)}
	for _, entry := range entries {
		switch entry.Status {
		case models.QueueWaiting:
			stats.Waiting++
		case models.QueueInProgress:
			stats.InProgress++
		case models.QueueCompleted:
			stats.Completed++
		}
	}
	stats.EstimatedWaitTime = stats.Waiting * e.consultMinutes
	return &DoctorQueue{Entries: entries, Stats: stats}, nil
}

// SyncTodaysAppointments is the reconciliation sweep: every CONFIRMED or
// SCHEDULED appointment for today gets its patient admitted with the
// appointment tier. Safe to re-run; admission dedup makes it idempotent.
// Failures are isolated per appointment. Returns the number newly admitted.
func (e *Engine) SyncTodaysAppointments() (int, error) {
	today := e.today()
	appts, err := e.appts.ListForDate(today, models.StatusConfirmed, models.StatusScheduled)
	if err != nil {
		return 0, err
	}

	admitted := 0
	for _, appt := range appts {
		_, created, err := e.admit(appt.PatientID, appt.DoctorID, models.QueueAppointment, appt.ID)
		if err != nil {
			e.log.Warn("sync: failed to admit appointment patient",
				"appointmentId", appt.ID, "patientId", appt.PatientID, "error", err)
			continue
		}
		if created {
			admitted++
		}
	}
	return admitted, nil
}

// recomputeLocked re-derives the full ordering for a doctor-day. Callers must
// hold the doctor-day lock. Positions are assigned 1..N by (priority rank,
// arrival time); the wait estimate is position times the per-patient service
// estimate. The batch is persisted in one write, then per-patient position
// events fan out.
func (e *Engine) recomputeLocked(doctorID, date string) error {
	waiting, err := e.store.ListWaiting(doctorID, date)
	if err != nil {
		return err
	}
	sortWaiting(waiting)

	for i := range waiting {
		waiting[i].Position = i + 1
		waiting[i].EstimatedWaitMinutes = (i + 1) * e.consultMinutes
	}
	if err := e.store.SavePositions(waiting); err != nil {
		return err
	}

	if e.events != nil {
		for _, entry := range waiting {
			e.events.Publish(entry.PatientID, "queueUpdated", map[string]any{
				"queueId":           entry.ID,
				"position":          entry.Position,
				"estimatedWaitTime": entry.EstimatedWaitMinutes,
				"status":            entry.Status,
			})
		}
	}
	return nil
}

// sortWaiting orders entries by priority tier then arrival time, with the id
// as a final deterministic tiebreak.
func sortWaiting(entries []models.QueueEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Priority.Rank() != entries[j].Priority.Rank() {
			return entries[i].Priority.Rank() < entries[j].Priority.Rank()
		}
		if !entries[i].ArrivalTime.Equal(entries[j].ArrivalTime) {
			return entries[i].ArrivalTime.Before(entries[j].ArrivalTime)
		}
		return entries[i].ID < entries[j].ID
	})
}

func (e *Engine) today() string {
	return e.now().Format("2006-01-02")
}

func lockKey(doctorID, date string) string {
	return fmt.Sprintf("%s|%s", doctorID, date)
}
