package scheduling

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"clinic-server/internal/models"
)

// fakeAppointments is an in-memory AppointmentStore that enforces the slot
// key uniqueness the real storage layer gets from its unique index. The
// check-and-insert in Create runs under one lock, mirroring the atomicity
// the unique index gives the real store.
type fakeAppointments struct {
	mu    sync.Mutex
	appts map[string]*models.Appointment
	seq   int
}

func newFakeAppointments() *fakeAppointments {
	return &fakeAppointments{appts: make(map[string]*models.Appointment)}
}

func cloneAppt(a *models.Appointment) *models.Appointment {
	c := *a
	if a.SlotKey != nil {
		key := *a.SlotKey
		c.SlotKey = &key
	}
	return &c
}

func (f *fakeAppointments) slotKeyHeld(key string, excludeID string) bool {
	for _, a := range f.appts {
		if a.ID != excludeID && a.SlotKey != nil && *a.SlotKey == key {
			return true
		}
	}
	return false
}

func (f *fakeAppointments) Create(a *models.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.SlotKey != nil && f.slotKeyHeld(*a.SlotKey, "") {
		return ErrSlotConflict
	}
	f.seq++
	a.ID = fmt.Sprintf("a%d", f.seq)
	f.appts[a.ID] = cloneAppt(a)
	return nil
}

func (f *fakeAppointments) Save(a *models.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.appts[a.ID]; !ok {
		return ErrNotFound
	}
	if a.SlotKey != nil && f.slotKeyHeld(*a.SlotKey, a.ID) {
		return ErrSlotConflict
	}
	f.appts[a.ID] = cloneAppt(a)
	return nil
}

func (f *fakeAppointments) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.appts[id]; !ok {
		return ErrNotFound
	}
	delete(f.appts, id)
	return nil
}

func (f *fakeAppointments) FindByID(id string) (*models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAppt(a), nil
}

func (f *fakeAppointments) SlotTaken(doctorID, date, tm, excludeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.appts {
		if a.ID != excludeID && a.DoctorID == doctorID && a.Date == date && a.Time == tm &&
			a.Status.HoldsSlot() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAppointments) ListForUser(userID string, role models.Role) ([]models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Appointment
	for _, a := range f.appts {
		switch role {
		case models.RoleDoctor:
			if a.DoctorID != userID {
				continue
			}
		case models.RolePatient:
			if a.PatientID != userID {
				continue
			}
		}
		out = append(out, *cloneAppt(a))
	}
	return out, nil
}

func (f *fakeAppointments) ListByStatus(userID string, role models.Role, statuses ...models.AppointmentStatus) ([]models.Appointment, error) {
	all, _ := f.ListForUser(userID, role)
	var out []models.Appointment
	for _, a := range all {
		for _, st := range statuses {
			if a.Status == st {
				out = append(out, a)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeAppointments) ListPriority(userID string, role models.Role) ([]models.Appointment, error) {
	all, _ := f.ListForUser(userID, role)
	var out []models.Appointment
	for _, a := range all {
		if (a.Priority == models.PriorityHigh || a.Priority == models.PriorityUrgent) &&
			a.Status != models.StatusCompleted && a.Status != models.StatusCancelled {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAppointments) ListForDoctorDay(doctorID, date string) ([]models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Appointment
	for _, a := range f.appts {
		if a.DoctorID == doctorID && a.Date == date && a.Status != models.StatusCancelled {
			out = append(out, *cloneAppt(a))
		}
	}
	return out, nil
}

func (f *fakeAppointments) ListWithStatuses(statuses ...models.AppointmentStatus) ([]models.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Appointment
	for _, a := range f.appts {
		for _, st := range statuses {
			if a.Status == st {
				out = append(out, *cloneAppt(a))
				break
			}
		}
	}
	return out, nil
}

// fakeSchedules is an in-memory ScheduleStore.
type fakeSchedules struct {
	windows []models.ScheduleWindow
}

func (f *fakeSchedules) ActiveWindows(doctorID string, dayOfWeek int) ([]models.ScheduleWindow, error) {
	var out []models.ScheduleWindow
	for _, w := range f.windows {
		if w.DoctorID == doctorID && w.DayOfWeek == dayOfWeek && w.IsActive {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeSchedules) Week(doctorID string) ([]models.ScheduleWindow, error) {
	var out []models.ScheduleWindow
	for _, w := range f.windows {
		if w.DoctorID == doctorID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeSchedules) ReplaceWeek(doctorID string, windows []models.ScheduleWindow) error {
	var kept []models.ScheduleWindow
	for _, w := range f.windows {
		if w.DoctorID != doctorID {
			kept = append(kept, w)
		}
	}
	f.windows = append(kept, windows...)
	return nil
}

// fakeAdmitter records queue admissions and can be made to fail.
type fakeAdmitter struct {
	admissions []string
	err        error
}

func (f *fakeAdmitter) AdmitFromAppointment(patientID, doctorID, appointmentID string) error {
	if f.err != nil {
		return f.err
	}
	f.admissions = append(f.admissions, patientID)
	return nil
}

type publishedEvent struct {
	userID    string
	eventType string
}

type fakePublisher struct {
	events []publishedEvent
}

func (f *fakePublisher) Publish(userID, eventType string, payload any) {
	f.events = append(f.events, publishedEvent{userID: userID, eventType: eventType})
}

type sentNotification struct {
	recipientID string
	title       string
}

type fakeNotifier struct {
	sent []sentNotification
}

func (f *fakeNotifier) Notify(recipientID, recipientType, title, message, priority string, metadata map[string]string) {
	f.sent = append(f.sent, sentNotification{recipientID: recipientID, title: title})
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
