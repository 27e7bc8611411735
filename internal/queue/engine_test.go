package queue

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"clinic-server/internal/models"
)

type fakeQueueStore struct {
	mu      sync.Mutex
	entries map[string]*models.QueueEntry
	seq     int
}

func newFakeQueueStore() *fakeQueueStore {
	return &fakeQueueStore{entries: make(map[string]*models.QueueEntry)}
}

func cloneEntry(e *models.QueueEntry) *models.QueueEntry {
	c := *e
	return &c
}

func (f *fakeQueueStore) Create(e *models.QueueEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	e.ID = fmt.Sprintf("q%d", f.seq)
	f.entries[e.ID] = cloneEntry(e)
	return nil
}

func (f *fakeQueueStore) Save(e *models.QueueEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[e.ID]; !ok {
		return ErrNotFound
	}
	f.entries[e.ID] = cloneEntry(e)
	return nil
}

func (f *fakeQueueStore) SavePositions(entries []models.QueueEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range entries {
		stored, ok := f.entries[entries[i].ID]
		if !ok {
			return ErrNotFound
		}
		stored.Position = entries[i].Position
		stored.EstimatedWaitMinutes = entries[i].EstimatedWaitMinutes
	}
	return nil
}

func (f *fakeQueueStore) FindByID(id string) (*models.QueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneEntry(e), nil
}

func (f *fakeQueueStore) FindActive(patientID, doctorID, date string) (*models.QueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.PatientID == patientID && e.DoctorID == doctorID && e.QueueDate == date && e.Status.Active() {
			return cloneEntry(e), nil
		}
	}
	return nil, nil
}

func (f *fakeQueueStore) FindActiveByPatient(patientID, date string) (*models.QueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.PatientID == patientID && e.QueueDate == date && e.Status.Active() {
			return cloneEntry(e), nil
		}
	}
	return nil, nil
}

func (f *fakeQueueStore) ListWaiting(doctorID, date string) ([]models.QueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.QueueEntry
	for _, e := range f.entries {
		if e.DoctorID == doctorID && e.QueueDate == date && e.Status == models.QueueWaiting {
			out = append(out, *cloneEntry(e))
		}
	}
	return out, nil
}

func (f *fakeQueueStore) ListForDoctor(doctorID, date string) ([]models.QueueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.QueueEntry
	for _, e := range f.entries {
		if e.DoctorID == doctorID && e.QueueDate == date && e.Status != models.QueueCancelled {
			out = append(out, *cloneEntry(e))
		}
	}
	return out, nil
}

type fakeApptSource struct {
	appts []models.Appointment
}

func (f *fakeApptSource) ListForDate(date string, statuses ...models.AppointmentStatus) ([]models.Appointment, error) {
	var out []models.Appointment
	for _, a := range f.appts {
		if a.Date != date {
			continue
		}
		for _, st := range statuses {
			if a.Status == st {
				out = append(out, a)
				break
			}
		}
	}
	return out, nil
}

type recordedEvent struct {
	userID    string
	eventType string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(userID, eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{userID: userID, eventType: eventType})
}

func (p *recordingPublisher) countFor(userID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.userID == userID {
			n++
		}
	}
	return n
}

// testEngine builds an engine over the fake store with a deterministic clock
// that advances one second per reading, so arrival order is unambiguous. The
// clock is mutex-guarded so concurrent engine calls stay race-free.
func testEngine(store Store, appts AppointmentSource, events Publisher) *Engine {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := NewEngine(store, appts, events, nil, log, 15)
	var mu sync.Mutex
	clock := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	e.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	return e
}

func TestAdmitAssignsSequentialPositions(t *testing.T) {
	store := newFakeQueueStore()
	e := testEngine(store, nil, nil)

	for i, patient := range []string{"p1", "p2", "p3"} {
		entry, err := e.Admit(patient, "d1", models.QueueWalkIn, "")
		if err != nil {
			t.Fatalf("Admit(%s): %v", patient, err)
		}
		if entry.Position != i+1 {
			t.Errorf("patient %s: position = %d, want %d", patient, entry.Position, i+1)
		}
		if entry.EstimatedWaitMinutes != (i+1)*15 {
			t.Errorf("patient %s: wait = %d, want %d", patient, entry.EstimatedWaitMinutes, (i+1)*15)
		}
	}
}

func TestAdmitIsIdempotent(t *testing.T) {
	store := newFakeQueueStore()
	e := testEngine(store, nil, nil)

	first, err := e.Admit("p1", "d1", models.QueueWalkIn, "")
	if err != nil {
		t.Fatalf("first Admit: %v", err)
	}
	second, err := e.Admit("p1", "d1", models.QueueWalkIn, "")
	if err != nil {
		t.Fatalf("second Admit: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second admit created a new entry: %s != %s", second.ID, first.ID)
	}
	if len(store.entries) != 1 {
		t.Errorf("store holds %d entries, want 1", len(store.entries))
	}
}

func TestEmergencyAdmissionMovesToFront(t *testing.T) {
	store := newFakeQueueStore()
	e := testEngine(store, nil, nil)

	e.Admit("p1", "d1", models.QueueWalkIn, "")
	e.Admit("p2", "d1", models.QueueWalkIn, "")
	emergency, err := e.Admit("p3", "d1", models.QueueEmergency, "")
	if err != nil {
		t.Fatalf("Admit emergency: %v", err)
	}
	if emergency.Position != 1 {
		t.Errorf("emergency position = %d, want 1", emergency.Position)
	}

	waiting, _ := store.ListWaiting("d1", "2026-03-02")
	sortWaiting(waiting)
	got := []string{waiting[0].PatientID, waiting[1].PatientID, waiting[2].PatientID}
	want := []string{"p3", "p1", "p2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("queue order = %v, want %v", got, want)
		}
	}
}

func TestCallNextServesHeadAndRecomputes(t *testing.T) {
	store := newFakeQueueStore()
	events := &recordingPublisher{}
	e := testEngine(store, nil, events)

	e.Admit("p1", "d1", models.QueueWalkIn, "")
	second, _ := e.Admit("p2", "d1", models.QueueWalkIn, "")

	called, err := e.CallNext("d1")
	if err != nil {
		t.Fatalf("CallNext: %v", err)
	}
	if called.PatientID != "p1" {
		t.Errorf("called patient = %s, want p1", called.PatientID)
	}
	if called.Status != models.QueueInProgress {
		t.Errorf("called status = %s, want in_progress", called.Status)
	}
	if called.CalledAt == nil {
		t.Error("CalledAt not stamped")
	}
	if events.countFor("p1") == 0 {
		t.Error("called patient received no event")
	}

	reloaded, _ := store.FindByID(second.ID)
	if reloaded.Position != 1 {
		t.Errorf("remaining patient position = %d, want 1", reloaded.Position)
	}
}

func TestCallNextEmptyQueue(t *testing.T) {
	e := testEngine(newFakeQueueStore(), nil, nil)
	if _, err := e.CallNext("d1"); err != ErrQueueEmpty {
		t.Fatalf("CallNext on empty queue: err = %v, want ErrQueueEmpty", err)
	}
}

func TestRemoveClosesGap(t *testing.T) {
	store := newFakeQueueStore()
	e := testEngine(store, nil, nil)

	first, _ := e.Admit("p1", "d1", models.QueueWalkIn, "")
	second, _ := e.Admit("p2", "d1", models.QueueWalkIn, "")
	third, _ := e.Admit("p3", "d1", models.QueueWalkIn, "")

	if _, err := e.Remove(first.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	reloaded2, _ := store.FindByID(second.ID)
	reloaded3, _ := store.FindByID(third.ID)
	if reloaded2.Position != 1 || reloaded3.Position != 2 {
		t.Errorf("positions after removal = %d, %d, want 1, 2", reloaded2.Position, reloaded3.Position)
	}

	if _, err := e.Remove(first.ID); err != ErrNotActive {
		t.Errorf("second Remove: err = %v, want ErrNotActive", err)
	}
}

func TestFastTrackEscalates(t *testing.T) {
	store := newFakeQueueStore()
	e := testEngine(store, nil, nil)

	e.Admit("p1", "d1", models.QueueWalkIn, "")
	second, _ := e.Admit("p2", "d1", models.QueueWalkIn, "")

	escalated, err := e.FastTrack(second.ID)
	if err != nil {
		t.Fatalf("FastTrack: %v", err)
	}
	if escalated.Priority != models.QueueEmergency {
		t.Errorf("priority = %s, want emergency", escalated.Priority)
	}
	if escalated.Position != 1 {
		t.Errorf("position = %d, want 1", escalated.Position)
	}
}

func TestSyncTodaysAppointmentsIsIdempotent(t *testing.T) {
	store := newFakeQueueStore()
	appts := &fakeApptSource{appts: []models.Appointment{
		{PatientID: "p1", DoctorID: "d1", Date: "2026-03-02", Status: models.StatusConfirmed},
		{PatientID: "p2", DoctorID: "d1", Date: "2026-03-02", Status: models.StatusScheduled},
		{PatientID: "p3", DoctorID: "d1", Date: "2026-03-05", Status: models.StatusConfirmed},
		{PatientID: "p4", DoctorID: "d1", Date: "2026-03-02", Status: models.StatusPending},
	}}
	e := testEngine(store, appts, nil)

	admitted, err := e.SyncTodaysAppointments()
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if admitted != 2 {
		t.Errorf("first sync admitted %d, want 2", admitted)
	}

	admitted, err = e.SyncTodaysAppointments()
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if admitted != 0 {
		t.Errorf("second sync admitted %d, want 0", admitted)
	}
}

func TestStatusFor(t *testing.T) {
	store := newFakeQueueStore()
	e := testEngine(store, nil, nil)

	st, err := e.StatusFor("p1")
	if err != nil {
		t.Fatalf("StatusFor: %v", err)
	}
	if st.Status != "not_in_queue" {
		t.Errorf("status = %s, want not_in_queue", st.Status)
	}
	if st.Position != nil {
		t.Error("position set for patient not in queue")
	}

	e.Admit("p1", "d1", models.QueueWalkIn, "")
	st, err = e.StatusFor("p1")
	if err != nil {
		t.Fatalf("StatusFor after admit: %v", err)
	}
	if st.Status != string(models.QueueWaiting) {
		t.Errorf("status = %s, want waiting", st.Status)
	}
	if st.Position == nil || *st.Position != 1 {
		t.Errorf("position = %v, want 1", st.Position)
	}
}

func TestConcurrentAdmissionsKeepDenseOrdering(t *testing.T) {
	store := newFakeQueueStore()
	e := testEngine(store, nil, nil)

	const patients = 20
	var wg sync.WaitGroup
	errs := make(chan error, patients)
	for i := 0; i < patients; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if _, err := e.Admit(fmt.Sprintf("p%d", n), "d1", models.QueueWalkIn, ""); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent Admit: %v", err)
	}

	waiting, _ := store.ListWaiting("d1", "2026-03-02")
	if len(waiting) != patients {
		t.Fatalf("waiting = %d entries, want %d", len(waiting), patients)
	}
	seen := make(map[int]bool, patients)
	for _, entry := range waiting {
		if entry.Position < 1 || entry.Position > patients {
			t.Fatalf("position %d outside 1..%d", entry.Position, patients)
		}
		if seen[entry.Position] {
			t.Fatalf("position %d assigned twice", entry.Position)
		}
		seen[entry.Position] = true
		if entry.EstimatedWaitMinutes != entry.Position*15 {
			t.Errorf("entry at position %d: wait = %d, want %d",
				entry.Position, entry.EstimatedWaitMinutes, entry.Position*15)
		}
	}
}

func TestConcurrentTerminalTransitionsSingleWinner(t *testing.T) {
	store := newFakeQueueStore()
	e := testEngine(store, nil, nil)

	entry, _ := e.Admit("p1", "d1", models.QueueWalkIn, "")

	var wg sync.WaitGroup
	results := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := e.Complete(entry.ID)
		results <- err
	}()
	go func() {
		defer wg.Done()
		_, err := e.Remove(entry.ID)
		results <- err
	}()
	wg.Wait()
	close(results)

	succeeded, notActive := 0, 0
	for err := range results {
		switch err {
		case nil:
			succeeded++
		case ErrNotActive:
			notActive++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || notActive != 1 {
		t.Fatalf("got %d successes and %d ErrNotActive, want exactly one of each", succeeded, notActive)
	}
}

func TestQueueForStats(t *testing.T) {
	store := newFakeQueueStore()
	e := testEngine(store, nil, nil)

	e.Admit("p1", "d1", models.QueueWalkIn, "")
	e.Admit("p2", "d1", models.QueueWalkIn, "")
	e.CallNext("d1")

	dq, err := e.QueueFor("d1", "2026-03-02")
	if err != nil {
		t.Fatalf("QueueFor: %v", err)
	}
	if dq.Stats.Total != 2 || dq.Stats.Waiting != 1 || dq.Stats.InProgress != 1 {
		t.Errorf("stats = %+v, want total 2, waiting 1, inProgress 1", dq.Stats)
	}
	if dq.Stats.EstimatedWaitTime != 15 {
		t.Errorf("estimated wait = %d, want 15", dq.Stats.EstimatedWaitTime)
	}
}
