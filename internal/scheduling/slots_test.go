package scheduling

import (
	"testing"
	"time"

	"clinic-server/internal/models"
)

// 2026-03-02 is a Monday.
const monday = "2026-03-02"

func testCalculator(schedules *fakeSchedules, appts *fakeAppointments, now time.Time) *SlotCalculator {
	sc := NewSlotCalculator(NewCalendar(schedules), appts, 60, 2)
	sc.now = func() time.Time { return now }
	return sc
}

func TestAvailableSlotsMarksBooked(t *testing.T) {
	schedules := &fakeSchedules{windows: []models.ScheduleWindow{
		{DoctorID: "d1", DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00", IsActive: true},
	}}
	appts := newFakeAppointments()
	key := models.SlotKeyFor("d1", monday, "10:00")
	appts.Create(&models.Appointment{
		DoctorID: "d1", PatientID: "p1", Date: monday, Time: "10:00",
		Status: models.StatusConfirmed, SlotKey: &key,
	})

	// The day before, so the advance-notice horizon does not interfere.
	sc := testCalculator(schedules, appts, time.Date(2026, 3, 1, 10, 0, 0, 0, time.Local))

	result, err := sc.AvailableSlots("d1", monday)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if len(result.Slots) != 3 {
		t.Fatalf("got %d slots, want 3", len(result.Slots))
	}

	want := []Slot{
		{StartTime: "09:00", EndTime: "10:00", Available: true},
		{StartTime: "10:00", EndTime: "11:00", Available: false},
		{StartTime: "11:00", EndTime: "12:00", Available: true},
	}
	for i, w := range want {
		if result.Slots[i] != w {
			t.Errorf("slot %d = %+v, want %+v", i, result.Slots[i], w)
		}
	}
}

func TestAvailableSlotsHonorsAdvanceNotice(t *testing.T) {
	schedules := &fakeSchedules{windows: []models.ScheduleWindow{
		{DoctorID: "d1", DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00", IsActive: true},
	}}

	// 08:30 same day with a 2 hour horizon: slots before 10:30 are gone.
	sc := testCalculator(schedules, newFakeAppointments(),
		time.Date(2026, 3, 2, 8, 30, 0, 0, time.Local))

	result, err := sc.AvailableSlots("d1", monday)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}

	available := map[string]bool{}
	for _, s := range result.Slots {
		available[s.StartTime] = s.Available
	}
	if available["09:00"] || available["10:00"] {
		t.Errorf("slots inside the notice horizon reported available: %v", available)
	}
	if !available["11:00"] {
		t.Error("slot 11:00 outside the horizon reported unavailable")
	}
}

func TestAvailableSlotsCancelledFreesSlot(t *testing.T) {
	schedules := &fakeSchedules{windows: []models.ScheduleWindow{
		{DoctorID: "d1", DayOfWeek: 1, StartTime: "09:00", EndTime: "11:00", IsActive: true},
	}}
	appts := newFakeAppointments()
	appts.Create(&models.Appointment{
		DoctorID: "d1", PatientID: "p1", Date: monday, Time: "09:00",
		Status: models.StatusCancelled,
	})

	sc := testCalculator(schedules, appts, time.Date(2026, 3, 1, 10, 0, 0, 0, time.Local))

	result, err := sc.AvailableSlots("d1", monday)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if !result.Slots[0].Available {
		t.Error("slot held only by a cancelled appointment reported unavailable")
	}
}

func TestAvailableSlotsWindowNarrowerThanSlot(t *testing.T) {
	schedules := &fakeSchedules{windows: []models.ScheduleWindow{
		{DoctorID: "d1", DayOfWeek: 1, StartTime: "09:00", EndTime: "09:30", IsActive: true},
	}}
	sc := testCalculator(schedules, newFakeAppointments(),
		time.Date(2026, 3, 1, 10, 0, 0, 0, time.Local))

	result, err := sc.AvailableSlots("d1", monday)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if result.Slots == nil {
		t.Fatal("slots is nil; want an empty slice so clients get [] not null")
	}
	if len(result.Slots) != 0 {
		t.Errorf("got %d slots from a half-hour window, want 0", len(result.Slots))
	}
}

func TestAvailableSlotsNoWindow(t *testing.T) {
	sc := testCalculator(&fakeSchedules{}, newFakeAppointments(),
		time.Date(2026, 3, 1, 10, 0, 0, 0, time.Local))

	result, err := sc.AvailableSlots("d1", monday)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if len(result.Slots) != 0 {
		t.Errorf("got %d slots, want 0", len(result.Slots))
	}
	if result.Message == "" {
		t.Error("expected a no-availability message")
	}
}

func TestAvailableSlotsBadDate(t *testing.T) {
	sc := testCalculator(&fakeSchedules{}, newFakeAppointments(), time.Now())
	if _, err := sc.AvailableSlots("d1", "02-03-2026"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}
