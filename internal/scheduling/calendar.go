package scheduling

import (
	"fmt"
	"time"

	"clinic-server/internal/models"
)

// Calendar answers "when does this doctor work" from the weekly recurring
// schedule. Pure lookup; replacing a doctor's week is an atomic swap so a
// reader never observes a mix of old and new windows.
type Calendar struct {
	store ScheduleStore
}

// NewCalendar creates a Calendar over the given store.
func NewCalendar(store ScheduleStore) *Calendar {
	return &Calendar{store: store}
}

// WindowFor returns the active availability window for a doctor on a weekday,
// or nil when the doctor does not work that day. If the data holds several
// active windows for one day, the earliest-starting window wins.
func (c *Calendar) WindowFor(doctorID string, day time.Weekday) (*models.ScheduleWindow, error) {
	windows, err := c.store.ActiveWindows(doctorID, int(day))
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return nil, nil
	}

	best := windows[0]
	for _, w := range windows[1:] {
		if w.StartTime < best.StartTime {
			best = w
		}
	}
	return &best, nil
}

// Week returns a doctor's full weekly schedule.
func (c *Calendar) Week(doctorID string) ([]models.ScheduleWindow, error) {
	return c.store.Week(doctorID)
}

// ReplaceWeek validates and atomically installs a doctor's new weekly
// schedule, invalidating all prior windows.
func (c *Calendar) ReplaceWeek(doctorID string, windows []models.ScheduleWindow) error {
	for i := range windows {
		w := &windows[i]
		if w.DayOfWeek < 0 || w.DayOfWeek > 6 {
			return fmt.Errorf("window %d: day of week %d out of range", i, w.DayOfWeek)
		}
		if _, err := parseClock(w.StartTime); err != nil {
			return fmt.Errorf("window %d: invalid start time %q", i, w.StartTime)
		}
		if _, err := parseClock(w.EndTime); err != nil {
			return fmt.Errorf("window %d: invalid end time %q", i, w.EndTime)
		}
		if w.StartTime >= w.EndTime {
			return fmt.Errorf("window %d: start %s not before end %s", i, w.StartTime, w.EndTime)
		}
		w.DoctorID = doctorID
	}
	return c.store.ReplaceWeek(doctorID, windows)
}
