package scheduling

import (
	"fmt"
	"time"
)

// Slot is one fixed-width bookable interval in a doctor's day.
type Slot struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Available bool   `json:"available"`
}

// SlotResult is the slot listing for a doctor and date. Message is set when
// the doctor has no availability window that day.
type SlotResult struct {
	Slots   []Slot `json:"availableSlots"`
	Message string `json:"message,omitempty"`
}

// SlotCalculator derives the bookable slots for a date from the doctor's
// schedule window and the already-booked appointments. Slots are a fixed
// width; a slot is unavailable when its exact start time is booked, lies in
// the past, or starts within the minimum-advance-notice horizon.
type SlotCalculator struct {
	calendar    *Calendar
	appts       AppointmentStore
	slotMinutes int
	minAdvance  time.Duration
	now         func() time.Time
}

// NewSlotCalculator creates a SlotCalculator. slotMinutes is the canonical
// slot width, minAdvanceHours the booking notice horizon.
func NewSlotCalculator(calendar *Calendar, appts AppointmentStore, slotMinutes, minAdvanceHours int) *SlotCalculator {
	return &SlotCalculator{
		calendar:    calendar,
		appts:       appts,
		slotMinutes: slotMinutes,
		minAdvance:  time.Duration(minAdvanceHours) * time.Hour,
		now:         time.Now,
	}
}

// AvailableSlots returns the ordered slot list for a doctor on a date
// ("2006-01-02").
func (sc *SlotCalculator) AvailableSlots(doctorID, date string) (*SlotResult, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	window, err := sc.calendar.WindowFor(doctorID, day.Weekday())
	if err != nil {
		return nil, err
	}
	if window == nil {
		return &SlotResult{Slots: []Slot{}, Message: "Doctor not available on this day"}, nil
	}

	booked, err := sc.appts.ListForDoctorDay(doctorID, date)
	if err != nil {
		return nil, err
	}
	bookedAt := make(map[string]bool, len(booked))
	for _, a := range booked {
		bookedAt[a.Time] = true
	}

	start, _ := parseClock(window.StartTime)
	end, _ := parseClock(window.EndTime)
	horizon := sc.now().Add(sc.minAdvance)

	slots := []Slot{}
	for m := start; m+sc.slotMinutes <= end; m += sc.slotMinutes {
		tm := formatClock(m)
		slotStart := day.Add(time.Duration(m) * time.Minute)
		slots = append(slots, Slot{
			StartTime: tm,
			EndTime:   formatClock(m + sc.slotMinutes),
			Available: !bookedAt[tm] && !slotStart.Before(horizon),
		})
	}
	return &SlotResult{Slots: slots}, nil
}

// ParseDate parses a timezone-naive calendar day in the server's location.
func ParseDate(date string) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return day, nil
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
