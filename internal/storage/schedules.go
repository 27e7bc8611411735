package storage

import (
	"clinic-server/internal/models"

	"gorm.io/gorm"
)

// Schedules implements scheduling.ScheduleStore over gorm.
type Schedules struct {
	DB *gorm.DB
}

// NewSchedules creates the schedule window store.
func NewSchedules(db *gorm.DB) *Schedules {
	return &Schedules{DB: db}
}

func (s *Schedules) ActiveWindows(doctorID string, dayOfWeek int) ([]models.ScheduleWindow, error) {
	var windows []models.ScheduleWindow
	err := s.DB.
		Where("doctor_id = ? AND day_of_week = ? AND is_active = ?", doctorID, dayOfWeek, true).
		Order("start_time asc").
		Find(&windows).Error
	if err != nil {
		return nil, err
	}
	return windows, nil
}

func (s *Schedules) Week(doctorID string) ([]models.ScheduleWindow, error) {
	var windows []models.ScheduleWindow
	err := s.DB.
		Where("doctor_id = ?", doctorID).
		Order("day_of_week asc, start_time asc").
		Find(&windows).Error
	if err != nil {
		return nil, err
	}
	return windows, nil
}

func (s *Schedules) ReplaceWeek(doctorID string, windows []models.ScheduleWindow) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("doctor_id = ?", doctorID).
			Delete(&models.ScheduleWindow{}).Error; err != nil {
			return err
		}
		if len(windows) == 0 {
			return nil
		}
		return tx.Create(&windows).Error
	})
}
