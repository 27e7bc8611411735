package storage

import (
	"errors"

	"clinic-server/internal/models"
	"clinic-server/internal/scheduling"

	"gorm.io/gorm"
)

// Appointments implements scheduling.AppointmentStore and the queue engine's
// appointment source over gorm.
type Appointments struct {
	DB *gorm.DB
}

// NewAppointments creates the appointment store.
func NewAppointments(db *gorm.DB) *Appointments {
	return &Appointments{DB: db}
}

func (s *Appointments) Create(a *models.Appointment) error {
	if err := s.DB.Create(a).Error; err != nil {
		if isDuplicateKey(err) {
			return scheduling.ErrSlotConflict
		}
		return err
	}
	return nil
}

func (s *Appointments) Save(a *models.Appointment) error {
	if err := s.DB.Save(a).Error; err != nil {
		if isDuplicateKey(err) {
			return scheduling.ErrSlotConflict
		}
		return err
	}
	return nil
}

func (s *Appointments) Delete(id string) error {
	res := s.DB.Delete(&models.Appointment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return scheduling.ErrNotFound
	}
	return nil
}

func (s *Appointments) FindByID(id string) (*models.Appointment, error) {
	var appt models.Appointment
	if err := s.DB.First(&appt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, scheduling.ErrNotFound
		}
		return nil, err
	}
	return &appt, nil
}

func (s *Appointments) SlotTaken(doctorID, date, tm, excludeID string) (bool, error) {
	query := s.DB.Model(&models.Appointment{}).
		Where("doctor_id = ? AND date = ? AND time = ? AND status <> ?",
			doctorID, date, tm, models.StatusCancelled)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Appointments) ListForUser(userID string, role models.Role) ([]models.Appointment, error) {
	return s.list(s.scopeForUser(userID, role))
}

func (s *Appointments) ListByStatus(userID string, role models.Role, statuses ...models.AppointmentStatus) ([]models.Appointment, error) {
	return s.list(s.scopeForUser(userID, role).Where("status IN ?", statuses))
}

func (s *Appointments) ListPriority(userID string, role models.Role) ([]models.Appointment, error) {
	return s.list(s.scopeForUser(userID, role).
		Where("priority IN ?", []models.AppointmentPriority{models.PriorityHigh, models.PriorityUrgent}).
		Where("status IN ?", []models.AppointmentStatus{
			models.StatusPending, models.StatusConfirmed, models.StatusScheduled,
			models.StatusMissed, models.StatusNoShow,
		}))
}

func (s *Appointments) ListForDoctorDay(doctorID, date string) ([]models.Appointment, error) {
	return s.list(s.DB.Where("doctor_id = ? AND date = ? AND status <> ?",
		doctorID, date, models.StatusCancelled))
}

func (s *Appointments) ListWithStatuses(statuses ...models.AppointmentStatus) ([]models.Appointment, error) {
	return s.list(s.DB.Where("status IN ?", statuses))
}

// ListForDate returns appointments on one date in any of the given statuses
// (the queue reconciliation input).
func (s *Appointments) ListForDate(date string, statuses ...models.AppointmentStatus) ([]models.Appointment, error) {
	return s.list(s.DB.Where("date = ? AND status IN ?", date, statuses))
}

func (s *Appointments) scopeForUser(userID string, role models.Role) *gorm.DB {
	switch role {
	case models.RoleDoctor:
		return s.DB.Where("doctor_id = ?", userID)
	case models.RolePatient:
		return s.DB.Where("patient_id = ?", userID)
	default:
		// Staff and admins see all appointments.
		return s.DB.Where("1 = 1")
	}
}

func (s *Appointments) list(query *gorm.DB) ([]models.Appointment, error) {
	var appts []models.Appointment
	if err := query.Model(&models.Appointment{}).
		Order("date asc, time asc").Find(&appts).Error; err != nil {
		return nil, err
	}
	return appts, nil
}
