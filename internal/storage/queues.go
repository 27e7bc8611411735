package storage

import (
	"errors"

	"clinic-server/internal/models"
	"clinic-server/internal/queue"

	"gorm.io/gorm"
)

// Queues implements queue.Store over gorm.
type Queues struct {
	DB *gorm.DB
}

// NewQueues creates the queue entry store.
func NewQueues(db *gorm.DB) *Queues {
	return &Queues{DB: db}
}

func (s *Queues) Create(e *models.QueueEntry) error {
	return s.DB.Create(e).Error
}

func (s *Queues) Save(e *models.QueueEntry) error {
	return s.DB.Save(e).Error
}

// SavePositions writes the recomputed positions in one transaction so
// readers never observe a half-updated ordering.
func (s *Queues) SavePositions(entries []models.QueueEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		for i := range entries {
			if err := tx.Model(&models.QueueEntry{}).
				Where("id = ?", entries[i].ID).
				Updates(map[string]any{
					"position":               entries[i].Position,
					"estimated_wait_minutes": entries[i].EstimatedWaitMinutes,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Queues) FindByID(id string) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	if err := s.DB.First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, queue.ErrNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (s *Queues) FindActive(patientID, doctorID, date string) (*models.QueueEntry, error) {
	return s.findActive(s.DB.Where("patient_id = ? AND doctor_id = ? AND queue_date = ?",
		patientID, doctorID, date))
}

func (s *Queues) FindActiveByPatient(patientID, date string) (*models.QueueEntry, error) {
	return s.findActive(s.DB.Where("patient_id = ? AND queue_date = ?", patientID, date))
}

func (s *Queues) findActive(query *gorm.DB) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := query.
		Where("status IN ?", []models.QueueStatus{models.QueueWaiting, models.QueueInProgress}).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (s *Queues) ListWaiting(doctorID, date string) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := s.DB.
		Where("doctor_id = ? AND queue_date = ? AND status = ?", doctorID, date, models.QueueWaiting).
		Order("position asc, arrival_time asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *Queues) ListForDoctor(doctorID, date string) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := s.DB.
		Where("doctor_id = ? AND queue_date = ? AND status <> ?", doctorID, date, models.QueueCancelled).
		Order("position asc, arrival_time asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
