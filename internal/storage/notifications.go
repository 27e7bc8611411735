package storage

import (
	"clinic-server/internal/models"
	"clinic-server/internal/notify"

	"gorm.io/gorm"
)

// Notifications implements notify.Store over gorm.
type Notifications struct {
	DB *gorm.DB
}

// NewNotifications creates the notification store.
func NewNotifications(db *gorm.DB) *Notifications {
	return &Notifications{DB: db}
}

func (s *Notifications) Create(n *models.Notification) error {
	return s.DB.Create(n).Error
}

func (s *Notifications) ListForUser(userID string) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.DB.
		Where("recipient_id = ?", userID).
		Order("created_at desc").
		Limit(100).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *Notifications) MarkRead(id string) error {
	result := s.DB.Model(&models.Notification{}).
		Where("id = ?", id).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notify.ErrNotFound
	}
	return nil
}
