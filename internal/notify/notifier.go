// Package notify is the notification sink: scheduling and queue state
// changes land here as human-readable messages. Delivery is fire-and-forget;
// a failure is logged and never propagated to the operation that produced
// the event.
package notify

import (
	"encoding/json"
	"errors"
	"log/slog"

	"clinic-server/internal/models"
)

// ErrNotFound is returned when the referenced notification does not exist.
var ErrNotFound = errors.New("notification not found")

// Store is the persistence boundary for notifications.
type Store interface {
	Create(n *models.Notification) error
	ListForUser(userID string) ([]models.Notification, error)
	MarkRead(id string) error
}

// Publisher pushes the notification event to the recipient's realtime
// channel.
type Publisher interface {
	Publish(userID, eventType string, payload any)
}

// Service persists notifications and pushes them to connected recipients.
type Service struct {
	store  Store
	events Publisher
	log    *slog.Logger
}

// NewService wires the sink. events may be nil.
func NewService(store Store, events Publisher, log *slog.Logger) *Service {
	return &Service{store: store, events: events, log: log}
}

// Notify records and pushes a message. Errors are swallowed after logging:
// notifications are hints, not state.
func (s *Service) Notify(recipientID, recipientType, title, message, priority string, metadata map[string]string) {
	meta := ""
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			meta = string(b)
		}
	}

	n := &models.Notification{
		RecipientID:   recipientID,
		RecipientType: recipientType,
		Title:         title,
		Message:       message,
		Type:          "system",
		Priority:      priority,
		Metadata:      meta,
	}
	if err := s.store.Create(n); err != nil {
		s.log.Warn("failed to store notification", "recipientId", recipientID, "error", err)
		return
	}

	if s.events != nil {
		s.events.Publish(recipientID, "notification", n)
	}
}

// ListForUser returns a user's stored notifications, newest first.
func (s *Service) ListForUser(userID string) ([]models.Notification, error) {
	return s.store.ListForUser(userID)
}

// MarkRead flags one notification as read.
func (s *Service) MarkRead(id string) error {
	return s.store.MarkRead(id)
}
