package models

// Notification is a stored human-readable message produced from a scheduling
// or queue state change. Delivery is best-effort; rows exist so users can
// fetch what they missed while disconnected.
type Notification struct {
	BaseModel
	RecipientID   string `gorm:"size:36;index" json:"userId"`
	RecipientType string `gorm:"size:20" json:"userType"`
	Title         string `gorm:"size:255" json:"title"`
	Message       string `gorm:"type:text" json:"message"`
	Type          string `gorm:"size:30" json:"type"`
	Priority      string `gorm:"size:10;default:'medium'" json:"priority"`
	Read          bool   `gorm:"default:false" json:"read"`
	Metadata      string `gorm:"type:text" json:"metadata,omitempty"` // JSON blob
}
