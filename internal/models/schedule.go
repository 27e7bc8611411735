package models

// ScheduleWindow is one availability window in a doctor's weekly recurring
// schedule. DayOfWeek follows time.Weekday numbering (0 = Sunday).
type ScheduleWindow struct {
	BaseModel
	DoctorID  string `gorm:"size:36;index" json:"doctorId"`
	DayOfWeek int    `gorm:"index" json:"dayOfWeek"`
	StartTime string `gorm:"size:5" json:"startTime"`
	EndTime   string `gorm:"size:5" json:"endTime"`
	IsActive  bool   `gorm:"default:true" json:"isActive"`
}
