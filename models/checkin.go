package models

import "time"

// CheckIn is one behavioral check-in event. Scales are 1..5.
type CheckIn struct {
	ID         int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	UserID     string     `gorm:"not null;index;type:varchar(36)" json:"user_id"`
	Mood       int        `gorm:"not null;default:0" json:"mood" form:"mood"`
	Energy     int        `gorm:"not null;default:0" json:"energy" form:"energy"`
	Connection int        `gorm:"not null;default:0" json:"connection" form:"connection"`
	Note       string     `gorm:"type:text" json:"note" form:"note"`
	CreatedAt  *time.Time `gorm:"index" json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}
