package models

import "time"

// JournalEntry is a free-text journal record. Summary is a short digest the
// journaling collaborator produces; only its hash enters the cache signature,
// the text itself is used for prompting when extra context is requested.
type JournalEntry struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	UserID    string     `gorm:"not null;index;type:varchar(36)" json:"user_id"`
	Body      string     `gorm:"type:text" json:"body" form:"body"`
	Summary   string     `gorm:"type:text" json:"summary" form:"summary"`
	CreatedAt *time.Time `gorm:"index" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}
