package models

import "time"

// InsightLock is a best-effort generation lease: one row per (user, feature).
// A row whose LockedUntil is in the past counts as free and may be reclaimed
// in place. Losing the race is not an error for callers (see insight.LockStore).
type InsightLock struct {
	ID          int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	UserID      string     `gorm:"not null;unique_index:ux_insight_lock;type:varchar(36)" json:"user_id"`
	Feature     string     `gorm:"not null;default:'deep_insights';unique_index:ux_insight_lock" json:"feature"`
	LockedUntil time.Time  `gorm:"not null;index" json:"locked_until"`
	CreatedAt   *time.Time `json:"created_at"`
}
