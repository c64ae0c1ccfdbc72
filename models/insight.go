package models

import "time"

const INSIGHT_FEATURE = "deep_insights"

// UserInsight is the current artifact layout: one row per user holding the
// latest generated insight document.
// Signature is the content hash of the normalized inputs that produced
// Payload; soft placeholders carry a ":soft" suffix on top of the base hash.
type UserInsight struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	UserID    string     `gorm:"not null;unique_index;type:varchar(36)" json:"user_id"`
	Payload   string     `gorm:"type:text" json:"payload"`
	Signature string     `gorm:"not null;default:''" json:"signature"`
	IsSoft    bool       `gorm:"not null;default:false" json:"is_soft"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// UserProfile carries the legacy artifact layout: insight columns bolted onto
// the profile row. Older deployments only have this table, so the store reads
// and writes it as a fallback. is_soft has no column here and is derived from
// the signature suffix.
type UserProfile struct {
	ID                    int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	UserID                string     `gorm:"not null;unique_index;type:varchar(36)" json:"user_id"`
	DeepInsights          string     `gorm:"column:deep_insights;type:text" json:"deep_insights"`
	DeepInsightsSignature string     `gorm:"column:deep_insights_signature;default:''" json:"deep_insights_signature"`
	DeepInsightsUpdatedAt *time.Time `gorm:"column:deep_insights_updated_at" json:"deep_insights_updated_at"`
	CreatedAt             *time.Time `json:"created_at"`
	UpdatedAt             *time.Time `json:"updated_at"`
}
