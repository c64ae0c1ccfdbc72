package models

import "time"

// QuizAttempt stores one completed archetype quiz for a user.
// Scores is a JSON object mapping archetype key -> numeric score;
// Answers is a JSON array of {question, option} records. Both are kept as
// text so the quiz collaborator can evolve its catalog without migrations here.
type QuizAttempt struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	UserID    string     `gorm:"not null;index;type:varchar(36)" json:"user_id"`
	QuizKey   string     `gorm:"not null;default:'archetype'" json:"quiz_key" form:"quiz_key"`
	Scores    string     `gorm:"type:text" json:"scores" form:"scores"`
	Answers   string     `gorm:"type:text" json:"answers" form:"answers"`
	CreatedAt *time.Time `gorm:"index" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}
