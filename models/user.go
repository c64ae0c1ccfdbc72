package models

import "time"

/************************************************
/**** MARK: USER STATUS ****/
/************************************************/
const USER_STATUS_AVAILABLE = 0
const USER_STATUS_PENDING = 1
const USER_STATUS_BLOCKED = 2

// User is the identity collaborator. Accounts are created elsewhere; this
// service only needs enough to validate bearer tokens and key per-user rows.
type User struct {
	ID        string     `gorm:"primary_key;type:varchar(36)" json:"id"`
	Name      string     `json:"name" form:"name"`
	Email     string     `gorm:"not null;unique" json:"email" form:"email"`
	Status    int        `gorm:"default:0" json:"status" form:"status"`
	Timezone  string     `gorm:"default:''" json:"timezone" form:"timezone"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}
