package domain

import (
	"time"
)

// User represents an account that owns agents and meetings. The auth
// provider owns the row lifecycle; this service only reads users for
// ownership checks and transcript speaker resolution.
type User struct {
	ID        string    `json:"id" gorm:"type:varchar(255);primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null;unique"`
	Image     *string   `json:"image" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for User.
func (User) TableName() string {
	return "users"
}
