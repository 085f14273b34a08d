package models

import (
	"time"

	"gorm.io/gorm"
)

type Friendship struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	UserID     uint           `json:"user_id" gorm:"not null;index"`
	FriendID   uint           `json:"friend_id" gorm:"not null;index"`
	Status     string         `json:"status" gorm:"not null;default:'pending'"` // pending, accepted
	AcceptedAt *time.Time     `json:"accepted_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	User   User `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Friend User `json:"friend,omitempty" gorm:"foreignKey:FriendID"`
}
