package models

import (
	"time"

	"gorm.io/gorm"
)

// GameParticipant links a player identity (registered user, guest or bot) to a game.
// PlayerID is the identity the game engine sees; UserID is set only for registered users.
type GameParticipant struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	GameRecordID uint           `json:"game_record_id" gorm:"not null;index"`
	PlayerID     string         `json:"player_id" gorm:"not null;index"`
	UserID       *uint          `json:"user_id"`
	Name         string         `json:"name" gorm:"not null"`
	IsBot        bool           `json:"is_bot" gorm:"not null;default:false"`
	JoinedAt     time.Time      `json:"joined_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	GameRecord GameRecord `json:"game_record,omitempty"`
	User       *User      `json:"user,omitempty"`
}
