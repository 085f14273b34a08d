package models

import (
	"time"

	"gorm.io/gorm"
)

type ChatMessage struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	GameRecordID uint           `json:"game_record_id" gorm:"not null;index"`
	PlayerID     string         `json:"player_id" gorm:"not null"`
	PlayerName   string         `json:"player_name" gorm:"not null"`
	Text         string         `json:"text" gorm:"not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	GameRecord GameRecord `json:"game_record,omitempty"`
}
