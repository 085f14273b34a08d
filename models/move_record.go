package models

import (
	"time"

	"gorm.io/gorm"
)

type MoveRecord struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	GameRecordID uint           `json:"game_record_id" gorm:"not null;index"`
	PlayerID     string         `json:"player_id" gorm:"not null"`
	MoveType     string         `json:"move_type" gorm:"not null"`
	MoveData     []byte         `json:"-" gorm:"type:jsonb"`
	SequenceID   int64          `json:"sequence_id" gorm:"not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	GameRecord GameRecord `json:"game_record,omitempty"`
}
