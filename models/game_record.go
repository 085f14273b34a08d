package models

import (
	"time"

	"gorm.io/gorm"
)

type GameRecord struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Pin           string         `json:"pin" gorm:"uniqueIndex;not null"`
	GameType      string         `json:"game_type" gorm:"not null"`
	Status        string         `json:"status" gorm:"not null;default:'waiting'"` // waiting, playing, finished
	WinnerID      string         `json:"winner_id"`
	FinalSnapshot []byte         `json:"-" gorm:"type:jsonb"`
	StartedAt     *time.Time     `json:"started_at"`
	EndedAt       *time.Time     `json:"ended_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Participants []GameParticipant `json:"participants,omitempty" gorm:"foreignKey:GameRecordID"`
	Moves        []MoveRecord      `json:"moves,omitempty" gorm:"foreignKey:GameRecordID"`
}
