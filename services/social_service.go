package services

import (
	"errors"
	"strings"
	"time"

	"tabletop/models"

	"gorm.io/gorm"
)

type SocialService struct {
	db *gorm.DB
}

func NewSocialService(db *gorm.DB) *SocialService {
	return &SocialService{db: db}
}

func (s *SocialService) SendFriendRequest(userID, friendID uint) (*models.Friendship, error) {
	if userID == friendID {
		return nil, errors.New("cannot befriend yourself")
	}
	var friend models.User
	if err := s.db.First(&friend, friendID).Error; err != nil {
		return nil, errors.New("user not found")
	}

	var existing models.Friendship
	err := s.db.Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
		userID, friendID, friendID, userID).First(&existing).Error
	if err == nil {
		return nil, errors.New("friendship already exists")
	}

	friendship := models.Friendship{
		UserID:   userID,
		FriendID: friendID,
		Status:   "pending",
	}
	if err := s.db.Create(&friendship).Error; err != nil {
		return nil, err
	}
	return &friendship, nil
}

func (s *SocialService) AcceptFriendRequest(userID, friendshipID uint) (*models.Friendship, error) {
	var friendship models.Friendship
	if err := s.db.First(&friendship, friendshipID).Error; err != nil {
		return nil, errors.New("friend request not found")
	}
	// Only the recipient can accept.
	if friendship.FriendID != userID {
		return nil, errors.New("not authorized to accept this request")
	}
	if friendship.Status != "pending" {
		return nil, errors.New("request is not pending")
	}

	now := time.Now()
	friendship.Status = "accepted"
	friendship.AcceptedAt = &now
	if err := s.db.Save(&friendship).Error; err != nil {
		return nil, err
	}
	return &friendship, nil
}

func (s *SocialService) ListFriends(userID uint) ([]models.Friendship, error) {
	var friendships []models.Friendship
	err := s.db.Where("(user_id = ? OR friend_id = ?) AND status = ?", userID, userID, "accepted").
		Preload("User").
		Preload("Friend").
		Find(&friendships).Error
	return friendships, err
}

func (s *SocialService) SaveChatMessage(gamePin, playerID, playerName, text string) error {
	var record models.GameRecord
	if err := s.db.Where("pin = ?", strings.ToLower(gamePin)).First(&record).Error; err != nil {
		return errors.New("game not found")
	}
	message := models.ChatMessage{
		GameRecordID: record.ID,
		PlayerID:     playerID,
		PlayerName:   playerName,
		Text:         text,
	}
	return s.db.Create(&message).Error
}

func (s *SocialService) GetChatHistory(gamePin string, limit int) ([]models.ChatMessage, error) {
	var record models.GameRecord
	if err := s.db.Where("pin = ?", strings.ToLower(gamePin)).First(&record).Error; err != nil {
		return nil, errors.New("game not found")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var messages []models.ChatMessage
	err := s.db.Where("game_record_id = ?", record.ID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}
