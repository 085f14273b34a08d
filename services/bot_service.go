package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"tabletop/games"

	"github.com/gin-gonic/gin"
)

// gameAuthority is the slice of GameService a bot needs: state reads, the
// shared move-submission entry point, and the per-(game, bot) turn guard.
type gameAuthority interface {
	GetGameState(pin string) (*games.GameState, error)
	SubmitMove(pin string, move games.Move, hub *Hub) (*games.GameState, bool, error)
	BeginBotTurn(pin, botID string) bool
	EndBotTurn(pin, botID string)
	Broadcast(hub *Hub, pin, event string, payload gin.H)
}

// BotService plays complete dice turns for automated players. Every step is
// an ordinary validated move; the bot holds no privileged path.
type BotService struct {
	authority gameAuthority
}

func NewBotService(gameService *GameService) *BotService {
	return &BotService{authority: gameService}
}

// Bot step names, emitted once per sub-decision for visualization.
const (
	StepThinking = "thinking"
	StepRoll     = "roll"
	StepHold     = "hold"
	StepScore    = "score"
)

// PlayTurn executes one full turn for a bot: roll, pick dice to keep, roll
// again, then score the best available category. State is re-fetched before
// every step because other players may disconnect or leave concurrently; the
// first step that fails aborts the rest and propagates, so a broken turn is
// visible to the caller instead of silently half-played.
func (b *BotService) PlayTurn(pin, botID string, hub *Hub) error {
	if !b.authority.BeginBotTurn(pin, botID) {
		return fmt.Errorf("bot turn already in progress for %s in game %s", botID, pin)
	}
	defer b.authority.EndBotTurn(pin, botID)

	b.emitStep(hub, pin, botID, StepThinking, nil)

	if err := b.requireBotTurn(pin, botID); err != nil {
		return err
	}
	if err := b.submit(pin, botID, games.MoveRoll, map[string]interface{}{}, hub); err != nil {
		return err
	}
	b.emitStep(hub, pin, botID, StepRoll, nil)

	state, err := b.requireBotTurnState(pin, botID)
	if err != nil {
		return err
	}
	data, ok := state.Data.(*games.DiceData)
	if !ok {
		return errors.New("bot can only play dice games")
	}

	held := keepMostFrequentFace(data.Dice)
	b.emitStep(hub, pin, botID, StepHold, gin.H{"held": held})

	// The held mask rides along with the second roll atomically.
	if err := b.submit(pin, botID, games.MoveRoll, map[string]interface{}{"held": held}, hub); err != nil {
		return err
	}
	b.emitStep(hub, pin, botID, StepRoll, nil)

	state, err = b.requireBotTurnState(pin, botID)
	if err != nil {
		return err
	}
	data, ok = state.Data.(*games.DiceData)
	if !ok {
		return errors.New("bot can only play dice games")
	}

	category := games.BestAvailableCategory(data.Dice, data.Scorecards[botID])
	if category == "" {
		return errors.New("no category available for the bot to score")
	}
	if err := b.submit(pin, botID, games.MoveScore, map[string]interface{}{"category": category}, hub); err != nil {
		return err
	}
	b.emitStep(hub, pin, botID, StepScore, gin.H{"category": category})

	log.Printf("Bot %s finished its turn in game %s scoring %s", botID, pin, category)
	return nil
}

func (b *BotService) submit(pin, botID, moveType string, data map[string]interface{}, hub *Hub) error {
	move := games.Move{
		PlayerID:  botID,
		Type:      moveType,
		Data:      data,
		Timestamp: time.Now(),
	}
	_, ok, err := b.authority.SubmitMove(pin, move, hub)
	if err != nil {
		return fmt.Errorf("bot %s move failed: %w", moveType, err)
	}
	if !ok {
		return fmt.Errorf("bot %s move rejected", moveType)
	}
	return nil
}

func (b *BotService) requireBotTurn(pin, botID string) error {
	_, err := b.requireBotTurnState(pin, botID)
	return err
}

func (b *BotService) requireBotTurnState(pin, botID string) (*games.GameState, error) {
	state, err := b.authority.GetGameState(pin)
	if err != nil {
		return nil, err
	}
	if state.Status != games.StatusPlaying {
		return nil, errors.New("game is not in progress")
	}
	current := state.CurrentPlayer()
	if current == nil || current.ID != botID {
		return nil, errors.New("it is not the bot's turn")
	}
	return state, nil
}

func (b *BotService) emitStep(hub *Hub, pin, botID, step string, detail gin.H) {
	payload := gin.H{"bot_id": botID, "step": step}
	if detail != nil {
		payload["detail"] = detail
	}
	b.authority.Broadcast(hub, pin, "bot_step", payload)
}

// keepMostFrequentFace builds a held mask keeping every die showing the face
// that appears most often. Ties break toward the higher face.
func keepMostFrequentFace(dice []int) []bool {
	counts := make(map[int]int, 6)
	for _, d := range dice {
		counts[d]++
	}
	bestFace, bestCount := 0, 0
	for face := 1; face <= 6; face++ {
		if counts[face] >= bestCount && counts[face] > 0 {
			bestFace, bestCount = face, counts[face]
		}
	}
	held := make([]bool, len(dice))
	for i, d := range dice {
		held[i] = d == bestFace
	}
	return held
}
