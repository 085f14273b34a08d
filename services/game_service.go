package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"tabletop/games"
	"tabletop/models"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"
)

const (
	stateTTL          = 2 * time.Hour
	maxPersistRetries = 3
	botTurnStaleAfter = 30 * time.Second
)

// errMoveRejected flows out of the update closure when a move fails
// validation. It is an expected outcome, unwrapped to a boolean by callers.
var errMoveRejected = errors.New("move rejected")

// ErrGameNotFound is returned when no live state exists for a pin.
var ErrGameNotFound = errors.New("game not found")

type GameService struct {
	db    *gorm.DB
	redis *redis.Client

	// sequence numbers every authority-originated broadcast. Monotonic per
	// process; observers treat it as advisory, not a strict ordering key.
	sequence atomic.Int64

	// locks serializes validate+apply+persist+broadcast per game instance.
	lockMu sync.Mutex
	locks  map[string]*sync.Mutex

	// botTurns guards against two concurrent automated turns for the same
	// (game, bot) pair. Stale entries are aged out rather than trusted.
	botTurnMu sync.Mutex
	botTurns  map[string]time.Time
}

func NewGameService(db *gorm.DB, redisClient *redis.Client) *GameService {
	return &GameService{
		db:       db,
		redis:    redisClient,
		locks:    make(map[string]*sync.Mutex),
		botTurns: make(map[string]time.Time),
	}
}

type CreateGameRequest struct {
	GameType   string `json:"game_type" binding:"required"`
	PlayerName string `json:"player_name" binding:"required"`
}

type JoinGameRequest struct {
	Pin        string `json:"pin" binding:"required"`
	PlayerName string `json:"player_name" binding:"required"`
}

type SubmitMoveRequest struct {
	PlayerID string                 `json:"player_id" binding:"required"`
	Type     string                 `json:"type" binding:"required"`
	Data     map[string]interface{} `json:"data"`
}

func (s *GameService) lockFor(pin string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[pin]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[pin] = lock
	}
	return lock
}

func (s *GameService) generatePin() string {
	bytes := make([]byte, 3)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)[:6]
}

func stateKey(pin string) string {
	return "game:" + strings.ToLower(pin)
}

// Envelope wraps a broadcast payload with the authority's sequencing metadata.
func (s *GameService) Envelope(payload gin.H) gin.H {
	payload["sequence_id"] = s.sequence.Add(1)
	payload["timestamp"] = time.Now()
	return payload
}

// Broadcast sends an authority-originated event to every subscriber of the
// game's channel. Broadcast failure is never fatal to a move: the transport
// re-syncs reconnecting clients from the stored state.
func (s *GameService) Broadcast(hub *Hub, pin, event string, payload gin.H) {
	if hub == nil {
		return
	}
	hub.BroadcastToGame(strings.ToLower(pin), event, s.Envelope(payload))
}

// CreateGame creates a fresh game in the waiting state with the creator seated.
func (s *GameService) CreateGame(gameType string, host games.Player, hostUserID *uint) (*games.GameState, error) {
	engine, ok := games.GetEngine(gameType)
	if !ok {
		return nil, fmt.Errorf("unknown game type %q", gameType)
	}

	pin := s.generatePin()
	state := games.NewGameState(pin, engine.Name())
	if !state.AddPlayer(host) {
		return nil, errors.New("failed to seat the creator")
	}

	record := models.GameRecord{
		Pin:      pin,
		GameType: engine.Name(),
		Status:   games.StatusWaiting,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, err
	}
	participant := models.GameParticipant{
		GameRecordID: record.ID,
		PlayerID:     host.ID,
		UserID:       hostUserID,
		Name:         host.Name,
		JoinedAt:     time.Now(),
	}
	if err := s.db.Create(&participant).Error; err != nil {
		return nil, err
	}

	blob, err := state.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal game state: %w", err)
	}
	if err := s.redis.Set(context.Background(), stateKey(pin), blob, stateTTL).Err(); err != nil {
		return nil, fmt.Errorf("failed to store game state: %w", err)
	}

	log.Printf("Created %s game %s for player %s", engine.Name(), pin, host.ID)
	return state, nil
}

// GetGameState loads the live authoritative snapshot for a pin.
func (s *GameService) GetGameState(pin string) (*games.GameState, error) {
	raw, err := s.redis.Get(context.Background(), stateKey(pin)).Result()
	if err == redis.Nil {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load game state: %w", err)
	}
	return games.UnmarshalState([]byte(raw))
}

// updateState runs fn against the current snapshot and conditionally persists
// the result: the write only lands if nobody else wrote the key in between
// (redis WATCH). A lost race re-reads and recomputes, a bounded number of
// times; exhausting the retries is a definite failure with no partial effect.
func (s *GameService) updateState(pin string, fn func(state *games.GameState) error) (*games.GameState, error) {
	key := stateKey(pin)
	ctx := context.Background()
	var result *games.GameState

	backoff := retry.WithMaxRetries(maxPersistRetries, retry.NewConstant(25*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, key).Result()
			if err == redis.Nil {
				return ErrGameNotFound
			}
			if err != nil {
				return err
			}
			state, err := games.UnmarshalState([]byte(raw))
			if err != nil {
				return err
			}
			if err := fn(state); err != nil {
				return err
			}
			blob, err := state.Marshal()
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, blob, stateTTL)
				return nil
			})
			if err == nil {
				result = state
			}
			return err
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// JoinGame seats a new player into a waiting game.
func (s *GameService) JoinGame(pin string, player games.Player, userID *uint, isBot bool, hub *Hub) (*games.GameState, error) {
	lock := s.lockFor(pin)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.updateState(pin, func(state *games.GameState) error {
		if !state.AddPlayer(player) {
			return errors.New("game is full, already started, or the seat is taken")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var record models.GameRecord
	if err := s.db.Where("pin = ?", strings.ToLower(pin)).First(&record).Error; err == nil {
		participant := models.GameParticipant{
			GameRecordID: record.ID,
			PlayerID:     player.ID,
			UserID:       userID,
			Name:         player.Name,
			IsBot:        isBot,
			JoinedAt:     time.Now(),
		}
		if err := s.db.Create(&participant).Error; err != nil {
			log.Printf("Failed to record participant %s for game %s: %v", player.ID, pin, err)
		}
	}

	s.Broadcast(hub, pin, "player_joined", gin.H{"player": player, "state": state})
	return state, nil
}

// LeaveGame removes a player from the roster entirely (distinct from a
// disconnect, which only flags connectivity).
func (s *GameService) LeaveGame(pin, playerID string, hub *Hub) (*games.GameState, error) {
	lock := s.lockFor(pin)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.updateState(pin, func(state *games.GameState) error {
		if !state.RemovePlayer(playerID) {
			return errors.New("player not in game")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Broadcast(hub, pin, "player_left", gin.H{"player_id": playerID, "state": state})
	return state, nil
}

// StartGame flips a waiting game to playing, optionally shuffling turn order
// once for fairness before the cursor is pinned.
func (s *GameService) StartGame(pin string, shuffle bool, hub *Hub) (*games.GameState, error) {
	lock := s.lockFor(pin)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.updateState(pin, func(state *games.GameState) error {
		if shuffle {
			state.ShufflePlayers()
		}
		if !state.StartGame() {
			return errors.New("game cannot start: wrong status or roster size")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.db.Model(&models.GameRecord{}).Where("pin = ?", strings.ToLower(pin)).
		Updates(map[string]interface{}{"status": games.StatusPlaying, "started_at": now}).Error; err != nil {
		log.Printf("Failed to update game record for %s: %v", pin, err)
	}

	s.Broadcast(hub, pin, "game_started", gin.H{"state": state})
	return state, nil
}

// Rematch resets a finished game back to waiting with the same roster.
func (s *GameService) Rematch(pin string, hub *Hub) (*games.GameState, error) {
	lock := s.lockFor(pin)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.updateState(pin, func(state *games.GameState) error {
		if !state.Reset() {
			return errors.New("only finished games can be reset")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.GameRecord{}).Where("pin = ?", strings.ToLower(pin)).
		Update("status", games.StatusWaiting).Error; err != nil {
		log.Printf("Failed to update game record for %s: %v", pin, err)
	}

	s.Broadcast(hub, pin, "rematch", gin.H{"state": state})
	return state, nil
}

// SubmitMove is the single entry point for every move: human submissions,
// timer-driven auto actions and bot steps. Returns the resulting state and
// whether the move was accepted. An illegal move is (state, false, nil), not
// an error.
func (s *GameService) SubmitMove(pin string, move games.Move, hub *Hub) (*games.GameState, bool, error) {
	lock := s.lockFor(pin)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.updateState(pin, func(state *games.GameState) error {
		if !state.MakeMove(move) {
			return errMoveRejected
		}
		return nil
	})
	if errors.Is(err, errMoveRejected) {
		current, loadErr := s.GetGameState(pin)
		if loadErr != nil {
			return nil, false, loadErr
		}
		return current, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	s.recordMove(pin, move)
	if state.Status == games.StatusFinished {
		s.recordFinish(pin, state)
	}

	s.Broadcast(hub, pin, "game_state", gin.H{"state": state, "move_type": move.Type, "player_id": move.PlayerID})
	return state, true, nil
}

// recordMove appends to the durable move log. The authoritative persist is
// the conditional redis write; a failed audit row is logged, not fatal.
func (s *GameService) recordMove(pin string, move games.Move) {
	var record models.GameRecord
	if err := s.db.Where("pin = ?", strings.ToLower(pin)).First(&record).Error; err != nil {
		log.Printf("Failed to load game record for %s: %v", pin, err)
		return
	}
	row := models.MoveRecord{
		GameRecordID: record.ID,
		PlayerID:     move.PlayerID,
		MoveType:     move.Type,
		SequenceID:   s.sequence.Load(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		log.Printf("Failed to record move for game %s: %v", pin, err)
	}
}

func (s *GameService) recordFinish(pin string, state *games.GameState) {
	blob, err := state.Marshal()
	if err != nil {
		log.Printf("Failed to marshal final snapshot for %s: %v", pin, err)
		return
	}
	updates := map[string]interface{}{
		"status":         games.StatusFinished,
		"ended_at":       time.Now(),
		"final_snapshot": blob,
	}
	if state.Winner != nil {
		updates["winner_id"] = state.Winner.ID
	}
	if err := s.db.Model(&models.GameRecord{}).Where("pin = ?", strings.ToLower(pin)).
		Updates(updates).Error; err != nil {
		log.Printf("Failed to record finish for game %s: %v", pin, err)
	}
}

// HandleConnection flips a player's connectivity flag and, on disconnect
// during play, advances the turn cursor past disconnected non-bot players.
// Returns the ids that were skipped, if any.
func (s *GameService) HandleConnection(pin, playerID string, isActive bool, hub *Hub) (*games.GameState, []string, error) {
	lock := s.lockFor(pin)
	lock.Lock()
	defer lock.Unlock()

	var skipped []string
	changed := false
	now := time.Now()
	state, err := s.updateState(pin, func(state *games.GameState) error {
		skipped = nil
		changed = games.SetPlayerConnection(state, playerID, isActive, now)
		if !changed {
			return nil
		}
		if !isActive && state.Status == games.StatusPlaying {
			skipped, _ = games.AdvanceTurnPastDisconnected(state, s.botIDs(pin), now)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if !changed {
		return state, nil, nil
	}

	s.Broadcast(hub, pin, "player_connection", gin.H{"player_id": playerID, "is_active": isActive})
	if len(skipped) > 0 {
		log.Printf("Skipped disconnected players %v in game %s", skipped, pin)
		s.Broadcast(hub, pin, "turn_skipped", gin.H{"skipped": skipped, "state": state})
	}
	return state, skipped, nil
}

// AutoPlayTurn performs the timer-driven fallback for a stalled turn: roll if
// a roll is still owed, then score the best available category. Every step is
// an ordinary move submission revalidated against current state; the timer
// firing is not itself authorization.
func (s *GameService) AutoPlayTurn(pin, playerID string, hub *Hub) error {
	state, err := s.GetGameState(pin)
	if err != nil {
		return err
	}
	if state.Status != games.StatusPlaying {
		return errors.New("game is not in progress")
	}
	current := state.CurrentPlayer()
	if current == nil || current.ID != playerID {
		return errors.New("it is no longer this player's turn")
	}

	data, ok := state.Data.(*games.DiceData)
	if !ok {
		return errors.New("auto-play is only available for dice games")
	}

	if data.RollsLeft == games.RollsPerTurn {
		move := games.Move{PlayerID: playerID, Type: games.MoveRoll, Data: map[string]interface{}{}, Timestamp: time.Now()}
		if _, ok, err := s.SubmitMove(pin, move, hub); err != nil {
			return err
		} else if !ok {
			return errors.New("auto roll no longer valid")
		}
		state, err = s.GetGameState(pin)
		if err != nil {
			return err
		}
		data, ok = state.Data.(*games.DiceData)
		if !ok {
			return errors.New("game data changed during auto-play")
		}
	}

	category := games.BestAvailableCategory(data.Dice, data.Scorecards[playerID])
	if category == "" {
		return errors.New("no category available to score")
	}
	move := games.Move{
		PlayerID:  playerID,
		Type:      games.MoveScore,
		Data:      map[string]interface{}{"category": category},
		Timestamp: time.Now(),
	}
	if _, ok, err := s.SubmitMove(pin, move, hub); err != nil {
		return err
	} else if !ok {
		return errors.New("auto score no longer valid")
	}
	return nil
}

// IsBot reports whether a seated player is a registered bot.
func (s *GameService) IsBot(pin, playerID string) bool {
	return s.botIDs(pin)[playerID]
}

func (s *GameService) botIDs(pin string) map[string]bool {
	ids := make(map[string]bool)
	var record models.GameRecord
	if err := s.db.Where("pin = ?", strings.ToLower(pin)).First(&record).Error; err != nil {
		return ids
	}
	var participants []models.GameParticipant
	if err := s.db.Where("game_record_id = ? AND is_bot = ?", record.ID, true).Find(&participants).Error; err != nil {
		return ids
	}
	for _, p := range participants {
		ids[p.PlayerID] = true
	}
	return ids
}

// BeginBotTurn claims the automated-turn guard for a (game, bot) pair.
// Returns false while another execution is already in flight. Entries older
// than the stale threshold are treated as abandoned and reclaimed.
func (s *GameService) BeginBotTurn(pin, botID string) bool {
	key := strings.ToLower(pin) + "|" + botID
	s.botTurnMu.Lock()
	defer s.botTurnMu.Unlock()
	if started, ok := s.botTurns[key]; ok && time.Since(started) < botTurnStaleAfter {
		return false
	}
	s.botTurns[key] = time.Now()
	return true
}

// EndBotTurn releases the automated-turn guard.
func (s *GameService) EndBotTurn(pin, botID string) {
	key := strings.ToLower(pin) + "|" + botID
	s.botTurnMu.Lock()
	defer s.botTurnMu.Unlock()
	delete(s.botTurns, key)
}

// GetGameRecord returns the durable record for a pin with its participants.
func (s *GameService) GetGameRecord(pin string) (*models.GameRecord, error) {
	var record models.GameRecord
	err := s.db.Where("pin = ?", strings.ToLower(pin)).
		Preload("Participants").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}
