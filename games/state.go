package games

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"
)

// Game lifecycle statuses.
const (
	StatusWaiting  = "waiting"
	StatusPlaying  = "playing"
	StatusFinished = "finished"
)

// Player is one seat in a game's roster. Order in the roster is turn order.
type Player struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	IsActive       bool       `json:"is_active"`
	DisconnectedAt *time.Time `json:"disconnected_at,omitempty"`
}

// Move is the single submission shape for every trigger: human moves,
// timer-driven auto actions and bot steps all arrive as a Move.
type Move struct {
	PlayerID  string                 `json:"player_id"`
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// GameData is the game-specific payload held opaquely by the state machine.
// Concrete types live with their engines and must deep-copy via Clone.
type GameData interface {
	Clone() GameData
}

// GameState is the authoritative state of one game instance. It is mutated
// only by the process that owns the instance; observers hold copies.
type GameState struct {
	ID                 string    `json:"id"`
	GameType           string    `json:"game_type"`
	Players            []Player  `json:"players"`
	CurrentPlayerIndex int       `json:"current_player_index"`
	Status             string    `json:"status"`
	Data               GameData  `json:"data,omitempty"`
	Winner             *Player   `json:"winner,omitempty"`
	LastMoveAt         time.Time `json:"last_move_at"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewGameState creates an empty game in the waiting state.
func NewGameState(id, gameType string) *GameState {
	now := time.Now()
	return &GameState{
		ID:        id,
		GameType:  gameType,
		Players:   []Player{},
		Status:    StatusWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (g *GameState) engine() (Engine, bool) {
	return GetEngine(g.GameType)
}

// CurrentPlayer returns the player at the turn cursor, or nil for an empty roster.
func (g *GameState) CurrentPlayer() *Player {
	if len(g.Players) == 0 {
		return nil
	}
	if g.CurrentPlayerIndex < 0 || g.CurrentPlayerIndex >= len(g.Players) {
		return nil
	}
	return &g.Players[g.CurrentPlayerIndex]
}

// FindPlayer returns the roster entry with the given id, or nil.
func (g *GameState) FindPlayer(playerID string) *Player {
	for i := range g.Players {
		if g.Players[i].ID == playerID {
			return &g.Players[i]
		}
	}
	return nil
}

// AddPlayer appends a player to the roster. It fails once the game has started,
// when the roster is full, or when the id is already seated.
func (g *GameState) AddPlayer(player Player) bool {
	if g.Status == StatusPlaying {
		return false
	}
	engine, ok := g.engine()
	if !ok {
		return false
	}
	if len(g.Players) >= engine.MaxPlayers() {
		return false
	}
	if g.FindPlayer(player.ID) != nil {
		return false
	}
	player.IsActive = true
	player.DisconnectedAt = nil
	g.Players = append(g.Players, player)
	g.UpdatedAt = time.Now()
	return true
}

// RemovePlayer removes the matching player if present. When the removed index
// is at or below the cursor, the cursor shifts down so it keeps pointing at
// the same logical next player.
func (g *GameState) RemovePlayer(playerID string) bool {
	for i := range g.Players {
		if g.Players[i].ID != playerID {
			continue
		}
		g.Players = append(g.Players[:i], g.Players[i+1:]...)
		if i <= g.CurrentPlayerIndex && g.CurrentPlayerIndex > 0 {
			g.CurrentPlayerIndex--
		}
		if g.CurrentPlayerIndex >= len(g.Players) {
			g.CurrentPlayerIndex = 0
		}
		g.UpdatedAt = time.Now()
		return true
	}
	return false
}

// StartGame seeds the payload and flips the game to playing. Fails without
// side effects when the roster is out of bounds or the game already started.
func (g *GameState) StartGame() bool {
	if g.Status != StatusWaiting {
		return false
	}
	engine, ok := g.engine()
	if !ok {
		return false
	}
	if len(g.Players) < engine.MinPlayers() || len(g.Players) > engine.MaxPlayers() {
		return false
	}
	g.Data = engine.InitialData(g.Players)
	g.Status = StatusPlaying
	g.CurrentPlayerIndex = 0
	now := time.Now()
	g.LastMoveAt = now
	g.UpdatedAt = now
	return true
}

// ValidateMove reports whether the move is legal right now. The machine checks
// lifecycle and roster membership; everything else is the engine's call.
func (g *GameState) ValidateMove(move Move) bool {
	if g.Status != StatusPlaying {
		return false
	}
	if g.FindPlayer(move.PlayerID) == nil {
		return false
	}
	engine, ok := g.engine()
	if !ok {
		return false
	}
	return engine.ValidateMove(g, move)
}

// MakeMove validates and applies one move. Returns false with no state change
// for illegal moves. On success the cursor advances when the engine reports
// the turn over, and the win condition is evaluated.
func (g *GameState) MakeMove(move Move) bool {
	if !g.ValidateMove(move) {
		return false
	}
	engine, _ := g.engine()
	turnOver, err := engine.ApplyMove(g, move)
	if err != nil {
		return false
	}

	now := time.Now()
	g.LastMoveAt = now
	g.UpdatedAt = now

	if winner := engine.CheckWinCondition(g); winner != nil {
		g.Status = StatusFinished
		w := *winner
		g.Winner = &w
		return true
	}
	if engine.GameOver(g) {
		g.Status = StatusFinished
		return true
	}
	if turnOver && len(g.Players) > 0 {
		g.CurrentPlayerIndex = (g.CurrentPlayerIndex + 1) % len(g.Players)
	}
	return true
}

// CheckWinCondition is a pure read of the current winner, safe at any time.
func (g *GameState) CheckWinCondition() *Player {
	if g.Data == nil {
		return nil
	}
	engine, ok := g.engine()
	if !ok {
		return nil
	}
	return engine.CheckWinCondition(g)
}

// ShufflePlayers randomizes turn order. Only allowed before the game starts
// so the cursor can never silently detach from the player it points at.
func (g *GameState) ShufflePlayers() bool {
	if g.Status != StatusWaiting {
		return false
	}
	rand.Shuffle(len(g.Players), func(i, j int) {
		g.Players[i], g.Players[j] = g.Players[j], g.Players[i]
	})
	g.UpdatedAt = time.Now()
	return true
}

// Reset prepares a finished game for a rematch: same roster, fresh payload.
func (g *GameState) Reset() bool {
	if g.Status != StatusFinished {
		return false
	}
	g.Status = StatusWaiting
	g.Data = nil
	g.Winner = nil
	g.CurrentPlayerIndex = 0
	g.UpdatedAt = time.Now()
	return true
}

// Snapshot returns a defensive deep copy of the full state.
func (g *GameState) Snapshot() *GameState {
	clone := *g
	clone.Players = make([]Player, len(g.Players))
	copy(clone.Players, g.Players)
	for i := range clone.Players {
		if ts := g.Players[i].DisconnectedAt; ts != nil {
			t := *ts
			clone.Players[i].DisconnectedAt = &t
		}
	}
	if g.Data != nil {
		clone.Data = g.Data.Clone()
	}
	if g.Winner != nil {
		w := *g.Winner
		clone.Winner = &w
	}
	return &clone
}

// Marshal serializes the state for persistence and transport.
func (g *GameState) Marshal() ([]byte, error) {
	return json.Marshal(g)
}

// stateAlias carries the raw payload through decoding so the concrete type
// can be picked by game type tag.
type stateAlias struct {
	ID                 string          `json:"id"`
	GameType           string          `json:"game_type"`
	Players            []Player        `json:"players"`
	CurrentPlayerIndex int             `json:"current_player_index"`
	Status             string          `json:"status"`
	Data               json.RawMessage `json:"data,omitempty"`
	Winner             *Player         `json:"winner,omitempty"`
	LastMoveAt         time.Time       `json:"last_move_at"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// UnmarshalState decodes a snapshot, tolerating partial data: a missing roster
// becomes an empty roster, an unknown status degrades to waiting, and the
// cursor is clamped back into range rather than rejected.
func UnmarshalState(data []byte) (*GameState, error) {
	var alias stateAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game state: %w", err)
	}

	state := &GameState{
		ID:                 alias.ID,
		GameType:           alias.GameType,
		Players:            alias.Players,
		CurrentPlayerIndex: alias.CurrentPlayerIndex,
		Status:             alias.Status,
		Winner:             alias.Winner,
		LastMoveAt:         alias.LastMoveAt,
		CreatedAt:          alias.CreatedAt,
		UpdatedAt:          alias.UpdatedAt,
	}

	if state.Players == nil {
		state.Players = []Player{}
	}
	switch state.Status {
	case StatusWaiting, StatusPlaying, StatusFinished:
	default:
		state.Status = StatusWaiting
	}
	if len(state.Players) == 0 {
		state.CurrentPlayerIndex = 0
	} else if state.CurrentPlayerIndex < 0 || state.CurrentPlayerIndex >= len(state.Players) {
		state.CurrentPlayerIndex = 0
	}

	if engine, ok := GetEngine(state.GameType); ok && len(alias.Data) > 0 {
		payload := engine.NewData()
		if err := json.Unmarshal(alias.Data, payload); err == nil {
			state.Data = payload
		}
	}
	if state.Data == nil && state.Status == StatusPlaying {
		// Corrupt or missing payload on a live game: fall back to engine defaults
		// instead of failing restoration.
		if engine, ok := GetEngine(state.GameType); ok {
			state.Data = engine.InitialData(state.Players)
		}
	}
	return state, nil
}

// Restore replaces this state wholesale from a serialized snapshot.
func (g *GameState) Restore(data []byte) error {
	state, err := UnmarshalState(data)
	if err != nil {
		return err
	}
	*g = *state
	return nil
}
