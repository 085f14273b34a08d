package games

import (
	"errors"
	"math/rand"
)

const (
	DiceCount    = 5
	RollsPerTurn = 3
	totalRounds  = 13
)

// Dice move types.
const (
	MoveRoll  = "roll"
	MoveHold  = "hold"
	MoveScore = "score"
)

// DiceData is the payload of the dice-scoring game: a shared set of dice with
// a held mask and roll budget for the current turn, plus per-player scorecards.
type DiceData struct {
	Dice       []int                     `json:"dice"`
	Held       []bool                    `json:"held"`
	RollsLeft  int                       `json:"rolls_left"`
	Scorecards map[string]map[string]int `json:"scorecards"`
	Round      int                       `json:"round"`
}

func (d *DiceData) Clone() GameData {
	clone := &DiceData{
		Dice:       append([]int(nil), d.Dice...),
		Held:       append([]bool(nil), d.Held...),
		RollsLeft:  d.RollsLeft,
		Scorecards: make(map[string]map[string]int, len(d.Scorecards)),
		Round:      d.Round,
	}
	for playerID, card := range d.Scorecards {
		cardCopy := make(map[string]int, len(card))
		for category, score := range card {
			cardCopy[category] = score
		}
		clone.Scorecards[playerID] = cardCopy
	}
	return clone
}

// ResetTurnTransients clears the per-turn state: held mask and roll budget.
func (d *DiceData) ResetTurnTransients() {
	for i := range d.Held {
		d.Held[i] = false
	}
	d.RollsLeft = RollsPerTurn
}

// DiceGame is the Yahtzee-style rule engine.
type DiceGame struct{}

func (g *DiceGame) Name() string    { return "dice" }
func (g *DiceGame) MinPlayers() int { return 2 }
func (g *DiceGame) MaxPlayers() int { return 4 }

func (g *DiceGame) NewData() GameData { return &DiceData{} }

func (g *DiceGame) InitialData(players []Player) GameData {
	data := &DiceData{
		Dice:       make([]int, DiceCount),
		Held:       make([]bool, DiceCount),
		RollsLeft:  RollsPerTurn,
		Scorecards: make(map[string]map[string]int, len(players)),
		Round:      1,
	}
	for i := range data.Dice {
		data.Dice[i] = 1
	}
	for _, p := range players {
		data.Scorecards[p.ID] = make(map[string]int)
	}
	return data
}

func (g *DiceGame) data(state *GameState) *DiceData {
	data, _ := state.Data.(*DiceData)
	return data
}

func (g *DiceGame) ValidateMove(state *GameState, move Move) bool {
	data := g.data(state)
	if data == nil {
		return false
	}
	current := state.CurrentPlayer()
	if current == nil || current.ID != move.PlayerID {
		return false
	}

	switch move.Type {
	case MoveRoll:
		if data.RollsLeft <= 0 {
			return false
		}
		if mask, ok := moveHeldMask(move); ok && len(mask) != len(data.Dice) {
			return false
		}
		return true
	case MoveHold:
		// Holding only makes sense once the turn's first roll happened.
		if data.RollsLeft >= RollsPerTurn {
			return false
		}
		if mask, ok := moveHeldMask(move); ok {
			return len(mask) == len(data.Dice)
		}
		idx, ok := moveDieIndex(move)
		return ok && idx >= 0 && idx < len(data.Dice)
	case MoveScore:
		if data.RollsLeft >= RollsPerTurn {
			return false
		}
		category, ok := moveCategory(move)
		if !ok || !validCategory(category) {
			return false
		}
		card, ok := data.Scorecards[move.PlayerID]
		if !ok {
			return false
		}
		_, taken := card[category]
		return !taken
	}
	return false
}

func (g *DiceGame) ApplyMove(state *GameState, move Move) (bool, error) {
	data := g.data(state)
	if data == nil {
		return false, errors.New("dice payload missing")
	}

	switch move.Type {
	case MoveRoll:
		// An explicit mask rides along with the roll and replaces the previous
		// one atomically, so clients need not send a separate hold first.
		if mask, ok := moveHeldMask(move); ok {
			copy(data.Held, mask)
		}
		for i := range data.Dice {
			if !data.Held[i] {
				data.Dice[i] = rand.Intn(6) + 1
			}
		}
		data.RollsLeft--
		return false, nil
	case MoveHold:
		if mask, ok := moveHeldMask(move); ok {
			copy(data.Held, mask)
		} else if idx, ok := moveDieIndex(move); ok {
			data.Held[idx] = !data.Held[idx]
		}
		return false, nil
	case MoveScore:
		category, _ := moveCategory(move)
		data.Scorecards[move.PlayerID][category] = CalculateScore(data.Dice, category)
		data.ResetTurnTransients()
		if state.CurrentPlayerIndex == len(state.Players)-1 {
			data.Round++
		}
		return true, nil
	}
	return false, errors.New("unknown dice move type: " + move.Type)
}

// CheckWinCondition returns the unique highest scorer once every scorecard is
// complete. A tie for the top score is a draw, reported via GameOver instead.
func (g *DiceGame) CheckWinCondition(state *GameState) *Player {
	data := g.data(state)
	if data == nil || !g.allScorecardsComplete(state) {
		return nil
	}
	var winner *Player
	bestTotal := -1
	tied := false
	for i := range state.Players {
		total := TotalScore(data.Scorecards[state.Players[i].ID])
		if total > bestTotal {
			bestTotal = total
			winner = &state.Players[i]
			tied = false
		} else if total == bestTotal {
			tied = true
		}
	}
	if tied {
		return nil
	}
	return winner
}

func (g *DiceGame) GameOver(state *GameState) bool {
	return g.allScorecardsComplete(state)
}

func (g *DiceGame) allScorecardsComplete(state *GameState) bool {
	data := g.data(state)
	if data == nil || len(state.Players) == 0 {
		return false
	}
	for _, p := range state.Players {
		if len(data.Scorecards[p.ID]) < len(Categories) {
			return false
		}
	}
	return true
}

func (g *DiceGame) Rules() []string {
	return []string{
		"Each turn you may roll the five dice up to three times.",
		"Between rolls, hold any dice you want to keep.",
		"End your turn by scoring the dice into one open category.",
		"Each category can be scored exactly once per player.",
		"Upper section bonus: 35 points if ones through sixes total 63 or more.",
		"Highest grand total after thirteen rounds wins.",
	}
}

func validCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Move data accessors. Move payloads arrive as decoded JSON, so numbers are
// float64 and arrays are []interface{}.

func moveCategory(move Move) (string, bool) {
	v, ok := move.Data["category"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func moveDieIndex(move Move) (int, bool) {
	v, ok := move.Data["die"]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

func moveHeldMask(move Move) ([]bool, bool) {
	v, ok := move.Data["held"]
	if !ok {
		return nil, false
	}
	switch mask := v.(type) {
	case []bool:
		return mask, true
	case []interface{}:
		out := make([]bool, 0, len(mask))
		for _, item := range mask {
			b, ok := item.(bool)
			if !ok {
				return nil, false
			}
			out = append(out, b)
		}
		return out, true
	}
	return nil, false
}
