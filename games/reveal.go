package games

import "errors"

// MoveChoose submits this round's secret choice.
const MoveChoose = "choose"

const revealTargetWins = 3

var revealBeats = map[string]string{
	"rock":     "scissors",
	"paper":    "rock",
	"scissors": "paper",
}

// RevealData is the payload of the simultaneous-reveal game. Choices stay
// hidden until every player has committed, then the round resolves at once.
type RevealData struct {
	Round      int               `json:"round"`
	TargetWins int               `json:"target_wins"`
	Choices    map[string]string `json:"choices"`
	Wins       map[string]int    `json:"wins"`
	LastRound  map[string]string `json:"last_round,omitempty"`
}

func (d *RevealData) Clone() GameData {
	clone := &RevealData{
		Round:      d.Round,
		TargetWins: d.TargetWins,
		Choices:    make(map[string]string, len(d.Choices)),
		Wins:       make(map[string]int, len(d.Wins)),
	}
	for k, v := range d.Choices {
		clone.Choices[k] = v
	}
	for k, v := range d.Wins {
		clone.Wins[k] = v
	}
	if d.LastRound != nil {
		clone.LastRound = make(map[string]string, len(d.LastRound))
		for k, v := range d.LastRound {
			clone.LastRound[k] = v
		}
	}
	return clone
}

// RevealGame is a best-of rock-paper-scissors engine. Both players move every
// round, so the turn cursor is unused and moves never end a "turn".
type RevealGame struct{}

func (g *RevealGame) Name() string    { return "reveal" }
func (g *RevealGame) MinPlayers() int { return 2 }
func (g *RevealGame) MaxPlayers() int { return 2 }

func (g *RevealGame) NewData() GameData { return &RevealData{} }

func (g *RevealGame) InitialData(players []Player) GameData {
	data := &RevealData{
		Round:      1,
		TargetWins: revealTargetWins,
		Choices:    make(map[string]string),
		Wins:       make(map[string]int, len(players)),
	}
	for _, p := range players {
		data.Wins[p.ID] = 0
	}
	return data
}

func (g *RevealGame) data(state *GameState) *RevealData {
	data, _ := state.Data.(*RevealData)
	return data
}

func (g *RevealGame) ValidateMove(state *GameState, move Move) bool {
	data := g.data(state)
	if data == nil || move.Type != MoveChoose {
		return false
	}
	if _, chosen := data.Choices[move.PlayerID]; chosen {
		return false
	}
	choice, ok := moveChoice(move)
	if !ok {
		return false
	}
	_, valid := revealBeats[choice]
	return valid
}

func (g *RevealGame) ApplyMove(state *GameState, move Move) (bool, error) {
	data := g.data(state)
	if data == nil {
		return false, errors.New("reveal payload missing")
	}
	choice, _ := moveChoice(move)
	data.Choices[move.PlayerID] = choice

	if len(data.Choices) == len(state.Players) {
		g.resolveRound(state, data)
	}
	return false, nil
}

func (g *RevealGame) resolveRound(state *GameState, data *RevealData) {
	a, b := state.Players[0].ID, state.Players[1].ID
	if revealBeats[data.Choices[a]] == data.Choices[b] {
		data.Wins[a]++
	} else if revealBeats[data.Choices[b]] == data.Choices[a] {
		data.Wins[b]++
	}
	data.LastRound = data.Choices
	data.Choices = make(map[string]string)
	data.Round++
}

func (g *RevealGame) CheckWinCondition(state *GameState) *Player {
	data := g.data(state)
	if data == nil {
		return nil
	}
	for i := range state.Players {
		if data.Wins[state.Players[i].ID] >= data.TargetWins {
			return &state.Players[i]
		}
	}
	return nil
}

func (g *RevealGame) GameOver(state *GameState) bool { return false }

func (g *RevealGame) Rules() []string {
	return []string{
		"Both players secretly pick rock, paper or scissors each round.",
		"Choices are revealed together once everyone has committed.",
		"Rock beats scissors, scissors beats paper, paper beats rock.",
		"First to three round wins takes the match.",
	}
}

func moveChoice(move Move) (string, bool) {
	v, ok := move.Data["choice"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
