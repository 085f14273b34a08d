package games

import (
	"errors"
	"math/rand"
)

// Deduction move types.
const (
	MoveClue = "clue"
	MoveVote = "vote"
)

// Deduction phases.
const (
	PhaseClue = "clue"
	PhaseVote = "vote"
)

var deductionWordPairs = [][2]string{
	{"beach", "desert"},
	{"coffee", "tea"},
	{"train", "tram"},
	{"violin", "cello"},
	{"castle", "cathedral"},
	{"penguin", "seagull"},
}

// DeductionData is the payload of the social-deduction game. Every player gets
// the secret word except the imposter, who gets the decoy. Rounds alternate
// between a clue phase and a vote phase; a majority vote ejects a player.
type DeductionData struct {
	Word       string              `json:"word"`
	DecoyWord  string              `json:"decoy_word"`
	ImposterID string              `json:"imposter_id"`
	Phase      string              `json:"phase"`
	Round      int                 `json:"round"`
	Clues      map[string][]string `json:"clues"`
	Votes      map[string]string   `json:"votes"`
	Ejected    []string            `json:"ejected"`
	CrewWin    bool                `json:"crew_win"`
}

func (d *DeductionData) Clone() GameData {
	clone := &DeductionData{
		Word:       d.Word,
		DecoyWord:  d.DecoyWord,
		ImposterID: d.ImposterID,
		Phase:      d.Phase,
		Round:      d.Round,
		Clues:      make(map[string][]string, len(d.Clues)),
		Votes:      make(map[string]string, len(d.Votes)),
		Ejected:    append([]string(nil), d.Ejected...),
		CrewWin:    d.CrewWin,
	}
	for k, v := range d.Clues {
		clone.Clues[k] = append([]string(nil), v...)
	}
	for k, v := range d.Votes {
		clone.Votes[k] = v
	}
	return clone
}

// DeductionGame is an imposter-word engine. Clues and votes are collected from
// every surviving player in any order, so the turn cursor is unused.
type DeductionGame struct{}

func (g *DeductionGame) Name() string    { return "deduction" }
func (g *DeductionGame) MinPlayers() int { return 4 }
func (g *DeductionGame) MaxPlayers() int { return 8 }

func (g *DeductionGame) NewData() GameData { return &DeductionData{} }

func (g *DeductionGame) InitialData(players []Player) GameData {
	pair := deductionWordPairs[rand.Intn(len(deductionWordPairs))]
	data := &DeductionData{
		Word:      pair[0],
		DecoyWord: pair[1],
		Phase:     PhaseClue,
		Round:     1,
		Clues:     make(map[string][]string),
		Votes:     make(map[string]string),
		Ejected:   []string{},
	}
	if len(players) > 0 {
		data.ImposterID = players[rand.Intn(len(players))].ID
	}
	return data
}

func (g *DeductionGame) data(state *GameState) *DeductionData {
	data, _ := state.Data.(*DeductionData)
	return data
}

func (d *DeductionData) isEjected(playerID string) bool {
	for _, id := range d.Ejected {
		if id == playerID {
			return true
		}
	}
	return false
}

func (d *DeductionData) aliveCount(state *GameState) int {
	alive := 0
	for _, p := range state.Players {
		if !d.isEjected(p.ID) {
			alive++
		}
	}
	return alive
}

func (g *DeductionGame) ValidateMove(state *GameState, move Move) bool {
	data := g.data(state)
	if data == nil || data.isEjected(move.PlayerID) {
		return false
	}
	switch move.Type {
	case MoveClue:
		if data.Phase != PhaseClue {
			return false
		}
		if len(data.Clues[move.PlayerID]) >= data.Round {
			return false
		}
		text, ok := moveClueText(move)
		return ok && text != ""
	case MoveVote:
		if data.Phase != PhaseVote {
			return false
		}
		if _, voted := data.Votes[move.PlayerID]; voted {
			return false
		}
		target, ok := moveVoteTarget(move)
		if !ok || target == move.PlayerID || data.isEjected(target) {
			return false
		}
		return state.FindPlayer(target) != nil
	}
	return false
}

func (g *DeductionGame) ApplyMove(state *GameState, move Move) (bool, error) {
	data := g.data(state)
	if data == nil {
		return false, errors.New("deduction payload missing")
	}
	switch move.Type {
	case MoveClue:
		text, _ := moveClueText(move)
		data.Clues[move.PlayerID] = append(data.Clues[move.PlayerID], text)
		if g.allCluesIn(state, data) {
			data.Phase = PhaseVote
		}
		return false, nil
	case MoveVote:
		target, _ := moveVoteTarget(move)
		data.Votes[move.PlayerID] = target
		if len(data.Votes) == data.aliveCount(state) {
			g.resolveVote(state, data)
		}
		return false, nil
	}
	return false, errors.New("unknown deduction move type: " + move.Type)
}

func (g *DeductionGame) allCluesIn(state *GameState, data *DeductionData) bool {
	for _, p := range state.Players {
		if data.isEjected(p.ID) {
			continue
		}
		if len(data.Clues[p.ID]) < data.Round {
			return false
		}
	}
	return true
}

// resolveVote ejects the strict-majority target. Ties eject nobody; the game
// just moves on to the next clue round.
func (g *DeductionGame) resolveVote(state *GameState, data *DeductionData) {
	tally := make(map[string]int)
	for _, target := range data.Votes {
		tally[target]++
	}
	ejected, best := "", 0
	tied := false
	for target, count := range tally {
		if count > best {
			ejected, best = target, count
			tied = false
		} else if count == best {
			tied = true
		}
	}
	if !tied && ejected != "" {
		data.Ejected = append(data.Ejected, ejected)
		if ejected == data.ImposterID {
			data.CrewWin = true
		}
	}
	data.Votes = make(map[string]string)
	data.Phase = PhaseClue
	data.Round++
}

// CheckWinCondition crowns the imposter once only two players survive. A crew
// victory ends the match collectively, so it reports through GameOver with no
// single winner.
func (g *DeductionGame) CheckWinCondition(state *GameState) *Player {
	data := g.data(state)
	if data == nil || data.CrewWin {
		return nil
	}
	if data.aliveCount(state) <= 2 && !data.isEjected(data.ImposterID) {
		return state.FindPlayer(data.ImposterID)
	}
	return nil
}

func (g *DeductionGame) GameOver(state *GameState) bool {
	data := g.data(state)
	return data != nil && data.CrewWin
}

func (g *DeductionGame) Rules() []string {
	return []string{
		"Everyone receives a secret word, except one imposter who gets a decoy.",
		"Each round every player gives a one-word clue about their word.",
		"After clues, everyone votes; a majority ejects a player.",
		"Ejecting the imposter wins the game for the crew.",
		"The imposter wins by surviving until only two players remain.",
	}
}

func moveClueText(move Move) (string, bool) {
	v, ok := move.Data["text"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func moveVoteTarget(move Move) (string, bool) {
	v, ok := move.Data["target"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
