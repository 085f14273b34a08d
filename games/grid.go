package games

import "errors"

const gridCells = 9

// MovePlace claims one cell of the grid.
const MovePlace = "place"

var gridLines = [][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, // rows
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8}, // columns
	{0, 4, 8}, {2, 4, 6}, // diagonals
}

// GridData is the payload of the grid-placement game: each cell holds the id
// of the player who claimed it, or "" while empty.
type GridData struct {
	Board []string `json:"board"`
	Moves int      `json:"moves"`
}

func (d *GridData) Clone() GameData {
	return &GridData{
		Board: append([]string(nil), d.Board...),
		Moves: d.Moves,
	}
}

// GridGame is a two-player three-in-a-row engine.
type GridGame struct{}

func (g *GridGame) Name() string    { return "grid" }
func (g *GridGame) MinPlayers() int { return 2 }
func (g *GridGame) MaxPlayers() int { return 2 }

func (g *GridGame) NewData() GameData { return &GridData{} }

func (g *GridGame) InitialData(players []Player) GameData {
	return &GridData{Board: make([]string, gridCells)}
}

func (g *GridGame) data(state *GameState) *GridData {
	data, _ := state.Data.(*GridData)
	return data
}

func (g *GridGame) ValidateMove(state *GameState, move Move) bool {
	data := g.data(state)
	if data == nil || move.Type != MovePlace {
		return false
	}
	current := state.CurrentPlayer()
	if current == nil || current.ID != move.PlayerID {
		return false
	}
	cell, ok := moveCell(move)
	return ok && cell >= 0 && cell < len(data.Board) && data.Board[cell] == ""
}

func (g *GridGame) ApplyMove(state *GameState, move Move) (bool, error) {
	data := g.data(state)
	if data == nil {
		return false, errors.New("grid payload missing")
	}
	cell, _ := moveCell(move)
	data.Board[cell] = move.PlayerID
	data.Moves++
	return true, nil
}

func (g *GridGame) CheckWinCondition(state *GameState) *Player {
	data := g.data(state)
	if data == nil {
		return nil
	}
	for _, line := range gridLines {
		owner := data.Board[line[0]]
		if owner != "" && owner == data.Board[line[1]] && owner == data.Board[line[2]] {
			return state.FindPlayer(owner)
		}
	}
	return nil
}

func (g *GridGame) GameOver(state *GameState) bool {
	data := g.data(state)
	return data != nil && data.Moves >= len(data.Board)
}

func (g *GridGame) Rules() []string {
	return []string{
		"Players take turns claiming one empty cell of a 3x3 grid.",
		"Three of your cells in a row, column or diagonal wins.",
		"A full board with no line is a draw.",
	}
}

func moveCell(move Move) (int, bool) {
	v, ok := move.Data["cell"]
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
