package games

// Engine is implemented by each concrete game type. The abstract state machine
// owns the lifecycle and turn order; the engine owns everything inside Data.
type Engine interface {
	// Name returns the game type tag used for registry lookup and state tagging.
	Name() string

	// MinPlayers and MaxPlayers bound the roster size.
	MinPlayers() int
	MaxPlayers() int

	// NewData returns an empty payload value suitable for JSON decoding.
	NewData() GameData

	// InitialData seeds the game payload at start time for the given roster.
	InitialData(players []Player) GameData

	// ValidateMove reports whether the move is legal in the current state.
	// Illegality is an expected outcome, never an error.
	ValidateMove(state *GameState, move Move) bool

	// ApplyMove mutates Data for an already-validated move. It reports whether
	// the mover's turn is over (the machine advances the cursor only then).
	ApplyMove(state *GameState, move Move) (turnOver bool, err error)

	// CheckWinCondition returns the winning player, or nil if nobody has won yet.
	CheckWinCondition(state *GameState) *Player

	// GameOver reports whether the game has run to completion without a winner
	// (e.g. a draw). The machine finishes the game but leaves Winner unset.
	GameOver(state *GameState) bool

	// Rules returns human-readable rule summaries. Never empty.
	Rules() []string
}

// engineRegistry holds all available game engines keyed by game type.
var engineRegistry = make(map[string]Engine)

// Register adds an engine to the registry.
func Register(engine Engine) {
	engineRegistry[engine.Name()] = engine
}

// GetEngine retrieves an engine by game type.
func GetEngine(gameType string) (Engine, bool) {
	engine, exists := engineRegistry[gameType]
	return engine, exists
}

// ListGameTypes returns all registered game type tags.
func ListGameTypes() []string {
	names := make([]string, 0, len(engineRegistry))
	for name := range engineRegistry {
		names = append(names, name)
	}
	return names
}

// init registers all games.
func init() {
	Register(&DiceGame{})
	Register(&GridGame{})
	Register(&RevealGame{})
	Register(&DeductionGame{})
}
