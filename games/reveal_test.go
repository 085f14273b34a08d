package games

import "testing"

func newStartedRevealGame(t *testing.T) *GameState {
	t.Helper()
	state := NewGameState("g1", "reveal")
	state.AddPlayer(Player{ID: "a"})
	state.AddPlayer(Player{ID: "b"})
	if !state.StartGame() {
		t.Fatal("StartGame failed")
	}
	return state
}

func choose(id, choice string) Move {
	return Move{PlayerID: id, Type: MoveChoose, Data: map[string]interface{}{"choice": choice}}
}

func TestRevealRoundResolution(t *testing.T) {
	state := newStartedRevealGame(t)
	data := state.Data.(*RevealData)

	if !state.MakeMove(choose("a", "rock")) {
		t.Fatal("a's choice rejected")
	}
	if data.Round != 1 {
		t.Error("round should not resolve until everyone has chosen")
	}
	if !state.MakeMove(choose("b", "scissors")) {
		t.Fatal("b's choice rejected")
	}

	if data.Wins["a"] != 1 || data.Wins["b"] != 0 {
		t.Errorf("wins = %v, expected a=1 b=0", data.Wins)
	}
	if data.Round != 2 {
		t.Errorf("round = %d, expected 2", data.Round)
	}
	if len(data.Choices) != 0 {
		t.Error("choices should clear between rounds")
	}
}

func TestRevealTiedRound(t *testing.T) {
	state := newStartedRevealGame(t)
	data := state.Data.(*RevealData)

	state.MakeMove(choose("a", "paper"))
	state.MakeMove(choose("b", "paper"))

	if data.Wins["a"] != 0 || data.Wins["b"] != 0 {
		t.Errorf("tied round should score nobody: %v", data.Wins)
	}
	if data.Round != 2 {
		t.Error("a tied round still advances the round counter")
	}
}

func TestRevealDoubleChoiceRejected(t *testing.T) {
	state := newStartedRevealGame(t)
	state.MakeMove(choose("a", "rock"))
	if state.MakeMove(choose("a", "paper")) {
		t.Error("changing a committed choice should be rejected")
	}
}

func TestRevealInvalidChoiceRejected(t *testing.T) {
	state := newStartedRevealGame(t)
	if state.MakeMove(choose("a", "dynamite")) {
		t.Error("unknown choice should be rejected")
	}
}

func TestRevealMatchWin(t *testing.T) {
	state := newStartedRevealGame(t)

	for i := 0; i < revealTargetWins; i++ {
		if !state.MakeMove(choose("a", "rock")) {
			t.Fatalf("round %d: a rejected", i+1)
		}
		if !state.MakeMove(choose("b", "scissors")) {
			t.Fatalf("round %d: b rejected", i+1)
		}
	}

	if state.Status != StatusFinished {
		t.Fatal("match should finish at the target win count")
	}
	if state.Winner == nil || state.Winner.ID != "a" {
		t.Errorf("winner = %v, expected a", state.Winner)
	}
}
