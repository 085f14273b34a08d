package games

import "testing"

func TestDiceEndToEndScenario(t *testing.T) {
	// Two players join, the game starts, player 0 rolls once and scores ones.
	state := NewGameState("g1", "dice")
	if !state.AddPlayer(Player{ID: "p0", Name: "Player Zero"}) {
		t.Fatal("AddPlayer p0 failed")
	}
	if !state.AddPlayer(Player{ID: "p1", Name: "Player One"}) {
		t.Fatal("AddPlayer p1 failed")
	}
	if !state.StartGame() {
		t.Fatal("StartGame failed")
	}
	if state.Status != StatusPlaying || state.CurrentPlayerIndex != 0 {
		t.Fatalf("after start: status=%s cursor=%d", state.Status, state.CurrentPlayerIndex)
	}

	data := state.Data.(*DiceData)
	if data.RollsLeft != RollsPerTurn {
		t.Fatalf("initial roll budget = %d, expected %d", data.RollsLeft, RollsPerTurn)
	}

	if !state.MakeMove(Move{PlayerID: "p0", Type: MoveRoll, Data: map[string]interface{}{}}) {
		t.Fatal("roll rejected")
	}
	if data.RollsLeft != RollsPerTurn-1 {
		t.Errorf("roll budget after roll = %d, expected %d", data.RollsLeft, RollsPerTurn-1)
	}

	// Pin the dice so the recorded score is deterministic.
	data.Dice = []int{1, 1, 1, 2, 3}
	if !state.MakeMove(Move{PlayerID: "p0", Type: MoveScore, Data: map[string]interface{}{"category": CategoryOnes}}) {
		t.Fatal("score rejected")
	}

	if got := data.Scorecards["p0"][CategoryOnes]; got != 3 {
		t.Errorf("recorded score = %d, expected 3", got)
	}
	if state.CurrentPlayerIndex != 1 {
		t.Errorf("cursor = %d, expected 1", state.CurrentPlayerIndex)
	}
	if data.RollsLeft != RollsPerTurn {
		t.Errorf("roll budget after score = %d, expected reset to %d", data.RollsLeft, RollsPerTurn)
	}
	for i, held := range data.Held {
		if held {
			t.Errorf("held[%d] should reset to false after scoring", i)
		}
	}
}

func TestDiceRollBudgetExhausted(t *testing.T) {
	state := newStartedDiceGame(t, "a", "b")
	roll := Move{PlayerID: "a", Type: MoveRoll, Data: map[string]interface{}{}}

	for i := 0; i < RollsPerTurn; i++ {
		if !state.MakeMove(roll) {
			t.Fatalf("roll %d rejected", i+1)
		}
	}
	if state.MakeMove(roll) {
		t.Error("fourth roll should be rejected")
	}
}

func TestDiceRollWithAtomicHeldMask(t *testing.T) {
	state := newStartedDiceGame(t, "a", "b")
	data := state.Data.(*DiceData)

	if !state.MakeMove(Move{PlayerID: "a", Type: MoveRoll, Data: map[string]interface{}{}}) {
		t.Fatal("first roll rejected")
	}
	data.Dice = []int{6, 6, 1, 1, 1}

	mask := []interface{}{true, true, false, false, false}
	if !state.MakeMove(Move{PlayerID: "a", Type: MoveRoll, Data: map[string]interface{}{"held": mask}}) {
		t.Fatal("roll with held mask rejected")
	}
	if data.Dice[0] != 6 || data.Dice[1] != 6 {
		t.Error("held dice should not be re-rolled")
	}
	if !data.Held[0] || !data.Held[1] || data.Held[2] {
		t.Errorf("held mask not applied atomically: %v", data.Held)
	}
}

func TestDiceRollRejectsBadMaskLength(t *testing.T) {
	state := newStartedDiceGame(t, "a", "b")
	mask := []interface{}{true, false}
	if state.MakeMove(Move{PlayerID: "a", Type: MoveRoll, Data: map[string]interface{}{"held": mask}}) {
		t.Error("roll with short held mask should be rejected")
	}
}

func TestDiceHoldRequiresPriorRoll(t *testing.T) {
	state := newStartedDiceGame(t, "a", "b")
	hold := Move{PlayerID: "a", Type: MoveHold, Data: map[string]interface{}{"die": float64(0)}}
	if state.MakeMove(hold) {
		t.Error("hold before any roll should be rejected")
	}

	state.MakeMove(Move{PlayerID: "a", Type: MoveRoll, Data: map[string]interface{}{}})
	if !state.MakeMove(hold) {
		t.Error("hold after a roll should be accepted")
	}
	data := state.Data.(*DiceData)
	if !data.Held[0] {
		t.Error("hold should toggle the die's held flag")
	}
	// Toggling again releases the die.
	state.MakeMove(hold)
	if data.Held[0] {
		t.Error("second hold should release the die")
	}
}

func TestDiceHoldIndexOutOfRange(t *testing.T) {
	state := newStartedDiceGame(t, "a", "b")
	state.MakeMove(Move{PlayerID: "a", Type: MoveRoll, Data: map[string]interface{}{}})
	hold := Move{PlayerID: "a", Type: MoveHold, Data: map[string]interface{}{"die": float64(9)}}
	if state.MakeMove(hold) {
		t.Error("hold with out-of-range index should be rejected")
	}
}

func TestDiceScoreRequiresRollAndOpenCategory(t *testing.T) {
	state := newStartedDiceGame(t, "a", "b")
	score := Move{PlayerID: "a", Type: MoveScore, Data: map[string]interface{}{"category": CategoryOnes}}

	if state.MakeMove(score) {
		t.Error("score before any roll should be rejected")
	}

	state.MakeMove(Move{PlayerID: "a", Type: MoveRoll, Data: map[string]interface{}{}})
	if !state.MakeMove(score) {
		t.Fatal("score after a roll should be accepted")
	}

	// Back around to player a: the category is now taken.
	state.MakeMove(Move{PlayerID: "b", Type: MoveRoll, Data: map[string]interface{}{}})
	state.MakeMove(Move{PlayerID: "b", Type: MoveScore, Data: map[string]interface{}{"category": CategoryOnes}})

	state.MakeMove(Move{PlayerID: "a", Type: MoveRoll, Data: map[string]interface{}{}})
	if state.MakeMove(score) {
		t.Error("scoring an already-filled category should be rejected")
	}
}

func TestDiceWrongTurnRejected(t *testing.T) {
	state := newStartedDiceGame(t, "a", "b")
	roll := Move{PlayerID: "b", Type: MoveRoll, Data: map[string]interface{}{}}
	if state.MakeMove(roll) {
		t.Error("move out of turn should be rejected")
	}
}

func TestDiceGameFinishesWithWinner(t *testing.T) {
	state := newStartedDiceGame(t, "a", "b")
	data := state.Data.(*DiceData)

	// Fill both scorecards except one category each, with a ahead on points.
	for _, c := range Categories[:len(Categories)-1] {
		data.Scorecards["a"][c] = 10
		data.Scorecards["b"][c] = 5
	}

	last := Categories[len(Categories)-1]
	data.Dice = []int{1, 1, 1, 2, 3}

	state.MakeMove(Move{PlayerID: "a", Type: MoveRoll, Data: map[string]interface{}{}})
	state.MakeMove(Move{PlayerID: "a", Type: MoveScore, Data: map[string]interface{}{"category": last}})
	if state.Status == StatusFinished {
		t.Fatal("game should not finish while b's scorecard is open")
	}

	state.MakeMove(Move{PlayerID: "b", Type: MoveRoll, Data: map[string]interface{}{}})
	state.MakeMove(Move{PlayerID: "b", Type: MoveScore, Data: map[string]interface{}{"category": last}})

	if state.Status != StatusFinished {
		t.Fatal("game should finish once every scorecard is complete")
	}
	if state.Winner == nil || state.Winner.ID != "a" {
		t.Errorf("winner = %v, expected a", state.Winner)
	}
}

func TestDiceRulesNonEmpty(t *testing.T) {
	for _, gameType := range ListGameTypes() {
		engine, _ := GetEngine(gameType)
		if len(engine.Rules()) == 0 {
			t.Errorf("%s: rules must be non-empty", gameType)
		}
	}
}
