package games

import (
	"testing"
	"time"
)

func TestSetPlayerConnectionIdempotent(t *testing.T) {
	state := newStartedDiceGame(t, "a", "b")
	ts := time.Now()

	if !SetPlayerConnection(state, "a", false, ts) {
		t.Fatal("first disconnect should report a change")
	}
	player := state.FindPlayer("a")
	if player.IsActive || player.DisconnectedAt == nil {
		t.Errorf("disconnect flags not set: %+v", player)
	}

	if SetPlayerConnection(state, "a", false, ts) {
		t.Error("repeated disconnect should be a no-op")
	}

	if !SetPlayerConnection(state, "a", true, ts) {
		t.Fatal("reconnect should report a change")
	}
	if !player.IsActive || player.DisconnectedAt != nil {
		t.Errorf("reconnect flags not cleared: %+v", player)
	}

	if SetPlayerConnection(state, "ghost", false, ts) {
		t.Error("unknown player should be a no-op")
	}
}

func TestAdvanceSkipsDisconnectedPlayers(t *testing.T) {
	state := newStartedDiceGame(t, "a", "b", "c")
	ts := time.Now()
	SetPlayerConnection(state, "a", false, ts)
	SetPlayerConnection(state, "b", false, ts)

	skipped, currentID := AdvanceTurnPastDisconnected(state, nil, ts)

	if len(skipped) != 1 || skipped[0] != "a" {
		t.Errorf("skipped = %v, expected [a]", skipped)
	}
	if currentID != "c" {
		t.Errorf("current = %s, expected c", currentID)
	}
}

func TestAdvanceNoopWhenCurrentConnected(t *testing.T) {
	state := newStartedDiceGame(t, "a", "b", "c")
	ts := time.Now()
	SetPlayerConnection(state, "b", false, ts)

	skipped, currentID := AdvanceTurnPastDisconnected(state, nil, ts)
	if len(skipped) != 0 {
		t.Errorf("skipped = %v, expected none", skipped)
	}
	if currentID != "a" {
		t.Errorf("current = %s, expected a", currentID)
	}
}

func TestAdvanceNeverSkipsBots(t *testing.T) {
	state := newStartedDiceGame(t, "bot1", "b")
	ts := time.Now()
	// Bots never hold a connection, so their flag may well be false.
	SetPlayerConnection(state, "bot1", false, ts)

	skipped, currentID := AdvanceTurnPastDisconnected(state, map[string]bool{"bot1": true}, ts)
	if len(skipped) != 0 {
		t.Errorf("skipped = %v, expected none", skipped)
	}
	if currentID != "bot1" {
		t.Errorf("current = %s, expected bot1", currentID)
	}
}

func TestAdvanceLandsOnBotWhenHumansGone(t *testing.T) {
	state := newStartedDiceGame(t, "a", "bot1", "b")
	ts := time.Now()
	SetPlayerConnection(state, "a", false, ts)
	SetPlayerConnection(state, "b", false, ts)

	skipped, currentID := AdvanceTurnPastDisconnected(state, map[string]bool{"bot1": true}, ts)
	if len(skipped) != 1 || skipped[0] != "a" {
		t.Errorf("skipped = %v, expected [a]", skipped)
	}
	if currentID != "bot1" {
		t.Errorf("current = %s, expected bot1", currentID)
	}
}

func TestAdvanceTerminatesWhenAllDisconnected(t *testing.T) {
	state := newStartedDiceGame(t, "a", "b", "c")
	ts := time.Now()
	for _, id := range []string{"a", "b", "c"} {
		SetPlayerConnection(state, id, false, ts)
	}

	// Nobody to land on: must return without looping forever.
	skipped, currentID := AdvanceTurnPastDisconnected(state, nil, ts)
	if len(skipped) != 0 {
		t.Errorf("skipped = %v, expected none", skipped)
	}
	if currentID != "a" {
		t.Errorf("current = %s, expected cursor untouched at a", currentID)
	}
}

func TestAdvanceResetsTurnTransients(t *testing.T) {
	state := newStartedDiceGame(t, "a", "b")
	data := state.Data.(*DiceData)
	data.Held = []bool{true, true, false, false, true}
	data.RollsLeft = 1

	ts := time.Now()
	SetPlayerConnection(state, "a", false, ts)
	skipped, currentID := AdvanceTurnPastDisconnected(state, nil, ts)

	if len(skipped) != 1 || currentID != "b" {
		t.Fatalf("skipped=%v current=%s", skipped, currentID)
	}
	if data.RollsLeft != RollsPerTurn {
		t.Errorf("roll budget = %d, expected reset to %d", data.RollsLeft, RollsPerTurn)
	}
	for i, held := range data.Held {
		if held {
			t.Errorf("held[%d] should be cleared after a skip", i)
		}
	}
}

func TestAdvanceEmptyRoster(t *testing.T) {
	state := NewGameState("g1", "dice")
	skipped, currentID := AdvanceTurnPastDisconnected(state, nil, time.Now())
	if skipped != nil || currentID != "" {
		t.Errorf("empty roster: skipped=%v current=%q", skipped, currentID)
	}
}

func TestAdvanceReconnectedPlayerKeepsTurn(t *testing.T) {
	state := newStartedDiceGame(t, "a", "b")
	ts := time.Now()
	SetPlayerConnection(state, "a", false, ts)
	SetPlayerConnection(state, "a", true, ts.Add(time.Second))

	// Connectivity is re-read at call time: a reconnect before the advancer
	// runs must not cost the player their turn.
	skipped, currentID := AdvanceTurnPastDisconnected(state, nil, ts.Add(2*time.Second))
	if len(skipped) != 0 || currentID != "a" {
		t.Errorf("skipped=%v current=%s, expected none/a", skipped, currentID)
	}
}
