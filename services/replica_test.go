package services

import (
	"testing"
	"time"

	"tabletop/games"
)

func replicaTestState(t *testing.T) *games.GameState {
	t.Helper()
	state := games.NewGameState("g1", "dice")
	state.AddPlayer(games.Player{ID: "a", Name: "A"})
	state.AddPlayer(games.Player{ID: "b", Name: "B"})
	if !state.StartGame() {
		t.Fatal("StartGame failed")
	}
	return state
}

func marshal(t *testing.T, state *games.GameState) []byte {
	t.Helper()
	blob, err := state.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	return blob
}

func TestReplicaAcceptsLowerSequenceAfterRestart(t *testing.T) {
	replica := NewStateReplica()
	state := replicaTestState(t)

	applied, err := replica.ApplyAuthoritative(marshal(t, state), 10)
	if err != nil || !applied {
		t.Fatalf("first apply: applied=%v err=%v", applied, err)
	}

	// Authority restarts; its counter resets to 1 but the content moved on.
	state.MakeMove(games.Move{PlayerID: "a", Type: games.MoveRoll, Data: map[string]interface{}{}})
	applied, err = replica.ApplyAuthoritative(marshal(t, state), 1)
	if err != nil {
		t.Fatalf("apply after restart: %v", err)
	}
	if !applied {
		t.Fatal("a lower sequence id after a restart must not be discarded")
	}

	current := replica.Current()
	if current.Data.(*games.DiceData).RollsLeft != games.RollsPerTurn-1 {
		t.Error("replica did not converge on the post-restart snapshot")
	}
}

func TestReplicaDuplicateDeliveryIsNoop(t *testing.T) {
	replica := NewStateReplica()
	state := replicaTestState(t)
	blob := marshal(t, state)

	if applied, _ := replica.ApplyAuthoritative(blob, 5); !applied {
		t.Fatal("first delivery should apply")
	}
	if applied, _ := replica.ApplyAuthoritative(blob, 5); applied {
		t.Error("re-delivery of an identical snapshot should be a no-op")
	}
	if applied, _ := replica.ApplyAuthoritative(blob, 6); applied {
		t.Error("identical content under a new sequence id is still a duplicate")
	}
}

func TestReplicaOptimisticApplyAndReplace(t *testing.T) {
	replica := NewStateReplica()
	state := replicaTestState(t)
	replica.ApplyAuthoritative(marshal(t, state), 1)

	move := games.Move{PlayerID: "a", Type: games.MoveRoll, Data: map[string]interface{}{}, Timestamp: time.Now()}
	if !replica.ApplyOptimistic(move) {
		t.Fatal("legal move should apply optimistically")
	}
	if replica.Current().Data.(*games.DiceData).RollsLeft != games.RollsPerTurn-1 {
		t.Error("optimistic state should reflect the predicted roll")
	}

	// The authoritative response replaces the prediction wholesale.
	state.MakeMove(move)
	if applied, _ := replica.ApplyAuthoritative(marshal(t, state), 2); !applied {
		t.Fatal("authoritative snapshot should apply")
	}
	if replica.Current().Data.(*games.DiceData).RollsLeft != games.RollsPerTurn-1 {
		t.Error("replica should hold the authoritative snapshot")
	}
}

func TestReplicaRollbackOnRejection(t *testing.T) {
	replica := NewStateReplica()
	state := replicaTestState(t)
	replica.ApplyAuthoritative(marshal(t, state), 1)

	move := games.Move{PlayerID: "a", Type: games.MoveRoll, Data: map[string]interface{}{}}
	replica.ApplyOptimistic(move)
	replica.Rollback()

	if replica.Current().Data.(*games.DiceData).RollsLeft != games.RollsPerTurn {
		t.Error("rollback should restore the last authoritative snapshot")
	}
}

func TestReplicaRejectsIllegalOptimisticMove(t *testing.T) {
	replica := NewStateReplica()
	state := replicaTestState(t)
	replica.ApplyAuthoritative(marshal(t, state), 1)

	move := games.Move{PlayerID: "b", Type: games.MoveRoll, Data: map[string]interface{}{}}
	if replica.ApplyOptimistic(move) {
		t.Error("an out-of-turn move should not apply optimistically")
	}
	if replica.Current().Data.(*games.DiceData).RollsLeft != games.RollsPerTurn {
		t.Error("rejected prediction must leave the replica untouched")
	}
}
