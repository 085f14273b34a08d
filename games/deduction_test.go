package games

import "testing"

func newStartedDeductionGame(t *testing.T) *GameState {
	t.Helper()
	state := NewGameState("g1", "deduction")
	for _, id := range []string{"a", "b", "c", "d"} {
		state.AddPlayer(Player{ID: id})
	}
	if !state.StartGame() {
		t.Fatal("StartGame failed")
	}
	return state
}

func clue(id, text string) Move {
	return Move{PlayerID: id, Type: MoveClue, Data: map[string]interface{}{"text": text}}
}

func vote(id, target string) Move {
	return Move{PlayerID: id, Type: MoveVote, Data: map[string]interface{}{"target": target}}
}

func TestDeductionCluePhaseFlipsToVote(t *testing.T) {
	state := newStartedDeductionGame(t)
	data := state.Data.(*DeductionData)

	for _, id := range []string{"a", "b", "c"} {
		if !state.MakeMove(clue(id, "hint")) {
			t.Fatalf("clue by %s rejected", id)
		}
	}
	if data.Phase != PhaseClue {
		t.Error("phase should stay in clue until everyone has spoken")
	}
	if !state.MakeMove(clue("d", "hint")) {
		t.Fatal("clue by d rejected")
	}
	if data.Phase != PhaseVote {
		t.Errorf("phase = %s, expected vote", data.Phase)
	}
}

func TestDeductionDoubleClueRejected(t *testing.T) {
	state := newStartedDeductionGame(t)
	state.MakeMove(clue("a", "hint"))
	if state.MakeMove(clue("a", "second hint")) {
		t.Error("a second clue in the same round should be rejected")
	}
}

func TestDeductionVotePhaseRules(t *testing.T) {
	state := newStartedDeductionGame(t)

	if state.MakeMove(vote("a", "b")) {
		t.Error("voting during the clue phase should be rejected")
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		state.MakeMove(clue(id, "hint"))
	}
	if state.MakeMove(vote("a", "a")) {
		t.Error("self-votes should be rejected")
	}
	if !state.MakeMove(vote("a", "b")) {
		t.Error("a valid vote should be accepted")
	}
	if state.MakeMove(vote("a", "c")) {
		t.Error("double voting should be rejected")
	}
}

func TestDeductionMajorityEjectsImposterCrewWins(t *testing.T) {
	state := newStartedDeductionGame(t)
	data := state.Data.(*DeductionData)
	imposter := data.ImposterID

	for _, id := range []string{"a", "b", "c", "d"} {
		state.MakeMove(clue(id, "hint"))
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		if id == imposter {
			// The imposter deflects onto someone else.
			for _, other := range []string{"a", "b", "c", "d"} {
				if other != imposter {
					state.MakeMove(vote(id, other))
					break
				}
			}
			continue
		}
		state.MakeMove(vote(id, imposter))
	}

	if !data.CrewWin {
		t.Fatal("majority vote on the imposter should set the crew win")
	}
	if state.Status != StatusFinished {
		t.Error("crew win should finish the game")
	}
	if state.Winner != nil {
		t.Errorf("collective crew win should leave winner unset, got %v", state.Winner)
	}
}

func TestDeductionTiedVoteEjectsNobody(t *testing.T) {
	state := newStartedDeductionGame(t)
	data := state.Data.(*DeductionData)

	for _, id := range []string{"a", "b", "c", "d"} {
		state.MakeMove(clue(id, "hint"))
	}
	// 2-2 split.
	state.MakeMove(vote("a", "b"))
	state.MakeMove(vote("b", "a"))
	state.MakeMove(vote("c", "b"))
	state.MakeMove(vote("d", "a"))

	if len(data.Ejected) != 0 {
		t.Errorf("tied vote ejected %v, expected nobody", data.Ejected)
	}
	if data.Phase != PhaseClue || data.Round != 2 {
		t.Errorf("phase=%s round=%d, expected clue/2", data.Phase, data.Round)
	}
}

func TestDeductionImposterWinsAtTwoAlive(t *testing.T) {
	state := newStartedDeductionGame(t)
	data := state.Data.(*DeductionData)
	imposter := data.ImposterID

	var crew []string
	for _, id := range []string{"a", "b", "c", "d"} {
		if id != imposter {
			crew = append(crew, id)
		}
	}

	// Two rounds of unanimous votes against crew members.
	for round, victim := range []string{crew[0], crew[1]} {
		for _, id := range []string{"a", "b", "c", "d"} {
			if data.isEjected(id) {
				continue
			}
			if !state.MakeMove(clue(id, "hint")) {
				t.Fatalf("round %d: clue by %s rejected", round+1, id)
			}
		}
		for _, id := range []string{"a", "b", "c", "d"} {
			if data.isEjected(id) {
				continue
			}
			target := victim
			if id == victim {
				target = imposter // the victim can't self-vote; deflect
			}
			if !state.MakeMove(vote(id, target)) {
				t.Fatalf("round %d: vote by %s rejected", round+1, id)
			}
		}
	}

	if state.Status != StatusFinished {
		t.Fatal("game should finish once only two players survive")
	}
	if state.Winner == nil || state.Winner.ID != imposter {
		t.Errorf("winner = %v, expected imposter %s", state.Winner, imposter)
	}
}

func TestDeductionEjectedPlayerCannotMove(t *testing.T) {
	state := newStartedDeductionGame(t)
	data := state.Data.(*DeductionData)
	data.Ejected = append(data.Ejected, "b")

	if state.MakeMove(clue("b", "hint")) {
		t.Error("ejected players should not be able to give clues")
	}
}
