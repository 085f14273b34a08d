package games

import "time"

// turnTransientResetter is implemented by payloads that carry per-turn state
// (held selections, action budgets) that must be cleared when a turn is skipped.
type turnTransientResetter interface {
	ResetTurnTransients()
}

// SetPlayerConnection flips one player's connectivity flag and stamps or clears
// DisconnectedAt. Returns false when the player is absent or already in the
// requested state, so repeated delivery of the same event is a no-op.
func SetPlayerConnection(state *GameState, playerID string, isActive bool, ts time.Time) bool {
	player := state.FindPlayer(playerID)
	if player == nil || player.IsActive == isActive {
		return false
	}
	player.IsActive = isActive
	if isActive {
		player.DisconnectedAt = nil
	} else {
		t := ts
		player.DisconnectedAt = &t
	}
	state.UpdatedAt = ts
	return true
}

// AdvanceTurnPastDisconnected moves the turn cursor forward past consecutive
// disconnected non-bot players. Bots are never skipped: they have no real
// connectivity. Connectivity is re-read at call time on purpose, so a player
// who reconnected before this runs keeps their turn.
//
// Iterates at most once per roster seat, guaranteeing termination even when
// everybody is disconnected. If any skip happened, per-turn transient state in
// the payload is reset so the next player starts a clean turn.
//
// Returns the ids skipped and the resulting current player id ("" for an
// empty roster).
func AdvanceTurnPastDisconnected(state *GameState, botIDs map[string]bool, ts time.Time) (skipped []string, currentID string) {
	if len(state.Players) == 0 {
		return nil, ""
	}

	skippable := func(p *Player) bool {
		return !p.IsActive && !botIDs[p.ID]
	}

	for iter := 0; iter < len(state.Players); iter++ {
		current := &state.Players[state.CurrentPlayerIndex]
		if !skippable(current) {
			break
		}
		next := -1
		for offset := 1; offset < len(state.Players); offset++ {
			idx := (state.CurrentPlayerIndex + offset) % len(state.Players)
			if !skippable(&state.Players[idx]) {
				next = idx
				break
			}
		}
		if next == -1 {
			// Everyone left is a disconnected human; leave the cursor alone.
			break
		}
		skipped = append(skipped, current.ID)
		state.CurrentPlayerIndex = next
	}

	if len(skipped) > 0 {
		if resetter, ok := state.Data.(turnTransientResetter); ok {
			resetter.ResetTurnTransients()
		}
		state.LastMoveAt = ts
		state.UpdatedAt = ts
	}
	return skipped, state.Players[state.CurrentPlayerIndex].ID
}
