package services

import (
	"crypto/sha256"
	"encoding/hex"
	"log"
	"sync"

	"tabletop/games"
)

// StateReplica is the observer side of the sync protocol: a read-only copy of
// one game's state, reconciled from authority broadcasts. It supports
// optimistic local application for responsiveness, but an authoritative
// snapshot always replaces (never merges with) the optimistic guess.
//
// Sequence ids are advisory: they detect gaps and duplicates within one
// connection epoch, but an authority restart may reset the counter, so a
// lower sequence id must not be discarded. Idempotence is keyed on snapshot
// content instead.
type StateReplica struct {
	mu             sync.Mutex
	authoritative  *games.GameState
	optimistic     *games.GameState
	lastSequenceID int64
	lastDigest     string
}

func NewStateReplica() *StateReplica {
	return &StateReplica{}
}

// Current returns the state a UI should render: the optimistic prediction if
// one is pending, otherwise the last authoritative snapshot.
func (r *StateReplica) Current() *games.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.optimistic != nil {
		return r.optimistic
	}
	return r.authoritative
}

// ApplyOptimistic predicts the move's effect on a local copy while the
// authoritative response is in flight. Returns false when the move would not
// validate locally (no prediction is recorded).
func (r *StateReplica) ApplyOptimistic(move games.Move) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	base := r.optimistic
	if base == nil {
		base = r.authoritative
	}
	if base == nil {
		return false
	}
	predicted := base.Snapshot()
	if !predicted.MakeMove(move) {
		return false
	}
	r.optimistic = predicted
	return true
}

// Rollback discards the optimistic prediction, falling back to the last
// authoritative snapshot. Used on move rejection or response timeout.
func (r *StateReplica) Rollback() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.optimistic = nil
}

// ApplyAuthoritative reconciles an authority broadcast into the replica.
// Application is idempotent by content: re-delivery of an identical snapshot
// is a safe no-op. Returns whether the snapshot changed the replica.
func (r *StateReplica) ApplyAuthoritative(snapshot []byte, sequenceID int64) (bool, error) {
	state, err := games.UnmarshalState(snapshot)
	if err != nil {
		return false, err
	}

	digest := contentDigest(snapshot)

	r.mu.Lock()
	defer r.mu.Unlock()

	if digest == r.lastDigest {
		// Duplicate delivery; replacing state with an identical copy would be
		// harmless, but skipping keeps the sequence bookkeeping honest.
		return false, nil
	}

	if r.lastSequenceID > 0 && sequenceID > r.lastSequenceID+1 {
		log.Printf("Replica for game %s: sequence gap %d -> %d", state.ID, r.lastSequenceID, sequenceID)
	}

	// A lower sequence id is accepted: the authority may have restarted and
	// reset its counter, and content keying already filters true duplicates.
	r.authoritative = state
	r.optimistic = nil
	r.lastSequenceID = sequenceID
	r.lastDigest = digest
	return true, nil
}

func contentDigest(snapshot []byte) string {
	sum := sha256.Sum256(snapshot)
	return hex.EncodeToString(sum[:])
}
