package engine

import (
	"maps"
	"slices"
	"time"

	"github.com/realmariusconstantin/romish-client/internal/identity"
	"github.com/realmariusconstantin/romish-client/pkg/wire"
)

type ReadyPhase string

const (
	ReadyIdle      ReadyPhase = "idle"
	ReadyActive    ReadyPhase = "active"
	ReadyCompleted ReadyPhase = "completed"
	ReadyCancelled ReadyPhase = "cancelled"
	ReadyTimedOut  ReadyPhase = "timed_out"
)

// DefaultAcceptTimeout is the display fallback when the server omits one.
const DefaultAcceptTimeout = 20 * time.Second

// ReadyState is the canonical accept-phase record. The roster is fixed at
// BeginReady and never changes for the lifetime of one instance; Accepted
// is always a subset of it. The server owns expiry; ExpiresAt is only a
// projection for display and for the recovery deadline.
type ReadyState struct {
	Phase     ReadyPhase
	ID        identity.MatchID
	ExpiresAt time.Time
	Roster    []wire.Player
	Accepted  map[string]bool
	Required  int
	Epoch     int
}

func NewReadyState() ReadyState {
	return ReadyState{Phase: ReadyIdle}
}

func (s ReadyState) Active() bool { return s.Phase == ReadyActive }

func (s ReadyState) AcceptedCount() int { return len(s.Accepted) }

func (s ReadyState) PendingCount() int { return s.Required - len(s.Accepted) }

func (s ReadyState) AllAccepted() bool { return s.Required > 0 && len(s.Accepted) >= s.Required }

func (s ReadyState) HasAccepted(key string) bool { return s.Accepted[key] }

func (s ReadyState) Progress() float64 {
	if s.Required == 0 {
		return 0
	}
	return float64(len(s.Accepted)) / float64(s.Required)
}

// SecondsRemaining projects the server-owned expiry for display. Never
// treated as authoritative.
func (s ReadyState) SecondsRemaining(now time.Time) int {
	if s.ExpiresAt.IsZero() || !now.Before(s.ExpiresAt) {
		return 0
	}
	return int(s.ExpiresAt.Sub(now) / time.Second)
}

func (s ReadyState) inRoster(key string) bool {
	return slices.ContainsFunc(s.Roster, func(p wire.Player) bool { return p.SteamID == key })
}

// BeginReady starts a new accept phase from a ready-init payload (any
// transport). Roster and identity are fixed here. A repeated init for the
// same identity rebuilds the same state, so late duplicates are harmless.
func BeginReady(s ReadyState, init wire.ReadyStats, now time.Time) ReadyState {
	next := ReadyState{
		Phase:     ReadyActive,
		ID:        identity.Parse(init.MatchID),
		ExpiresAt: init.ExpiresAt,
		Accepted:  map[string]bool{},
		Epoch:     s.Epoch + 1,
	}
	if next.ExpiresAt.IsZero() {
		timeout := DefaultAcceptTimeout
		if init.TimeoutMS > 0 {
			timeout = time.Duration(init.TimeoutMS) * time.Millisecond
		}
		next.ExpiresAt = now.Add(timeout)
	}

	switch {
	case len(init.RequiredPlayers) > 0:
		next.Roster = slices.Clone(init.RequiredPlayers)
	default:
		for _, rp := range init.Players {
			next.Roster = append(next.Roster, wire.Player{SteamID: rp.UserID, Name: rp.Name})
		}
	}
	for _, rp := range init.Players {
		if rp.Accepted && next.inRoster(rp.UserID) {
			next.Accepted[rp.UserID] = true
		}
	}

	switch {
	case init.TotalPlayers > 0:
		next.Required = init.TotalPlayers
	case len(next.Roster) > 0:
		next.Required = len(next.Roster)
	default:
		next.Required = RequiredPlayers
	}
	return maybeComplete(next)
}

// ApplyReadyUpdate merges a ready-update snapshot. Rejected when the
// container is not active or the carried identity does not match; applying
// the same update twice leaves state identical to applying it once.
func ApplyReadyUpdate(s ReadyState, upd wire.ReadyStats) (ReadyState, error) {
	if s.Phase != ReadyActive {
		return s, ErrNotActive
	}
	if upd.MatchID != "" && identity.Parse(upd.MatchID) != s.ID {
		return s, ErrIdentityMismatch
	}

	next := s
	if !upd.ExpiresAt.IsZero() {
		next.ExpiresAt = upd.ExpiresAt
	}
	if upd.TotalPlayers > 0 {
		next.Required = upd.TotalPlayers
	}
	if upd.Players != nil {
		accepted := map[string]bool{}
		for _, rp := range upd.Players {
			if rp.Accepted && s.inRoster(rp.UserID) {
				accepted[rp.UserID] = true
			}
		}
		next.Accepted = accepted
	}
	return maybeComplete(next), nil
}

// ApplyPlayerAccepted is the legacy incremental form of a ready update.
func ApplyPlayerAccepted(s ReadyState, key string) (ReadyState, error) {
	if s.Phase != ReadyActive {
		return s, ErrNotActive
	}
	if !s.inRoster(key) || s.Accepted[key] {
		return s, nil
	}
	next := s
	next.Accepted = maps.Clone(s.Accepted)
	next.Accepted[key] = true
	return maybeComplete(next), nil
}

// maybeComplete enforces the completion invariant: the instant the
// accepted set covers the roster requirement, the phase leaves active
// within the same reconciliation step.
func maybeComplete(s ReadyState) ReadyState {
	if s.Phase == ReadyActive && s.AllAccepted() {
		s.Phase = ReadyCompleted
	}
	return s
}

// CompleteReady applies the server's completion trigger.
func CompleteReady(s ReadyState) (ReadyState, error) {
	if s.Phase == ReadyIdle {
		return s, ErrNotActive
	}
	next := s
	next.Phase = ReadyCompleted
	return next, nil
}

// CancelReady resets to idle immediately; the queue container is restored
// to waiting by the caller so the player can re-queue.
func CancelReady(s ReadyState) ReadyState {
	return ReadyState{Phase: ReadyIdle, Epoch: s.Epoch + 1}
}

// TimeoutReady records that expiry passed (plus the caller's margin)
// without a completion event. Recoverable: the caller re-queries server
// truth rather than hanging.
func TimeoutReady(s ReadyState) (ReadyState, error) {
	if s.Phase != ReadyActive {
		return s, ErrNotActive
	}
	next := s
	next.Phase = ReadyTimedOut
	return next, nil
}

// ResetReady ends the epoch.
func ResetReady(s ReadyState) ReadyState {
	return ReadyState{Phase: ReadyIdle, Epoch: s.Epoch + 1}
}
