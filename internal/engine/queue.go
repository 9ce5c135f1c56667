// Package engine holds the reconciliation rules for the three matchmaking
// containers. Every function takes a container value and an inbound event
// or response and returns the new container value; nothing here touches a
// transport, so the rules are testable in isolation and the caller decides
// what to do with a rejected event.
package engine

import (
	"slices"
	"time"

	"github.com/realmariusconstantin/romish-client/internal/identity"
	"github.com/realmariusconstantin/romish-client/pkg/wire"
)

type Status string

const (
	StatusWaiting     Status = "waiting"
	StatusAcceptPhase Status = "accept_phase"
	StatusFull        Status = "full"
	StatusProcessing  Status = "processing"
	StatusCompleted   Status = "completed"
)

// RequiredPlayers is fixed for every queue epoch.
const RequiredPlayers = 10

// QueueState is the canonical queue record. Players are kept in join
// order; the first entry defines the queue-start time. Epoch increments on
// every reset so late events from a finished fill cycle can be recognised.
type QueueState struct {
	Players    []wire.Player
	Status     Status
	Required   int
	Epoch      int
	InQueue    bool
	Removed    bool
	StartedAt  time.Time
	RedirectID identity.MatchID
}

func NewQueueState() QueueState {
	return QueueState{Status: StatusWaiting, Required: RequiredPlayers}
}

func ParseStatus(raw string) Status {
	switch Status(raw) {
	case StatusAcceptPhase, StatusFull, StatusProcessing, StatusCompleted:
		return Status(raw)
	default:
		return StatusWaiting
	}
}

func (s QueueState) Count() int { return len(s.Players) }

func (s QueueState) IsFull() bool { return len(s.Players) >= s.Required }

func (s QueueState) Progress() float64 {
	if s.Required == 0 {
		return 0
	}
	return float64(len(s.Players)) / float64(s.Required)
}

func (s QueueState) HasPlayer(key string) bool {
	return slices.ContainsFunc(s.Players, func(p wire.Player) bool { return p.SteamID == key })
}

// ApplyQueueSnapshot replaces membership and status wholesale; a snapshot
// always wins over incremental events that predate it. If the local player
// was in the queue but is absent from the snapshot, the Removed flag is
// raised (server-side timeout or kick) without erroring.
func ApplyQueueSnapshot(s QueueState, selfKey string, snap wire.QueueSnapshot) QueueState {
	next := s
	next.Players = slices.Clone(snap.Players)
	if snap.Status != "" {
		next.Status = ParseStatus(snap.Status)
	}
	if snap.Required > 0 {
		next.Required = snap.Required
	}

	if s.InQueue && selfKey != "" && !next.HasPlayer(selfKey) {
		next.InQueue = false
		next.Removed = true
	}

	switch {
	case len(next.Players) == 0:
		next.StartedAt = time.Time{}
	case !next.Players[0].JoinedAt.IsZero():
		next.StartedAt = next.Players[0].JoinedAt
	}
	return next
}

// ApplyPlayerJoined appends one player if not already present. Incremental
// events never change Status; only a snapshot, queue:full or an explicit
// cancellation moves it.
func ApplyPlayerJoined(s QueueState, p wire.Player, now time.Time) QueueState {
	if s.HasPlayer(p.SteamID) {
		return s
	}
	next := s
	next.Players = append(slices.Clone(s.Players), p)
	if s.StartedAt.IsZero() {
		if !p.JoinedAt.IsZero() {
			next.StartedAt = p.JoinedAt
		} else {
			next.StartedAt = now
		}
	}
	return next
}

func ApplyPlayerLeft(s QueueState, steamID string) QueueState {
	next := s
	next.Players = slices.DeleteFunc(slices.Clone(s.Players), func(p wire.Player) bool {
		return p.SteamID == steamID
	})
	if len(next.Players) == 0 {
		next.StartedAt = time.Time{}
	}
	return next
}

// ApplyQueueFull marks the fill and stashes the carried identity for the
// downstream redirect.
func ApplyQueueFull(s QueueState, ev wire.QueueFull) (QueueState, error) {
	if s.Status == StatusProcessing || s.Status == StatusCompleted {
		return s, ErrStaleEvent
	}
	next := s
	next.Status = StatusFull
	if id := identity.Parse(ev.MatchID); !id.IsZero() {
		next.RedirectID = id
	}
	return next, nil
}

// RestoreWaiting is the explicit cancellation path: the epoch ends and the
// queue view returns to waiting so the player can re-queue without a
// refresh. Membership is kept; the next snapshot is authoritative.
func RestoreWaiting(s QueueState) QueueState {
	next := s
	next.Epoch++
	next.Status = StatusWaiting
	next.Removed = false
	next.RedirectID = identity.MatchID{}
	return next
}

// ResetQueue clears the container entirely; used when its epoch ends by
// promotion to a match or by completion.
func ResetQueue(s QueueState) QueueState {
	return QueueState{
		Status:   StatusWaiting,
		Required: RequiredPlayers,
		Epoch:    s.Epoch + 1,
	}
}
