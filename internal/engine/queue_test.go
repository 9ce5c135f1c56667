package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/realmariusconstantin/romish-client/pkg/wire"
)

func queuePlayer(i int) wire.Player {
	return wire.Player{SteamID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("Player %d", i)}
}

func TestQueue_SnapshotReplacesMembership(t *testing.T) {
	s := NewQueueState()
	s = ApplyPlayerJoined(s, queuePlayer(0), time.Now())
	s = ApplyPlayerJoined(s, queuePlayer(1), time.Now())

	snap := wire.QueueSnapshot{Players: []wire.Player{queuePlayer(5)}, Status: "waiting"}
	s = ApplyQueueSnapshot(s, "p9", snap)

	if s.Count() != 1 || !s.HasPlayer("p5") {
		t.Fatalf("snapshot must replace membership wholesale, got %+v", s.Players)
	}
}

func TestQueue_SnapshotDetectsRemoval(t *testing.T) {
	s := NewQueueState()
	s = ApplyPlayerJoined(s, queuePlayer(0), time.Now())
	s.InQueue = true

	s = ApplyQueueSnapshot(s, "p0", wire.QueueSnapshot{Players: []wire.Player{queuePlayer(1)}})

	if s.InQueue {
		t.Fatalf("absent from snapshot must clear InQueue")
	}
	if !s.Removed {
		t.Fatalf("server-side removal must raise Removed")
	}
}

func TestQueue_JoinIsIdempotent(t *testing.T) {
	s := NewQueueState()
	s = ApplyPlayerJoined(s, queuePlayer(0), time.Now())
	s = ApplyPlayerJoined(s, queuePlayer(0), time.Now())
	if s.Count() != 1 {
		t.Fatalf("duplicate join must not add a second entry, count=%d", s.Count())
	}
}

func TestQueue_JoinNeverChangesStatus(t *testing.T) {
	s := NewQueueState()
	for i := 0; i < RequiredPlayers; i++ {
		s = ApplyPlayerJoined(s, queuePlayer(i), time.Now())
	}
	if s.Status != StatusWaiting {
		t.Fatalf("incremental joins must not move status, got %s", s.Status)
	}
	if !s.IsFull() {
		t.Fatalf("expected full at %d players", RequiredPlayers)
	}
}

func TestQueue_StartTimeFollowsFirstPlayer(t *testing.T) {
	joined := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewQueueState()
	s = ApplyPlayerJoined(s, wire.Player{SteamID: "p0", JoinedAt: joined}, time.Now())
	if !s.StartedAt.Equal(joined) {
		t.Fatalf("StartedAt = %v, want %v", s.StartedAt, joined)
	}

	s = ApplyPlayerLeft(s, "p0")
	if !s.StartedAt.IsZero() {
		t.Fatalf("empty queue must clear StartedAt")
	}
}

func TestQueue_FullStashesRedirect(t *testing.T) {
	s := NewQueueState()
	next, err := ApplyQueueFull(s, wire.QueueFull{MatchID: "PEND-99"})
	if err != nil {
		t.Fatal(err)
	}
	if next.Status != StatusFull {
		t.Fatalf("status = %s, want full", next.Status)
	}
	if next.RedirectID.String() != "PEND-99" || !next.RedirectID.Provisional() {
		t.Fatalf("redirect = %+v", next.RedirectID)
	}
}

func TestQueue_FullStaleAfterProcessing(t *testing.T) {
	s := NewQueueState()
	s.Status = StatusProcessing
	if _, err := ApplyQueueFull(s, wire.QueueFull{MatchID: "PEND-1"}); err != ErrStaleEvent {
		t.Fatalf("want ErrStaleEvent, got %v", err)
	}
}

func TestQueue_RestoreWaitingAdvancesEpoch(t *testing.T) {
	s := NewQueueState()
	s = ApplyPlayerJoined(s, queuePlayer(0), time.Now())
	s.Status = StatusFull
	s.Removed = true

	next := RestoreWaiting(s)
	if next.Epoch != s.Epoch+1 {
		t.Fatalf("epoch must advance on restore")
	}
	if next.Status != StatusWaiting || next.Removed {
		t.Fatalf("restore: status=%s removed=%v", next.Status, next.Removed)
	}
	if next.Count() != 1 {
		t.Fatalf("restore keeps membership until the next snapshot")
	}
}

func TestQueue_ResetClearsEverything(t *testing.T) {
	s := NewQueueState()
	s = ApplyPlayerJoined(s, queuePlayer(0), time.Now())
	s.InQueue = true

	next := ResetQueue(s)
	if next.Count() != 0 || next.InQueue || next.Status != StatusWaiting {
		t.Fatalf("reset left residue: %+v", next)
	}
	if next.Epoch != s.Epoch+1 {
		t.Fatalf("epoch must advance on reset")
	}
}

func TestQueue_ApplyTwiceSameResult(t *testing.T) {
	snap := wire.QueueSnapshot{Players: []wire.Player{queuePlayer(0), queuePlayer(1)}, Status: "waiting"}
	s := NewQueueState()
	once := ApplyQueueSnapshot(s, "p0", snap)
	twice := ApplyQueueSnapshot(once, "p0", snap)
	if len(once.Players) != len(twice.Players) || once.Status != twice.Status {
		t.Fatalf("re-applied snapshot changed state: %+v vs %+v", once, twice)
	}
}
