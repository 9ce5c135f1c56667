package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/realmariusconstantin/romish-client/pkg/wire"
)

func readyRoster(n int) []wire.Player {
	out := make([]wire.Player, n)
	for i := range out {
		out[i] = wire.Player{SteamID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("Player %d", i)}
	}
	return out
}

func activeReady(t *testing.T, n int) ReadyState {
	t.Helper()
	s := BeginReady(NewReadyState(), wire.ReadyStats{
		MatchID:         "PEND-42",
		RequiredPlayers: readyRoster(n),
	}, time.Now())
	if !s.Active() {
		t.Fatalf("expected active phase after init")
	}
	return s
}

func TestReady_BeginFixesRosterAndExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := BeginReady(NewReadyState(), wire.ReadyStats{
		MatchID:         "PEND-42",
		TimeoutMS:       15000,
		RequiredPlayers: readyRoster(10),
	}, now)

	if len(s.Roster) != 10 || s.Required != 10 {
		t.Fatalf("roster=%d required=%d", len(s.Roster), s.Required)
	}
	if !s.ExpiresAt.Equal(now.Add(15 * time.Second)) {
		t.Fatalf("expiry from timeout: got %v", s.ExpiresAt)
	}
	if !s.ID.Provisional() {
		t.Fatalf("identity must be parsed at init")
	}
}

func TestReady_BeginDefaultTimeout(t *testing.T) {
	now := time.Now()
	s := BeginReady(NewReadyState(), wire.ReadyStats{MatchID: "PEND-1", RequiredPlayers: readyRoster(2)}, now)
	if !s.ExpiresAt.Equal(now.Add(DefaultAcceptTimeout)) {
		t.Fatalf("want default timeout fallback, got %v", s.ExpiresAt)
	}
}

func TestReady_UpdateIdempotent(t *testing.T) {
	s := activeReady(t, 10)
	upd := wire.ReadyStats{
		MatchID: "PEND-42",
		Players: []wire.ReadyPlayer{{UserID: "p0", Accepted: true}, {UserID: "p1", Accepted: true}},
	}

	once, err := ApplyReadyUpdate(s, upd)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := ApplyReadyUpdate(once, upd)
	if err != nil {
		t.Fatal(err)
	}
	if once.AcceptedCount() != 2 || twice.AcceptedCount() != 2 {
		t.Fatalf("accepted: once=%d twice=%d", once.AcceptedCount(), twice.AcceptedCount())
	}
}

func TestReady_UpdateRejectsWrongIdentity(t *testing.T) {
	s := activeReady(t, 10)
	_, err := ApplyReadyUpdate(s, wire.ReadyStats{MatchID: "PEND-43"})
	if err != ErrIdentityMismatch {
		t.Fatalf("want ErrIdentityMismatch, got %v", err)
	}
}

func TestReady_UpdateRejectsWhenIdle(t *testing.T) {
	_, err := ApplyReadyUpdate(NewReadyState(), wire.ReadyStats{MatchID: "PEND-42"})
	if err != ErrNotActive {
		t.Fatalf("want ErrNotActive, got %v", err)
	}
}

func TestReady_UpdateIgnoresNonRosterAccepts(t *testing.T) {
	s := activeReady(t, 2)
	next, err := ApplyReadyUpdate(s, wire.ReadyStats{
		MatchID: "PEND-42",
		Players: []wire.ReadyPlayer{{UserID: "intruder", Accepted: true}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if next.AcceptedCount() != 0 {
		t.Fatalf("accepts outside the roster must be ignored")
	}
}

func TestReady_CompletesTheInstantRosterCovered(t *testing.T) {
	s := activeReady(t, 3)
	for i := 0; i < 3; i++ {
		var err error
		s, err = ApplyPlayerAccepted(s, fmt.Sprintf("p%d", i))
		if err != nil {
			t.Fatal(err)
		}
	}
	if s.Phase != ReadyCompleted {
		t.Fatalf("phase=%s after full coverage", s.Phase)
	}
}

func TestReady_AcceptOrderIrrelevant(t *testing.T) {
	orders := [][]string{
		{"p0", "p1", "p2", "p3"},
		{"p3", "p1", "p0", "p2"},
	}
	var results []ReadyState
	for _, order := range orders {
		s := activeReady(t, 4)
		for _, key := range order {
			var err error
			s, err = ApplyPlayerAccepted(s, key)
			if err != nil {
				t.Fatal(err)
			}
		}
		results = append(results, s)
	}
	if results[0].Phase != results[1].Phase || results[0].AcceptedCount() != results[1].AcceptedCount() {
		t.Fatalf("accept order changed the outcome: %+v vs %+v", results[0], results[1])
	}
}

func TestReady_PlayerAcceptedIdempotent(t *testing.T) {
	s := activeReady(t, 10)
	s, _ = ApplyPlayerAccepted(s, "p0")
	s, _ = ApplyPlayerAccepted(s, "p0")
	if s.AcceptedCount() != 1 {
		t.Fatalf("duplicate accept must not double count")
	}
}

func TestReady_TimeoutOnlyFromActive(t *testing.T) {
	s := activeReady(t, 10)
	s, err := TimeoutReady(s)
	if err != nil || s.Phase != ReadyTimedOut {
		t.Fatalf("timeout: phase=%s err=%v", s.Phase, err)
	}
	if _, err := TimeoutReady(s); err != ErrNotActive {
		t.Fatalf("second timeout must be rejected, got %v", err)
	}
}

func TestReady_CancelAdvancesEpoch(t *testing.T) {
	s := activeReady(t, 10)
	next := CancelReady(s)
	if next.Phase != ReadyIdle || next.Epoch != s.Epoch+1 {
		t.Fatalf("cancel: %+v", next)
	}
}

func TestReady_SecondsRemainingNeverNegative(t *testing.T) {
	s := activeReady(t, 10)
	if got := s.SecondsRemaining(s.ExpiresAt.Add(time.Minute)); got != 0 {
		t.Fatalf("past expiry must report 0, got %d", got)
	}
}
