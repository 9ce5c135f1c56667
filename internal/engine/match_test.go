package engine

import (
	"fmt"
	"testing"

	"github.com/realmariusconstantin/romish-client/pkg/wire"
)

func matchRoster(n int) []wire.Player {
	out := make([]wire.Player, n)
	for i := range out {
		out[i] = wire.Player{SteamID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("Player %d", i)}
	}
	return out
}

func draftMatch() wire.Match {
	return wire.Match{
		MatchID:  "m123",
		Phase:    "draft",
		Players:  matchRoster(10),
		Captains: wire.Captains{Alpha: "p0", Beta: "p1"},
		Teams:    &wire.Teams{Alpha: []string{"p0"}, Beta: []string{"p1"}},
	}
}

func TestMatch_LoadDerivesTeamLabels(t *testing.T) {
	s := LoadMatch(draftMatch())
	if !s.Loaded || !s.ID.Persisted() {
		t.Fatalf("load: %+v", s)
	}
	if len(s.PlayersOn(TeamAlpha)) != 1 || len(s.PlayersOn(TeamBeta)) != 1 {
		t.Fatalf("captains must be labelled from the team sets")
	}
	if len(s.PlayersOn(TeamUndrafted)) != 8 {
		t.Fatalf("everyone else starts undrafted, got %d", len(s.PlayersOn(TeamUndrafted)))
	}
}

func TestMatch_DraftUpdateRelabelsWholeRoster(t *testing.T) {
	s := LoadMatch(draftMatch())
	next, err := ApplyDraftUpdate(s, wire.DraftUpdate{
		MatchID:     "m123",
		Phase:       "draft",
		PickIndex:   1,
		PickHistory: []wire.Pick{{By: "p0", SteamID: "p2", Team: "alpha"}},
		Teams:       &wire.Teams{Alpha: []string{"p0", "p2"}, Beta: []string{"p1"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(next.PlayersOn(TeamAlpha)) != 2 {
		t.Fatalf("alpha should have 2 after pick")
	}
	// Moving a player between sets must relabel, not accumulate.
	next, err = ApplyDraftUpdate(next, wire.DraftUpdate{
		MatchID: "m123",
		Teams:   &wire.Teams{Alpha: []string{"p0"}, Beta: []string{"p1", "p2"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(next.PlayersOn(TeamAlpha)) != 1 || len(next.PlayersOn(TeamBeta)) != 2 {
		t.Fatalf("relabel must be derived from the sets alone")
	}
}

func TestMatch_EventsRejectForeignIdentity(t *testing.T) {
	s := LoadMatch(draftMatch())
	if _, err := ApplyDraftUpdate(s, wire.DraftUpdate{MatchID: "m999"}); err != ErrIdentityMismatch {
		t.Fatalf("draft: want ErrIdentityMismatch, got %v", err)
	}
	if _, err := ApplyVetoUpdate(s, wire.VetoUpdate{MatchID: "m999"}); err != ErrIdentityMismatch {
		t.Fatalf("veto: want ErrIdentityMismatch, got %v", err)
	}
	if _, err := ApplyServerReady(s, wire.ServerReady{MatchID: "m999"}); err != ErrIdentityMismatch {
		t.Fatalf("server: want ErrIdentityMismatch, got %v", err)
	}
}

func TestMatch_EventsRejectWhenNotLoaded(t *testing.T) {
	if _, err := ApplyDraftUpdate(NewMatchState(), wire.DraftUpdate{MatchID: "m123"}); err != ErrNoMatch {
		t.Fatalf("want ErrNoMatch, got %v", err)
	}
}

func TestMatch_MergePartialResponse(t *testing.T) {
	s := LoadMatch(draftMatch())
	next, err := MergeMatch(s, wire.Match{
		MatchID:     "m123",
		CurrentVeto: "p1",
		VetoIndex:   2,
		BannedMaps:  []string{"de_mirage"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if next.Phase != PhaseDraft {
		t.Fatalf("zero-valued phase must not clobber, got %s", next.Phase)
	}
	if next.CurrentVeto != "p1" || next.VetoIndex != 2 || len(next.BannedMaps) != 1 {
		t.Fatalf("merge dropped carried fields: %+v", next)
	}
}

func TestMatch_MergeRejectsForeignIdentity(t *testing.T) {
	s := LoadMatch(draftMatch())
	if _, err := MergeMatch(s, wire.Match{MatchID: "m999"}); err != ErrIdentityMismatch {
		t.Fatalf("want ErrIdentityMismatch, got %v", err)
	}
}

func TestMatch_ServerReadyGoesLive(t *testing.T) {
	s := LoadMatch(draftMatch())
	next, err := ApplyServerReady(s, wire.ServerReady{
		MatchID:    "m123",
		ServerInfo: &wire.ServerInfo{Host: "10.0.0.4", Port: 27015},
	})
	if err != nil {
		t.Fatal(err)
	}
	if next.Phase != PhaseLive || next.Server == nil {
		t.Fatalf("server ready: phase=%s server=%v", next.Phase, next.Server)
	}
}

func TestMatch_ReplayPicksMatchesCarriedTeams(t *testing.T) {
	roster := matchRoster(10)
	captains := wire.Captains{Alpha: "p0", Beta: "p1"}
	history := []wire.Pick{
		{By: "p0", SteamID: "p2", Team: "alpha"},
		{By: "p1", SteamID: "p3", Team: "beta"},
		{By: "p1", SteamID: "p4", Team: "beta"},
		{By: "p0", SteamID: "p5", Team: "alpha"},
	}
	carried := wire.Teams{
		Alpha: []string{"p0", "p2", "p5"},
		Beta:  []string{"p1", "p3", "p4"},
	}

	replayed := ReplayPicks(roster, captains, history)
	labelled := relabelTeams(roster, carried)
	for i := range replayed {
		if replayed[i].Team != labelled[i].Team {
			t.Fatalf("replay diverged at %s: %s vs %s", replayed[i].SteamID, replayed[i].Team, labelled[i].Team)
		}
	}
}

func TestMatch_TeamNameFromCaptain(t *testing.T) {
	s := LoadMatch(draftMatch())
	if got := s.TeamName(TeamAlpha); got != "Team Player 0" {
		t.Fatalf("TeamName = %q", got)
	}
	s.Captains.Beta = "missing"
	if got := s.TeamName(TeamBeta); got != "Team Beta" {
		t.Fatalf("fallback name = %q", got)
	}
}
