package engine

import (
	"slices"

	"github.com/realmariusconstantin/romish-client/internal/identity"
	"github.com/realmariusconstantin/romish-client/pkg/wire"
)

type MatchPhase string

const (
	PhaseAccept MatchPhase = "accept"
	PhaseDraft  MatchPhase = "draft"
	PhaseVeto   MatchPhase = "veto"
	PhaseReady  MatchPhase = "ready"
	PhaseLive   MatchPhase = "live"
)

type Team string

const (
	TeamAlpha     Team = "alpha"
	TeamBeta      Team = "beta"
	TeamUndrafted Team = "undrafted"
)

// MatchState is the canonical record of the persisted match. Team labels
// on Players are always derived from set membership, so replaying the pick
// history from an all-undrafted roster reproduces them exactly.
type MatchState struct {
	Loaded        bool
	ID            identity.MatchID
	Phase         MatchPhase
	Players       []wire.Player
	Captains      wire.Captains
	CurrentPicker string
	PickIndex     int
	PickHistory   []wire.Pick
	AvailableMaps []string
	BannedMaps    []string
	CurrentVeto   string
	VetoIndex     int
	VetoOrder     []string
	SelectedMap   string
	Server        *wire.ServerInfo
}

func NewMatchState() MatchState { return MatchState{} }

func (s MatchState) PlayersOn(team Team) []wire.Player {
	var out []wire.Player
	for _, p := range s.Players {
		if p.Team == string(team) {
			out = append(out, p)
		}
	}
	return out
}

func (s MatchState) Captain(team Team) (wire.Player, bool) {
	key := s.Captains.Alpha
	if team == TeamBeta {
		key = s.Captains.Beta
	}
	for _, p := range s.Players {
		if p.SteamID == key {
			return p, true
		}
	}
	return wire.Player{}, false
}

// TeamName derives the display name from the captain, "Team Alpha"/"Team
// Beta" when none is known.
func (s MatchState) TeamName(team Team) string {
	if c, ok := s.Captain(team); ok && c.Name != "" {
		return "Team " + c.Name
	}
	if team == TeamBeta {
		return "Team Beta"
	}
	return "Team Alpha"
}

// LoadMatch replaces the container from a fetched match record.
func LoadMatch(m wire.Match) MatchState {
	s := MatchState{
		Loaded:        true,
		ID:            identity.Parse(m.MatchID),
		Phase:         MatchPhase(m.Phase),
		Players:       slices.Clone(m.Players),
		Captains:      m.Captains,
		CurrentPicker: m.CurrentPicker,
		PickIndex:     m.PickIndex,
		PickHistory:   slices.Clone(m.PickHistory),
		AvailableMaps: slices.Clone(m.AvailableMaps),
		BannedMaps:    slices.Clone(m.BannedMaps),
		CurrentVeto:   m.CurrentVeto,
		VetoIndex:     m.VetoIndex,
		VetoOrder:     slices.Clone(m.VetoOrder),
		SelectedMap:   m.SelectedMap,
		Server:        m.ServerInfo,
	}
	if m.Teams != nil {
		s.Players = relabelTeams(s.Players, *m.Teams)
	}
	return s
}

// MergeMatch folds a partial HTTP response (pick/ban) into the loaded
// match. Zero-valued fields in the response leave the container untouched.
func MergeMatch(s MatchState, m wire.Match) (MatchState, error) {
	if !s.Loaded {
		return LoadMatch(m), nil
	}
	if m.MatchID != "" && identity.Parse(m.MatchID) != s.ID {
		return s, ErrIdentityMismatch
	}
	next := s
	if m.Phase != "" {
		next.Phase = MatchPhase(m.Phase)
	}
	if m.CurrentPicker != "" {
		next.CurrentPicker = m.CurrentPicker
	}
	if m.PickIndex > 0 {
		next.PickIndex = m.PickIndex
	}
	if m.PickHistory != nil {
		next.PickHistory = slices.Clone(m.PickHistory)
	}
	if m.AvailableMaps != nil {
		next.AvailableMaps = slices.Clone(m.AvailableMaps)
	}
	if m.BannedMaps != nil {
		next.BannedMaps = slices.Clone(m.BannedMaps)
	}
	if m.CurrentVeto != "" {
		next.CurrentVeto = m.CurrentVeto
	}
	if m.VetoIndex > 0 {
		next.VetoIndex = m.VetoIndex
	}
	if m.SelectedMap != "" {
		next.SelectedMap = m.SelectedMap
	}
	if m.Players != nil {
		next.Players = slices.Clone(m.Players)
	}
	if m.Teams != nil {
		next.Players = relabelTeams(next.Players, *m.Teams)
	}
	return next, nil
}

// ApplyDraftUpdate folds a draft-update event. Ignored when the carried
// identity is not the loaded match (cross-talk guard).
func ApplyDraftUpdate(s MatchState, ev wire.DraftUpdate) (MatchState, error) {
	if !s.Loaded {
		return s, ErrNoMatch
	}
	if identity.Parse(ev.MatchID) != s.ID {
		return s, ErrIdentityMismatch
	}
	next := s
	if ev.Phase != "" {
		next.Phase = MatchPhase(ev.Phase)
	}
	next.CurrentPicker = ev.CurrentPicker
	next.PickIndex = ev.PickIndex
	if ev.PickHistory != nil {
		next.PickHistory = slices.Clone(ev.PickHistory)
	}
	if ev.Teams != nil {
		next.Players = relabelTeams(s.Players, *ev.Teams)
	}
	return next, nil
}

func ApplyVetoUpdate(s MatchState, ev wire.VetoUpdate) (MatchState, error) {
	if !s.Loaded {
		return s, ErrNoMatch
	}
	if identity.Parse(ev.MatchID) != s.ID {
		return s, ErrIdentityMismatch
	}
	next := s
	if ev.Phase != "" {
		next.Phase = MatchPhase(ev.Phase)
	}
	next.AvailableMaps = slices.Clone(ev.AvailableMaps)
	next.BannedMaps = slices.Clone(ev.BannedMaps)
	next.CurrentVeto = ev.CurrentVeto
	next.VetoIndex = ev.VetoIndex
	if ev.VetoOrder != nil {
		next.VetoOrder = slices.Clone(ev.VetoOrder)
	}
	next.SelectedMap = ev.SelectedMap
	return next, nil
}

func ApplyPhaseChange(s MatchState, ev wire.PhaseChange) (MatchState, error) {
	if !s.Loaded {
		return s, ErrNoMatch
	}
	if identity.Parse(ev.MatchID) != s.ID {
		return s, ErrIdentityMismatch
	}
	next := s
	next.Phase = MatchPhase(ev.Phase)
	if next.Phase == PhaseVeto {
		next.VetoOrder = slices.Clone(ev.VetoOrder)
		next.CurrentVeto = ev.CurrentVeto
		next.VetoIndex = ev.VetoIndex
		next.AvailableMaps = slices.Clone(ev.AvailableMaps)
	}
	return next, nil
}

// ApplyServerReady records connection info and moves the match live.
func ApplyServerReady(s MatchState, ev wire.ServerReady) (MatchState, error) {
	if !s.Loaded {
		return s, ErrNoMatch
	}
	if identity.Parse(ev.MatchID) != s.ID {
		return s, ErrIdentityMismatch
	}
	next := s
	next.Server = ev.ServerInfo
	next.Phase = PhaseLive
	return next, nil
}

func ResetMatch(MatchState) MatchState { return MatchState{} }

// relabelTeams re-derives every player's label from the id sets. Run on
// every team-bearing event; never patched incrementally.
func relabelTeams(players []wire.Player, teams wire.Teams) []wire.Player {
	out := slices.Clone(players)
	for i, p := range out {
		switch {
		case slices.Contains(teams.Alpha, p.SteamID):
			out[i].Team = string(TeamAlpha)
		case slices.Contains(teams.Beta, p.SteamID):
			out[i].Team = string(TeamBeta)
		default:
			out[i].Team = string(TeamUndrafted)
		}
	}
	return out
}

// ReplayPicks rebuilds team labels from an all-undrafted roster, the two
// captains and an ordered pick history. Consistency oracle: the result
// must match the labels carried by the corresponding draft-update.
func ReplayPicks(roster []wire.Player, captains wire.Captains, history []wire.Pick) []wire.Player {
	teams := wire.Teams{}
	if captains.Alpha != "" {
		teams.Alpha = append(teams.Alpha, captains.Alpha)
	}
	if captains.Beta != "" {
		teams.Beta = append(teams.Beta, captains.Beta)
	}
	for _, pick := range history {
		if Team(pick.Team) == TeamBeta {
			teams.Beta = append(teams.Beta, pick.SteamID)
		} else {
			teams.Alpha = append(teams.Alpha, pick.SteamID)
		}
	}
	return relabelTeams(roster, teams)
}
