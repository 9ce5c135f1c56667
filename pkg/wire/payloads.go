package wire

import "time"

// Player is the reference shape shared by every payload that names a
// player. Immutable once observed within a session.
type Player struct {
	SteamID   string    `json:"steamId"`
	Name      string    `json:"name,omitempty"`
	AvatarURL string    `json:"avatar,omitempty"`
	JoinedAt  time.Time `json:"joinedAt,omitzero"`
	Team      string    `json:"team,omitempty"`
}

// User is the authenticated identity returned by the verify endpoint.
type User struct {
	UserID    string `json:"userId"`
	SteamID   string `json:"steamId"`
	Username  string `json:"username,omitempty"`
	AvatarURL string `json:"avatar,omitempty"`
}

// Key returns the identifier used to correlate this user with queue and
// ready rosters. Older backend builds populate only one of the two fields.
func (u User) Key() string {
	if u.SteamID != "" {
		return u.SteamID
	}
	return u.UserID
}

// QueueSnapshot is the authoritative queue view, carried both by the
// queue:updated event and by the HTTP status/join/leave responses.
type QueueSnapshot struct {
	Players  []Player `json:"players"`
	Status   string   `json:"status,omitempty"`
	Required int      `json:"required,omitempty"`
}

type PlayerJoined struct {
	Player Player `json:"player"`
}

type PlayerLeft struct {
	SteamID string `json:"steamId"`
}

type QueueFull struct {
	MatchID string `json:"matchId"`
}

// ReadyPlayer is one roster entry of a readiness check. UserID shares the
// key space of Player.SteamID.
type ReadyPlayer struct {
	UserID   string `json:"userId"`
	Name     string `json:"name,omitempty"`
	Accepted bool   `json:"accepted"`
}

// ReadyStats is the payload of match:ready:init and match:ready:update,
// of the HTTP ready-accept response, and of the recovered ready session.
// The recovery path must produce exactly this shape so the containers see
// one input format regardless of transport.
type ReadyStats struct {
	MatchID         string        `json:"matchId"`
	ExpiresAt       time.Time     `json:"expiresAt,omitzero"`
	TimeoutMS       int           `json:"timeout,omitempty"`
	Players         []ReadyPlayer `json:"players,omitempty"`
	RequiredPlayers []Player      `json:"requiredPlayers,omitempty"`
	TotalPlayers    int           `json:"totalPlayers,omitempty"`
}

type ReadyComplete struct {
	MatchID string `json:"matchId"`
}

type ReadyError struct {
	MatchID string `json:"matchId,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

type MatchStarting struct {
	MatchID string `json:"matchId"`
}

type MatchCancelled struct {
	MatchID string `json:"matchId,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type AcceptEnded struct {
	NeedMorePlayers bool `json:"needMorePlayers"`
}

// Teams carries team membership as plain roster-id lists. Containers must
// re-derive every player's label from these sets, never patch
// incrementally.
type Teams struct {
	Alpha []string `json:"alpha"`
	Beta  []string `json:"beta"`
}

type Captains struct {
	Alpha string `json:"alpha"`
	Beta  string `json:"beta"`
}

// Pick is one entry of the ordered pick history.
type Pick struct {
	By      string `json:"by"`
	SteamID string `json:"steamId"`
	Team    string `json:"team"`
}

type DraftUpdate struct {
	MatchID       string `json:"matchId"`
	Phase         string `json:"phase"`
	CurrentPicker string `json:"currentPicker,omitempty"`
	PickIndex     int    `json:"pickIndex"`
	PickHistory   []Pick `json:"pickHistory,omitempty"`
	Teams         *Teams `json:"teams,omitempty"`
}

type VetoUpdate struct {
	MatchID       string   `json:"matchId"`
	Phase         string   `json:"phase"`
	AvailableMaps []string `json:"availableMaps,omitempty"`
	BannedMaps    []string `json:"bannedMaps,omitempty"`
	CurrentVeto   string   `json:"currentVeto,omitempty"`
	VetoIndex     int      `json:"vetoIndex"`
	VetoOrder     []string `json:"vetoOrder,omitempty"`
	SelectedMap   string   `json:"selectedMap,omitempty"`
}

type PhaseChange struct {
	MatchID       string   `json:"matchId"`
	Phase         string   `json:"phase"`
	VetoOrder     []string `json:"vetoOrder,omitempty"`
	CurrentVeto   string   `json:"currentVeto,omitempty"`
	VetoIndex     int      `json:"vetoIndex,omitempty"`
	AvailableMaps []string `json:"availableMaps,omitempty"`
}

type ServerInfo struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password,omitempty"`
}

type ServerReady struct {
	MatchID    string      `json:"matchId"`
	ServerInfo *ServerInfo `json:"serverInfo,omitempty"`
}

// ChatMessage is one global chat entry. MessageID is the dedupe key.
type ChatMessage struct {
	MessageID string    `json:"messageId"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

type ChatOnline struct {
	Count int `json:"count"`
}

type ChatDeleted struct {
	MessageID string `json:"messageId"`
}

type ChatError struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// MatchAcceptPhase is embedded in a fetched match while it is still in its
// accept phase; recovery rebuilds the ready container from it.
type MatchAcceptPhase struct {
	Active          bool      `json:"active"`
	ExpiresAt       time.Time `json:"expiresAt,omitzero"`
	TimeoutMS       int       `json:"timeout,omitempty"`
	AcceptedPlayers []Player  `json:"acceptedPlayers,omitempty"`
	RequiredPlayers []Player  `json:"requiredPlayers,omitempty"`
}

// Match is the persisted match record as returned by the HTTP surface.
// Partial responses (pick/ban) populate only the fields they change.
type Match struct {
	MatchID       string            `json:"matchId"`
	Phase         string            `json:"phase"`
	Players       []Player          `json:"players,omitempty"`
	Captains      Captains          `json:"captains"`
	CurrentPicker string            `json:"currentPicker,omitempty"`
	PickIndex     int               `json:"pickIndex"`
	PickHistory   []Pick            `json:"pickHistory,omitempty"`
	Teams         *Teams            `json:"teams,omitempty"`
	AvailableMaps []string          `json:"availableMaps,omitempty"`
	BannedMaps    []string          `json:"bannedMaps,omitempty"`
	CurrentVeto   string            `json:"currentVeto,omitempty"`
	VetoIndex     int               `json:"vetoIndex"`
	VetoOrder     []string          `json:"vetoOrder,omitempty"`
	SelectedMap   string            `json:"selectedMap,omitempty"`
	ServerInfo    *ServerInfo       `json:"serverInfo,omitempty"`
	AcceptPhase   *MatchAcceptPhase `json:"acceptPhase,omitempty"`
}
