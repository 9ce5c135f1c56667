package session

import (
	"encoding/json"

	"github.com/realmariusconstantin/romish-client/internal/api"
	"github.com/realmariusconstantin/romish-client/internal/channel"
	"github.com/realmariusconstantin/romish-client/internal/engine"
	"github.com/realmariusconstantin/romish-client/internal/identity"
	"github.com/realmariusconstantin/romish-client/pkg/wire"
)

type Msg interface{ isSessionMsg() }

// Result is how action outcomes cross the engine boundary: a value
// carrying success and a human-readable reason, never a panic or a thrown
// error.
type Result struct {
	OK         bool
	Reason     string
	RedirectTo string
}

// Requests from callers. Reply channels should be buffered with capacity 1.

type JoinQueue struct{ Reply chan Result }
type LeaveQueue struct{ Reply chan Result }
type Accept struct{ Reply chan Result }
type Decline struct{ Reply chan Result }

type Pick struct {
	SteamID string
	Reply   chan Result
}

type Ban struct {
	Map   string
	Reply chan Result
}

type SendChat struct {
	Text  string
	Reply chan Result
}

// DeleteChat is the moderation action; the server enforces who may use it.
type DeleteChat struct {
	MessageID string
	Reply     chan Result
}

// MarkChatRead clears the unread badge, e.g. when the chat drawer opens.
type MarkChatRead struct{}

type Recover struct{ Reply chan error }

type Watch struct {
	ID     string
	Outbox chan Snapshot
}

type Unwatch struct{ ID string }

type GetState struct{ Reply chan View }

type Shutdown struct{}

func (JoinQueue) isSessionMsg()    {}
func (LeaveQueue) isSessionMsg()   {}
func (Accept) isSessionMsg()       {}
func (Decline) isSessionMsg()      {}
func (Pick) isSessionMsg()         {}
func (Ban) isSessionMsg()          {}
func (SendChat) isSessionMsg()     {}
func (DeleteChat) isSessionMsg()   {}
func (MarkChatRead) isSessionMsg() {}
func (Recover) isSessionMsg()      {}
func (Watch) isSessionMsg()        {}
func (Unwatch) isSessionMsg()      {}
func (GetState) isSessionMsg()     {}
func (Shutdown) isSessionMsg()     {}

// Snapshot is broadcast to watchers after every applied change.
type Snapshot struct {
	Version  int
	Queue    engine.QueueState
	Ready    engine.ReadyState
	Match    engine.MatchState
	Chat     engine.ChatState
	Redirect identity.MatchID
	Online   bool
}

// View is the reply to GetState; also what the debug surface serves.
type View struct {
	Version     int               `json:"version"`
	NumWatchers int               `json:"numWatchers"`
	Queue       engine.QueueState `json:"queue"`
	Ready       engine.ReadyState `json:"ready"`
	Match       engine.MatchState `json:"match"`
	Chat        engine.ChatState  `json:"chat"`
	Redirect    identity.MatchID  `json:"redirect"`
	Online      bool              `json:"online"`
}

// Internal messages. Continuations of suspended HTTP work re-enter the
// loop as their own turn so no two reconciliations ever interleave.

type channelEvent struct {
	Name string
	Data json.RawMessage
}

// channelUp asks the loop to bind a channel's events into the inbox.
// Bound, when set, is closed once the handlers are registered so the
// sender can emit without racing the bind.
type channelUp struct {
	Ch    *channel.Channel
	Bound chan struct{}
}

type joinFetched struct {
	Out   *api.JoinOutcome
	Err   error
	Reply chan Result
}

type leaveFetched struct {
	Snap  *wire.QueueSnapshot
	Err   error
	Reply chan Result
}

type declineFetched struct {
	Err   error
	Reply chan Result
}

type matchFetched struct {
	Match *wire.Match
	Err   error
}

type matchMerged struct {
	Match *wire.Match
	Err   error
	Reply chan Result
}

type recovered struct {
	Match *wire.Match
	Ready *wire.ReadyStats
}

type acceptHTTPDone struct {
	Seq   int
	Stats *wire.ReadyStats
}

type acceptFailed struct {
	Seq    int
	Reason string
}

type acceptDone struct {
	Err   error
	Reply chan Result
}

type chatSent struct {
	Err   error
	Reply chan Result
}

type echoArmed struct{ Seq int }

type echoTimedOut struct{ Seq int }

type readyDeadline struct{ Seq int }

func (channelEvent) isSessionMsg()   {}
func (channelUp) isSessionMsg()      {}
func (joinFetched) isSessionMsg()    {}
func (leaveFetched) isSessionMsg()   {}
func (declineFetched) isSessionMsg() {}
func (matchFetched) isSessionMsg()   {}
func (matchMerged) isSessionMsg()    {}
func (recovered) isSessionMsg()      {}
func (acceptHTTPDone) isSessionMsg() {}
func (acceptFailed) isSessionMsg()   {}
func (acceptDone) isSessionMsg()     {}
func (chatSent) isSessionMsg()       {}
func (echoArmed) isSessionMsg()      {}
func (echoTimedOut) isSessionMsg()   {}
func (readyDeadline) isSessionMsg()  {}
