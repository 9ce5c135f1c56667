package wire

// Event names delivered by the backend over the real-time channels.
// "match-ready" is the legacy alias of "match:ready:init"; both carry the
// same payload and must be handled identically.
const (
	EvtQueueUpdated  = "queue:updated"
	EvtPlayerJoined  = "queue:player-joined"
	EvtPlayerLeft    = "queue:player-left"
	EvtQueueFull     = "queue:full"
	EvtMatchReady    = "match-ready"
	EvtReadyInit     = "match:ready:init"
	EvtReadyUpdate   = "match:ready:update"
	EvtReadyComplete = "match:ready:complete"
	EvtReadyError    = "match:ready:error"
	EvtMatchStarting = "match-starting"
	EvtCancelled     = "match-cancelled"
	EvtDraftUpdate   = "draft-update"
	EvtVetoUpdate    = "veto-update"
	EvtPhaseChange   = "phase-change"
	EvtServerReady   = "server-ready"

	// Older backend builds still emit these alongside the namespaced
	// ready events.
	EvtAcceptStarted  = "accept-phase-started"
	EvtPlayerAccepted = "player-accepted"
	EvtPlayerDeclined = "player-declined"
	EvtAcceptEnded    = "accept-phase-ended"
)

// Global chat events, carried on their own authenticated channel.
const (
	EvtChatRecent      = "chat:recent"
	EvtChatNew         = "chat:new"
	EvtChatOnline      = "chat:online"
	EvtChatDeleted     = "chat:deleted"
	EvtChatRateLimited = "chat:rate_limited"
	EvtChatError       = "chat:error"
)

// Event names emitted by the client.
const (
	EmitJoinQueue     = "join-queue"
	EmitJoinMatch     = "join-match"
	EmitJoinMatchRoom = "join:matchRoom"
	EmitReadyAccept   = "match:ready:accept"
	EmitChatSend      = "chat:send"
	EmitChatDelete    = "chat:delete"
)

// Synthetic events dispatched by the channel layer itself, never sent on
// the wire. "reconnect-failed" is terminal: every reconnect attempt was
// exhausted and the channel stays down until reconnected explicitly.
const (
	EvtDisconnect      = "disconnect"
	EvtReconnect       = "reconnect"
	EvtReconnectFailed = "reconnect-failed"
)
