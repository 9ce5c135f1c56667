package session

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/realmariusconstantin/romish-client/internal/engine"
	"github.com/realmariusconstantin/romish-client/internal/identity"
	"github.com/realmariusconstantin/romish-client/pkg/wire"
)

// handleEvent reconciles one inbound channel event. Runs on the loop
// goroutine only; a rejected event leaves all three containers untouched.
func (s *Session) handleEvent(name string, data json.RawMessage) {
	switch name {
	case wire.EvtQueueUpdated:
		var snap wire.QueueSnapshot
		if !s.decode(name, data, &snap) {
			return
		}
		wasRemoved := s.queue.Removed
		s.queue = engine.ApplyQueueSnapshot(s.queue, s.self.Key(), snap)
		if s.queue.Removed && !wasRemoved {
			// Kicked or timed out server-side; any accept phase the player
			// was part of no longer applies to them.
			s.ready = engine.ResetReady(s.ready)
			s.readySeq++
		}
		s.bump()

	case wire.EvtPlayerJoined:
		var ev wire.PlayerJoined
		if !s.decode(name, data, &ev) {
			return
		}
		s.queue = engine.ApplyPlayerJoined(s.queue, ev.Player, time.Now())
		if ev.Player.SteamID == s.self.Key() {
			s.queue.InQueue = true
			s.queue.Removed = false
		}
		s.bump()

	case wire.EvtPlayerLeft:
		var ev wire.PlayerLeft
		if !s.decode(name, data, &ev) {
			return
		}
		s.queue = engine.ApplyPlayerLeft(s.queue, ev.SteamID)
		if ev.SteamID == s.self.Key() {
			s.queue.InQueue = false
		}
		s.bump()

	case wire.EvtQueueFull:
		var ev wire.QueueFull
		if !s.decode(name, data, &ev) {
			return
		}
		next, err := engine.ApplyQueueFull(s.queue, ev)
		if err != nil {
			s.dropEvent(name, err)
			return
		}
		s.queue = next
		if !s.queue.RedirectID.IsZero() {
			s.redirect = s.queue.RedirectID
		}
		s.bump()

	case wire.EvtMatchReady, wire.EvtReadyInit, wire.EvtAcceptStarted:
		var init wire.ReadyStats
		if !s.decode(name, data, &init) {
			return
		}
		s.beginReady(init)

	case wire.EvtReadyUpdate:
		var upd wire.ReadyStats
		if !s.decode(name, data, &upd) {
			return
		}
		next, err := engine.ApplyReadyUpdate(s.ready, upd)
		if err != nil {
			s.dropEvent(name, err)
			return
		}
		s.ready = next
		// The update echo confirms a channel-routed accept for the same
		// identity.
		if s.pending != nil && identity.Parse(upd.MatchID) == s.pending.id {
			s.resolvePending(Result{OK: true})
		}
		s.bump()

	case wire.EvtPlayerAccepted:
		var ev struct {
			UserID  string `json:"userId"`
			SteamID string `json:"steamId"`
		}
		if !s.decode(name, data, &ev) {
			return
		}
		key := ev.UserID
		if key == "" {
			key = ev.SteamID
		}
		next, err := engine.ApplyPlayerAccepted(s.ready, key)
		if err != nil {
			s.dropEvent(name, err)
			return
		}
		s.ready = next
		s.bump()

	case wire.EvtPlayerDeclined:
		// The decline itself changes nothing locally; the server follows up
		// with a cancellation or an accept-phase-ended event.
		s.log.Debug("player declined", zap.String("event", name))

	case wire.EvtReadyComplete, wire.EvtMatchStarting:
		var ev wire.ReadyComplete
		if !s.decode(name, data, &ev) {
			return
		}
		s.completeReady(name, ev.MatchID)

	case wire.EvtReadyError:
		var ev wire.ReadyError
		if !s.decode(name, data, &ev) {
			return
		}
		reason := ev.Error
		if reason == "" {
			reason = ev.Message
		}
		if reason == "" {
			reason = "Ready check failed"
		}
		if s.pending != nil {
			s.resolvePending(Result{OK: false, Reason: reason})
		}
		s.log.Warn("ready error", zap.String("reason", reason))

	case wire.EvtAcceptEnded:
		var ev wire.AcceptEnded
		if !s.decode(name, data, &ev) {
			return
		}
		if ev.NeedMorePlayers {
			s.cancelMatch("Not enough players accepted")
			return
		}
		next, err := engine.CompleteReady(s.ready)
		if err != nil {
			s.dropEvent(name, err)
			return
		}
		s.ready = next
		s.readySeq++
		s.bump()

	case wire.EvtCancelled:
		var ev wire.MatchCancelled
		if !s.decode(name, data, &ev) {
			return
		}
		reason := ev.Reason
		if reason == "" {
			reason = "Match was cancelled"
		}
		s.cancelMatch(reason)

	case wire.EvtDraftUpdate:
		var ev wire.DraftUpdate
		if !s.decode(name, data, &ev) {
			return
		}
		next, err := engine.ApplyDraftUpdate(s.match, ev)
		if err != nil {
			s.dropEvent(name, err)
			return
		}
		s.match = next
		s.bump()

	case wire.EvtVetoUpdate:
		var ev wire.VetoUpdate
		if !s.decode(name, data, &ev) {
			return
		}
		next, err := engine.ApplyVetoUpdate(s.match, ev)
		if err != nil {
			s.dropEvent(name, err)
			return
		}
		s.match = next
		s.bump()

	case wire.EvtPhaseChange:
		var ev wire.PhaseChange
		if !s.decode(name, data, &ev) {
			return
		}
		next, err := engine.ApplyPhaseChange(s.match, ev)
		if err != nil {
			s.dropEvent(name, err)
			return
		}
		s.match = next
		s.bump()

	case wire.EvtServerReady:
		var ev wire.ServerReady
		if !s.decode(name, data, &ev) {
			return
		}
		next, err := engine.ApplyServerReady(s.match, ev)
		if err != nil {
			s.dropEvent(name, err)
			return
		}
		s.match = next
		s.bump()

	case wire.EvtChatRecent:
		var history []wire.ChatMessage
		if !s.decode(name, data, &history) {
			return
		}
		s.chat = engine.SetChatHistory(s.chat, history)
		s.bump()

	case wire.EvtChatNew:
		var m wire.ChatMessage
		if !s.decode(name, data, &m) {
			return
		}
		before := s.chat.MessageCount()
		s.chat = engine.AddChatMessage(s.chat, m)
		if s.chat.MessageCount() == before {
			s.log.Debug("duplicate chat message", zap.String("messageId", m.MessageID))
			return
		}
		s.bump()

	case wire.EvtChatOnline:
		var ev wire.ChatOnline
		if !s.decode(name, data, &ev) {
			return
		}
		s.chat = engine.SetChatOnline(s.chat, ev.Count)
		s.bump()

	case wire.EvtChatDeleted:
		var ev wire.ChatDeleted
		if !s.decode(name, data, &ev) {
			return
		}
		s.chat = engine.RemoveChatMessage(s.chat, ev.MessageID)
		s.bump()

	case wire.EvtChatRateLimited:
		s.chat = engine.RateLimitChat(s.chat, time.Now())
		s.bump()

	case wire.EvtChatError:
		var ev wire.ChatError
		if !s.decode(name, data, &ev) {
			return
		}
		reason := ev.Error
		if reason == "" {
			reason = ev.Message
		}
		s.log.Warn("chat error", zap.String("reason", reason))

	case wire.EvtDisconnect:
		s.log.Info("channel down, events paused")

	case wire.EvtReconnect:
		// Room joins were already replayed by the channel; server truth may
		// have moved while the events did not flow.
		s.log.Info("channel back up, re-querying state")
		if !s.online {
			s.online = true
			s.bump()
		}
		go s.recoverAsync(nil)

	case wire.EvtReconnectFailed:
		s.online = false
		s.log.Error("reconnect attempts exhausted, session is offline")
		s.bump()

	default:
		s.log.Debug("unhandled event", zap.String("event", name))
	}
}

// beginReady starts an accept-phase epoch from any transport (event, HTTP
// response or recovery). Idempotent for a repeated init of the same
// identity.
func (s *Session) beginReady(init wire.ReadyStats) {
	id := identity.Parse(init.MatchID)
	if s.ready.Active() && s.ready.ID == id {
		next, err := engine.ApplyReadyUpdate(s.ready, init)
		if err == nil {
			s.ready = next
			s.bump()
		}
		return
	}

	s.ready = engine.BeginReady(s.ready, init, time.Now())
	s.queue.Status = engine.StatusAcceptPhase
	s.redirect = s.ready.ID
	s.armReadyDeadline()
	s.joinMatchRooms(init.MatchID)
	s.bump()
}

// completeReady applies the authoritative completion trigger and promotes
// the session toward the persisted match.
func (s *Session) completeReady(name, matchID string) {
	next, err := engine.CompleteReady(s.ready)
	if err != nil {
		s.dropEvent(name, err)
		return
	}
	s.ready = next
	s.readySeq++
	s.queue.Status = engine.StatusProcessing

	id := identity.Parse(matchID)
	if id.IsZero() {
		id = s.ready.ID
	}
	s.redirect = id
	if s.pending != nil {
		s.resolvePending(Result{OK: true, RedirectTo: id.String()})
	}
	s.bump()

	if id.Persisted() {
		s.joinMatchRooms(id.String())
	}
	go s.fetchMatch(id)
}

// cancelMatch is the shared teardown for every cancellation shape: ready
// back to idle, queue back to waiting, match rooms forgotten.
func (s *Session) cancelMatch(reason string) {
	if s.pending != nil {
		s.resolvePending(Result{OK: false, Reason: reason})
	}
	s.ready = engine.CancelReady(s.ready)
	s.readySeq++
	s.queue = engine.RestoreWaiting(s.queue)
	s.match = engine.ResetMatch(s.match)
	s.redirect = identity.MatchID{}
	s.leaveMatchRooms()
	s.log.Info("match cancelled", zap.String("reason", reason))
	s.bump()
}

// fetchMatch resolves the full record behind a completion trigger. Runs
// off-loop; the result re-enters as matchFetched.
func (s *Session) fetchMatch(id identity.MatchID) {
	var (
		m   *wire.Match
		err error
	)
	if id.Persisted() {
		m, err = s.api.MatchByID(s.ctx, id.String())
	} else {
		m, err = s.api.CurrentMatch(s.ctx)
	}
	s.send(matchFetched{Match: m, Err: err})
}

func (s *Session) decode(name string, data json.RawMessage, v any) bool {
	if len(data) == 0 {
		return true
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.log.Warn("bad payload", zap.String("event", name), zap.Error(err))
		return false
	}
	return true
}
