package session

import (
	"errors"
	"strings"
	"time"

	"github.com/realmariusconstantin/romish-client/internal/api"
	"github.com/realmariusconstantin/romish-client/internal/engine"
	"github.com/realmariusconstantin/romish-client/internal/identity"
	"github.com/realmariusconstantin/romish-client/pkg/wire"
)

// Actions follow one shape: a guard on current state, HTTP off-loop, and a
// continuation message folding the response back in. The reply channel is
// answered exactly once.

func reply(ch chan Result, res Result) {
	if ch == nil {
		return
	}
	select {
	case ch <- res:
	default:
	}
}

func (s *Session) startJoinQueue(out chan Result) {
	if s.queue.InQueue {
		reply(out, Result{OK: true})
		return
	}
	go func() {
		res, err := s.api.JoinQueue(s.ctx)
		s.send(joinFetched{Out: res, Err: err, Reply: out})
	}()
}

func (s *Session) applyJoin(msg joinFetched) {
	if msg.Err != nil {
		reply(msg.Reply, Result{OK: false, Reason: api.Friendly(msg.Err)})
		return
	}
	if msg.Out.Queue != nil {
		s.queue = engine.ApplyQueueSnapshot(s.queue, s.self.Key(), *msg.Out.Queue)
	}
	s.queue.InQueue = true
	s.queue.Removed = false

	res := Result{OK: true}
	if msg.Out.MatchCreated() {
		// The join itself filled the queue; the match:ready:init event may
		// still be in flight but the redirect is already known.
		res.RedirectTo = msg.Out.RedirectTo
		if id := identity.Parse(msg.Out.MatchID); !id.IsZero() {
			s.redirect = id
		}
	}
	s.bump()
	reply(msg.Reply, res)
}

func (s *Session) startLeaveQueue(out chan Result) {
	if !s.queue.InQueue {
		reply(out, Result{OK: true})
		return
	}
	if s.ready.Active() {
		reply(out, Result{OK: false, Reason: "Accept phase is active. Accept or decline instead."})
		return
	}
	go func() {
		snap, err := s.api.LeaveQueue(s.ctx)
		s.send(leaveFetched{Snap: snap, Err: err, Reply: out})
	}()
}

func (s *Session) applyLeave(msg leaveFetched) {
	if msg.Err != nil {
		reply(msg.Reply, Result{OK: false, Reason: api.Friendly(msg.Err)})
		return
	}
	if msg.Snap != nil {
		s.queue = engine.ApplyQueueSnapshot(s.queue, s.self.Key(), *msg.Snap)
	}
	s.queue.InQueue = false
	s.queue.Removed = false
	s.bump()
	reply(msg.Reply, Result{OK: true})
}

// startAccept is the dual-path accept. A provisional identity goes through
// the one-shot HTTP endpoint and falls back to the match channel when the
// backend cannot answer; a persisted identity accepts against the match
// document directly.
func (s *Session) startAccept(out chan Result) {
	if !s.ready.Active() {
		reply(out, Result{OK: false, Reason: "No active accept phase"})
		return
	}
	if s.ready.HasAccepted(s.self.Key()) {
		reply(out, Result{OK: true})
		return
	}
	if s.pending != nil {
		reply(out, Result{OK: false, Reason: "Accept already in progress"})
		return
	}

	id := s.ready.ID
	s.acceptSeq++
	seq := s.acceptSeq

	if id.Persisted() {
		go func() {
			err := s.api.AcceptMatch(s.ctx, id.String())
			s.send(acceptDone{Err: err, Reply: out})
		}()
		return
	}

	s.pending = &acceptWait{seq: seq, id: id, reply: out}
	go s.acceptProvisional(seq, id.String())
}

func (s *Session) acceptProvisional(seq int, matchID string) {
	stats, err := s.api.AcceptReady(s.ctx, matchID)
	if err == nil {
		s.send(acceptHTTPDone{Seq: seq, Stats: stats})
		return
	}

	// A definite rejection is final; only backend unavailability falls back
	// to the channel path.
	var apiErr *api.APIError
	switch {
	case errors.Is(err, api.ErrNotFound), errors.Is(err, api.ErrUnauthorized), errors.Is(err, api.ErrRateLimited):
		s.send(acceptFailed{Seq: seq, Reason: api.Friendly(err)})
		return
	case errors.As(err, &apiErr) && apiErr.Status < 500:
		s.send(acceptFailed{Seq: seq, Reason: api.Friendly(err)})
		return
	}

	ch, cerr := s.channels.ConnectMatch(s.ctx, s.token())
	if cerr != nil || ch == nil {
		s.send(acceptFailed{Seq: seq, Reason: api.Friendly(err)})
		return
	}

	// The echo may come back the instant the server sees the room join, so
	// the handlers must be bound before anything is emitted.
	bound := make(chan struct{})
	s.send(channelUp{Ch: ch, Bound: bound})
	select {
	case <-bound:
	case <-s.ctx.Done():
		return
	}

	payload := map[string]string{"matchId": matchID}
	if jerr := ch.JoinRoom(s.ctx, wire.EmitJoinMatchRoom, payload); jerr != nil {
		s.send(acceptFailed{Seq: seq, Reason: api.Friendly(jerr)})
		return
	}
	if eerr := ch.Emit(s.ctx, wire.EmitReadyAccept, payload); eerr != nil {
		s.send(acceptFailed{Seq: seq, Reason: api.Friendly(eerr)})
		return
	}
	s.send(echoArmed{Seq: seq})
}

func (s *Session) applyAcceptHTTPDone(msg acceptHTTPDone) {
	if msg.Stats != nil {
		if next, err := engine.ApplyReadyUpdate(s.ready, *msg.Stats); err == nil {
			s.ready = next
		}
	} else if next, err := engine.ApplyPlayerAccepted(s.ready, s.self.Key()); err == nil {
		s.ready = next
	}
	s.bump()
	if s.pending != nil && s.pending.seq == msg.Seq {
		s.resolvePending(Result{OK: true})
	}
}

func (s *Session) applyAcceptDone(msg acceptDone) {
	if msg.Err != nil {
		reply(msg.Reply, Result{OK: false, Reason: api.Friendly(msg.Err)})
		return
	}
	if next, err := engine.ApplyPlayerAccepted(s.ready, s.self.Key()); err == nil {
		s.ready = next
	}
	s.bump()
	reply(msg.Reply, Result{OK: true})
}

func (s *Session) startDecline(out chan Result) {
	if !s.ready.Active() {
		reply(out, Result{OK: false, Reason: "No active accept phase"})
		return
	}
	go func() {
		err := s.api.DeclineQueue(s.ctx)
		s.send(declineFetched{Err: err, Reply: out})
	}()
}

func (s *Session) applyDecline(msg declineFetched) {
	if msg.Err != nil {
		reply(msg.Reply, Result{OK: false, Reason: api.Friendly(msg.Err)})
		return
	}
	// Declining removes the local player; the other nine return to waiting
	// via the server's cancellation broadcast.
	s.ready = engine.ResetReady(s.ready)
	s.readySeq++
	s.queue = engine.RestoreWaiting(s.queue)
	s.queue.InQueue = false
	s.match = engine.ResetMatch(s.match)
	s.redirect = identity.MatchID{}
	s.leaveMatchRooms()
	s.bump()
	reply(msg.Reply, Result{OK: true})
}

func (s *Session) startPick(steamID string, out chan Result) {
	if !s.match.Loaded {
		reply(out, Result{OK: false, Reason: "You are not in a match"})
		return
	}
	matchID := s.match.ID.String()
	go func() {
		m, err := s.api.Pick(s.ctx, matchID, steamID)
		s.send(matchMerged{Match: m, Err: err, Reply: out})
	}()
}

func (s *Session) startBan(mapName string, out chan Result) {
	if !s.match.Loaded {
		reply(out, Result{OK: false, Reason: "You are not in a match"})
		return
	}
	matchID := s.match.ID.String()
	go func() {
		m, err := s.api.Ban(s.ctx, matchID, mapName)
		s.send(matchMerged{Match: m, Err: err, Reply: out})
	}()
}

func (s *Session) startSendChat(text string, out chan Result) {
	text = strings.TrimSpace(text)
	if text == "" {
		reply(out, Result{OK: false, Reason: "Message is empty"})
		return
	}
	if s.chat.RateLimited(time.Now()) {
		reply(out, Result{OK: false, Reason: "You're sending messages too quickly. Please wait a moment."})
		return
	}
	ch := s.channels.Chat()
	if ch == nil || !ch.Connected() {
		reply(out, Result{OK: false, Reason: "Chat is not connected"})
		return
	}
	go func() {
		err := ch.Emit(s.ctx, wire.EmitChatSend, map[string]string{"text": text})
		s.send(chatSent{Err: err, Reply: out})
	}()
}

func (s *Session) startDeleteChat(messageID string, out chan Result) {
	ch := s.channels.Chat()
	if ch == nil || !ch.Connected() {
		reply(out, Result{OK: false, Reason: "Chat is not connected"})
		return
	}
	go func() {
		err := ch.Emit(s.ctx, wire.EmitChatDelete, map[string]string{"messageId": messageID})
		s.send(chatSent{Err: err, Reply: out})
	}()
}

func (s *Session) applyChatSent(msg chatSent) {
	if msg.Err != nil {
		reply(msg.Reply, Result{OK: false, Reason: "Failed to send message"})
		return
	}
	reply(msg.Reply, Result{OK: true})
}

func (s *Session) applyMatchMerged(msg matchMerged) {
	if msg.Err != nil {
		reply(msg.Reply, Result{OK: false, Reason: api.Friendly(msg.Err)})
		return
	}
	if msg.Match != nil {
		next, err := engine.MergeMatch(s.match, *msg.Match)
		if err != nil {
			s.dropEvent("match response", err)
			reply(msg.Reply, Result{OK: false, Reason: api.Friendly(err)})
			return
		}
		s.match = next
		s.bump()
	}
	reply(msg.Reply, Result{OK: true})
}

func (s *Session) applyMatchFetched(msg matchFetched) {
	if msg.Err != nil {
		// 404 here means the provisional session has not been persisted yet;
		// the next event or recovery pass will resolve it.
		if errors.Is(msg.Err, api.ErrNotFound) {
			s.log.Debug("match not persisted yet")
		} else {
			s.log.Warn("match fetch failed: " + msg.Err.Error())
		}
		return
	}
	if msg.Match != nil {
		s.adoptMatch(*msg.Match)
	}
}

// adoptMatch folds a fetched match record into the session. A record still
// in its accept phase rebuilds the ready container instead; any later
// phase promotes the session out of the queue epoch.
func (s *Session) adoptMatch(m wire.Match) {
	if m.Phase == string(engine.PhaseAccept) && m.AcceptPhase != nil {
		init := wire.ReadyStats{
			MatchID:         m.MatchID,
			ExpiresAt:       m.AcceptPhase.ExpiresAt,
			TimeoutMS:       m.AcceptPhase.TimeoutMS,
			RequiredPlayers: m.AcceptPhase.RequiredPlayers,
			TotalPlayers:    len(m.AcceptPhase.RequiredPlayers),
		}
		for _, p := range m.AcceptPhase.AcceptedPlayers {
			init.Players = append(init.Players, wire.ReadyPlayer{UserID: p.SteamID, Name: p.Name, Accepted: true})
		}
		s.beginReady(init)
		return
	}

	// Promotion ends the accept-phase epoch even when the completion event
	// was missed; an adopted match and an active accept phase must never
	// coexist.
	s.match = engine.LoadMatch(m)
	s.queue = engine.ResetQueue(s.queue)
	s.ready = engine.ResetReady(s.ready)
	s.readySeq++
	s.redirect = s.match.ID
	s.joinMatchRooms(m.MatchID)
	s.bump()
}
