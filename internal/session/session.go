// Package session runs the match/queue reconciliation engine. One
// goroutine owns the three containers and drains an inbox of typed
// messages; every inbound event or HTTP continuation is reconciled to
// completion before the next is looked at, which is what makes the
// idempotence and identity guards in the engine package safe to rely on.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/realmariusconstantin/romish-client/internal/api"
	"github.com/realmariusconstantin/romish-client/internal/channel"
	"github.com/realmariusconstantin/romish-client/internal/engine"
	"github.com/realmariusconstantin/romish-client/internal/identity"
	"github.com/realmariusconstantin/romish-client/pkg/wire"
)

const (
	// defaultEchoTimeout bounds the wait for the ready-update echo after a
	// channel-routed accept.
	defaultEchoTimeout = 4 * time.Second
	// defaultExpiryMargin is how long past the server expiry the session
	// waits for a completion event before re-querying server truth.
	defaultExpiryMargin = 5 * time.Second
)

type acceptWait struct {
	seq   int
	id    identity.MatchID
	reply chan Result
	timer *time.Timer
}

type Session struct {
	inbox    chan Msg
	api      *api.Client
	channels *channel.Manager
	self     wire.User
	token    func() string
	log      *zap.Logger

	queue    engine.QueueState
	ready    engine.ReadyState
	match    engine.MatchState
	chat     engine.ChatState
	redirect identity.MatchID

	// online is false only after a channel exhausted its reconnect
	// attempts; transient drops that recover never clear it.
	online bool

	version  int
	watchers map[string]chan Snapshot
	bound    map[string]bool

	pending   *acceptWait
	acceptSeq int
	readySeq  int

	echoTimeout  time.Duration
	expiryMargin time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*Session)

func WithLogger(log *zap.Logger) Option {
	return func(s *Session) { s.log = log }
}

func WithEchoTimeout(d time.Duration) Option {
	return func(s *Session) { s.echoTimeout = d }
}

func WithExpiryMargin(d time.Duration) Option {
	return func(s *Session) { s.expiryMargin = d }
}

func WithTokenSource(fn func() string) Option {
	return func(s *Session) { s.token = fn }
}

func New(parent context.Context, client *api.Client, channels *channel.Manager, self wire.User, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(parent)
	s := &Session{
		inbox:        make(chan Msg, 64),
		api:          client,
		channels:     channels,
		self:         self,
		token:        func() string { return "" },
		log:          zap.NewNop(),
		queue:        engine.NewQueueState(),
		ready:        engine.NewReadyState(),
		match:        engine.NewMatchState(),
		chat:         engine.NewChatState(),
		online:       true,
		watchers:     map[string]chan Snapshot{},
		bound:        map[string]bool{},
		echoTimeout:  defaultEchoTimeout,
		expiryMargin: defaultExpiryMargin,
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, o := range opts {
		o(s)
	}
	go s.loop()
	return s
}

func (s *Session) Inbox() chan<- Msg { return s.inbox }

// send delivers an internal continuation without blocking a goroutine
// forever when the session is shutting down.
func (s *Session) send(m Msg) {
	select {
	case s.inbox <- m:
	case <-s.ctx.Done():
	}
}

// Connect dials the primary channel, binds the consumed events into the
// inbox and joins the queue room. The room join is replayed by the channel
// layer after every reconnect. With a credential present the global chat
// channel is brought up as well; chat failing to connect never blocks the
// matchmaking pipeline.
func (s *Session) Connect(ctx context.Context) error {
	ch, err := s.channels.ConnectPrimary(ctx)
	if err != nil {
		return err
	}
	s.send(channelUp{Ch: ch})

	if s.token() != "" {
		go s.connectChat()
	}
	return ch.JoinRoom(ctx, wire.EmitJoinQueue, nil)
}

func (s *Session) connectChat() {
	ch, err := s.channels.ConnectChat(s.ctx, s.token())
	if err != nil {
		s.log.Debug("chat channel unavailable", zap.Error(err))
		return
	}
	if ch != nil {
		s.send(channelUp{Ch: ch})
	}
}

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case channelEvent:
				s.handleEvent(msg.Name, msg.Data)

			case channelUp:
				s.bindChannel(msg.Ch)
				if msg.Bound != nil {
					close(msg.Bound)
				}

			case JoinQueue:
				s.startJoinQueue(msg.Reply)
			case LeaveQueue:
				s.startLeaveQueue(msg.Reply)
			case Accept:
				s.startAccept(msg.Reply)
			case Decline:
				s.startDecline(msg.Reply)
			case Pick:
				s.startPick(msg.SteamID, msg.Reply)
			case Ban:
				s.startBan(msg.Map, msg.Reply)
			case SendChat:
				s.startSendChat(msg.Text, msg.Reply)
			case DeleteChat:
				s.startDeleteChat(msg.MessageID, msg.Reply)
			case MarkChatRead:
				s.chat = engine.ClearChatUnread(s.chat)
				s.bump()
			case Recover:
				go s.recoverAsync(msg.Reply)

			case joinFetched:
				s.applyJoin(msg)
			case leaveFetched:
				s.applyLeave(msg)
			case declineFetched:
				s.applyDecline(msg)
			case matchFetched:
				s.applyMatchFetched(msg)
			case matchMerged:
				s.applyMatchMerged(msg)
			case recovered:
				s.applyRecovered(msg)

			case acceptHTTPDone:
				s.applyAcceptHTTPDone(msg)
			case acceptFailed:
				if s.pending != nil && s.pending.seq == msg.Seq {
					s.resolvePending(Result{OK: false, Reason: msg.Reason})
				}
			case acceptDone:
				s.applyAcceptDone(msg)
			case chatSent:
				s.applyChatSent(msg)
			case echoArmed:
				s.armEcho(msg.Seq)
			case echoTimedOut:
				if s.pending != nil && s.pending.seq == msg.Seq {
					s.resolvePending(Result{OK: false, Reason: "Timeout waiting for ready update"})
				}
			case readyDeadline:
				s.handleReadyDeadline(msg.Seq)

			case Watch:
				// The greeting snapshot follows the same contract as every
				// broadcast: a watcher that cannot take it is dropped.
				select {
				case msg.Outbox <- s.snapshot():
					s.watchers[msg.ID] = msg.Outbox
				default:
					close(msg.Outbox)
				}
			case Unwatch:
				delete(s.watchers, msg.ID)
			case GetState:
				msg.Reply <- View{
					Version:     s.version,
					NumWatchers: len(s.watchers),
					Queue:       s.queue,
					Ready:       s.ready,
					Match:       s.match,
					Chat:        s.chat,
					Redirect:    s.redirect,
					Online:      s.online,
				}
			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) shutdown() {
	if s.pending != nil {
		s.resolvePending(Result{OK: false, Reason: "Session shut down"})
	}
	for id, ch := range s.watchers {
		close(ch)
		delete(s.watchers, id)
	}
	s.cancel()
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		Version:  s.version,
		Queue:    s.queue,
		Ready:    s.ready,
		Match:    s.match,
		Chat:     s.chat,
		Redirect: s.redirect,
		Online:   s.online,
	}
}

// bump records a state change and broadcasts it. Slow watchers are
// dropped rather than allowed to stall reconciliation.
func (s *Session) bump() {
	s.version++
	snap := s.snapshot()
	for id, ch := range s.watchers {
		select {
		case ch <- snap:
		default:
			close(ch)
			delete(s.watchers, id)
		}
	}
}

// bindChannel funnels every consumed event into the inbox. Handlers do no
// work of their own; ordering is preserved by the single loop.
func (s *Session) bindChannel(ch *channel.Channel) {
	if ch == nil || s.bound[ch.ID()] {
		return
	}
	s.bound[ch.ID()] = true

	events := []string{
		wire.EvtQueueUpdated, wire.EvtPlayerJoined, wire.EvtPlayerLeft, wire.EvtQueueFull,
		wire.EvtMatchReady, wire.EvtReadyInit, wire.EvtReadyUpdate, wire.EvtReadyComplete,
		wire.EvtReadyError, wire.EvtMatchStarting, wire.EvtCancelled,
		wire.EvtDraftUpdate, wire.EvtVetoUpdate, wire.EvtPhaseChange, wire.EvtServerReady,
		wire.EvtAcceptStarted, wire.EvtPlayerAccepted, wire.EvtPlayerDeclined, wire.EvtAcceptEnded,
		wire.EvtChatRecent, wire.EvtChatNew, wire.EvtChatOnline, wire.EvtChatDeleted,
		wire.EvtChatRateLimited, wire.EvtChatError,
		wire.EvtDisconnect, wire.EvtReconnect, wire.EvtReconnectFailed,
	}
	for _, name := range events {
		name := name
		ch.On(name, func(data json.RawMessage) {
			s.send(channelEvent{Name: name, Data: data})
		})
	}
}

func (s *Session) resolvePending(res Result) {
	if s.pending == nil {
		return
	}
	if s.pending.timer != nil {
		s.pending.timer.Stop()
	}
	select {
	case s.pending.reply <- res:
	default:
	}
	s.pending = nil
}

func (s *Session) armEcho(seq int) {
	if s.pending == nil || s.pending.seq != seq {
		return
	}
	s.pending.timer = time.AfterFunc(s.echoTimeout, func() {
		s.send(echoTimedOut{Seq: seq})
	})
}

// armReadyDeadline schedules the expiry-margin re-query. The generation
// counter makes stale fires from an already-ended phase harmless.
func (s *Session) armReadyDeadline() {
	s.readySeq++
	seq := s.readySeq
	wait := time.Until(s.ready.ExpiresAt.Add(s.expiryMargin))
	if wait < 0 {
		wait = 0
	}
	time.AfterFunc(wait, func() {
		s.send(readyDeadline{Seq: seq})
	})
}

func (s *Session) handleReadyDeadline(seq int) {
	if seq != s.readySeq || !s.ready.Active() {
		return
	}
	next, err := engine.TimeoutReady(s.ready)
	if err != nil {
		return
	}
	s.ready = next
	s.log.Info("accept phase passed expiry without completion, re-querying")
	s.bump()
	go s.recoverAsync(nil)
}

// joinMatchRooms subscribes both channels to the match room so events for
// this identity keep flowing after any reconnect.
func (s *Session) joinMatchRooms(matchID string) {
	if matchID == "" {
		return
	}
	if p := s.channels.Primary(); p != nil {
		go func() {
			if err := p.JoinRoom(s.ctx, wire.EmitJoinMatch, matchID); err != nil {
				s.log.Debug("join-match emit failed", zap.Error(err))
			}
		}()
	}
	go func() {
		ch, err := s.channels.ConnectMatch(s.ctx, s.token())
		if err != nil {
			s.log.Debug("match channel unavailable", zap.Error(err))
			return
		}
		if ch == nil {
			return
		}
		s.send(channelUp{Ch: ch})
		if err := ch.JoinRoom(s.ctx, wire.EmitJoinMatchRoom, map[string]string{"matchId": matchID}); err != nil {
			s.log.Debug("join:matchRoom emit failed", zap.Error(err))
		}
	}()
}

func (s *Session) leaveMatchRooms() {
	if p := s.channels.Primary(); p != nil {
		p.ForgetRoom(wire.EmitJoinMatch)
	}
	if m := s.channels.Match(); m != nil {
		m.ForgetRooms()
	}
}

// dropEvent logs reconciliation rejections; stale and duplicate events are
// expected traffic, not errors.
func (s *Session) dropEvent(name string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, engine.ErrStaleEvent) || errors.Is(err, engine.ErrIdentityMismatch) ||
		errors.Is(err, engine.ErrNotActive) || errors.Is(err, engine.ErrNoMatch) {
		s.log.Debug("event dropped", zap.String("event", name), zap.Error(err))
		return
	}
	s.log.Warn("event rejected", zap.String("event", name), zap.Error(err))
}
