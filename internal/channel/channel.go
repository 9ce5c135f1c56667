// Package channel owns the real-time connections: one primary channel and
// at most one each of the match-scoped and global-chat authenticated
// channels. Containers only emit and listen; connection lifecycle lives
// here and nowhere else.
package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/realmariusconstantin/romish-client/pkg/wire"
)

var ErrNotConnected = errors.New("channel not connected")

const (
	reconnectInitial  = time.Second
	reconnectCap      = 5 * time.Second
	reconnectAttempts = 5
	writeTimeout      = 3 * time.Second
)

// Handler receives the raw payload of a named event.
type Handler func(data json.RawMessage)

// envelope is the wire framing for named events in both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type subscription struct {
	id int
	fn Handler
}

type room struct {
	event   string
	payload json.RawMessage
}

// Channel is one live connection. A dropped connection reconnects with
// bounded exponential backoff and re-emits every room join it had made;
// forgetting the room would silently stop event delivery with no error
// surfaced anywhere.
type Channel struct {
	id     string
	name   string
	url    string
	header http.Header
	log    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	conn    *websocket.Conn
	nextSub int
	subs    map[string][]subscription
	rooms   []room
	closed  bool
}

func newChannel(parent context.Context, name, url string, header http.Header, log *zap.Logger) *Channel {
	ctx, cancel := context.WithCancel(parent)
	return &Channel{
		id:     uuid.NewString(),
		name:   name,
		url:    url,
		header: header,
		log:    log.With(zap.String("channel", name)),
		ctx:    ctx,
		cancel: cancel,
		subs:   map[string][]subscription{},
	}
}

func (c *Channel) ID() string { return c.id }

func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && !c.closed
}

func (c *Channel) connect(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, c.url, &websocket.DialOptions{HTTPHeader: c.header})
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close(websocket.StatusNormalClosure, "closed")
		return ErrNotConnected
	}
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(conn)
	return nil
}

func (c *Channel) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(c.ctx)
		if err != nil {
			c.mu.Lock()
			closed := c.closed
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()

			if closed || c.ctx.Err() != nil {
				return
			}
			c.log.Debug("connection dropped", zap.Error(err))
			c.dispatch(wire.EvtDisconnect, nil)
			c.reconnect()
			return
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.log.Debug("bad frame", zap.Error(err))
			continue
		}
		c.dispatch(env.Event, env.Data)
	}
}

func (c *Channel) reconnect() {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = reconnectInitial
	bo.MaxInterval = reconnectCap
	bo.MaxElapsedTime = 0

	op := func() error { return c.connect(c.ctx) }
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, reconnectAttempts), c.ctx)); err != nil {
		c.log.Error("reconnect attempts exhausted", zap.Error(err))
		c.dispatch(wire.EvtReconnectFailed, nil)
		return
	}

	c.rejoinRooms()
	c.dispatch(wire.EvtReconnect, nil)
	c.log.Info("reconnected")
}

// On registers a handler for a named event and returns its removal
// function, so one-shot waits can drop their callbacks once confirmed.
func (c *Channel) On(event string, fn Handler) (off func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSub++
	id := c.nextSub
	c.subs[event] = append(c.subs[event], subscription{id: id, fn: fn})
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		subs := c.subs[event]
		for i, s := range subs {
			if s.id == id {
				c.subs[event] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

func (c *Channel) dispatch(event string, data json.RawMessage) {
	c.mu.Lock()
	subs := append([]subscription(nil), c.subs[event]...)
	c.mu.Unlock()
	for _, s := range subs {
		s.fn(data)
	}
}

// Emit sends one named event.
func (c *Channel) Emit(ctx context.Context, event string, payload any) error {
	var data json.RawMessage
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		data = buf
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	buf, err := json.Marshal(envelope{Event: event, Data: data})
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(wctx, websocket.MessageText, buf)
}

// JoinRoom emits a room-join event and remembers it for replay after
// reconnect.
func (c *Channel) JoinRoom(ctx context.Context, event string, payload any) error {
	var data json.RawMessage
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		data = buf
	}

	c.mu.Lock()
	known := false
	for _, r := range c.rooms {
		if r.event == event && bytes.Equal(r.payload, data) {
			known = true
			break
		}
	}
	if !known {
		c.rooms = append(c.rooms, room{event: event, payload: data})
	}
	c.mu.Unlock()

	return c.Emit(ctx, event, payload)
}

// ForgetRooms drops the replay list; used when the match epoch ends.
func (c *Channel) ForgetRooms() {
	c.mu.Lock()
	c.rooms = nil
	c.mu.Unlock()
}

// ForgetRoom drops every remembered join for one event name, leaving the
// other rooms (the queue room in particular) subscribed.
func (c *Channel) ForgetRoom(event string) {
	c.mu.Lock()
	c.rooms = slices.DeleteFunc(c.rooms, func(r room) bool { return r.event == event })
	c.mu.Unlock()
}

func (c *Channel) rejoinRooms() {
	c.mu.Lock()
	rooms := append([]room(nil), c.rooms...)
	c.mu.Unlock()
	for _, r := range rooms {
		var payload any
		if r.payload != nil {
			payload = r.payload
		}
		if err := c.Emit(c.ctx, r.event, payload); err != nil {
			c.log.Warn("room rejoin failed", zap.String("event", r.event), zap.Error(err))
		}
	}
}

func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	c.cancel()
	if conn != nil {
		return conn.Close(websocket.StatusNormalClosure, "bye")
	}
	return nil
}
