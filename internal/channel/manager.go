package channel

import (
	"context"
	"net/http"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Manager is the single owner of every connection: the primary channel,
// the match-scoped channel and the chat channel. Connect calls are
// idempotent: a live channel is returned as-is, a dead one is replaced.
type Manager struct {
	primaryURL string
	matchURL   string
	chatURL    string
	log        *zap.Logger

	mu      sync.Mutex
	primary *Channel
	match   *Channel
	chat    *Channel
}

func NewManager(primaryURL, matchURL, chatURL string, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{primaryURL: primaryURL, matchURL: matchURL, chatURL: chatURL, log: log}
}

// ConnectPrimary returns the live primary channel, dialing only if none
// exists or the existing one is no longer connected.
func (m *Manager) ConnectPrimary(ctx context.Context) (*Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.primary != nil && m.primary.Connected() {
		return m.primary, nil
	}
	if m.primary != nil {
		_ = m.primary.Close()
	}

	ch := newChannel(context.Background(), "primary", m.primaryURL, nil, m.log)
	if err := ch.connect(ctx); err != nil {
		return nil, err
	}
	m.primary = ch
	return ch, nil
}

// ConnectMatch returns the authenticated match-scoped channel. With no
// credential it returns nil and no error: real-time match updates are
// unavailable and the caller falls back to polling/HTTP.
func (m *Manager) ConnectMatch(ctx context.Context, token string) (*Channel, error) {
	if token == "" {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.match != nil && m.match.Connected() {
		return m.match, nil
	}
	if m.match != nil {
		_ = m.match.Close()
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	ch := newChannel(context.Background(), "match", m.matchURL, header, m.log)
	if err := ch.connect(ctx); err != nil {
		return nil, err
	}
	m.match = ch
	return ch, nil
}

// ConnectChat returns the authenticated global-chat channel. Same token
// policy as the match channel: no credential, no chat.
func (m *Manager) ConnectChat(ctx context.Context, token string) (*Channel, error) {
	if token == "" {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.chat != nil && m.chat.Connected() {
		return m.chat, nil
	}
	if m.chat != nil {
		_ = m.chat.Close()
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	ch := newChannel(context.Background(), "chat", m.chatURL, header, m.log)
	if err := ch.connect(ctx); err != nil {
		return nil, err
	}
	m.chat = ch
	return ch, nil
}

func (m *Manager) Primary() *Channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.primary
}

func (m *Manager) Match() *Channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.match
}

func (m *Manager) Chat() *Channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chat
}

// DisconnectAll tears down every channel; safe when nothing was ever
// connected.
func (m *Manager) DisconnectAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.primary != nil {
		err = multierr.Append(err, m.primary.Close())
		m.primary = nil
	}
	if m.match != nil {
		err = multierr.Append(err, m.match.Close())
		m.match = nil
	}
	if m.chat != nil {
		err = multierr.Append(err, m.chat.Close())
		m.chat = nil
	}
	return err
}
