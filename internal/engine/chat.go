package engine

import (
	"slices"
	"time"

	"github.com/realmariusconstantin/romish-client/pkg/wire"
)

const (
	// maxUnread caps the badge counter.
	maxUnread = 999
	// chatRateLimitWindow is how long a server rate-limit notice silences
	// sends locally.
	chatRateLimitWindow = 10 * time.Second
)

// ChatState is the global chat container. Messages are deduplicated by
// MessageID so a replayed history or a re-delivered event never doubles an
// entry; the rate limit is modelled as a deadline rather than a countdown
// so views can project the remainder from any clock.
type ChatState struct {
	Messages       []wire.ChatMessage
	OnlineCount    int
	Unread         int
	RateLimitUntil time.Time
}

func NewChatState() ChatState { return ChatState{} }

func (s ChatState) MessageCount() int { return len(s.Messages) }

func (s ChatState) HasNewMessages() bool { return s.Unread > 0 }

func (s ChatState) RateLimited(now time.Time) bool { return now.Before(s.RateLimitUntil) }

// RateLimitRemaining projects the seconds left in the silence window.
func (s ChatState) RateLimitRemaining(now time.Time) int {
	if !now.Before(s.RateLimitUntil) {
		return 0
	}
	return int(s.RateLimitUntil.Sub(now)/time.Second) + 1
}

func (s ChatState) hasMessage(id string) bool {
	return slices.ContainsFunc(s.Messages, func(m wire.ChatMessage) bool { return m.MessageID == id })
}

// AddChatMessage appends one incoming message and bumps the unread badge.
// A duplicate MessageID leaves the container untouched.
func AddChatMessage(s ChatState, m wire.ChatMessage) ChatState {
	if m.MessageID == "" || s.hasMessage(m.MessageID) {
		return s
	}
	next := s
	next.Messages = append(slices.Clone(s.Messages), m)
	if next.Unread < maxUnread {
		next.Unread++
	}
	return next
}

// SetChatHistory replaces the message list wholesale; sent by the server
// on connect (and after every reconnect), so it wins over anything local.
func SetChatHistory(s ChatState, history []wire.ChatMessage) ChatState {
	next := s
	next.Messages = slices.Clone(history)
	return next
}

func RemoveChatMessage(s ChatState, messageID string) ChatState {
	next := s
	next.Messages = slices.DeleteFunc(slices.Clone(s.Messages), func(m wire.ChatMessage) bool {
		return m.MessageID == messageID
	})
	return next
}

func SetChatOnline(s ChatState, count int) ChatState {
	next := s
	next.OnlineCount = max(count, 0)
	return next
}

// RateLimitChat opens the silence window from the server's notice.
func RateLimitChat(s ChatState, now time.Time) ChatState {
	next := s
	next.RateLimitUntil = now.Add(chatRateLimitWindow)
	return next
}

func ClearChatUnread(s ChatState) ChatState {
	next := s
	next.Unread = 0
	return next
}

func ResetChat(ChatState) ChatState { return ChatState{} }
