package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/realmariusconstantin/romish-client/pkg/wire"
)

func chatMsg(i int) wire.ChatMessage {
	return wire.ChatMessage{
		MessageID: fmt.Sprintf("msg-%d", i),
		UserID:    fmt.Sprintf("p%d", i%10),
		Text:      fmt.Sprintf("hello %d", i),
	}
}

func TestChat_DuplicateMessageSuppressed(t *testing.T) {
	s := NewChatState()
	s = AddChatMessage(s, chatMsg(1))
	s = AddChatMessage(s, chatMsg(1))
	if s.MessageCount() != 1 {
		t.Fatalf("duplicate messageId must not append, count=%d", s.MessageCount())
	}
	if s.Unread != 1 {
		t.Fatalf("duplicate must not bump unread, got %d", s.Unread)
	}
}

func TestChat_EmptyMessageIDIgnored(t *testing.T) {
	s := AddChatMessage(NewChatState(), wire.ChatMessage{Text: "no id"})
	if s.MessageCount() != 0 {
		t.Fatalf("message without an id must be dropped")
	}
}

func TestChat_UnreadCapped(t *testing.T) {
	s := NewChatState()
	s.Unread = maxUnread
	s = AddChatMessage(s, chatMsg(1))
	if s.Unread != maxUnread {
		t.Fatalf("unread must cap at %d, got %d", maxUnread, s.Unread)
	}
	if s.MessageCount() != 1 {
		t.Fatalf("cap applies to the badge only, message must still land")
	}
}

func TestChat_HistoryReplacesWholesale(t *testing.T) {
	s := AddChatMessage(NewChatState(), chatMsg(1))
	s = SetChatHistory(s, []wire.ChatMessage{chatMsg(7), chatMsg(8)})
	if s.MessageCount() != 2 {
		t.Fatalf("history must replace, count=%d", s.MessageCount())
	}
}

func TestChat_RemoveMessage(t *testing.T) {
	s := NewChatState()
	s = AddChatMessage(s, chatMsg(1))
	s = AddChatMessage(s, chatMsg(2))
	s = RemoveChatMessage(s, "msg-1")
	if s.MessageCount() != 1 || s.hasMessage("msg-1") {
		t.Fatalf("remove left %+v", s.Messages)
	}
	// Removing something already gone is a no-op.
	s = RemoveChatMessage(s, "msg-1")
	if s.MessageCount() != 1 {
		t.Fatalf("repeat remove changed state")
	}
}

func TestChat_OnlineCountClamped(t *testing.T) {
	s := SetChatOnline(NewChatState(), -3)
	if s.OnlineCount != 0 {
		t.Fatalf("online count must clamp at 0, got %d", s.OnlineCount)
	}
}

func TestChat_RateLimitWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := RateLimitChat(NewChatState(), now)

	if !s.RateLimited(now.Add(5 * time.Second)) {
		t.Fatalf("still inside the window")
	}
	if s.RateLimited(now.Add(chatRateLimitWindow)) {
		t.Fatalf("window must be over after %v", chatRateLimitWindow)
	}
	if got := s.RateLimitRemaining(now); got != 10 {
		t.Fatalf("remaining at start = %d, want 10", got)
	}
	if got := s.RateLimitRemaining(now.Add(time.Minute)); got != 0 {
		t.Fatalf("remaining after window = %d, want 0", got)
	}
}

func TestChat_ClearUnreadKeepsMessages(t *testing.T) {
	s := AddChatMessage(NewChatState(), chatMsg(1))
	s = ClearChatUnread(s)
	if s.Unread != 0 || s.MessageCount() != 1 {
		t.Fatalf("clear unread: %+v", s)
	}
}

func TestChat_ResetClearsEverything(t *testing.T) {
	s := AddChatMessage(NewChatState(), chatMsg(1))
	s = SetChatOnline(s, 4)
	s = ResetChat(s)
	if s.MessageCount() != 0 || s.OnlineCount != 0 || s.Unread != 0 {
		t.Fatalf("reset left residue: %+v", s)
	}
}
