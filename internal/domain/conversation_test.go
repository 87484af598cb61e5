package domain

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveTitle(t *testing.T) {
	t.Run("short CJK message is kept", func(t *testing.T) {
		assert.Equal(t, "你好", DeriveTitle("你好"))
	})

	t.Run("exactly twenty runes is kept", func(t *testing.T) {
		msg := strings.Repeat("工", 20)
		assert.Equal(t, msg, DeriveTitle(msg))
	})

	t.Run("long message is truncated", func(t *testing.T) {
		msg := "abcdefghijklmnopqrstuvwxy"
		require.Len(t, msg, 25)
		got := DeriveTitle(msg)
		assert.Equal(t, "abcdefghijklmnopqrst...", got)
	})

	t.Run("truncation never splits a rune", func(t *testing.T) {
		msg := strings.Repeat("薪", 25)
		got := DeriveTitle(msg)
		assert.Equal(t, strings.Repeat("薪", 20)+TitleEllipsis, got)
	})
}

func TestNewConversation(t *testing.T) {
	now := time.Date(2024, 5, 6, 10, 0, 0, 0, time.Local)

	conv := NewConversation("", Authenticated("alice"), "prompt", "工资被拖欠怎么办", now)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, RoleSystem, conv.Messages[0].Role)
	assert.Equal(t, RoleUser, conv.Messages[1].Role)
	assert.Equal(t, "alice", conv.UserID)
	assert.Empty(t, conv.GuestID)
	assert.Equal(t, "2024-05-06 10:00:00", conv.Time)

	guest := NewConversation("g1", Guest("guest-1"), "prompt", "hi", now)
	assert.Equal(t, "guest-1", guest.GuestID)
	assert.Empty(t, guest.UserID)
}

func TestConversationCopiesDoNotAlias(t *testing.T) {
	now := time.Now()
	base := NewConversation("c1", Authenticated("alice"), "prompt", "hello", now)

	next := base.WithMessage(Message{Role: RoleAssistant, Content: "hi"}, now)
	require.Len(t, next.Messages, 3)
	assert.Len(t, base.Messages, 2)

	next.Messages[0].Content = "changed"
	assert.Equal(t, "prompt", base.Messages[0].Content)

	trimmed := next.WithoutLastMessage(now)
	assert.Len(t, trimmed.Messages, 2)
	assert.Len(t, next.Messages, 3)
}

func TestVisibleDropsSystemMessages(t *testing.T) {
	conv := NewConversation("c1", Authenticated("alice"), "prompt", "hello", time.Now())
	visible := conv.Visible()
	require.Len(t, visible.Messages, 1)
	assert.Equal(t, RoleUser, visible.Messages[0].Role)
	assert.Len(t, conv.Messages, 2)
}

func TestCountUserMessages(t *testing.T) {
	start := time.Date(2024, 5, 6, 0, 0, 0, 0, time.Local)
	cutover := start.Add(48 * time.Hour)

	messages := []Message{
		{Role: RoleSystem, Content: "s", Timestamp: start.Add(time.Hour)},
		{Role: RoleUser, Content: "before week", Timestamp: start.Add(-time.Hour)},
		{Role: RoleUser, Content: "in range", Timestamp: start.Add(time.Hour)},
		{Role: RoleAssistant, Content: "a", Timestamp: start.Add(time.Hour)},
		{Role: RoleUser, Content: "at cutover", Timestamp: cutover},
		{Role: RoleUser, Content: "no timestamp"},
	}

	assert.Equal(t, 1, CountUserMessages(messages, start, cutover))
	assert.Equal(t, 2, CountUserMessages(messages, start, time.Time{}))
}

func TestIdentity(t *testing.T) {
	assert.True(t, Guest("g").IsGuest())
	assert.True(t, Guest("g").Valid())
	assert.False(t, Authenticated("u").IsGuest())
	assert.True(t, Authenticated("u").Valid())
	assert.False(t, Identity{}.Valid())
	assert.False(t, Identity{Identifier: "u", GuestID: "g"}.Valid())
	assert.Equal(t, "g", Guest("g").ActorID())
	assert.Equal(t, "u", Authenticated("u").ActorID())
}

func TestAccountPassword(t *testing.T) {
	var a Account
	require.NoError(t, a.SetPassword("s3cret"))
	assert.True(t, a.CheckPassword("s3cret"))
	assert.False(t, a.CheckPassword("wrong"))
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "ConversationNotFound", ErrorCode(fmt.Errorf("load: %w", ErrConversationNotFound)))
	assert.Equal(t, "IdentityRequired", ErrorCode(ErrIdentityRequired))
	assert.Equal(t, "InternalError", ErrorCode(fmt.Errorf("boom")))
}
