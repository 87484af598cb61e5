package domain

import (
	"time"
)

// TitleMaxRunes is the number of runes of the first user message kept in a title.
const TitleMaxRunes = 20

// TitleEllipsis marks a truncated title.
const TitleEllipsis = "..."

// DisplayTimeLayout is the layout of Conversation.Time.
const DisplayTimeLayout = "2006-01-02 15:04:05"

// Message is a single role-tagged entry of a conversation.
type Message struct {
	Role      Role      `json:"role" bson:"role"`
	Content   string    `json:"content" bson:"content"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// Conversation is an ordered list of messages owned by exactly one identity.
// An empty ID means the conversation has not been persisted.
type Conversation struct {
	ID       string    `json:"_id" bson:"_id"`
	Title    string    `json:"title" bson:"title"`
	UserID   string    `json:"userId,omitempty" bson:"user_id,omitempty"`
	GuestID  string    `json:"guestId,omitempty" bson:"guest_id,omitempty"`
	Time     string    `json:"time" bson:"time"`
	Messages []Message `json:"messages" bson:"messages"`
}

// DeriveTitle builds a conversation title from the first user message.
// Truncation counts runes so multi-byte text is never split.
func DeriveTitle(message string) string {
	runes := []rune(message)
	if len(runes) <= TitleMaxRunes {
		return message
	}
	return string(runes[:TitleMaxRunes]) + TitleEllipsis
}

// DisplayTime formats t the way conversations show their last activity.
func DisplayTime(t time.Time) string {
	return t.Local().Format(DisplayTimeLayout)
}

// NewConversation seeds a conversation with the priming prompt and the first user message.
func NewConversation(id string, owner Identity, systemPrompt, message string, now time.Time) Conversation {
	conv := Conversation{
		ID:    id,
		Title: DeriveTitle(message),
		Time:  DisplayTime(now),
		Messages: []Message{
			{Role: RoleSystem, Content: systemPrompt, Timestamp: now},
			{Role: RoleUser, Content: message, Timestamp: now},
		},
	}
	if owner.IsGuest() {
		conv.GuestID = owner.GuestID
	} else {
		conv.UserID = owner.Identifier
	}
	return conv
}

// WithMessage returns a copy of c with msg appended. The receiver is not modified.
func (c Conversation) WithMessage(msg Message, now time.Time) Conversation {
	out := c
	out.Messages = make([]Message, len(c.Messages), len(c.Messages)+1)
	copy(out.Messages, c.Messages)
	out.Messages = append(out.Messages, msg)
	out.Time = DisplayTime(now)
	return out
}

// WithoutLastMessage returns a copy of c with the trailing message removed.
func (c Conversation) WithoutLastMessage(now time.Time) Conversation {
	out := c
	if len(c.Messages) == 0 {
		return out
	}
	out.Messages = make([]Message, len(c.Messages)-1)
	copy(out.Messages, c.Messages[:len(c.Messages)-1])
	out.Time = DisplayTime(now)
	return out
}

// Visible returns a copy of c without system messages.
func (c Conversation) Visible() Conversation {
	out := c
	out.Messages = make([]Message, 0, len(c.Messages))
	for _, m := range c.Messages {
		if m.Role == RoleSystem {
			continue
		}
		out.Messages = append(out.Messages, m)
	}
	return out
}

// CountUserMessages counts user-authored messages with from <= ts, and ts < until
// when until is non-zero.
func CountUserMessages(messages []Message, from, until time.Time) int {
	n := 0
	for _, m := range messages {
		if m.Role != RoleUser || m.Timestamp.IsZero() {
			continue
		}
		if m.Timestamp.Before(from) {
			continue
		}
		if !until.IsZero() && !m.Timestamp.Before(until) {
			continue
		}
		n++
	}
	return n
}
