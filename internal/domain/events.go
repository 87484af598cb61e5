package domain

// RelayEvent is one event re-streamed to the caller. Content always carries the
// full accumulated assistant text. Chat is only set on a guest's final event.
type RelayEvent struct {
	Content string        `json:"content"`
	Chat    *Conversation `json:"chatData,omitempty"`
	IsGuest bool          `json:"isGuest,omitempty"`
}

// RelayMeta is the response metadata fixed before streaming begins.
type RelayMeta struct {
	ConversationID string `json:"session_id"`
	Title          string `json:"title"`
	IsGuest        bool   `json:"is_guest"`
}

// ErrorResponse is the body of a non-streaming failure.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
