package domain

import "errors"

var (
	ErrIdentityRequired     = errors.New("user identity required")
	ErrMessageRequired      = errors.New("message is required")
	ErrAccountNotFound      = errors.New("user not found")
	ErrConversationNotFound = errors.New("chat not found")
	ErrQueryRejected        = errors.New("query rejected by policy")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrAccountExists        = errors.New("username already taken")
)

// ErrorCode returns the machine-readable code reported to callers for err.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrIdentityRequired):
		return "IdentityRequired"
	case errors.Is(err, ErrMessageRequired):
		return "MessageRequired"
	case errors.Is(err, ErrQueryRejected):
		return "QueryRejected"
	case errors.Is(err, ErrAccountNotFound):
		return "AccountNotFound"
	case errors.Is(err, ErrConversationNotFound):
		return "ConversationNotFound"
	case errors.Is(err, ErrInvalidCredentials):
		return "InvalidCredentials"
	case errors.Is(err, ErrAccountExists):
		return "AccountExists"
	default:
		return "InternalError"
	}
}
