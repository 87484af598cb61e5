package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/YinChingZ/LawAI/internal/adapter/llm"
	"github.com/YinChingZ/LawAI/internal/domain"
	"github.com/YinChingZ/LawAI/internal/policy"
)

// ChatRequest is one user query to relay.
type ChatRequest struct {
	Identity       domain.Identity
	ConversationID string
	Message        string
}

// ChatSession is an accepted query whose conversation state has been committed
// and which is ready to be streamed.
type ChatSession struct {
	Identity domain.Identity
	// Conversation is the snapshot sent to the provider, ending with the user message.
	Conversation domain.Conversation
	// Created is set when this request inserted the conversation.
	Created bool
}

// Meta returns the response metadata fixed before streaming begins.
func (s *ChatSession) Meta() domain.RelayMeta {
	return domain.RelayMeta{
		ConversationID: s.Conversation.ID,
		Title:          s.Conversation.Title,
		IsGuest:        s.Identity.IsGuest(),
	}
}

// StartChat validates a query, resolves or creates its conversation and records
// the query in the usage log. Errors returned here happen before anything is streamed.
func (s *Service) StartChat(ctx context.Context, req ChatRequest) (*ChatSession, error) {
	if !req.Identity.Valid() {
		return nil, domain.ErrIdentityRequired
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, domain.ErrMessageRequired
	}
	if err := s.checkPolicy(ctx, req); err != nil {
		return nil, err
	}

	var session *ChatSession
	var err error
	if req.Identity.IsGuest() {
		session = s.startGuestChat(req)
	} else {
		session, err = s.startUserChat(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	s.recordUsage(ctx, req.Identity)
	return session, nil
}

func (s *Service) checkPolicy(ctx context.Context, req ChatRequest) error {
	if s.policyEngine == nil {
		return nil
	}
	decision, err := s.policyEngine.Evaluate(ctx, policy.Input{
		IsGuest:         req.Identity.IsGuest(),
		MessageRunes:    utf8.RuneCountInString(req.Message),
		MaxMessageRunes: s.config.MaxMessageRunes,
	})
	if err != nil {
		return fmt.Errorf("policy check failed: %w", err)
	}
	if decision == domain.DecisionBlock {
		return domain.ErrQueryRejected
	}
	return nil
}

// Guest conversations live only in memory; the caller owns their persistence.
func (s *Service) startGuestChat(req ChatRequest) *ChatSession {
	now := s.now()
	id := req.ConversationID
	if id == "" {
		id = fmt.Sprintf("guest_chat_%d", now.UnixMilli())
	}
	return &ChatSession{
		Identity:     req.Identity,
		Conversation: domain.NewConversation(id, req.Identity, s.config.SystemPrompt, req.Message, now),
	}
}

func (s *Service) startUserChat(ctx context.Context, req ChatRequest) (*ChatSession, error) {
	account, err := s.store.GetAccount(ctx, req.Identity.Identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}
	owner := domain.Authenticated(account.Username)

	if req.ConversationID == "" {
		return s.startNewConversation(ctx, owner, req.Message)
	}

	conv, err := s.store.GetConversation(ctx, req.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	if conv == nil || conv.UserID != owner.Identifier {
		return nil, domain.ErrConversationNotFound
	}

	now := s.now()
	next := conv.WithMessage(domain.Message{Role: domain.RoleUser, Content: req.Message, Timestamp: now}, now)
	if err := s.store.SaveConversation(ctx, &next); err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}
	return &ChatSession{Identity: owner, Conversation: next}, nil
}

// startNewConversation reuses an unanswered conversation with the same title, which
// absorbs duplicate submissions of a first message, or creates a new one.
func (s *Service) startNewConversation(ctx context.Context, owner domain.Identity, message string) (*ChatSession, error) {
	pending, err := s.store.FindPendingConversation(ctx, owner.Identifier, domain.DeriveTitle(message))
	if err != nil {
		return nil, fmt.Errorf("failed to find pending conversation: %w", err)
	}
	if pending != nil {
		return &ChatSession{Identity: owner, Conversation: *pending}, nil
	}

	conv := domain.NewConversation(uuid.NewString(), owner, s.config.SystemPrompt, message, s.now())
	if err := s.store.CreateConversation(ctx, &conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return &ChatSession{Identity: owner, Conversation: conv, Created: true}, nil
}

func (s *Service) recordUsage(ctx context.Context, identity domain.Identity) {
	entry := &domain.UsageLogEntry{
		ID:        uuid.NewString(),
		ActorID:   identity.ActorID(),
		IsGuest:   identity.IsGuest(),
		Timestamp: s.now(),
	}
	if err := s.store.CreateUsageLog(ctx, entry); err != nil {
		log.Warnf("failed to record usage log for %s: %v", entry.ActorID, err)
	}
}

// StreamChat relays the session's conversation to the completion provider and calls
// emit once per content delta with the full accumulated answer. On success the
// answer is persisted (or, for guests, sent back in a final event). On failure the
// conversation is rolled back and the error is returned.
func (s *Service) StreamChat(ctx context.Context, session *ChatSession, emit func(domain.RelayEvent) error) error {
	req := &llm.ChatCompletionRequest{
		Model:    s.config.LLMModel,
		Messages: toChatMessages(session.Conversation.Messages),
		Stream:   true,
	}

	var answer strings.Builder
	err := s.llmClient.CreateChatCompletionStream(ctx, req, func(chunk *llm.StreamChunk) error {
		delta := chunk.DeltaContent()
		if delta == "" {
			return nil
		}
		answer.WriteString(delta)
		return emit(domain.RelayEvent{Content: answer.String()})
	})
	if err != nil {
		s.rollback(ctx, session, err)
		return fmt.Errorf("completion stream failed: %w", err)
	}

	if answer.Len() == 0 {
		log.Warnf("completion for conversation %s produced no content", session.Conversation.ID)
		return nil
	}

	now := s.now()
	final := session.Conversation.WithMessage(domain.Message{
		Role:      domain.RoleAssistant,
		Content:   answer.String(),
		Timestamp: now,
	}, now)

	if session.Identity.IsGuest() {
		return emit(domain.RelayEvent{Content: answer.String(), Chat: &final, IsGuest: true})
	}

	saveCtx, cancel := s.detached(ctx)
	defer cancel()
	if err := s.store.SaveConversation(saveCtx, &final); err != nil {
		s.rollback(ctx, session, err)
		return fmt.Errorf("failed to save answer: %w", err)
	}
	return nil
}

// rollback undoes the write made by StartChat. It runs once, on a context that
// survives the caller going away, and only logs its own failure.
func (s *Service) rollback(ctx context.Context, session *ChatSession, cause error) {
	if session.Identity.IsGuest() {
		return
	}
	conv := session.Conversation

	rbCtx, cancel := s.detached(ctx)
	defer cancel()

	if session.Created {
		if err := s.store.DeleteConversation(rbCtx, conv.ID); err != nil {
			log.Errorf("rollback: failed to delete conversation %s: %v", conv.ID, err)
			return
		}
		log.Infof("rollback: deleted conversation %s after %v", conv.ID, cause)
		return
	}

	if len(conv.Messages) <= 1 {
		return
	}
	reverted := conv.WithoutLastMessage(s.now())
	if err := s.store.SaveConversation(rbCtx, &reverted); err != nil {
		log.Errorf("rollback: failed to remove last message of %s: %v", conv.ID, err)
		return
	}
	log.Infof("rollback: removed last message of conversation %s after %v", conv.ID, cause)
}

func (s *Service) detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.config.RollbackTimeout)
}

func toChatMessages(messages []domain.Message) []llm.ChatMessage {
	out := make([]llm.ChatMessage, len(messages))
	for i, m := range messages {
		out[i] = llm.ChatMessage{Role: string(m.Role), Content: m.Content}
	}
	return out
}
