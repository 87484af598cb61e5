package service

import (
	"context"
	"fmt"

	"github.com/YinChingZ/LawAI/internal/domain"
)

// ListChats returns an account's conversations without their system messages.
func (s *Service) ListChats(ctx context.Context, identifier string) ([]domain.Conversation, error) {
	if identifier == "" {
		return nil, domain.ErrIdentityRequired
	}
	account, err := s.store.GetAccount(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}

	convs, err := s.store.ListConversations(ctx, account.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	chats := make([]domain.Conversation, len(convs))
	for i, c := range convs {
		chats[i] = c.Visible()
	}
	return chats, nil
}

// DeleteChat deletes a conversation owned by identity.
func (s *Service) DeleteChat(ctx context.Context, identity domain.Identity, id string) error {
	if !identity.Valid() || identity.IsGuest() {
		return domain.ErrIdentityRequired
	}
	account, err := s.store.GetAccount(ctx, identity.Identifier)
	if err != nil {
		return fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil {
		return domain.ErrAccountNotFound
	}

	conv, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get conversation: %w", err)
	}
	if conv == nil || conv.UserID != account.Username {
		return domain.ErrConversationNotFound
	}
	if err := s.store.DeleteConversation(ctx, id); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}
