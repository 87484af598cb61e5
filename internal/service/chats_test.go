package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YinChingZ/LawAI/internal/domain"
	"github.com/YinChingZ/LawAI/tests/helpers"
)

func TestListChatsStripsSystemMessages(t *testing.T) {
	svc, db := newTestService(t, &scriptedLLM{})
	helpers.SeedAccount(t, db, "alice")
	ctx := context.Background()

	conv := domain.NewConversation("c1", domain.Authenticated("alice"), "prompt", "hello", time.Now())
	require.NoError(t, db.CreateConversation(ctx, &conv))

	chats, err := svc.ListChats(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	require.Len(t, chats[0].Messages, 1)
	assert.Equal(t, domain.RoleUser, chats[0].Messages[0].Role)

	_, err = svc.ListChats(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = svc.ListChats(ctx, "")
	assert.ErrorIs(t, err, domain.ErrIdentityRequired)
}

func TestDeleteChatChecksOwner(t *testing.T) {
	svc, db := newTestService(t, &scriptedLLM{})
	helpers.SeedAccount(t, db, "alice")
	helpers.SeedAccount(t, db, "bob")
	ctx := context.Background()

	conv := domain.NewConversation("c1", domain.Authenticated("alice"), "prompt", "hello", time.Now())
	require.NoError(t, db.CreateConversation(ctx, &conv))

	err := svc.DeleteChat(ctx, domain.Authenticated("bob"), "c1")
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)

	err = svc.DeleteChat(ctx, domain.Guest("g1"), "c1")
	assert.ErrorIs(t, err, domain.ErrIdentityRequired)

	require.NoError(t, svc.DeleteChat(ctx, domain.Authenticated("alice"), "c1"))
	stored, err := db.GetConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, stored)
}
