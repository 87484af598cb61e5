package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/YinChingZ/LawAI/internal/adapter/llm"
	"github.com/YinChingZ/LawAI/internal/auth"
	"github.com/YinChingZ/LawAI/internal/config"
	"github.com/YinChingZ/LawAI/internal/domain"
	store "github.com/YinChingZ/LawAI/internal/repository"
	"github.com/YinChingZ/LawAI/tests/helpers"
)

// scriptedLLM replays fixed deltas and then returns err.
type scriptedLLM struct {
	deltas []string
	err    error
	before func()
	got    *llm.ChatCompletionRequest
}

func (f *scriptedLLM) CreateChatCompletionStream(ctx context.Context, req *llm.ChatCompletionRequest, callback llm.StreamCallback) error {
	f.got = req
	if f.before != nil {
		f.before()
	}
	for _, d := range f.deltas {
		chunk := &llm.StreamChunk{Choices: []llm.Choice{{Delta: &llm.ChatMessage{Role: "assistant", Content: d}}}}
		if err := callback(chunk); err != nil {
			return err
		}
	}
	return f.err
}

// faultyStore injects failures into selected store calls.
type faultyStore struct {
	store.Store
	saveErrs  []error
	deleteErr error
	usageErr  error
}

func (s *faultyStore) SaveConversation(ctx context.Context, conv *domain.Conversation) error {
	if len(s.saveErrs) > 0 {
		err := s.saveErrs[0]
		s.saveErrs = s.saveErrs[1:]
		if err != nil {
			return err
		}
	}
	return s.Store.SaveConversation(ctx, conv)
}

func (s *faultyStore) DeleteConversation(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.Store.DeleteConversation(ctx, id)
}

func (s *faultyStore) CreateUsageLog(ctx context.Context, entry *domain.UsageLogEntry) error {
	if s.usageErr != nil {
		return s.usageErr
	}
	return s.Store.CreateUsageLog(ctx, entry)
}

var errProvider = errors.New("provider connection reset")

func testConfig() *config.Config {
	return &config.Config{
		LLMModel:        "glm-4-flashx",
		SystemPrompt:    "prompt",
		MaxMessageRunes: 4000,
		RollbackTimeout: time.Second,
	}
}

func newTestService(t *testing.T, client llm.LLMClient) (*Service, *store.SQLiteStore) {
	t.Helper()
	db := helpers.NewTestSQLiteStore(t)
	svc := New(db, client, auth.NewTokenService("test-secret", time.Hour), testConfig(), nil)
	return svc, db
}

func collect(events *[]domain.RelayEvent) func(domain.RelayEvent) error {
	return func(ev domain.RelayEvent) error {
		*events = append(*events, ev)
		return nil
	}
}
