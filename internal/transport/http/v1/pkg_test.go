package v1

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/YinChingZ/LawAI/internal/adapter/llm"
	"github.com/YinChingZ/LawAI/internal/auth"
	"github.com/YinChingZ/LawAI/internal/config"
	"github.com/YinChingZ/LawAI/internal/domain"
	store "github.com/YinChingZ/LawAI/internal/repository"
	"github.com/YinChingZ/LawAI/internal/service"
	"github.com/YinChingZ/LawAI/tests/helpers"
)

type fakeLLM struct {
	deltas []string
	err    error
}

func (f *fakeLLM) CreateChatCompletionStream(ctx context.Context, req *llm.ChatCompletionRequest, callback llm.StreamCallback) error {
	for _, d := range f.deltas {
		chunk := &llm.StreamChunk{Choices: []llm.Choice{{Delta: &llm.ChatMessage{Role: "assistant", Content: d}}}}
		if err := callback(chunk); err != nil {
			return err
		}
	}
	return f.err
}

func newTestHandler(t *testing.T, client llm.LLMClient) (*Handler, *store.SQLiteStore) {
	t.Helper()
	db := helpers.NewTestSQLiteStore(t)
	cfg := &config.Config{
		LLMModel:        "glm-4-flashx",
		SystemPrompt:    "prompt",
		MaxMessageRunes: 4000,
		RollbackTimeout: time.Second,
	}
	svc := service.New(db, client, auth.NewTokenService("test-secret", time.Hour), cfg, nil)
	return NewHandler(svc), db
}

// readEvents parses the data frames of an SSE body.
func readEvents(t *testing.T, body string) []domain.RelayEvent {
	t.Helper()
	var events []domain.RelayEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev domain.RelayEvent
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("decode event %q: %v", line, err)
		}
		events = append(events, ev)
	}
	return events
}
