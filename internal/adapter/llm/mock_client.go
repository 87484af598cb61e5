package llm

import (
	"context"
	"fmt"
	"time"
)

// MockClient is a canned completion provider for local development and tests.
type MockClient struct {
	// ChunkRunes is the number of runes per streamed chunk.
	ChunkRunes int
}

// NewMockClient creates a new mock provider.
func NewMockClient() *MockClient {
	return &MockClient{ChunkRunes: 8}
}

// Ensure MockClient implements LLMClient interface.
var _ LLMClient = (*MockClient)(nil)

// CreateChatCompletionStream streams a canned answer that echoes the last user message.
func (m *MockClient) CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) error {
	id := fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano())
	created := time.Now().Unix()

	chunks := splitRunes(m.generateMockResponse(req), m.ChunkRunes)
	for i, text := range chunks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		finishReason := ""
		if i == len(chunks)-1 {
			finishReason = "stop"
		}

		chunk := &StreamChunk{
			ID:      id,
			Object:  "chat.completion.chunk",
			Created: created,
			Model:   req.Model,
			Choices: []Choice{{
				Index:        0,
				Delta:        &ChatMessage{Role: "assistant", Content: text},
				FinishReason: finishReason,
			}},
		}
		if err := callback(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockClient) generateMockResponse(req *ChatCompletionRequest) string {
	var lastUserMessage string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			lastUserMessage = req.Messages[i].Content
			break
		}
	}
	if lastUserMessage == "" {
		return "[MOCK] 请描述您遇到的法律问题。"
	}
	return fmt.Sprintf("[MOCK] 收到您的问题:%q。请提供事情发生的时间、地点以及相关证据。", truncate(lastUserMessage, 100))
}

// splitRunes splits s into chunks of at most size runes.
func splitRunes(s string, size int) []string {
	if size <= 0 {
		size = 8
	}
	runes := []rune(s)
	if len(runes) == 0 {
		return []string{""}
	}

	var chunks []string
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}

func truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}
