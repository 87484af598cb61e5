// Package llm provides an abstraction for the completion provider.
package llm

import "context"

// LLMClient defines the interface for completion provider operations.
type LLMClient interface {
	// CreateChatCompletionStream sends a streaming chat completion request.
	// The callback is called for each well-formed chunk received; malformed
	// frames are skipped.
	CreateChatCompletionStream(ctx context.Context, req *ChatCompletionRequest, callback StreamCallback) error
}

// Ensure Client implements LLMClient interface.
var _ LLMClient = (*Client)(nil)
