package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sseChunk(content string) string {
	return fmt.Sprintf("data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"glm\",\"choices\":[{\"index\":0,\"delta\":{\"role\":\"assistant\",\"content\":%q}}]}\n\n", content)
}

func TestClientCreateChatCompletionStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseChunk("你"))
		fmt.Fprint(w, sseChunk("好"))
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", "", time.Second)
	var deltas []string
	err := client.CreateChatCompletionStream(context.Background(), &ChatCompletionRequest{
		Model:    "glm",
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
	}, func(chunk *StreamChunk) error {
		deltas = append(deltas, chunk.DeltaContent())
		return nil
	})
	if err != nil {
		t.Fatalf("CreateChatCompletionStream failed: %v", err)
	}
	assert.Equal(t, []string{"你", "好"}, deltas)
}

func TestClientCreateChatCompletionStreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"auth_error"}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", time.Second)
	err := client.CreateChatCompletionStream(context.Background(), &ChatCompletionRequest{
		Model:    "glm",
		Messages: []ChatMessage{{Role: "user", Content: "hello"}},
	}, func(*StreamChunk) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
}

func TestClientSetHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("unexpected Authorization header: %q", got)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", time.Second)
	err := client.CreateChatCompletionStream(context.Background(), &ChatCompletionRequest{Model: "glm"},
		func(*StreamChunk) error { return nil })
	require.NoError(t, err)
}

func TestDecodeStreamSkipsMalformedFrames(t *testing.T) {
	body := sseChunk("a") +
		"data: {not json}\n\n" +
		": keep-alive comment\n\n" +
		sseChunk("b") +
		"data:" + strings.TrimPrefix(sseChunk("c"), "data: ")

	var deltas []string
	err := DecodeStream(context.Background(), strings.NewReader(body), func(chunk *StreamChunk) error {
		deltas = append(deltas, chunk.DeltaContent())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, deltas)
}

func TestDecodeStreamTrailingFrameWithoutNewline(t *testing.T) {
	body := strings.TrimSuffix(sseChunk("last"), "\n\n")

	var deltas []string
	err := DecodeStream(context.Background(), strings.NewReader(body), func(chunk *StreamChunk) error {
		deltas = append(deltas, chunk.DeltaContent())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"last"}, deltas)
}

type failingReader struct {
	data []byte
	done bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, errors.New("connection reset by peer")
	}
	r.done = true
	return copy(p, r.data), nil
}

func TestDecodeStreamReadError(t *testing.T) {
	var deltas []string
	err := DecodeStream(context.Background(), &failingReader{data: []byte(sseChunk("partial"))}, func(chunk *StreamChunk) error {
		deltas = append(deltas, chunk.DeltaContent())
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, []string{"partial"}, deltas)
}

func TestDecodeStreamCallbackError(t *testing.T) {
	stop := errors.New("client gone")
	err := DecodeStream(context.Background(), strings.NewReader(sseChunk("a")+sseChunk("b")), func(*StreamChunk) error {
		return stop
	})
	assert.ErrorIs(t, err, stop)
}

func TestMockClientStreamsWholeAnswer(t *testing.T) {
	client := NewMockClient()
	req := &ChatCompletionRequest{
		Model:    "mock",
		Messages: []ChatMessage{{Role: "system", Content: "p"}, {Role: "user", Content: "工伤怎么赔偿"}},
	}

	var sb strings.Builder
	chunks := 0
	err := client.CreateChatCompletionStream(context.Background(), req, func(chunk *StreamChunk) error {
		chunks++
		sb.WriteString(chunk.DeltaContent())
		return nil
	})
	require.NoError(t, err)
	assert.Greater(t, chunks, 1)
	assert.Equal(t, client.generateMockResponse(req), sb.String())
}

func TestNewLLMClientMockMode(t *testing.T) {
	t.Setenv(EnvMode, ModeMock)
	assert.IsType(t, &MockClient{}, NewLLMClient("http://unused", "", time.Second))

	t.Setenv(EnvMode, "")
	assert.IsType(t, &Client{}, NewLLMClient("http://unused", "", time.Second))
}
