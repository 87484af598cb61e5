package llm

import (
	"os"
	"time"

	"github.com/labstack/gommon/log"
)

const (
	// EnvMode is the environment variable name for mode selection.
	EnvMode = "LAWASSIST_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// NewLLMClient creates a provider client based on the LAWASSIST_MODE environment variable.
// If LAWASSIST_MODE=MOCK, returns a MockClient; otherwise returns a real Client.
func NewLLMClient(baseURL, apiKey string, timeout time.Duration) LLMClient {
	if os.Getenv(EnvMode) == ModeMock {
		log.Info("LAWASSIST_MODE=MOCK detected, using mock completion provider")
		return NewMockClient()
	}
	return NewClient(baseURL, apiKey, timeout)
}
