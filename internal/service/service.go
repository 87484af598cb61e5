// Package service implements the chat relay, the weekly usage reporter and the
// account and chat management operations behind the transports.
package service

import (
	"time"

	"github.com/YinChingZ/LawAI/internal/adapter/llm"
	"github.com/YinChingZ/LawAI/internal/auth"
	"github.com/YinChingZ/LawAI/internal/config"
	"github.com/YinChingZ/LawAI/internal/policy"
	store "github.com/YinChingZ/LawAI/internal/repository"
)

type Service struct {
	store        store.Store
	llmClient    llm.LLMClient
	tokens       *auth.TokenService
	config       *config.Config
	policyEngine *policy.Engine
	now          func() time.Time
}

// New creates a service. policyEngine may be nil, in which case every query is admitted.
func New(store store.Store, llmClient llm.LLMClient, tokens *auth.TokenService, cfg *config.Config, policyEngine *policy.Engine) *Service {
	return &Service{
		store:        store,
		llmClient:    llmClient,
		tokens:       tokens,
		config:       cfg,
		policyEngine: policyEngine,
		now:          time.Now,
	}
}
