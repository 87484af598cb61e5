package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/YinChingZ/LawAI/internal/adapter/llm"
	"github.com/YinChingZ/LawAI/internal/auth"
	"github.com/YinChingZ/LawAI/internal/config"
	"github.com/YinChingZ/LawAI/internal/policy"
	store "github.com/YinChingZ/LawAI/internal/repository"
	"github.com/YinChingZ/LawAI/internal/service"
	transport "github.com/YinChingZ/LawAI/internal/transport/http"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.SetLevel(cfg.Level())

	log.Infof("Starting LawAI relay...")
	log.Infof("HTTP Port: %d", cfg.HTTPPort)
	log.Infof("Store: %s", cfg.StoreDriver)
	log.Infof("Completion provider: %s (model %s)", cfg.LLMBaseURL, cfg.LLMModel)

	ctx := context.Background()

	// Initialize store
	db, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	// Initialize completion provider client
	llmClient := llm.NewLLMClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMTimeout)

	// Initialize policy engine
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Tokens only need to survive this process when no secret is configured.
	secret := cfg.JWTSecret
	if secret == "" {
		log.Warn("JWT_SECRET not set, issued tokens will not survive a restart")
		secret = uuid.NewString()
	}
	tokens := auth.NewTokenService(secret, cfg.JWTTTL)

	// Initialize service
	svc := service.New(db, llmClient, tokens, cfg, policyEngine)

	server := transport.NewServer(cfg, svc)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Infof("API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Failed to shutdown server gracefully: %v", err)
	}

	log.Info("LawAI relay stopped")
}
