package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YinChingZ/LawAI/internal/domain"
)

// LoginResult is returned by Register and Login.
type LoginResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   *domain.Account `json:"user"`
}

// Register creates an account and signs the caller in.
func (s *Service) Register(ctx context.Context, username, name, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = username
	}

	account := &domain.Account{
		ID:        uuid.NewString(),
		Username:  username,
		Name:      name,
		CreatedAt: s.now(),
	}
	if err := account.SetPassword(password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return s.issue(account)
}

// Login checks credentials and issues a token. name matches a username or display name.
func (s *Service) Login(ctx context.Context, name, password string) (*LoginResult, error) {
	if name == "" {
		return nil, domain.ErrInvalidCredentials
	}
	account, err := s.store.GetAccount(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account == nil || !account.CheckPassword(password) {
		return nil, domain.ErrInvalidCredentials
	}
	return s.issue(account)
}

func (s *Service) issue(account *domain.Account) (*LoginResult, error) {
	token, expires, err := s.tokens.Issue(account.Username, account.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &LoginResult{Token: token, ExpiresAt: expires, Account: account}, nil
}
