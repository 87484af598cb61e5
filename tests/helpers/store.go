package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/YinChingZ/LawAI/internal/domain"
	store "github.com/YinChingZ/LawAI/internal/repository"
)

func NewTestSQLiteStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// SeedAccount registers username with password "secret".
func SeedAccount(t *testing.T, s store.AccountStore, username string) *domain.Account {
	t.Helper()

	account := &domain.Account{ID: "acc-" + username, Username: username, Name: username, CreatedAt: time.Now()}
	if err := account.SetPassword("secret"); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}
	if err := s.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	return account
}
