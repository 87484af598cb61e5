package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YinChingZ/LawAI/internal/domain"
)

func TestRegisterLoginAuthenticate(t *testing.T) {
	svc, _ := newTestService(t, &scriptedLLM{})
	ctx := context.Background()

	res, err := svc.Register(ctx, "alice", "Alice Zhang", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "alice", res.Account.Username)

	_, err = svc.Register(ctx, "alice", "", "other")
	assert.ErrorIs(t, err, domain.ErrAccountExists)

	res, err = svc.Login(ctx, "Alice Zhang", "hunter2")
	require.NoError(t, err)

	subject, err := svc.Authenticate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", subject)

	_, err = svc.Login(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "hunter2")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRegisterRequiresCredentials(t *testing.T) {
	svc, _ := newTestService(t, &scriptedLLM{})

	_, err := svc.Register(context.Background(), " ", "", "pw")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Register(context.Background(), "alice", "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestResolveIdentity(t *testing.T) {
	svc, _ := newTestService(t, &scriptedLLM{})
	res, err := svc.Register(context.Background(), "alice", "", "pw")
	require.NoError(t, err)

	tests := []struct {
		name     string
		bearer   string
		username string
		guestID  string
		want     domain.Identity
		wantErr  error
	}{
		{"token wins", res.Token, "bob", "g1", domain.Authenticated("alice"), nil},
		{"bad token falls through", "garbage", "bob", "", domain.Authenticated("bob"), nil},
		{"username", "", "bob", "g1", domain.Authenticated("bob"), nil},
		{"guest", "", "", "g1", domain.Guest("g1"), nil},
		{"nothing", "", "", "", domain.Identity{}, domain.ErrIdentityRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ResolveIdentity(tt.bearer, tt.username, tt.guestID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
