package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YinChingZ/LawAI/internal/domain"
)

type fakeCounter struct {
	logCount  int
	firstLog  time.Time
	hasLog    bool
	legacy    int
	logErr    error
	firstErr  error
	legacyErr error

	gotFrom, gotUntil time.Time
}

func (f *fakeCounter) CountUsageLogsSince(ctx context.Context, since time.Time) (int, error) {
	return f.logCount, f.logErr
}

func (f *fakeCounter) FirstUsageLogTime(ctx context.Context) (time.Time, bool, error) {
	return f.firstLog, f.hasLog, f.firstErr
}

func (f *fakeCounter) CountUserMessages(ctx context.Context, from, until time.Time) (int, error) {
	f.gotFrom, f.gotUntil = from, until
	return f.legacy, f.legacyErr
}

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"monday midnight", time.Date(2024, 5, 6, 0, 0, 0, 0, time.Local), time.Date(2024, 5, 6, 0, 0, 0, 0, time.Local)},
		{"wednesday", time.Date(2024, 5, 8, 14, 30, 0, 0, time.Local), time.Date(2024, 5, 6, 0, 0, 0, 0, time.Local)},
		{"saturday", time.Date(2024, 5, 11, 23, 59, 59, 0, time.Local), time.Date(2024, 5, 6, 0, 0, 0, 0, time.Local)},
		{"sunday maps to previous monday", time.Date(2024, 5, 12, 9, 0, 0, 0, time.Local), time.Date(2024, 5, 6, 0, 0, 0, 0, time.Local)},
		{"across month", time.Date(2024, 6, 2, 9, 0, 0, 0, time.Local), time.Date(2024, 5, 27, 0, 0, 0, 0, time.Local)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StartOfWeek(tt.now)
			assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
			assert.Equal(t, time.Monday, got.Weekday())
		})
	}
}

func TestCountWeeklyQueriesNoDoubleCount(t *testing.T) {
	now := time.Date(2024, 5, 9, 12, 0, 0, 0, time.Local)
	cutover := time.Date(2024, 5, 7, 12, 0, 0, 0, time.Local)
	counter := &fakeCounter{logCount: 5, firstLog: cutover, hasLog: true, legacy: 2}

	n, err := CountWeeklyQueries(context.Background(), counter, now)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.True(t, counter.gotFrom.Equal(StartOfWeek(now)))
	assert.True(t, counter.gotUntil.Equal(cutover))
}

func TestCountWeeklyQueriesWithoutLog(t *testing.T) {
	now := time.Date(2024, 5, 9, 12, 0, 0, 0, time.Local)
	counter := &fakeCounter{legacy: 4}

	n, err := CountWeeklyQueries(context.Background(), counter, now)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.True(t, counter.gotUntil.IsZero())
}

func TestCountWeeklyQueriesLogPredatesWeek(t *testing.T) {
	now := time.Date(2024, 5, 9, 12, 0, 0, 0, time.Local)
	counter := &fakeCounter{logCount: 3, firstLog: now.AddDate(0, -1, 0), hasLog: true, legacy: 9}

	n, err := CountWeeklyQueries(context.Background(), counter, now)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestCountWeeklyQueriesErrors(t *testing.T) {
	boom := errors.New("boom")
	now := time.Date(2024, 5, 9, 12, 0, 0, 0, time.Local)
	cutover := time.Date(2024, 5, 7, 12, 0, 0, 0, time.Local)

	for name, counter := range map[string]*fakeCounter{
		"log count": {logErr: boom},
		"first log": {logCount: 1, firstErr: boom},
		"legacy":    {logCount: 1, firstLog: cutover, hasLog: true, legacyErr: boom},
		"fallback":  {legacyErr: boom},
	} {
		t.Run(name, func(t *testing.T) {
			n, err := CountWeeklyQueries(context.Background(), counter, now)
			assert.ErrorIs(t, err, boom)
			assert.Equal(t, 0, n)
		})
	}
}

func TestWeeklyQueryCountAcrossStores(t *testing.T) {
	svc, db := newTestService(t, &scriptedLLM{})
	ctx := context.Background()

	now := time.Date(2024, 5, 9, 12, 0, 0, 0, time.Local)
	svc.now = func() time.Time { return now }
	monday := StartOfWeek(now)
	cutover := monday.Add(36 * time.Hour)

	conv := domain.Conversation{
		ID:    "legacy",
		Title: "t",
		Time:  domain.DisplayTime(monday),
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: "p", Timestamp: monday.Add(time.Hour)},
			{Role: domain.RoleUser, Content: "last week", Timestamp: monday.Add(-time.Hour)},
			{Role: domain.RoleUser, Content: "q1", Timestamp: monday.Add(2 * time.Hour)},
			{Role: domain.RoleAssistant, Content: "a1", Timestamp: monday.Add(2 * time.Hour)},
			{Role: domain.RoleUser, Content: "q2", Timestamp: monday.Add(30 * time.Hour)},
			{Role: domain.RoleUser, Content: "logged too", Timestamp: cutover.Add(time.Hour)},
		},
	}
	require.NoError(t, db.CreateConversation(ctx, &conv))

	for i := 0; i < 5; i++ {
		entry := &domain.UsageLogEntry{
			ID:        "log-" + string(rune('a'+i)),
			ActorID:   "alice",
			IsGuest:   i%2 == 0,
			Timestamp: cutover.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, db.CreateUsageLog(ctx, entry))
	}

	n, err := svc.WeeklyQueryCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}
