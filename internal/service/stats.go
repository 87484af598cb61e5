package service

import (
	"context"
	"fmt"
	"time"
)

// QueryCounter is the part of the store the weekly reporter reads.
type QueryCounter interface {
	CountUsageLogsSince(ctx context.Context, since time.Time) (int, error)
	FirstUsageLogTime(ctx context.Context) (time.Time, bool, error)
	CountUserMessages(ctx context.Context, from, until time.Time) (int, error)
}

// StartOfWeek returns Monday 00:00 local time of the week containing now.
// Sunday belongs to the week that started six days earlier.
func StartOfWeek(now time.Time) time.Time {
	t := now.Local()
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.Local)
}

// CountWeeklyQueries counts user queries since the start of the week. Entries of the
// usage log are counted directly; conversation messages are only counted before the
// first usage log entry, when the log did not exist yet.
func CountWeeklyQueries(ctx context.Context, counter QueryCounter, now time.Time) (int, error) {
	start := StartOfWeek(now)

	logCount, err := counter.CountUsageLogsSince(ctx, start)
	if err != nil {
		return 0, fmt.Errorf("failed to count usage logs: %w", err)
	}

	firstLog, ok, err := counter.FirstUsageLogTime(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get first usage log: %w", err)
	}

	if !ok {
		legacy, err := counter.CountUserMessages(ctx, start, time.Time{})
		if err != nil {
			return 0, fmt.Errorf("failed to count messages: %w", err)
		}
		return legacy, nil
	}

	if !firstLog.After(start) {
		return logCount, nil
	}
	legacy, err := counter.CountUserMessages(ctx, start, firstLog)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return logCount + legacy, nil
}

// WeeklyQueryCount reports the number of queries answered this week.
func (s *Service) WeeklyQueryCount(ctx context.Context) (int, error) {
	return CountWeeklyQueries(ctx, s.store, s.now())
}
