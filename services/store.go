package services

import (
	"context"
	"time"

	"nick8/models"
)

// EntryStore persists immutable food entries.
type EntryStore interface {
	AppendEntry(ctx context.Context, entry models.FoodEntry) (string, error)
	// QueryRange returns entries with start <= Timestamp < end, oldest first.
	QueryRange(ctx context.Context, userEmail string, start, end time.Time) ([]models.FoodEntry, error)
}

// StreakStore reads and conditionally writes streak records.
type StreakStore interface {
	// GetStreak returns a zero record when the user has none.
	GetStreak(ctx context.Context, userEmail string) (models.StreakRecord, error)
	// CompareAndSetStreak writes next only if the stored LastUpdated equals
	// expectedLast ("" meaning no record). It reports whether the write happened.
	CompareAndSetStreak(ctx context.Context, expectedLast string, next models.StreakRecord) (bool, error)
}

// LogCountStore keeps the per-user total of logged entries.
type LogCountStore interface {
	GetLogCount(ctx context.Context, userEmail string) (int, error)
	IncrementLogCount(ctx context.Context, userEmail string) (int, error)
}

// BadgeStore keeps the per-user badge set.
type BadgeStore interface {
	GetBadges(ctx context.Context, userEmail string) ([]string, error)
	// AddBadge adds badge to the set and returns the resulting set and whether
	// the badge was new.
	AddBadge(ctx context.Context, userEmail, badge string) ([]string, bool, error)
}

// Store is the full persistence surface the progress engine needs.
type Store interface {
	EntryStore
	StreakStore
	LogCountStore
	BadgeStore
}

// EventPublisher receives progress events for realtime delivery.
type EventPublisher interface {
	Publish(event models.ProgressEvent)
}

type noopPublisher struct{}

func (noopPublisher) Publish(models.ProgressEvent) {}
