package services

import (
	"context"
	"fmt"
	"time"

	"nick8/models"
)

// maxStreakAttempts bounds compare-and-set retries when requests race.
const maxStreakAttempts = 3

// StreakTracker advances per-user day streaks at most once per calendar day.
type StreakTracker struct {
	store StreakStore
}

func NewStreakTracker(store StreakStore) *StreakTracker {
	return &StreakTracker{store: store}
}

// Get returns the stored streak of a user.
func (t *StreakTracker) Get(ctx context.Context, userEmail string) (models.StreakRecord, error) {
	record, err := t.store.GetStreak(ctx, userEmail)
	if err != nil {
		return models.StreakRecord{}, fmt.Errorf("%w: %w", models.ErrStreakUnavailable, err)
	}
	record.UserEmail = userEmail
	return record, nil
}

// Advance moves the streak of userEmail to today. The returned flag is false
// when the streak had already been advanced today, in which case the stored
// record is returned untouched.
func (t *StreakTracker) Advance(ctx context.Context, userEmail string, today time.Time) (models.StreakRecord, bool, error) {
	for attempt := 0; attempt < maxStreakAttempts; attempt++ {
		current, err := t.Get(ctx, userEmail)
		if err != nil {
			return models.StreakRecord{}, false, err
		}

		next, advanced := nextStreak(current.State(), today)
		if !advanced {
			return current, false, nil
		}

		record := models.StreakRecord{
			UserEmail:   userEmail,
			Streak:      next.Count,
			LastUpdated: next.LastDate,
		}
		swapped, err := t.store.CompareAndSetStreak(ctx, current.LastUpdated, record)
		if err != nil {
			return models.StreakRecord{}, false, err
		}
		if swapped {
			return record, true, nil
		}
		// Another request wrote first; re-read and decide again.
	}
	return models.StreakRecord{}, false, fmt.Errorf("%w: streak of %s kept changing during update", models.ErrStoreUnavailable, userEmail)
}

// nextStreak is the single streak transition. A stored date later than today
// (clock skew) is left alone so LastDate never moves backwards.
func nextStreak(state models.StreakState, today time.Time) (models.ActiveStreak, bool) {
	date := models.DateOf(today)
	if active, ok := state.(models.ActiveStreak); ok {
		switch {
		case active.LastDate >= date:
			return active, false
		case active.LastDate == models.DateOf(today.UTC().AddDate(0, 0, -1)):
			return models.ActiveStreak{Count: active.Count + 1, LastDate: date}, true
		}
	}
	return models.ActiveStreak{Count: 1, LastDate: date}, true
}
