package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"nick8/models"
)

// MemoryStore is an in-process store with the same conditional-write
// semantics as the database backends.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]models.FoodEntry
	ids     map[string]bool
	streaks map[string]models.StreakRecord
	counts  map[string]int
	badges  map[string][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string][]models.FoodEntry),
		ids:     make(map[string]bool),
		streaks: make(map[string]models.StreakRecord),
		counts:  make(map[string]int),
		badges:  make(map[string][]string),
	}
}

func (s *MemoryStore) AppendEntry(ctx context.Context, entry models.FoodEntry) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", unavailable("append entry", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ids[entry.EntryID] {
		return "", unavailable("append entry", fmt.Errorf("duplicate entry id %s", entry.EntryID))
	}
	s.ids[entry.EntryID] = true
	s.entries[entry.UserEmail] = append(s.entries[entry.UserEmail], entry)
	return entry.EntryID, nil
}

func (s *MemoryStore) QueryRange(ctx context.Context, userEmail string, start, end time.Time) ([]models.FoodEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("query entries", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.FoodEntry
	for _, entry := range s.entries[userEmail] {
		if entry.Timestamp.Before(start) || !entry.Timestamp.Before(end) {
			continue
		}
		out = append(out, entry)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

func (s *MemoryStore) GetStreak(ctx context.Context, userEmail string) (models.StreakRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.StreakRecord{}, unavailable("get streak", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.streaks[userEmail]
	if !ok {
		return models.StreakRecord{UserEmail: userEmail}, nil
	}
	return record, nil
}

func (s *MemoryStore) CompareAndSetStreak(ctx context.Context, expectedLast string, next models.StreakRecord) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, unavailable("update streak", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streaks[next.UserEmail].LastUpdated != expectedLast {
		return false, nil
	}
	s.streaks[next.UserEmail] = next
	return true, nil
}

// PutStreak seeds a streak record directly.
func (s *MemoryStore) PutStreak(record models.StreakRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaks[record.UserEmail] = record
}

func (s *MemoryStore) GetLogCount(ctx context.Context, userEmail string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, unavailable("get log count", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[userEmail], nil
}

func (s *MemoryStore) IncrementLogCount(ctx context.Context, userEmail string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, unavailable("increment log count", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[userEmail]++
	return s.counts[userEmail], nil
}

func (s *MemoryStore) GetBadges(ctx context.Context, userEmail string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("get badges", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.badges[userEmail]...), nil
}

func (s *MemoryStore) AddBadge(ctx context.Context, userEmail, badge string) ([]string, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, unavailable("add badge", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	set := models.BadgeSet{UserEmail: userEmail, Badges: s.badges[userEmail]}
	if set.Has(badge) {
		return append([]string{}, set.Badges...), false, nil
	}
	s.badges[userEmail] = append(s.badges[userEmail], badge)
	return append([]string{}, s.badges[userEmail]...), true, nil
}
