package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nick8/metrics"
	"nick8/models"

	log "github.com/sirupsen/logrus"
)

// LogFoodInput is a meal to be logged.
type LogFoodInput struct {
	FoodName       string
	Ingredients    []string
	NutritionFacts map[string]interface{}
	// DateTime is when the meal was eaten; zero means now.
	DateTime time.Time
}

// LogResult reports what a LogFood call changed. Warnings lists bookkeeping
// steps that failed after the entry itself was stored.
type LogResult struct {
	EntryID   string   `json:"entryId"`
	TotalLogs int      `json:"totalLogs"`
	Streak    int      `json:"streak"`
	NewBadges []string `json:"newBadges"`
	Warnings  []string `json:"warnings,omitempty"`
}

// ProgressService logs meals and keeps log counts, streaks and badges in step.
type ProgressService struct {
	entries EntryStore
	counts  LogCountStore
	badges  BadgeStore
	streaks *StreakTracker
	events  EventPublisher
	now     func() time.Time
}

// NewProgressService wires the engine to a store. events and clock may be nil.
func NewProgressService(store Store, events EventPublisher, clock func() time.Time) *ProgressService {
	if events == nil {
		events = noopPublisher{}
	}
	if clock == nil {
		clock = time.Now
	}
	return &ProgressService{
		entries: store,
		counts:  store,
		badges:  store,
		streaks: NewStreakTracker(store),
		events:  events,
		now:     clock,
	}
}

// LogFood stores the entry, then bumps the log count, advances the streak and
// grants badges. Only the entry write is allowed to fail the call.
func (s *ProgressService) LogFood(ctx context.Context, who models.Identity, in LogFoodInput) (*LogResult, error) {
	if strings.TrimSpace(in.FoodName) == "" {
		return nil, fmt.Errorf("%w: foodName is required", models.ErrInvalidInput)
	}

	now := s.now().UTC()
	eatenAt := now
	if !in.DateTime.IsZero() {
		eatenAt = in.DateTime.UTC()
	}
	entry := models.FoodEntry{
		EntryID:        models.NewEntryID(who.Email, now),
		UserEmail:      who.Email,
		Timestamp:      eatenAt,
		FoodName:       in.FoodName,
		Ingredients:    in.Ingredients,
		NutritionFacts: in.NutritionFacts,
	}
	if entry.Ingredients == nil {
		entry.Ingredients = []string{}
	}
	if entry.NutritionFacts == nil {
		entry.NutritionFacts = map[string]interface{}{}
	}

	entryID, err := s.entries.AppendEntry(ctx, entry)
	if err != nil {
		return nil, err
	}
	metrics.RecordFoodLogged()

	result := &LogResult{EntryID: entryID, NewBadges: []string{}}
	logger := log.WithFields(log.Fields{"user": who.Email, "entry": entryID})

	total, err := s.counts.IncrementLogCount(ctx, who.Email)
	countOK := err == nil
	if countOK {
		result.TotalLogs = total
	} else {
		s.warn(logger, result, "log count", "log count not updated", err)
	}
	s.events.Publish(models.ProgressEvent{
		Type:      models.EventFoodLogged,
		UserEmail: who.Email,
		TotalLogs: result.TotalLogs,
		Timestamp: now,
	})

	record, advanced, err := s.streaks.Advance(ctx, who.Email, now)
	switch {
	case err != nil:
		metrics.RecordStreakUpdate("failed")
		s.warn(logger, result, "streak", "streak not updated", err)
	case advanced:
		metrics.RecordStreakUpdate("advanced")
		result.Streak = record.Streak
		s.events.Publish(models.ProgressEvent{
			Type:      models.EventStreakAdvanced,
			UserEmail: who.Email,
			Streak:    record.Streak,
			Timestamp: now,
		})
		for _, badge := range EvaluateStreakBadges(record.Streak) {
			s.grant(ctx, logger, who.Email, badge, result)
		}
	default:
		metrics.RecordStreakUpdate("unchanged")
		result.Streak = record.Streak
	}

	if countOK {
		held, err := s.badges.GetBadges(ctx, who.Email)
		if err != nil {
			s.warn(logger, result, "badges", "log count badges not evaluated", err)
		} else {
			for _, badge := range EvaluateLogCountBadges(total, held) {
				s.grant(ctx, logger, who.Email, badge, result)
			}
		}
	}

	return result, nil
}

func (s *ProgressService) grant(ctx context.Context, logger *log.Entry, userEmail, badge string, result *LogResult) {
	_, added, err := s.badges.AddBadge(ctx, userEmail, badge)
	if err != nil {
		s.warn(logger, result, "badge", fmt.Sprintf("badge %s not granted", badge), err)
		return
	}
	if !added {
		return
	}
	metrics.RecordBadgeAwarded(badge)
	result.NewBadges = append(result.NewBadges, badge)
	s.events.Publish(models.ProgressEvent{
		Type:      models.EventBadgeAwarded,
		UserEmail: userEmail,
		BadgeName: badge,
		Timestamp: s.now().UTC(),
	})
}

func (s *ProgressService) warn(logger *log.Entry, result *LogResult, step, message string, err error) {
	metrics.RecordBookkeepingFailure(step)
	logger.WithError(err).Warnf("food logged but %s", message)
	result.Warnings = append(result.Warnings, message)
}

// IncrementLogCount bumps the total log count of a user by one.
func (s *ProgressService) IncrementLogCount(ctx context.Context, userEmail string) (int, error) {
	return s.counts.IncrementLogCount(ctx, userEmail)
}

// LogCount returns the total log count of a user.
func (s *ProgressService) LogCount(ctx context.Context, userEmail string) (int, error) {
	return s.counts.GetLogCount(ctx, userEmail)
}

// Streak returns the stored streak of a user.
func (s *ProgressService) Streak(ctx context.Context, userEmail string) (models.StreakRecord, error) {
	return s.streaks.Get(ctx, userEmail)
}

// UpdateStreak advances the streak to today, failing with
// ErrAlreadyUpdatedToday when that already happened.
func (s *ProgressService) UpdateStreak(ctx context.Context, userEmail string) (models.StreakRecord, error) {
	now := s.now().UTC()
	record, advanced, err := s.streaks.Advance(ctx, userEmail, now)
	if err != nil {
		metrics.RecordStreakUpdate("failed")
		return models.StreakRecord{}, err
	}
	if !advanced {
		metrics.RecordStreakUpdate("unchanged")
		return record, models.ErrAlreadyUpdatedToday
	}
	metrics.RecordStreakUpdate("advanced")
	s.events.Publish(models.ProgressEvent{
		Type:      models.EventStreakAdvanced,
		UserEmail: userEmail,
		Streak:    record.Streak,
		Timestamp: now,
	})
	return record, nil
}

// AddBadge grants a known badge. Granting a held badge is a no-op.
func (s *ProgressService) AddBadge(ctx context.Context, userEmail, badge string) ([]string, bool, error) {
	if !IsKnownBadge(badge) {
		return nil, false, fmt.Errorf("%w: %q", models.ErrUnknownBadge, badge)
	}
	badges, added, err := s.badges.AddBadge(ctx, userEmail, badge)
	if err != nil {
		return nil, false, err
	}
	if added {
		metrics.RecordBadgeAwarded(badge)
		s.events.Publish(models.ProgressEvent{
			Type:      models.EventBadgeAwarded,
			UserEmail: userEmail,
			BadgeName: badge,
			Timestamp: s.now().UTC(),
		})
	}
	return badges, added, nil
}

// Badges returns the badges a user holds, never nil.
func (s *ProgressService) Badges(ctx context.Context, userEmail string) ([]string, error) {
	badges, err := s.badges.GetBadges(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	if badges == nil {
		badges = []string{}
	}
	return badges, nil
}
