package services

import (
	"context"

	"nick8/models"
)

// DailyEntries returns the raw entries logged on a UTC calendar day.
func (s *ProgressService) DailyEntries(ctx context.Context, userEmail, date string) ([]models.FoodEntry, error) {
	window, err := DayWindow(date)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.QueryRange(ctx, userEmail, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.FoodEntry{}
	}
	return entries, nil
}

// WeeklyAggregates returns per-day totals from weekStart through weekEnd.
func (s *ProgressService) WeeklyAggregates(ctx context.Context, userEmail, weekStart, weekEnd string) ([]models.DailyAggregate, error) {
	window, err := WeekWindow(weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	return s.aggregate(ctx, userEmail, window)
}

// MonthlyAggregates returns per-day totals of the month offset months from now.
func (s *ProgressService) MonthlyAggregates(ctx context.Context, userEmail string, offset int) ([]models.DailyAggregate, error) {
	window, err := MonthWindow(s.now(), offset)
	if err != nil {
		return nil, err
	}
	return s.aggregate(ctx, userEmail, window)
}

// MonthlyWeeks returns the ISO-week calorie averages of the month offset
// months from now.
func (s *ProgressService) MonthlyWeeks(ctx context.Context, userEmail string, offset int) ([]models.WeeklySummary, error) {
	days, err := s.MonthlyAggregates(ctx, userEmail, offset)
	if err != nil {
		return nil, err
	}
	return WeeklyAverages(days), nil
}

func (s *ProgressService) aggregate(ctx context.Context, userEmail string, window Window) ([]models.DailyAggregate, error) {
	entries, err := s.entries.QueryRange(ctx, userEmail, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	return SortedDays(AggregateByDay(entries, window.Start, window.End)), nil
}
