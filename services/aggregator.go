package services

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"nick8/models"
)

// maxMonthOffset bounds how far back or ahead the monthly view may look.
const maxMonthOffset = 1200

// Nutrient keys, first match wins. The aliases are what the meal analysis
// returns ("totalCarbohydrate", "totalFat").
var (
	calorieKeys = []string{"calories"}
	proteinKeys = []string{"protein"}
	carbKeys    = []string{"carbs", "totalCarbohydrate"}
	fatKeys     = []string{"fats", "totalFat", "fat"}
)

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// LastDay returns the last calendar date covered by the window.
func (w Window) LastDay() string {
	return models.DateOf(w.End.Add(-time.Nanosecond))
}

// DayWindow covers a single UTC calendar day.
func DayWindow(date string) (Window, error) {
	day, err := models.ParseDate(date)
	if err != nil {
		return Window{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", models.ErrInvalidInput, date)
	}
	return Window{Start: day, End: day.AddDate(0, 0, 1)}, nil
}

// WeekWindow covers weekStart through weekEnd, both inclusive.
func WeekWindow(weekStart, weekEnd string) (Window, error) {
	start, err := models.ParseDate(weekStart)
	if err != nil {
		return Window{}, fmt.Errorf("%w: weekStart %q must be YYYY-MM-DD", models.ErrInvalidInput, weekStart)
	}
	end, err := models.ParseDate(weekEnd)
	if err != nil {
		return Window{}, fmt.Errorf("%w: weekEnd %q must be YYYY-MM-DD", models.ErrInvalidInput, weekEnd)
	}
	if end.Before(start) {
		return Window{}, fmt.Errorf("%w: weekEnd is before weekStart", models.ErrInvalidInput)
	}
	return Window{Start: start, End: end.AddDate(0, 0, 1)}, nil
}

// MonthWindow covers the calendar month offset months away from the month of now.
func MonthWindow(now time.Time, offset int) (Window, error) {
	if offset > maxMonthOffset || offset < -maxMonthOffset {
		return Window{}, fmt.Errorf("%w: offset %d out of range", models.ErrInvalidInput, offset)
	}
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, offset, 0)
	return Window{Start: start, End: start.AddDate(0, 1, 0)}, nil
}

// ISOWeekStart returns midnight UTC of the Monday starting t's ISO week.
func ISOWeekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, 1-weekday)
}

// AggregateByDay buckets entries inside [start, end) by UTC calendar date and
// sums their nutrients.
func AggregateByDay(entries []models.FoodEntry, start, end time.Time) map[string]models.DailyAggregate {
	days := make(map[string]models.DailyAggregate)
	for _, entry := range entries {
		ts := entry.Timestamp.UTC()
		if ts.Before(start) || !ts.Before(end) {
			continue
		}
		date := models.DateOf(ts)
		agg := days[date]
		agg.Date = date
		agg.Calories += nutrient(entry.NutritionFacts, calorieKeys)
		agg.Protein += nutrient(entry.NutritionFacts, proteinKeys)
		agg.Carbs += nutrient(entry.NutritionFacts, carbKeys)
		agg.Fats += nutrient(entry.NutritionFacts, fatKeys)
		agg.EntryCount++
		days[date] = agg
	}
	return days
}

// SortedDays flattens an aggregation into ascending date order.
func SortedDays(days map[string]models.DailyAggregate) []models.DailyAggregate {
	out := make([]models.DailyAggregate, 0, len(days))
	for _, agg := range days {
		out = append(out, agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// WeeklyAverages groups daily aggregates by ISO week and averages calories
// over the days that have entries.
func WeeklyAverages(days []models.DailyAggregate) []models.WeeklySummary {
	weeks := make(map[string]*models.WeeklySummary)
	for _, d := range days {
		day, err := models.ParseDate(d.Date)
		if err != nil {
			continue
		}
		monday := ISOWeekStart(day)
		key := models.DateOf(monday)
		week, ok := weeks[key]
		if !ok {
			week = &models.WeeklySummary{Start: key, End: models.DateOf(monday.AddDate(0, 0, 6))}
			weeks[key] = week
		}
		week.TotalCalories += d.Calories
		week.Days++
	}

	out := make([]models.WeeklySummary, 0, len(weeks))
	for _, week := range weeks {
		if week.Days > 0 {
			week.AverageCalories = week.TotalCalories / float64(week.Days)
		}
		out = append(out, *week)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func nutrient(facts map[string]interface{}, keys []string) float64 {
	for _, key := range keys {
		if v, ok := facts[key]; ok {
			return toFloat(v)
		}
	}
	return 0
}

// toFloat treats anything that is not a finite number as zero.
func toFloat(v interface{}) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
