package models

import "time"

// DateLayout is the calendar-date format used for streak bookkeeping.
const DateLayout = "2006-01-02"

// StreakRecord is the persisted streak row of a user.
type StreakRecord struct {
	UserEmail   string `bson:"_id" json:"-"`
	Streak      int    `bson:"streak" json:"streak"`
	LastUpdated string `bson:"lastUpdated,omitempty" json:"lastUpdated,omitempty"`
}

// StreakState is either NoStreak or ActiveStreak.
type StreakState interface {
	isStreakState()
}

// NoStreak is the state of a user who never logged a meal.
type NoStreak struct{}

// ActiveStreak is a running streak last advanced on LastDate.
type ActiveStreak struct {
	Count    int
	LastDate string
}

func (NoStreak) isStreakState()     {}
func (ActiveStreak) isStreakState() {}

// State converts the stored record into its tagged form.
func (r StreakRecord) State() StreakState {
	if r.LastUpdated == "" {
		return NoStreak{}
	}
	return ActiveStreak{Count: r.Streak, LastDate: r.LastUpdated}
}

// DateOf returns the UTC calendar date of t.
func DateOf(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
