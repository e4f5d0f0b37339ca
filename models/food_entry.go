package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the fixed-width UTC layout entries are keyed by, so that
// lexical order matches chronological order in range queries.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// FoodEntry is a single logged meal. JSON keys keep the shape the mobile
// client already reads.
type FoodEntry struct {
	EntryID        string                 `bson:"_id" json:"EntryId"`
	UserEmail      string                 `bson:"userEmail" json:"UserEmail"`
	Timestamp      time.Time              `bson:"timestamp" json:"Timestamp"`
	FoodName       string                 `bson:"foodName" json:"FoodName"`
	Ingredients    []string               `bson:"ingredients" json:"Ingredients"`
	NutritionFacts map[string]interface{} `bson:"nutritionFacts" json:"NutritionFacts"`
}

// NewEntryID derives the entry key from the owner and the instant the server
// received the entry. The random suffix keeps items logged in the same
// millisecond apart.
func NewEntryID(userEmail string, receivedAt time.Time) string {
	return fmt.Sprintf("%s-%d-%s", userEmail, receivedAt.UnixMilli(), uuid.NewString()[:8])
}

// DailyAggregate holds the nutrient totals of one UTC calendar day.
type DailyAggregate struct {
	Date       string  `json:"date"`
	Calories   float64 `json:"calories"`
	Protein    float64 `json:"protein"`
	Carbs      float64 `json:"carbs"`
	Fats       float64 `json:"fats"`
	EntryCount int     `json:"entryCount"`
}

// WeeklySummary groups daily aggregates by ISO week.
type WeeklySummary struct {
	Start           string  `json:"start"`
	End             string  `json:"end"`
	TotalCalories   float64 `json:"totalCalories"`
	Days            int     `json:"days"`
	AverageCalories float64 `json:"averageCalories"`
}
