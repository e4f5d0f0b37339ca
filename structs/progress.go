package structs

import "time"

type LogFoodRequest struct {
	FoodName       string                 `json:"foodName" binding:"required"`
	Ingredients    []string               `json:"ingredients"`
	NutritionFacts map[string]interface{} `json:"nutritionFacts"`
	DateTime       *time.Time             `json:"dateTime"`
}

// UpdateStreakRequest is accepted for older clients; the server computes the streak.
type UpdateStreakRequest struct {
	Streak *int `json:"streak"`
}

type AddBadgeRequest struct {
	Badge string `json:"badge" binding:"required"`
}

type StreakResponse struct {
	Streak      int     `json:"streak"`
	LastUpdated *string `json:"lastUpdated"`
}
