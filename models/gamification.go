package models

import (
	"time"
)

// Progress event types
const (
	EventFoodLogged     = "food_logged"
	EventStreakAdvanced = "streak_advanced"
	EventBadgeAwarded   = "badge_awarded"
)

// ProgressEvent represents a progress change to broadcast via WebSocket
type ProgressEvent struct {
	Type      string    `json:"type"`
	UserEmail string    `json:"userEmail"`
	BadgeName string    `json:"badgeName,omitempty"`
	Streak    int       `json:"streak,omitempty"`
	TotalLogs int       `json:"totalLogs,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
