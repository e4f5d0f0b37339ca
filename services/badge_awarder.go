package services

// Milestone grants Badge when a counter equals Threshold.
type Milestone struct {
	Threshold int
	Badge     string
}

var StreakMilestones = []Milestone{
	{Threshold: 7, Badge: "Solar Spark"},
	{Threshold: 30, Badge: "Lunar Cycle"},
	{Threshold: 100, Badge: "Aurora Glow"},
	{Threshold: 180, Badge: "Sustained Radiance"},
	{Threshold: 365, Badge: "Eternal Light"},
}

var LogCountMilestones = []Milestone{
	{Threshold: 1, Badge: "First Bite"},
	{Threshold: 10, Badge: "Tasty Ten"},
	{Threshold: 25, Badge: "Fresh Twenty-Five"},
	{Threshold: 50, Badge: "Harvest Feast"},
	{Threshold: 100, Badge: "Bounty of 100"},
}

// EvaluateStreakBadges returns the streak badges newStreak qualifies for.
func EvaluateStreakBadges(newStreak int) []string {
	return evaluateMilestones(StreakMilestones, newStreak, nil)
}

// EvaluateLogCountBadges returns the log-count badges totalLogs qualifies for
// that are not in alreadyHeld.
func EvaluateLogCountBadges(totalLogs int, alreadyHeld []string) []string {
	return evaluateMilestones(LogCountMilestones, totalLogs, alreadyHeld)
}

// IsKnownBadge reports whether name is one of the defined milestones.
func IsKnownBadge(name string) bool {
	for _, table := range [][]Milestone{StreakMilestones, LogCountMilestones} {
		for _, m := range table {
			if m.Badge == name {
				return true
			}
		}
	}
	return false
}

// evaluateMilestones matches value exactly against each threshold.
func evaluateMilestones(milestones []Milestone, value int, held []string) []string {
	hasBadge := make(map[string]bool, len(held))
	for _, badge := range held {
		hasBadge[badge] = true
	}

	var badges []string
	for _, m := range milestones {
		if value == m.Threshold && !hasBadge[m.Badge] {
			badges = append(badges, m.Badge)
		}
	}
	return badges
}
