package model

// Stats is the usage history shown to the user.
type Stats struct {
	TotalUsageSeconds      int
	Blocks                 int
	Extensions             int
	TodayUsageSeconds      int
	TodaySessions          int
	StreakDays             int
	GoalAchievementPercent int
}

// DefaultStats returns the stats of a user with no history.
func DefaultStats() Stats {
	return Stats{GoalAchievementPercent: 100}
}
