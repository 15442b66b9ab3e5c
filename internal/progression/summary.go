package progression

// Summary is the derived progress view returned to clients. Level is never stored.
type Summary struct {
	Streak              int   `json:"streak"`
	Level               int   `json:"level"`
	DaysToNextLevel     int   `json:"daysToNextLevel"`
	LongestStreak       int   `json:"longestStreak"`
	TotalTasksCompleted int64 `json:"totalTasksCompleted"`
}

func Summarize(s State, totalTasksCompleted int64) Summary {
	return Summary{
		Streak:              s.CurrentStreak,
		Level:               CalculateLevel(s.CurrentStreak),
		DaysToNextLevel:     DaysToNextLevel(s.CurrentStreak),
		LongestStreak:       s.LongestStreak,
		TotalTasksCompleted: totalTasksCompleted,
	}
}
