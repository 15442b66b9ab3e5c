// Package progression derives levels and streak transitions from completed days.
//
// Everything here is pure: callers supply the stored state and the reference
// calendar day, and persist whatever the decision returns.
package progression

// DaysPerLevel is the number of consecutive completed days in one level.
const DaysPerLevel = 7

// CalculateLevel maps a streak length to a level. Levels start at 1 and a
// new level begins every DaysPerLevel days: 1..7 is level 1, 8..14 is level 2.
// Non-positive streaks are level 1.
func CalculateLevel(streakDays int) int {
	if streakDays <= 0 {
		return 1
	}
	return (streakDays-1)/DaysPerLevel + 1
}

// DaysToNextLevel is the number of additional completed days needed to reach
// the next level. It is always at least 1. A zero streak reports
// DaysPerLevel+1 because the first completed day only reaches day one of
// level 1.
func DaysToNextLevel(streakDays int) int {
	return DaysPerLevel*CalculateLevel(streakDays) - streakDays + 1
}
