package progression

import (
	"github.com/yungbote/sololev-backend/internal/platform/calendar"
)

// State is the persisted streak state of one user.
type State struct {
	CurrentStreak     int
	LongestStreak     int
	LastCompletedDate *calendar.Date
}

// Outcome names which branch of the completion decision was taken.
type Outcome string

const (
	OutcomeAlreadyCompleted Outcome = "already_completed"
	OutcomeExtended         Outcome = "extended"
	OutcomeReset            Outcome = "reset"
)

// Mutates reports whether the outcome must be persisted.
func (o Outcome) Mutates() bool {
	return o == OutcomeExtended || o == OutcomeReset
}

// Decide computes the state after completing today.
//
// A last completed date equal to today is a no-op. The day before today
// extends the streak. Anything else, including no date or a date after
// today, starts a new streak of one.
func Decide(prev State, today calendar.Date) (State, Outcome) {
	last := prev.LastCompletedDate
	if last != nil && *last == today {
		return prev, OutcomeAlreadyCompleted
	}

	next := State{CurrentStreak: 1}
	outcome := OutcomeReset
	if last != nil && *last == today.AddDays(-1) {
		next.CurrentStreak = prev.CurrentStreak + 1
		outcome = OutcomeExtended
	}
	next.LongestStreak = max(prev.LongestStreak, next.CurrentStreak)
	day := today
	next.LastCompletedDate = &day
	return next, outcome
}

// TaskStatus is the part of a task the completion precondition looks at.
type TaskStatus interface {
	IsCompleted() bool
}

// AllTasksCompleted is true when there is at least one task and every task is done.
func AllTasksCompleted[T TaskStatus](tasks []T) bool {
	if len(tasks) == 0 {
		return false
	}
	for _, t := range tasks {
		if !t.IsCompleted() {
			return false
		}
	}
	return true
}
