package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateLevel(t *testing.T) {
	cases := map[int]int{
		-5: 1,
		0:  1,
		1:  1,
		7:  1,
		8:  2,
		14: 2,
		15: 3,
		70: 10,
		71: 11,
	}
	for streak, want := range cases {
		assert.Equalf(t, want, CalculateLevel(streak), "CalculateLevel(%d)", streak)
	}
}

func TestCalculateLevelIsNonDecreasing(t *testing.T) {
	prev := CalculateLevel(-10)
	for n := -9; n <= 400; n++ {
		got := CalculateLevel(n)
		if !assert.GreaterOrEqualf(t, got, prev, "level dropped at %d", n) {
			return
		}
		prev = got
	}
}

func TestDaysToNextLevel(t *testing.T) {
	cases := map[int]int{
		0:  8,
		1:  7,
		6:  2,
		7:  1,
		8:  7,
		13: 2,
		14: 1,
		15: 7,
	}
	for streak, want := range cases {
		assert.Equalf(t, want, DaysToNextLevel(streak), "DaysToNextLevel(%d)", streak)
	}
}

func TestDaysToNextLevelShape(t *testing.T) {
	for n := 1; n <= 200; n++ {
		d := DaysToNextLevel(n)
		assert.Positivef(t, d, "DaysToNextLevel(%d)", n)
		next := DaysToNextLevel(n + 1)
		if CalculateLevel(n+1) == CalculateLevel(n) {
			assert.Equalf(t, d-1, next, "within level at %d", n)
		} else {
			assert.Equalf(t, 1, d, "boundary at %d", n)
			assert.Equalf(t, DaysPerLevel, next, "after boundary at %d", n)
		}
	}
}
