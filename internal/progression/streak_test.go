package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestComputeUpdatedStreak(t *testing.T) {
	earlierToday := fixedNow.Add(-10 * time.Hour)
	yesterday := fixedNow.AddDate(0, 0, -1)
	lateYesterday := time.Date(2024, 5, 9, 23, 59, 0, 0, time.UTC)
	threeDaysAgo := fixedNow.AddDate(0, 0, -3)

	assert.Equal(t, 1, ComputeUpdatedStreak(0, nil, fixedNow))
	assert.Equal(t, 4, ComputeUpdatedStreak(4, &earlierToday, fixedNow))
	assert.Equal(t, 5, ComputeUpdatedStreak(4, &yesterday, fixedNow))
	assert.Equal(t, 5, ComputeUpdatedStreak(4, &lateYesterday, fixedNow))
	assert.Equal(t, 1, ComputeUpdatedStreak(4, &threeDaysAgo, fixedNow))
}

func TestComputeUpdatedStreakUsesCalendarDays(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	// 22:30 UTC on the 9th is already the 10th at UTC+3
	last := time.Date(2024, 5, 9, 22, 30, 0, 0, time.UTC)
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, loc)
	assert.Equal(t, 2, ComputeUpdatedStreak(2, &last, now))
}
