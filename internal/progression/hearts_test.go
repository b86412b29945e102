package progression

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegenerateHearts(t *testing.T) {
	profile := testProfile()
	profile.Hearts.Current = 1
	profile.Hearts.LastRegenAt = fixedNow.Add(-65 * time.Minute)

	next := RegenerateHearts(profile, fixedNow, 30*time.Minute)
	assert.Equal(t, 3, next.Hearts.Current)
	assert.Equal(t, fixedNow.Add(-5*time.Minute), next.Hearts.LastRegenAt)
	assert.Equal(t, 1, profile.Hearts.Current)

	at, ok := NextHeartAt(next, 30*time.Minute)
	assert.True(t, ok)
	assert.Equal(t, fixedNow.Add(25*time.Minute), at)
}

func TestRegenerateHeartsCapsAndParks(t *testing.T) {
	profile := testProfile()
	profile.Hearts.Current = 4
	profile.Hearts.LastRegenAt = fixedNow.Add(-10 * time.Hour)

	next := RegenerateHearts(profile, fixedNow, 30*time.Minute)
	assert.Equal(t, 5, next.Hearts.Current)
	assert.Equal(t, fixedNow, next.Hearts.LastRegenAt)

	_, ok := NextHeartAt(next, 30*time.Minute)
	assert.False(t, ok)
}

func TestRegenerateHeartsNotYet(t *testing.T) {
	profile := testProfile()
	profile.Hearts.LastRegenAt = fixedNow.Add(-10 * time.Minute)
	next := RegenerateHearts(profile, fixedNow, 30*time.Minute)
	assert.Equal(t, profile.Hearts, next.Hearts)
}
