package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func TestTuningWithDefaults(t *testing.T) {
	got := Tuning{StartingLivesPerLevel: 5}.WithDefaults()
	assert.Equal(t, 5, got.StartingLivesPerLevel)
	assert.Equal(t, 3.0, got.SpeedBonusThresholdSeconds)
	assert.Equal(t, 24*time.Hour, got.ChallengeLockout)
}

func TestQuestionTimeLimit(t *testing.T) {
	tuning := DefaultTuning()
	assert.Equal(t, 15*time.Second, tuning.QuestionTimeLimit(LevelConfig{}))
	assert.Equal(t, 8*time.Second, tuning.QuestionTimeLimit(LevelConfig{TimeLimitSeconds: 8}))
}
