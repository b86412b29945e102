package domain

import "time"

// Tuning holds the numeric policy constants of the game.
type Tuning struct {
	StartingLivesPerLevel      int           `yaml:"startingLivesPerLevel"`
	SpeedBonusThresholdSeconds float64       `yaml:"speedBonusThresholdSeconds"`
	QuestionTimeLimitSeconds   int           `yaml:"questionTimeLimitSeconds"`
	LevelUpCoins               int           `yaml:"levelUpCoins"`
	XPPerLevelStep             int           `yaml:"xpPerLevelStep"`
	HeartCapacity              int           `yaml:"heartCapacity"`
	HeartRegenInterval         time.Duration `yaml:"heartRegenInterval"`
	StartingCoins              int           `yaml:"startingCoins"`
	StartingLifelines          int           `yaml:"startingLifelines"`
	ChallengeLockout           time.Duration `yaml:"challengeLockout"`
	AnswerFeedbackDelay        time.Duration `yaml:"answerFeedbackDelay"`
}

// DefaultTuning returns the shipped policy constants.
func DefaultTuning() Tuning {
	return Tuning{
		StartingLivesPerLevel:      3,
		SpeedBonusThresholdSeconds: 3,
		QuestionTimeLimitSeconds:   15,
		LevelUpCoins:               10,
		XPPerLevelStep:             100,
		HeartCapacity:              5,
		HeartRegenInterval:         30 * time.Minute,
		StartingCoins:              50,
		StartingLifelines:          1,
		ChallengeLockout:           24 * time.Hour,
		AnswerFeedbackDelay:        1200 * time.Millisecond,
	}
}

// WithDefaults fills zero fields from DefaultTuning.
func (t Tuning) WithDefaults() Tuning {
	d := DefaultTuning()
	if t.StartingLivesPerLevel <= 0 {
		t.StartingLivesPerLevel = d.StartingLivesPerLevel
	}
	if t.SpeedBonusThresholdSeconds <= 0 {
		t.SpeedBonusThresholdSeconds = d.SpeedBonusThresholdSeconds
	}
	if t.QuestionTimeLimitSeconds <= 0 {
		t.QuestionTimeLimitSeconds = d.QuestionTimeLimitSeconds
	}
	if t.LevelUpCoins <= 0 {
		t.LevelUpCoins = d.LevelUpCoins
	}
	if t.XPPerLevelStep <= 0 {
		t.XPPerLevelStep = d.XPPerLevelStep
	}
	if t.HeartCapacity <= 0 {
		t.HeartCapacity = d.HeartCapacity
	}
	if t.HeartRegenInterval <= 0 {
		t.HeartRegenInterval = d.HeartRegenInterval
	}
	if t.StartingCoins < 0 {
		t.StartingCoins = 0
	}
	if t.StartingLifelines < 0 {
		t.StartingLifelines = 0
	}
	if t.ChallengeLockout <= 0 {
		t.ChallengeLockout = d.ChallengeLockout
	}
	if t.AnswerFeedbackDelay < 0 {
		t.AnswerFeedbackDelay = 0
	}
	return t
}

// QuestionTimeLimit returns the per-question budget for level.
func (t Tuning) QuestionTimeLimit(level LevelConfig) time.Duration {
	if level.TimeLimitSeconds > 0 {
		return time.Duration(level.TimeLimitSeconds) * time.Second
	}
	return time.Duration(t.QuestionTimeLimitSeconds) * time.Second
}
