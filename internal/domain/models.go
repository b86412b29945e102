package domain

import (
	"slices"
	"time"
)

// Option represents a possible answer for a question.
type Option struct {
	ID   string `json:"id" yaml:"id" validate:"required"`
	Text string `json:"text" yaml:"text"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID              string   `json:"id" yaml:"id" validate:"required"`
	Category        string   `json:"category,omitempty" yaml:"category"`
	Difficulty      string   `json:"difficulty,omitempty" yaml:"difficulty"`
	Prompt          string   `json:"prompt" yaml:"prompt" validate:"required"`
	Options         []Option `json:"options" yaml:"options" validate:"min=2,dive"`
	CorrectOptionID string   `json:"correctOptionId" yaml:"correctOptionId" validate:"required"`
}

// WrongOptions returns the non-correct options in their content order.
func (q Question) WrongOptions() []Option {
	wrong := make([]Option, 0, len(q.Options))
	for _, opt := range q.Options {
		if opt.ID != q.CorrectOptionID {
			wrong = append(wrong, opt)
		}
	}
	return wrong
}

// LifelineKind names a consumable aid.
type LifelineKind string

const (
	LifelineAskQuizzers LifelineKind = "ask_quizzers"
	LifelineFiftyFifty  LifelineKind = "fifty_fifty"
	LifelineCallFriend  LifelineKind = "call_friend"
)

// Valid reports whether k is a known lifeline kind.
func (k LifelineKind) Valid() bool {
	switch k {
	case LifelineAskQuizzers, LifelineFiftyFifty, LifelineCallFriend:
		return true
	}
	return false
}

// LevelConfig is immutable level content.
type LevelConfig struct {
	ID                       string         `json:"id" yaml:"id" validate:"required"`
	VenueID                  string         `json:"venueId" yaml:"venueId" validate:"required"`
	Name                     string         `json:"name" yaml:"name"`
	LevelNumber              int            `json:"levelNumber" yaml:"levelNumber" validate:"gte=1"`
	QuestionIDs              []string       `json:"questionIds" yaml:"questionIds" validate:"min=1,dive,required"`
	MinCorrectToPass         int            `json:"minCorrectToPass" yaml:"minCorrectToPass" validate:"gte=0"`
	LifelinesAllowed         []LifelineKind `json:"lifelinesAllowed" yaml:"lifelinesAllowed"`
	MaxLifelinesPerLevel     int            `json:"maxLifelinesPerLevel" yaml:"maxLifelinesPerLevel" validate:"gte=0"`
	BasePointsPerCorrect     int            `json:"basePointsPerCorrect" yaml:"basePointsPerCorrect" validate:"gte=0"`
	MaxSpeedBonusPerQuestion int            `json:"maxSpeedBonusPerQuestion" yaml:"maxSpeedBonusPerQuestion" validate:"gte=0"`
	// TimeLimitSeconds overrides the tuning question time limit when > 0.
	TimeLimitSeconds int `json:"timeLimitSeconds,omitempty" yaml:"timeLimitSeconds" validate:"gte=0"`
}

// AllowsLifeline reports whether kind is enabled for this level.
func (l LevelConfig) AllowsLifeline(kind LifelineKind) bool {
	for _, k := range l.LifelinesAllowed {
		if k == kind {
			return true
		}
	}
	return false
}

// Venue groups ordered levels.
type Venue struct {
	ID       string   `json:"id" yaml:"id" validate:"required"`
	Name     string   `json:"name" yaml:"name"`
	LevelIDs []string `json:"levelIds" yaml:"levelIds"`
}

// LevelContent bundles a level with the questions its sequence references.
type LevelContent struct {
	Level     LevelConfig `json:"level"`
	Questions []Question  `json:"questions"`
}

// SessionStatus is the lifecycle state of a GameSession.
type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusPassed     SessionStatus = "passed"
	StatusFailed     SessionStatus = "failed"
)

// Terminal reports whether no further answers are accepted.
func (s SessionStatus) Terminal() bool {
	return s == StatusPassed || s == StatusFailed
}

// AnswerRecord is one processed answer within a session.
type AnswerRecord struct {
	QuestionID  string `json:"questionId"`
	OptionID    string `json:"optionId"`
	Correct     bool   `json:"correct"`
	TimeTakenMs int64  `json:"timeTakenMs"`
}

// GameSession is the mutable state of one attempt.
type GameSession struct {
	ID             string         `json:"id"`
	LevelID        string         `json:"levelId"`
	QuestionIDs    []string       `json:"questionIds"`
	Cursor         int            `json:"cursor"`
	Score          int            `json:"score"`
	LivesRemaining int            `json:"livesRemaining"`
	UsedLifelines  []LifelineKind `json:"usedLifelines"`
	Answers        []AnswerRecord `json:"answers"`
	CreatedAt      time.Time      `json:"createdAt"`
	CompletedAt    *time.Time     `json:"completedAt,omitempty"`
	Status         SessionStatus  `json:"status"`
	CorrectCount   int            `json:"correctCount"`
}

// Clone returns a deep copy so callers can derive next states without aliasing.
func (s GameSession) Clone() GameSession {
	next := s
	next.QuestionIDs = slices.Clone(s.QuestionIDs)
	next.UsedLifelines = slices.Clone(s.UsedLifelines)
	next.Answers = slices.Clone(s.Answers)
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		next.CompletedAt = &at
	}
	return next
}

// UsedLifeline reports whether kind was consumed this attempt.
func (s GameSession) UsedLifeline(kind LifelineKind) bool {
	for _, k := range s.UsedLifelines {
		if k == kind {
			return true
		}
	}
	return false
}

// Hearts tracks the lives resource at the profile level.
type Hearts struct {
	Current     int       `json:"current"`
	Capacity    int       `json:"capacity"`
	LastRegenAt time.Time `json:"lastRegenAt"`
}

// AchievementProgress is the stored state of a single achievement.
type AchievementProgress struct {
	Progress   int        `json:"progress"`
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlockedAt,omitempty"`
}

// ChallengeCompletion records a successful daily challenge.
type ChallengeCompletion struct {
	ChallengeID string        `json:"challengeId"`
	Type        ChallengeType `json:"type"`
	Score       int           `json:"score"`
	Accuracy    float64       `json:"accuracy"`
	TimeSpentMs int64         `json:"timeSpentMs"`
	CompletedAt time.Time     `json:"completedAt"`
}

// ChallengeFailure records a failed daily challenge and its lockout.
type ChallengeFailure struct {
	ChallengeID string    `json:"challengeId"`
	FailedAt    time.Time `json:"failedAt"`
	LockedUntil time.Time `json:"lockedUntil"`
}

// PlayerStats holds counters that feed cumulative achievements.
type PlayerStats struct {
	Wins                   int                   `json:"wins"`
	ConsecutivePerfectWins int                   `json:"consecutivePerfectWins"`
	ConsecutiveFailures    int                   `json:"consecutiveFailures"`
	VenuesPlayed           []string              `json:"venuesPlayed"`
	ChallengesCompleted    int                   `json:"challengesCompleted"`
	ChallengesByType       map[ChallengeType]int `json:"challengesByType"`
}

// PlayerProfile is the durable meta-progression state.
type PlayerProfile struct {
	PlayerID             string                         `json:"playerId"`
	XP                   int                            `json:"xp"`
	Level                int                            `json:"level"`
	Coins                int                            `json:"coins"`
	Lifelines            map[LifelineKind]int           `json:"lifelines"`
	Hearts               Hearts                         `json:"hearts"`
	DailyStreak          int                            `json:"dailyStreak"`
	LastActiveAt         *time.Time                     `json:"lastActiveAt,omitempty"`
	ChallengeCompletions map[string]ChallengeCompletion `json:"challengeCompletions"`
	ChallengeFailures    map[string]ChallengeFailure    `json:"challengeFailures"`
	ClaimedStreakRewards []string                       `json:"claimedStreakRewards"`
	Achievements         map[string]AchievementProgress `json:"achievements"`
	Stats                PlayerStats                    `json:"stats"`
}

// NewPlayerProfile returns the starting profile for a fresh player.
func NewPlayerProfile(playerID string, tuning Tuning, now time.Time) PlayerProfile {
	return PlayerProfile{
		PlayerID: playerID,
		Level:    1,
		Coins:    tuning.StartingCoins,
		Lifelines: map[LifelineKind]int{
			LifelineAskQuizzers: tuning.StartingLifelines,
			LifelineFiftyFifty:  tuning.StartingLifelines,
		},
		Hearts: Hearts{
			Current:     tuning.HeartCapacity,
			Capacity:    tuning.HeartCapacity,
			LastRegenAt: now,
		},
		ChallengeCompletions: map[string]ChallengeCompletion{},
		ChallengeFailures:    map[string]ChallengeFailure{},
		Achievements:         map[string]AchievementProgress{},
		Stats:                PlayerStats{ChallengesByType: map[ChallengeType]int{}},
	}
}

// Clone returns a deep copy of the profile.
func (p PlayerProfile) Clone() PlayerProfile {
	next := p
	next.Lifelines = make(map[LifelineKind]int, len(p.Lifelines))
	for k, v := range p.Lifelines {
		next.Lifelines[k] = v
	}
	if p.LastActiveAt != nil {
		at := *p.LastActiveAt
		next.LastActiveAt = &at
	}
	next.ChallengeCompletions = make(map[string]ChallengeCompletion, len(p.ChallengeCompletions))
	for k, v := range p.ChallengeCompletions {
		next.ChallengeCompletions[k] = v
	}
	next.ChallengeFailures = make(map[string]ChallengeFailure, len(p.ChallengeFailures))
	for k, v := range p.ChallengeFailures {
		next.ChallengeFailures[k] = v
	}
	next.ClaimedStreakRewards = slices.Clone(p.ClaimedStreakRewards)
	next.Achievements = make(map[string]AchievementProgress, len(p.Achievements))
	for k, v := range p.Achievements {
		if v.UnlockedAt != nil {
			at := *v.UnlockedAt
			v.UnlockedAt = &at
		}
		next.Achievements[k] = v
	}
	next.Stats.VenuesPlayed = slices.Clone(p.Stats.VenuesPlayed)
	next.Stats.ChallengesByType = make(map[ChallengeType]int, len(p.Stats.ChallengesByType))
	for k, v := range p.Stats.ChallengesByType {
		next.Stats.ChallengesByType[k] = v
	}
	return next
}

// PlayerProgress is the set of completed levels.
type PlayerProgress struct {
	PlayerID          string   `json:"playerId"`
	CompletedLevelIDs []string `json:"completedLevelIds"`
}

// Completed reports whether levelID is in the completed set.
func (p PlayerProgress) Completed(levelID string) bool {
	for _, id := range p.CompletedLevelIDs {
		if id == levelID {
			return true
		}
	}
	return false
}

// Rarity is an achievement tier.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// Achievement is a rule table entry. Target == 0 means a one-shot achievement.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Rarity      Rarity `json:"rarity"`
	Target      int    `json:"target,omitempty"`
}

// Severity classifies a notification for the presentation layer.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is a user-visible event emitted by the core.
type Notification struct {
	Message  string        `json:"message"`
	Severity Severity      `json:"severity"`
	Duration time.Duration `json:"duration,omitempty"`
}

// RewardSummary describes what a finished session granted.
type RewardSummary struct {
	XPEarned         int           `json:"xpEarned"`
	CoinsEarned      int           `json:"coinsEarned"`
	TotalCorrect     int           `json:"totalCorrect"`
	TotalQuestions   int           `json:"totalQuestions"`
	Accuracy         float64       `json:"accuracy"`
	Result           SessionStatus `json:"result"`
	LevelsGained     int           `json:"levelsGained"`
	BonusAskQuizzers int           `json:"bonusAskQuizzers"`
	BonusHearts      int           `json:"bonusHearts"`
	StreakBonusCoins int           `json:"streakBonusCoins"`
	NewStreak        int           `json:"newStreak"`
	FirstCompletion  bool          `json:"firstCompletion"`
}

// ChallengeType selects the completion predicate of a daily challenge.
type ChallengeType string

const (
	ChallengeSpeedRun        ChallengeType = "speed_run"
	ChallengePerfectAccuracy ChallengeType = "perfect_accuracy"
	ChallengeStreakMaster    ChallengeType = "streak_master"
)

// ChallengeReward is the fixed grant on challenge success.
type ChallengeReward struct {
	XP     int `json:"xp" yaml:"xp" validate:"gte=0"`
	Coins  int `json:"coins" yaml:"coins" validate:"gte=0"`
	Hearts int `json:"hearts" yaml:"hearts" validate:"gte=0"`
}

// DailyChallenge is immutable challenge content.
type DailyChallenge struct {
	ID               string          `json:"id" yaml:"id" validate:"required"`
	Date             string          `json:"date" yaml:"date"`
	Title            string          `json:"title" yaml:"title"`
	Type             ChallengeType   `json:"type" yaml:"type"`
	QuestionIDs      []string        `json:"questionIds" yaml:"questionIds" validate:"min=1,dive,required"`
	TimeLimitSeconds int             `json:"timeLimitSeconds" yaml:"timeLimitSeconds" validate:"gte=0"`
	Target           int             `json:"target" yaml:"target" validate:"gte=0"`
	Reward           ChallengeReward `json:"reward" yaml:"reward"`
}

// ChallengeContent bundles a challenge with its questions.
type ChallengeContent struct {
	Challenge DailyChallenge `json:"challenge"`
	Questions []Question     `json:"questions"`
}
