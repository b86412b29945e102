package progression

import (
	"time"

	"quiz-hub/internal/domain"
)

// Achievement ids.
const (
	AchFirstWin          = "first_win"
	AchPerfectScore      = "perfect_score"
	AchSpeedDemon        = "speed_demon"
	AchNoLifelines       = "no_lifelines"
	AchSurvivor          = "survivor"
	AchComeback          = "comeback"
	AchPerfectStreak     = "perfect_streak"
	AchVenueComplete     = "venue_complete"
	AchGlobetrotter      = "globetrotter"
	AchQuizMaster        = "quiz_master"
	AchRisingStar        = "rising_star"
	AchVeteran           = "veteran"
	AchCoinCollector     = "coin_collector"
	AchWeekStreak        = "week_streak"
	AchPersistent        = "persistent"
	AchHeartbroken       = "heartbroken"
	AchFirstChallenge    = "first_challenge"
	AchChallengeChampion = "challenge_champion"
	AchSpeedRunner       = "speed_runner"
	AchFlawless          = "flawless"
	AchStreakMaster      = "streak_master"
)

// speedDemonAvgMs is the average answer time a win must beat for speed_demon.
const speedDemonAvgMs = 3000

const unlockDisplay = 3 * time.Second

// DefaultAchievements is the shipped rule table.
func DefaultAchievements() []domain.Achievement {
	return []domain.Achievement{
		{ID: AchFirstWin, Title: "First Round", Description: "Pass your first level", Rarity: domain.RarityCommon},
		{ID: AchPerfectScore, Title: "Flawless Round", Description: "Pass a level without a wrong answer", Rarity: domain.RarityRare},
		{ID: AchSpeedDemon, Title: "Quick Draw", Description: "Pass a level averaging under 3 seconds per answer", Rarity: domain.RarityRare},
		{ID: AchNoLifelines, Title: "No Help Needed", Description: "Pass a level without lifelines", Rarity: domain.RarityCommon},
		{ID: AchSurvivor, Title: "Last Heart", Description: "Pass a level started on your last heart", Rarity: domain.RarityEpic},
		{ID: AchComeback, Title: "Comeback", Description: "Pass a level after missing the first question", Rarity: domain.RarityRare},
		{ID: AchPerfectStreak, Title: "Hat Trick", Description: "Pass three levels in a row with perfect accuracy", Rarity: domain.RarityEpic, Target: 3},
		{ID: AchVenueComplete, Title: "House Champion", Description: "Complete every level in a venue", Rarity: domain.RarityRare},
		{ID: AchGlobetrotter, Title: "Pub Crawler", Description: "Play levels in three different venues", Rarity: domain.RarityRare, Target: 3},
		{ID: AchQuizMaster, Title: "Quiz Master", Description: "Win ten levels", Rarity: domain.RarityEpic, Target: 10},
		{ID: AchRisingStar, Title: "Rising Star", Description: "Reach player level 5", Rarity: domain.RarityCommon, Target: 5},
		{ID: AchVeteran, Title: "Veteran", Description: "Reach player level 10", Rarity: domain.RarityRare, Target: 10},
		{ID: AchCoinCollector, Title: "Coin Collector", Description: "Hold 500 coins", Rarity: domain.RarityRare, Target: 500},
		{ID: AchWeekStreak, Title: "Regular", Description: "Play seven days in a row", Rarity: domain.RarityRare, Target: 7},
		{ID: AchPersistent, Title: "Never Give Up", Description: "Fail three levels in a row", Rarity: domain.RarityCommon, Target: 3},
		{ID: AchHeartbroken, Title: "Heartbroken", Description: "Run out of hearts", Rarity: domain.RarityCommon},
		{ID: AchFirstChallenge, Title: "Challenger", Description: "Complete a daily challenge", Rarity: domain.RarityCommon},
		{ID: AchChallengeChampion, Title: "Challenge Champion", Description: "Complete ten daily challenges", Rarity: domain.RarityEpic, Target: 10},
		{ID: AchSpeedRunner, Title: "Speed Runner", Description: "Complete five speed run challenges", Rarity: domain.RarityRare, Target: 5},
		{ID: AchFlawless, Title: "Sharpshooter", Description: "Complete five perfect accuracy challenges", Rarity: domain.RarityRare, Target: 5},
		{ID: AchStreakMaster, Title: "On a Roll", Description: "Complete five streak master challenges", Rarity: domain.RarityRare, Target: 5},
	}
}

// Evaluator unlocks and advances achievements from a fixed rule table.
type Evaluator struct {
	rules map[string]domain.Achievement
	order []string
}

// NewEvaluator indexes rules.
func NewEvaluator(rules []domain.Achievement) *Evaluator {
	e := &Evaluator{rules: make(map[string]domain.Achievement, len(rules))}
	for _, r := range rules {
		e.rules[r.ID] = r
		e.order = append(e.order, r.ID)
	}
	return e
}

// Rules returns the rule table in declaration order.
func (e *Evaluator) Rules() []domain.Achievement {
	out := make([]domain.Achievement, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.rules[id])
	}
	return out
}

// CheckAndUnlock raises the stored progress of id to the high-water mark of
// its current value and candidate, unlocking when the target is met. The
// unlock timestamp is authoritative: unlocked achievements are never touched.
func (e *Evaluator) CheckAndUnlock(profile domain.PlayerProfile, id string, candidate int, now time.Time) (domain.PlayerProfile, *domain.Notification) {
	rule, ok := e.rules[id]
	if !ok {
		return profile, nil
	}
	stored := profile.Achievements[id]
	if stored.UnlockedAt != nil {
		return profile, nil
	}

	progress := max(stored.Progress, candidate)
	if rule.Target > 0 && progress < rule.Target {
		if progress == stored.Progress {
			return profile, nil
		}
		next := profile.Clone()
		next.Achievements[id] = domain.AchievementProgress{Progress: progress}
		return next, nil
	}

	if rule.Target > 0 {
		progress = rule.Target
	} else {
		progress = max(progress, 1)
	}
	at := now
	next := profile.Clone()
	next.Achievements[id] = domain.AchievementProgress{Progress: progress, Unlocked: true, UnlockedAt: &at}
	return next, &domain.Notification{
		Message:  "Achievement unlocked: " + rule.Title,
		Severity: domain.SeveritySuccess,
		Duration: unlockDisplay,
	}
}

type check struct {
	id        string
	candidate int
}

func (e *Evaluator) apply(profile domain.PlayerProfile, checks []check, now time.Time) (domain.PlayerProfile, []domain.Notification) {
	var notes []domain.Notification
	for _, c := range checks {
		var note *domain.Notification
		profile, note = e.CheckAndUnlock(profile, c.id, c.candidate, now)
		if note != nil {
			notes = append(notes, *note)
		}
	}
	return profile, notes
}

// EvaluateProfile checks thresholds over profile values. Call it after any
// profile mutation.
func (e *Evaluator) EvaluateProfile(profile domain.PlayerProfile, now time.Time) (domain.PlayerProfile, []domain.Notification) {
	checks := []check{
		{AchRisingStar, profile.Level},
		{AchVeteran, profile.Level},
		{AchCoinCollector, profile.Coins},
		{AchWeekStreak, profile.DailyStreak},
		{AchGlobetrotter, len(profile.Stats.VenuesPlayed)},
		{AchQuizMaster, profile.Stats.Wins},
	}
	if profile.Hearts.Current == 0 {
		checks = append(checks, check{AchHeartbroken, 1})
	}
	return e.apply(profile, checks, now)
}

// SessionFacts is what the evaluator needs to know about a finished session.
type SessionFacts struct {
	Session       domain.GameSession
	Level         domain.LevelConfig
	HeartsAtStart int
	// VenueLevelIDs lists every level of the session's venue.
	VenueLevelIDs []string
	// Progress is the progress snapshot after resolution.
	Progress domain.PlayerProgress
}

// EvaluateSession runs win- or failure-condition checks followed by profile
// threshold checks. profile must already carry the resolved outcome.
func (e *Evaluator) EvaluateSession(profile domain.PlayerProfile, facts SessionFacts, now time.Time) (domain.PlayerProfile, []domain.Notification) {
	var checks []check
	s := facts.Session
	if s.Status == domain.StatusPassed {
		checks = append(checks, check{AchFirstWin, 1})

		if len(s.Answers) > 0 && s.CorrectCount == len(s.Answers) {
			checks = append(checks, check{AchPerfectScore, 1})
		}
		if avg, ok := averageTimeMs(s.Answers); ok && avg <= speedDemonAvgMs {
			checks = append(checks, check{AchSpeedDemon, 1})
		}
		if len(s.UsedLifelines) == 0 {
			checks = append(checks, check{AchNoLifelines, 1})
		}
		if facts.HeartsAtStart == 1 {
			checks = append(checks, check{AchSurvivor, 1})
		}
		if len(s.Answers) > 0 && !s.Answers[0].Correct {
			checks = append(checks, check{AchComeback, 1})
		}
		checks = append(checks, check{AchPerfectStreak, profile.Stats.ConsecutivePerfectWins})
		if venueCompleted(facts.VenueLevelIDs, facts.Progress) {
			checks = append(checks, check{AchVenueComplete, 1})
		}
	} else if s.Status == domain.StatusFailed {
		checks = append(checks, check{AchPersistent, profile.Stats.ConsecutiveFailures})
	}

	profile, notes := e.apply(profile, checks, now)
	profile, more := e.EvaluateProfile(profile, now)
	return profile, append(notes, more...)
}

// EvaluateChallenge runs checks after a successful daily challenge.
func (e *Evaluator) EvaluateChallenge(profile domain.PlayerProfile, kind domain.ChallengeType, now time.Time) (domain.PlayerProfile, []domain.Notification) {
	checks := []check{
		{AchFirstChallenge, 1},
		{AchChallengeChampion, profile.Stats.ChallengesCompleted},
	}
	switch kind {
	case domain.ChallengeSpeedRun:
		checks = append(checks, check{AchSpeedRunner, profile.Stats.ChallengesByType[kind]})
	case domain.ChallengePerfectAccuracy:
		checks = append(checks, check{AchFlawless, profile.Stats.ChallengesByType[kind]})
	case domain.ChallengeStreakMaster:
		checks = append(checks, check{AchStreakMaster, profile.Stats.ChallengesByType[kind]})
	}
	profile, notes := e.apply(profile, checks, now)
	profile, more := e.EvaluateProfile(profile, now)
	return profile, append(notes, more...)
}

func averageTimeMs(answers []domain.AnswerRecord) (int64, bool) {
	if len(answers) == 0 {
		return 0, false
	}
	var total int64
	for _, a := range answers {
		total += a.TimeTakenMs
	}
	return total / int64(len(answers)), true
}

func venueCompleted(levelIDs []string, progress domain.PlayerProgress) bool {
	if len(levelIDs) == 0 {
		return false
	}
	for _, id := range levelIDs {
		if !progress.Completed(id) {
			return false
		}
	}
	return true
}
