package challenge

import (
	"time"

	"quiz-hub/internal/domain"
	"quiz-hub/internal/progression"
)

// Result summarises a resolved challenge run.
type Result struct {
	ChallengeID  string               `json:"challengeId"`
	Type         domain.ChallengeType `json:"type"`
	Status       domain.SessionStatus `json:"status"`
	Score        int                  `json:"score"`
	Accuracy     float64              `json:"accuracy"`
	TimeSpentMs  int64                `json:"timeSpentMs"`
	XPEarned     int                  `json:"xpEarned"`
	CoinsEarned  int                  `json:"coinsEarned"`
	HeartsEarned int                  `json:"heartsEarned"`
	LockedUntil  *time.Time           `json:"lockedUntil,omitempty"`
}

// Outcome is the next profile plus what happened.
type Outcome struct {
	Profile       domain.PlayerProfile
	Result        Result
	Notifications []domain.Notification
}

// CanAttempt reports whether the player may start challengeID at now.
func CanAttempt(profile domain.PlayerProfile, challengeID string, now time.Time) error {
	if _, done := profile.ChallengeCompletions[challengeID]; done {
		return domain.ErrChallengeCompleted
	}
	if failure, ok := profile.ChallengeFailures[challengeID]; ok && now.Before(failure.LockedUntil) {
		return domain.ErrChallengeLocked
	}
	return nil
}

// Resolve records a finished run on the profile. Failures lock the challenge
// for the tuning lockout; successes grant the challenge's fixed reward.
func Resolve(run Run, challenge domain.DailyChallenge, profile domain.PlayerProfile, tuning domain.Tuning, evaluator *progression.Evaluator, now time.Time) (Outcome, error) {
	if !run.Session.Status.Terminal() {
		return Outcome{}, domain.ErrSessionInProgress
	}

	next := profile.Clone()
	result := Result{
		ChallengeID: challenge.ID,
		Type:        challenge.Type,
		Status:      run.Session.Status,
		Score:       run.Session.Score,
		Accuracy:    run.Accuracy(),
		TimeSpentMs: run.TimeSpentMs,
	}

	if run.Session.Status == domain.StatusFailed {
		locked := now.Add(tuning.ChallengeLockout)
		next.ChallengeFailures[challenge.ID] = domain.ChallengeFailure{
			ChallengeID: challenge.ID,
			FailedAt:    now,
			LockedUntil: locked,
		}
		result.LockedUntil = &locked
		return Outcome{
			Profile: next,
			Result:  result,
			Notifications: []domain.Notification{{
				Message:  "Challenge failed. Try again tomorrow.",
				Severity: domain.SeverityWarning,
				Duration: 3 * time.Second,
			}},
		}, nil
	}

	next.ChallengeCompletions[challenge.ID] = domain.ChallengeCompletion{
		ChallengeID: challenge.ID,
		Type:        challenge.Type,
		Score:       run.Session.Score,
		Accuracy:    result.Accuracy,
		TimeSpentMs: run.TimeSpentMs,
		CompletedAt: now,
	}
	delete(next.ChallengeFailures, challenge.ID)

	up := progression.ApplyXP(next.XP, next.Level, challenge.Reward.XP, tuning.XPPerLevelStep)
	next.XP, next.Level = up.XP, up.Level
	next.Coins += challenge.Reward.Coins
	heartsBefore := next.Hearts.Current
	next.Hearts.Current = min(next.Hearts.Capacity, next.Hearts.Current+challenge.Reward.Hearts)

	result.XPEarned = challenge.Reward.XP
	result.CoinsEarned = challenge.Reward.Coins
	result.HeartsEarned = next.Hearts.Current - heartsBefore

	next.Stats.ChallengesCompleted++
	next.Stats.ChallengesByType[challenge.Type]++

	notes := []domain.Notification{{
		Message:  "Challenge complete!",
		Severity: domain.SeveritySuccess,
		Duration: 3 * time.Second,
	}}
	if evaluator != nil {
		var more []domain.Notification
		next, more = evaluator.EvaluateChallenge(next, challenge.Type, now)
		notes = append(notes, more...)
	}
	return Outcome{Profile: next, Result: result, Notifications: notes}, nil
}
