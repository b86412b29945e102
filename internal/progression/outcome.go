package progression

import (
	"math"
	"time"

	"quiz-hub/internal/domain"
)

// Outcome is the set of next snapshots produced by resolving a finished session.
type Outcome struct {
	Profile  domain.PlayerProfile
	Progress domain.PlayerProgress
	Summary  domain.RewardSummary
}

// Accuracy returns correct/total, or 0 for an empty session.
func Accuracy(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(correct) / float64(total)
}

// ResolveOutcome turns a terminal session into rewards and next snapshots.
// Inputs are never mutated.
func ResolveOutcome(session domain.GameSession, level domain.LevelConfig, profile domain.PlayerProfile, progress domain.PlayerProgress, tuning domain.Tuning, now time.Time) (Outcome, error) {
	if !session.Status.Terminal() {
		return Outcome{}, domain.ErrSessionInProgress
	}

	totalCorrect := 0
	for _, a := range session.Answers {
		if a.Correct {
			totalCorrect++
		}
	}
	totalQuestions := len(session.Answers)
	accuracy := Accuracy(totalCorrect, totalQuestions)

	next := profile.Clone()
	nextProgress := domain.PlayerProgress{
		PlayerID:          progress.PlayerID,
		CompletedLevelIDs: append([]string(nil), progress.CompletedLevelIDs...),
	}
	summary := domain.RewardSummary{
		TotalCorrect:   totalCorrect,
		TotalQuestions: totalQuestions,
		Accuracy:       accuracy,
		Result:         session.Status,
	}

	heartsBefore := next.Hearts.Current
	bonusHearts := 0

	if session.Status == domain.StatusPassed {
		if !nextProgress.Completed(level.ID) {
			nextProgress.CompletedLevelIDs = append(nextProgress.CompletedLevelIDs, level.ID)
			summary.FirstCompletion = true
		}

		summary.XPEarned = 50 + int(math.Floor(accuracy*150))
		coins := 5 + totalCorrect
		if len(session.UsedLifelines) == 0 {
			coins += 5
		}
		if accuracy == 1 {
			coins += 3
		}

		up := ApplyXP(next.XP, next.Level, summary.XPEarned, tuning.XPPerLevelStep)
		for _, reached := range up.ReachedLevels {
			coins += tuning.LevelUpCoins
			if reached%3 == 0 {
				summary.BonusAskQuizzers++
			}
			if reached%5 == 0 {
				bonusHearts++
			}
		}
		next.XP = up.XP
		next.Level = up.Level
		summary.LevelsGained = len(up.ReachedLevels)
		next.Coins += coins
		summary.CoinsEarned = coins

		if next.Lifelines == nil {
			next.Lifelines = map[domain.LifelineKind]int{}
		}
		next.Lifelines[domain.LifelineAskQuizzers] += summary.BonusAskQuizzers

		next.Stats.Wins++
		if accuracy == 1 {
			next.Stats.ConsecutivePerfectWins++
		} else {
			next.Stats.ConsecutivePerfectWins = 0
		}
		next.Stats.ConsecutiveFailures = 0
	} else {
		next.Hearts.Current = max(0, next.Hearts.Current-1)
		next.Stats.ConsecutiveFailures++
		next.Stats.ConsecutivePerfectWins = 0
	}

	newStreak := ComputeUpdatedStreak(profile.DailyStreak, profile.LastActiveAt, now)
	if newStreak != profile.DailyStreak {
		summary.StreakBonusCoins = 5 + newStreak
		next.Coins += summary.StreakBonusCoins
		summary.CoinsEarned += summary.StreakBonusCoins
		if newStreak%5 == 0 {
			bonusHearts++
		}
	}
	summary.NewStreak = newStreak
	summary.BonusHearts = bonusHearts

	next.Hearts.Current = min(next.Hearts.Capacity, next.Hearts.Current+bonusHearts)
	if heartsBefore >= next.Hearts.Capacity && next.Hearts.Current < next.Hearts.Capacity {
		// regeneration starts counting from the moment a heart was lost
		next.Hearts.LastRegenAt = now
	}
	next.DailyStreak = newStreak
	active := now
	next.LastActiveAt = &active
	next.Stats.VenuesPlayed = addUnique(next.Stats.VenuesPlayed, level.VenueID)

	return Outcome{Profile: next, Progress: nextProgress, Summary: summary}, nil
}

func addUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
