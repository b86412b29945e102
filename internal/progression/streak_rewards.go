package progression

import (
	"fmt"

	"quiz-hub/internal/domain"
)

// StreakReward is a one-time grant unlocked at a daily streak milestone.
type StreakReward struct {
	ID        string                      `json:"id"`
	Days      int                         `json:"days"`
	Coins     int                         `json:"coins"`
	Hearts    int                         `json:"hearts"`
	Lifelines map[domain.LifelineKind]int `json:"lifelines,omitempty"`
}

// DefaultStreakRewards lists the streak milestones.
func DefaultStreakRewards() []StreakReward {
	return []StreakReward{
		{ID: "streak_3", Days: 3, Coins: 25},
		{ID: "streak_7", Days: 7, Coins: 50, Lifelines: map[domain.LifelineKind]int{
			domain.LifelineAskQuizzers: 1,
			domain.LifelineFiftyFifty:  1,
		}},
		{ID: "streak_14", Days: 14, Coins: 100, Hearts: 1},
		{ID: "streak_30", Days: 30, Coins: 250, Hearts: 2},
	}
}

// ClaimStreakReward grants reward id once, provided the streak has reached it.
func ClaimStreakReward(profile domain.PlayerProfile, rewards []StreakReward, id string) (domain.PlayerProfile, StreakReward, error) {
	var reward StreakReward
	found := false
	for _, r := range rewards {
		if r.ID == id {
			reward, found = r, true
			break
		}
	}
	if !found {
		return profile, StreakReward{}, fmt.Errorf("%w: unknown reward %s", domain.ErrStreakRewardUnavailable, id)
	}
	for _, claimed := range profile.ClaimedStreakRewards {
		if claimed == id {
			return profile, StreakReward{}, domain.ErrStreakRewardClaimed
		}
	}
	if profile.DailyStreak < reward.Days {
		return profile, StreakReward{}, domain.ErrStreakRewardUnavailable
	}

	next := profile.Clone()
	next.Coins += reward.Coins
	next.Hearts.Current = min(next.Hearts.Capacity, next.Hearts.Current+reward.Hearts)
	for kind, n := range reward.Lifelines {
		next.Lifelines[kind] += n
	}
	next.ClaimedStreakRewards = append(next.ClaimedStreakRewards, id)
	return next, reward, nil
}
