package progression

import (
	"time"

	"quiz-hub/internal/domain"
)

// RegenerateHearts grants one heart per full interval elapsed since the last
// regeneration, up to capacity. At capacity the regeneration clock is parked at now.
func RegenerateHearts(profile domain.PlayerProfile, now time.Time, interval time.Duration) domain.PlayerProfile {
	h := profile.Hearts
	if h.Current >= h.Capacity || h.LastRegenAt.IsZero() {
		if h.LastRegenAt.Equal(now) {
			return profile
		}
		next := profile.Clone()
		next.Hearts.LastRegenAt = now
		return next
	}
	if interval <= 0 || now.Before(h.LastRegenAt) {
		return profile
	}

	gained := int(now.Sub(h.LastRegenAt) / interval)
	if gained == 0 {
		return profile
	}
	next := profile.Clone()
	next.Hearts.Current = min(h.Capacity, h.Current+gained)
	if next.Hearts.Current == h.Capacity {
		next.Hearts.LastRegenAt = now
	} else {
		next.Hearts.LastRegenAt = h.LastRegenAt.Add(time.Duration(gained) * interval)
	}
	return next
}

// NextHeartAt reports when the next heart regenerates, or false at capacity.
func NextHeartAt(profile domain.PlayerProfile, interval time.Duration) (time.Time, bool) {
	if profile.Hearts.Current >= profile.Hearts.Capacity || interval <= 0 {
		return time.Time{}, false
	}
	return profile.Hearts.LastRegenAt.Add(interval), true
}
