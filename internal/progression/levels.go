package progression

// LevelUp is the result of running earned XP through the level thresholds.
type LevelUp struct {
	XP            int
	Level         int
	ReachedLevels []int
}

// ApplyXP adds earned XP and levels up while XP covers level*step. The threshold
// is recomputed from the new level on every iteration.
func ApplyXP(xp, level, earned, step int) LevelUp {
	if level < 1 {
		level = 1
	}
	out := LevelUp{XP: max(0, xp+earned), Level: level}
	if step <= 0 {
		return out
	}
	for threshold := out.Level * step; out.XP >= threshold; threshold = out.Level * step {
		out.XP -= threshold
		out.Level++
		out.ReachedLevels = append(out.ReachedLevels, out.Level)
	}
	return out
}
