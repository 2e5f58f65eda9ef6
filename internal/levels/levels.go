// Package levels holds the XP curve shared by the award engine and the
// progress endpoints.
package levels

import "math"

const baseXP = 100

// ThresholdForLevel returns the cumulative XP required to reach the given level.
func ThresholdForLevel(level int) int64 {
	if level < 1 {
		level = 1
	}
	return int64(math.Floor(baseXP * math.Pow(float64(level), 1.5)))
}

// NextLevelThreshold returns the cumulative XP required for the level after
// the current one.
func NextLevelThreshold(currentLevel int) int64 {
	return ThresholdForLevel(currentLevel + 1)
}

// LevelFor maps a total XP balance to a level. Levels start at 1.
func LevelFor(totalXP int64) int {
	level := 1
	for totalXP >= ThresholdForLevel(level+1) {
		level++
	}
	return level
}

// Progress describes where a balance sits between two level thresholds.
type Progress struct {
	Level              int   `json:"level"`
	XPToNext           int64 `json:"xp_to_next"`
	NextLevelThreshold int64 `json:"next_level_threshold"`
	ProgressPercent    int   `json:"level_progress_percent"`
}

// ProgressFor computes progress toward the next level. The baseline below
// level 2 is zero, so a fresh account reports percent relative to the full
// level-2 threshold.
func ProgressFor(totalXP int64, level int) Progress {
	if level < 1 {
		level = 1
	}
	next := NextLevelThreshold(level)
	xpToNext := next - totalXP
	if xpToNext < 0 {
		xpToNext = 0
	}

	var prev int64
	if level > 1 {
		prev = ThresholdForLevel(level)
	}
	denom := next - prev
	if denom < 1 {
		denom = 1
	}
	percent := int(float64(totalXP-prev) / float64(denom) * 100)

	return Progress{
		Level:              level,
		XPToNext:           xpToNext,
		NextLevelThreshold: next,
		ProgressPercent:    percent,
	}
}
