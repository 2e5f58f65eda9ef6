package levels

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholdForLevel(t *testing.T) {
	tests := []struct {
		level int
		want  int64
	}{
		{1, 100},
		{2, 282},
		{3, 519},
		{4, 800},
		{10, 3162},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ThresholdForLevel(tt.level), "level %d", tt.level)
	}
}

func TestThresholdForLevel_StrictlyIncreasing(t *testing.T) {
	for level := 1; level < 100; level++ {
		assert.Greater(t, ThresholdForLevel(level+1), ThresholdForLevel(level), "level %d", level)
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		xp   int64
		want int
	}{
		{0, 1},
		{100, 1},
		{281, 1},
		{282, 2},
		{518, 2},
		{519, 3},
		{5000, 13},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.xp), "xp %d", tt.xp)
	}
}

func TestProgressFor(t *testing.T) {
	t.Run("fresh account measures against the full level-2 threshold", func(t *testing.T) {
		p := ProgressFor(0, 1)
		assert.Equal(t, 1, p.Level)
		assert.Equal(t, int64(282), p.NextLevelThreshold)
		assert.Equal(t, int64(282), p.XPToNext)
		assert.Equal(t, 0, p.ProgressPercent)
	})

	t.Run("halfway through level one", func(t *testing.T) {
		p := ProgressFor(141, 1)
		assert.Equal(t, int64(141), p.XPToNext)
		assert.Equal(t, 50, p.ProgressPercent)
	})

	t.Run("above level one uses the previous threshold as baseline", func(t *testing.T) {
		p := ProgressFor(282, 2)
		assert.Equal(t, int64(519), p.NextLevelThreshold)
		assert.Equal(t, int64(237), p.XPToNext)
		assert.Equal(t, 0, p.ProgressPercent)
	})

	t.Run("never reports negative xp to next", func(t *testing.T) {
		p := ProgressFor(600, 2)
		assert.Equal(t, int64(0), p.XPToNext)
	})
}
