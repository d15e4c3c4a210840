package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAQILevel(t *testing.T) {
	tests := []struct {
		value float64
		want  Level
	}{
		{0, LevelGood},
		{50, LevelGood},
		{50.1, LevelModerate},
		{100, LevelModerate},
		{101, LevelUnhealthySens},
		{150, LevelUnhealthySens},
		{151, LevelUnhealthy},
		{200, LevelUnhealthy},
		{201, LevelVeryUnhealthy},
		{300, LevelVeryUnhealthy},
		{300.5, LevelHazardous},
		{500, LevelHazardous},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, AQILevel(tt.value), "value %v", tt.value)
	}
}

// Classification never steps back down as the value grows.
func TestAQILevelMonotonic(t *testing.T) {
	rank := map[Level]int{
		LevelGood:          0,
		LevelModerate:      1,
		LevelUnhealthySens: 2,
		LevelUnhealthy:     3,
		LevelVeryUnhealthy: 4,
		LevelHazardous:     5,
	}

	prev := -1
	for v := 0.0; v <= 400; v += 0.5 {
		r := rank[AQILevel(v)]
		assert.GreaterOrEqual(t, r, prev, "value %v", v)
		prev = r
	}
}
