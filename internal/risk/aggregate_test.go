package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/supplier-risk/internal/model"
)

func TestDefaultWeights_SumToOne(t *testing.T) {
	var sum float64
	for _, w := range DefaultWeights() {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Len(t, DefaultWeights(), len(model.AllDimensions()))
}

func TestOverall(t *testing.T) {
	w := DefaultWeights()

	uniform := func(v int) model.Dimensions {
		var d model.Dimensions
		for _, dim := range model.AllDimensions() {
			d.Set(dim, v)
		}
		return d
	}

	tests := []struct {
		name string
		dims model.Dimensions
		want int
	}{
		{"all zero", uniform(0), 0},
		{"all fifty", uniform(50), 50},
		{"all hundred", uniform(100), 100},
		{
			"mixed",
			model.Dimensions{
				Location: 27, Sector: 60, HumanRights: 95,
				Environmental: 50, Chemical: 60, Mineral: 50, Performance: 50,
			},
			// 5.4 + 9 + 14.25 + 7.5 + 6 + 5 + 7.5 = 54.65 -> 55
			55,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overall(tt.dims, w))
		})
	}
}

func TestLevelFor_Bounds(t *testing.T) {
	tests := []struct {
		score int
		want  model.RiskLevel
	}{
		{0, model.RiskLevelLow},
		{30, model.RiskLevelLow},
		{31, model.RiskLevelMedium},
		{55, model.RiskLevelMedium},
		{56, model.RiskLevelHigh},
		{75, model.RiskLevelHigh},
		{76, model.RiskLevelCritical},
		{100, model.RiskLevelCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.score), "score %d", tt.score)
	}
}

func TestLevelFor_Total(t *testing.T) {
	// Every score in range maps to exactly one level, no gaps.
	for score := 0; score <= 100; score++ {
		level := LevelFor(score)
		assert.Contains(t, []model.RiskLevel{
			model.RiskLevelLow, model.RiskLevelMedium,
			model.RiskLevelHigh, model.RiskLevelCritical,
		}, level)
	}
}
