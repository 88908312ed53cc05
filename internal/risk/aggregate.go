package risk

import (
	"math"

	"go.uber.org/zap"

	"github.com/sells-group/supplier-risk/internal/model"
)

// Weights assigns each dimension's share of the overall score. The fixed
// weights sum to 1.0.
type Weights map[model.Dimension]float64

// DefaultWeights returns the production weight set.
func DefaultWeights() Weights {
	return Weights{
		model.DimLocation:      0.20,
		model.DimSector:        0.15,
		model.DimHumanRights:   0.15,
		model.DimEnvironmental: 0.15,
		model.DimChemical:      0.10,
		model.DimMineral:       0.10,
		model.DimPerformance:   0.15,
	}
}

// Overall combines the seven dimensions into one 0-100 score. A weighted
// sum of clamped dimensions under weights summing to 1.0 cannot leave
// [0,100]; if it does anyway the table or weight data is broken, so the
// violation is logged loudly before clamping.
func Overall(d model.Dimensions, w Weights) int {
	var sum float64
	for _, dim := range model.AllDimensions() {
		sum += w[dim] * float64(d.Get(dim))
	}

	if sum < 0 || sum > 100 {
		zap.L().Error("risk: overall score outside [0,100] before clamping, check weight/table data",
			zap.Float64("raw_score", sum),
			zap.Any("dimensions", d),
		)
	}

	return Clamp(int(math.Round(sum)))
}

// LevelFor classifies an overall score. Bounds are inclusive and
// contiguous: low through 30, medium through 55, high through 75, critical
// above.
func LevelFor(score int) model.RiskLevel {
	switch {
	case score <= 30:
		return model.RiskLevelLow
	case score <= 55:
		return model.RiskLevelMedium
	case score <= 75:
		return model.RiskLevelHigh
	default:
		return model.RiskLevelCritical
	}
}
