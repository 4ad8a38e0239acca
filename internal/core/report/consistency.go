package report

import (
	"math"

	"github.com/comitanigiacomo/kanso-report-engine/internal/core/domain"
)

var Thresholds = domain.ConsistencyThresholds{High: 70, Medium: 40}

func Score(rate float64) domain.ConsistencyLevel {
	switch {
	case rate >= Thresholds.High:
		return domain.LevelHigh
	case rate >= Thresholds.Medium:
		return domain.LevelMedium
	default:
		return domain.LevelLow
	}
}

// NewConsistencyIndex scores the rounded rate, so the level always agrees
// with the success_rate it is reported next to.
func NewConsistencyIndex(rate float64) *domain.ConsistencyIndex {
	rounded := math.Round(rate*10) / 10
	return &domain.ConsistencyIndex{
		SuccessRate: rounded,
		Level:       Score(rounded),
		Thresholds:  Thresholds,
	}
}
