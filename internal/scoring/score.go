package scoring

import (
	"math"

	"bsc-token-sentinel/internal/domain"
)

// Neutral base every score grows from. A token nothing is known about
// scores exactly this.
const scoreBase = 60.0

// Score thresholds for risk bands.
const (
	lowerRiskMin = 70.0
	cautionMin   = 40.0
)

// Score sums the factor impacts onto the neutral base and clamps the
// result to 0-100, rounded to two decimals.
func (s *FactorSet) Score() float64 {
	sum := 0.0
	for _, f := range s.factors {
		sum += f.Impact
	}
	score := scoreBase + sum
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return round2(score)
}

// BandForScore maps a score to its risk band.
func BandForScore(score float64) domain.Band {
	switch {
	case score >= lowerRiskMin:
		return domain.BandLowerRisk
	case score >= cautionMin:
		return domain.BandCaution
	default:
		return domain.BandHighRisk
	}
}

// impact is a factor's contribution to the score: weight times signal on
// a ten-point scale, rounded to two decimals.
func impact(weight float64, signal int) float64 {
	return round2(weight * float64(signal) * 10)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
