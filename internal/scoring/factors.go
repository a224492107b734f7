// Package scoring turns probe findings into weighted risk factors and a
// 0-100 score with its band.
package scoring

import (
	"bsc-token-sentinel/internal/domain"
)

// Weight of each factor in the overall score. Weights sum to 1.
var factorWeights = map[domain.FactorID]float64{
	domain.FactorOwnership:           0.25,
	domain.FactorMintBlacklist:       0.20,
	domain.FactorLiquidityLock:       0.20,
	domain.FactorHolderConcentration: 0.15,
	domain.FactorDevHistory:          0.10,
	domain.FactorTaxHoneypot:         0.05,
	domain.FactorMarketIntegrity:     0.05,
}

// factorOrder fixes the order factors appear in reports.
var factorOrder = []domain.FactorID{
	domain.FactorOwnership,
	domain.FactorMintBlacklist,
	domain.FactorLiquidityLock,
	domain.FactorHolderConcentration,
	domain.FactorDevHistory,
	domain.FactorTaxHoneypot,
	domain.FactorMarketIntegrity,
}

// baselineEvidence is what a factor reports when no probe produced
// anything for it.
var baselineEvidence = map[domain.FactorID][]string{
	domain.FactorOwnership:           {"Owner unknown (ABI/owner() not available)"},
	domain.FactorMintBlacklist:       {"ABI unavailable"},
	domain.FactorLiquidityLock:       {"LP lock unknown (no v2 pair data)"},
	domain.FactorHolderConcentration: {"Top10 holders unknown (API limit)"},
	domain.FactorDevHistory:          {"No developer history source (placeholder)"},
	domain.FactorTaxHoneypot:         {"ABI unavailable"},
	domain.FactorMarketIntegrity:     {"No Pancake v2/v3 pool found"},
}

// FactorSet is the ordered set of the seven risk factors for one
// analysis. Factors start neutral with baseline evidence and are updated
// as probes report in.
type FactorSet struct {
	factors []domain.Factor
	index   map[domain.FactorID]int
}

// NewBaselineFactorSet builds the neutral factor set every analysis
// starts from. All signals are zero, so the baseline scores 60.
func NewBaselineFactorSet() *FactorSet {
	s := &FactorSet{
		factors: make([]domain.Factor, 0, len(factorOrder)),
		index:   make(map[domain.FactorID]int, len(factorOrder)),
	}
	for i, id := range factorOrder {
		s.factors = append(s.factors, domain.Factor{
			ID:       id,
			Weight:   factorWeights[id],
			Evidence: append([]string(nil), baselineEvidence[id]...),
		})
		s.index[id] = i
	}
	return s
}

// SetSignal replaces a factor's signal, refreshes its impact and, when
// evidence is given, replaces its evidence.
func (s *FactorSet) SetSignal(id domain.FactorID, signal int, evidence ...string) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	f := &s.factors[i]
	f.Signal = signal
	if len(evidence) > 0 {
		f.Evidence = evidence
	}
	f.Impact = impact(f.Weight, f.Signal)
}

// RaiseSignal lifts a factor's signal to at least the given value,
// replaces its evidence and refreshes the impact.
func (s *FactorSet) RaiseSignal(id domain.FactorID, signal int, evidence ...string) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	f := &s.factors[i]
	if signal > f.Signal {
		f.Signal = signal
	}
	f.Evidence = evidence
	f.Impact = impact(f.Weight, f.Signal)
}

// SetEvidence replaces a factor's evidence without touching its signal
// or impact.
func (s *FactorSet) SetEvidence(id domain.FactorID, evidence ...string) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	s.factors[i].Evidence = evidence
}

// Factors returns the factors in report order.
func (s *FactorSet) Factors() []domain.Factor {
	out := make([]domain.Factor, len(s.factors))
	copy(out, s.factors)
	return out
}
