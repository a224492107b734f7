// Package probe implements the on-chain and explorer checks behind the
// token risk factors. Probes degrade to unknown results when the chain
// or the explorer cannot answer instead of failing the analysis.
package probe

import (
	"errors"
	"math"
	"math/big"
)

var (
	errChainUnavailable    = errors.New("chain client unavailable")
	errExplorerUnavailable = errors.New("explorer client unavailable")
)

// Finding is one probe's contribution to a risk factor.
type Finding struct {
	Signal   int
	Evidence []string
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// ratioPercent computes part/whole as a percentage in float math.
func ratioPercent(part, whole *big.Int) float64 {
	q := new(big.Float).Quo(new(big.Float).SetInt(part), new(big.Float).SetInt(whole))
	v, _ := q.Float64()
	return v * 100
}
