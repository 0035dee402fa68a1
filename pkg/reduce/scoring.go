/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: scoring.go
Description: Pluggable predicted-error scoring for state reduction. A strategy
maps the weights of removed and merged states, relative to the total observed
weight and the automaton topology, to a fraction of traffic expected to
trigger a discrepancy. Calibration is empirical, via the accuracy validator.
*/

package reduce

import (
	"github.com/bits-and-blooms/bitset"

	"github.com/kleascm/nfareduce/pkg/nfa"
)

// ScoringStrategy predicts the error introduced by removing and merging the
// given state sets. Implementations must not mutate the automaton.
type ScoringStrategy interface {
	// Name identifies the strategy in logs and configuration
	Name() string

	// Score returns a predicted discrepancy fraction in [0, 1]
	Score(a *nfa.Automaton, weights []uint64, removed, merged *bitset.BitSet) float64
}

// FrontierWeightScoring is the default strategy. Only the removal frontier
// contributes: a removed state with a surviving predecessor is the point where
// detection degrades to an ancestor, and its weight approximates how much
// traffic reaches that point. Exact-equivalence merges preserve the forward
// language and contribute nothing.
type FrontierWeightScoring struct{}

// Name returns the strategy identifier
func (FrontierWeightScoring) Name() string {
	return "frontier-weight"
}

// Score sums frontier-state weights over the total observed weight
func (FrontierWeightScoring) Score(a *nfa.Automaton, weights []uint64, removed, merged *bitset.BitSet) float64 {
	total := weights[a.InitialState()]
	if total == 0 {
		for _, w := range weights {
			total += w
		}
	}
	if total == 0 || removed == nil {
		return 0
	}

	frontier := bitset.New(uint(a.StateCount()))
	for u := 0; u < a.StateCount(); u++ {
		if removed.Test(uint(u)) {
			continue
		}
		for _, v := range a.Successors(u) {
			if removed.Test(uint(v)) {
				frontier.Set(uint(v))
			}
		}
	}

	var sum uint64
	for v, ok := frontier.NextSet(0); ok; v, ok = frontier.NextSet(v + 1) {
		sum += weights[v]
	}
	return clampFraction(float64(sum) / float64(total))
}

// TotalWeightScoring is a more pessimistic alternative: every removed or
// merged state contributes its full weight against the sum of all weights.
type TotalWeightScoring struct{}

// Name returns the strategy identifier
func (TotalWeightScoring) Name() string {
	return "total-weight"
}

// Score sums removed and merged weights over the whole weight mass
func (TotalWeightScoring) Score(a *nfa.Automaton, weights []uint64, removed, merged *bitset.BitSet) float64 {
	var total, sum uint64
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return 0
	}
	for _, set := range []*bitset.BitSet{removed, merged} {
		if set == nil {
			continue
		}
		for s, ok := set.NextSet(0); ok; s, ok = set.NextSet(s + 1) {
			sum += weights[s]
		}
	}
	return clampFraction(float64(sum) / float64(total))
}

// StrategyByName resolves a configured strategy name to an implementation
func StrategyByName(name string) (ScoringStrategy, bool) {
	switch name {
	case "", FrontierWeightScoring{}.Name():
		return FrontierWeightScoring{}, true
	case TotalWeightScoring{}.Name():
		return TotalWeightScoring{}, true
	default:
		return nil, false
	}
}

func clampFraction(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < 0 {
		return 0
	}
	return x
}
