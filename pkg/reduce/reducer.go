/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reducer.go
Description: State-reduction algorithms for signature NFAs. Prune removes the
least important states by weight ranking; MergeAndPrune first collapses states
with identical outgoing behavior, then prunes for the remaining budget. Both
mutate the automaton in place, uphold the superset-language invariant through
ancestor demotion, and return a predicted error from a scoring strategy. All
parameter and weight validation happens before any mutation.
*/

package reduce

import (
	"sort"

	"github.com/bits-and-blooms/bitset"

	"github.com/kleascm/nfareduce/pkg/interfaces"
	"github.com/kleascm/nfareduce/pkg/nfa"
)

// Params controls a reduction run. Fraction is the target removed-state
// fraction of the current state count; ErrorBudget caps the predicted error
// when HasBudget is set.
type Params struct {
	Fraction    float64
	ErrorBudget float64
	HasBudget   bool
}

// Validate checks the parameter ranges; any violation is a validation error
// raised before reduction mutates anything
func (p Params) Validate() error {
	if p.Fraction < 0 || p.Fraction > 1 {
		return interfaces.ValidationErrorf("reduction rate %g out of range [0,1]", p.Fraction)
	}
	if p.HasBudget && (p.ErrorBudget < 0 || p.ErrorBudget > 1) {
		return interfaces.ValidationErrorf("error budget %g out of range [0,1]", p.ErrorBudget)
	}
	return nil
}

// Prune removes non-initial states from the bottom of the weight ranking
// (ties broken by greater depth: deeper, more specific states go first) until
// the removed fraction reaches the target or the next removal would exceed
// the error budget. Returns the predicted error for the applied removal.
func Prune(a *nfa.Automaton, weights interfaces.LabelWeights, params Params, strategy ScoringStrategy) (float64, error) {
	if err := params.Validate(); err != nil {
		return 0, err
	}
	resolved, err := ResolveWeights(a, weights)
	if err != nil {
		return 0, err
	}
	if strategy == nil {
		strategy = FrontierWeightScoring{}
	}

	removed := bitset.New(uint(a.StateCount()))
	target := int(params.Fraction * float64(a.StateCount()))
	score := growRemovalSet(a, resolved, params, strategy, removed, nil, target)

	if removed.Count() == 0 {
		return 0, nil
	}
	if err := a.RemoveStates(removed); err != nil {
		return 0, err
	}
	return score, nil
}

// MergeAndPrune first merges groups of states with identical outgoing
// transition behavior into a single representative, carrying both original
// labels, then runs the weight-ranked removal for whatever part of the target
// fraction merging did not already cover.
func MergeAndPrune(a *nfa.Automaton, weights interfaces.LabelWeights, params Params, strategy ScoringStrategy) (float64, error) {
	if err := params.Validate(); err != nil {
		return 0, err
	}
	resolved, err := ResolveWeights(a, weights)
	if err != nil {
		return 0, err
	}
	if strategy == nil {
		strategy = FrontierWeightScoring{}
	}

	target := int(params.Fraction * float64(a.StateCount()))
	merged := bitset.New(uint(a.StateCount()))

	// Group by exact outgoing-transition equality; the representative is the
	// shallowest member. The initial state never merges.
	groups := make(map[string][]int)
	for s := 0; s < a.StateCount(); s++ {
		if s == a.InitialState() {
			continue
		}
		key := a.TransitionKey(s)
		groups[key] = append(groups[key], s)
	}
	keys := make([]string, 0, len(groups))
	for key, members := range groups {
		if len(members) > 1 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	depths := a.StateDepth()
	for _, key := range keys {
		if int(merged.Count()) >= target {
			break
		}
		members := groups[key]
		rep := members[0]
		for _, s := range members[1:] {
			if depths[s] < depths[rep] {
				rep = s
			}
		}
		for _, s := range members {
			if s == rep || int(merged.Count()) >= target {
				continue
			}
			if err := a.MergeInto(rep, s); err != nil {
				return 0, err
			}
			resolved[rep] += resolved[s]
			merged.Set(uint(s))
		}
	}

	// Prune the reduced graph for the remaining budget
	removed := bitset.New(uint(a.StateCount()))
	score := growRemovalSet(a, resolved, params, strategy, removed, merged, target-int(merged.Count()))

	doomed := removed.Union(merged)
	if doomed.Count() == 0 {
		return 0, nil
	}
	if err := a.RemoveStates(doomed); err != nil {
		return 0, err
	}
	return score, nil
}

// growRemovalSet fills removed from the bottom of the weight ranking,
// recomputing the predicted error after each tentative removal and rolling
// back the one that would exceed the error budget. Returns the predicted
// error of the final set.
func growRemovalSet(a *nfa.Automaton, resolved []uint64, params Params, strategy ScoringStrategy, removed, merged *bitset.BitSet, target int) float64 {
	depths := a.StateDepth()
	candidates := make([]int, 0, a.StateCount())
	for s := 0; s < a.StateCount(); s++ {
		if s == a.InitialState() || (merged != nil && merged.Test(uint(s))) {
			continue
		}
		candidates = append(candidates, s)
	}
	sort.Slice(candidates, func(i, j int) bool {
		si, sj := candidates[i], candidates[j]
		if resolved[si] != resolved[sj] {
			return resolved[si] < resolved[sj]
		}
		if depths[si] != depths[sj] {
			return depths[si] > depths[sj]
		}
		return si < sj
	})

	score := strategy.Score(a, resolved, removed, merged)
	for _, s := range candidates {
		if int(removed.Count()) >= target {
			break
		}
		removed.Set(uint(s))
		next := strategy.Score(a, resolved, removed, merged)
		if params.HasBudget && next > params.ErrorBudget {
			removed.Clear(uint(s))
			break
		}
		score = next
	}
	return score
}
