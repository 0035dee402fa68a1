/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reducer_test.go
Description: Unit tests for the reduction algorithms: zero-reduction identity,
weight-ranked pruning with depth tie-breaking, the superset-language
invariant, error-budget enforcement, all-or-nothing parameter validation, and
merge-and-prune label continuity.
*/

package reduce_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleascm/nfareduce/pkg/interfaces"
	"github.com/kleascm/nfareduce/pkg/nfa"
	"github.com/kleascm/nfareduce/pkg/reduce"
)

// sigAlphabet is the byte range exercised by the signature fixture
var sigAlphabet = []byte("abcdxyz")

// signatureFA builds a trie-shaped automaton in the shape the engine sees in
// practice: a self-looping initial state, the signatures "abc", "abd", "xy",
// and sticky accepting states.
func signatureFA() string {
	var sb strings.Builder
	sb.WriteString("0\n")
	for _, c := range sigAlphabet {
		fmt.Fprintf(&sb, "0 0 0x%02x\n", c)
	}
	sb.WriteString("0 1 0x61\n")
	sb.WriteString("1 2 0x62\n")
	sb.WriteString("2 3 0x63\n")
	sb.WriteString("2 4 0x64\n")
	sb.WriteString("0 5 0x78\n")
	sb.WriteString("5 6 0x79\n")
	for _, s := range []int{3, 4, 6} {
		for _, c := range sigAlphabet {
			fmt.Fprintf(&sb, "%d %d 0x%02x\n", s, s, c)
		}
	}
	sb.WriteString("3\n4\n6\n")
	return sb.String()
}

// sigWeights mimics observed activation frequencies: shallow states carry
// more traffic than deep ones
func sigWeights() interfaces.LabelWeights {
	return interfaces.LabelWeights{0: 100, 1: 50, 2: 30, 3: 10, 4: 5, 5: 20, 6: 8}
}

var sigCorpus = []string{
	"", "a", "ab", "abc", "abd", "abz", "x", "xy", "xyz",
	"zzabcz", "zzabdzz", "wxyw", "abab", "abcabd", "zzz",
}

func loadSignatureFA(t *testing.T) *nfa.Automaton {
	t.Helper()
	a, err := nfa.Load(strings.NewReader(signatureFA()))
	require.NoError(t, err)
	return a
}

func TestZeroReductionIdentity(t *testing.T) {
	target := loadSignatureFA(t)
	reduced := target.Clone()

	predicted, err := reduce.Prune(reduced, sigWeights(), reduce.Params{Fraction: 0, ErrorBudget: 1, HasBudget: true}, nil)
	require.NoError(t, err)
	assert.Zero(t, predicted)
	assert.Equal(t, target.StateCount(), reduced.StateCount())

	target.Build()
	reduced.Build()
	for _, payload := range sigCorpus {
		assert.Equal(t, target.Accepts([]byte(payload)), reduced.Accepts([]byte(payload)), payload)
	}
}

func TestPruneRemovesLowWeightStates(t *testing.T) {
	a := loadSignatureFA(t)
	oldCount := a.StateCount()

	predicted, err := reduce.Prune(a, sigWeights(), reduce.Params{Fraction: 0.3}, nil)
	require.NoError(t, err)

	// floor(0.3 * 7) = 2 states removed: labels 4 and 6, the lightest
	assert.Equal(t, oldCount-2, a.StateCount())
	_, ok := a.StateOfLabel(4)
	assert.False(t, ok)
	_, ok = a.StateOfLabel(6)
	assert.False(t, ok)
	assert.Greater(t, predicted, 0.0)
	assert.LessOrEqual(t, predicted, 1.0)

	// Detection of "abd" and "xy" degraded to their surviving ancestors
	a.Build()
	assert.True(t, a.Accepts([]byte("abd")))
	assert.True(t, a.Accepts([]byte("xy")))
}

func TestSupersetInvariant(t *testing.T) {
	weights := sigWeights()
	for _, fraction := range []float64{0.15, 0.3, 0.5, 0.8} {
		for _, reduction := range []string{"prune", "merge"} {
			target := loadSignatureFA(t)
			reduced := target.Clone()

			var err error
			if reduction == "prune" {
				_, err = reduce.Prune(reduced, weights, reduce.Params{Fraction: fraction}, nil)
			} else {
				_, err = reduce.MergeAndPrune(reduced, weights, reduce.Params{Fraction: fraction}, nil)
			}
			require.NoError(t, err)
			assert.LessOrEqual(t, reduced.StateCount(), target.StateCount())

			target.Build()
			reduced.Build()
			for _, payload := range sigCorpus {
				if target.Accepts([]byte(payload)) {
					assert.True(t, reduced.Accepts([]byte(payload)),
						"%s pct=%g dropped %q", reduction, fraction, payload)
				}
			}
		}
	}
}

func TestPruneHonorsErrorBudget(t *testing.T) {
	a := loadSignatureFA(t)
	oldCount := a.StateCount()

	// A zero budget forbids any removal that carries traffic weight
	predicted, err := reduce.Prune(a, sigWeights(), reduce.Params{Fraction: 0.5, ErrorBudget: 0, HasBudget: true}, nil)
	require.NoError(t, err)
	assert.Zero(t, predicted)
	assert.Equal(t, oldCount, a.StateCount())
}

func TestParamValidationBeforeMutation(t *testing.T) {
	cases := []reduce.Params{
		{Fraction: -0.1},
		{Fraction: 1.5},
		{Fraction: 0.5, ErrorBudget: -0.5, HasBudget: true},
		{Fraction: 0.5, ErrorBudget: 2, HasBudget: true},
	}
	for _, params := range cases {
		a := loadSignatureFA(t)
		oldCount := a.StateCount()
		_, err := reduce.Prune(a, sigWeights(), params, nil)
		require.Error(t, err)
		assert.True(t, interfaces.IsKind(err, interfaces.KindValidation))
		assert.Equal(t, oldCount, a.StateCount())
	}
}

func TestUnknownWeightStateBeforeMutation(t *testing.T) {
	a := loadSignatureFA(t)
	oldCount := a.StateCount()
	weights := sigWeights()
	weights[99] = 1

	_, err := reduce.Prune(a, weights, reduce.Params{Fraction: 0.5}, nil)
	require.Error(t, err)
	assert.True(t, interfaces.IsKind(err, interfaces.KindValidation))
	assert.Equal(t, oldCount, a.StateCount())
}

func TestMergeAndPruneCarriesLabels(t *testing.T) {
	a := loadSignatureFA(t)

	// The three sticky accepting states have identical outgoing behavior and
	// merge before anything is pruned
	_, err := reduce.MergeAndPrune(a, sigWeights(), reduce.Params{Fraction: 0.3}, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, a.StateCount())

	r3, ok := a.StateOfLabel(3)
	require.True(t, ok)
	r4, ok := a.StateOfLabel(4)
	require.True(t, ok)
	assert.Equal(t, r3, r4)
	assert.True(t, a.IsAccepting(r3))

	a.Build()
	for _, payload := range []string{"abc", "abd", "xy"} {
		assert.True(t, a.Accepts([]byte(payload)), payload)
	}
}

func TestScoringStrategies(t *testing.T) {
	for _, name := range []string{"frontier-weight", "total-weight"} {
		strategy, ok := reduce.StrategyByName(name)
		require.True(t, ok)
		assert.Equal(t, name, strategy.Name())

		a := loadSignatureFA(t)
		predicted, err := reduce.Prune(a, sigWeights(), reduce.Params{Fraction: 0.3}, strategy)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, predicted, 0.0)
		assert.LessOrEqual(t, predicted, 1.0)
	}

	_, ok := reduce.StrategyByName("nope")
	assert.False(t, ok)
}
