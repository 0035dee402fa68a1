/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: automaton_test.go
Description: Unit tests for the NFA data model: loading and printing the FA
text format, fast-form simulation, activity labeling, state depth, and the
structural mutators used by reduction.
*/

package nfa_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kleascm/nfareduce/pkg/interfaces"
	"github.com/kleascm/nfareduce/pkg/nfa"
)

const chainFA = `0
0 1 0x61
1 2 0x62
2 3 0x63
3
`

func mustLoad(t *testing.T, text string) *nfa.Automaton {
	t.Helper()
	a, err := nfa.Load(strings.NewReader(text))
	require.NoError(t, err)
	return a
}

func TestLoadChain(t *testing.T) {
	a := mustLoad(t, chainFA)
	assert.Equal(t, 4, a.StateCount())
	assert.Equal(t, 0, a.InitialState())
	assert.Equal(t, 3, a.TransitionCount())
	assert.True(t, a.IsState(3))
	assert.False(t, a.IsState(4))

	// Dense ids carry the original labels
	s, ok := a.StateOfLabel(3)
	require.True(t, ok)
	assert.True(t, a.IsAccepting(s))
	assert.Equal(t, uint64(0), a.LabelOf(a.InitialState()))
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"empty":               "",
		"bad initial":         "x\n",
		"bad transition":      "0\n0 1\n",
		"bad symbol":          "0\n0 1 0x1ff\n",
		"bad accepting":       "0\n0 1 0x61\nzz\n",
		"transitions resumed": "0\n0 1 0x61\n1\n0 1 0x61\n",
	}
	for name, text := range cases {
		_, err := nfa.Load(strings.NewReader(text))
		assert.Error(t, err, name)
		assert.True(t, interfaces.IsKind(err, interfaces.KindFileFormat), name)
	}
}

func TestSimulateAndAccept(t *testing.T) {
	a := mustLoad(t, chainFA)
	a.Build()

	assert.True(t, a.Accepts([]byte("abc")))
	assert.False(t, a.Accepts([]byte("ab")))
	assert.False(t, a.Accepts([]byte("abd")))
	// No self-loop on the accepting state: acceptance is not sticky here
	assert.False(t, a.Accepts([]byte("abcx")))

	final := a.Simulate([]byte("ab"))
	assert.Equal(t, uint(1), final.Count())
	assert.True(t, final.Test(2))
}

func TestStepByte(t *testing.T) {
	a := mustLoad(t, "0\n0 1 0x61\n0 2 0x61\n2\n")
	a.Build()

	active := bitset.New(uint(a.StateCount()))
	active.Set(uint(a.InitialState()))
	next := a.StepByte(active, 'a')
	// Non-deterministic step reaches both successors
	assert.Equal(t, uint(2), next.Count())
}

func TestSimulateUnbuiltPanics(t *testing.T) {
	a := mustLoad(t, chainFA)
	assert.Panics(t, func() { a.Simulate([]byte("abc")) })
	assert.Panics(t, func() { a.LabelActivity([]byte("abc")) })
}

func TestBuildInvalidatedByMutation(t *testing.T) {
	a := mustLoad(t, chainFA)
	a.Build()
	require.True(t, a.Built())

	require.NoError(t, a.AddTransition(0, 2, 'z'))
	assert.False(t, a.Built())

	a.Build()
	assert.True(t, a.Built())
}

func TestLabelActivity(t *testing.T) {
	a := mustLoad(t, chainFA)
	a.Build()

	visited := a.LabelActivity([]byte("ab"))
	assert.True(t, visited.Test(uint(a.InitialState())))
	assert.True(t, visited.Test(1))
	assert.True(t, visited.Test(2))
	assert.False(t, visited.Test(3))

	// The initial state counts even when nothing matches
	visited = a.LabelActivity([]byte("zzz"))
	assert.True(t, visited.Test(uint(a.InitialState())))
	assert.Equal(t, uint(1), visited.Count())
}

func TestStateDepth(t *testing.T) {
	a := mustLoad(t, chainFA)
	depths := a.StateDepth()
	assert.Equal(t, []int{0, 1, 2, 3}, depths)
}

func TestStateDepthUnreachable(t *testing.T) {
	// State 9 only appears as an accepting island
	a := mustLoad(t, "0\n0 1 0x61\n9\n")
	depths := a.StateDepth()
	s, ok := a.StateOfLabel(9)
	require.True(t, ok)
	// Unreachable states rank deeper than any reachable state
	assert.Equal(t, a.StateCount(), depths[s])
}

func TestPrintRoundTrip(t *testing.T) {
	a := mustLoad(t, chainFA)
	a.Build()

	var buf bytes.Buffer
	require.NoError(t, a.Print(&buf))

	b, err := nfa.Load(&buf)
	require.NoError(t, err)
	b.Build()

	assert.Equal(t, a.StateCount(), b.StateCount())
	assert.Equal(t, a.TransitionCount(), b.TransitionCount())
	for _, payload := range []string{"", "a", "ab", "abc", "abcd", "xabc"} {
		assert.Equal(t, a.Accepts([]byte(payload)), b.Accepts([]byte(payload)), payload)
	}
}

func TestMarkAcceptingIsSticky(t *testing.T) {
	a := mustLoad(t, chainFA)
	require.NoError(t, a.MarkAccepting(1))
	a.Build()

	// State 1 is reached after "a" and keeps itself alive afterwards
	assert.True(t, a.Accepts([]byte("a")))
	assert.True(t, a.Accepts([]byte("azzzz")))
}

func TestRemoveStatesDegradesToAncestor(t *testing.T) {
	a := mustLoad(t, chainFA)

	removed := bitset.New(uint(a.StateCount()))
	removed.Set(2)
	removed.Set(3)
	require.NoError(t, a.RemoveStates(removed))

	// 0 -a-> 1 survives; 1 became accepting in place of the removed suffix
	assert.Equal(t, 2, a.StateCount())
	a.Build()
	assert.True(t, a.Accepts([]byte("ab")))
	assert.True(t, a.Accepts([]byte("abc")))
	assert.False(t, a.Accepts([]byte("z")))

	// Label map carried through the renumbering
	s, ok := a.StateOfLabel(1)
	require.True(t, ok)
	assert.True(t, a.IsAccepting(s))
	_, ok = a.StateOfLabel(3)
	assert.False(t, ok)
}

func TestRemoveInitialRefused(t *testing.T) {
	a := mustLoad(t, chainFA)
	removed := bitset.New(uint(a.StateCount()))
	removed.Set(uint(a.InitialState()))
	err := a.RemoveStates(removed)
	require.Error(t, err)
	assert.True(t, interfaces.IsKind(err, interfaces.KindValidation))
}

func TestMergeIntoCarriesLabels(t *testing.T) {
	// Two states with identical outgoing behavior into the same accept state
	a := mustLoad(t, "0\n0 1 0x61\n0 2 0x62\n1 3 0x63\n2 3 0x63\n3\n")
	s1, ok := a.StateOfLabel(1)
	require.True(t, ok)
	s2, ok := a.StateOfLabel(2)
	require.True(t, ok)

	require.NoError(t, a.MergeInto(s1, s2))
	removed := bitset.New(uint(a.StateCount()))
	removed.Set(uint(s2))
	require.NoError(t, a.RemoveStates(removed))

	// Both original labels resolve to the representative
	r1, ok := a.StateOfLabel(1)
	require.True(t, ok)
	r2, ok := a.StateOfLabel(2)
	require.True(t, ok)
	assert.Equal(t, r1, r2)
	assert.Contains(t, a.MergedLabelsOf(r1), uint64(2))

	a.Build()
	assert.True(t, a.Accepts([]byte("ac")))
	assert.True(t, a.Accepts([]byte("bc")))
}

func TestClone(t *testing.T) {
	a := mustLoad(t, chainFA)
	c := a.Clone()
	require.NoError(t, c.AddTransition(0, 3, 'x'))

	a.Build()
	c.Build()
	assert.False(t, a.Accepts([]byte("x")))
	assert.True(t, c.Accepts([]byte("x")))
	assert.Equal(t, a.StateCount(), c.StateCount())
}
