/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: automaton.go
Description: Mutable NFA graph for the reduction engine. States are dense
non-negative integers with the initial state at index 0; the alphabet is the
full byte range. Owns the transition relation, the accepting set, the mapping
back to original signature labels, and a derived fast simulation form that must
be rebuilt after any structural mutation.
*/

package nfa

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/kleascm/nfareduce/pkg/interfaces"
)

// alphabetSize is the number of symbols in the automaton alphabet (one byte)
const alphabetSize = 256

// Automaton is a byte-alphabet NFA plus its derived simulation form.
// Structural mutators invalidate the fast form; simulation entry points check
// the built flag and treat a stale form as a caller contract violation.
type Automaton struct {
	initial   int
	accepting *bitset.BitSet

	// trans[s] maps a symbol to the ascending set of successor states
	trans []map[byte][]int

	// labels[s] is the original signature label the dense state s was loaded
	// from; index is the reverse mapping and also resolves labels of states
	// merged away during reduction
	labels []uint64
	index  map[uint64]int

	// merged[s] carries the extra original labels a representative state
	// absorbed through merging
	merged map[int][]uint64

	built  bool
	fast   [][]int // len stateCount*alphabetSize, successors per (state, symbol)
	depths []int
}

// newAutomaton creates an empty automaton; states are added during loading
func newAutomaton() *Automaton {
	return &Automaton{
		initial:   -1,
		accepting: bitset.New(0),
		index:     make(map[uint64]int),
		merged:    make(map[int][]uint64),
	}
}

// stateFor returns the dense id for an original label, creating the state on
// first mention
func (a *Automaton) stateFor(label uint64) int {
	if s, ok := a.index[label]; ok {
		return s
	}
	s := len(a.trans)
	a.trans = append(a.trans, make(map[byte][]int))
	a.labels = append(a.labels, label)
	a.index[label] = s
	return s
}

// StateCount returns the number of states
func (a *Automaton) StateCount() int {
	return len(a.trans)
}

// TransitionCount returns the number of (state, symbol, state) transitions
func (a *Automaton) TransitionCount() int {
	n := 0
	for _, row := range a.trans {
		for _, dests := range row {
			n += len(dests)
		}
	}
	return n
}

// InitialState returns the dense id of the initial state
func (a *Automaton) InitialState() int {
	return a.initial
}

// IsState reports whether id names a state of this automaton
func (a *Automaton) IsState(id int) bool {
	return id >= 0 && id < len(a.trans)
}

// IsAccepting reports whether the state is in the accepting set
func (a *Automaton) IsAccepting(id int) bool {
	return a.accepting.Test(uint(id))
}

// Built reports whether the fast simulation form is current
func (a *Automaton) Built() bool {
	return a.built
}

// LabelOf returns the original signature label of a dense state id
func (a *Automaton) LabelOf(id int) uint64 {
	return a.labels[id]
}

// StateOfLabel resolves an original label to its current dense state id.
// Labels of states merged away during reduction resolve to their
// representative; labels of pruned states do not resolve.
func (a *Automaton) StateOfLabel(label uint64) (int, bool) {
	s, ok := a.index[label]
	return s, ok
}

// MergedLabelsOf returns the extra original labels absorbed by a state during
// merging, if any
func (a *Automaton) MergedLabelsOf(id int) []uint64 {
	return a.merged[id]
}

// ReversedLabelMap returns the mapping from dense state id to original label
func (a *Automaton) ReversedLabelMap() map[int]uint64 {
	m := make(map[int]uint64, len(a.labels))
	for s, l := range a.labels {
		m[s] = l
	}
	return m
}

// Successors returns the ascending set of states reachable from s by one
// transition on any symbol
func (a *Automaton) Successors(s int) []int {
	var succ []int
	for _, dests := range a.trans[s] {
		for _, d := range dests {
			succ = insertSorted(succ, d)
		}
	}
	return succ
}

// TransitionKey returns a canonical encoding of a state's outgoing transition
// behavior, including its accepting flag. Self-references encode as a marker
// rather than the state id, so two states that differ only in their self-loops
// compare equal. Two states with equal keys have identical forward behavior
// and are candidates for merging.
func (a *Automaton) TransitionKey(s int) string {
	var sb strings.Builder
	if a.accepting.Test(uint(s)) {
		sb.WriteString("F|")
	}
	for c := 0; c < alphabetSize; c++ {
		dests := a.trans[s][byte(c)]
		if len(dests) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "%d:", c)
		for i, d := range dests {
			if i > 0 {
				sb.WriteByte(',')
			}
			if d == s {
				sb.WriteByte('S')
			} else {
				fmt.Fprintf(&sb, "%d", d)
			}
		}
		sb.WriteByte(';')
	}
	return sb.String()
}

// clearDerived invalidates the fast form and cached depths after a structural
// mutation
func (a *Automaton) clearDerived() {
	a.built = false
	a.fast = nil
	a.depths = nil
}

// AddTransition adds p --symbol--> q to the transition relation
func (a *Automaton) AddTransition(p, q int, symbol byte) error {
	if !a.IsState(p) || !a.IsState(q) {
		return interfaces.ValidationErrorf("transition references unknown state %d -> %d", p, q)
	}
	a.trans[p][symbol] = insertSorted(a.trans[p][symbol], q)
	a.clearDerived()
	return nil
}

// setAccept marks a state accepting without touching its transitions; used
// when loading a persisted description
func (a *Automaton) setAccept(s int) {
	a.accepting.Set(uint(s))
}

// MarkAccepting marks a state accepting and gives it a full self-loop so that
// acceptance is sticky across the rest of the input. Reduction relies on this
// when detection degrades to a surviving ancestor state.
func (a *Automaton) MarkAccepting(s int) error {
	if !a.IsState(s) {
		return interfaces.ValidationErrorf("cannot mark unknown state %d accepting", s)
	}
	a.accepting.Set(uint(s))
	for c := 0; c < alphabetSize; c++ {
		a.trans[s][byte(c)] = insertSorted(a.trans[s][byte(c)], s)
	}
	a.clearDerived()
	return nil
}

// Build (re)derives the fast simulation form from the current transition
// relation. Idempotent; must be called before any simulation entry point and
// after any structural mutation.
func (a *Automaton) Build() {
	if a.built {
		return
	}
	n := a.StateCount()
	a.fast = make([][]int, n*alphabetSize)
	for s := 0; s < n; s++ {
		for symbol, dests := range a.trans[s] {
			a.fast[s*alphabetSize+int(symbol)] = dests
		}
	}
	a.built = true
}

// mustBuilt panics on simulation against a stale or missing fast form; this
// is a caller contract violation, not a recoverable runtime error
func (a *Automaton) mustBuilt() {
	if !a.built {
		panic("nfa: simulation on an automaton that has not been built")
	}
}

// StepByte computes the union of successor states over all states in active
// for the consumed byte
func (a *Automaton) StepByte(active *bitset.BitSet, b byte) *bitset.BitSet {
	a.mustBuilt()
	next := bitset.New(uint(a.StateCount()))
	for s, ok := active.NextSet(0); ok; s, ok = active.NextSet(s + 1) {
		for _, d := range a.fast[int(s)*alphabetSize+int(b)] {
			next.Set(uint(d))
		}
	}
	return next
}

// Simulate consumes the payload starting from the initial state and returns
// the final active-state set
func (a *Automaton) Simulate(payload []byte) *bitset.BitSet {
	a.mustBuilt()
	active := bitset.New(uint(a.StateCount()))
	active.Set(uint(a.initial))
	for _, b := range payload {
		active = a.StepByte(active, b)
	}
	return active
}

// Accepts reports whether the final active set intersects the accepting set
func (a *Automaton) Accepts(payload []byte) bool {
	return a.Simulate(payload).IntersectionCardinality(a.accepting) > 0
}

// LabelActivity returns the set of states that were active at any point while
// simulating one payload. The initial state is always marked: it is
// structurally present in every packet for weighting purposes.
func (a *Automaton) LabelActivity(payload []byte) *bitset.BitSet {
	a.mustBuilt()
	visited := bitset.New(uint(a.StateCount()))
	active := bitset.New(uint(a.StateCount()))
	active.Set(uint(a.initial))
	visited.Set(uint(a.initial))
	for _, b := range payload {
		active = a.StepByte(active, b)
		visited.InPlaceUnion(active)
	}
	return visited
}

// StateDepth returns, per state, the minimum number of transitions from the
// initial state; computed by breadth-first traversal and cached until the next
// structural mutation. States unreachable from the initial state get depth
// equal to the state count, ranking them deeper than any reachable state.
func (a *Automaton) StateDepth() []int {
	if a.depths != nil {
		return a.depths
	}
	n := a.StateCount()
	depths := make([]int, n)
	for i := range depths {
		depths[i] = n
	}
	depths[a.initial] = 0
	queue := []int{a.initial}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, dests := range a.trans[s] {
			for _, d := range dests {
				if depths[d] == n && d != a.initial {
					depths[d] = depths[s] + 1
					queue = append(queue, d)
				}
			}
		}
	}
	a.depths = depths
	return depths
}

// Clone returns a deep structural copy. The fast form is not copied; callers
// build the clone before simulating against it.
func (a *Automaton) Clone() *Automaton {
	c := &Automaton{
		initial:   a.initial,
		accepting: a.accepting.Clone(),
		trans:     make([]map[byte][]int, len(a.trans)),
		labels:    append([]uint64(nil), a.labels...),
		index:     make(map[uint64]int, len(a.index)),
		merged:    make(map[int][]uint64, len(a.merged)),
	}
	for s, row := range a.trans {
		c.trans[s] = make(map[byte][]int, len(row))
		for symbol, dests := range row {
			c.trans[s][symbol] = append([]int(nil), dests...)
		}
	}
	for l, s := range a.index {
		c.index[l] = s
	}
	for s, extra := range a.merged {
		c.merged[s] = append([]uint64(nil), extra...)
	}
	return c
}

// MergeInto collapses state s into the representative rep: outgoing
// transitions of s are copied onto rep, incoming transitions are redirected to
// rep, the accepting flag is carried over, and the label map is updated so
// both original labels resolve to rep. The merged state is left isolated for a
// subsequent RemoveStates call.
func (a *Automaton) MergeInto(rep, s int) error {
	if !a.IsState(rep) || !a.IsState(s) {
		return interfaces.ValidationErrorf("merge references unknown state %d <- %d", rep, s)
	}
	if rep == s || s == a.initial {
		return interfaces.ValidationErrorf("cannot merge state %d into %d", s, rep)
	}

	// Copy outgoing rules of s onto the representative
	for symbol, dests := range a.trans[s] {
		for _, d := range dests {
			target := d
			if target == s {
				target = rep
			}
			a.trans[rep][symbol] = insertSorted(a.trans[rep][symbol], target)
		}
	}

	// Redirect incoming rules of s to the representative
	for p := 0; p < a.StateCount(); p++ {
		if p == s {
			continue
		}
		for symbol, dests := range a.trans[p] {
			if i := sort.SearchInts(dests, s); i < len(dests) && dests[i] == s {
				dests = append(dests[:i], dests[i+1:]...)
				a.trans[p][symbol] = insertSorted(dests, rep)
			}
		}
	}

	if a.accepting.Test(uint(s)) {
		a.accepting.Set(uint(rep))
	}

	// Carry both original labels through the merge
	a.index[a.labels[s]] = rep
	a.merged[rep] = append(a.merged[rep], a.labels[s])
	a.merged[rep] = append(a.merged[rep], a.merged[s]...)
	delete(a.merged, s)

	a.trans[s] = make(map[byte][]int)
	a.accepting.Clear(uint(s))
	a.clearDerived()
	return nil
}

// acceptReachable returns the set of states from which some accepting state is
// reachable, accepting states included
func (a *Automaton) acceptReachable() *bitset.BitSet {
	n := a.StateCount()
	pred := make([][]int, n)
	for p, row := range a.trans {
		for _, dests := range row {
			for _, q := range dests {
				pred[q] = append(pred[q], p)
			}
		}
	}
	leads := a.accepting.Clone()
	queue := make([]int, 0, n)
	for s, ok := a.accepting.NextSet(0); ok; s, ok = a.accepting.NextSet(s + 1) {
		queue = append(queue, int(s))
	}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, p := range pred[s] {
			if !leads.Test(uint(p)) {
				leads.Set(uint(p))
				queue = append(queue, p)
			}
		}
	}
	return leads
}

// RemoveStates deletes the given states from the automaton. For every
// transition crossing from a surviving state into a removed state that could
// still reach acceptance, the surviving source is marked accepting with a
// sticky self-loop, so every input the original automaton accepted through the
// removed structure is still accepted. Afterwards removed and unreachable
// states are dropped and the survivors are renumbered densely, carrying the
// label map through the renumbering.
func (a *Automaton) RemoveStates(removed *bitset.BitSet) error {
	if removed.Test(uint(a.initial)) {
		return interfaces.ValidationErrorf("cannot remove the initial state %d", a.initial)
	}
	if removed.Count() == 0 {
		return nil
	}

	leads := a.acceptReachable()

	// Detection degrades to the nearest surviving ancestor: collect every
	// surviving source of a cut edge whose target still led to acceptance.
	demoted := bitset.New(uint(a.StateCount()))
	for u := 0; u < a.StateCount(); u++ {
		if removed.Test(uint(u)) {
			continue
		}
		for _, dests := range a.trans[u] {
			for _, v := range dests {
				if removed.Test(uint(v)) && leads.Test(uint(v)) {
					demoted.Set(uint(u))
				}
			}
		}
	}
	for u, ok := demoted.NextSet(0); ok; u, ok = demoted.NextSet(u + 1) {
		if err := a.MarkAccepting(int(u)); err != nil {
			return err
		}
	}

	// Drop all transitions touching removed states
	for s := 0; s < a.StateCount(); s++ {
		if removed.Test(uint(s)) {
			a.trans[s] = make(map[byte][]int)
			a.accepting.Clear(uint(s))
			continue
		}
		for symbol, dests := range a.trans[s] {
			kept := dests[:0]
			for _, d := range dests {
				if !removed.Test(uint(d)) {
					kept = append(kept, d)
				}
			}
			if len(kept) == 0 {
				delete(a.trans[s], symbol)
			} else {
				a.trans[s][symbol] = kept
			}
		}
	}

	a.compact()
	return nil
}

// compact drops states unreachable from the initial state and renumbers the
// survivors densely in ascending order, preserving the initial state at
// index 0 and re-deriving the label index
func (a *Automaton) compact() {
	n := a.StateCount()
	reached := bitset.New(uint(n))
	reached.Set(uint(a.initial))
	queue := []int{a.initial}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, dests := range a.trans[s] {
			for _, d := range dests {
				if !reached.Test(uint(d)) {
					reached.Set(uint(d))
					queue = append(queue, d)
				}
			}
		}
	}

	renumber := make([]int, n)
	for i := range renumber {
		renumber[i] = -1
	}
	next := 0
	for s := 0; s < n; s++ {
		if reached.Test(uint(s)) {
			renumber[s] = next
			next++
		}
	}

	trans := make([]map[byte][]int, next)
	labels := make([]uint64, next)
	accepting := bitset.New(uint(next))
	for s := 0; s < n; s++ {
		ns := renumber[s]
		if ns == -1 {
			continue
		}
		labels[ns] = a.labels[s]
		if a.accepting.Test(uint(s)) {
			accepting.Set(uint(ns))
		}
		row := make(map[byte][]int, len(a.trans[s]))
		for symbol, dests := range a.trans[s] {
			moved := make([]int, 0, len(dests))
			for _, d := range dests {
				if renumber[d] != -1 {
					moved = append(moved, renumber[d])
				}
			}
			if len(moved) > 0 {
				sort.Ints(moved)
				row[symbol] = moved
			}
		}
		trans[ns] = row
	}

	index := make(map[uint64]int)
	merged := make(map[int][]uint64)
	for label, s := range a.index {
		if renumber[s] != -1 {
			index[label] = renumber[s]
		}
	}
	for s, extra := range a.merged {
		if renumber[s] != -1 {
			merged[renumber[s]] = extra
		}
	}

	a.initial = renumber[a.initial]
	a.trans = trans
	a.labels = labels
	a.accepting = accepting
	a.index = index
	a.merged = merged
	a.clearDerived()
}

// insertSorted inserts v into an ascending unique slice
func insertSorted(list []int, v int) []int {
	i := sort.SearchInts(list, v)
	if i < len(list) && list[i] == v {
		return list
	}
	list = append(list, 0)
	copy(list[i+1:], list[i:])
	list[i] = v
	return list
}
