/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: labeling.go
Description: Frequency labeling over a training corpus. Replays captured
payloads through the target automaton and counts, per state, the number of
packets during which the state was ever active. The counts feed the weight
files that guide reduction.
*/

package reduce

import (
	"github.com/kleascm/nfareduce/pkg/capture"
	"github.com/kleascm/nfareduce/pkg/interfaces"
	"github.com/kleascm/nfareduce/pkg/nfa"
)

// FrequencyResult holds per-state activation counts over a training corpus.
// Counts are aligned with the automaton's dense state ids; the initial state
// counts every packet.
type FrequencyResult struct {
	Total  uint64
	Counts []uint64
}

// ComputeFrequencies replays one traffic source through the automaton and
// accumulates per-state packet activation counts. Frames without a payload do
// not count. The automaton is built on entry if needed.
func ComputeFrequencies(a *nfa.Automaton, src interfaces.PacketSource) (*FrequencyResult, error) {
	a.Build()
	res := &FrequencyResult{Counts: make([]uint64, a.StateCount())}
	err := capture.ForEachPayload(src, func(payload []byte) error {
		res.Total++
		visited := a.LabelActivity(payload)
		for s, ok := visited.NextSet(0); ok; s, ok = visited.NextSet(s + 1) {
			res.Counts[s]++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
