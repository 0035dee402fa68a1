/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: weights.go
Description: State-weight file parsing and emission. The format is line
oriented: "<state_label> <weight>" per line, '#' starts a comment to end of
line, blank lines are ignored, and any trailing fields (such as the depth
column the labeling mode emits) are ignored on read. Weights are keyed by
original state labels and resolved against a concrete automaton before use.
*/

package reduce

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kleascm/nfareduce/pkg/interfaces"
	"github.com/kleascm/nfareduce/pkg/nfa"
)

// ParseWeights reads a state-weight description
func ParseWeights(r io.Reader) (interfaces.LabelWeights, error) {
	weights := make(interfaces.LabelWeights)
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, interfaces.FormatErrorf("line %d: expected \"<state> <weight>\", got %q", lineno, line)
		}
		label, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return nil, interfaces.FormatErrorf("line %d: invalid state %q", lineno, fields[0])
		}
		weight, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return nil, interfaces.FormatErrorf("line %d: invalid weight %q", lineno, fields[1])
		}
		weights[label] = weight
	}
	if err := scanner.Err(); err != nil {
		return nil, interfaces.IOErrorf(err, "reading weight description")
	}
	return weights, nil
}

// LoadWeightsFile reads a state-weight description from disk
func LoadWeightsFile(path string) (interfaces.LabelWeights, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, interfaces.IOErrorf(err, "cannot open weight file %q", path)
	}
	defer f.Close()
	weights, err := ParseWeights(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return weights, nil
}

// ResolveWeights translates label-keyed weights into a dense per-state slice
// aligned with the automaton's current state ids. Every key must reference an
// existing state; violation is a validation error. States absent from the
// weight map get weight zero.
func ResolveWeights(a *nfa.Automaton, weights interfaces.LabelWeights) ([]uint64, error) {
	resolved := make([]uint64, a.StateCount())
	for label, weight := range weights {
		s, ok := a.StateOfLabel(label)
		if !ok {
			return nil, interfaces.ValidationErrorf("weight references unknown automaton state %d", label)
		}
		resolved[s] += weight
	}
	return resolved, nil
}

// WriteWeights emits the frequency-labeling output: the total packet count as
// a comment, then one "label frequency depth" line per state. The output
// parses back through ParseWeights; the depth column is informational.
func WriteWeights(w io.Writer, a *nfa.Automaton, counts []uint64, total uint64) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# Total packets : %d\n", total)
	depths := a.StateDepth()
	for s := 0; s < a.StateCount(); s++ {
		fmt.Fprintf(bw, "%d %d %d\n", a.LabelOf(s), counts[s], depths[s])
	}
	if err := bw.Flush(); err != nil {
		return interfaces.IOErrorf(err, "writing weight description")
	}
	return nil
}
