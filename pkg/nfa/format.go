/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: format.go
Description: Textual FA format for persisted automata. Line one names the
initial state, followed by "source dest symbol" transition lines (symbols in
decimal or 0x hex) and finally one accepting state per line. Printing emits
original state labels so a reduced automaton round-trips against weight files
keyed by the labels of the automaton it was derived from.
*/

package nfa

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/kleascm/nfareduce/pkg/interfaces"
)

// load phases: the initial-state line, the transition block, the accepting
// block. A single-field line inside the transition block switches phases.
const (
	phaseInitial = iota
	phaseTransitions
	phaseAccepting
)

// Load reads an automaton from its persisted textual form and renumbers the
// original state labels into dense ids with the initial state at index 0
func Load(r io.Reader) (*Automaton, error) {
	a := newAutomaton()
	phase := phaseInitial

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)

		switch phase {
		case phaseInitial:
			if len(fields) != 1 {
				return nil, interfaces.FormatErrorf("line %d: expected initial state, got %q", lineno, line)
			}
			label, err := strconv.ParseUint(fields[0], 10, 64)
			if err != nil {
				return nil, interfaces.FormatErrorf("line %d: invalid initial state %q", lineno, fields[0])
			}
			a.initial = a.stateFor(label)
			phase = phaseTransitions

		case phaseTransitions:
			if len(fields) == 1 {
				phase = phaseAccepting
				if err := a.parseAcceptLine(fields[0], lineno); err != nil {
					return nil, err
				}
				continue
			}
			if len(fields) != 3 {
				return nil, interfaces.FormatErrorf("line %d: invalid transition %q", lineno, line)
			}
			p, err := strconv.ParseUint(fields[0], 10, 64)
			if err != nil {
				return nil, interfaces.FormatErrorf("line %d: invalid state %q", lineno, fields[0])
			}
			q, err := strconv.ParseUint(fields[1], 10, 64)
			if err != nil {
				return nil, interfaces.FormatErrorf("line %d: invalid state %q", lineno, fields[1])
			}
			symbol, err := strconv.ParseUint(fields[2], 0, 8)
			if err != nil {
				return nil, interfaces.FormatErrorf("line %d: invalid symbol %q", lineno, fields[2])
			}
			ps := a.stateFor(p)
			qs := a.stateFor(q)
			a.trans[ps][byte(symbol)] = insertSorted(a.trans[ps][byte(symbol)], qs)

		case phaseAccepting:
			if len(fields) != 1 {
				return nil, interfaces.FormatErrorf("line %d: invalid accepting state %q", lineno, line)
			}
			if err := a.parseAcceptLine(fields[0], lineno); err != nil {
				return nil, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, interfaces.IOErrorf(err, "reading automaton description")
	}
	if a.initial < 0 {
		return nil, interfaces.FormatErrorf("automaton description is empty")
	}
	return a, nil
}

func (a *Automaton) parseAcceptLine(field string, lineno int) error {
	label, err := strconv.ParseUint(field, 10, 64)
	if err != nil {
		return interfaces.FormatErrorf("line %d: invalid accepting state %q", lineno, field)
	}
	a.setAccept(a.stateFor(label))
	return nil
}

// LoadFile reads an automaton description from disk
func LoadFile(path string) (*Automaton, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, interfaces.IOErrorf(err, "cannot open automaton file %q", path)
	}
	defer f.Close()
	a, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// Print serializes the automaton in its canonical textual form. Output is
// deterministic: transitions ordered by source, symbol, destination.
func (a *Automaton) Print(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", a.labels[a.initial])

	for s := 0; s < a.StateCount(); s++ {
		symbols := make([]int, 0, len(a.trans[s]))
		for symbol := range a.trans[s] {
			symbols = append(symbols, int(symbol))
		}
		sort.Ints(symbols)
		for _, symbol := range symbols {
			for _, d := range a.trans[s][byte(symbol)] {
				fmt.Fprintf(bw, "%d %d 0x%02x\n", a.labels[s], a.labels[d], symbol)
			}
		}
	}

	for s, ok := a.accepting.NextSet(0); ok; s, ok = a.accepting.NextSet(s + 1) {
		fmt.Fprintf(bw, "%d\n", a.labels[s])
	}

	if err := bw.Flush(); err != nil {
		return interfaces.IOErrorf(err, "writing automaton description")
	}
	return nil
}

// PrintFile writes the automaton description to disk
func (a *Automaton) PrintFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return interfaces.IOErrorf(err, "cannot open output file %q", path)
	}
	if err := a.Print(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return interfaces.IOErrorf(err, "closing output file %q", path)
	}
	return nil
}
