/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: label.go
Description: Frequency-labeling command. Replays a training corpus through an
automaton and writes, per state, its observed activation count and structural
depth, preceded by the total packet count. The output feeds the reduce
command as a state-weight file.
*/

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kleascm/nfareduce/pkg/capture"
	"github.com/kleascm/nfareduce/pkg/interfaces"
	"github.com/kleascm/nfareduce/pkg/nfa"
	"github.com/kleascm/nfareduce/pkg/reduce"
)

// RunLabel executes the frequency-labeling mode
func RunLabel(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return err
	}
	logger, err := SetupLogging()
	if err != nil {
		return err
	}
	defer logger.Close()

	nfaPath, pcapPath := args[0], args[1]
	output, _ := cmd.Flags().GetString("output")

	automaton, err := nfa.LoadFile(nfaPath)
	if err != nil {
		return err
	}
	automaton.Build()

	src, err := capture.OpenFile(pcapPath)
	if err != nil {
		return err
	}

	result, err := reduce.ComputeFrequencies(automaton, src)
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return interfaces.IOErrorf(err, "cannot open output file %q", output)
	}
	defer f.Close()
	if err := reduce.WriteWeights(f, automaton, result.Counts, result.Total); err != nil {
		return err
	}

	logger.WithSource(pcapPath).WithField("total", result.Total).Info("Frequency labeling completed")
	fmt.Fprintf(os.Stderr, "Labeled %d states over %d packets -> %s\n",
		automaton.StateCount(), result.Total, output)
	return nil
}
