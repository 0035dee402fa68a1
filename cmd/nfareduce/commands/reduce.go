/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: reduce.go
Description: Reduction command. Loads an automaton and a state-weight file,
applies the selected reduction algorithm under the configured rate and error
budget, reports the achieved compaction and predicted error, and writes the
reduced automaton.
*/

package commands

import (
	"github.com/spf13/cobra"

	"github.com/kleascm/nfareduce/pkg/interfaces"
	"github.com/kleascm/nfareduce/pkg/nfa"
	"github.com/kleascm/nfareduce/pkg/reduce"
)

// Reduction type names accepted by --type
const (
	reductionPrune = "prune"
	reductionMerge = "merge"
)

// RunReduce executes the reduction mode
func RunReduce(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return err
	}
	logger, err := SetupLogging()
	if err != nil {
		return err
	}
	defer logger.Close()

	nfaPath, weightsPath := args[0], args[1]
	output, _ := cmd.Flags().GetString("output")
	reductionType, _ := cmd.Flags().GetString("type")
	rate, _ := cmd.Flags().GetFloat64("rate")
	errorBudget, _ := cmd.Flags().GetFloat64("error-budget")
	scoringName, _ := cmd.Flags().GetString("scoring")

	strategy, ok := reduce.StrategyByName(scoringName)
	if !ok {
		return interfaces.ArgumentErrorf("invalid scoring strategy: %q", scoringName)
	}

	params := reduce.Params{Fraction: rate}
	if errorBudget >= 0 {
		params.ErrorBudget = errorBudget
		params.HasBudget = true
	}

	automaton, err := nfa.LoadFile(nfaPath)
	if err != nil {
		return err
	}
	weights, err := reduce.LoadWeightsFile(weightsPath)
	if err != nil {
		return err
	}

	oldCount := automaton.StateCount()
	var predicted float64
	switch reductionType {
	case reductionPrune:
		predicted, err = reduce.Prune(automaton, weights, params, strategy)
	case reductionMerge:
		predicted, err = reduce.MergeAndPrune(automaton, weights, params, strategy)
	default:
		return interfaces.ArgumentErrorf("invalid reduction type: %q", reductionType)
	}
	if err != nil {
		return err
	}

	newCount := automaton.StateCount()
	logger.WithReduction(reductionType, rate).WithFields(map[string]interface{}{
		"states_before":   oldCount,
		"states_after":    newCount,
		"kept_pct":        100 * newCount / oldCount,
		"predicted_error": predicted,
		"scoring":         strategy.Name(),
	}).Info("Reduction completed")

	return automaton.PrintFile(output)
}
