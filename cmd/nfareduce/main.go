/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Main command-line interface for the NFA reduction engine. Wires
the labeling, reduction, and validation subcommands with configuration
management and structured logging for controlling automaton compaction runs.
*/

package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kleascm/nfareduce/cmd/nfareduce/commands"
	"github.com/kleascm/nfareduce/pkg/interfaces"
)

var (
	// Configuration
	configFile string
	logLevel   string
	logFormat  string
	logDir     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "nfareduce",
		Short: "nfareduce - NFA compaction for deep-packet-inspection engines",
		Long: `nfareduce compacts nondeterministic finite automata compiled from network
intrusion-detection signatures into smaller automata suitable for
resource-constrained deep-packet-inspection engines, and validates the
detection-accuracy loss of the reduction against captured traffic.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return interfaces.ArgumentErrorf("a subcommand is required")
		},
	}

	// Persistent flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Log output directory (empty: stderr only)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("log_dir", rootCmd.PersistentFlags().Lookup("log-dir"))

	labelCmd := &cobra.Command{
		Use:   "label NFA PCAP",
		Short: "Compute per-state packet frequencies over a training corpus",
		Args:  cobra.ExactArgs(2),
		RunE:  commands.RunLabel,
	}
	labelCmd.Flags().StringP("output", "o", "state-weights.txt", "Output weight file")

	reduceCmd := &cobra.Command{
		Use:   "reduce NFA WEIGHTS",
		Short: "Reduce an automaton guided by state weights",
		Args:  cobra.ExactArgs(2),
		RunE:  commands.RunReduce,
	}
	reduceCmd.Flags().StringP("output", "o", "reduced-nfa.fa", "Output automaton file")
	reduceCmd.Flags().StringP("type", "t", "prune", "Reduction type (prune, merge)")
	reduceCmd.Flags().Float64P("rate", "p", 0, "Reduction rate in [0,1]")
	reduceCmd.Flags().Float64P("error-budget", "e", -1, "Predicted-error budget in [0,1] (negative: unlimited)")
	reduceCmd.Flags().String("scoring", "frontier-weight", "Predicted-error scoring strategy")

	validateCmd := &cobra.Command{
		Use:   "validate TARGET REDUCED PCAP...",
		Short: "Replay a corpus through both automata and compare decisions",
		Args:  cobra.MinimumNArgs(3),
		RunE:  commands.RunValidate,
	}
	validateCmd.Flags().Int("workers", runtime.NumCPU(), "Number of parallel replay workers")
	validateCmd.Flags().String("metrics-dir", "", "Write a JSON report under this directory")

	rootCmd.AddCommand(labelCmd, reduceCmd, validateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[1;31mERROR\033[0m %v\n", err)
		os.Exit(1)
	}
}
