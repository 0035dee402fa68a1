/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: validate.go
Description: Accuracy-validation command. Replays one or more capture files
through a target/reduced automaton pair with a bounded worker pool, then
reports per-source and aggregate error statistics with the derived accuracy
metrics, optionally persisting a JSON report.
*/

package commands

import (
	"github.com/spf13/cobra"

	"github.com/kleascm/nfareduce/pkg/nfa"
	"github.com/kleascm/nfareduce/pkg/utils"
	"github.com/kleascm/nfareduce/pkg/validate"
)

// validationReport is the JSON shape written under --metrics-dir
type validationReport struct {
	RunID               string                          `json:"run_id"`
	Workers             int                             `json:"workers"`
	Sources             map[string]*validate.ErrorStats `json:"sources"`
	Aggregate           *validate.ErrorStats            `json:"aggregate"`
	WrongAcceptances    int64                           `json:"wrong_acceptances"`
	FalseExtraAccepts   float64                         `json:"false_extra_accept_rate"`
	ClassificationError float64                         `json:"classification_error_rate"`
	Accuracy            float64                         `json:"classification_accuracy"`
}

// RunValidate executes the accuracy-validation mode
func RunValidate(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return err
	}
	logger, err := SetupLogging()
	if err != nil {
		return err
	}
	defer logger.Close()

	targetPath, reducedPath, corpus := args[0], args[1], args[2:]
	workers, _ := cmd.Flags().GetInt("workers")
	metricsDir, _ := cmd.Flags().GetString("metrics-dir")

	target, err := nfa.LoadFile(targetPath)
	if err != nil {
		return err
	}
	reduced, err := nfa.LoadFile(reducedPath)
	if err != nil {
		return err
	}
	target.Build()
	reduced.Build()

	validator, err := validate.New(target, reduced, corpus, workers, nil, logger.Logrus())
	if err != nil {
		return err
	}
	if err := validator.Start(); err != nil {
		return err
	}
	results, err := validator.Results()
	if err != nil {
		return err
	}

	aggregate := &validate.ErrorStats{}
	for id, stats := range results {
		aggregate.Aggregate(stats)
		logger.WithSource(id).WithFields(map[string]interface{}{
			"total":            stats.Total,
			"accepted_target":  stats.AcceptedTarget,
			"accepted_reduced": stats.AcceptedReduced,
		}).Info("Source compared")
	}

	logger.Logrus().WithFields(map[string]interface{}{
		"total":                     aggregate.Total,
		"wrong_acceptances":         aggregate.WrongAcceptances(),
		"false_extra_accept_rate":   aggregate.FalseExtraAcceptRate(),
		"classification_error_rate": aggregate.ClassificationErrorRate(),
		"classification_accuracy":   aggregate.ClassificationAccuracy(),
	}).Info("Validation summary")

	if metricsDir != "" {
		report := &validationReport{
			RunID:               validator.RunID().String(),
			Workers:             workers,
			Sources:             results,
			Aggregate:           aggregate,
			WrongAcceptances:    aggregate.WrongAcceptances(),
			FalseExtraAccepts:   aggregate.FalseExtraAcceptRate(),
			ClassificationError: aggregate.ClassificationErrorRate(),
			Accuracy:            aggregate.ClassificationAccuracy(),
		}
		path, err := utils.WriteMetricsResult(metricsDir, "validate", report)
		if err != nil {
			return err
		}
		logger.Logrus().WithField("report", path).Info("Validation report written")
	}

	return nil
}
