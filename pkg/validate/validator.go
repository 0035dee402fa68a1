/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: validator.go
Description: Parallel accuracy validation for reduced automata. Replays a
traffic corpus through a target/reduced automaton pair with a fixed-size
worker pool: sources are partitioned round-robin, each worker owns its group
exclusively and accumulates local stats, and partial results merge after the
join barrier. Both automata are read-only for the whole run and shared across
workers without locking. A fatal error in any worker aborts the run.
*/

package validate

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kleascm/nfareduce/pkg/capture"
	"github.com/kleascm/nfareduce/pkg/interfaces"
	"github.com/kleascm/nfareduce/pkg/nfa"
)

// RunState tracks the validator lifecycle
type RunState int

const (
	// StateCreated means Start has not been called yet
	StateCreated RunState = iota
	// StateRunning means the replay is in progress
	StateRunning
	// StateCompleted means all workers joined and results are available
	StateCompleted
	// StateFailed means a worker hit a fatal error and the run was aborted
	StateFailed
)

// Validator replays a corpus through a pair of automata and aggregates
// per-source comparison statistics
type Validator struct {
	target  *nfa.Automaton
	reduced *nfa.Automaton
	corpus  []string
	workers int
	open    interfaces.SourceOpener
	logger  *logrus.Logger
	runID   uuid.UUID

	mu      sync.Mutex
	state   RunState
	results map[string]*ErrorStats
}

// New creates a validator over the given corpus source identifiers. Both
// automata must already be built; workerCount must be at least one. A nil
// opener reads sources as pcap files; a nil logger discards output.
func New(target, reduced *nfa.Automaton, corpus []string, workers int, opener interfaces.SourceOpener, logger *logrus.Logger) (*Validator, error) {
	if !target.Built() || !reduced.Built() {
		return nil, interfaces.ValidationErrorf("validation requires built automata")
	}
	if workers < 1 {
		return nil, interfaces.ValidationErrorf("worker count %d must be at least 1", workers)
	}
	if opener == nil {
		opener = func(id string) (interfaces.PacketSource, error) {
			return capture.OpenFile(id)
		}
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)
	}
	return &Validator{
		target:  target,
		reduced: reduced,
		corpus:  corpus,
		workers: workers,
		open:    opener,
		logger:  logger,
		runID:   uuid.New(),
		results: make(map[string]*ErrorStats),
	}, nil
}

// State returns the current lifecycle state
func (v *Validator) State() RunState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Start runs the replay to completion. Sources are split round-robin into one
// group per worker; there is no mid-run communication, only the final join.
// The first worker error aborts the whole validation run.
func (v *Validator) Start() error {
	v.mu.Lock()
	if v.state != StateCreated {
		v.mu.Unlock()
		return interfaces.ValidationErrorf("validation run already started")
	}
	v.state = StateRunning
	v.mu.Unlock()

	start := time.Now()
	v.logger.WithFields(logrus.Fields{
		"run_id":  v.runID,
		"workers": v.workers,
		"sources": len(v.corpus),
	}).Info("Validation run started")

	groups := make([][]string, v.workers)
	for i, id := range v.corpus {
		groups[i%v.workers] = append(groups[i%v.workers], id)
	}

	partials := make([]map[string]*ErrorStats, v.workers)
	errs := make([]error, v.workers)

	var wg sync.WaitGroup
	for w := 0; w < v.workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			partials[w], errs[w] = v.runWorker(w, groups[w])
		}(w)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			v.mu.Lock()
			v.state = StateFailed
			v.mu.Unlock()
			v.logger.WithFields(logrus.Fields{"run_id": v.runID}).Errorf("Validation run aborted: %v", err)
			return err
		}
	}

	v.mu.Lock()
	for _, partial := range partials {
		for id, stats := range partial {
			if existing, ok := v.results[id]; ok {
				existing.Aggregate(stats)
			} else {
				v.results[id] = stats
			}
		}
	}
	v.state = StateCompleted
	v.mu.Unlock()

	v.logger.WithFields(logrus.Fields{
		"run_id":   v.runID,
		"duration": time.Since(start),
	}).Info("Validation run completed")
	return nil
}

// runWorker consumes one group of sources with worker-local statistics
func (v *Validator) runWorker(id int, group []string) (map[string]*ErrorStats, error) {
	partial := make(map[string]*ErrorStats, len(group))
	for _, sourceID := range group {
		src, err := v.open(sourceID)
		if err != nil {
			return nil, err
		}
		stats := &ErrorStats{}
		err = capture.ForEachPayload(src, func(payload []byte) error {
			stats.Record(v.target.Accepts(payload), v.reduced.Accepts(payload))
			return nil
		})
		if err != nil {
			return nil, err
		}
		if existing, ok := partial[sourceID]; ok {
			existing.Aggregate(stats)
		} else {
			partial[sourceID] = stats
		}
		v.logger.WithFields(logrus.Fields{
			"run_id": v.runID,
			"worker": id,
			"source": sourceID,
			"total":  stats.Total,
		}).Debug("Source replayed")
	}
	return partial, nil
}

// Results returns the per-source statistics; only valid after a completed run
func (v *Validator) Results() (map[string]*ErrorStats, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != StateCompleted {
		return nil, interfaces.ValidationErrorf("validation run has not completed")
	}
	return v.results, nil
}

// RunID returns the unique identifier of this validation run
func (v *Validator) RunID() uuid.UUID {
	return v.runID
}
