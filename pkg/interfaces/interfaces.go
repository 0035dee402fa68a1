/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: interfaces.go
Description: Shared interfaces for the NFA reduction engine. Defines the traffic
corpus abstraction consumed by the frequency labeler and the accuracy validator,
used across all packages to break import cycles and enable proper modular design.
*/

package interfaces

// PacketSource is one element of a traffic corpus: a finite sequence of
// captured frames consumable in order. Implementations are not required to be
// safe for concurrent use; the validator assigns each source to exactly one
// worker.
type PacketSource interface {
	// ID identifies the source in results and logs (typically a file path)
	ID() string

	// Next returns the raw bytes of the next captured frame, truncated to the
	// capture length. Returns io.EOF after the last frame.
	Next() ([]byte, error)

	// Close releases any resources held by the source
	Close() error
}

// SourceOpener creates a PacketSource from a corpus identifier. Lets the
// validator open each source lazily inside the worker goroutine that owns it.
type SourceOpener func(id string) (PacketSource, error)

// LabelWeights maps original automaton state labels to non-negative importance
// values, as parsed from a weight file. Labels are resolved against a concrete
// automaton before any reduction runs.
type LabelWeights map[uint64]uint64
