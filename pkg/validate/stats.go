/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: stats.go
Description: Per-packet outcome counters for accuracy validation. ErrorStats
aggregates how a target and a reduced automaton classified the same traffic;
partial results merge by field-wise addition so any partitioning of a corpus
combines to the same totals. Derived rates are computed, never stored.
*/

package validate

// ErrorStats aggregates per-packet comparison outcomes between the target and
// the reduced automaton
type ErrorStats struct {
	Total               uint64 `json:"total"`
	AcceptedTarget      uint64 `json:"accepted_target"`
	AcceptedReduced     uint64 `json:"accepted_reduced"`
	CorrectlyClassified uint64 `json:"correctly_classified"`
	WronglyClassified   uint64 `json:"wrongly_classified"`
}

// Record counts one packet given both accept decisions
func (s *ErrorStats) Record(target, reduced bool) {
	s.Total++
	if target {
		s.AcceptedTarget++
	}
	if reduced {
		s.AcceptedReduced++
	}
	if target == reduced {
		s.CorrectlyClassified++
	} else {
		s.WronglyClassified++
	}
}

// Aggregate merges another partial result into this one. Field-wise addition:
// associative and commutative, so merge order never matters.
func (s *ErrorStats) Aggregate(other *ErrorStats) {
	s.Total += other.Total
	s.AcceptedTarget += other.AcceptedTarget
	s.AcceptedReduced += other.AcceptedReduced
	s.CorrectlyClassified += other.CorrectlyClassified
	s.WronglyClassified += other.WronglyClassified
}

// WrongAcceptances returns how many packets the reduced automaton accepted
// beyond the target; non-negative whenever the superset invariant holds
func (s *ErrorStats) WrongAcceptances() int64 {
	return int64(s.AcceptedReduced) - int64(s.AcceptedTarget)
}

// FalseExtraAcceptRate returns wrong acceptances over total packets
func (s *ErrorStats) FalseExtraAcceptRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.WrongAcceptances()) / float64(s.Total)
}

// ClassificationErrorRate returns disagreeing packets over total packets
func (s *ErrorStats) ClassificationErrorRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.WronglyClassified) / float64(s.Total)
}

// ClassificationAccuracy returns the agreeing fraction of classified packets
func (s *ErrorStats) ClassificationAccuracy() float64 {
	classified := s.CorrectlyClassified + s.WronglyClassified
	if classified == 0 {
		return 0
	}
	return float64(s.CorrectlyClassified) / float64(classified)
}
