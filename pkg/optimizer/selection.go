package optimizer

import (
	"sort"

	"github.com/raykavin/stratevo/pkg/strategy"
)

// CandidateSorter sorts evaluated candidates by an objective, best first
type CandidateSorter struct {
	Candidates []EvaluatedCandidate
	Objective  MetricName
}

// Len returns the number of candidates
func (s CandidateSorter) Len() int {
	return len(s.Candidates)
}

// Swap swaps two candidates
func (s CandidateSorter) Swap(i, j int) {
	s.Candidates[i], s.Candidates[j] = s.Candidates[j], s.Candidates[i]
}

// Less compares two candidates based on the objective
func (s CandidateSorter) Less(i, j int) bool {
	return s.Objective.Score(s.Candidates[i].Metrics) > s.Objective.Score(s.Candidates[j].Metrics)
}

// Rank returns a copy of evaluated ordered by objective, best first.
// Ties keep their population order.
func Rank(evaluated []EvaluatedCandidate, objective MetricName) []EvaluatedCandidate {
	ranked := make([]EvaluatedCandidate, len(evaluated))
	copy(ranked, evaluated)
	sort.Stable(CandidateSorter{Candidates: ranked, Objective: objective})
	return ranked
}

// Select returns the configurations of the top half of evaluated, rounded down
func Select(evaluated []EvaluatedCandidate, objective MetricName) []strategy.Config {
	ranked := Rank(evaluated, objective)
	survivors := make([]strategy.Config, len(ranked)/2)
	for i := range survivors {
		survivors[i] = ranked[i].Config
	}
	return survivors
}
