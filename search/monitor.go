package search

import (
	"github.com/poiesic/corpora/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
// Every Start is paired with exactly one Finish; Finish receives nil when the
// search fails after validation.
type SearchMonitor interface {
	Start(query Query)
	AfterCandidateRetrieval(records []*core.ChunkRecord)
	AfterScoring(candidates []Candidate)
	Finish(results []core.RetrievedContext)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ Query)                                {}
func (n *noopMonitor) AfterCandidateRetrieval(_ []*core.ChunkRecord) {}
func (n *noopMonitor) AfterScoring(_ []Candidate)                   {}
func (n *noopMonitor) Finish(_ []core.RetrievedContext)             {}
