package searcher

import (
	"sync"
)

// Searcher is a reusable execution context for a graph traversal.
//
// Searcher is NOT thread-safe. It is owned by a single goroutine for the
// duration of one search.
type Searcher struct {
	// Visited tracks visited nodes during graph traversal.
	Visited *VisitedSet

	// Frontier is a min-heap of nodes waiting to be expanded.
	Frontier *PriorityQueue

	// Results is a max-heap holding the best nodes accepted so far.
	Results *PriorityQueue

	// Scratch is a reusable buffer for draining Results.
	Scratch []PriorityQueueItem
}

var searcherPool = sync.Pool{
	New: func() any {
		return NewSearcher(1024)
	},
}

// NewSearcher creates a new searcher sized for visitedCap nodes.
func NewSearcher(visitedCap int) *Searcher {
	return &Searcher{
		Visited:  NewVisitedSet(visitedCap),
		Frontier: NewPriorityQueue(false),
		Results:  NewPriorityQueue(true),
		Scratch:  make([]PriorityQueueItem, 0, 64),
	}
}

// Get returns a reset Searcher from the pool.
func Get() *Searcher {
	s := searcherPool.Get().(*Searcher)
	s.Reset()
	return s
}

// Put returns a Searcher to the pool.
func Put(s *Searcher) {
	if s == nil {
		return
	}
	searcherPool.Put(s)
}

// Reset clears the searcher state for reuse.
func (s *Searcher) Reset() {
	s.Visited.Reset()
	s.Frontier.Reset()
	s.Results.Reset()
	s.Scratch = s.Scratch[:0]
}
