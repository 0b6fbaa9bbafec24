package engine

import (
	"fmt"

	"github.com/hupe1980/ngtgo/model"
)

// Reshape rewrites every edge list of the graph. Each node keeps its
// outgoing closest edges; in addition each of its first incoming edges
// is mirrored onto the target, so that well connected nodes also gain
// in-degree. Edge lists stay bounded by the configured limit.
func (e *Engine) Reshape(outgoing, incoming int) error {
	if outgoing <= 0 || incoming < 0 {
		return fmt.Errorf("%w: outgoing %d, incoming %d", ErrInvalidConfig, outgoing, incoming)
	}

	nodes := e.graph.Extract()
	next := make(map[model.ObjectID][]model.Edge, len(nodes))
	for _, n := range nodes {
		next[n.ID] = append(next[n.ID], n.Edges[:min(outgoing, len(n.Edges))]...)
	}
	for _, n := range nodes {
		for _, edge := range n.Edges[:min(incoming, len(n.Edges))] {
			next[edge.ID] = append(next[edge.ID], model.Edge{ID: n.ID, Distance: edge.Distance})
		}
	}

	for _, n := range nodes {
		if err := e.graph.Replace(n.ID, next[n.ID]); err != nil {
			return err
		}
	}
	return nil
}
