package store

import (
	"context"
	"fmt"

	"github.com/chatnav/chatnav/internal/nav"
)

// TransitionRecorder observes FSM state changes and maintains the
// undirected transition graph in a State.
type TransitionRecorder struct {
	state State
}

// NewTransitionRecorder creates a recorder over one conversation state.
func NewTransitionRecorder(state State) *TransitionRecorder {
	return &TransitionRecorder{state: state}
}

// Record notes a transition from one state tag to another: the target
// joins the node set, and when both tags exist and differ an
// undirected edge is added. Self-loops are ignored.
func (r *TransitionRecorder) Record(ctx context.Context, from, to string) error {
	if to == "" {
		return nil
	}
	graph, err := r.state.Diagram(ctx)
	if err != nil {
		return fmt.Errorf("load transition graph: %w", err)
	}
	if graph == nil {
		graph = nav.NewGraph()
	}
	graph.AddNode(to)
	if from != "" && from != to {
		graph.AddNode(from)
		graph.Link(from, to)
	}
	if err := r.state.Capture(ctx, graph); err != nil {
		return fmt.Errorf("store transition graph: %w", err)
	}
	return nil
}
