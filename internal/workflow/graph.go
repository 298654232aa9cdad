package workflow

import (
	"context"
	"fmt"
)

// endNode is the sink every path terminates at.
const endNode StageID = "end"

// Route is a conditional edge outcome. Done and GiveUp both lead to the
// sink; they are distinct so that "validation passed" and "retry budget
// exhausted" are never conflated at the routing layer.
type Route string

const (
	RouteDone   Route = "done"
	RouteGiveUp Route = "give_up"
	RouteRetry  Route = "retry"
)

// nodeFunc executes one stage against the shared run state.
type nodeFunc func(ctx context.Context, state *WorkflowState) error

// routerFunc inspects the run state after a node with a conditional
// edge and picks the next route.
type routerFunc func(state *WorkflowState) Route

// conditionalEdge is the single feedback loop in the graph: evaluated
// after its owning node runs (or fails), routing either to the sink or
// back to the retry target.
type conditionalEdge struct {
	router      routerFunc
	retryTarget StageID
}

// stageGraph is a directed graph of stage nodes with straight-line
// edges in configuration order plus at most one conditional edge.
type stageGraph struct {
	entry       StageID
	order       []StageID
	edges       map[StageID]StageID
	handlers    map[StageID]nodeFunc
	conditional map[StageID]conditionalEdge
	// retryable reports whether a node may be re-entered in place after
	// a handler failure; the decision itself lives with the handler's
	// descriptor, this callback just exposes it to the traversal loop.
	retryable func(state *WorkflowState, id StageID) bool
}

func newStageGraph(order []StageID) *stageGraph {
	g := &stageGraph{
		order:       order,
		edges:       make(map[StageID]StageID),
		handlers:    make(map[StageID]nodeFunc),
		conditional: make(map[StageID]conditionalEdge),
	}
	if len(order) > 0 {
		g.entry = order[0]
	}
	for i := 0; i < len(order)-1; i++ {
		g.edges[order[i]] = order[i+1]
	}
	if len(order) > 0 {
		g.edges[order[len(order)-1]] = endNode
	}
	return g
}

// run traverses the graph from the entry point, threading the same
// state through every handler. A handler failure on a node with a
// conditional edge is absorbed and routed; on a plain node it re-enters
// the node while the stage's retry budget allows, then aborts the
// traversal.
func (g *stageGraph) run(ctx context.Context, state *WorkflowState) error {
	cur := g.entry
	for cur != endNode {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("workflow canceled before stage %s: %w", cur, err)
		}

		handler, ok := g.handlers[cur]
		if !ok {
			return fmt.Errorf("no handler registered for stage %s", cur)
		}

		err := handler(ctx, state)

		if edge, ok := g.conditional[cur]; ok {
			// The conditional edge catches failures on its owning node;
			// the router decides what happens next either way.
			switch edge.router(state) {
			case RouteRetry:
				cur = edge.retryTarget
			default:
				cur = endNode
			}
			continue
		}

		if err != nil {
			if g.retryable != nil && g.retryable(state, cur) {
				continue // re-enter the same node
			}
			return err
		}

		cur = g.edges[cur]
	}
	return nil
}
