package workflow

// validationRouter is the conditional edge out of the quality gate.
// It returns one of three routes:
//
//	RouteRetry  — regenerate: loop back to the synthesizer node.
//	RouteDone   — validation passed; the run status is completed.
//	RouteGiveUp — retry budget exhausted; the run status is failed.
//
// Done and GiveUp both terminate traversal at the sink, but they stay
// distinct routes so the outcome is never inferred from a shared label.
func (o *Orchestrator) validationRouter(state *WorkflowState) Route {
	gate := state.Stages[o.gateID]
	gateDesc := o.byID[o.gateID]

	// The gate errored (as opposed to completing with passed=false).
	if gate == nil || gate.Status == StatusFailed {
		if gate != nil && gate.RetryCount < gateDesc.MaxRetries {
			return RouteRetry
		}
		state.Status = StatusFailed
		return RouteGiveUp
	}

	res, ok := gate.Result.(*ValidationResult)
	if !ok {
		state.Status = StatusFailed
		return RouteGiveUp
	}

	if res.Passed {
		state.Status = StatusCompleted
		return RouteDone
	}

	// Rejected output: regenerate while the synthesizer has budget left.
	if synth := state.Stages[o.synthID]; synth != nil {
		if synthDesc := o.byID[o.synthID]; synthDesc != nil && synth.RetryCount < synthDesc.MaxRetries {
			return RouteRetry
		}
	}
	state.Status = StatusFailed
	return RouteGiveUp
}
