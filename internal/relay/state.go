package relay

import "relaybot/internal/domain"

// workflowAction is the pending admin action an operator selected from
// the menu.
type workflowAction int

const (
	workflowAddOperator workflowAction = iota
	workflowRemoveOperator
)

// workflow is a per-operator interactive flow awaiting one follow-up
// identifier message. Mutually exclusive with a reply binding for the
// same operator: entering a workflow clears the binding and vice versa.
type workflow struct {
	action workflowAction
}

// binding returns who the operator is currently replying to.
func (e *Engine) binding(op domain.UserID) (domain.UserID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	target, ok := e.bindings[op]
	return target, ok
}

// setBinding points the operator's next text at target and clears any
// pending workflow.
func (e *Engine) setBinding(op, target domain.UserID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.workflows, op)
	e.bindings[op] = target
}

func (e *Engine) clearBinding(op domain.UserID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.bindings[op]
	delete(e.bindings, op)
	return ok
}

func (e *Engine) pendingWorkflow(op domain.UserID) (workflow, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	wf, ok := e.workflows[op]
	return wf, ok
}

// setWorkflow enters a flow for the operator and clears any stale
// reply binding so the two relations never merge.
func (e *Engine) setWorkflow(op domain.UserID, wf workflow) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.bindings, op)
	e.workflows[op] = wf
}

func (e *Engine) clearWorkflow(op domain.UserID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.workflows[op]
	delete(e.workflows, op)
	return ok
}
