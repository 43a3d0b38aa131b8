package core

// WorkflowExecution identifies one run of a workflow.
type WorkflowExecution struct {
	// WorkflowID is the user provided id of the workflow.
	WorkflowID string `json:"workflow_id,omitempty"`

	// RunID is assigned by the orchestrator when the execution is started.
	RunID string `json:"run_id,omitempty"`
}

func NewWorkflowExecution(workflowID, runID string) WorkflowExecution {
	return WorkflowExecution{
		WorkflowID: workflowID,
		RunID:      runID,
	}
}

func (we WorkflowExecution) String() string {
	return we.WorkflowID + "/" + we.RunID
}

// WorkflowType is a registered workflow type.
type WorkflowType struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}

// ActivityType is a registered activity type.
type ActivityType struct {
	Name    string `json:"name,omitempty"`
	Version string `json:"version,omitempty"`
}
