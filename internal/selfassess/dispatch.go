package selfassess

// Action identifies a dispatchable operation. The set is closed: the
// dispatcher resolves actions through an exhaustive switch, never a
// dynamic method table.
type Action string

const (
	ActionSaveAnswer     Action = "save_answer"
	ActionSaveAssessment Action = "save_assessment"
	ActionSaveHint       Action = "save_post_assessment"
)

// Payload carries the request's string fields: student_answer,
// assessment, or hint depending on the action.
type Payload map[string]string

// Envelope is the uniform dispatch result. Error is set only when
// Success is false; the view fields only on the action that produces
// them.
type Envelope struct {
	Success         bool        `json:"success"`
	State           State       `json:"state"`
	ProgressChanged bool        `json:"progress_changed"`
	ProgressStatus  Status      `json:"progress_status"`
	Rubric          *RubricView `json:"rubric_view,omitempty"`
	Hint            *HintView   `json:"hint_view,omitempty"`
	Message         string      `json:"message,omitempty"`
	AllowReset      *bool       `json:"allow_reset,omitempty"`
	Error           string      `json:"error,omitempty"`
}

// Dispatch routes an action to its operation and wraps the outcome,
// recomputing progress around the call. Unknown actions are rejected
// without touching the workflow.
func (e *Engine) Dispatch(wf *Workflow, action Action, payload Payload) Envelope {
	before := StatusOf(wf)

	var out Outcome
	switch action {
	case ActionSaveAnswer:
		out = e.SubmitAnswer(wf, payload["student_answer"])
	case ActionSaveAssessment:
		out = e.SubmitAssessment(wf, payload["assessment"])
	case ActionSaveHint:
		out = e.SubmitHint(wf, payload["hint"])
	default:
		return Envelope{
			State:          wf.State,
			ProgressStatus: before,
			Error:          "unknown action",
		}
	}

	after := StatusOf(wf)
	return Envelope{
		Success:         out.Success,
		State:           wf.State,
		ProgressChanged: after != before,
		ProgressStatus:  after,
		Rubric:          out.Rubric,
		Hint:            out.Hint,
		Message:         out.Message,
		AllowReset:      out.AllowReset,
		Error:           out.Error,
	}
}
