package selfassess

// Status is the coarse UI-facing completion indicator. The three strings
// below are the full closed set consumed by the frontend.
type Status string

const (
	StatusNone       Status = "none"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// StatusOf derives progress from current state and history. A workflow
// back in the initial state after a reset still counts as in_progress:
// its history is non-empty.
func StatusOf(wf *Workflow) Status {
	switch {
	case wf.State == StateDone:
		return StatusDone
	case wf.State == StateInitial && len(wf.History) == 0:
		return StatusNone
	default:
		return StatusInProgress
	}
}
