package selfassess

// State is the phase of one attempt cycle. Exactly one State exists per
// (student, unit) pair; all mutation goes through Workflow.
type State string

const (
	StateInitial        State = "initial"
	StateAssessing      State = "assessing"
	StatePostAssessment State = "post_assessment"
	StateDone           State = "done"
)

func (s State) Valid() bool {
	switch s {
	case StateInitial, StateAssessing, StatePostAssessment, StateDone:
		return true
	}
	return false
}
