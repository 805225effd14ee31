package selfassess

import "fmt"

// RubricRenderer turns raw rubric text into its display form. Rendering
// is an external collaborator; the engine never interpolates templates
// itself.
type RubricRenderer interface {
	Render(rubric string, maxScore int) string
}

// PlainRenderer passes rubric text through unchanged.
type PlainRenderer struct{}

func (PlainRenderer) Render(rubric string, _ int) string { return rubric }

// RubricView directs how the rubric section is shown: once an answer is
// in, the rubric is editable while assessing and read-only afterwards.
type RubricView struct {
	Rubric   string `json:"rubric"`
	MaxScore int    `json:"max_score"`
	ReadOnly bool   `json:"read_only"`
}

// HintView directs the hint section: editable while a hint is being
// collected, read-only (showing the recorded hint) once done.
type HintView struct {
	HintPrompt string `json:"hint_prompt"`
	Hint       string `json:"hint"`
	ReadOnly   bool   `json:"read_only"`
}

// ViewBundle is the full directive set for rendering a unit for one
// student. Sections absent for the current state are nil/empty.
type ViewBundle struct {
	Prompt         string      `json:"prompt"`
	PreviousAnswer string      `json:"previous_answer"`
	State          State       `json:"state"`
	AllowReset     bool        `json:"allow_reset"`
	Rubric         *RubricView `json:"rubric_view,omitempty"`
	Hint           *HintView   `json:"hint_view,omitempty"`
	Message        string      `json:"message,omitempty"`
	Progress       Status      `json:"progress_status"`
}

// illegalState signals corrupted persisted state. This is a programming
// defect channel, deliberately separate from the recoverable Outcome
// path: it must never be swallowed into a user-facing error.
func illegalState(s State) {
	panic(fmt.Sprintf("selfassess: illegal workflow state %q", s))
}

// rubricView returns nil before any answer exists.
func (e *Engine) rubricView(wf *Workflow) *RubricView {
	if wf.State == StateInitial {
		return nil
	}
	v := &RubricView{
		Rubric:   e.renderer.Render(e.cfg.Rubric, e.cfg.MaxScore),
		MaxScore: e.cfg.MaxScore,
	}
	switch wf.State {
	case StateAssessing:
		v.ReadOnly = false
	case StatePostAssessment, StateDone:
		v.ReadOnly = true
	default:
		illegalState(wf.State)
	}
	return v
}

// hintView returns nil until the assessment step asks for a hint.
func (e *Engine) hintView(wf *Workflow) *HintView {
	if wf.State == StateInitial || wf.State == StateAssessing {
		return nil
	}
	v := &HintView{HintPrompt: e.cfg.HintPrompt}
	switch wf.State {
	case StatePostAssessment:
		v.ReadOnly = false
	case StateDone:
		v.ReadOnly = true
		if hint, ok := wf.History.LatestHint(); ok {
			v.Hint = hint
		}
	default:
		illegalState(wf.State)
	}
	return v
}

// messageView returns the submit confirmation, shown only once done.
func (e *Engine) messageView(wf *Workflow) string {
	if wf.State != StateDone {
		return ""
	}
	return e.cfg.SubmitMessage
}

// ViewBundle assembles every directive for the workflow's current state.
func (e *Engine) ViewBundle(wf *Workflow) ViewBundle {
	prev := ""
	if wf.State != StateInitial {
		prev = wf.History.LatestAnswer()
	}
	return ViewBundle{
		Prompt:         e.cfg.Prompt,
		PreviousAnswer: prev,
		State:          wf.State,
		AllowReset:     e.AllowReset(wf),
		Rubric:         e.rubricView(wf),
		Hint:           e.hintView(wf),
		Message:        e.messageView(wf),
		Progress:       StatusOf(wf),
	}
}
