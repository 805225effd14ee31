package selfassess

import (
	"log"
	"strconv"
)

// Config is the immutable per-unit configuration, loaded once from the
// unit definition and referenced (never copied per call) by the engine.
type Config struct {
	Prompt        string `json:"prompt"`
	Rubric        string `json:"rubric"`
	HintPrompt    string `json:"hintprompt"`
	SubmitMessage string `json:"submitmessage"`
	MaxAttempts   int    `json:"max_attempts"`
	MaxScore      int    `json:"max_score"`
}

// Workflow is the mutable per-(student, unit) record: current state,
// attempt counter and the append-only history. It is owned exclusively
// by one student-unit pair; the platform serializes requests per
// workflow, so no internal locking is needed here.
type Workflow struct {
	ID       string  `json:"id"`
	UnitID   string  `json:"unit_id"`
	UserID   string  `json:"user_id"`
	State    State   `json:"state"`
	Attempts int     `json:"attempts"`
	History  History `json:"history"`
}

// Engine validates transitions and applies their side effects to a
// Workflow. All operations are synchronous, in-memory and terminal:
// they succeed, fail validation, or are rejected as out-of-sync.
type Engine struct {
	cfg      Config
	renderer RubricRenderer
}

func NewEngine(cfg Config, r RubricRenderer) *Engine {
	if r == nil {
		r = PlainRenderer{}
	}
	return &Engine{cfg: cfg, renderer: r}
}

func (e *Engine) Config() Config { return e.cfg }

// Outcome is the result of a single operation, before the dispatcher
// stamps progress onto it. Recoverable failures are values here; the
// only panic in this package is the illegal-state invariant in view
// assembly.
type Outcome struct {
	Success    bool
	Error      string
	Rubric     *RubricView
	Hint       *HintView
	Message    string
	AllowReset *bool
}

const errOutOfSync = "The problem state got out-of-sync. Please try reloading the page."

// outOfSync rejects an action whose required prior state does not match
// the actual one. The caller's payload is logged for diagnostics; the
// student sees a fixed message and nothing mutates.
func (e *Engine) outOfSync(wf *Workflow, action Action, payload Payload) Outcome {
	log.Printf("selfassess: state out of sync: workflow=%s state=%s action=%s payload=%v",
		wf.ID, wf.State, action, payload)
	return Outcome{Error: errOutOfSync}
}

// SubmitAnswer appends a new history record and moves to assessing.
// The attempt guard is deliberately strict-greater-than: a student may
// still submit when attempts == MaxAttempts. In normal use students
// never hit the rejection; the reset control disappears first.
func (e *Engine) SubmitAnswer(wf *Workflow, answer string) Outcome {
	if wf.Attempts > e.cfg.MaxAttempts {
		return Outcome{Error: "Too many attempts."}
	}
	if wf.State != StateInitial {
		return e.outOfSync(wf, ActionSaveAnswer, Payload{"student_answer": answer})
	}
	if answer == "" {
		return Outcome{Error: "student_answer required"}
	}

	wf.History.Append(answer)
	wf.State = StateAssessing

	return Outcome{Success: true, Rubric: e.rubricView(wf)}
}

// SubmitAssessment records the self-assessed score. A score equal to
// MaxScore completes the cycle; anything else asks for a hint first.
func (e *Engine) SubmitAssessment(wf *Workflow, raw string) Outcome {
	if wf.State != StateAssessing {
		return e.outOfSync(wf, ActionSaveAssessment, Payload{"assessment": raw})
	}

	score, err := strconv.Atoi(raw)
	if err != nil {
		return Outcome{Error: "Non-integer score value"}
	}

	wf.History.SetLatestScore(score)

	out := Outcome{Success: true}
	if score == e.cfg.MaxScore {
		wf.State = StateDone
		out.Message = e.messageView(wf)
		allow := e.AllowReset(wf)
		out.AllowReset = &allow
	} else {
		wf.State = StatePostAssessment
		out.Hint = e.hintView(wf)
	}
	return out
}

// SubmitHint stores the student's hint for future students and completes
// the cycle. Hints are only collected after a non-max self-score, so a
// workflow may hold fewer hints than answers.
func (e *Engine) SubmitHint(wf *Workflow, hint string) Outcome {
	if wf.State != StatePostAssessment {
		return e.outOfSync(wf, ActionSaveHint, Payload{"hint": hint})
	}

	wf.History.SetLatestHint(hint)
	wf.State = StateDone

	allow := e.AllowReset(wf)
	return Outcome{Success: true, Message: e.messageView(wf), AllowReset: &allow}
}

// AllowReset reports whether the view layer should offer a retry
// control. Note the strict less-than here against the greater-than
// guard in SubmitAnswer.
func (e *Engine) AllowReset(wf *Workflow) bool {
	return wf.State == StateDone && wf.Attempts < e.cfg.MaxAttempts
}

// Reset starts a new attempt cycle: back to initial, attempts
// incremented, history preserved. Subsequent submissions append new
// records rather than overwriting.
func (e *Engine) Reset(wf *Workflow) Outcome {
	if !e.AllowReset(wf) {
		return Outcome{Error: "Reset not allowed."}
	}
	wf.State = StateInitial
	wf.Attempts++
	return Outcome{Success: true}
}
