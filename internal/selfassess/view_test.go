package selfassess

import (
	"strings"
	"testing"
)

func TestViewBundlePerState(t *testing.T) {
	e := newTestEngine()

	t.Run("initial", func(t *testing.T) {
		v := e.ViewBundle(wfInState(StateInitial))
		if v.Rubric != nil || v.Hint != nil || v.Message != "" {
			t.Fatalf("initial state shows sections: %+v", v)
		}
		if v.PreviousAnswer != "" {
			t.Fatalf("previous answer shown before first submit: %q", v.PreviousAnswer)
		}
		if v.Progress != StatusNone {
			t.Fatalf("progress = %s", v.Progress)
		}
	})

	t.Run("assessing", func(t *testing.T) {
		v := e.ViewBundle(wfInState(StateAssessing))
		if v.Rubric == nil || v.Rubric.ReadOnly {
			t.Fatalf("rubric should be editable: %+v", v.Rubric)
		}
		if v.Hint != nil {
			t.Fatal("hint section visible while assessing")
		}
		if v.PreviousAnswer != "an answer" {
			t.Fatalf("previous answer = %q", v.PreviousAnswer)
		}
	})

	t.Run("post_assessment", func(t *testing.T) {
		v := e.ViewBundle(wfInState(StatePostAssessment))
		if v.Rubric == nil || !v.Rubric.ReadOnly {
			t.Fatalf("rubric should be read-only: %+v", v.Rubric)
		}
		if v.Hint == nil || v.Hint.ReadOnly || v.Hint.Hint != "" {
			t.Fatalf("hint should be empty and editable: %+v", v.Hint)
		}
		if v.Message != "" {
			t.Fatal("confirmation message shown before done")
		}
	})

	t.Run("done", func(t *testing.T) {
		v := e.ViewBundle(wfInState(StateDone))
		if v.Rubric == nil || !v.Rubric.ReadOnly {
			t.Fatalf("rubric should be read-only: %+v", v.Rubric)
		}
		if v.Hint == nil || !v.Hint.ReadOnly || v.Hint.Hint != "a hint" {
			t.Fatalf("hint view: %+v", v.Hint)
		}
		if v.Message != testConfig().SubmitMessage {
			t.Fatalf("message = %q", v.Message)
		}
		if !v.AllowReset {
			t.Fatal("allow_reset should be true")
		}
		if v.Progress != StatusDone {
			t.Fatalf("progress = %s", v.Progress)
		}
	})
}

func TestViewBundlePanicsOnIllegalState(t *testing.T) {
	e := newTestEngine()
	wf := wfInState(StateAssessing)
	wf.State = State("bogus")

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("no panic on illegal state")
		}
		if msg, ok := r.(string); !ok || !strings.Contains(msg, "illegal workflow state") {
			t.Fatalf("unexpected panic value: %v", r)
		}
	}()
	e.ViewBundle(wf)
}

type upperRenderer struct{}

func (upperRenderer) Render(rubric string, _ int) string { return strings.ToUpper(rubric) }

func TestRubricRendererCollaborator(t *testing.T) {
	cfg := testConfig()
	e := NewEngine(cfg, upperRenderer{})
	v := e.ViewBundle(wfInState(StateAssessing))
	if v.Rubric.Rubric != strings.ToUpper(cfg.Rubric) {
		t.Fatalf("renderer not applied: %q", v.Rubric.Rubric)
	}
	if v.Rubric.MaxScore != cfg.MaxScore {
		t.Fatalf("max score = %d", v.Rubric.MaxScore)
	}
}
