package selfassess_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/coursekit/coursekit/internal/db"
	"github.com/coursekit/coursekit/internal/selfassess"
)

func openTestStore(t *testing.T) *selfassess.SQLStore {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "coursekit_test.db")
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })
	return selfassess.NewSQLStore(dbh, "sqlite")
}

func seedUnit(t *testing.T, s *selfassess.SQLStore, id string) selfassess.Unit {
	t.Helper()
	u := selfassess.Unit{
		ID:    id,
		Title: "Photosynthesis self-check",
		Config: selfassess.Config{
			Prompt:        "Explain photosynthesis.",
			Rubric:        "3: complete",
			HintPrompt:    "What hint would you give?",
			SubmitMessage: "Saved.",
			MaxAttempts:   2,
			MaxScore:      3,
		},
	}
	if err := s.PutUnit(context.Background(), u); err != nil {
		t.Fatalf("put unit: %v", err)
	}
	return u
}

func TestSQLStoreUnitRoundtrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	want := seedUnit(t, s, "unit-1")

	got, err := s.GetUnit(ctx, "unit-1")
	if err != nil {
		t.Fatalf("get unit: %v", err)
	}
	if got.Title != want.Title || got.Config != want.Config {
		t.Fatalf("unit mismatch:\n got %+v\nwant %+v", got, want)
	}

	if _, err := s.GetUnit(ctx, "missing"); !errors.Is(err, selfassess.ErrUnitNotFound) {
		t.Fatalf("missing unit error = %v", err)
	}

	// upsert keeps the id stable
	want.Title = "Photosynthesis (revised)"
	if err := s.PutUnit(ctx, want); err != nil {
		t.Fatalf("re-put unit: %v", err)
	}
	got, err = s.GetUnit(ctx, "unit-1")
	if err != nil {
		t.Fatalf("get updated unit: %v", err)
	}
	if got.Title != "Photosynthesis (revised)" {
		t.Fatalf("title after upsert = %q", got.Title)
	}

	units, err := s.ListUnits(ctx, 10, 0)
	if err != nil {
		t.Fatalf("list units: %v", err)
	}
	if len(units) != 1 {
		t.Fatalf("listed %d units, want 1", len(units))
	}
}

func TestSQLStoreWorkflowLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u := seedUnit(t, s, "unit-1")

	if _, err := s.GetOrCreateWorkflow(ctx, "missing", "alice"); !errors.Is(err, selfassess.ErrUnitNotFound) {
		t.Fatalf("create for missing unit: %v", err)
	}

	wf, err := s.GetOrCreateWorkflow(ctx, u.ID, "alice")
	if err != nil {
		t.Fatalf("create workflow: %v", err)
	}
	if wf.State != selfassess.StateInitial || wf.Attempts != 0 || len(wf.History) != 0 {
		t.Fatalf("fresh workflow: %+v", wf)
	}

	again, err := s.GetOrCreateWorkflow(ctx, u.ID, "alice")
	if err != nil {
		t.Fatalf("get existing workflow: %v", err)
	}
	if again.ID != wf.ID {
		t.Fatalf("second GetOrCreate made a new row: %s vs %s", again.ID, wf.ID)
	}

	// run one full cycle through the engine and persist it
	e := selfassess.NewEngine(u.Config, nil)
	if out := e.SubmitAnswer(wf, "chlorophyll"); !out.Success {
		t.Fatalf("submit answer: %s", out.Error)
	}
	if out := e.SubmitAssessment(wf, "1"); !out.Success {
		t.Fatalf("submit assessment: %s", out.Error)
	}
	if out := e.SubmitHint(wf, "think of light"); !out.Success {
		t.Fatalf("submit hint: %s", out.Error)
	}
	if err := s.SaveWorkflow(ctx, wf); err != nil {
		t.Fatalf("save workflow: %v", err)
	}

	loaded, err := s.GetWorkflow(ctx, u.ID, "alice")
	if err != nil {
		t.Fatalf("reload workflow: %v", err)
	}
	if loaded.State != selfassess.StateDone {
		t.Fatalf("state = %s", loaded.State)
	}
	if len(loaded.History) != 1 {
		t.Fatalf("history length = %d", len(loaded.History))
	}
	rec := loaded.History[0]
	if rec.Answer != "chlorophyll" || rec.Score == nil || *rec.Score != 1 ||
		rec.Hint == nil || *rec.Hint != "think of light" {
		t.Fatalf("record mismatch: %+v", rec)
	}

	if err := s.SaveWorkflow(ctx, &selfassess.Workflow{ID: "ghost", State: selfassess.StateInitial}); !errors.Is(err, selfassess.ErrWorkflowNotFound) {
		t.Fatalf("save missing workflow: %v", err)
	}
}

func TestSQLStoreListWorkflows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	u1 := seedUnit(t, s, "unit-1")
	u2 := seedUnit(t, s, "unit-2")

	for _, pair := range []struct{ unit, user string }{
		{u1.ID, "alice"}, {u1.ID, "bob"}, {u2.ID, "alice"},
	} {
		if _, err := s.GetOrCreateWorkflow(ctx, pair.unit, pair.user); err != nil {
			t.Fatalf("seed workflow %v: %v", pair, err)
		}
	}

	all, err := s.ListWorkflows(ctx, selfassess.WorkflowListOpts{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("listed %d, want 3", len(all))
	}

	mine, err := s.ListWorkflows(ctx, selfassess.WorkflowListOpts{UserID: "alice"})
	if err != nil {
		t.Fatalf("list by user: %v", err)
	}
	if len(mine) != 2 {
		t.Fatalf("alice has %d workflows, want 2", len(mine))
	}

	scoped, err := s.ListWorkflows(ctx, selfassess.WorkflowListOpts{
		UnitID: u1.ID, UserID: "bob", State: string(selfassess.StateInitial),
	})
	if err != nil {
		t.Fatalf("list scoped: %v", err)
	}
	if len(scoped) != 1 || scoped[0].UserID != "bob" {
		t.Fatalf("scoped list: %+v", scoped)
	}

	// negative bounds clamp to the defaults
	clamped, err := s.ListWorkflows(ctx, selfassess.WorkflowListOpts{Limit: -5, Offset: -1})
	if err != nil {
		t.Fatalf("list with negative bounds: %v", err)
	}
	if len(clamped) != 3 {
		t.Fatalf("clamped list has %d rows, want 3", len(clamped))
	}

	units, err := s.ListUnits(ctx, -5, -1)
	if err != nil {
		t.Fatalf("list units with negative bounds: %v", err)
	}
	if len(units) != 2 {
		t.Fatalf("clamped unit list has %d rows, want 2", len(units))
	}
}
