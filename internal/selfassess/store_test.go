package selfassess

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreWorkflowIsolation(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	if err := s.PutUnit(ctx, Unit{ID: "u-1", Title: "t", Config: testConfig()}); err != nil {
		t.Fatalf("put unit: %v", err)
	}

	wf, err := s.GetOrCreateWorkflow(ctx, "u-1", "alice")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// mutations on the returned copy must not leak into the store before
	// SaveWorkflow
	wf.History.Append("draft")
	wf.State = StateAssessing

	stored, err := s.GetWorkflow(ctx, "u-1", "alice")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.State != StateInitial || len(stored.History) != 0 {
		t.Fatalf("unsaved mutation leaked: %+v", stored)
	}

	if err := s.SaveWorkflow(ctx, wf); err != nil {
		t.Fatalf("save: %v", err)
	}
	stored, _ = s.GetWorkflow(ctx, "u-1", "alice")
	if stored.State != StateAssessing || len(stored.History) != 1 {
		t.Fatalf("save not applied: %+v", stored)
	}

	if _, err := s.GetWorkflow(ctx, "u-1", "bob"); !errors.Is(err, ErrWorkflowNotFound) {
		t.Fatalf("bob's workflow error = %v", err)
	}
	if _, err := s.GetOrCreateWorkflow(ctx, "nope", "alice"); !errors.Is(err, ErrUnitNotFound) {
		t.Fatalf("missing unit error = %v", err)
	}
}

func TestMemoryStorePaginationBounds(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"u-1", "u-2", "u-3"} {
		if err := s.PutUnit(ctx, Unit{ID: id, Title: id, Config: testConfig()}); err != nil {
			t.Fatalf("put unit %s: %v", id, err)
		}
		if _, err := s.GetOrCreateWorkflow(ctx, id, "alice"); err != nil {
			t.Fatalf("create workflow %s: %v", id, err)
		}
	}

	// a negative offset is treated as zero, never sliced with
	units, err := s.ListUnits(ctx, 10, -1)
	if err != nil {
		t.Fatalf("list units: %v", err)
	}
	if len(units) != 3 {
		t.Fatalf("negative offset listed %d units, want 3", len(units))
	}

	wfs, err := s.ListWorkflows(ctx, WorkflowListOpts{Limit: -5, Offset: -1})
	if err != nil {
		t.Fatalf("list workflows: %v", err)
	}
	if len(wfs) != 3 {
		t.Fatalf("negative bounds listed %d workflows, want 3", len(wfs))
	}

	units, err = s.ListUnits(ctx, 2, 2)
	if err != nil {
		t.Fatalf("list units page 2: %v", err)
	}
	if len(units) != 1 || units[0].ID != "u-3" {
		t.Fatalf("page 2: %+v", units)
	}

	if units, err = s.ListUnits(ctx, 10, 99); err != nil || len(units) != 0 {
		t.Fatalf("offset past end: %v %+v", err, units)
	}
}
