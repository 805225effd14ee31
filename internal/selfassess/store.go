package selfassess

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Unit is a published self-assessment problem: identity plus its
// immutable workflow configuration.
type Unit struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Config    Config `json:"config"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

var (
	ErrUnitNotFound     = errors.New("unit not found")
	ErrWorkflowNotFound = errors.New("workflow not found")
)

// WorkflowListOpts filters workflow listings for teacher dashboards and
// students' own views.
type WorkflowListOpts struct {
	UnitID string
	UserID string
	State  string
	Limit  int
	Offset int
}

// Store persists units and workflow instances. The engine itself is
// synchronous and in-memory; persistence of the resulting state is the
// store's concern.
type Store interface {
	PutUnit(ctx context.Context, u Unit) error
	GetUnit(ctx context.Context, id string) (Unit, error)
	ListUnits(ctx context.Context, limit, offset int) ([]Unit, error)

	// GetOrCreateWorkflow returns the single workflow owned by the
	// (unit, user) pair, creating it in the initial state on first use.
	GetOrCreateWorkflow(ctx context.Context, unitID, userID string) (*Workflow, error)
	GetWorkflow(ctx context.Context, unitID, userID string) (*Workflow, error)
	SaveWorkflow(ctx context.Context, wf *Workflow) error
	ListWorkflows(ctx context.Context, opts WorkflowListOpts) ([]*Workflow, error)
}

type memoryStore struct {
	mu        sync.RWMutex
	units     map[string]Unit
	workflows map[string]*Workflow // key: unitID|userID
}

// NewInMemoryStore is the dev/test store.
func NewInMemoryStore() Store {
	return &memoryStore{
		units:     map[string]Unit{},
		workflows: map[string]*Workflow{},
	}
}

func wfKey(unitID, userID string) string { return unitID + "|" + userID }

func (m *memoryStore) PutUnit(_ context.Context, u Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.units[u.ID] = u
	return nil
}

func (m *memoryStore) GetUnit(_ context.Context, id string) (Unit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.units[id]
	if !ok {
		return Unit{}, ErrUnitNotFound
	}
	return u, nil
}

func (m *memoryStore) ListUnits(_ context.Context, limit, offset int) ([]Unit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Unit, 0, len(m.units))
	for _, u := range m.units {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, limit, offset), nil
}

func (m *memoryStore) GetOrCreateWorkflow(_ context.Context, unitID, userID string) (*Workflow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.units[unitID]; !ok {
		return nil, ErrUnitNotFound
	}
	if wf, ok := m.workflows[wfKey(unitID, userID)]; ok {
		return cloneWorkflow(wf), nil
	}
	wf := &Workflow{
		ID:     uuid.NewString(),
		UnitID: unitID,
		UserID: userID,
		State:  StateInitial,
	}
	m.workflows[wfKey(unitID, userID)] = wf
	return cloneWorkflow(wf), nil
}

func (m *memoryStore) GetWorkflow(_ context.Context, unitID, userID string) (*Workflow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wf, ok := m.workflows[wfKey(unitID, userID)]
	if !ok {
		return nil, ErrWorkflowNotFound
	}
	return cloneWorkflow(wf), nil
}

func (m *memoryStore) SaveWorkflow(_ context.Context, wf *Workflow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.workflows[wfKey(wf.UnitID, wf.UserID)]; !ok {
		return ErrWorkflowNotFound
	}
	m.workflows[wfKey(wf.UnitID, wf.UserID)] = cloneWorkflow(wf)
	return nil
}

func (m *memoryStore) ListWorkflows(_ context.Context, opts WorkflowListOpts) ([]*Workflow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Workflow, 0, len(m.workflows))
	for _, wf := range m.workflows {
		if opts.UnitID != "" && wf.UnitID != opts.UnitID {
			continue
		}
		if opts.UserID != "" && wf.UserID != opts.UserID {
			continue
		}
		if opts.State != "" && string(wf.State) != opts.State {
			continue
		}
		out = append(out, cloneWorkflow(wf))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, opts.Limit, opts.Offset), nil
}

// cloneWorkflow keeps callers from mutating the store's copy outside
// SaveWorkflow.
func cloneWorkflow(wf *Workflow) *Workflow {
	cp := *wf
	cp.History = append(History(nil), wf.History...)
	return &cp
}

func paginate[T any](in []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(in) {
		return []T{}
	}
	in = in[offset:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
