package selfassess

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SQLStore persists units and workflows in sqlite (offline) or postgres
// (online). History travels as a JSON column; the schema is ensured by
// internal/db.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) PutUnit(ctx context.Context, u Unit) error {
	cj, err := json.Marshal(u.Config)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO units (id,title,config_json,created_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, config_json=EXCLUDED.config_json`,
		u.ID, u.Title, string(cj), time.Now().Unix())
	return err
}

func (s *SQLStore) GetUnit(ctx context.Context, id string) (Unit, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,config_json,created_at FROM units WHERE id=$1`, id)
	var u Unit
	var cjson string
	if err := row.Scan(&u.ID, &u.Title, &cjson, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Unit{}, ErrUnitNotFound
		}
		return Unit{}, err
	}
	if err := json.Unmarshal([]byte(cjson), &u.Config); err != nil {
		return Unit{}, err
	}
	return u, nil
}

func (s *SQLStore) ListUnits(ctx context.Context, limit, offset int) ([]Unit, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,title,config_json,created_at FROM units ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Unit{}
	for rows.Next() {
		var u Unit
		var cjson string
		if err := rows.Scan(&u.ID, &u.Title, &cjson, &u.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(cjson), &u.Config); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetOrCreateWorkflow(ctx context.Context, unitID, userID string) (*Workflow, error) {
	wf, err := s.GetWorkflow(ctx, unitID, userID)
	if err == nil {
		return wf, nil
	}
	if !errors.Is(err, ErrWorkflowNotFound) {
		return nil, err
	}

	// ensure unit exists
	var exist int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM units WHERE id=$1`, unitID).Scan(&exist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUnitNotFound
		}
		return nil, err
	}

	wf = &Workflow{
		ID:     uuid.NewString(),
		UnitID: unitID,
		UserID: userID,
		State:  StateInitial,
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO workflows (id,unit_id,user_id,state,attempts,history_json,started_at)
		VALUES ($1,$2,$3,$4,0,'[]',$5)`,
		wf.ID, unitID, userID, string(wf.State), time.Now().Unix())
	if err != nil {
		return nil, err
	}
	return wf, nil
}

func (s *SQLStore) GetWorkflow(ctx context.Context, unitID, userID string) (*Workflow, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,unit_id,user_id,state,attempts,history_json FROM workflows WHERE unit_id=$1 AND user_id=$2`,
		unitID, userID)
	return scanWorkflow(row)
}

func (s *SQLStore) SaveWorkflow(ctx context.Context, wf *Workflow) error {
	if !wf.State.Valid() {
		return fmt.Errorf("invalid workflow state %q", wf.State)
	}
	hj, err := json.Marshal(wf.History)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE workflows SET state=$1, attempts=$2, history_json=$3, updated_at=$4 WHERE id=$5`,
		string(wf.State), wf.Attempts, string(hj), time.Now().Unix(), wf.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrWorkflowNotFound
	}
	return nil
}

func (s *SQLStore) ListWorkflows(ctx context.Context, opts WorkflowListOpts) ([]*Workflow, error) {
	q := `SELECT id,unit_id,user_id,state,attempts,history_json FROM workflows`
	args := []any{}
	where := ""
	add := func(cond string, v any) {
		args = append(args, v)
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(cond, len(args))
	}
	if opts.UnitID != "" {
		add("unit_id=$%d", opts.UnitID)
	}
	if opts.UserID != "" {
		add("user_id=$%d", opts.UserID)
	}
	if opts.State != "" {
		add("state=$%d", opts.State)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	q += where + fmt.Sprintf(" ORDER BY started_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Workflow{}
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, wf)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkflow(row rowScanner) (*Workflow, error) {
	var wf Workflow
	var state, hjson string
	if err := row.Scan(&wf.ID, &wf.UnitID, &wf.UserID, &state, &wf.Attempts, &hjson); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWorkflowNotFound
		}
		return nil, err
	}
	wf.State = State(state)
	if err := json.Unmarshal([]byte(hjson), &wf.History); err != nil {
		return nil, err
	}
	return &wf, nil
}
