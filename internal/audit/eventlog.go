// Package audit appends workflow lifecycle events to the append-only
// event_log table so attempt history survives beyond the workflow row
// itself.
package audit

import (
	"context"
	"database/sql"
	"time"
)

const (
	EventAnswerSaved     = "AnswerSaved"
	EventAssessmentSaved = "AssessmentSaved"
	EventHintSaved       = "HintSaved"
	EventWorkflowReset   = "WorkflowReset"
)

type Event struct {
	Seq       int64
	SiteID    string
	Type      string
	Key       string // natural key: workflow ID
	DataJSON  string
	CreatedAt int64
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	site := e.SiteID
	if site == "" {
		site = "local"
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		site, e.Type, e.Key, e.DataJSON, time.Now().Unix())
	return err
}

// Since returns up to limit events with seq greater than after, oldest
// first. Pass after=0 to read from the beginning of the log.
func (r *EventRepo) Since(ctx context.Context, after int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, site_id, typ, key, data, created_at FROM event_log
		 WHERE seq > $1 ORDER BY seq LIMIT $2`,
		after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
