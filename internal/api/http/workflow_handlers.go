package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/coursekit/coursekit/internal/audit"
	"github.com/coursekit/coursekit/internal/rbac"
	"github.com/coursekit/coursekit/internal/selfassess"
)

var actionEvents = map[selfassess.Action]string{
	selfassess.ActionSaveAnswer:     audit.EventAnswerSaved,
	selfassess.ActionSaveAssessment: audit.EventAssessmentSaved,
	selfassess.ActionSaveHint:       audit.EventHintSaved,
}

// DispatchHandler is the single student-action endpoint. Recoverable
// failures (out-of-sync, validation, attempt limit, unknown action) come
// back as 200 with success=false in the envelope; HTTP errors are
// reserved for transport and persistence problems.
//
// POST /units/{unitID}/events/{action}  (body: {"student_answer": "..."} etc.)
func DispatchHandler(store selfassess.Store, events *audit.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unitID := chi.URLParam(r, "unitID")
		action := selfassess.Action(chi.URLParam(r, "action"))
		sub := rbac.SubjectFromContext(r.Context())
		if sub == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		payload := selfassess.Payload{}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
		}

		u, err := store.GetUnit(r.Context(), unitID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, selfassess.ErrUnitNotFound) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}
		wf, err := store.GetOrCreateWorkflow(r.Context(), unitID, sub)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		engine := selfassess.NewEngine(u.Config, nil)
		env := engine.Dispatch(wf, action, payload)

		if env.Success {
			if err := store.SaveWorkflow(r.Context(), wf); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			appendEvent(r.Context(), events, actionEvents[action], wf)
		}
		writeJSON(w, http.StatusOK, env)
	}
}

// ResetHandler starts a new attempt cycle when the workflow allows it.
//
// POST /units/{unitID}/reset
func ResetHandler(store selfassess.Store, events *audit.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unitID := chi.URLParam(r, "unitID")
		sub := rbac.SubjectFromContext(r.Context())
		if sub == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		u, err := store.GetUnit(r.Context(), unitID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, selfassess.ErrUnitNotFound) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}
		wf, err := store.GetOrCreateWorkflow(r.Context(), unitID, sub)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		engine := selfassess.NewEngine(u.Config, nil)
		before := selfassess.StatusOf(wf)
		out := engine.Reset(wf)
		after := selfassess.StatusOf(wf)

		if out.Success {
			if err := store.SaveWorkflow(r.Context(), wf); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			appendEvent(r.Context(), events, audit.EventWorkflowReset, wf)
		}
		writeJSON(w, http.StatusOK, selfassess.Envelope{
			Success:         out.Success,
			State:           wf.State,
			ProgressChanged: after != before,
			ProgressStatus:  after,
			Error:           out.Error,
		})
	}
}

// HistoryHandler returns the caller's full attempt history for a unit,
// oldest first (audit display; the workflow itself only reads the latest
// record).
//
// GET /units/{unitID}/history
func HistoryHandler(store selfassess.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unitID := chi.URLParam(r, "unitID")
		sub := rbac.SubjectFromContext(r.Context())
		if sub == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		wf, err := store.GetWorkflow(r.Context(), unitID, sub)
		if err != nil {
			if errors.Is(err, selfassess.ErrWorkflowNotFound) {
				writeJSON(w, http.StatusOK, selfassess.History{})
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, wf.History)
	}
}

// ListWorkflowsHandler lists workflow instances for dashboards.
// Callers without workflow:view-all are scoped to their own rows.
//
// GET /workflows?unit_id=...&user_id=...&state=...&limit=50&offset=0
func ListWorkflowsHandler(store selfassess.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		sub := rbac.SubjectFromContext(r.Context())
		if role == "" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		if role != "admin" && role != "teacher" {
			userID = sub
		}

		list, err := store.ListWorkflows(r.Context(), selfassess.WorkflowListOpts{
			UnitID: strings.TrimSpace(r.URL.Query().Get("unit_id")),
			UserID: userID,
			State:  strings.TrimSpace(r.URL.Query().Get("state")),
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func appendEvent(ctx context.Context, events *audit.EventRepo, typ string, wf *selfassess.Workflow) {
	if events == nil || typ == "" {
		return
	}
	data, _ := json.Marshal(map[string]any{
		"unit_id":  wf.UnitID,
		"user_id":  wf.UserID,
		"state":    wf.State,
		"attempts": wf.Attempts,
	})
	if err := events.Append(ctx, audit.Event{Type: typ, Key: wf.ID, DataJSON: string(data)}); err != nil {
		log.Printf("audit append failed: %v", err)
	}
}
