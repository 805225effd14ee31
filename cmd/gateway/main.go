package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/coursekit/coursekit/internal/api/http"
	"github.com/coursekit/coursekit/internal/audit"
	auth "github.com/coursekit/coursekit/internal/auth/middleware"
	"github.com/coursekit/coursekit/internal/config"
	"github.com/coursekit/coursekit/internal/db"
	"github.com/coursekit/coursekit/internal/rbac"
	"github.com/coursekit/coursekit/internal/selfassess"
	"github.com/coursekit/coursekit/internal/storage"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := selfassess.NewSQLStore(dbh, cfg.DBDriver)
	events := audit.NewEventRepo(dbh)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Auth (local HMAC JWT) ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc, dbh, cfg.AdminUser, cfg.AdminPassHash))
	}

	// Protected API (JWT → subject/role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Teacher-only: publish a self-assessment unit
		pr.With(rbac.Require("unit:create")).
			Post("/units", api.UploadUnitHandler(store, bs))

		// Student/Teacher: browse units and render own view
		pr.With(rbac.Require("unit:view")).
			Get("/units", api.ListUnitsHandler(store))
		pr.With(rbac.Require("unit:view")).
			Get("/units/{unitID}", api.GetUnitViewHandler(store))

		// Student flow: dispatch, reset, own history
		pr.With(rbac.Require("workflow:dispatch")).
			Post("/units/{unitID}/events/{action}", api.DispatchHandler(store, events))
		pr.With(rbac.Require("workflow:reset")).
			Post("/units/{unitID}/reset", api.ResetHandler(store, events))
		pr.With(rbac.RequireAny("workflow:view-own", "workflow:view-all")).
			Get("/units/{unitID}/history", api.HistoryHandler(store))

		// Dashboards
		pr.With(rbac.RequireAny("workflow:view-own", "workflow:view-all")).
			Get("/workflows", api.ListWorkflowsHandler(store))

		// Users (teacher/admin provisioning + own password change)
		pr.With(rbac.Require("users:bulk_upsert")).
			Post("/users/bulk", api.BulkUpsertUsersHandler(dbh))
		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(dbh))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", api.ChangePasswordHandler(dbh))
	})

	log.Printf("gateway listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal(err)
	}
}
