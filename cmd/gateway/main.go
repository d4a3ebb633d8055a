package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/examhall/examhall/internal/answers"
	api "github.com/examhall/examhall/internal/api/http"
	auth "github.com/examhall/examhall/internal/auth/middleware"
	"github.com/examhall/examhall/internal/backend"
	"github.com/examhall/examhall/internal/config"
	"github.com/examhall/examhall/internal/content"
	"github.com/examhall/examhall/internal/db"
	"github.com/examhall/examhall/internal/progress"
	"github.com/examhall/examhall/internal/rbac"
	"github.com/examhall/examhall/internal/scoring"
	"github.com/examhall/examhall/internal/session"
	"github.com/examhall/examhall/internal/storage"
	syncx "github.com/examhall/examhall/internal/sync"
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
	client := backend.NewSQLClient(dbh)

	// --- Session stack ---
	loader := content.NewLoader(client)
	answerStore := answers.NewStore(client)
	results := scoring.NewResultStore(client)
	mgr := session.NewManager(loader, session.Deps{
		Answers: answerStore,
		Queue:   answers.NewWriteQueue(answerStore),
		Tracker: progress.NewTracker(client),
		Engine:  scoring.NewEngine(),
		Results: results,
		Events:  syncx.NewEventLog(client),
		WarnSec: cfg.TimerWarningSec,
	})

	authSvc := auth.NewAuthService(cfg.AuthHMACSecret, cfg.TokenTTL)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, client))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.With(rbac.Require("exam:view")).
			Get("/exams", api.ListExamsHandler(client))
		pr.With(rbac.Require("exam:view")).
			Get("/exams/{examID}", api.GetExamHandler(loader))

		// Student session flow
		pr.With(rbac.Require("session:start")).
			Post("/sessions/{examID}/start", api.StartSessionHandler(mgr))
		pr.With(rbac.Require("session:start")).
			Get("/sessions/{examID}", api.SessionStateHandler(mgr))
		pr.With(rbac.Require("session:start")).
			Post("/sessions/{examID}/sections/{sectionID}", api.EnterSectionHandler(mgr))
		pr.With(rbac.Require("session:answer")).
			Put("/sessions/{examID}/answers/{questionID}", api.AnswerHandler(mgr))
		pr.With(rbac.Require("session:complete")).
			Post("/sessions/{examID}/complete-section", api.CompleteSectionHandler(mgr))
		pr.With(rbac.Require("session:submit")).
			Post("/sessions/{examID}/submit", api.SubmitHandler(mgr))
		pr.With(rbac.Require("session:exit")).
			Post("/sessions/{examID}/exit", api.ExitSessionHandler(mgr))

		// Results
		pr.With(rbac.Require("result:view-own")).
			Get("/results/{examID}", api.GetResultHandler(results))
		pr.With(rbac.Require("result:view-all")).
			Get("/exams/{examID}/results", api.ListExamResultsHandler(client))
		pr.With(rbac.Require("events:view")).
			Get("/exams/{examID}/events", api.ListExamEventsHandler(client))

		// Section media (listening audio)
		pr.Route("/assets", func(ar chi.Router) {
			api.MountAssets(ar, bs)
		})
	})

	log.Printf("examhall gateway listening on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatalf("server: %v", err)
	}
}
