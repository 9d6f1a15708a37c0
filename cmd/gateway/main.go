package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/examloop/examloop/internal/api/http"
	auth "github.com/examloop/examloop/internal/auth/middleware"
	"github.com/examloop/examloop/internal/billing"
	"github.com/examloop/examloop/internal/config"
	"github.com/examloop/examloop/internal/db"
	"github.com/examloop/examloop/internal/exam"
	"github.com/examloop/examloop/internal/importer"
	"github.com/examloop/examloop/internal/jobs"
	"github.com/examloop/examloop/internal/progress"
	"github.com/examloop/examloop/internal/rbac"
	"github.com/examloop/examloop/internal/storage"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := exam.NewSQLStore(dbh)
	progressStore := progress.NewStore(dbh, store)

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthSecret, time.Duration(cfg.TokenTTLHours)*time.Hour)

	// --- Billing ---
	var sub billing.Provider
	if cfg.BillingEnabled {
		sub = billing.NewHTTPProvider(cfg.BillingBaseURL, cfg.BillingAPIKey)
	} else {
		sub = billing.StaticProvider{Tier: billing.TierPremium}
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

	r.Post("/auth/register", auth.RegisterHandler(authSvc, dbh))
	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// Protected API (JWT → subject/role in context → RBAC per route)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Student study flow
		pr.With(rbac.Require("exam:start")).
			Post("/exams/start", api.StartExamHandler(store, sub))
		pr.With(rbac.Require("exam:view-own")).
			Get("/exams/daily-quiz/status", api.DailyQuizStatusHandler(store))
		pr.With(rbac.Require("exam:view-own")).
			Get("/exams/daily-quiz/weekly", api.WeeklyCompletionsHandler(store))
		pr.With(rbac.Require("exam:view-own")).
			Get("/exams/{examID}/questions", api.SessionQuestionsHandler(store))
		pr.With(rbac.Require("exam:submit")).
			Post("/exams/{examID}/submit", api.SubmitExamHandler(store))
		pr.With(rbac.Require("exam:view-own")).
			Get("/exams/{examID}/review", api.ReviewHandler(store))

		pr.With(rbac.Require("progress:record")).
			Post("/progress/answer", api.RecordAnswerHandler(progressStore))
		pr.With(rbac.Require("badges:view")).
			Get("/badges/streak", api.StreakBadgeHandler(progressStore))

		// Billing
		pr.With(rbac.Require("billing:view")).
			Get("/billing/offerings", api.OfferingsHandler(sub))
		pr.With(rbac.Require("billing:view")).
			Get("/billing/status", api.SubscriptionStatusHandler(sub))
		pr.With(rbac.Require("billing:view")).
			Post("/billing/purchase", api.PurchaseHandler(sub))
		pr.With(rbac.Require("billing:view")).
			Post("/billing/restore", api.RestoreHandler(sub))

		// Question bank admin
		im := importer.New(store)
		pr.With(rbac.Require("questions:manage")).
			Post("/admin/questions", api.CreateQuestionHandler(store))
		pr.With(rbac.Require("questions:manage")).
			Put("/admin/questions/{questionID}", api.UpdateQuestionHandler(store))
		pr.With(rbac.Require("questions:manage")).
			Delete("/admin/questions/{questionID}", api.DeleteQuestionHandler(store))
		pr.With(rbac.Require("questions:manage")).
			Get("/admin/questions", api.ListQuestionsHandler(store))
		pr.With(rbac.Require("questions:manage")).
			Post("/admin/questions/import", api.ImportQuestionsHandler(im))
		pr.With(rbac.Require("questions:manage")).
			Get("/admin/questions/export", api.ExportQuestionsHandler(store))

		// Question images: students read, admins write
		pr.Route("/assets", func(ar chi.Router) {
			api.MountAssets(ar, bs)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	// --- Background maintenance ---
	sched := jobs.New(store, time.Duration(cfg.StaleSessionHours)*time.Hour)
	sched.Start()
	defer sched.Stop()

	log.Printf("listening on %s (db=%s, billing=%v)", cfg.HTTPAddr, cfg.DBDriver, cfg.BillingEnabled)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
