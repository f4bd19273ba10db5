package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	api "github.com/bsfellows/cbt-backend/internal/api/http"
	auth "github.com/bsfellows/cbt-backend/internal/auth/middleware"
	"github.com/bsfellows/cbt-backend/internal/config"
	"github.com/bsfellows/cbt-backend/internal/db"
	"github.com/bsfellows/cbt-backend/internal/exam"
	"github.com/bsfellows/cbt-backend/internal/rbac"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := exam.NewSQLStore(dbh)

	if err := bootstrapAdmin(ctx, store, cfg); err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	svc := exam.NewService(store)
	authSvc := auth.NewAuthService(cfg.AuthSecret)

	if cfg.EnableSweeper {
		sweeper := exam.NewSweeper(svc, cfg.SweepInterval)
		sweeper.Start()
		defer sweeper.Stop()
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/register", api.RegisterHandler(store))
	r.Post("/auth/login", api.LoginHandler(store, authSvc))

	// Protected API (JWT -> subject+role in context -> RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.Get("/me", api.MeHandler(store))
		pr.With(rbac.Require("profile:set-field")).
			Patch("/me/field", api.SetFieldHandler(store))

		pr.With(rbac.Require("exam:view")).
			Get("/exams", api.ListExamsHandler(store))

		// Student flow
		pr.With(rbac.Require("attempt:create")).
			Post("/attempts", api.CreateAttemptHandler(svc))
		pr.With(rbac.Require("attempt:save")).
			Put("/attempts/{attemptID}/answers/{questionID}", api.SaveAnswerHandler(svc))
		pr.With(rbac.Require("attempt:save")).
			Get("/attempts/{attemptID}/answers", api.GetAnswersHandler(svc))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/submit", api.SubmitAttemptHandler(svc))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts", api.ListAttemptsHandler(store))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}", api.GetAttemptHandler(store))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}/results", api.ReviewAttemptHandler(store, svc))

		pr.With(rbac.Require("leaderboard:view")).
			Get("/leaderboard", api.LeaderboardHandler(store))

		// Admin surface
		pr.Route("/admin", func(ar chi.Router) {
			ar.Use(rbac.Require("admin:manage"))

			ar.Post("/banks", api.CreateBankHandler(store))
			ar.Get("/banks", api.ListBanksHandler(store))
			ar.Delete("/banks/{bankID}", api.DeleteBankHandler(store))
			ar.Post("/banks/{bankID}/questions", api.CreateQuestionHandler(store))
			ar.Get("/banks/{bankID}/questions", api.ListQuestionsHandler(store))
			ar.Delete("/questions/{questionID}", api.DeleteQuestionHandler(store))

			ar.Post("/exams", api.CreateExamHandler(store))
			ar.Put("/exams/{examID}", api.UpdateExamHandler(store))
			ar.Delete("/exams/{examID}", api.DeleteExamHandler(store))
			ar.Get("/exams/{examID}/export", api.ExportResultsHandler(store))

			ar.Get("/grading", api.PendingGradingHandler(store))
			ar.Post("/attempts/{attemptID}/grade", api.GradeAttemptHandler(svc))

			ar.Get("/overview", api.OverviewHandler(store))
			ar.Get("/students", api.StudentStandingsHandler(store))
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

// bootstrapAdmin ensures the configured admin profile exists so a fresh
// deployment is immediately usable.
func bootstrapAdmin(ctx context.Context, store exam.Store, cfg config.Config) error {
	_, err := store.GetProfileByMatric(ctx, cfg.AdminMatric)
	if err == nil {
		return nil
	}
	if !errors.Is(err, exam.ErrProfileNotFound) {
		return err
	}
	return store.CreateProfile(ctx, exam.Profile{
		ID:           uuid.NewString(),
		FullName:     cfg.AdminName,
		MatricNumber: cfg.AdminMatric,
		Role:         "admin",
		PasswordHash: cfg.AdminPassHash,
		CreatedAt:    time.Now().Unix(),
	})
}
