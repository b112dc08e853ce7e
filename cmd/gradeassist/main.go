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

	api "github.com/open-lms-tools/gradeassist/internal/api/http"
	auth "github.com/open-lms-tools/gradeassist/internal/auth/middleware"
	"github.com/open-lms-tools/gradeassist/internal/batch"
	"github.com/open-lms-tools/gradeassist/internal/config"
	"github.com/open-lms-tools/gradeassist/internal/coursework"
	"github.com/open-lms-tools/gradeassist/internal/db"
	"github.com/open-lms-tools/gradeassist/internal/extract"
	"github.com/open-lms-tools/gradeassist/internal/grade"
	"github.com/open-lms-tools/gradeassist/internal/gradebook"
	"github.com/open-lms-tools/gradeassist/internal/rbac"
	"github.com/open-lms-tools/gradeassist/internal/storage"
	"github.com/open-lms-tools/gradeassist/internal/submission"
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
	store := coursework.NewSQLStore(dbh)

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.AuthSecret)
	if err := auth.BootstrapAdmin(ctx, dbh,
		os.Getenv("BOOTSTRAP_ADMIN_USER"), os.Getenv("BOOTSTRAP_ADMIN_PASSWORD")); err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	// --- Grading pipeline ---
	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}
	extractor := extract.NewService(cfg.ExtractMaxChars)
	resolver := submission.NewResolver(store, bs, extractor)
	client := grade.NewFromConfig(cfg)

	var opts []batch.Option
	if cfg.GradebookEnabled {
		ags := gradebook.NewHTTPClient(gradebook.Config{
			TokenURL:     cfg.GradebookTokenURL,
			ClientID:     cfg.GradebookClientID,
			ClientSecret: cfg.GradebookClientSecret,
			Timeout:      15 * time.Second,
		})
		opts = append(opts, batch.WithPublisher(gradebook.New(&gradebook.SQLStore{DB: dbh}, ags, time.Now)))
	}
	orch := batch.New(store, resolver, client, opts...)

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

	r.Post("/auth/login", auth.LoginHandler(authSvc, auth.SQLCredentials(dbh)))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Batch grading (teacher)
		pr.With(rbac.Require("grade:bulk")).
			Post("/quizzes/{quizID}/questions/{questionID}/grade", api.GradeQuestionHandler(orch))
		pr.With(rbac.Require("grade:bulk")).
			Post("/quizzes/{quizID}/grade", api.GradeQuizHandler(orch))
		pr.With(rbac.Require("grade:bulk")).
			Post("/assignments/{assignmentID}/grade", api.GradeAssignmentHandler(orch))

		// Single-submission suggestion (teacher)
		pr.With(rbac.Require("grade:suggest")).
			Post("/assignments/{assignmentID}/submissions/{userID}/grade", api.GradeSubmissionHandler(orch))

		// Ad-hoc grading (teacher)
		pr.With(rbac.Require("grade:suggest")).
			Post("/grade/answer", api.GradeAnswerHandler(client))
		pr.With(rbac.Require("grade:suggest")).
			Post("/grade/answers", api.GradeAnswersHandler(client))

		pr.With(rbac.Require("ai:status")).
			Get("/ai/status", api.AIStatusHandler(client))

		// Student submissions
		pr.With(rbac.Require("submission:upload")).
			Post("/assignments/{assignmentID}/submissions", api.CreateSubmissionHandler(store))
		pr.With(rbac.Require("submission:upload")).
			Post("/submissions/{submissionID}/files", api.UploadSubmissionFileHandler(store, bs))
		pr.With(rbac.Require("submission:view-own")).
			Get("/files/*", api.DownloadSubmissionFileHandler(bs))

		// Coursework sync (host platform / admin scripts)
		pr.Route("/coursework", func(cr chi.Router) {
			cr.Use(rbac.Require("course:manage"))
			cr.Post("/quizzes", api.PutQuizHandler(store))
			cr.Post("/questions", api.PutQuestionHandler(store))
			cr.Post("/attempts", api.PutAttemptHandler(store))
			cr.Post("/answers", api.PutAnswerHandler(store))
			cr.Post("/assignments", api.PutAssignmentHandler(store))
		})

		pr.With(rbac.Require("user:manage")).
			Post("/users", api.UpsertUserHandler(dbh))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (backend=%s, db=%s)", cfg.HTTPAddr, cfg.AIBackend, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
