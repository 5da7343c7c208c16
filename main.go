package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"estudyAPI/handlers"
	"estudyAPI/internal/notification"
	"estudyAPI/middleware"
	"estudyAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	userService         *services.UserService
	subjectService      *services.SubjectService
	materialService     *services.MaterialService
	planService         *services.PlanService
	sessionService      *services.SessionService
	questionService     *services.QuestionService
	flashcardService    *services.FlashcardService
	notificationService *services.NotificationService
	aiService           *services.AIService
	fcmService          *notification.FCMService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to database")

	aiService, err = services.NewAIService()
	if err != nil {
		log.Fatal("Failed to initialize AI service:", err)
	}

	notificationService = services.NewNotificationService(dbPool)
	userService = services.NewUserService(dbPool)
	subjectService = services.NewSubjectService(dbPool)
	materialService = services.NewMaterialService(dbPool, aiService, notificationService)
	sessionService = services.NewSessionService(dbPool, notificationService)
	planService = services.NewPlanService(dbPool, subjectService, aiService, notificationService)
	questionService = services.NewQuestionService(dbPool, subjectService, aiService)
	flashcardService = services.NewFlashcardService(dbPool, subjectService, aiService)

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		notificationService.Stop()
		dbPool.Close()
	}()

	userHandler := handlers.NewUserHandler(userService, sessionService)
	subjectHandler := handlers.NewSubjectHandler(subjectService)
	materialHandler := handlers.NewMaterialHandler(materialService)
	planHandler := handlers.NewPlanHandler(planService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	questionHandler := handlers.NewQuestionHandler(questionService)
	flashcardHandler := handlers.NewFlashcardHandler(flashcardService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	webhookHandler := handlers.NewWebhookHandler(userService)

	r := mux.NewRouter()

	rateLimiter := middleware.NewRateLimiter()
	defer rateLimiter.Stop()

	r.Use(rateLimiter.Middleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "estudy-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	api := r.PathPrefix("/api/v1").Subrouter()

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user/update-profile", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/delete-account", userHandler.DeleteAccount).Methods("DELETE")
	protected.HandleFunc("/user/stats", userHandler.GetUserStats).Methods("GET")
	protected.HandleFunc("/user/stats/days", userHandler.GetDaysStudied).Methods("GET")
	protected.HandleFunc("/user/streak", userHandler.GetStreak).Methods("GET")
	protected.HandleFunc("/user/calendar", userHandler.GetCalendar).Methods("GET")

	protected.HandleFunc("/subjects", subjectHandler.CreateSubject).Methods("POST")
	protected.HandleFunc("/subjects", subjectHandler.GetSubjects).Methods("GET")
	protected.HandleFunc("/subjects/{id}", subjectHandler.GetSubject).Methods("GET")
	protected.HandleFunc("/subjects/{id}", subjectHandler.UpdateSubject).Methods("PUT")
	protected.HandleFunc("/subjects/{id}", subjectHandler.DeleteSubject).Methods("DELETE")
	protected.HandleFunc("/subjects/{id}/materials", materialHandler.GetMaterialsBySubject).Methods("GET")
	protected.HandleFunc("/subjects/{id}/plan", planHandler.GetActivePlan).Methods("GET")
	protected.HandleFunc("/subjects/{id}/questions", questionHandler.GetQuestionsBySubject).Methods("GET")

	protected.HandleFunc("/materials", materialHandler.CreateMaterial).Methods("POST")
	protected.HandleFunc("/materials/{id}", materialHandler.DeleteMaterial).Methods("DELETE")

	protected.HandleFunc("/plans/generate", planHandler.GeneratePlan).Methods("POST")

	protected.HandleFunc("/sessions/today", sessionHandler.GetTodaySessions).Methods("GET")
	protected.HandleFunc("/sessions/{id}/complete", sessionHandler.CompleteSession).Methods("PATCH")

	protected.HandleFunc("/questions/generate", questionHandler.GenerateQuestions).Methods("POST")
	protected.HandleFunc("/questions/attempt", questionHandler.RecordAttempt).Methods("POST")

	protected.HandleFunc("/flashcards/generate", flashcardHandler.GenerateFlashcards).Methods("POST")

	protected.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/unread-count", notificationHandler.GetUnreadCount).Methods("GET")
	protected.HandleFunc("/notifications/{id}/read", notificationHandler.MarkAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
		gorillaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
