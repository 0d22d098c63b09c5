package main

import (
	"fmt"
	"log"
	"net/http"

	"fittrack/internal/config"
	"fittrack/internal/database"
	"fittrack/internal/gemini"
	"fittrack/internal/handlers"
	"fittrack/internal/repository"
	"fittrack/internal/scheduler"
	"fittrack/internal/services"
	"fittrack/pkg/email"
	"fittrack/pkg/logger"
	"fittrack/pkg/middleware"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger()
	logger.Log.Info("Logger initialized")

	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	workoutRepo := repository.NewWorkoutRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	mailer := email.NewSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPSender, cfg.SMTPPassword)
	if !mailer.Configured() {
		logger.Log.Warn("SMTP not configured, email delivery disabled")
	}

	// --- Services ---
	userService := services.NewUserService(userRepo, mailer)
	goalService := services.NewGoalService(goalRepo, userRepo)
	workoutService := services.NewWorkoutService(workoutRepo, userRepo)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, mailer)

	geminiClient := gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel)

	notificationScheduler := scheduler.NewScheduler(userRepo, goalRepo, workoutRepo, notificationService, geminiClient)
	if cfg.SchedulerEnabled {
		notificationScheduler.Start()
		defer notificationScheduler.Stop()
	} else {
		logger.Log.Warn("Notification scheduler disabled by configuration")
	}

	// --- Handlers ---
	userHandler := handlers.NewUserHandler(userService, cfg)
	goalHandler := handlers.NewGoalHandler(goalService)
	workoutHandler := handlers.NewWorkoutHandler(workoutService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	recommendationHandler := handlers.NewRecommendationHandler(userService, workoutService, goalService, geminiClient)
	schedulerHandler := handlers.NewSchedulerHandler(notificationScheduler)

	router := mux.NewRouter()

	// Public user routes
	router.HandleFunc("/users/register", userHandler.RegisterUserHandler).Methods("POST")
	router.HandleFunc("/users/login", userHandler.LoginUserHandler).Methods("POST")

	// Protected user routes
	protectedUserRoutes := router.PathPrefix("/users").Subrouter()
	protectedUserRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedUserRoutes.HandleFunc("/me", userHandler.GetCurrentUserHandler).Methods("GET")
	protectedUserRoutes.HandleFunc("/me", userHandler.UpdateProfileHandler).Methods("PUT")
	protectedUserRoutes.HandleFunc("/me", userHandler.DeactivateUserHandler).Methods("DELETE")
	protectedUserRoutes.HandleFunc("/me/preferences", userHandler.UpdatePreferencesHandler).Methods("PUT")

	// Goal routes
	protectedGoalRoutes := router.PathPrefix("/goals").Subrouter()
	protectedGoalRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedGoalRoutes.Use(middleware.UpdateLastActiveMiddleware(userService))
	protectedGoalRoutes.HandleFunc("", goalHandler.CreateGoalHandler).Methods("POST")
	protectedGoalRoutes.HandleFunc("", goalHandler.GetGoalsHandler).Methods("GET")
	protectedGoalRoutes.HandleFunc("/{id}", goalHandler.GetGoalHandler).Methods("GET")
	protectedGoalRoutes.HandleFunc("/{id}", goalHandler.UpdateGoalHandler).Methods("PUT")
	protectedGoalRoutes.HandleFunc("/{id}", goalHandler.DeleteGoalHandler).Methods("DELETE")
	protectedGoalRoutes.HandleFunc("/{id}/progress", goalHandler.UpdateProgressHandler).Methods("PATCH")

	// Workout routes
	protectedWorkoutRoutes := router.PathPrefix("/workouts").Subrouter()
	protectedWorkoutRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedWorkoutRoutes.Use(middleware.UpdateLastActiveMiddleware(userService))
	protectedWorkoutRoutes.HandleFunc("", workoutHandler.CreateWorkoutHandler).Methods("POST")
	protectedWorkoutRoutes.HandleFunc("", workoutHandler.GetWorkoutsHandler).Methods("GET")
	protectedWorkoutRoutes.HandleFunc("/{id}", workoutHandler.GetWorkoutHandler).Methods("GET")
	protectedWorkoutRoutes.HandleFunc("/{id}", workoutHandler.UpdateWorkoutHandler).Methods("PUT")
	protectedWorkoutRoutes.HandleFunc("/{id}", workoutHandler.DeleteWorkoutHandler).Methods("DELETE")

	// Notification routes
	protectedNotificationRoutes := router.PathPrefix("/notifications").Subrouter()
	protectedNotificationRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedNotificationRoutes.HandleFunc("", notificationHandler.GetUserNotificationsHandler).Methods("GET")
	protectedNotificationRoutes.HandleFunc("/unread", notificationHandler.GetUnreadNotificationsHandler).Methods("GET")
	protectedNotificationRoutes.HandleFunc("/read", notificationHandler.MarkMultipleAsReadHandler).Methods("POST")
	protectedNotificationRoutes.HandleFunc("/read-all", notificationHandler.MarkAllAsReadHandler).Methods("POST")
	protectedNotificationRoutes.HandleFunc("/{id}/read", notificationHandler.MarkAsReadHandler).Methods("POST")
	protectedNotificationRoutes.HandleFunc("/{id}/clicked", notificationHandler.MarkClickedHandler).Methods("POST")
	protectedNotificationRoutes.HandleFunc("/{id}/action", notificationHandler.MarkActionTakenHandler).Methods("POST")
	protectedNotificationRoutes.HandleFunc("/{id}", notificationHandler.DeleteNotificationHandler).Methods("DELETE")

	// Recommendation routes
	protectedRecommendationRoutes := router.PathPrefix("/recommendations").Subrouter()
	protectedRecommendationRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedRecommendationRoutes.HandleFunc("", recommendationHandler.GetRecommendationsHandler).Methods("GET")
	protectedRecommendationRoutes.HandleFunc("/workout", recommendationHandler.GetWorkoutSuggestionHandler).Methods("GET")

	// Admin routes
	adminRoutes := router.PathPrefix("/admin").Subrouter()
	adminRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	adminRoutes.Use(middleware.RequireRole("admin"))
	adminRoutes.HandleFunc("/notifications", notificationHandler.CreateNotificationHandler).Methods("POST")
	adminRoutes.HandleFunc("/scheduler", schedulerHandler.StatusHandler).Methods("GET")
	adminRoutes.HandleFunc("/scheduler/start", schedulerHandler.StartHandler).Methods("POST")
	adminRoutes.HandleFunc("/scheduler/stop", schedulerHandler.StopHandler).Methods("POST")

	router.Use(middleware.LoggingMiddleware)

	limiter := middleware.NewRateLimiter(rate.Limit(10), 30)
	router.Use(limiter.Middleware)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	handler := c.Handler(router)

	fmt.Printf("Server running on port %s\n", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handler))
}
