package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"civiclearn/internal/auth"
	"civiclearn/internal/discussion"
	"civiclearn/internal/module"
	"civiclearn/internal/quiz"
	"civiclearn/internal/stats"
	"civiclearn/pkg/cache"
	"civiclearn/pkg/database"
	"civiclearn/pkg/logger"
	"civiclearn/pkg/websocket"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	appLog, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLog.Sync()

	dbConfig := &database.Config{
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
	}

	db, err := database.NewPostgresDB(dbConfig)
	if err != nil {
		appLog.Fatal("failed to connect to database", "error", err)
	}
	if err := database.Migrate(db); err != nil {
		appLog.Fatal("failed to migrate database", "error", err)
	}

	redisCache := cache.NewRedisCache(os.Getenv("REDIS_ADDR"))

	wsHub := websocket.NewHub(appLog)
	go wsHub.Run()

	jwtSecret := os.Getenv("JWT_SECRET")

	authRepo := auth.NewRepository(db)
	moduleRepo := module.NewRepository(db)
	quizRepo := quiz.NewRepository(db)
	discussionRepo := discussion.NewRepository(db)
	statsRepo := stats.NewRepository(db)

	authService := auth.NewService(authRepo, jwtSecret, appLog)
	moduleService := module.NewService(moduleRepo, redisCache, appLog)
	quizService := quiz.NewService(quizRepo, redisCache, appLog)
	discussionService := discussion.NewService(discussionRepo, wsHub, appLog)
	statsService := stats.NewService(statsRepo)

	authHandler := auth.NewHandler(authService)
	moduleHandler := module.NewHandler(moduleService)
	quizHandler := quiz.NewHandler(quizService)
	discussionHandler := discussion.NewHandler(discussionService)
	statsHandler := stats.NewHandler(statsService)

	router := mux.NewRouter()

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	handler := corsMiddleware.Handler(router)

	// Auth routes - no JWT required
	router.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// Public content - principal attached when a token is present
	publicRouter := router.PathPrefix("/api").Subrouter()
	publicRouter.Use(auth.OptionalJWTMiddleware(jwtSecret))
	publicRouter.HandleFunc("/modules", moduleHandler.List).Methods("GET", "OPTIONS")
	publicRouter.HandleFunc("/modules/{slug}", moduleHandler.Get).Methods("GET", "OPTIONS")
	publicRouter.HandleFunc("/quizzes", quizHandler.List).Methods("GET", "OPTIONS")
	publicRouter.HandleFunc("/quizzes/{id:[0-9]+}", quizHandler.Get).Methods("GET", "OPTIONS")
	publicRouter.HandleFunc("/threads", discussionHandler.ListThreads).Methods("GET", "OPTIONS")
	publicRouter.HandleFunc("/threads/{id:[0-9]+}", discussionHandler.GetThread).Methods("GET", "OPTIONS")

	// Everything else - JWT required
	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.Use(auth.JWTMiddleware(jwtSecret))

	apiRouter.HandleFunc("/my/modules", moduleHandler.ListMine).Methods("GET")
	apiRouter.HandleFunc("/modules", moduleHandler.Create).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/modules/{id:[0-9]+}", moduleHandler.Update).Methods("PUT", "OPTIONS")
	apiRouter.HandleFunc("/modules/{id:[0-9]+}/status", moduleHandler.SetStatus).Methods("POST", "OPTIONS")

	apiRouter.HandleFunc("/my/quizzes", quizHandler.ListMine).Methods("GET")
	apiRouter.HandleFunc("/quizzes", quizHandler.Create).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/quizzes/{id:[0-9]+}", quizHandler.Update).Methods("PUT", "OPTIONS")
	apiRouter.HandleFunc("/quizzes/{id:[0-9]+}/publish", quizHandler.SetPublished).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/quizzes/{id:[0-9]+}/questions", quizHandler.AddQuestion).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/questions/{id:[0-9]+}", quizHandler.UpdateQuestion).Methods("PUT", "OPTIONS")
	apiRouter.HandleFunc("/questions/{id:[0-9]+}", quizHandler.DeleteQuestion).Methods("DELETE", "OPTIONS")

	apiRouter.HandleFunc("/quizzes/{id:[0-9]+}/standing", quizHandler.GetStanding).Methods("GET")
	apiRouter.HandleFunc("/quizzes/{id:[0-9]+}/attempt", quizHandler.StartAttempt).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/attempts/{id:[0-9]+}/submit", quizHandler.SubmitAttempt).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/attempts/{id:[0-9]+}", quizHandler.GetResult).Methods("GET")

	apiRouter.HandleFunc("/threads", discussionHandler.CreateThread).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/threads/{id:[0-9]+}", discussionHandler.UpdateThread).Methods("PUT", "OPTIONS")
	apiRouter.HandleFunc("/threads/{id:[0-9]+}/comments", discussionHandler.AddComment).Methods("POST", "OPTIONS")
	apiRouter.HandleFunc("/comments/{id:[0-9]+}", discussionHandler.UpdateComment).Methods("PUT", "OPTIONS")
	apiRouter.HandleFunc("/comments/{id:[0-9]+}/like", discussionHandler.ToggleLike).Methods("POST", "OPTIONS")

	apiRouter.HandleFunc("/dashboard", statsHandler.Dashboard).Methods("GET")

	// WebSocket endpoint for live thread updates
	router.HandleFunc("/ws/threads/{id:[0-9]+}", wsHub.HandleWebSocket)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		appLog.Info("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("failed to start server", "error", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLog.Error("server forced to shutdown", "error", err)
	}

	appLog.Info("server shutdown gracefully")
}
