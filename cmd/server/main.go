package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/pdtechteam/quiz-generator/internal/config"
	"github.com/pdtechteam/quiz-generator/internal/generation"
	"github.com/pdtechteam/quiz-generator/internal/handler"
	"github.com/pdtechteam/quiz-generator/internal/middleware"
	pgRepo "github.com/pdtechteam/quiz-generator/internal/repository/postgres"
	redisRepo "github.com/pdtechteam/quiz-generator/internal/repository/redis"
	"github.com/pdtechteam/quiz-generator/internal/session"
	"github.com/pdtechteam/quiz-generator/pkg/database"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("loading configuration from %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("failed to load config: %v", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("failed to connect to database: %v", err)
		os.Exit(1)
	}

	if err := database.MigrateDB(db); err != nil {
		log.Printf("failed to migrate database: %v", err)
		os.Exit(1)
	}

	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("failed to connect to redis: %v", err)
		os.Exit(1)
	}
	log.Println("successfully connected to redis")

	quizRepo := pgRepo.NewQuizRepo(db)
	sessionRepo := pgRepo.NewSessionRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("failed to initialize cache repo: %v", err)
		os.Exit(1)
	}
	reactionLimiter := redisRepo.NewReactionLimiter(redisClient)

	generator := generation.NewAdapter(cacheRepo, cfg.Generation.OpenAIAPIKey, cfg.Generation.OpenAIAPIBase, cfg.Generation.OpenAIModel)

	runtimeConfig := session.DefaultConfig()
	runtimeConfig.RevealDelay = time.Duration(cfg.Runtime.RevealDelaySec) * time.Second
	runtimeConfig.ResultsDisplay = time.Duration(cfg.Runtime.ResultsDisplaySec) * time.Second
	runtimeConfig.HeartbeatScan = time.Duration(cfg.Runtime.HeartbeatScanSec) * time.Second
	runtimeConfig.HeartbeatTimeout = time.Duration(cfg.Runtime.HeartbeatTimeoutSec) * time.Second

	hub := session.NewHub(session.Deps{
		SessionRepo: sessionRepo,
		QuizRepo:    quizRepo,
		Limiter:     reactionLimiter,
		Config:      runtimeConfig,
	})

	quizHandler := handler.NewQuizHandler(quizRepo, generator)
	sessionHandler := handler.NewSessionHandler(sessionRepo, quizRepo, hub, cfg.Server.PublicBaseURL)
	playerHandler := handler.NewPlayerHandler(sessionRepo)
	answerHandler := handler.NewAnswerHandler(sessionRepo)
	wsHandler := handler.NewWSHandler(hub)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	isProduction := gin.Mode() == gin.ReleaseMode

	router := gin.Default()

	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("warning: failed to set trusted proxies: %v", err)
		}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		quizzes := api.Group("/quizzes")
		{
			quizzes.GET("", quizHandler.ListQuizzes)
			quizzes.POST("", quizHandler.CreateQuiz)
			quizzes.POST("/generate", rateLimiter.Limit(middleware.GenerationRateLimitConfig()), quizHandler.GenerateQuiz)
			quizzes.GET("/:id", middleware.ExtractUintParam("id", "quizID"), quizHandler.GetQuiz)
			quizzes.GET("/:id/questions", middleware.ExtractUintParam("id", "quizID"), quizHandler.GetQuestions)
			quizzes.GET("/:id/preview", middleware.ExtractUintParam("id", "quizID"), quizHandler.GetPreview)
		}

		sessions := api.Group("/sessions")
		{
			sessions.POST("", rateLimiter.Limit(middleware.SessionCreateRateLimitConfig()), sessionHandler.CreateSession)
			sessions.GET("/:code", sessionHandler.GetSession)
			sessions.GET("/:code/state", sessionHandler.GetState)
			sessions.GET("/:code/current_question", sessionHandler.GetCurrentQuestion)
			sessions.GET("/:code/leaderboard", sessionHandler.GetLeaderboard)
			sessions.GET("/:code/disconnected_players", sessionHandler.GetDisconnectedPlayers)
			sessions.GET("/:code/qrcode", sessionHandler.GetQRCode)
		}

		players := api.Group("/players")
		{
			players.POST("", playerHandler.CreatePlayer)
			players.POST("/:id/become_host", playerHandler.BecomeHost)
			players.POST("/:id/heartbeat", playerHandler.Heartbeat)
		}

		answers := api.Group("/answers")
		{
			answers.GET("/by_session", answerHandler.BySession)
			answers.GET("/by_player", answerHandler.ByPlayer)
		}
	}

	router.GET("/ws/game/:code", middleware.ExtractSessionCode("code", "sessionCode"), wsHandler.HandleConnection)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("server exited properly")
}
