package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/robo-sapien-lab/avyra-edai/internal/db"
	"github.com/robo-sapien-lab/avyra-edai/internal/handlers"
	"github.com/robo-sapien-lab/avyra-edai/internal/logger"
	"github.com/robo-sapien-lab/avyra-edai/internal/middleware"
	"github.com/robo-sapien-lab/avyra-edai/internal/observability"
	"github.com/robo-sapien-lab/avyra-edai/internal/repos"
	"github.com/robo-sapien-lab/avyra-edai/internal/server"
	"github.com/robo-sapien-lab/avyra-edai/internal/services"
	"github.com/robo-sapien-lab/avyra-edai/internal/utils"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	shutdownTracing := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "avyra-edai",
		Environment: logMode,
	})
	if shutdownTracing != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracing(ctx)
		}()
	}

	// Env
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	maxChunkChars := utils.GetEnvAsInt("MAX_CHUNK_CHARS", services.DefaultMaxChunkChars, log)
	port := utils.GetEnv("PORT", "8080", log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos...")
	chunkRepo := repos.NewChunkRepo(thePG, log)
	questionRepo := repos.NewQuestionRepo(thePG, log)
	quizRepo := repos.NewQuizRepo(thePG, log)
	progressRepo := repos.NewProgressRepo(thePG, log)

	// Services
	log.Info("Setting up services...")
	aiClient, err := services.NewOpenAIClient(log)
	if err != nil {
		log.Error("Could not init OpenAIClient", "error", err)
		os.Exit(1)
	}
	ingestService := services.NewIngestService(log, aiClient, chunkRepo, maxChunkChars)
	retrievalService := services.NewRetrievalService(log, chunkRepo)
	answerService := services.NewAnswerService(log, aiClient, retrievalService, questionRepo)
	masteryService := services.NewMasteryService(log, progressRepo)
	quizGenService := services.NewQuizGenService(log, aiClient, chunkRepo, quizRepo, progressRepo)
	gradingService := services.NewGradingService(log, quizRepo, masteryService)

	// Handlers + router
	log.Info("Setting up handlers and router...")
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:  middleware.NewAuthMiddleware(log, jwtSecretKey),
		MaterialHandler: handlers.NewMaterialHandler(log, ingestService),
		QuestionHandler: handlers.NewQuestionHandler(log, answerService, questionRepo),
		QuizHandler:     handlers.NewQuizHandler(log, quizGenService, gradingService, quizRepo),
		ProgressHandler: handlers.NewProgressHandler(log, masteryService),
	})

	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
