package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/robo-sapien-lab/avyra-edai/internal/handlers"
	"github.com/robo-sapien-lab/avyra-edai/internal/middleware"
)

type RouterConfig struct {
	AuthMiddleware  *middleware.AuthMiddleware
	MaterialHandler *handlers.MaterialHandler
	QuestionHandler *handlers.QuestionHandler
	QuizHandler     *handlers.QuizHandler
	ProgressHandler *handlers.ProgressHandler
	AllowOrigins    []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("avyra-edai"))

	allowOrigins := cfg.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())
	{
		api.POST("/materials/ingest", cfg.MaterialHandler.Ingest)

		api.POST("/questions/ask", cfg.QuestionHandler.Ask)
		api.GET("/questions", cfg.QuestionHandler.List)

		api.POST("/quizzes", cfg.QuizHandler.Generate)
		api.GET("/quizzes", cfg.QuizHandler.List)
		api.GET("/quizzes/:id", cfg.QuizHandler.Get)
		api.POST("/quizzes/:id/submit", cfg.QuizHandler.Submit)

		api.GET("/progress", cfg.ProgressHandler.Overview)
	}

	return router
}
