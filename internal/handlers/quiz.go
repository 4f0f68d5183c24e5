package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/robo-sapien-lab/avyra-edai/internal/logger"
	"github.com/robo-sapien-lab/avyra-edai/internal/repos"
	"github.com/robo-sapien-lab/avyra-edai/internal/services"
)

type QuizHandler struct {
	log        *logger.Logger
	quizGenSvc services.QuizGenService
	gradingSvc services.GradingService
	quizRepo   repos.QuizRepo
}

func NewQuizHandler(log *logger.Logger, quizGenSvc services.QuizGenService, gradingSvc services.GradingService, quizRepo repos.QuizRepo) *QuizHandler {
	return &QuizHandler{
		log:        log.With("handler", "QuizHandler"),
		quizGenSvc: quizGenSvc,
		gradingSvc: gradingSvc,
		quizRepo:   quizRepo,
	}
}

// POST /api/quizzes
// Generates an adaptive quiz targeting the owner's weakest topics. The view
// returned here never contains correct indices or explanations.
func (h *QuizHandler) Generate(c *gin.Context) {
	view, err := h.quizGenSvc.Generate(c.Request.Context(), ownerID(c))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, view)
}

type submitRequest struct {
	Answers []int `json:"answers" binding:"required"`
}

// POST /api/quizzes/:id/submit
func (h *QuizHandler) Submit(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	result, err := h.gradingSvc.Submit(c.Request.Context(), ownerID(c), quizID, req.Answers)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

// GET /api/quizzes
func (h *QuizHandler) List(c *gin.Context) {
	quizzes, err := h.quizRepo.GetByOwner(c.Request.Context(), nil, ownerID(c))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	out := make([]services.QuizView, 0, len(quizzes))
	for _, quiz := range quizzes {
		out = append(out, services.MakeQuizView(quiz))
	}
	RespondOK(c, gin.H{"quizzes": out})
}

// GET /api/quizzes/:id
// Open quizzes stay sanitized; completed ones include the full record.
func (h *QuizHandler) Get(c *gin.Context) {
	quizID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	quiz, err := h.quizRepo.GetByID(c.Request.Context(), nil, ownerID(c), quizID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "not_found", err)
		return
	}
	if !quiz.Completed() {
		RespondOK(c, services.MakeQuizView(quiz))
		return
	}
	RespondOK(c, quiz)
}
