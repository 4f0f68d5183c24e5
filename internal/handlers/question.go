package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/robo-sapien-lab/avyra-edai/internal/logger"
	"github.com/robo-sapien-lab/avyra-edai/internal/repos"
	"github.com/robo-sapien-lab/avyra-edai/internal/services"
)

type QuestionHandler struct {
	log          *logger.Logger
	answerSvc    services.AnswerService
	questionRepo repos.QuestionRepo
}

func NewQuestionHandler(log *logger.Logger, answerSvc services.AnswerService, questionRepo repos.QuestionRepo) *QuestionHandler {
	return &QuestionHandler{
		log:          log.With("handler", "QuestionHandler"),
		answerSvc:    answerSvc,
		questionRepo: questionRepo,
	}
}

type askRequest struct {
	Question string `json:"question" binding:"required"`
}

// POST /api/questions/ask
func (h *QuestionHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	result, err := h.answerSvc.Answer(c.Request.Context(), ownerID(c), req.Question)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, result)
}

// GET /api/questions
// Question history, newest first. Provenance excerpts stay bounded; the full
// chunk text is only in the stored record.
func (h *QuestionHandler) List(c *gin.Context) {
	questions, err := h.questionRepo.GetByOwner(c.Request.Context(), nil, ownerID(c))
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	out := make([]gin.H, 0, len(questions))
	for _, q := range questions {
		out = append(out, gin.H{
			"id":            q.ID,
			"question_text": q.QuestionText,
			"answer_text":   q.AnswerText,
			"subject":       q.Subject,
			"topic":         q.Topic,
			"subtopic":      q.Subtopic,
			"created_at":    q.CreatedAt,
		})
	}
	RespondOK(c, gin.H{"questions": out})
}
