package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/robo-sapien-lab/avyra-edai/internal/logger"
	"github.com/robo-sapien-lab/avyra-edai/internal/services"
)

type ProgressHandler struct {
	log        *logger.Logger
	masterySvc services.MasteryService
}

func NewProgressHandler(log *logger.Logger, masterySvc services.MasteryService) *ProgressHandler {
	return &ProgressHandler{
		log:        log.With("handler", "ProgressHandler"),
		masterySvc: masterySvc,
	}
}

// GET /api/progress
// Mastery rows plus derived dashboard aggregates.
func (h *ProgressHandler) Overview(c *gin.Context) {
	overview, err := h.masterySvc.Overview(c.Request.Context(), ownerID(c))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, overview)
}
