package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/robo-sapien-lab/avyra-edai/internal/logger"
	"github.com/robo-sapien-lab/avyra-edai/internal/services"
)

type MaterialHandler struct {
	log       *logger.Logger
	ingestSvc services.IngestService
}

func NewMaterialHandler(log *logger.Logger, ingestSvc services.IngestService) *MaterialHandler {
	return &MaterialHandler{
		log:       log.With("handler", "MaterialHandler"),
		ingestSvc: ingestSvc,
	}
}

type ingestRequest struct {
	UploadID string  `json:"upload_id" binding:"required"`
	Text     string  `json:"text" binding:"required"`
	Subject  *string `json:"subject"`
	Topic    *string `json:"topic"`
	Subtopic *string `json:"subtopic"`
}

// POST /api/materials/ingest
// Receives already-extracted plain text for one upload; binary parsing and
// object storage live upstream.
func (h *MaterialHandler) Ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}

	count, err := h.ingestSvc.Ingest(c.Request.Context(), ownerID(c), services.IngestInput{
		UploadID: req.UploadID,
		Text:     req.Text,
		Subject:  req.Subject,
		Topic:    req.Topic,
		Subtopic: req.Subtopic,
	})
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"upload_id": req.UploadID, "chunks": count})
}
