package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/robo-sapien-lab/avyra-edai/internal/apperr"
	"github.com/robo-sapien-lab/avyra-edai/internal/requestdata"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps the shared error kinds onto HTTP statuses. Anything
// unrecognized is a 500 with a generic code.
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, apperr.ErrAlreadyCompleted):
		RespondError(c, http.StatusConflict, "already_completed", err)
	case errors.Is(err, apperr.ErrInvalidAnswerSet):
		RespondError(c, http.StatusBadRequest, "invalid_answer_set", err)
	case errors.Is(err, apperr.ErrNoContext):
		RespondError(c, http.StatusUnprocessableEntity, "no_context", err)
	case errors.Is(err, apperr.ErrInsufficientContent):
		RespondError(c, http.StatusUnprocessableEntity, "insufficient_content", err)
	case errors.Is(err, apperr.ErrServiceUnavailable):
		RespondError(c, http.StatusBadGateway, "service_unavailable", err)
	case errors.Is(err, apperr.ErrInvalidResponse):
		RespondError(c, http.StatusBadGateway, "invalid_provider_response", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}

// ownerID pulls the verified identity set by the auth middleware; empty means
// the route was wired without RequireAuth, which is a bug.
func ownerID(c *gin.Context) string {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		return ""
	}
	return rd.OwnerID
}
