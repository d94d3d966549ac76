package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gdugdh24/introductions-backend/internal/delivery/http/middleware"
	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/gdugdh24/introductions-backend/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ErrorResponse represents error response
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   domain.Kind       `json:"code"`
	Reason domain.DenyReason `json:"reason,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// SuccessResponse represents success response
type SuccessResponse struct {
	Message string `json:"message"`
}

var statusByKind = map[domain.Kind]int{
	domain.KindNotFound:          http.StatusNotFound,
	domain.KindForbidden:         http.StatusForbidden,
	domain.KindIneligiblePair:    http.StatusForbidden,
	domain.KindProfileIncomplete: http.StatusUnprocessableEntity,
	domain.KindInvalidTransition: http.StatusConflict,
	domain.KindDuplicateActive:   http.StatusConflict,
	domain.KindConflict:          http.StatusConflict,
	domain.KindValidation:        http.StatusBadRequest,
	domain.KindUnauthorized:      http.StatusUnauthorized,
}

// respondError translates a core error into a status code and body.
// Internal errors are logged and their text is not sent.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	kind := domain.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  domain.KindInternal,
		})
		return
	}

	body := ErrorResponse{Error: err.Error(), Code: kind}
	var ee *domain.EligibilityError
	if errors.As(err, &ee) {
		body.Reason = ee.Reason
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		body.Error = domain.ErrValidation.Error()
		body.Fields = ve.Fields
	}
	c.JSON(status, body)
}

// bindError turns a gin binding failure into a validation error.
func bindError(err error) error {
	if converted := usecase.ValidationError(err); errors.Is(converted, domain.ErrValidation) {
		return converted
	}
	return domain.NewValidationError("body", "malformed request")
}

func actorOrAbort(c *gin.Context) (domain.Actor, bool) {
	actor, ok := middleware.Actor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error: "unauthorized",
			Code:  domain.KindUnauthorized,
		})
	}
	return actor, ok
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:  "invalid " + name,
			Code:   domain.KindValidation,
			Fields: map[string]string{name: "must be a uuid"},
		})
		return uuid.Nil, false
	}
	return id, true
}
