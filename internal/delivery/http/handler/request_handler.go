package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gdugdh24/introductions-backend/internal/domain"
	"github.com/gdugdh24/introductions-backend/internal/usecase/introduction"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RequestHandler struct {
	introductionUseCase *introduction.IntroductionUseCase
	logger              *slog.Logger
}

func NewRequestHandler(introductionUseCase *introduction.IntroductionUseCase, logger *slog.Logger) *RequestHandler {
	return &RequestHandler{
		introductionUseCase: introductionUseCase,
		logger:              logger,
	}
}

// SendRequest handles POST /requests
// @Summary Send an introduction request
// @Tags requests
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body introduction.SendRequest true "Receiver and message"
// @Success 201 {object} domain.IntroductionRequest
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /requests [post]
func (h *RequestHandler) SendRequest(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req introduction.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}

	created, err := h.introductionUseCase.SendRequest(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListSent handles GET /requests/sent
// @Summary List requests I sent
// @Tags requests
// @Security BearerAuth
// @Produce json
// @Param status query string false "Status filter"
// @Success 200 {object} introduction.RequestPage
// @Router /requests/sent [get]
func (h *RequestHandler) ListSent(c *gin.Context) {
	h.list(c, h.introductionUseCase.ListSent)
}

// ListReceived handles GET /requests/received
// @Summary List requests I received
// @Tags requests
// @Security BearerAuth
// @Produce json
// @Param status query string false "Status filter"
// @Success 200 {object} introduction.RequestPage
// @Router /requests/received [get]
func (h *RequestHandler) ListReceived(c *gin.Context) {
	h.list(c, h.introductionUseCase.ListReceived)
}

type listFunc func(ctx context.Context, actor domain.Actor, q introduction.ListQuery) (*introduction.RequestPage, error)

func (h *RequestHandler) list(c *gin.Context, fn listFunc) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var q introduction.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}

	page, err := fn(c.Request.Context(), actor, q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetRequest handles GET /requests/:id
// @Summary Get a request
// @Description Visible to both parties. The receiver's first view marks it read.
// @Tags requests
// @Security BearerAuth
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} domain.IntroductionRequest
// @Failure 404 {object} ErrorResponse
// @Router /requests/{id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	h.act(c, func(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.IntroductionRequest, error) {
		return h.introductionUseCase.GetRequest(ctx, actor, id)
	})
}

// HideRequest handles DELETE /requests/:id
// @Summary Hide a finished request
// @Tags requests
// @Security BearerAuth
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /requests/{id} [delete]
func (h *RequestHandler) HideRequest(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.introductionUseCase.HideRequest(c.Request.Context(), actor, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "request hidden"})
}

// AcceptRequest handles POST /requests/:id/accept
// @Summary Accept a pending request
// @Description Creates the chat room and notifies the sender in the background
// @Tags requests
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body introduction.AcceptRequest false "Reply and contact details"
// @Success 200 {object} domain.IntroductionRequest
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /requests/{id}/accept [post]
func (h *RequestHandler) AcceptRequest(c *gin.Context) {
	var req introduction.AcceptRequest
	if !h.bindOptional(c, &req) {
		return
	}
	h.act(c, func(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.IntroductionRequest, error) {
		return h.introductionUseCase.AcceptRequest(ctx, actor, id, &req)
	})
}

// RejectRequest handles POST /requests/:id/reject
// @Summary Reject a pending request
// @Tags requests
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body introduction.RejectRequest false "Reason and message"
// @Success 200 {object} domain.IntroductionRequest
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /requests/{id}/reject [post]
func (h *RequestHandler) RejectRequest(c *gin.Context) {
	var req introduction.RejectRequest
	if !h.bindOptional(c, &req) {
		return
	}
	h.act(c, func(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.IntroductionRequest, error) {
		return h.introductionUseCase.RejectRequest(ctx, actor, id, &req)
	})
}

// CancelRequest handles POST /requests/:id/cancel
// @Summary Withdraw a pending request
// @Tags requests
// @Security BearerAuth
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} domain.IntroductionRequest
// @Failure 409 {object} ErrorResponse
// @Router /requests/{id}/cancel [post]
func (h *RequestHandler) CancelRequest(c *gin.Context) {
	h.act(c, h.introductionUseCase.CancelRequest)
}

// MarkRead handles POST /requests/:id/read
// @Summary Mark a received request as read
// @Tags requests
// @Security BearerAuth
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} domain.IntroductionRequest
// @Router /requests/{id}/read [post]
func (h *RequestHandler) MarkRead(c *gin.Context) {
	h.act(c, h.introductionUseCase.MarkRead)
}

// ArrangeMeeting handles POST /requests/:id/meeting
// @Summary Propose a meeting
// @Tags requests
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body introduction.ArrangeMeetingRequest true "Date and location"
// @Success 200 {object} domain.IntroductionRequest
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /requests/{id}/meeting [post]
func (h *RequestHandler) ArrangeMeeting(c *gin.Context) {
	var req introduction.ArrangeMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}
	h.act(c, func(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.IntroductionRequest, error) {
		return h.introductionUseCase.ArrangeMeeting(ctx, actor, id, &req)
	})
}

// RespondToMeeting handles POST /requests/:id/meeting/respond
// @Summary Confirm or cancel the proposed meeting
// @Tags requests
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body introduction.RespondMeetingRequest true "Decision"
// @Success 200 {object} domain.IntroductionRequest
// @Failure 409 {object} ErrorResponse
// @Router /requests/{id}/meeting/respond [post]
func (h *RequestHandler) RespondToMeeting(c *gin.Context) {
	var req introduction.RespondMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}
	h.act(c, func(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.IntroductionRequest, error) {
		return h.introductionUseCase.RespondToMeeting(ctx, actor, id, &req)
	})
}

// RecordGuardianApproval handles POST /requests/:id/guardian-approval
// @Summary Record the guardian's decision
// @Tags requests
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param request body introduction.GuardianDecisionRequest true "Decision"
// @Success 200 {object} domain.IntroductionRequest
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /requests/{id}/guardian-approval [post]
func (h *RequestHandler) RecordGuardianApproval(c *gin.Context) {
	var req introduction.GuardianDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}
	h.act(c, func(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.IntroductionRequest, error) {
		return h.introductionUseCase.RecordGuardianApproval(ctx, actor, id, &req)
	})
}

type actFunc func(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.IntroductionRequest, error)

func (h *RequestHandler) act(c *gin.Context, fn actFunc) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	request, err := fn(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, request)
}

// bindOptional binds a JSON body when one was sent.
func (h *RequestHandler) bindOptional(c *gin.Context, dst interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, h.logger, bindError(err))
		return false
	}
	return true
}
