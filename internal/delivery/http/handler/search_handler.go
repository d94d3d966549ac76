package handler

import (
	"log/slog"
	"net/http"

	"github.com/gdugdh24/introductions-backend/internal/usecase/search"
	"github.com/gin-gonic/gin"
)

type SearchHandler struct {
	searchUseCase *search.SearchUseCase
	logger        *slog.Logger
}

func NewSearchHandler(searchUseCase *search.SearchUseCase, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		searchUseCase: searchUseCase,
		logger:        logger,
	}
}

type quickSearchQuery struct {
	Q        string `form:"q"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// Search handles GET /search
// @Summary Search candidates
// @Description Filtered, ranked and paginated discovery. Falls back to a relaxed query when nothing matches exactly.
// @Tags search
// @Security BearerAuth
// @Produce json
// @Success 200 {object} search.Result
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /search [get]
func (h *SearchHandler) Search(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var criteria search.Criteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}

	result, err := h.searchUseCase.Search(c.Request.Context(), actor, criteria)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// QuickSearch handles GET /search/quick
// @Summary Free-text search
// @Tags search
// @Security BearerAuth
// @Produce json
// @Param q query string true "Search text"
// @Success 200 {object} search.Result
// @Failure 400 {object} ErrorResponse
// @Router /search/quick [get]
func (h *SearchHandler) QuickSearch(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var q quickSearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, h.logger, bindError(err))
		return
	}

	result, err := h.searchUseCase.QuickSearch(c.Request.Context(), actor, q.Q, q.Page, q.PageSize)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
