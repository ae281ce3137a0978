package api

import (
	"context"
	"net/http"
	"strconv"

	"photogallery/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Search 执行多条件检索。
func (h *HTTPHandler) Search(c *gin.Context) {
	var req entity.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	resp, err := h.searchService.Search(ctx, &req)
	if err != nil {
		logrus.WithError(err).Error("search failed")
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Suggestions 返回标签建议。
func (h *HTTPHandler) Suggestions(c *gin.Context) {
	query := c.Query("q")
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	resp, err := h.searchService.Suggestions(ctx, query, limit)
	if err != nil {
		logrus.WithError(err).Error("failed to build suggestions")
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SearchStats 返回图库统计。
func (h *HTTPHandler) SearchStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	stats, err := h.searchService.Stats(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to load stats")
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
