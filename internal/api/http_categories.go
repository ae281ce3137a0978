package api

import (
	"context"
	"net/http"
	"strings"

	"photogallery/internal/entity"
	"photogallery/internal/entity/converter"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ListCategories 列出全部分类。
func (h *HTTPHandler) ListCategories(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	categories, err := h.repo.ListCategories(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to list categories")
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.CategoryListResponse{Categories: converter.CategoriesToViews(categories)})
}

// CreateCategory 手动创建分类。
func (h *HTTPHandler) CreateCategory(c *gin.Context) {
	var req entity.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		BadRequest(c, ErrCodeValidation, "category name is required")
		return
	}

	category := &entity.DbCategory{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	if err := h.repo.CreateCategory(ctx, category); err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entity.CategoryDetailResponse{Category: converter.CategoryToView(category)})
}

// GetCategory 返回单个分类。
func (h *HTTPHandler) GetCategory(c *gin.Context) {
	categoryID, ok := parseIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	category, err := h.repo.GetCategory(ctx, categoryID)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.CategoryDetailResponse{Category: converter.CategoryToView(category)})
}

// DeleteCategory 删除分类。仍被图片引用时返回 409。
func (h *HTTPHandler) DeleteCategory(c *gin.Context) {
	categoryID, ok := parseIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	if err := h.repo.DeleteCategory(ctx, categoryID); err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true, "category_id": categoryID})
}
