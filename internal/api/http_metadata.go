package api

import (
	"context"
	"errors"
	"net/http"

	"photogallery/internal/apperr"
	"photogallery/internal/entity"
	"photogallery/internal/entity/converter"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UpdateMetadata 写入用户元数据编辑。
func (h *HTTPHandler) UpdateMetadata(c *gin.Context) {
	imageID, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req entity.MetadataUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	img, err := h.metadataService.ApplyUserEdit(ctx, imageID, req)
	if err != nil {
		// 编辑载荷里的分类引用错误按请求校验失败处理
		if errors.Is(err, apperr.ErrCategoryNotFound) {
			BadRequest(c, ErrCodeCategoryNotFound, "category not found")
			return
		}
		RespondError(c, err)
		return
	}

	names, err := h.categoryNamesFor(ctx, img)
	if err != nil {
		logrus.WithError(err).WithField("image_id", imageID).Warn("failed to load category names")
	}

	c.JSON(http.StatusOK, entity.ImageDetailResponse{Image: converter.ImageToView(img, names)})
}

// ResetMetadata 清空整组用户元数据，回落到 AI 值或原始文件名。
func (h *HTTPHandler) ResetMetadata(c *gin.Context) {
	imageID, ok := parseIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	img, err := h.metadataService.ResetUserEdit(ctx, imageID)
	if err != nil {
		RespondError(c, err)
		return
	}

	names, err := h.categoryNamesFor(ctx, img)
	if err != nil {
		logrus.WithError(err).WithField("image_id", imageID).Warn("failed to load category names")
	}

	c.JSON(http.StatusOK, entity.ImageDetailResponse{Image: converter.ImageToView(img, names)})
}

// BulkUpdateMetadata 对多张图片套用同一份编辑，逐条返回结果。
func (h *HTTPHandler) BulkUpdateMetadata(c *gin.Context) {
	var req entity.BulkMetadataUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	resp, err := h.metadataService.BulkApplyUserEdit(ctx, req)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Reanalyze 清空旧 AI 结果并重新排队分析。
func (h *HTTPHandler) Reanalyze(c *gin.Context) {
	imageID, ok := parseIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	img, err := h.analysisService.Reanalyze(ctx, imageID)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"image_id":             img.ID,
		"ai_processing_status": img.AIProcessingStatus,
	})
}

// NeedsAttention 分页列出仍需人工补充元数据的图片。
func (h *HTTPHandler) NeedsAttention(c *gin.Context) {
	var req entity.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, ErrCodeValidation, "invalid query parameters")
		return
	}
	needs := true
	req.NeedsManualMetadata = &needs

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	resp, err := h.searchService.Search(ctx, &req)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
