package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"photogallery/internal/entity"
	"photogallery/internal/entity/converter"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const queryTimeout = 10 * time.Second

// ListImages 分页列出图片，支持分类与待补元数据过滤。
func (h *HTTPHandler) ListImages(c *gin.Context) {
	var req entity.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, ErrCodeValidation, "invalid query parameters")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	resp, err := h.searchService.Search(ctx, &req)
	if err != nil {
		logrus.WithError(err).Error("failed to list images")
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.ImageListResponse{
		Images: resp.Images,
		Meta: entity.Meta{
			Page:       int64(resp.Page),
			PageSize:   int64(resp.Limit),
			Total:      resp.TotalCount,
			TotalPages: resp.TotalPages,
			HasNext:    resp.HasNext,
			HasPrev:    resp.HasPrev,
		},
	})
}

// GetImage 返回单张图片的完整视图。
func (h *HTTPHandler) GetImage(c *gin.Context) {
	imageID, ok := parseIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	img, err := h.repo.GetImage(ctx, imageID)
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

// DeleteImage 删除图片档案与存储对象。
func (h *HTTPHandler) DeleteImage(c *gin.Context) {
	imageID, ok := parseIDParam(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	if err := h.uploadService.Delete(ctx, imageID); err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true, "image_id": imageID})
}

func (h *HTTPHandler) categoryNamesFor(ctx context.Context, img *entity.DbImage) (map[uint]string, error) {
	idSet := make(map[uint]bool)
	for _, id := range []*uint{img.EffectiveCategoryID, img.UserCategoryID, img.AICategoryID} {
		if id != nil {
			idSet[*id] = true
		}
	}
	if len(idSet) == 0 {
		return nil, nil
	}
	ids := make([]uint, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	return h.repo.CategoryNameMap(ctx, ids)
}

// parseIDParam 解析路径中的 :id 参数，非法时直接写响应。
func parseIDParam(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		BadRequest(c, ErrCodeValidation, "invalid id")
		return 0, false
	}
	return uint(id), true
}
