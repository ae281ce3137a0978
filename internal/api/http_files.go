package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"photogallery/internal/storage"
	"photogallery/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DownloadFile 以原始文件名流式返回图片字节。
func (h *HTTPHandler) DownloadFile(c *gin.Context) {
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

	data, err := h.storage.Load(ctx, img.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			NotFound(c, ErrCodeFileNotFound, "stored file not found")
			return
		}
		logrus.WithError(err).WithField("image_id", imageID).Error("failed to load stored file")
		InternalError(c, "failed to load file")
		return
	}

	mimeType := img.MimeType
	if mimeType == "" {
		mimeType = utils.MimeFromExtension(img.FileExtension)
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", img.OriginalFilename))
	c.Data(http.StatusOK, mimeType, data)
}

// FileInfo 返回图片的文件级信息。
func (h *HTTPHandler) FileInfo(c *gin.Context) {
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

	c.JSON(http.StatusOK, gin.H{
		"image_id":          img.ID,
		"filename":          img.Filename,
		"original_filename": img.OriginalFilename,
		"file_path":         h.publicFileURL(img.FilePath),
		"file_size":         img.FileSize,
		"mime_type":         img.MimeType,
		"file_extension":    img.FileExtension,
		"created_at":        img.CreatedAt,
	})
}

// FileStats 返回图库级统计。
func (h *HTTPHandler) FileStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	stats, err := h.searchService.Stats(ctx)
	if err != nil {
		logrus.WithError(err).Error("failed to load storage stats")
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
