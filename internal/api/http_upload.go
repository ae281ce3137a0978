package api

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"photogallery/internal/apperr"
	"photogallery/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const uploadTimeout = 30 * time.Second

// UploadSingle 处理单文件上传，可随表单附带用户元数据字段。
func (h *HTTPHandler) UploadSingle(c *gin.Context) {
	if h.uploadService == nil {
		InternalError(c, "upload service not available")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, ErrCodeValidation, "file field is required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), uploadTimeout)
	defer cancel()

	img, err := h.uploadFile(ctx, fileHeader)
	if err != nil {
		RespondError(c, err)
		return
	}

	// 上传时可顺带写入用户元数据
	if req := userMetadataFromForm(c); !req.IsEmpty() {
		if updated, err := h.metadataService.ApplyUserEdit(ctx, img.ID, req); err != nil {
			logrus.WithError(err).WithField("image_id", img.ID).Warn("failed to apply upload metadata")
		} else {
			img = updated
		}
	}

	c.JSON(http.StatusCreated, entity.UploadResult{
		Success:             true,
		ImageID:             img.ID,
		Filename:            img.Filename,
		OriginalFilename:    img.OriginalFilename,
		FilePath:            h.publicFileURL(img.FilePath),
		NeedsManualMetadata: img.NeedsManualMetadata,
	})
}

// UploadBatch 处理批量上传。逐文件隔离失败，总是返回 200 和逐项结果。
func (h *HTTPHandler) UploadBatch(c *gin.Context) {
	if h.uploadService == nil {
		InternalError(c, "upload service not available")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		BadRequest(c, ErrCodeValidation, "invalid multipart form")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		BadRequest(c, ErrCodeValidation, "files field is required")
		return
	}

	resp := entity.BatchUploadResponse{
		TotalFiles: len(files),
		Results:    make([]entity.UploadResult, 0, len(files)),
	}

	for _, fileHeader := range files {
		ctx, cancel := context.WithTimeout(c.Request.Context(), uploadTimeout)
		img, err := h.uploadFile(ctx, fileHeader)
		cancel()

		if err != nil {
			resp.Failed++
			resp.Results = append(resp.Results, entity.UploadResult{
				Success:          false,
				OriginalFilename: fileHeader.Filename,
				Message:          uploadErrorMessage(err),
			})
			continue
		}

		resp.Succeeded++
		resp.Results = append(resp.Results, entity.UploadResult{
			Success:             true,
			ImageID:             img.ID,
			Filename:            img.Filename,
			OriginalFilename:    img.OriginalFilename,
			FilePath:            h.publicFileURL(img.FilePath),
			NeedsManualMetadata: img.NeedsManualMetadata,
		})
	}

	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) uploadFile(ctx context.Context, fileHeader *multipart.FileHeader) (*entity.DbImage, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, apperr.ErrValidation
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.uploadService.MaxBytes()+1))
	if err != nil {
		return nil, apperr.ErrValidation
	}

	return h.uploadService.Upload(ctx, data, fileHeader.Filename)
}

// userMetadataFromForm 从上传表单收集可选的用户元数据字段。
func userMetadataFromForm(c *gin.Context) entity.MetadataUpdateRequest {
	var req entity.MetadataUpdateRequest
	if name, ok := c.GetPostForm("name"); ok && name != "" {
		req.Name = &name
	}
	if desc, ok := c.GetPostForm("description"); ok && desc != "" {
		req.Description = &desc
	}
	if tags, ok := c.GetPostFormArray("tags"); ok && len(tags) > 0 {
		req.Tags = &tags
	}
	return req
}

func uploadErrorMessage(err error) string {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return err.Error()
	case errors.Is(err, apperr.ErrStorage):
		return "failed to store file"
	default:
		return "upload failed"
	}
}
