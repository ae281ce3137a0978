package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"photogallery/internal/apperr"
	"photogallery/internal/entity"
	"photogallery/internal/metadata"
	"photogallery/internal/model"
	"photogallery/internal/storage"
	"photogallery/internal/utils"

	"github.com/sirupsen/logrus"
)

// allowedExtensions 可上传的图片扩展名。
var allowedExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true,
	"bmp": true, "webp": true, "tiff": true, "tif": true,
}

// UploadService 处理图片上传：校验、写入对象存储、建档并触发 AI 分析。
type UploadService struct {
	repo     model.Repository
	storage  storage.Storage
	analysis *AnalysisService
	maxBytes int64
}

func NewUploadService(repo model.Repository, store storage.Storage, analysis *AnalysisService, maxBytes int64) *UploadService {
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}
	return &UploadService{
		repo:     repo,
		storage:  store,
		analysis: analysis,
		maxBytes: maxBytes,
	}
}

// Upload 保存单张图片。存储写入先行，建档失败时回收已写入的对象，
// 避免产生指向孤儿记录的数据库行。建档成功后异步触发视觉分析。
func (s *UploadService) Upload(ctx context.Context, data []byte, originalFilename string) (*entity.DbImage, error) {
	if s == nil || s.repo == nil || s.storage == nil {
		return nil, fmt.Errorf("upload service not initialised")
	}

	ext, mimeType, err := s.validate(data, originalFilename)
	if err != nil {
		return nil, err
	}

	filePath, err := s.storage.Save(ctx, data, storage.SaveOptions{
		Category:  "uploads",
		Extension: ext,
	})
	if err != nil {
		logrus.WithError(err).WithField("filename", originalFilename).Error("failed to persist upload")
		return nil, fmt.Errorf("%w: %v", apperr.ErrStorage, err)
	}

	img := &entity.DbImage{
		Filename:           path.Base(filePath),
		OriginalFilename:   originalFilename,
		FilePath:           filePath,
		FileSize:           int64(len(data)),
		MimeType:           mimeType,
		FileExtension:      ext,
		AIProcessingStatus: entity.AIStatusPending,
	}
	metadata.Reindex(img)

	if err := s.repo.CreateImage(ctx, img); err != nil {
		// 建档失败，尽力回收刚写入的对象
		if delErr := s.storage.Delete(ctx, filePath); delErr != nil {
			logrus.WithError(delErr).WithField("file_path", filePath).Warn("failed to clean up orphaned upload")
		}
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"image_id":  img.ID,
		"filename":  originalFilename,
		"file_size": img.FileSize,
		"file_path": filePath,
	}).Info("image uploaded")

	if s.analysis != nil {
		s.analysis.AnalyzeAsync(img.ID)
	}

	return img, nil
}

// Delete 删除图片档案及其存储对象。对象缺失不阻断删除。
func (s *UploadService) Delete(ctx context.Context, imageID uint) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("upload service not initialised")
	}

	img, err := s.repo.GetImage(ctx, imageID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteImage(ctx, imageID); err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, img.FilePath); err != nil && err != storage.ErrObjectNotFound {
		logrus.WithError(err).WithFields(logrus.Fields{
			"image_id":  imageID,
			"file_path": img.FilePath,
		}).Warn("failed to delete stored object")
	}

	logrus.WithField("image_id", imageID).Info("image deleted")
	return nil
}

// MaxBytes 返回单个文件的大小上限。
func (s *UploadService) MaxBytes() int64 {
	return s.maxBytes
}

func (s *UploadService) validate(data []byte, originalFilename string) (ext, mimeType string, err error) {
	if len(data) == 0 {
		return "", "", fmt.Errorf("%w: empty file", apperr.ErrValidation)
	}
	if int64(len(data)) > s.maxBytes {
		return "", "", fmt.Errorf("%w: file exceeds %d bytes", apperr.ErrValidation, s.maxBytes)
	}
	if strings.TrimSpace(originalFilename) == "" {
		return "", "", fmt.Errorf("%w: missing filename", apperr.ErrValidation)
	}

	ext = utils.ExtensionFromFilename(originalFilename)
	if ext == "" {
		// 扩展名缺失时按字节嗅探
		ext = utils.ExtensionFromMime(utils.DetectImageMime(data))
	}
	if ext == "jpeg" {
		ext = "jpg"
	}
	if !allowedExtensions[ext] {
		return "", "", fmt.Errorf("%w: unsupported file type .%s", apperr.ErrValidation, ext)
	}

	mimeType = utils.DetectImageMime(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", "", fmt.Errorf("%w: payload is not an image", apperr.ErrValidation)
	}

	return ext, mimeType, nil
}
