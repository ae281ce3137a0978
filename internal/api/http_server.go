package api

import (
	"strings"

	"photogallery/internal/config"
	"photogallery/internal/model"
	"photogallery/internal/service"
	"photogallery/internal/storage"
	"photogallery/internal/vision"
)

// HTTPHandler HTTP 请求处理器
type HTTPHandler struct {
	cfg               config.Config
	repo              model.Repository
	storage           storage.Storage
	storagePublicBase string

	// 服务层
	uploadService   *service.UploadService
	metadataService *service.MetadataService
	analysisService *service.AnalysisService
	searchService   *service.SearchService
}

// NewHTTPHandler 创建 HTTP 处理器实例
func NewHTTPHandler(cfg config.Config, repo model.Repository, store storage.Storage) (*HTTPHandler, error) {
	annotator, err := vision.NewAnnotator(cfg)
	if err != nil {
		return nil, err
	}

	analysisSvc := service.NewAnalysisService(repo, store, annotator, cfg.VisionConcurrency)

	return &HTTPHandler{
		cfg:               cfg,
		repo:              repo,
		storage:           store,
		storagePublicBase: normalisePublicBase(cfg.StoragePublicBaseURL),
		uploadService:     service.NewUploadService(repo, store, analysisSvc, cfg.UploadMaxBytes),
		metadataService:   service.NewMetadataService(repo),
		analysisService:   analysisSvc,
		searchService:     service.NewSearchService(repo),
	}, nil
}

// normalisePublicBase 规范化公共 URL 基础路径
func normalisePublicBase(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		trimmed = "/files"
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return strings.TrimRight(trimmed, "/")
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return strings.TrimRight(trimmed, "/")
}

// publicFileURL 拼接图片的公共访问地址。
func (h *HTTPHandler) publicFileURL(filePath string) string {
	return h.storagePublicBase + "/" + strings.TrimLeft(filePath, "/")
}
