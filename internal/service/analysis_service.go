package service

import (
	"context"
	"fmt"
	"time"

	"photogallery/internal/apperr"
	"photogallery/internal/entity"
	"photogallery/internal/entity/common"
	"photogallery/internal/metadata"
	"photogallery/internal/model"
	"photogallery/internal/storage"
	"photogallery/internal/vision"

	"github.com/sirupsen/logrus"
)

const analysisTimeout = 5 * time.Minute

// AnalysisService 调度视觉分析：标记处理中、调用标注器、落库分析结果。
// 并发分析数由信号量约束，避免批量上传时压垮上游接口。
type AnalysisService struct {
	repo      model.Repository
	storage   storage.Storage
	annotator vision.Annotator
	sem       chan struct{}
}

func NewAnalysisService(repo model.Repository, store storage.Storage, annotator vision.Annotator, concurrency int) *AnalysisService {
	if concurrency <= 0 {
		concurrency = 3
	}
	return &AnalysisService{
		repo:      repo,
		storage:   store,
		annotator: annotator,
		sem:       make(chan struct{}, concurrency),
	}
}

// AnalyzeAsync 在后台分析图片，失败只落库不向上抛。
func (s *AnalysisService) AnalyzeAsync(imageID uint) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), analysisTimeout)
		defer cancel()
		if err := s.Analyze(ctx, imageID); err != nil {
			logrus.WithError(err).WithField("image_id", imageID).Error("background image analysis failed")
		}
	}()
}

// Analyze 对单张图片执行一轮完整的视觉分析。失败时将图片标记为 failed
// 并记录错误信息，同时返回 apperr.ErrAnalysisFailed 供同步调用方映射。
func (s *AnalysisService) Analyze(ctx context.Context, imageID uint) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("analysis service not initialised")
	}

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return ctx.Err()
	}

	img, err := s.markProcessing(ctx, imageID)
	if err != nil {
		return err
	}

	analysis, err := s.runAnnotator(ctx, img)
	if err != nil {
		if markErr := s.markFailed(ctx, imageID, err); markErr != nil {
			logrus.WithError(markErr).WithField("image_id", imageID).Error("failed to record analysis failure")
		}
		logrus.WithError(err).WithField("image_id", imageID).Warn("image analysis failed")
		return fmt.Errorf("%w: %v", apperr.ErrAnalysisFailed, err)
	}

	if err := s.applyResult(ctx, imageID, analysis); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"image_id":   imageID,
		"confidence": analysis.ConfidenceScore,
		"category":   analysis.CategoryName,
	}).Info("image analysis completed")
	return nil
}

// Reanalyze 重新排队分析：清空旧的 AI 结果并回到 pending，随后异步执行。
// 用户元数据不受影响。
func (s *AnalysisService) Reanalyze(ctx context.Context, imageID uint) (*entity.DbImage, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("analysis service not initialised")
	}

	img, err := s.repo.UpdateImage(ctx, imageID, func(img *entity.DbImage) error {
		img.AIName = ""
		img.AIDescription = ""
		img.AITags = nil
		img.AICategoryID = nil
		img.AIConfidenceScore = nil
		img.AIObjects = nil
		img.AISceneDescription = ""
		img.AIColorPalette = nil
		img.AIEmotions = nil
		img.AIProcessingStatus = entity.AIStatusPending
		img.AIErrorMessage = ""
		metadata.Reindex(img)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.AnalyzeAsync(imageID)
	return img, nil
}

func (s *AnalysisService) markProcessing(ctx context.Context, imageID uint) (*entity.DbImage, error) {
	return s.repo.UpdateImage(ctx, imageID, func(img *entity.DbImage) error {
		img.AIProcessingStatus = entity.AIStatusProcessing
		img.AIErrorMessage = ""
		metadata.Reindex(img)
		return nil
	})
}

func (s *AnalysisService) markFailed(ctx context.Context, imageID uint, cause error) error {
	_, err := s.repo.UpdateImage(ctx, imageID, func(img *entity.DbImage) error {
		img.AIProcessingStatus = entity.AIStatusFailed
		img.AIErrorMessage = cause.Error()
		metadata.Reindex(img)
		return nil
	})
	return err
}

func (s *AnalysisService) runAnnotator(ctx context.Context, img *entity.DbImage) (*vision.Analysis, error) {
	if s.annotator == nil {
		return nil, vision.ErrAnalysisDisabled
	}

	data, err := s.storage.Load(ctx, img.FilePath)
	if err != nil {
		return nil, fmt.Errorf("load image payload: %w", err)
	}

	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	names := make([]string, 0, len(categories))
	for _, cat := range categories {
		names = append(names, cat.Name)
	}

	return s.annotator.Analyze(ctx, vision.AnalyzeRequest{
		Data:               data,
		MimeType:           img.MimeType,
		ExistingCategories: names,
	})
}

// applyResult 落库分析结果。分类名在事务外解析（含按需创建），事务内只写
// AI 元数据组：用户组字段不被触碰，期间发生的用户编辑经由合并规则自然胜出。
func (s *AnalysisService) applyResult(ctx context.Context, imageID uint, analysis *vision.Analysis) error {
	var categoryID *uint
	if analysis.CategoryName != "" {
		category, err := s.repo.GetOrCreateCategoryByName(ctx, analysis.CategoryName, analysis.CategoryDescription, analysis.NewCategory)
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"image_id": imageID,
				"category": analysis.CategoryName,
			}).Warn("failed to resolve ai category, keeping image uncategorised")
		} else {
			categoryID = &category.ID
		}
	}

	_, err := s.repo.UpdateImage(ctx, imageID, func(img *entity.DbImage) error {
		img.AIName = analysis.Name
		img.AIDescription = analysis.Description
		img.AITags = common.StringArray(analysis.Tags)
		img.AICategoryID = categoryID
		confidence := analysis.ConfidenceScore
		img.AIConfidenceScore = &confidence
		img.AIObjects = common.StringArray(analysis.Objects)
		img.AISceneDescription = analysis.SceneDescription
		img.AIColorPalette = common.StringArray(analysis.ColorPalette)
		img.AIEmotions = common.StringArray(analysis.Emotions)
		img.AIProcessingStatus = entity.AIStatusCompleted
		img.AIErrorMessage = ""
		metadata.Reindex(img)
		return nil
	})
	return err
}
