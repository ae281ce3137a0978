package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photogallery/internal/apperr"
	"photogallery/internal/entity"
	"photogallery/internal/entity/common"
	"photogallery/internal/metadata"
	"photogallery/internal/model"

	"github.com/sirupsen/logrus"
)

// MetadataService 处理用户元数据编辑：套用编辑、整体撤销、批量编辑。
// 所有写入都经由仓库的事务化 UpdateImage，派生索引列随之重算。
type MetadataService struct {
	repo model.Repository
}

func NewMetadataService(repo model.Repository) *MetadataService {
	return &MetadataService{repo: repo}
}

// ApplyUserEdit 将用户编辑写入用户元数据组。nil 字段保持不变，空串/空数组
// 表示清除该字段，CategoryID 传 0 清除用户分类。任何一次编辑都会将图片
// 标记为人工编辑并刷新编辑时间。
func (s *MetadataService) ApplyUserEdit(ctx context.Context, imageID uint, req entity.MetadataUpdateRequest) (*entity.DbImage, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("metadata service not initialised")
	}
	if req.IsEmpty() {
		return nil, apperr.ErrValidation
	}

	// 先校验分类给出快速失败；并发删除分类由写事务内的
	// usage_count 自增兜底，命中零行即回滚
	if req.CategoryID != nil && *req.CategoryID != 0 {
		if _, err := s.repo.GetCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	img, err := s.repo.UpdateImage(ctx, imageID, func(img *entity.DbImage) error {
		if req.Name != nil {
			img.UserName = *req.Name
		}
		if req.Description != nil {
			img.UserDescription = *req.Description
		}
		if req.Tags != nil {
			img.UserTags = common.StringArray(*req.Tags)
		}
		if req.CategoryID != nil {
			if *req.CategoryID == 0 {
				img.UserCategoryID = nil
			} else {
				id := *req.CategoryID
				img.UserCategoryID = &id
			}
		}

		now := time.Now()
		img.IsManuallyEdited = true
		img.LastEditedDate = &now
		metadata.Reindex(img)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"image_id": imageID,
	}).Info("user metadata updated")
	return img, nil
}

// ResetUserEdit 清空整组用户元数据，图片回落到 AI 元数据或原始文件名。
// 对未编辑过的图片调用是幂等的。
func (s *MetadataService) ResetUserEdit(ctx context.Context, imageID uint) (*entity.DbImage, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("metadata service not initialised")
	}

	img, err := s.repo.UpdateImage(ctx, imageID, func(img *entity.DbImage) error {
		img.UserName = ""
		img.UserDescription = ""
		img.UserTags = nil
		img.UserCategoryID = nil
		img.IsManuallyEdited = false
		img.LastEditedDate = nil
		metadata.Reindex(img)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"image_id": imageID,
	}).Info("user metadata reset")
	return img, nil
}

// BulkApplyUserEdit 对多张图片套用同一份编辑，逐张隔离失败：
// 一张图片失败不影响其余图片，逐条返回结果。
func (s *MetadataService) BulkApplyUserEdit(ctx context.Context, req entity.BulkMetadataUpdateRequest) (*entity.BulkMetadataUpdateResponse, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("metadata service not initialised")
	}
	if len(req.ImageIDs) == 0 || req.Updates.IsEmpty() {
		return nil, apperr.ErrValidation
	}

	resp := &entity.BulkMetadataUpdateResponse{
		Total:   len(req.ImageIDs),
		Results: make([]entity.MetadataUpdateResult, 0, len(req.ImageIDs)),
	}

	for _, imageID := range req.ImageIDs {
		result := entity.MetadataUpdateResult{ImageID: imageID, Success: true}
		if _, err := s.ApplyUserEdit(ctx, imageID, req.Updates); err != nil {
			result.Success = false
			result.Error = editErrorMessage(err)
			resp.Failed++
		} else {
			resp.Succeeded++
		}
		resp.Results = append(resp.Results, result)
	}

	return resp, nil
}

func editErrorMessage(err error) string {
	switch {
	case errors.Is(err, apperr.ErrImageNotFound):
		return "image not found"
	case errors.Is(err, apperr.ErrCategoryNotFound):
		return "category not found"
	case errors.Is(err, apperr.ErrValidation):
		return "invalid update"
	default:
		return err.Error()
	}
}
