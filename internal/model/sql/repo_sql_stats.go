package sql

import (
	"context"
	"fmt"
	"time"

	"photogallery/internal/entity"
)

// Stats 汇总图库统计信息：总量、体积、各分类/扩展名分布、近期上传等。
func (r *GormRepository) Stats(ctx context.Context, recentWindow time.Duration) (*entity.StatsResponse, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}

	stats := &entity.StatsResponse{}
	db := r.db.WithContext(ctx)

	if err := db.Model(&entity.DbImage{}).Count(&stats.TotalImages).Error; err != nil {
		return nil, err
	}

	var totalBytes struct {
		Total int64
	}
	err := db.Model(&entity.DbImage{}).
		Select("COALESCE(SUM(file_size), 0) AS total").
		Scan(&totalBytes).Error
	if err != nil {
		return nil, err
	}
	stats.TotalBytes = totalBytes.Total
	if stats.TotalImages > 0 {
		stats.AverageBytes = float64(stats.TotalBytes) / float64(stats.TotalImages)
	}

	err = db.Model(&entity.DbImage{}).
		Where("needs_manual_metadata = ?", true).
		Count(&stats.NeedsManualMetadata).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&entity.DbImage{}).
		Where("is_manually_edited = ?", true).
		Count(&stats.ManuallyEdited).Error
	if err != nil {
		return nil, err
	}

	if recentWindow > 0 {
		since := time.Now().Add(-recentWindow)
		err = db.Model(&entity.DbImage{}).
			Where("created_at >= ?", since).
			Count(&stats.RecentUploads).Error
		if err != nil {
			return nil, err
		}
	}

	if err := db.Model(&entity.DbCategory{}).Count(&stats.TotalCategories).Error; err != nil {
		return nil, err
	}
	err = db.Model(&entity.DbCategory{}).
		Where("is_ai_generated = ?", true).
		Count(&stats.AICategories).Error
	if err != nil {
		return nil, err
	}
	stats.UserCategories = stats.TotalCategories - stats.AICategories

	var byCategory []entity.CategoryCount
	err = db.Table("categories").
		Select("categories.id AS category_id, categories.name AS category_name, COUNT(images.id) AS count").
		Joins("LEFT JOIN images ON images.effective_category_id = categories.id").
		Group("categories.id, categories.name").
		Order("count DESC, categories.name ASC").
		Scan(&byCategory).Error
	if err != nil {
		return nil, err
	}
	stats.ByCategory = byCategory

	var byExtension []entity.ExtensionCount
	err = db.Model(&entity.DbImage{}).
		Select("file_extension AS extension, COUNT(id) AS count, COALESCE(SUM(file_size), 0) AS total_bytes").
		Group("file_extension").
		Order("count DESC, extension ASC").
		Scan(&byExtension).Error
	if err != nil {
		return nil, err
	}
	stats.ByExtension = byExtension

	return stats, nil
}
