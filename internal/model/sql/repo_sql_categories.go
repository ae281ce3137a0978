package sql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"photogallery/internal/apperr"
	"photogallery/internal/entity"

	"gorm.io/gorm"
)

// CreateCategory inserts a new category. Duplicate names surface as
// apperr.ErrCategoryExists.
func (r *GormRepository) CreateCategory(ctx context.Context, category *entity.DbCategory) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if category == nil {
		return fmt.Errorf("category is nil")
	}

	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.ErrCategoryExists
		}
		return err
	}
	return nil
}

// GetCategory retrieves a single category by ID.
func (r *GormRepository) GetCategory(ctx context.Context, id uint) (*entity.DbCategory, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, apperr.ErrCategoryNotFound
	}

	var category entity.DbCategory
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	return &category, nil
}

// GetCategoryByName 按名称查找分类，忽略大小写。
func (r *GormRepository) GetCategoryByName(ctx context.Context, name string) (*entity.DbCategory, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, apperr.ErrCategoryNotFound
	}

	var category entity.DbCategory
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(trimmed)).
		First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	return &category, nil
}

// GetOrCreateCategoryByName 按名称解析分类，不存在时创建。并发创建同名
// 分类时依赖 name 的唯一索引：冲突方回读既有行，保证只留一条记录。
func (r *GormRepository) GetOrCreateCategoryByName(ctx context.Context, name, description string, aiOrigin bool) (*entity.DbCategory, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, apperr.ErrValidation
	}

	existing, err := r.GetCategoryByName(ctx, trimmed)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, apperr.ErrCategoryNotFound) {
		return nil, err
	}

	category := &entity.DbCategory{
		Name:          trimmed,
		Description:   strings.TrimSpace(description),
		IsAIGenerated: aiOrigin,
	}
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 唯一索引挡下了并发的重复创建，回读胜出的那条
			return r.GetCategoryByName(ctx, trimmed)
		}
		return nil, err
	}
	return category, nil
}

// ListCategories returns all categories ordered by name.
func (r *GormRepository) ListCategories(ctx context.Context) ([]entity.DbCategory, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}

	var categories []entity.DbCategory
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// CategoryNameMap 返回 id → 名称 查找表；ids 为空时返回全部分类。
func (r *GormRepository) CategoryNameMap(ctx context.Context, ids []uint) (map[uint]string, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbCategory{})
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}

	var categories []entity.DbCategory
	if err := query.Select("id", "name").Find(&categories).Error; err != nil {
		return nil, err
	}

	names := make(map[uint]string, len(categories))
	for _, cat := range categories {
		names[cat.ID] = cat.Name
	}
	return names, nil
}

// DeleteCategory removes a category. Categories still referenced by any
// image's effective category are rejected with apperr.ErrCategoryInUse.
func (r *GormRepository) DeleteCategory(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return apperr.ErrCategoryNotFound
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category entity.DbCategory
		if err := tx.First(&category, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrCategoryNotFound
			}
			return err
		}

		// usage_count 之外再按图片表的实际引用复核一次
		refs, err := countEffectiveRefs(tx, id)
		if err != nil {
			return err
		}
		if category.UsageCount > 0 || refs > 0 {
			return apperr.ErrCategoryInUse
		}
		return tx.Delete(&entity.DbCategory{}, id).Error
	})
}

// adjustCategoryUsage 以数据库内的原子自增调整 usage_count，避免读改写竞态。
// 自增命中零行说明目标分类在事务外被删除，整个写事务回滚，图片不会留下
// 悬空的分类引用；自减命中零行则容忍，分类已删时无计数可退。
func adjustCategoryUsage(tx *gorm.DB, id uint, delta int64) error {
	if id == 0 || delta == 0 {
		return nil
	}
	result := tx.Model(&entity.DbCategory{}).
		Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if delta > 0 && result.RowsAffected == 0 {
		return apperr.ErrCategoryNotFound
	}
	return nil
}

// rebalanceCategoryUsage 按有效分类的前后差异调整计数。
func rebalanceCategoryUsage(tx *gorm.DB, before, after *uint) error {
	if before != nil && after != nil && *before == *after {
		return nil
	}
	if before != nil {
		if err := adjustCategoryUsage(tx, *before, -1); err != nil {
			return err
		}
	}
	if after != nil {
		if err := adjustCategoryUsage(tx, *after, 1); err != nil {
			return err
		}
	}
	return nil
}
