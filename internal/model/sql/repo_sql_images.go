package sql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"photogallery/internal/apperr"
	"photogallery/internal/entity"
	"photogallery/internal/entity/common"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortColumns 白名单：请求的排序字段 → 实际列名。
var sortColumns = map[string]string{
	entity.SortByCreatedAt:        "created_at",
	entity.SortByFileSize:         "file_size",
	entity.SortByOriginalFilename: "original_filename",
	entity.SortByUserName:         "user_name",
}

// CreateImage inserts a new image record and bumps the usage count of its
// effective category in the same transaction.
func (r *GormRepository) CreateImage(ctx context.Context, image *entity.DbImage) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if image == nil {
		return fmt.Errorf("image is nil")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(image).Error; err != nil {
			return err
		}
		if image.EffectiveCategoryID != nil {
			return adjustCategoryUsage(tx, *image.EffectiveCategoryID, 1)
		}
		return nil
	})
}

// GetImage retrieves a single image by ID.
func (r *GormRepository) GetImage(ctx context.Context, id uint) (*entity.DbImage, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, apperr.ErrImageNotFound
	}

	var image entity.DbImage
	if err := r.db.WithContext(ctx).First(&image, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrImageNotFound
		}
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return &image, nil
}

// UpdateImage loads the image inside a transaction, applies the mutate
// callback, persists the result, and rebalances category usage counts from the
// effective-category delta. The row is locked on backends that support it so
// concurrent facet writes cannot lose usage-count updates.
func (r *GormRepository) UpdateImage(ctx context.Context, id uint, mutate func(img *entity.DbImage) error) (*entity.DbImage, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return nil, apperr.ErrImageNotFound
	}
	if mutate == nil {
		return nil, fmt.Errorf("mutate callback is nil")
	}

	var updated *entity.DbImage
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var image entity.DbImage
		query := tx
		if supportsRowLocking(tx) {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := query.First(&image, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrImageNotFound
			}
			return err
		}

		oldCategory := image.EffectiveCategoryID

		if err := mutate(&image); err != nil {
			return err
		}

		if err := tx.Save(&image).Error; err != nil {
			return err
		}

		if err := rebalanceCategoryUsage(tx, oldCategory, image.EffectiveCategoryID); err != nil {
			return err
		}

		updated = &image
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteImage removes an image record and decrements the usage count of its
// effective category.
func (r *GormRepository) DeleteImage(ctx context.Context, id uint) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if id == 0 {
		return apperr.ErrImageNotFound
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var image entity.DbImage
		if err := tx.First(&image, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrImageNotFound
			}
			return err
		}
		if err := tx.Delete(&entity.DbImage{}, id).Error; err != nil {
			return err
		}
		if image.EffectiveCategoryID != nil {
			return adjustCategoryUsage(tx, *image.EffectiveCategoryID, -1)
		}
		return nil
	})
}

// SearchImages 在有效值索引列上执行多条件检索，返回当前页与总数。
// 排序结果总是以 id 收尾，保证翻页稳定。
func (r *GormRepository) SearchImages(ctx context.Context, params *entity.SearchRequest) ([]entity.DbImage, int64, error) {
	if r == nil || r.db == nil {
		return nil, 0, fmt.Errorf("repository not initialised")
	}

	query := r.db.WithContext(ctx).Model(&entity.DbImage{})

	page, limit := 1, 20
	if params != nil {
		if trimmed := strings.ToLower(strings.TrimSpace(params.Query)); trimmed != "" {
			query = query.Where("search_text LIKE ?", "%"+trimmed+"%")
		}
		if len(params.CategoryIDs) > 0 {
			query = query.Where("effective_category_id IN ?", params.CategoryIDs)
		}
		// 标签为 AND 语义：每个标签都要出现在有效标签集合中。
		for _, tag := range params.Tags {
			trimmed := strings.ToLower(strings.TrimSpace(tag))
			if trimmed == "" {
				continue
			}
			query = query.Where("effective_tags LIKE ? ESCAPE '!'", tagLikeNeedle(trimmed))
		}
		if params.DateFrom != nil {
			query = query.Where("created_at >= ?", *params.DateFrom)
		}
		if params.DateTo != nil {
			query = query.Where("created_at <= ?", *params.DateTo)
		}
		if params.NeedsManualMetadata != nil {
			query = query.Where("needs_manual_metadata = ?", *params.NeedsManualMetadata)
		}
		page = params.Page
		limit = params.Limit
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	page, limit, offset := normalisePage(page, limit)

	var images []entity.DbImage
	if err := query.Order(buildOrderClause(params)).Offset(offset).Limit(limit).Find(&images).Error; err != nil {
		return nil, 0, err
	}

	return images, totalCount, nil
}

// likeEscaper 转义 LIKE 通配符，! 为转义字符。
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// tagLikeNeedle 构造单个标签在 effective_tags JSON 列上的精确匹配模式。
// 标签先做 JSON 编码，与 StringArray 的存储编码保持一致（含 & < > 等
// 字符的转义），带引号匹配即等价于数组元素的精确匹配；再转义 LIKE
// 通配符，标签里的 % 和 _ 只按字面量匹配。
func tagLikeNeedle(tag string) string {
	raw, err := json.Marshal(tag)
	if err != nil {
		raw = []byte(`"` + tag + `"`)
	}
	return "%" + likeEscaper.Replace(string(raw)) + "%"
}

// buildOrderClause 将排序参数映射到白名单列并附加 id 断点。
func buildOrderClause(params *entity.SearchRequest) string {
	if params == nil || strings.TrimSpace(params.SortBy) == "" {
		return "created_at DESC, id DESC"
	}

	column, ok := sortColumns[strings.ToLower(strings.TrimSpace(params.SortBy))]
	if !ok {
		return "created_at DESC, id DESC"
	}

	direction := "ASC"
	if strings.EqualFold(strings.TrimSpace(params.SortOrder), "desc") {
		direction = "DESC"
	}

	return fmt.Sprintf("%s %s, id ASC", column, direction)
}

// ListEffectiveTags 仅拉取有效标签列，供标签建议聚合。
func (r *GormRepository) ListEffectiveTags(ctx context.Context) ([]common.StringArray, error) {
	if r == nil || r.db == nil {
		return nil, fmt.Errorf("repository not initialised")
	}

	var rows []common.StringArray
	err := r.db.WithContext(ctx).
		Model(&entity.DbImage{}).
		Where("effective_tags IS NOT NULL AND effective_tags <> '' AND effective_tags <> '[]'").
		Pluck("effective_tags", &rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CountImagesByEffectiveCategory 统计有效分类指向给定分类的图片数。
func (r *GormRepository) CountImagesByEffectiveCategory(ctx context.Context, categoryID uint) (int64, error) {
	if r == nil || r.db == nil {
		return 0, fmt.Errorf("repository not initialised")
	}
	return countEffectiveRefs(r.db.WithContext(ctx), categoryID)
}

// countEffectiveRefs 在给定事务/会话内统计有效分类引用数，
// DeleteCategory 删前复核也走这里。
func countEffectiveRefs(tx *gorm.DB, categoryID uint) (int64, error) {
	var count int64
	err := tx.Model(&entity.DbImage{}).
		Where("effective_category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}

// supportsRowLocking 判断方言是否支持 SELECT ... FOR UPDATE。
// SQLite 的写事务本身串行化，无需行锁。
func supportsRowLocking(tx *gorm.DB) bool {
	if tx == nil || tx.Dialector == nil {
		return false
	}
	switch strings.ToLower(tx.Dialector.Name()) {
	case "mysql", "postgres":
		return true
	default:
		return false
	}
}
