package converter

import (
	"photogallery/internal/entity"
	"photogallery/internal/metadata"
)

// ImageToView 将持久化图片投影为对外视图：先套用合并规则得到有效值，
// 再附上两组原始字段。categoryNames 为 id → 名称 的查找表，可为 nil。
func ImageToView(img *entity.DbImage, categoryNames map[uint]string) entity.ImageView {
	view := entity.ImageView{
		ID:               img.ID,
		Filename:         img.Filename,
		OriginalFilename: img.OriginalFilename,
		FilePath:         img.FilePath,
		FileSize:         img.FileSize,
		MimeType:         img.MimeType,
		FileExtension:    img.FileExtension,

		Name:        metadata.EffectiveName(img),
		Description: metadata.EffectiveDescription(img),
		Tags:        metadata.EffectiveTags(img),
		CategoryID:  metadata.EffectiveCategoryID(img),

		UserName:        img.UserName,
		UserDescription: img.UserDescription,
		UserTags:        img.UserTags.ToSlice(),
		UserCategoryID:  img.UserCategoryID,

		AIName:             img.AIName,
		AIDescription:      img.AIDescription,
		AITags:             img.AITags.ToSlice(),
		AICategoryID:       img.AICategoryID,
		AIObjects:          img.AIObjects.ToSlice(),
		AISceneDescription: img.AISceneDescription,
		AIColorPalette:     img.AIColorPalette.ToSlice(),
		AIEmotions:         img.AIEmotions.ToSlice(),
		AIConfidenceScore:  img.AIConfidenceScore,
		AIProcessingStatus: img.AIProcessingStatus,
		AIErrorMessage:     img.AIErrorMessage,

		NeedsManualMetadata: img.NeedsManualMetadata,
		IsManuallyEdited:    img.IsManuallyEdited,
		LastEditedDate:      img.LastEditedDate,
		CreatedAt:           img.CreatedAt,
		UpdatedAt:           img.UpdatedAt,
	}

	if view.CategoryID != nil && categoryNames != nil {
		view.CategoryName = categoryNames[*view.CategoryID]
	}

	return view
}

// ImagesToViews 批量投影。
func ImagesToViews(images []entity.DbImage, categoryNames map[uint]string) []entity.ImageView {
	views := make([]entity.ImageView, 0, len(images))
	for i := range images {
		views = append(views, ImageToView(&images[i], categoryNames))
	}
	return views
}

// CategoryToView 将持久化分类投影为 DTO。
func CategoryToView(cat *entity.DbCategory) entity.Category {
	return entity.Category{
		ID:            cat.ID,
		Name:          cat.Name,
		Description:   cat.Description,
		IsAIGenerated: cat.IsAIGenerated,
		UsageCount:    cat.UsageCount,
		CreatedAt:     cat.CreatedAt,
		UpdatedAt:     cat.UpdatedAt,
	}
}

// CategoriesToViews 批量投影分类。
func CategoriesToViews(cats []entity.DbCategory) []entity.Category {
	views := make([]entity.Category, 0, len(cats))
	for i := range cats {
		views = append(views, CategoryToView(&cats[i]))
	}
	return views
}
