package db

import (
	"time"

	"photogallery/internal/entity/common"
)

// AI 分析状态。
const (
	AIStatusPending    = "pending"
	AIStatusProcessing = "processing"
	AIStatusCompleted  = "completed"
	AIStatusFailed     = "failed"
)

// Image 表示一张已上传的图片，携带用户和 AI 两组元数据。
//
// 用户字段优先于 AI 字段；空字符串/空数组视为未设置。SearchText、
// EffectiveTags 与 EffectiveCategoryID 为派生索引列，在每次元数据
// 变更的事务内重算，供检索层直接查询合并后的有效值。
type Image struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 文件信息
	Filename         string `gorm:"column:filename;type:varchar(255);not null;index" json:"filename"`
	OriginalFilename string `gorm:"column:original_filename;type:varchar(255);not null" json:"original_filename"`
	FilePath         string `gorm:"column:file_path;type:varchar(500);not null" json:"file_path"`
	FileSize         int64  `gorm:"column:file_size;not null" json:"file_size"`
	MimeType         string `gorm:"column:mime_type;type:varchar(100);not null" json:"mime_type"`
	FileExtension    string `gorm:"column:file_extension;type:varchar(10);not null;index" json:"file_extension"`

	// 用户元数据
	UserName        string             `gorm:"column:user_name;type:varchar(200);index" json:"user_name"`
	UserDescription string             `gorm:"column:user_description;type:text" json:"user_description"`
	UserTags        common.StringArray `gorm:"column:user_tags;type:json" json:"user_tags"`
	UserCategoryID  *uint              `gorm:"column:user_category_id;index" json:"user_category_id"`
	UserCategory    *Category          `gorm:"foreignKey:UserCategoryID" json:"-"`

	// AI 元数据
	AIName            string             `gorm:"column:ai_name;type:varchar(200);index" json:"ai_name"`
	AIDescription     string             `gorm:"column:ai_description;type:text" json:"ai_description"`
	AITags            common.StringArray `gorm:"column:ai_tags;type:json" json:"ai_tags"`
	AICategoryID      *uint              `gorm:"column:ai_category_id;index" json:"ai_category_id"`
	AICategory        *Category          `gorm:"foreignKey:AICategoryID" json:"-"`
	AIConfidenceScore *float64           `gorm:"column:ai_confidence_score" json:"ai_confidence_score"`

	// AI 附加分析结果
	AIObjects          common.StringArray `gorm:"column:ai_objects;type:json" json:"ai_objects"`
	AISceneDescription string             `gorm:"column:ai_scene_description;type:text" json:"ai_scene_description"`
	AIColorPalette     common.StringArray `gorm:"column:ai_color_palette;type:json" json:"ai_color_palette"`
	AIEmotions         common.StringArray `gorm:"column:ai_emotions;type:json" json:"ai_emotions"`

	AIProcessingStatus string `gorm:"column:ai_processing_status;type:varchar(20);not null;default:pending;index" json:"ai_processing_status"`
	AIErrorMessage     string `gorm:"column:ai_error_message;type:text" json:"ai_error_message"`

	// 派生状态
	NeedsManualMetadata bool       `gorm:"column:needs_manual_metadata;not null;default:false;index" json:"needs_manual_metadata"`
	IsManuallyEdited    bool       `gorm:"column:is_manually_edited;not null;default:false" json:"is_manually_edited"`
	LastEditedDate      *time.Time `gorm:"column:last_edited_date" json:"last_edited_date"`

	// 有效值索引列，随元数据变更事务性重算
	SearchText          string             `gorm:"column:search_text;type:text" json:"-"`
	EffectiveTags       common.StringArray `gorm:"column:effective_tags;type:json" json:"-"`
	EffectiveCategoryID *uint              `gorm:"column:effective_category_id;index" json:"-"`
}

// TableName 指定表名。
func (Image) TableName() string {
	return "images"
}

// HasUserFacet 判断用户是否设置过任一元数据字段。
func (img *Image) HasUserFacet() bool {
	return img.UserName != "" ||
		img.UserDescription != "" ||
		len(img.UserTags) > 0 ||
		img.UserCategoryID != nil
}

// HasAIFacet 判断 AI 元数据是否可用。
func (img *Image) HasAIFacet() bool {
	if img.AIProcessingStatus != AIStatusCompleted {
		return false
	}
	return img.AIName != "" || img.AIDescription != "" || len(img.AITags) > 0
}
