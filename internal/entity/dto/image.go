package dto

import "time"

// ImageView 是对外暴露的图片视图：合并后的有效元数据加上原始双组字段。
type ImageView struct {
	ID               uint   `json:"id"`
	Filename         string `json:"filename"`
	OriginalFilename string `json:"original_filename"`
	FilePath         string `json:"file_path"`
	FileSize         int64  `json:"file_size"`
	MimeType         string `json:"mime_type"`
	FileExtension    string `json:"file_extension"`

	// 合并后的有效值
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	CategoryID    *uint    `json:"category_id"`
	CategoryName  string   `json:"category_name,omitempty"`

	// 用户原始字段
	UserName        string   `json:"user_name,omitempty"`
	UserDescription string   `json:"user_description,omitempty"`
	UserTags        []string `json:"user_tags,omitempty"`
	UserCategoryID  *uint    `json:"user_category_id,omitempty"`

	// AI 原始字段
	AIName             string   `json:"ai_name,omitempty"`
	AIDescription      string   `json:"ai_description,omitempty"`
	AITags             []string `json:"ai_tags,omitempty"`
	AICategoryID       *uint    `json:"ai_category_id,omitempty"`
	AIObjects          []string `json:"ai_objects,omitempty"`
	AISceneDescription string   `json:"ai_scene_description,omitempty"`
	AIColorPalette     []string `json:"ai_color_palette,omitempty"`
	AIEmotions         []string `json:"ai_emotions,omitempty"`
	AIConfidenceScore  *float64 `json:"ai_confidence_score,omitempty"`
	AIProcessingStatus string   `json:"ai_processing_status"`
	AIErrorMessage     string   `json:"ai_error_message,omitempty"`

	NeedsManualMetadata bool       `json:"needs_manual_metadata"`
	IsManuallyEdited    bool       `json:"is_manually_edited"`
	LastEditedDate      *time.Time `json:"last_edited_date,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// ImageListResponse 图片列表响应。
type ImageListResponse struct {
	Images []ImageView `json:"images"`
	Meta   interface{} `json:"meta,omitempty"`
}

// ImageDetailResponse 单张图片响应。
type ImageDetailResponse struct {
	Image ImageView `json:"image"`
}

// MetadataUpdateRequest 用户元数据编辑请求，nil 字段表示保持不变。
// CategoryID 传 0 表示清除用户分类。
type MetadataUpdateRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	CategoryID  *uint     `json:"category_id"`
}

// IsEmpty 判断请求是否未携带任何字段。
func (r MetadataUpdateRequest) IsEmpty() bool {
	return r.Name == nil && r.Description == nil && r.Tags == nil && r.CategoryID == nil
}

// BulkMetadataUpdateRequest 批量编辑请求。
type BulkMetadataUpdateRequest struct {
	ImageIDs []uint                `json:"image_ids" binding:"required"`
	Updates  MetadataUpdateRequest `json:"updates"`
}

// MetadataUpdateResult 单张图片的编辑结果。
type MetadataUpdateResult struct {
	ImageID uint   `json:"image_id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BulkMetadataUpdateResponse 批量编辑响应，逐条返回结果。
type BulkMetadataUpdateResponse struct {
	Total     int                    `json:"total"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Results   []MetadataUpdateResult `json:"results"`
}
