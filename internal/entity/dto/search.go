package dto

import "time"

// 排序字段白名单。
const (
	SortByCreatedAt        = "created_at"
	SortByFileSize         = "file_size"
	SortByOriginalFilename = "original_filename"
	SortByUserName         = "user_name"
)

// SearchRequest 检索条件。分类集合为 OR 语义，标签集合为 AND 语义
// （图片的有效标签需包含全部给定标签，忽略大小写）。
type SearchRequest struct {
	Query               string     `json:"query" form:"query"`
	CategoryIDs         []uint     `json:"categories" form:"category_id"`
	Tags                []string   `json:"tags" form:"tags"`
	DateFrom            *time.Time `json:"date_from" form:"date_from" time_format:"2006-01-02"`
	DateTo              *time.Time `json:"date_to" form:"date_to" time_format:"2006-01-02"`
	NeedsManualMetadata *bool      `json:"needs_manual_metadata" form:"needs_manual_metadata"`
	SortBy              string     `json:"sort_by" form:"sort_by"`
	SortOrder           string     `json:"sort_order" form:"sort_order"`
	Page                int        `json:"page" form:"page"`
	Limit               int        `json:"limit" form:"limit"`
}

// SearchResponse 检索结果页。
type SearchResponse struct {
	Images     []ImageView `json:"images"`
	TotalCount int64       `json:"total_count"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int64       `json:"total_pages"`
	HasNext    bool        `json:"has_next"`
	HasPrev    bool        `json:"has_prev"`
}

// TagSuggestion 带频次的标签建议。
type TagSuggestion struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// SuggestionsResponse 标签建议响应。
type SuggestionsResponse struct {
	Suggestions []TagSuggestion `json:"suggestions"`
	Query       string          `json:"query"`
	Count       int             `json:"count"`
}

// CategoryCount 单个分类的图片数量。
type CategoryCount struct {
	CategoryID   uint   `json:"category_id"`
	CategoryName string `json:"category_name"`
	Count        int64  `json:"count"`
}

// ExtensionCount 单个扩展名的数量与字节数。
type ExtensionCount struct {
	Extension  string `json:"extension"`
	Count      int64  `json:"count"`
	TotalBytes int64  `json:"total_bytes"`
}

// StatsResponse 图库统计。
type StatsResponse struct {
	TotalImages         int64            `json:"total_images"`
	TotalBytes          int64            `json:"total_bytes"`
	AverageBytes        float64          `json:"average_bytes"`
	NeedsManualMetadata int64            `json:"needs_manual_metadata"`
	ManuallyEdited      int64            `json:"manually_edited"`
	RecentUploads       int64            `json:"recent_uploads"`
	TotalCategories     int64            `json:"total_categories"`
	AICategories        int64            `json:"ai_categories"`
	UserCategories      int64            `json:"user_categories"`
	ByCategory          []CategoryCount  `json:"by_category"`
	ByExtension         []ExtensionCount `json:"by_extension"`
}
