package dto

import "time"

// Category 分类视图。
type Category struct {
	ID            uint      `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	IsAIGenerated bool      `json:"is_ai_generated"`
	UsageCount    int64     `json:"usage_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CategoryListResponse 分类列表响应。
type CategoryListResponse struct {
	Categories []Category `json:"categories"`
}

// CategoryDetailResponse 单个分类响应。
type CategoryDetailResponse struct {
	Category Category `json:"category"`
}

// CreateCategoryRequest 手动创建分类请求。
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}
