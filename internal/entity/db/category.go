package db

import "time"

// Category 表示图片分类，手动创建或由 AI 分析首次提出。
type Category struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string `gorm:"column:name;type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string `gorm:"column:description;type:text" json:"description"`

	// IsAIGenerated 标记该分类最初由 AI 建议创建。
	IsAIGenerated bool `gorm:"column:is_ai_generated;not null;default:false" json:"is_ai_generated"`

	// UsageCount 等于有效分类指向该分类的图片数量。
	UsageCount int64 `gorm:"column:usage_count;not null;default:0;index" json:"usage_count"`
}

// TableName 指定表名。
func (Category) TableName() string {
	return "categories"
}
