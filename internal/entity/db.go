package entity

// Re-export common and db types so callers can keep a single import.

import (
	"photogallery/internal/entity/common"
	"photogallery/internal/entity/db"
)

// Type aliases for common types
type StringArray = common.StringArray
type Meta = common.Meta

// Type aliases for persisted models
type DbImage = db.Image
type DbCategory = db.Category

// AI 分析状态
const (
	AIStatusPending    = db.AIStatusPending
	AIStatusProcessing = db.AIStatusProcessing
	AIStatusCompleted  = db.AIStatusCompleted
	AIStatusFailed     = db.AIStatusFailed
)
