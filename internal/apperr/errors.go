package apperr

import "errors"

// 业务错误哨兵，由仓库/服务层返回，在 API 层映射为 HTTP 状态码。
var (
	// ErrValidation 请求内容不合法（文件类型、大小、缺字段等）。
	ErrValidation = errors.New("validation failed")

	// ErrImageNotFound 图片不存在。
	ErrImageNotFound = errors.New("image not found")

	// ErrCategoryNotFound 分类不存在。
	ErrCategoryNotFound = errors.New("category not found")

	// ErrCategoryExists 分类名称已存在。
	ErrCategoryExists = errors.New("category already exists")

	// ErrCategoryInUse 分类仍被图片引用，拒绝删除。
	ErrCategoryInUse = errors.New("category still in use")

	// ErrAnalysisFailed AI 分析在重试耗尽后仍失败。
	ErrAnalysisFailed = errors.New("ai analysis failed")

	// ErrStorage 对象存储读写失败。
	ErrStorage = errors.New("storage operation failed")
)
