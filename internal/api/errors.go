package api

import (
	"errors"
	"net/http"

	"photogallery/internal/apperr"

	"github.com/gin-gonic/gin"
)

// 错误码定义
const (
	ErrCodeInvalidRequest = "ERR_INVALID_REQUEST"
	ErrCodeValidation     = "ERR_VALIDATION"
	ErrCodeInternalError  = "ERR_INTERNAL_ERROR"

	ErrCodeImageNotFound    = "ERR_IMAGE_NOT_FOUND"
	ErrCodeCategoryNotFound = "ERR_CATEGORY_NOT_FOUND"
	ErrCodeCategoryExists   = "ERR_CATEGORY_EXISTS"
	ErrCodeCategoryInUse    = "ERR_CATEGORY_IN_USE"
	ErrCodeAnalysisFailed   = "ERR_ANALYSIS_FAILED"
	ErrCodeStorage          = "ERR_STORAGE"
	ErrCodeFileNotFound     = "ERR_FILE_NOT_FOUND"
)

// APIError 统一的 API 错误响应结构
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResponse 返回统一格式的错误响应
func ErrorResponse(c *gin.Context, status int, code string, message string) {
	c.JSON(status, APIError{
		Code:    code,
		Message: message,
	})
}

// ErrorResponseWithDetails 返回带详情的错误响应
func ErrorResponseWithDetails(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, APIError{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// 常用错误响应快捷函数

// BadRequest 400 错误请求
func BadRequest(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusBadRequest, code, message)
}

// NotFound 404 资源不存在
func NotFound(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusNotFound, code, message)
}

// Conflict 409 资源冲突
func Conflict(c *gin.Context, code string, message string) {
	ErrorResponse(c, http.StatusConflict, code, message)
}

// InternalError 500 服务器内部错误
func InternalError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// InvalidPayload 无效的请求体
func InvalidPayload(c *gin.Context) {
	ErrorResponse(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request payload")
}

// RespondError 将业务错误哨兵映射为 HTTP 响应。
func RespondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		ErrorResponse(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, apperr.ErrImageNotFound):
		ErrorResponse(c, http.StatusNotFound, ErrCodeImageNotFound, "image not found")
	case errors.Is(err, apperr.ErrCategoryNotFound):
		ErrorResponse(c, http.StatusNotFound, ErrCodeCategoryNotFound, "category not found")
	case errors.Is(err, apperr.ErrCategoryExists):
		ErrorResponse(c, http.StatusConflict, ErrCodeCategoryExists, "category name already exists")
	case errors.Is(err, apperr.ErrCategoryInUse):
		ErrorResponse(c, http.StatusConflict, ErrCodeCategoryInUse, "category is still referenced by images")
	case errors.Is(err, apperr.ErrAnalysisFailed):
		ErrorResponse(c, http.StatusBadGateway, ErrCodeAnalysisFailed, "ai analysis failed")
	case errors.Is(err, apperr.ErrStorage):
		ErrorResponse(c, http.StatusInternalServerError, ErrCodeStorage, "storage operation failed")
	default:
		InternalError(c, "internal server error")
	}
}
