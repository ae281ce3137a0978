package entity

// Re-export DTO types from the dto package.

import (
	"photogallery/internal/entity/dto"
)

type ImageView = dto.ImageView
type ImageListResponse = dto.ImageListResponse
type ImageDetailResponse = dto.ImageDetailResponse
type MetadataUpdateRequest = dto.MetadataUpdateRequest
type BulkMetadataUpdateRequest = dto.BulkMetadataUpdateRequest
type MetadataUpdateResult = dto.MetadataUpdateResult
type BulkMetadataUpdateResponse = dto.BulkMetadataUpdateResponse

type SearchRequest = dto.SearchRequest
type SearchResponse = dto.SearchResponse
type TagSuggestion = dto.TagSuggestion
type SuggestionsResponse = dto.SuggestionsResponse
type StatsResponse = dto.StatsResponse
type CategoryCount = dto.CategoryCount
type ExtensionCount = dto.ExtensionCount

type Category = dto.Category
type CategoryListResponse = dto.CategoryListResponse
type CategoryDetailResponse = dto.CategoryDetailResponse
type CreateCategoryRequest = dto.CreateCategoryRequest

type UploadResult = dto.UploadResult
type BatchUploadResponse = dto.BatchUploadResponse

const (
	SortByCreatedAt        = dto.SortByCreatedAt
	SortByFileSize         = dto.SortByFileSize
	SortByOriginalFilename = dto.SortByOriginalFilename
	SortByUserName         = dto.SortByUserName
)
