package sql

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"photogallery/internal/apperr"
	"photogallery/internal/entity"
	"photogallery/internal/metadata"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *GormRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// 内存库绑定单个连接
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&entity.DbCategory{}, &entity.DbImage{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return NewGormRepository(db)
}

func newTestImage(t *testing.T, repo *GormRepository, name string, mutate func(img *entity.DbImage)) *entity.DbImage {
	t.Helper()

	img := &entity.DbImage{
		Filename:           name + ".jpg",
		OriginalFilename:   name + ".jpg",
		FilePath:           "uploads/2026/01/01/" + name + ".jpg",
		FileSize:           1024,
		MimeType:           "image/jpeg",
		FileExtension:      "jpg",
		AIProcessingStatus: entity.AIStatusPending,
	}
	if mutate != nil {
		mutate(img)
	}
	metadata.Reindex(img)

	if err := repo.CreateImage(context.Background(), img); err != nil {
		t.Fatalf("create image: %v", err)
	}
	return img
}

func TestCategoryUsageWalk(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	pets, err := repo.GetOrCreateCategoryByName(ctx, "Pets", "animals", true)
	if err != nil {
		t.Fatalf("create pets: %v", err)
	}
	garden, err := repo.GetOrCreateCategoryByName(ctx, "Garden", "", false)
	if err != nil {
		t.Fatalf("create garden: %v", err)
	}

	// AI 把图片分到 Pets
	img := newTestImage(t, repo, "dog", func(img *entity.DbImage) {
		img.AIName = "Dog"
		img.AICategoryID = &pets.ID
		img.AIProcessingStatus = entity.AIStatusCompleted
	})

	assertUsage(t, repo, pets.ID, 1)
	assertUsage(t, repo, garden.ID, 0)

	// 用户改分类到 Garden
	_, err = repo.UpdateImage(ctx, img.ID, func(img *entity.DbImage) error {
		img.UserCategoryID = &garden.ID
		img.IsManuallyEdited = true
		metadata.Reindex(img)
		return nil
	})
	if err != nil {
		t.Fatalf("update image: %v", err)
	}

	assertUsage(t, repo, pets.ID, 0)
	assertUsage(t, repo, garden.ID, 1)

	// 撤销用户编辑，回落到 AI 分类
	_, err = repo.UpdateImage(ctx, img.ID, func(img *entity.DbImage) error {
		img.UserCategoryID = nil
		img.IsManuallyEdited = false
		metadata.Reindex(img)
		return nil
	})
	if err != nil {
		t.Fatalf("reset image: %v", err)
	}

	assertUsage(t, repo, pets.ID, 1)
	assertUsage(t, repo, garden.ID, 0)

	// 删除图片后计数归零
	if err := repo.DeleteImage(ctx, img.ID); err != nil {
		t.Fatalf("delete image: %v", err)
	}
	assertUsage(t, repo, pets.ID, 0)
}

func assertUsage(t *testing.T, repo *GormRepository, categoryID uint, expected int64) {
	t.Helper()
	cat, err := repo.GetCategory(context.Background(), categoryID)
	if err != nil {
		t.Fatalf("get category %d: %v", categoryID, err)
	}
	if cat.UsageCount != expected {
		t.Errorf("category %d usage_count = %d, want %d", categoryID, cat.UsageCount, expected)
	}
	count, err := repo.CountImagesByEffectiveCategory(context.Background(), categoryID)
	if err != nil {
		t.Fatalf("count images: %v", err)
	}
	if count != expected {
		t.Errorf("category %d effective image count = %d, want %d", categoryID, count, expected)
	}
}

func TestGetOrCreateCategoryCaseInsensitive(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.GetOrCreateCategoryByName(ctx, "Nature", "", true)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := repo.GetOrCreateCategoryByName(ctx, "nature", "", true)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("expected same category, got %d and %d", first.ID, second.ID)
	}

	categories, err := repo.ListCategories(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(categories) != 1 {
		t.Errorf("expected 1 category, got %d", len(categories))
	}
}

func TestCreateCategoryDuplicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.CreateCategory(ctx, &entity.DbCategory{Name: "Travel"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := repo.CreateCategory(ctx, &entity.DbCategory{Name: "Travel"})
	if !errors.Is(err, apperr.ErrCategoryExists) {
		t.Errorf("expected ErrCategoryExists, got %v", err)
	}
}

func TestDeleteCategoryPolicy(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cat, err := repo.GetOrCreateCategoryByName(ctx, "Food", "", false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newTestImage(t, repo, "pizza", func(img *entity.DbImage) {
		img.UserCategoryID = &cat.ID
	})

	err = repo.DeleteCategory(ctx, cat.ID)
	if !errors.Is(err, apperr.ErrCategoryInUse) {
		t.Fatalf("expected ErrCategoryInUse, got %v", err)
	}

	// 不存在的分类
	err = repo.DeleteCategory(ctx, 9999)
	if !errors.Is(err, apperr.ErrCategoryNotFound) {
		t.Errorf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestDeleteCategoryRecountGuard(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cat, err := repo.GetOrCreateCategoryByName(ctx, "Drift", "", false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	newTestImage(t, repo, "drift", func(img *entity.DbImage) {
		img.UserCategoryID = &cat.ID
	})

	// 人为把计数清零，引用仍在，删前复核要能挡下
	err = repo.db.Model(&entity.DbCategory{}).
		Where("id = ?", cat.ID).
		UpdateColumn("usage_count", 0).Error
	if err != nil {
		t.Fatalf("zero usage_count: %v", err)
	}

	err = repo.DeleteCategory(ctx, cat.ID)
	if !errors.Is(err, apperr.ErrCategoryInUse) {
		t.Errorf("expected ErrCategoryInUse from reference recount, got %v", err)
	}
}

func TestUpdateImageRejectsVanishedCategory(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cat, err := repo.GetOrCreateCategoryByName(ctx, "Fleeting", "", false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	img := newTestImage(t, repo, "orphan", nil)

	// 分类在写事务开始前被删除
	if err := repo.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}

	_, err = repo.UpdateImage(ctx, img.ID, func(img *entity.DbImage) error {
		img.UserName = "should not persist"
		img.UserCategoryID = &cat.ID
		metadata.Reindex(img)
		return nil
	})
	if !errors.Is(err, apperr.ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}

	// 整个事务回滚，图片不留悬空引用
	reloaded, err := repo.GetImage(ctx, img.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.UserName != "" || reloaded.EffectiveCategoryID != nil {
		t.Errorf("update not rolled back: name=%q category=%v", reloaded.UserName, reloaded.EffectiveCategoryID)
	}
}

func TestSearchTagANDSemantics(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	newTestImage(t, repo, "a", func(img *entity.DbImage) {
		img.AITags = []string{"beach", "sunset"}
		img.AIName = "a"
		img.AIProcessingStatus = entity.AIStatusCompleted
	})
	newTestImage(t, repo, "b", func(img *entity.DbImage) {
		img.AITags = []string{"beach"}
		img.AIName = "b"
		img.AIProcessingStatus = entity.AIStatusCompleted
	})

	images, total, err := repo.SearchImages(ctx, &entity.SearchRequest{Tags: []string{"Beach", "SUNSET"}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || len(images) != 1 {
		t.Fatalf("expected exactly one match, got total=%d len=%d", total, len(images))
	}
	if images[0].OriginalFilename != "a.jpg" {
		t.Errorf("expected a.jpg, got %s", images[0].OriginalFilename)
	}
}

func TestSearchTagSpecialCharacters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// 存储层对 & 等字符做 JSON unicode 转义，匹配模式必须走同一编码
	newTestImage(t, repo, "bw", func(img *entity.DbImage) {
		img.AITags = []string{"black&white"}
		img.AIName = "bw"
		img.AIProcessingStatus = entity.AIStatusCompleted
	})
	newTestImage(t, repo, "grid", func(img *entity.DbImage) {
		img.AITags = []string{"100x100"}
		img.AIName = "grid"
		img.AIProcessingStatus = entity.AIStatusCompleted
	})
	newTestImage(t, repo, "pct", func(img *entity.DbImage) {
		img.AITags = []string{"100%"}
		img.AIName = "pct"
		img.AIProcessingStatus = entity.AIStatusCompleted
	})

	images, total, err := repo.SearchImages(ctx, &entity.SearchRequest{Tags: []string{"black&white"}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || len(images) != 1 || images[0].OriginalFilename != "bw.jpg" {
		t.Errorf("tag with ampersand: got total=%d, want the bw image", total)
	}

	// 标签里的 % 和 _ 是字面量，不是 LIKE 通配符
	images, total, err = repo.SearchImages(ctx, &entity.SearchRequest{Tags: []string{"100%"}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || len(images) != 1 || images[0].OriginalFilename != "pct.jpg" {
		t.Errorf("literal percent tag: got total=%d, want only the pct image", total)
	}

	_, total, err = repo.SearchImages(ctx, &entity.SearchRequest{Tags: []string{"100_100"}})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 0 {
		t.Errorf("underscore must not act as wildcard, got %d matches", total)
	}
}

func TestSearchEffectiveText(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	img := newTestImage(t, repo, "c", func(img *entity.DbImage) {
		img.AIName = "Mountain Lake"
		img.AIProcessingStatus = entity.AIStatusCompleted
	})

	_, total, err := repo.SearchImages(ctx, &entity.SearchRequest{Query: "mountain"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected AI name match, got %d", total)
	}

	// 用户重命名后旧名不再命中
	_, err = repo.UpdateImage(ctx, img.ID, func(img *entity.DbImage) error {
		img.UserName = "Holiday"
		metadata.Reindex(img)
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	_, total, err = repo.SearchImages(ctx, &entity.SearchRequest{Query: "mountain"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 0 {
		t.Errorf("renamed image should not match old ai name, got %d", total)
	}

	_, total, err = repo.SearchImages(ctx, &entity.SearchRequest{Query: "HOLIDAY"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 {
		t.Errorf("expected case-insensitive match on user name, got %d", total)
	}
}

func TestSearchPaginationRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const totalImages = 25
	for i := 0; i < totalImages; i++ {
		newTestImage(t, repo, fmt.Sprintf("img%02d", i), nil)
	}

	seen := make(map[uint]bool)
	page := 1
	for {
		images, total, err := repo.SearchImages(ctx, &entity.SearchRequest{Page: page, Limit: 10})
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if total != totalImages {
			t.Fatalf("total = %d, want %d", total, totalImages)
		}
		if len(images) == 0 {
			break
		}
		for _, img := range images {
			if seen[img.ID] {
				t.Fatalf("image %d appeared on multiple pages", img.ID)
			}
			seen[img.ID] = true
		}
		page++
	}

	if len(seen) != totalImages {
		t.Errorf("pages union = %d images, want %d", len(seen), totalImages)
	}
}

func TestBuildOrderClause(t *testing.T) {
	tests := []struct {
		name     string
		params   *entity.SearchRequest
		expected string
	}{
		{
			name:     "default ordering",
			params:   nil,
			expected: "created_at DESC, id DESC",
		},
		{
			name:     "unknown column falls back",
			params:   &entity.SearchRequest{SortBy: "password"},
			expected: "created_at DESC, id DESC",
		},
		{
			name:     "explicit ascending",
			params:   &entity.SearchRequest{SortBy: "file_size", SortOrder: "asc"},
			expected: "file_size ASC, id ASC",
		},
		{
			name:     "explicit descending",
			params:   &entity.SearchRequest{SortBy: "original_filename", SortOrder: "DESC"},
			expected: "original_filename DESC, id ASC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildOrderClause(tt.params); got != tt.expected {
				t.Errorf("buildOrderClause() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cat, err := repo.GetOrCreateCategoryByName(ctx, "Pets", "", true)
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	newTestImage(t, repo, "d", func(img *entity.DbImage) {
		img.FileSize = 100
		img.AICategoryID = &cat.ID
		img.AIName = "dog"
		img.AIProcessingStatus = entity.AIStatusCompleted
	})
	newTestImage(t, repo, "e", func(img *entity.DbImage) {
		img.FileSize = 300
	})

	stats, err := repo.Stats(ctx, 0)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if stats.TotalImages != 2 {
		t.Errorf("TotalImages = %d, want 2", stats.TotalImages)
	}
	if stats.TotalBytes != 400 {
		t.Errorf("TotalBytes = %d, want 400", stats.TotalBytes)
	}
	if stats.AverageBytes != 200 {
		t.Errorf("AverageBytes = %f, want 200", stats.AverageBytes)
	}
	if stats.NeedsManualMetadata != 1 {
		t.Errorf("NeedsManualMetadata = %d, want 1", stats.NeedsManualMetadata)
	}
	if stats.AICategories != 1 {
		t.Errorf("AICategories = %d, want 1", stats.AICategories)
	}

	foundPets := false
	for _, c := range stats.ByCategory {
		if c.CategoryID == cat.ID {
			foundPets = true
			if c.Count != 1 {
				t.Errorf("Pets count = %d, want 1", c.Count)
			}
		}
	}
	if !foundPets {
		t.Error("Pets category missing from ByCategory")
	}
}
