package service

import (
	"context"
	"testing"

	"photogallery/internal/entity"
	"photogallery/internal/metadata"
	"photogallery/internal/model"
	sqlrepo "photogallery/internal/model/sql"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestRepo 构建内存 sqlite 仓库。
func newTestRepo(t *testing.T) model.Repository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("raw db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&entity.DbCategory{}, &entity.DbImage{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return sqlrepo.NewGormRepository(db)
}

func seedImage(t *testing.T, repo model.Repository, name string, mutate func(img *entity.DbImage)) *entity.DbImage {
	t.Helper()

	img := &entity.DbImage{
		Filename:           name + ".jpg",
		OriginalFilename:   name + ".jpg",
		FilePath:           "uploads/2026/01/01/" + name + ".jpg",
		FileSize:           2048,
		MimeType:           "image/jpeg",
		FileExtension:      "jpg",
		AIProcessingStatus: entity.AIStatusPending,
	}
	if mutate != nil {
		mutate(img)
	}
	metadata.Reindex(img)

	if err := repo.CreateImage(context.Background(), img); err != nil {
		t.Fatalf("seed image: %v", err)
	}
	return img
}

func strPtr(s string) *string         { return &s }
func uintPtr(v uint) *uint            { return &v }
func tagsPtr(tags []string) *[]string { return &tags }
