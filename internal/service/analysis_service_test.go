package service

import (
	"context"
	"errors"
	"testing"

	"photogallery/internal/apperr"
	"photogallery/internal/entity"
	"photogallery/internal/metadata"
	"photogallery/internal/storage"
	"photogallery/internal/vision"
)

// annotatorFunc 将函数适配为 vision.Annotator。
type annotatorFunc func(ctx context.Context, req vision.AnalyzeRequest) (*vision.Analysis, error)

func (f annotatorFunc) Analyze(ctx context.Context, req vision.AnalyzeRequest) (*vision.Analysis, error) {
	return f(ctx, req)
}

func newTestStorage(t *testing.T) storage.Storage {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}
	return store
}

func seedStoredImage(t *testing.T, repo interface {
	CreateImage(ctx context.Context, image *entity.DbImage) error
}, store storage.Storage) *entity.DbImage {
	t.Helper()

	filePath, err := store.Save(context.Background(), []byte("fake-jpeg-bytes"), storage.SaveOptions{
		Category:  "uploads",
		Extension: "jpg",
	})
	if err != nil {
		t.Fatalf("save blob: %v", err)
	}

	img := &entity.DbImage{
		Filename:           "cat.jpg",
		OriginalFilename:   "cat.jpg",
		FilePath:           filePath,
		FileSize:           15,
		MimeType:           "image/jpeg",
		FileExtension:      "jpg",
		AIProcessingStatus: entity.AIStatusPending,
	}
	metadata.Reindex(img)
	if err := repo.CreateImage(context.Background(), img); err != nil {
		t.Fatalf("create image: %v", err)
	}
	return img
}

func TestAnalyzeSuccessCreatesCategory(t *testing.T) {
	repo := newTestRepo(t)
	store := newTestStorage(t)
	ctx := context.Background()

	annotator := annotatorFunc(func(ctx context.Context, req vision.AnalyzeRequest) (*vision.Analysis, error) {
		return &vision.Analysis{
			Name:            "Sleeping Cat",
			Description:     "A cat sleeping on a sofa",
			Tags:            []string{"cat", "sofa"},
			CategoryName:    "Pets",
			NewCategory:     true,
			ConfidenceScore: 0.9,
		}, nil
	})

	svc := NewAnalysisService(repo, store, annotator, 1)
	img := seedStoredImage(t, repo, store)

	if err := svc.Analyze(ctx, img.ID); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	got, err := repo.GetImage(ctx, img.ID)
	if err != nil {
		t.Fatalf("get image: %v", err)
	}
	if got.AIProcessingStatus != entity.AIStatusCompleted {
		t.Errorf("status = %s, want completed", got.AIProcessingStatus)
	}
	if got.AIName != "Sleeping Cat" {
		t.Errorf("ai name = %q", got.AIName)
	}
	if got.NeedsManualMetadata {
		t.Error("image with usable AI facet should not need manual metadata")
	}

	cat, err := repo.GetCategoryByName(ctx, "Pets")
	if err != nil {
		t.Fatalf("category should have been created: %v", err)
	}
	if !cat.IsAIGenerated {
		t.Error("AI-suggested category should be flagged is_ai_generated")
	}
	if got.EffectiveCategoryID == nil || *got.EffectiveCategoryID != cat.ID {
		t.Errorf("effective category = %v, want %d", got.EffectiveCategoryID, cat.ID)
	}
	if cat.UsageCount != 1 {
		t.Errorf("usage_count = %d, want 1", cat.UsageCount)
	}
}

func TestAnalyzeFailureMarksImage(t *testing.T) {
	repo := newTestRepo(t)
	store := newTestStorage(t)
	ctx := context.Background()

	annotator := annotatorFunc(func(ctx context.Context, req vision.AnalyzeRequest) (*vision.Analysis, error) {
		return nil, errors.New("model unavailable")
	})

	svc := NewAnalysisService(repo, store, annotator, 1)
	img := seedStoredImage(t, repo, store)

	err := svc.Analyze(ctx, img.ID)
	if !errors.Is(err, apperr.ErrAnalysisFailed) {
		t.Fatalf("expected ErrAnalysisFailed, got %v", err)
	}

	got, err := repo.GetImage(ctx, img.ID)
	if err != nil {
		t.Fatalf("get image: %v", err)
	}
	if got.AIProcessingStatus != entity.AIStatusFailed {
		t.Errorf("status = %s, want failed", got.AIProcessingStatus)
	}
	if got.AIErrorMessage == "" {
		t.Error("error message should be recorded")
	}
	if !got.NeedsManualMetadata {
		t.Error("failed analysis without user edits should need manual metadata")
	}
}

func TestAnalyzeDoesNotClobberUserEdit(t *testing.T) {
	repo := newTestRepo(t)
	store := newTestStorage(t)
	metaSvc := NewMetadataService(repo)
	ctx := context.Background()

	img := seedStoredImage(t, repo, store)

	// 分析进行中用户完成了编辑
	annotator := annotatorFunc(func(ctx context.Context, req vision.AnalyzeRequest) (*vision.Analysis, error) {
		if _, err := metaSvc.ApplyUserEdit(ctx, img.ID, entity.MetadataUpdateRequest{
			Name: strPtr("我的猫"),
		}); err != nil {
			t.Fatalf("mid-flight edit: %v", err)
		}
		return &vision.Analysis{Name: "Some Cat", ConfidenceScore: 0.8}, nil
	})

	svc := NewAnalysisService(repo, store, annotator, 1)
	if err := svc.Analyze(ctx, img.ID); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	got, err := repo.GetImage(ctx, img.ID)
	if err != nil {
		t.Fatalf("get image: %v", err)
	}
	if got.UserName != "我的猫" {
		t.Errorf("user name clobbered: %q", got.UserName)
	}
	if !got.IsManuallyEdited {
		t.Error("IsManuallyEdited lost during analysis")
	}
	if name := metadata.EffectiveName(got); name != "我的猫" {
		t.Errorf("effective name = %q, user edit must win", name)
	}
	if got.AIName != "Some Cat" {
		t.Errorf("ai facet should still be recorded, got %q", got.AIName)
	}
}

func TestReanalyzeClearsAIFacet(t *testing.T) {
	repo := newTestRepo(t)
	store := newTestStorage(t)
	ctx := context.Background()

	annotator := annotatorFunc(func(ctx context.Context, req vision.AnalyzeRequest) (*vision.Analysis, error) {
		return &vision.Analysis{Name: "First Pass", CategoryName: "Misc", NewCategory: true}, nil
	})
	svc := NewAnalysisService(repo, store, annotator, 1)

	img := seedStoredImage(t, repo, store)
	if err := svc.Analyze(ctx, img.ID); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	queued, err := svc.Reanalyze(ctx, img.ID)
	if err != nil {
		t.Fatalf("reanalyze: %v", err)
	}
	if queued.AIProcessingStatus != entity.AIStatusPending {
		t.Errorf("status = %s, want pending", queued.AIProcessingStatus)
	}
	if queued.AIName != "" || queued.AICategoryID != nil {
		t.Error("old AI facet should be cleared on reanalyze")
	}

	// 旧 AI 分类不再被引用，usage_count 回落
	cat, err := repo.GetCategoryByName(ctx, "Misc")
	if err != nil {
		t.Fatalf("get category: %v", err)
	}
	if cat.UsageCount != 0 {
		t.Errorf("usage_count = %d, want 0 after reanalyze", cat.UsageCount)
	}
}

func TestAnalyzeDisabledAnnotator(t *testing.T) {
	repo := newTestRepo(t)
	store := newTestStorage(t)
	ctx := context.Background()

	svc := NewAnalysisService(repo, store, nil, 1)
	img := seedStoredImage(t, repo, store)

	err := svc.Analyze(ctx, img.ID)
	if !errors.Is(err, apperr.ErrAnalysisFailed) {
		t.Fatalf("expected ErrAnalysisFailed, got %v", err)
	}

	got, err := repo.GetImage(ctx, img.ID)
	if err != nil {
		t.Fatalf("get image: %v", err)
	}
	if got.AIProcessingStatus != entity.AIStatusFailed {
		t.Errorf("status = %s, want failed", got.AIProcessingStatus)
	}
	if !got.NeedsManualMetadata {
		t.Error("disabled analysis should leave image in the manual queue")
	}
}
